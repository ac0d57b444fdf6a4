package domain

import (
	"math/rand/v2"
	"time"
)

// Game is the process-wide game state: teams, pending assassination claims
// and open disputes. It owns every record exclusively; callers mutate state
// only through its methods. The type itself is not safe for concurrent use,
// the session layer serializes access.
type Game struct {
	Started bool
	EndsAt  time.Time

	teams     map[string]*Team
	teamOrder []string // team names in creation order

	claims      map[int]*AssassinationClaim
	nextClaimID int

	disputes      map[int]*Dispute
	nextDisputeID int
}

// NewGame creates a game in the not-started state.
func NewGame() *Game {
	return &Game{
		teams:    make(map[string]*Team),
		claims:   make(map[int]*AssassinationClaim),
		disputes: make(map[int]*Dispute),
	}
}

// Start begins a game running until now+duration.
func (g *Game) Start(duration time.Duration, now time.Time) error {
	if g.Started {
		return ErrAlreadyInProgress
	}
	g.Started = true
	g.EndsAt = now.Add(duration)
	return nil
}

// End stops the game.
func (g *Game) End() {
	g.Started = false
}

// Team returns the team with the given name.
func (g *Game) Team(name string) (*Team, bool) {
	t, ok := g.teams[name]
	return t, ok
}

// TeamOf returns the team the player belongs to, if any.
func (g *Game) TeamOf(p PlayerID) (*Team, bool) {
	for _, name := range g.teamOrder {
		if t := g.teams[name]; t.HasMember(p) {
			return t, true
		}
	}
	return nil, false
}

// Teams returns all teams in creation order, eliminated ones included.
func (g *Game) Teams() []*Team {
	out := make([]*Team, 0, len(g.teamOrder))
	for _, name := range g.teamOrder {
		out = append(out, g.teams[name])
	}
	return out
}

// AliveTeams returns the teams not yet eliminated, in creation order.
func (g *Game) AliveTeams() []*Team {
	out := make([]*Team, 0, len(g.teamOrder))
	for _, name := range g.teamOrder {
		if t := g.teams[name]; !t.Eliminated {
			out = append(out, t)
		}
	}
	return out
}

// CreateTeam creates a new team owned by the founder. Team names are
// unique; a colliding name would make two teams indistinguishable in
// every lookup.
func (g *Game) CreateTeam(name string, founder PlayerID) (*Team, error) {
	if _, ok := g.teams[name]; ok {
		return nil, ErrTeamNameTaken
	}
	if _, ok := g.TeamOf(founder); ok {
		return nil, ErrAlreadyInTeam
	}
	t := NewTeam(name, founder)
	g.teams[name] = t
	g.teamOrder = append(g.teamOrder, name)
	return t, nil
}

// AddMember adds the player to an existing team.
func (g *Game) AddMember(teamName string, p PlayerID) (*Team, error) {
	t, ok := g.teams[teamName]
	if !ok || t.Eliminated {
		return nil, ErrTeamNotFound
	}
	if _, ok := g.TeamOf(p); ok {
		return nil, ErrAlreadyInTeam
	}
	t.Members = append(t.Members, p)
	return t, nil
}

// LeaveResult describes the side effects of a player leaving a team.
type LeaveResult struct {
	Team      string
	NewOwner  PlayerID // set when ownership transferred
	Disbanded bool     // team deleted because its last member left
}

// Leave removes the player from their team. When the owner leaves,
// ownership passes to the first remaining member in insertion order;
// when the last member leaves, the team is deleted.
func (g *Game) Leave(p PlayerID) (LeaveResult, error) {
	t, ok := g.TeamOf(p)
	if !ok {
		return LeaveResult{}, ErrNotInTeam
	}
	t.RemoveMember(p)
	res := LeaveResult{Team: t.Name}
	if len(t.Members) == 0 {
		g.deleteTeam(t.Name)
		res.Disbanded = true
		return res, nil
	}
	if t.Owner == p {
		t.Owner = t.Members[0]
		res.NewOwner = t.Owner
	}
	return res, nil
}

// Disqualify removes the player from their team by manager fiat. The team
// is deleted when it empties; ownership is not reassigned otherwise.
func (g *Game) Disqualify(p PlayerID) (LeaveResult, error) {
	t, ok := g.TeamOf(p)
	if !ok {
		return LeaveResult{}, ErrPlayerNotFound
	}
	t.RemoveMember(p)
	res := LeaveResult{Team: t.Name}
	if len(t.Members) == 0 {
		g.deleteTeam(t.Name)
		res.Disbanded = true
	}
	return res, nil
}

func (g *Game) deleteTeam(name string) {
	delete(g.teams, name)
	for i, n := range g.teamOrder {
		if n == name {
			g.teamOrder = append(g.teamOrder[:i], g.teamOrder[i+1:]...)
			return
		}
	}
}

// OpenClaim validates and registers a new assassination claim. Both team
// names are snapshotted so the claim can be re-validated at resolution.
func (g *Game) OpenClaim(assassin, target PlayerID) (*AssassinationClaim, error) {
	assassinTeam, ok := g.TeamOf(assassin)
	if !ok {
		return nil, ErrNotInTeam
	}
	targetTeam, ok := g.TeamOf(target)
	if !ok {
		return nil, ErrNotInTeam
	}
	if assassinTeam == targetTeam {
		return nil, ErrSameTeam
	}
	if targetTeam.Eliminated {
		return nil, ErrTargetTeamEliminated
	}
	g.nextClaimID++
	c := &AssassinationClaim{
		ID:           g.nextClaimID,
		Assassin:     assassin,
		AssassinTeam: assassinTeam.Name,
		Target:       target,
		TargetTeam:   targetTeam.Name,
		Phase:        ClaimAwaitingProof,
		CreatedAt:    time.Now(),
	}
	g.claims[c.ID] = c
	return c, nil
}

// Claim returns a pending claim by id.
func (g *Game) Claim(id int) (*AssassinationClaim, bool) {
	c, ok := g.claims[id]
	return c, ok
}

// DropClaim removes a claim from the store. Claims never persist past one
// voting cycle, so every resolution path ends here.
func (g *Game) DropClaim(id int) {
	delete(g.claims, id)
}

// ApplyAccepted applies the effects of a community-accepted claim. Team
// membership may have changed during the voting window, so the snapshot
// is re-validated first; a claim that no longer holds fails with
// ErrClaimStale and mutates nothing.
func (g *Game) ApplyAccepted(c *AssassinationClaim) (ClaimOutcome, error) {
	targetTeam, ok := g.teams[c.TargetTeam]
	if !ok || targetTeam.Eliminated || !targetTeam.HasMember(c.Target) {
		return ClaimOutcome{}, ErrClaimStale
	}
	assassinTeam, ok := g.teams[c.AssassinTeam]
	if !ok || assassinTeam.Eliminated || !assassinTeam.HasMember(c.Assassin) {
		return ClaimOutcome{}, ErrClaimStale
	}

	targetTeam.RemoveMember(c.Target)
	assassinTeam.Eliminations = append(assassinTeam.Eliminations, Elimination{
		Target: c.Target,
		Team:   c.TargetTeam,
		At:     time.Now(),
	})
	c.Phase = ClaimAccepted

	var out ClaimOutcome
	if len(targetTeam.Members) > 0 {
		return out, nil
	}

	targetTeam.Eliminated = true
	out.TeamEliminated = true

	alive := g.AliveTeams()
	if len(alive) == 1 {
		// Last team standing; by construction it is the assassin's.
		g.Started = false
		out.Winner = assassinTeam.Name
		return out, nil
	}

	candidates := make([]*Team, 0, len(alive)-1)
	for _, t := range alive {
		if t != assassinTeam {
			candidates = append(candidates, t)
		}
	}
	next := candidates[rand.IntN(len(candidates))]
	assassinTeam.Target = next.Members[0]
	out.NewTarget = assassinTeam.Target
	out.NewTargetTeam = next.Name
	return out, nil
}

// SubmitDispute records a new dispute and returns it.
func (g *Game) SubmitDispute(p PlayerID, description string) *Dispute {
	g.nextDisputeID++
	d := &Dispute{
		ID:          g.nextDisputeID,
		Submitter:   p,
		Description: description,
		CreatedAt:   time.Now(),
	}
	g.disputes[d.ID] = d
	return d
}

// Dispute returns an open dispute by id.
func (g *Game) Dispute(id int) (*Dispute, bool) {
	d, ok := g.disputes[id]
	return d, ok
}

// ResolveDispute removes a dispute and returns it for notification.
func (g *Game) ResolveDispute(id int) (*Dispute, error) {
	d, ok := g.disputes[id]
	if !ok {
		return nil, ErrDisputeNotFound
	}
	delete(g.disputes, id)
	return d, nil
}
