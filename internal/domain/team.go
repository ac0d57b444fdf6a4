package domain

import "time"

// PlayerID identifies a player on the chat platform.
type PlayerID string

// Elimination records one confirmed kill credited to a team.
type Elimination struct {
	Target PlayerID  `json:"target"`
	Team   string    `json:"team"` // target's team at the time of the kill
	At     time.Time `json:"at"`
}

// Team represents a team of players.
type Team struct {
	Name         string        `json:"name"`
	Members      []PlayerID    `json:"members"` // insertion order, Members[0] is the founder
	Owner        PlayerID      `json:"owner"`
	Eliminations []Elimination `json:"eliminations"`
	Eliminated   bool          `json:"eliminated"`
	Target       PlayerID      `json:"target,omitempty"` // assigned target, informational only
	CreatedAt    time.Time     `json:"createdAt"`
}

// NewTeam creates a team owned by its founding member.
func NewTeam(name string, owner PlayerID) *Team {
	return &Team{
		Name:         name,
		Members:      []PlayerID{owner},
		Owner:        owner,
		Eliminations: make([]Elimination, 0),
		CreatedAt:    time.Now(),
	}
}

// HasMember reports whether the player belongs to this team.
func (t *Team) HasMember(id PlayerID) bool {
	for _, m := range t.Members {
		if m == id {
			return true
		}
	}
	return false
}

// RemoveMember removes the player, preserving insertion order.
// It reports whether the player was a member.
func (t *Team) RemoveMember(id PlayerID) bool {
	for i, m := range t.Members {
		if m == id {
			t.Members = append(t.Members[:i], t.Members[i+1:]...)
			return true
		}
	}
	return false
}

// Score returns the number of confirmed eliminations.
func (t *Team) Score() int {
	return len(t.Eliminations)
}
