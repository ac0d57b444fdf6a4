package game

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"assassin/internal/domain"
	"assassin/internal/platform"
	"assassin/internal/platform/platformtest"
)

func testSettings() Settings {
	return Settings{
		ManagerID:              "mgr",
		LeaderboardChannelID:   "lb",
		StatusChannelID:        "status",
		AssassinationChannelID: "kills",
		DisputeChannelID:       "disputes",
		VotingDuration:         10 * time.Millisecond,
		PromptTimeout:          50 * time.Millisecond,
		ProofTimeout:           50 * time.Millisecond,
		ApprovalTimeout:        50 * time.Millisecond,
	}
}

func newTestSession(t *testing.T) (*Session, *platformtest.Fake) {
	t.Helper()
	f := platformtest.New()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewSession(f, testSettings(), logger), f
}

func startGame(t *testing.T, s *Session) {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.game.Start(time.Hour, time.Now()); err != nil {
		t.Fatalf("start game: %v", err)
	}
}

func seedTeam(t *testing.T, s *Session, name string, members ...domain.PlayerID) {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.game.CreateTeam(name, members[0]); err != nil {
		t.Fatalf("seed team %s: %v", name, err)
	}
	for _, m := range members[1:] {
		if _, err := s.game.AddMember(name, m); err != nil {
			t.Fatalf("seed member %s: %v", m, err)
		}
	}
}

func teamOf(s *Session, p domain.PlayerID) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.game.TeamOf(p)
	if !ok {
		return "", false
	}
	return t.Name, true
}

func gameStarted(s *Session) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.game.Started
}

func contains(lines []string, substr string) bool {
	for _, l := range lines {
		if strings.Contains(l, substr) {
			return true
		}
	}
	return false
}

// collectorStub replaces the reaction collector; before, when set, runs
// inside the voting window to simulate concurrent mutations.
type collectorStub struct {
	tally  domain.VoteTally
	before func()
}

func (c *collectorStub) Collect(ctx context.Context, channelID, messageID string) (domain.VoteTally, error) {
	if c.before != nil {
		c.before()
	}
	return c.tally, nil
}

func TestStartAuthorization(t *testing.T) {
	s, _ := newTestSession(t)
	ctx := context.Background()

	if _, err := s.Start(ctx, "rando", time.Hour); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if _, err := s.Start(ctx, "mgr", time.Hour); err != nil {
		t.Fatalf("manager start: %v", err)
	}
	if _, err := s.Start(ctx, "mgr", time.Hour); !errors.Is(err, domain.ErrAlreadyInProgress) {
		t.Fatalf("expected ErrAlreadyInProgress, got %v", err)
	}
}

func TestDeadlineEndsGame(t *testing.T) {
	s, f := newTestSession(t)
	ctx := context.Background()

	if _, err := s.Start(ctx, "mgr", 20*time.Millisecond); err != nil {
		t.Fatalf("start: %v", err)
	}

	deadline := time.Now().Add(time.Second)
	for gameStarted(s) {
		if time.Now().After(deadline) {
			t.Fatal("game did not end at its deadline")
		}
		time.Sleep(5 * time.Millisecond)
	}

	// Give the announcement a moment to land.
	time.Sleep(20 * time.Millisecond)
	if !contains(f.ContentsIn("status"), "Time is up") {
		t.Fatalf("missing end-of-game announcement: %v", f.ContentsIn("status"))
	}
}

func TestJoinRequiresGame(t *testing.T) {
	s, _ := newTestSession(t)
	if err := s.Join(context.Background(), "p1", "origin"); !errors.Is(err, domain.ErrNoGame) {
		t.Fatalf("expected ErrNoGame, got %v", err)
	}
}

func TestJoinCreateFlow(t *testing.T) {
	s, f := newTestSession(t)
	startGame(t, s)
	dm := platformtest.DMChannel("p1")

	f.Deliver(platform.Message{ChannelID: dm, AuthorID: "p1", Content: "create"})
	f.Deliver(platform.Message{ChannelID: dm, AuthorID: "p1", Content: "Alpha"})

	if err := s.Join(context.Background(), "p1", "origin"); err != nil {
		t.Fatalf("join: %v", err)
	}

	name, ok := teamOf(s, "p1")
	if !ok || name != "Alpha" {
		t.Fatalf("p1 team = %q/%v, want Alpha", name, ok)
	}
	if !contains(f.ContentsIn(dm), "created successfully") {
		t.Fatalf("missing confirmation: %v", f.ContentsIn(dm))
	}
	if len(f.CardsIn("lb")) == 0 {
		t.Fatal("leaderboard not refreshed after team creation")
	}
}

func TestJoinTimeoutLeavesMembershipUnchanged(t *testing.T) {
	s, f := newTestSession(t)
	startGame(t, s)
	dm := platformtest.DMChannel("p1")

	if err := s.Join(context.Background(), "p1", "origin"); err != nil {
		t.Fatalf("join should swallow conversation timeouts, got %v", err)
	}

	if _, ok := teamOf(s, "p1"); ok {
		t.Fatal("timed-out join must leave membership unchanged")
	}
	if !contains(f.ContentsIn(dm), "Timed out") {
		t.Fatalf("missing timeout notice: %v", f.ContentsIn(dm))
	}
}

func TestJoinExistingApproved(t *testing.T) {
	s, f := newTestSession(t)
	startGame(t, s)
	seedTeam(t, s, "beta", "owner")
	dm := platformtest.DMChannel("p1")

	f.Deliver(platform.Message{ChannelID: dm, AuthorID: "p1", Content: "join"})
	f.Deliver(platform.Message{ChannelID: dm, AuthorID: "p1", Content: "1"})
	f.Deliver(platform.Message{ChannelID: "origin", AuthorID: "owner", Content: "yes"})

	if err := s.Join(context.Background(), "p1", "origin"); err != nil {
		t.Fatalf("join: %v", err)
	}

	name, ok := teamOf(s, "p1")
	if !ok || name != "beta" {
		t.Fatalf("p1 team = %q/%v, want beta", name, ok)
	}
	if !contains(f.ContentsIn("origin"), "Do you approve?") {
		t.Fatalf("approval request not posted to origin: %v", f.ContentsIn("origin"))
	}
}

func TestJoinExistingDenied(t *testing.T) {
	s, f := newTestSession(t)
	startGame(t, s)
	seedTeam(t, s, "beta", "owner")
	dm := platformtest.DMChannel("p1")

	f.Deliver(platform.Message{ChannelID: dm, AuthorID: "p1", Content: "join"})
	f.Deliver(platform.Message{ChannelID: dm, AuthorID: "p1", Content: "1"})
	f.Deliver(platform.Message{ChannelID: "origin", AuthorID: "owner", Content: "no"})

	if err := s.Join(context.Background(), "p1", "origin"); err != nil {
		t.Fatalf("join: %v", err)
	}

	if _, ok := teamOf(s, "p1"); ok {
		t.Fatal("denied join must leave the player teamless")
	}
	if !contains(f.ContentsIn(dm), "denied") {
		t.Fatalf("missing denial notice: %v", f.ContentsIn(dm))
	}
}

func TestJoinAlreadyInTeam(t *testing.T) {
	s, _ := newTestSession(t)
	startGame(t, s)
	seedTeam(t, s, "beta", "p1")

	if err := s.Join(context.Background(), "p1", "origin"); !errors.Is(err, domain.ErrAlreadyInTeam) {
		t.Fatalf("expected ErrAlreadyInTeam, got %v", err)
	}
}

func TestLeaveRefreshIsBestEffort(t *testing.T) {
	s, f := newTestSession(t)
	startGame(t, s)
	seedTeam(t, s, "beta", "p1", "p2")
	f.PurgeErr = errors.New("purge broken")

	res, err := s.Leave(context.Background(), "p2")
	if err != nil {
		t.Fatalf("leave must not fail on refresh errors: %v", err)
	}
	if res.Team != "beta" {
		t.Fatalf("unexpected result %+v", res)
	}
	if _, ok := teamOf(s, "p2"); ok {
		t.Fatal("p2 should be removed despite the failed refresh")
	}
}

func TestDisqualifyAuthorization(t *testing.T) {
	s, _ := newTestSession(t)
	startGame(t, s)
	seedTeam(t, s, "beta", "p1")

	if _, err := s.Disqualify(context.Background(), "p1", "p1"); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}

	res, err := s.Disqualify(context.Background(), "mgr", "p1")
	if err != nil {
		t.Fatalf("disqualify: %v", err)
	}
	if !res.Disbanded {
		t.Fatal("expected team disband")
	}
}

func TestAssassinateWinScenario(t *testing.T) {
	// Team alpha (2 members), team beta (1 member). Assassinate beta's
	// sole member, vote 2-0 accept: beta eliminated, alpha wins, game ends.
	s, f := newTestSession(t)
	startGame(t, s)
	seedTeam(t, s, "alpha", "a1", "a2")
	seedTeam(t, s, "beta", "b1")
	s.votes = &collectorStub{tally: domain.VoteTally{Up: 2, Down: 0}}

	f.Deliver(platform.Message{
		ChannelID:   "origin",
		AuthorID:    "a1",
		Content:     "here you go",
		Attachments: []platform.Attachment{{URL: "https://cdn.example/proof.png"}},
	})

	if err := s.Assassinate(context.Background(), "a1", "b1", "origin"); err != nil {
		t.Fatalf("assassinate: %v", err)
	}

	if gameStarted(s) {
		t.Fatal("game should end when alpha is the last team standing")
	}
	status := f.ContentsIn("status")
	if !contains(status, "Team 'beta' has been eliminated!") {
		t.Fatalf("missing elimination announcement: %v", status)
	}
	if !contains(status, "Team 'alpha' is the last team standing and wins the game!") {
		t.Fatalf("missing winner announcement: %v", status)
	}

	cards := f.CardsIn("kills")
	if len(cards) != 1 || cards[0].ImageURL != "https://cdn.example/proof.png" {
		t.Fatalf("claim card not published with proof: %+v", cards)
	}

	s.mu.Lock()
	_, claimLeft := s.game.Claim(1)
	s.mu.Unlock()
	if claimLeft {
		t.Fatal("claim must be removed from the store after resolution")
	}
}

func TestAssassinateRejectedOnTie(t *testing.T) {
	s, f := newTestSession(t)
	startGame(t, s)
	seedTeam(t, s, "alpha", "a1")
	seedTeam(t, s, "beta", "b1", "b2")
	s.votes = &collectorStub{tally: domain.VoteTally{Up: 1, Down: 1}}

	f.Deliver(platform.Message{
		ChannelID:   "origin",
		AuthorID:    "a1",
		Attachments: []platform.Attachment{{URL: "https://cdn.example/p.png"}},
	})

	if err := s.Assassinate(context.Background(), "a1", "b1", "origin"); err != nil {
		t.Fatalf("assassinate: %v", err)
	}

	if name, ok := teamOf(s, "b1"); !ok || name != "beta" {
		t.Fatal("rejected claim must not mutate membership")
	}
	if !contains(f.ContentsIn("kills"), "Assassination rejected") {
		t.Fatalf("missing rejection notice: %v", f.ContentsIn("kills"))
	}
}

func TestAssassinateRejectedWithoutVotes(t *testing.T) {
	s, f := newTestSession(t)
	startGame(t, s)
	seedTeam(t, s, "alpha", "a1")
	seedTeam(t, s, "beta", "b1", "b2")
	s.votes = &collectorStub{}

	f.Deliver(platform.Message{
		ChannelID:   "origin",
		AuthorID:    "a1",
		Attachments: []platform.Attachment{{URL: "https://cdn.example/p.png"}},
	})

	if err := s.Assassinate(context.Background(), "a1", "b1", "origin"); err != nil {
		t.Fatalf("assassinate: %v", err)
	}
	if !contains(f.ContentsIn("kills"), "No votes were cast") {
		t.Fatalf("missing zero-vote notice: %v", f.ContentsIn("kills"))
	}
}

func TestAssassinateNoProof(t *testing.T) {
	s, _ := newTestSession(t)
	startGame(t, s)
	seedTeam(t, s, "alpha", "a1")
	seedTeam(t, s, "beta", "b1")

	err := s.Assassinate(context.Background(), "a1", "b1", "origin")
	if !errors.Is(err, domain.ErrNoProof) {
		t.Fatalf("expected ErrNoProof, got %v", err)
	}
	if name, ok := teamOf(s, "b1"); !ok || name != "beta" {
		t.Fatal("aborted claim must not mutate membership")
	}
}

func TestAssassinateEliminatedTeam(t *testing.T) {
	s, _ := newTestSession(t)
	startGame(t, s)
	seedTeam(t, s, "alpha", "a1")
	seedTeam(t, s, "beta", "b1")

	s.mu.Lock()
	beta, _ := s.game.Team("beta")
	beta.Eliminated = true
	s.mu.Unlock()

	err := s.Assassinate(context.Background(), "a1", "b1", "origin")
	if !errors.Is(err, domain.ErrTargetTeamEliminated) {
		t.Fatalf("expected ErrTargetTeamEliminated, got %v", err)
	}
}

func TestAssassinateStaleAfterMidVoteLeave(t *testing.T) {
	s, f := newTestSession(t)
	startGame(t, s)
	seedTeam(t, s, "alpha", "a1")
	seedTeam(t, s, "beta", "b1", "b2")

	// The target leaves while the vote is open; the accepted claim must
	// be voided rather than applied against stale state.
	s.votes = &collectorStub{
		tally: domain.VoteTally{Up: 3, Down: 0},
		before: func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if _, err := s.game.Leave("b1"); err != nil {
				t.Errorf("mid-vote leave: %v", err)
			}
		},
	}

	f.Deliver(platform.Message{
		ChannelID:   "origin",
		AuthorID:    "a1",
		Attachments: []platform.Attachment{{URL: "https://cdn.example/p.png"}},
	})

	err := s.Assassinate(context.Background(), "a1", "b1", "origin")
	if !errors.Is(err, domain.ErrClaimStale) {
		t.Fatalf("expected ErrClaimStale, got %v", err)
	}
	if !contains(f.ContentsIn("kills"), "voided") {
		t.Fatalf("missing voided notice: %v", f.ContentsIn("kills"))
	}

	s.mu.Lock()
	alpha, _ := s.game.Team("alpha")
	score := alpha.Score()
	s.mu.Unlock()
	if score != 0 {
		t.Fatalf("stale claim credited an elimination, score=%d", score)
	}
}

func TestDisputeRoundTrip(t *testing.T) {
	s, f := newTestSession(t)
	startGame(t, s)

	d, err := s.SubmitDispute(context.Background(), "p1", "foo")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if d.ID != 1 {
		t.Fatalf("dispute id = %d, want 1", d.ID)
	}
	if len(f.CardsIn("disputes")) != 1 {
		t.Fatal("dispute card not posted to the dispute channel")
	}
	if !contains(f.ContentsIn(platformtest.DMChannel("mgr")), "dispute #1") {
		t.Fatalf("manager not notified: %v", f.ContentsIn(platformtest.DMChannel("mgr")))
	}

	if _, err := s.ResolveDispute(context.Background(), "p1", 1, "ok"); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for non-manager, got %v", err)
	}

	if _, err := s.ResolveDispute(context.Background(), "mgr", 1, "ok"); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !contains(f.ContentsIn(platformtest.DMChannel("p1")), "resolved: ok") {
		t.Fatalf("submitter not notified: %v", f.ContentsIn(platformtest.DMChannel("p1")))
	}

	if _, err := s.ResolveDispute(context.Background(), "mgr", 1, "ok"); !errors.Is(err, domain.ErrDisputeNotFound) {
		t.Fatalf("expected ErrDisputeNotFound, got %v", err)
	}
}

func TestPostStatusWithoutTeams(t *testing.T) {
	s, f := newTestSession(t)
	startGame(t, s)

	if err := s.PostStatus(context.Background()); err != nil {
		t.Fatalf("status: %v", err)
	}
	if !contains(f.ContentsIn("status"), "No teams have been formed yet.") {
		t.Fatalf("missing empty notice: %v", f.ContentsIn("status"))
	}
}

func TestReactionCollectorExcludesSeedReactions(t *testing.T) {
	f := platformtest.New()
	f.Counts["m42"] = map[string]int{EmojiAccept: 4, EmojiReject: 2}

	rc := &ReactionCollector{Messenger: f, Window: 5 * time.Millisecond}
	tally, err := rc.Collect(context.Background(), "kills", "m42")
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if tally.Up != 3 || tally.Down != 1 {
		t.Fatalf("tally = %+v, want 3-1 after excluding the bot's seeds", tally)
	}
	if got := f.Reactions("m42"); len(got) != 2 {
		t.Fatalf("seed reactions not added: %v", got)
	}
}
