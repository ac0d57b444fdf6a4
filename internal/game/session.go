// Package game hosts the stateful core of the assassin game: a single
// mutex-guarded session over the in-memory store. The lock is released
// across every conversational wait and voting window, so long-running
// interactions overlap freely; anything decided during a wait is
// re-validated against live state before it takes effect.
package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"assassin/internal/domain"
	"assassin/internal/flow"
	"assassin/internal/platform"
	"assassin/internal/render"
)

const defaultProofTimeout = 60 * time.Second

// Settings configures a session. Timeout fields default to the standard
// windows when zero, which tests override to keep runs fast.
type Settings struct {
	ManagerID              string
	LeaderboardChannelID   string
	StatusChannelID        string
	AssassinationChannelID string
	DisputeChannelID       string

	VotingDuration  time.Duration
	PromptTimeout   time.Duration
	ProofTimeout    time.Duration
	ApprovalTimeout time.Duration
}

func (s Settings) withDefaults() Settings {
	if s.PromptTimeout <= 0 {
		s.PromptTimeout = flow.DefaultTimeout
	}
	if s.ProofTimeout <= 0 {
		s.ProofTimeout = defaultProofTimeout
	}
	if s.ApprovalTimeout <= 0 {
		s.ApprovalTimeout = flow.ApprovalTimeout
	}
	return s
}

// Session owns the game state and orchestrates every command against it.
type Session struct {
	mu     sync.Mutex
	game   *domain.Game
	m      platform.Messenger
	votes  VoteCollector
	st     Settings
	logger *slog.Logger
}

// NewSession creates a session with a fresh, not-started game.
func NewSession(m platform.Messenger, st Settings, logger *slog.Logger) *Session {
	st = st.withDefaults()
	return &Session{
		game:   domain.NewGame(),
		m:      m,
		st:     st,
		votes:  &ReactionCollector{Messenger: m, Window: st.VotingDuration},
		logger: logger,
	}
}

func (s *Session) isManager(p domain.PlayerID) bool {
	return string(p) == s.st.ManagerID
}

// say posts to a channel best-effort; notification failures never roll
// back the state change that triggered them.
func (s *Session) say(ctx context.Context, channelID, text string) {
	if _, err := s.m.Send(ctx, channelID, text); err != nil {
		s.logger.Warn("notification failed", "channelId", channelID, "error", err)
	}
}

// Start begins a new game running for the given duration.
func (s *Session) Start(ctx context.Context, requester domain.PlayerID, duration time.Duration) (time.Time, error) {
	if !s.isManager(requester) {
		return time.Time{}, domain.ErrUnauthorized
	}

	s.mu.Lock()
	err := s.game.Start(duration, time.Now())
	endsAt := s.game.EndsAt
	s.mu.Unlock()
	if err != nil {
		return time.Time{}, err
	}

	s.logger.Info("game started", "endsAt", endsAt)
	go s.watchDeadline(ctx, endsAt)
	return endsAt, nil
}

// watchDeadline ends the game when the clock runs out.
func (s *Session) watchDeadline(ctx context.Context, endsAt time.Time) {
	timer := time.NewTimer(time.Until(endsAt))
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return
	case <-timer.C:
	}

	s.mu.Lock()
	// A win or a later restart supersedes this deadline.
	if !s.game.Started || !s.game.EndsAt.Equal(endsAt) {
		s.mu.Unlock()
		return
	}
	s.game.End()
	s.mu.Unlock()

	s.logger.Info("game deadline reached")
	s.say(ctx, s.st.StatusChannelID, "Time is up! The game has ended.")
	s.RefreshLeaderboard(ctx)
}

// Leave removes the player from their team, transferring ownership or
// disbanding the team as needed.
func (s *Session) Leave(ctx context.Context, player domain.PlayerID) (domain.LeaveResult, error) {
	s.mu.Lock()
	if !s.game.Started {
		s.mu.Unlock()
		return domain.LeaveResult{}, domain.ErrNoGame
	}
	res, err := s.game.Leave(player)
	s.mu.Unlock()
	if err != nil {
		return domain.LeaveResult{}, err
	}

	s.RefreshLeaderboard(ctx)
	return res, nil
}

// Disqualify removes a player from their team by manager fiat.
func (s *Session) Disqualify(ctx context.Context, requester, target domain.PlayerID) (domain.LeaveResult, error) {
	if !s.isManager(requester) {
		return domain.LeaveResult{}, domain.ErrUnauthorized
	}

	s.mu.Lock()
	if !s.game.Started {
		s.mu.Unlock()
		return domain.LeaveResult{}, domain.ErrNoGame
	}
	res, err := s.game.Disqualify(target)
	s.mu.Unlock()
	if err != nil {
		return domain.LeaveResult{}, err
	}

	if res.Disbanded {
		s.say(ctx, s.st.StatusChannelID,
			fmt.Sprintf("Team '%s' has been disqualified as all members have been disqualified.", res.Team))
	}
	s.RefreshLeaderboard(ctx)
	return res, nil
}

// PostStatus posts every team's roster card to the status channel.
func (s *Session) PostStatus(ctx context.Context) error {
	s.mu.Lock()
	if !s.game.Started {
		s.mu.Unlock()
		return domain.ErrNoGame
	}
	cards := make([]platform.Card, 0)
	for _, t := range s.game.Teams() {
		cards = append(cards, render.TeamCard(t))
	}
	s.mu.Unlock()

	if len(cards) == 0 {
		s.say(ctx, s.st.StatusChannelID, "No teams have been formed yet.")
		return nil
	}
	for _, card := range cards {
		if _, err := s.m.SendCard(ctx, s.st.StatusChannelID, card); err != nil {
			return fmt.Errorf("post status: %w", err)
		}
	}
	return nil
}

// PostLeaderboard refreshes the leaderboard channel on request.
func (s *Session) PostLeaderboard(ctx context.Context) error {
	s.mu.Lock()
	started := s.game.Started
	s.mu.Unlock()
	if !started {
		return domain.ErrNoGame
	}
	s.RefreshLeaderboard(ctx)
	return nil
}

// RefreshLeaderboard purges and reposts the leaderboard. Best-effort: a
// failed refresh is logged, never propagated.
func (s *Session) RefreshLeaderboard(ctx context.Context) {
	s.mu.Lock()
	teams := s.game.Teams()
	if len(teams) == 0 {
		s.mu.Unlock()
		s.say(ctx, s.st.LeaderboardChannelID, "No teams have been formed yet.")
		return
	}
	card := render.LeaderboardCard(teams)
	s.mu.Unlock()

	if err := s.m.Purge(ctx, s.st.LeaderboardChannelID); err != nil {
		s.logger.Warn("leaderboard purge failed", "error", err)
	}
	if _, err := s.m.SendCard(ctx, s.st.LeaderboardChannelID, card); err != nil {
		s.logger.Warn("leaderboard post failed", "error", err)
	}
}

// flowAbortText maps a conversation failure to its user-facing message, or
// "" for errors that are not the user's doing.
func flowAbortText(err error) string {
	switch {
	case errors.Is(err, flow.ErrTimedOut):
		return "Timed out. Please try again."
	case errors.Is(err, flow.ErrInvalidResponse):
		return "Invalid response. Please try again."
	default:
		return ""
	}
}
