package game

import (
	"context"
	"errors"
	"fmt"
	"time"

	"assassin/internal/domain"
	"assassin/internal/platform"
	"assassin/internal/render"
)

// Reaction choices seeded on every published claim.
const (
	EmojiAccept = "✅" // white heavy check mark
	EmojiReject = "❌" // cross mark
)

// VoteCollector gathers the public vote on a published claim. The
// accept/reject decision itself stays in domain.VoteTally, independent of
// how votes are physically collected.
type VoteCollector interface {
	Collect(ctx context.Context, channelID, messageID string) (domain.VoteTally, error)
}

// ReactionCollector implements VoteCollector over message reactions: it
// seeds the two choices, waits out the voting window and re-fetches the
// counts, excluding the bot's own seed reaction from each side. The window
// always runs to completion; there is no early termination on unanimity.
type ReactionCollector struct {
	Messenger platform.Messenger
	Window    time.Duration
}

// Collect implements VoteCollector.
func (rc *ReactionCollector) Collect(ctx context.Context, channelID, messageID string) (domain.VoteTally, error) {
	if err := rc.Messenger.AddReactions(ctx, channelID, messageID, EmojiAccept, EmojiReject); err != nil {
		return domain.VoteTally{}, fmt.Errorf("seed reactions: %w", err)
	}

	timer := time.NewTimer(rc.Window)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
		return domain.VoteTally{}, ctx.Err()
	}

	counts, err := rc.Messenger.ReactionCounts(ctx, channelID, messageID)
	if err != nil {
		return domain.VoteTally{}, fmt.Errorf("fetch reactions: %w", err)
	}
	return domain.VoteTally{
		Up:   withoutSeed(counts[EmojiAccept]),
		Down: withoutSeed(counts[EmojiReject]),
	}, nil
}

func withoutSeed(count int) int {
	if count <= 0 {
		return 0
	}
	return count - 1
}

// Assassinate runs one claim end to end: validation, proof collection,
// public vote and resolution. The claim is removed from the store on every
// exit path; it never outlives one voting cycle.
func (s *Session) Assassinate(ctx context.Context, assassin, target domain.PlayerID, originChannelID string) error {
	s.mu.Lock()
	if !s.game.Started {
		s.mu.Unlock()
		return domain.ErrNoGame
	}
	claim, err := s.game.OpenClaim(assassin, target)
	s.mu.Unlock()
	if err != nil {
		return err
	}

	defer func() {
		s.mu.Lock()
		s.game.DropClaim(claim.ID)
		s.mu.Unlock()
	}()

	s.say(ctx, originChannelID, "Please provide an image as proof of the assassination.")
	proof, err := s.m.Await(ctx, func(m platform.Message) bool {
		return m.AuthorID == string(assassin) && m.ChannelID == originChannelID && len(m.Attachments) > 0
	}, s.st.ProofTimeout)
	if err != nil {
		if errors.Is(err, platform.ErrAwaitTimeout) {
			return domain.ErrNoProof
		}
		return err
	}
	claim.ProofURL = proof.Attachments[0].URL
	claim.Phase = domain.ClaimAwaitingVotes

	msgID, err := s.m.SendCard(ctx, s.st.AssassinationChannelID, render.ClaimCard(claim))
	if err != nil {
		return fmt.Errorf("publish claim: %w", err)
	}

	s.logger.Info("claim published",
		"claim", claim.ID, "assassin", assassin, "target", target, "targetTeam", claim.TargetTeam)

	tally, err := s.votes.Collect(ctx, s.st.AssassinationChannelID, msgID)
	if err != nil {
		return fmt.Errorf("collect votes: %w", err)
	}

	if !tally.Accepted() {
		claim.Phase = domain.ClaimRejected
		if tally.Up+tally.Down == 0 {
			s.say(ctx, s.st.AssassinationChannelID, "No votes were cast. Assassination rejected.")
		} else {
			s.say(ctx, s.st.AssassinationChannelID, "Assassination rejected. Insufficient votes.")
		}
		return nil
	}

	// Membership may have shifted during the voting window; the snapshot
	// is re-validated before any effect is applied.
	s.mu.Lock()
	outcome, err := s.game.ApplyAccepted(claim)
	s.mu.Unlock()
	if err != nil {
		s.say(ctx, s.st.AssassinationChannelID,
			fmt.Sprintf("Assassination #%d voided: team membership changed during the vote.", claim.ID))
		return err
	}

	s.logger.Info("claim accepted",
		"claim", claim.ID, "up", tally.Up, "down", tally.Down,
		"teamEliminated", outcome.TeamEliminated, "winner", outcome.Winner)
	s.announceAccepted(ctx, claim, outcome)
	s.RefreshLeaderboard(ctx)
	return nil
}

func (s *Session) announceAccepted(ctx context.Context, claim *domain.AssassinationClaim, out domain.ClaimOutcome) {
	if !out.TeamEliminated {
		s.say(ctx, s.st.StatusChannelID,
			fmt.Sprintf("Assassination confirmed. %s has been eliminated from team '%s'.",
				platform.Mention(string(claim.Target)), claim.TargetTeam))
		return
	}

	s.say(ctx, s.st.StatusChannelID, fmt.Sprintf("Team '%s' has been eliminated!", claim.TargetTeam))
	switch {
	case out.Winner != "":
		s.say(ctx, s.st.StatusChannelID,
			fmt.Sprintf("Team '%s' is the last team standing and wins the game!", out.Winner))
	case out.NewTarget != "":
		s.say(ctx, s.st.StatusChannelID,
			fmt.Sprintf("Team '%s' has been assigned a new target: %s",
				claim.AssassinTeam, platform.Mention(string(out.NewTarget))))
	}
}
