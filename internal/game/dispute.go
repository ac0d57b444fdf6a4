package game

import (
	"context"
	"fmt"

	"assassin/internal/domain"
	"assassin/internal/render"
)

// SubmitDispute records a dispute and notifies the game manager directly
// as well as through the dispute log channel.
func (s *Session) SubmitDispute(ctx context.Context, player domain.PlayerID, description string) (*domain.Dispute, error) {
	s.mu.Lock()
	if !s.game.Started {
		s.mu.Unlock()
		return nil, domain.ErrNoGame
	}
	d := s.game.SubmitDispute(player, description)
	s.mu.Unlock()

	s.logger.Info("dispute submitted", "dispute", d.ID, "submitter", player)

	if _, err := s.m.SendCard(ctx, s.st.DisputeChannelID, render.DisputeCard(d)); err != nil {
		s.logger.Warn("dispute log post failed", "dispute", d.ID, "error", err)
	}
	if dm, err := s.m.OpenDM(ctx, s.st.ManagerID); err == nil {
		s.say(ctx, dm, fmt.Sprintf("New dispute #%d from %s: %s", d.ID, player, description))
	} else {
		s.logger.Warn("manager notification failed", "dispute", d.ID, "error", err)
	}
	return d, nil
}

// ResolveDispute rules on a dispute, notifies the submitter with the
// resolution text and deletes the record.
func (s *Session) ResolveDispute(ctx context.Context, requester domain.PlayerID, id int, resolution string) (*domain.Dispute, error) {
	if !s.isManager(requester) {
		return nil, domain.ErrUnauthorized
	}

	s.mu.Lock()
	if !s.game.Started {
		s.mu.Unlock()
		return nil, domain.ErrNoGame
	}
	d, err := s.game.ResolveDispute(id)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	s.logger.Info("dispute resolved", "dispute", id)
	s.say(ctx, s.st.DisputeChannelID, fmt.Sprintf("Dispute #%d resolved: %s", id, resolution))
	if dm, err := s.m.OpenDM(ctx, string(d.Submitter)); err == nil {
		s.say(ctx, dm, fmt.Sprintf("Your dispute (ID: %d) has been resolved: %s", id, resolution))
	} else {
		s.logger.Warn("submitter notification failed", "dispute", id, "error", err)
	}
	return d, nil
}
