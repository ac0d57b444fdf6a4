package game

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"assassin/internal/domain"
	"assassin/internal/flow"
	"assassin/internal/platform"
)

// Join runs the interactive join flow over DM: create-vs-join choice,
// then either team creation or a numbered menu followed by owner approval
// in the originating channel. Every abort path leaves membership
// unchanged; partial progress is discarded.
func (s *Session) Join(ctx context.Context, player domain.PlayerID, originChannelID string) error {
	s.mu.Lock()
	if !s.game.Started {
		s.mu.Unlock()
		return domain.ErrNoGame
	}
	if _, ok := s.game.TeamOf(player); ok {
		s.mu.Unlock()
		return domain.ErrAlreadyInTeam
	}
	s.mu.Unlock()

	dm, err := s.m.OpenDM(ctx, string(player))
	if err != nil {
		return fmt.Errorf("open dm: %w", err)
	}
	convo := flow.New(s.m, dm, string(player))

	choice, err := convo.Ask(ctx, flow.Step{
		Prompt:   "Do you want to create a new team or join an existing team? (create/join)",
		Timeout:  s.st.PromptTimeout,
		Validate: flow.OneOf("create", "join"),
	})
	if err != nil {
		return s.abortJoin(ctx, convo, err)
	}

	if strings.EqualFold(choice, "create") {
		return s.joinCreate(ctx, convo, player)
	}
	return s.joinExisting(ctx, convo, player, originChannelID)
}

func (s *Session) joinCreate(ctx context.Context, convo *flow.Conversation, player domain.PlayerID) error {
	name, err := convo.Ask(ctx, flow.Step{
		Prompt:   "Enter a name for your team:",
		Timeout:  s.st.PromptTimeout,
		Validate: flow.NonEmpty,
	})
	if err != nil {
		return s.abortJoin(ctx, convo, err)
	}

	s.mu.Lock()
	if !s.game.Started {
		s.mu.Unlock()
		return domain.ErrNoGame
	}
	_, err = s.game.CreateTeam(name, player)
	s.mu.Unlock()

	switch {
	case errors.Is(err, domain.ErrTeamNameTaken):
		return convo.Say(ctx, fmt.Sprintf("A team named '%s' already exists. Please try again.", name))
	case errors.Is(err, domain.ErrAlreadyInTeam):
		return convo.Say(ctx, "You joined another team in the meantime.")
	case err != nil:
		return err
	}

	if err := convo.Say(ctx, fmt.Sprintf("Team '%s' created successfully!", name)); err != nil {
		s.logger.Warn("join confirmation failed", "player", player, "error", err)
	}
	s.RefreshLeaderboard(ctx)
	return nil
}

func (s *Session) joinExisting(ctx context.Context, convo *flow.Conversation, player domain.PlayerID, originChannelID string) error {
	s.mu.Lock()
	alive := s.game.AliveTeams()
	names := make([]string, 0, len(alive))
	for _, t := range alive {
		names = append(names, t.Name)
	}
	s.mu.Unlock()

	if len(names) == 0 {
		return convo.Say(ctx, "No teams available to join at the moment.")
	}

	var menu strings.Builder
	for i, name := range names {
		fmt.Fprintf(&menu, "%d. %s\n", i+1, name)
	}

	reply, err := convo.Ask(ctx, flow.Step{
		Prompt:   fmt.Sprintf("Available teams:\n%s\nEnter the number of the team you want to join:", menu.String()),
		Timeout:  s.st.PromptTimeout,
		Validate: flow.IndexBetween(1, len(names)),
	})
	if err != nil {
		return s.abortJoin(ctx, convo, err)
	}
	idx, _ := strconv.Atoi(reply)
	teamName := names[idx-1]

	s.mu.Lock()
	team, ok := s.game.Team(teamName)
	var owner domain.PlayerID
	if ok {
		owner = team.Owner
	}
	s.mu.Unlock()
	if !ok {
		return convo.Say(ctx, fmt.Sprintf("Team '%s' no longer exists. Please try again.", teamName))
	}

	// Approval happens in the originating channel so the owner sees it;
	// this wait may take up to a day.
	answer, err := flow.Prompt(ctx, s.m, originChannelID, string(owner), flow.Step{
		Prompt: fmt.Sprintf("%s, %s wants to join your team. Do you approve? (yes/no)",
			platform.Mention(string(owner)), platform.Mention(string(player))),
		Timeout: s.st.ApprovalTimeout,
	})
	if errors.Is(err, flow.ErrTimedOut) {
		return convo.Say(ctx, "The team owner did not respond within 24 hours. Please try again.")
	}
	if err != nil {
		return err
	}

	if !strings.EqualFold(answer, "yes") {
		return convo.Say(ctx, "Your request to join the team was denied.")
	}

	s.mu.Lock()
	if !s.game.Started {
		s.mu.Unlock()
		return domain.ErrNoGame
	}
	_, err = s.game.AddMember(teamName, player)
	s.mu.Unlock()

	switch {
	case errors.Is(err, domain.ErrTeamNotFound):
		return convo.Say(ctx, fmt.Sprintf("Team '%s' no longer exists. Please try again.", teamName))
	case errors.Is(err, domain.ErrAlreadyInTeam):
		return convo.Say(ctx, "You joined another team in the meantime.")
	case err != nil:
		return err
	}

	if err := convo.Say(ctx, fmt.Sprintf("You have joined team '%s'!", teamName)); err != nil {
		s.logger.Warn("join confirmation failed", "player", player, "error", err)
	}
	s.RefreshLeaderboard(ctx)
	return nil
}

// abortJoin surfaces a conversation failure to the player and swallows it;
// transport failures propagate.
func (s *Session) abortJoin(ctx context.Context, convo *flow.Conversation, err error) error {
	if text := flowAbortText(err); text != "" {
		return convo.Say(ctx, text)
	}
	return err
}
