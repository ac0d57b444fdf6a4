// Package bot parses prefixed chat commands and dispatches them into the
// game session. Every command runs in its own goroutine so long-lived
// interactions (join flows, voting windows) never block the event loop.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"assassin/internal/domain"
	"assassin/internal/game"
	"assassin/internal/platform"
)

// Bot routes inbound messages to game commands.
type Bot struct {
	m       platform.Messenger
	session *game.Session
	prefix  string
	logger  *slog.Logger
}

// New creates a bot dispatching into the given session.
func New(m platform.Messenger, session *game.Session, prefix string, logger *slog.Logger) *Bot {
	return &Bot{m: m, session: session, prefix: prefix, logger: logger}
}

// Run consumes the message stream until the context is cancelled or the
// stream closes. Each command is handled concurrently.
func (b *Bot) Run(ctx context.Context, messages <-chan platform.Message) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			if !strings.HasPrefix(msg.Content, b.prefix) {
				continue
			}
			go b.Handle(ctx, msg)
		}
	}
}

// Handle dispatches a single prefixed command message.
func (b *Bot) Handle(ctx context.Context, msg platform.Message) {
	fields := strings.Fields(strings.TrimPrefix(msg.Content, b.prefix))
	if len(fields) == 0 {
		return
	}
	cmd := strings.ToLower(fields[0])
	args := fields[1:]
	player := domain.PlayerID(msg.AuthorID)

	b.logger.Debug("command", "cmd", cmd, "player", player, "channelId", msg.ChannelID)

	var err error
	switch cmd {
	case "start":
		err = b.handleStart(ctx, msg, player, args)
	case "join":
		err = b.session.Join(ctx, player, msg.ChannelID)
	case "leave":
		err = b.handleLeave(ctx, msg, player)
	case "status":
		err = b.session.PostStatus(ctx)
	case "leaderboard":
		err = b.session.PostLeaderboard(ctx)
	case "assassinate":
		err = b.handleAssassinate(ctx, msg, player, args)
	case "dispute":
		err = b.handleDispute(ctx, msg, player, args)
	case "resolve":
		err = b.handleResolve(ctx, msg, player, args)
	case "disqualify":
		err = b.handleDisqualify(ctx, msg, player, args)
	case "help":
		b.reply(ctx, msg, b.helpText())
	default:
		// Unknown commands are ignored; the prefix may be shared.
		return
	}

	if err != nil {
		b.replyError(ctx, msg, err)
	}
}

func (b *Bot) handleStart(ctx context.Context, msg platform.Message, player domain.PlayerID, args []string) error {
	if len(args) < 1 {
		b.reply(ctx, msg, fmt.Sprintf("Usage: %sstart <duration-minutes>", b.prefix))
		return nil
	}
	minutes, err := strconv.Atoi(args[0])
	if err != nil || minutes <= 0 {
		b.reply(ctx, msg, fmt.Sprintf("Usage: %sstart <duration-minutes>", b.prefix))
		return nil
	}

	endsAt, err := b.session.Start(ctx, player, time.Duration(minutes)*time.Minute)
	if err != nil {
		return err
	}
	b.reply(ctx, msg, fmt.Sprintf("Game started! It will end at %s.", endsAt.Format(time.RFC1123)))
	return nil
}

func (b *Bot) handleLeave(ctx context.Context, msg platform.Message, player domain.PlayerID) error {
	res, err := b.session.Leave(ctx, player)
	if err != nil {
		return err
	}
	switch {
	case res.Disbanded:
		b.reply(ctx, msg, fmt.Sprintf("Team '%s' has been disbanded as all members have left.", res.Team))
	case res.NewOwner != "":
		b.reply(ctx, msg, fmt.Sprintf("%s is now the owner of team '%s'.",
			platform.Mention(string(res.NewOwner)), res.Team))
	default:
		b.reply(ctx, msg, fmt.Sprintf("You have left team '%s'.", res.Team))
	}
	return nil
}

func (b *Bot) handleAssassinate(ctx context.Context, msg platform.Message, player domain.PlayerID, args []string) error {
	if len(args) < 1 {
		b.reply(ctx, msg, fmt.Sprintf("Usage: %sassassinate <member>", b.prefix))
		return nil
	}
	targetID, err := b.m.ResolveMention(ctx, args[0])
	if err != nil {
		b.reply(ctx, msg, "Could not find that member.")
		return nil
	}

	err = b.session.Assassinate(ctx, player, domain.PlayerID(targetID), msg.ChannelID)
	if errors.Is(err, domain.ErrNotInTeam) {
		b.reply(ctx, msg, "Either you or the target are not part of a team.")
		return nil
	}
	return err
}

func (b *Bot) handleDispute(ctx context.Context, msg platform.Message, player domain.PlayerID, args []string) error {
	if len(args) < 1 {
		b.reply(ctx, msg, fmt.Sprintf("Usage: %sdispute <description>", b.prefix))
		return nil
	}
	d, err := b.session.SubmitDispute(ctx, player, strings.Join(args, " "))
	if err != nil {
		return err
	}
	b.reply(ctx, msg, fmt.Sprintf("Dispute #%d submitted. It will be reviewed by the game manager.", d.ID))
	return nil
}

func (b *Bot) handleResolve(ctx context.Context, msg platform.Message, player domain.PlayerID, args []string) error {
	if len(args) < 2 {
		b.reply(ctx, msg, fmt.Sprintf("Usage: %sresolve <dispute-id> <resolution>", b.prefix))
		return nil
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		b.reply(ctx, msg, fmt.Sprintf("Usage: %sresolve <dispute-id> <resolution>", b.prefix))
		return nil
	}

	if _, err := b.session.ResolveDispute(ctx, player, id, strings.Join(args[1:], " ")); err != nil {
		if errors.Is(err, domain.ErrDisputeNotFound) {
			b.reply(ctx, msg, fmt.Sprintf("Dispute #%d not found.", id))
			return nil
		}
		return err
	}
	b.reply(ctx, msg, fmt.Sprintf("Dispute #%d resolved.", id))
	return nil
}

func (b *Bot) handleDisqualify(ctx context.Context, msg platform.Message, player domain.PlayerID, args []string) error {
	if len(args) < 1 {
		b.reply(ctx, msg, fmt.Sprintf("Usage: %sdisqualify <member>", b.prefix))
		return nil
	}
	targetID, err := b.m.ResolveMention(ctx, args[0])
	if err != nil {
		b.reply(ctx, msg, "Could not find that member.")
		return nil
	}

	res, err := b.session.Disqualify(ctx, player, domain.PlayerID(targetID))
	if err != nil {
		return err
	}
	b.reply(ctx, msg, fmt.Sprintf("%s has been disqualified from team '%s'.",
		platform.Mention(targetID), res.Team))
	return nil
}

func (b *Bot) helpText() string {
	p := b.prefix
	return strings.Join([]string{
		p + "start <minutes> — start the game (manager only)",
		p + "join — create or join a team",
		p + "leave — leave your team",
		p + "status — post all team rosters",
		p + "leaderboard — refresh the leaderboard",
		p + "assassinate <member> — claim an elimination (proof required)",
		p + "dispute <description> — submit a dispute",
		p + "resolve <id> <text> — resolve a dispute (manager only)",
		p + "disqualify <member> — disqualify a player (manager only)",
	}, "\n")
}

// reply answers in the channel the command came from.
func (b *Bot) reply(ctx context.Context, msg platform.Message, text string) {
	if _, err := b.m.Send(ctx, msg.ChannelID, text); err != nil {
		b.logger.Warn("reply failed", "channelId", msg.ChannelID, "error", err)
	}
}

// replyError converts a command failure into a direct user-facing message.
// Nothing here is fatal; the user simply reissues the command.
func (b *Bot) replyError(ctx context.Context, msg platform.Message, err error) {
	var text string
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		text = "Only the game manager can do that."
	case errors.Is(err, domain.ErrAlreadyInProgress):
		text = "A game is already in progress."
	case errors.Is(err, domain.ErrNoGame):
		text = "No game is currently in progress."
	case errors.Is(err, domain.ErrAlreadyInTeam):
		text = "You are already in a team."
	case errors.Is(err, domain.ErrNotInTeam):
		text = "You are not currently in a team."
	case errors.Is(err, domain.ErrPlayerNotFound):
		text = "The specified member is not part of any team."
	case errors.Is(err, domain.ErrSameTeam):
		text = "You cannot assassinate a member of your own team."
	case errors.Is(err, domain.ErrTargetTeamEliminated):
		text = "The target team has already been eliminated."
	case errors.Is(err, domain.ErrNoProof):
		text = "No assassination proof provided within the time limit. Assassination cancelled."
	case errors.Is(err, domain.ErrClaimStale):
		text = "The assassination was voided: team membership changed during the vote."
	case errors.Is(err, domain.ErrDisputeNotFound):
		text = "Dispute not found."
	default:
		b.logger.Error("command failed", "channelId", msg.ChannelID, "error", err)
		text = "Something went wrong. Please try again."
	}
	b.reply(ctx, msg, text)
}
