// Package render builds the structured cards the bot posts to channels.
package render

import (
	"fmt"
	"sort"
	"strings"

	"assassin/internal/domain"
	"assassin/internal/platform"
)

const (
	colorBlue   = 0x3498DB
	colorGreen  = 0x2ECC71
	colorRed    = 0xE74C3C
	colorOrange = 0xE67E22
)

// TeamCard renders one team's roster.
func TeamCard(t *domain.Team) platform.Card {
	mentions := make([]string, 0, len(t.Members))
	for _, m := range t.Members {
		mentions = append(mentions, platform.Mention(string(m)))
	}

	card := platform.Card{
		Title: fmt.Sprintf("Team: %s", t.Name),
		Color: colorBlue,
		Fields: []platform.CardField{
			{Name: "Members", Value: strings.Join(mentions, "\n")},
			{Name: "Owner", Value: platform.Mention(string(t.Owner)), Inline: true},
			{Name: "Eliminations", Value: fmt.Sprintf("%d", t.Score()), Inline: true},
		},
	}
	if t.Target != "" {
		card.Fields = append(card.Fields, platform.CardField{
			Name: "Assigned target", Value: platform.Mention(string(t.Target)), Inline: true,
		})
	}
	return card
}

// LeaderboardCard renders surviving teams ranked by eliminations.
func LeaderboardCard(teams []*domain.Team) platform.Card {
	ranked := make([]*domain.Team, 0, len(teams))
	for _, t := range teams {
		if !t.Eliminated {
			ranked = append(ranked, t)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score() > ranked[j].Score()
	})

	card := platform.Card{Title: "Leaderboard", Color: colorGreen}
	for _, t := range ranked {
		card.Fields = append(card.Fields, platform.CardField{
			Name:  t.Name,
			Value: fmt.Sprintf("Eliminations: %d", t.Score()),
		})
	}
	return card
}

// DisputeCard renders a dispute for the dispute log channel.
func DisputeCard(d *domain.Dispute) platform.Card {
	return platform.Card{
		Title: fmt.Sprintf("Dispute #%d", d.ID),
		Color: colorRed,
		Fields: []platform.CardField{
			{Name: "Submitted by", Value: platform.Mention(string(d.Submitter))},
			{Name: "Description", Value: d.Description},
		},
	}
}

// ClaimCard renders an assassination claim with its proof image for the
// public vote.
func ClaimCard(c *domain.AssassinationClaim) platform.Card {
	return platform.Card{
		Title:    fmt.Sprintf("Assassination #%d", c.ID),
		Color:    colorOrange,
		ImageURL: c.ProofURL,
		Fields: []platform.CardField{
			{Name: "Assassin", Value: platform.Mention(string(c.Assassin)), Inline: true},
			{Name: "Target", Value: platform.Mention(string(c.Target)), Inline: true},
		},
	}
}
