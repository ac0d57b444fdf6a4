package render

import (
	"testing"
	"time"

	"assassin/internal/domain"
)

func team(name string, kills int, eliminated bool) *domain.Team {
	t := &domain.Team{Name: name, Owner: "o", Members: []domain.PlayerID{"o"}, Eliminated: eliminated}
	for i := 0; i < kills; i++ {
		t.Eliminations = append(t.Eliminations, domain.Elimination{At: time.Now()})
	}
	return t
}

func TestLeaderboardRanksByEliminations(t *testing.T) {
	card := LeaderboardCard([]*domain.Team{
		team("alpha", 1, false),
		team("beta", 3, false),
		team("gamma", 2, false),
	})

	got := []string{card.Fields[0].Name, card.Fields[1].Name, card.Fields[2].Name}
	want := []string{"beta", "gamma", "alpha"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("rank %d = %q, want %q (full order %v)", i, got[i], want[i], got)
		}
	}
}

func TestLeaderboardOmitsEliminatedTeams(t *testing.T) {
	card := LeaderboardCard([]*domain.Team{
		team("alpha", 5, true),
		team("beta", 0, false),
	})

	if len(card.Fields) != 1 || card.Fields[0].Name != "beta" {
		t.Fatalf("eliminated teams must not rank: %+v", card.Fields)
	}
}

func TestTeamCardTargetFieldOptional(t *testing.T) {
	base := team("alpha", 0, false)
	if got := TeamCard(base); len(got.Fields) != 3 {
		t.Fatalf("unexpected fields without target: %+v", got.Fields)
	}

	base.Target = "42"
	got := TeamCard(base)
	last := got.Fields[len(got.Fields)-1]
	if last.Name != "Assigned target" || last.Value != "<@42>" {
		t.Fatalf("target field = %+v", last)
	}
}

func TestClaimCardCarriesProof(t *testing.T) {
	card := ClaimCard(&domain.AssassinationClaim{
		ID:       7,
		Assassin: "a",
		Target:   "b",
		ProofURL: "https://cdn.example/p.png",
	})
	if card.Title != "Assassination #7" {
		t.Fatalf("title = %q", card.Title)
	}
	if card.ImageURL != "https://cdn.example/p.png" {
		t.Fatalf("image url = %q", card.ImageURL)
	}
}
