package domain

import "testing"

func TestVoteTallyAccepted(t *testing.T) {
	tests := []struct {
		name string
		up   int
		down int
		want bool
	}{
		{"clear majority", 3, 1, true},
		{"tie rejects", 1, 1, false},
		{"no votes rejects", 0, 0, false},
		{"single upvote accepts", 1, 0, true},
		{"majority against", 1, 4, false},
		{"only downvotes", 0, 2, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := VoteTally{Up: tt.up, Down: tt.down}.Accepted()
			if got != tt.want {
				t.Fatalf("tally %d-%d accepted = %v, want %v", tt.up, tt.down, got, tt.want)
			}
		})
	}
}
