package domain

import "time"

// ClaimPhase represents the state of an assassination claim.
type ClaimPhase string

const (
	ClaimAwaitingProof ClaimPhase = "AWAITING_PROOF" // waiting for the assassin's photo
	ClaimAwaitingVotes ClaimPhase = "AWAITING_VOTES" // published, voting window open
	ClaimAccepted      ClaimPhase = "ACCEPTED"
	ClaimRejected      ClaimPhase = "REJECTED"
)

// AssassinationClaim is a pending elimination claim. Team names are
// snapshotted at creation so the claim can be re-validated against live
// state when the voting window closes.
type AssassinationClaim struct {
	ID           int        `json:"id"`
	Assassin     PlayerID   `json:"assassin"`
	AssassinTeam string     `json:"assassinTeam"`
	Target       PlayerID   `json:"target"`
	TargetTeam   string     `json:"targetTeam"`
	ProofURL     string     `json:"proofUrl,omitempty"`
	Phase        ClaimPhase `json:"phase"`
	CreatedAt    time.Time  `json:"createdAt"`
}

// ClaimOutcome describes the effects of an accepted claim.
type ClaimOutcome struct {
	TeamEliminated bool     // target's team was emptied by this kill
	NewTarget      PlayerID // assigned to the assassin's team, if any
	NewTargetTeam  string
	Winner         string // non-empty when the game ended with this team winning
}
