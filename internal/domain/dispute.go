package domain

import "time"

// Dispute is a complaint awaiting a ruling from the game manager.
type Dispute struct {
	ID          int       `json:"id"`
	Submitter   PlayerID  `json:"submitter"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}
