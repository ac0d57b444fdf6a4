package domain

// VoteTally is the result of one public voting window. It is deliberately
// independent of how the votes were physically collected.
type VoteTally struct {
	Up   int `json:"up"`
	Down int `json:"down"`
}

// Accepted applies the tally rule: a claim passes only with at least one
// vote cast and strictly more approvals than rejections. Ties and empty
// ballots reject.
func (t VoteTally) Accepted() bool {
	return t.Up+t.Down > 0 && t.Up > t.Down
}
