package game

import "slices"

// Play is one player's committed card for a round.
type Play struct {
	ID       string   `json:"id"`
	PlayerID string   `json:"playerId"`
	Card     Card     `json:"card"`
	Story    string   `json:"story,omitempty"` // Only set on the storyteller's play
	Position int      `json:"position"`        // Submission order, 0-based
	Votes    []string `json:"votes"`           // Ids of the players who voted for this play
}

// VotedBy reports whether playerID voted for this play.
func (p *Play) VotedBy(playerID string) bool {
	return slices.Contains(p.Votes, playerID)
}
