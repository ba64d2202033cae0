package game

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
)

// Player is a seat in a game.
type Player struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Number int    `json:"number"` // Seat number, assigned at join and never reused
	Owner  bool   `json:"owner"`
	Hand   []Card `json:"hand"`
	Score  int    `json:"score"`
}

// Receive adds cards to the player's hand.
func (p *Player) Receive(cards []Card) error {
	for _, c := range cards {
		if containsCard(p.Hand, c) {
			return &Error{
				Code:    CodeInvalidRoundState,
				Class:   ClassInvariant,
				Message: fmt.Sprintf("player %s already holds %s", p.Name, c),
			}
		}
	}
	p.Hand = append(p.Hand, cards...)
	return nil
}

// HasCard reports whether the player holds c.
func (p *Player) HasCard(c Card) bool {
	return containsCard(p.Hand, c)
}

// PlayCard removes c from the player's hand.
func (p *Player) PlayCard(c Card) (Card, error) {
	hand, ok := removeCard(p.Hand, c)
	if !ok {
		return 0, reject(ErrCardNotInHand, fmt.Sprintf("%s is not in %s's hand", c, p.Name))
	}
	p.Hand = hand
	return c, nil
}

// AddScore credits n points. Scores never decrease.
func (p *Player) AddScore(n int) {
	if n > 0 {
		p.Score += n
	}
}

// foldName normalizes a player name for case-insensitive comparison.
// A Caser is stateful, so each call builds its own.
func foldName(name string) string {
	return cases.Fold().String(strings.TrimSpace(name))
}
