package game

import (
	"fmt"
	"slices"
)

// Card identifies one image card of the deck.
type Card int

// String returns the card's display id, e.g. "card-007".
func (c Card) String() string {
	return fmt.Sprintf("card-%03d", int(c))
}

// NewCardSet returns the cards numbered 1..n.
func NewCardSet(n int) []Card {
	cards := make([]Card, n)
	for i := range cards {
		cards[i] = Card(i + 1)
	}
	return cards
}

func containsCard(cards []Card, c Card) bool {
	return slices.Contains(cards, c)
}

// removeCard returns cards without c and whether c was present.
func removeCard(cards []Card, c Card) ([]Card, bool) {
	i := slices.Index(cards, c)
	if i < 0 {
		return cards, false
	}
	return slices.Delete(cards, i, i+1), true
}
