package game

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand/v2"
)

// Deck partitions every card of a game into undealt, held and discarded.
// A card is in exactly one partition at a time.
type Deck struct {
	Undealt   []Card `json:"undealt"`
	Held      []Card `json:"held"`
	Discarded []Card `json:"discarded"`
	Recycle   bool   `json:"recycle"`
	Seed      uint64 `json:"seed"`
	Shuffles  uint64 `json:"shuffles"`
}

// DeckCounts is a snapshot of the partition sizes of a deck.
type DeckCounts struct {
	Undealt   int `json:"undealt"`
	Held      int `json:"held"`
	Discarded int `json:"discarded"`
	Total     int `json:"total"`
}

// NewDeck creates a shuffled deck from cards. With recycle set the discard
// pile is reshuffled into the undealt pile, but only when a deal would
// otherwise fail.
func NewDeck(cards []Card, seed uint64, recycle bool) *Deck {
	deck := &Deck{
		Undealt:   append([]Card(nil), cards...),
		Held:      []Card{},
		Discarded: []Card{},
		Recycle:   recycle,
		Seed:      seed,
	}
	deck.Shuffle()
	return deck
}

// NewSeed generates a deck seed using crypto/rand.
func NewSeed() (uint64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}

// Shuffle randomizes the order of the undealt pile. The order depends only
// on the seed and the number of earlier shuffles, so a persisted deck
// replays identically.
func (d *Deck) Shuffle() {
	r := rand.New(rand.NewPCG(d.Seed, d.Shuffles))
	d.Shuffles++

	// Fisher-Yates shuffle algorithm
	for i := len(d.Undealt) - 1; i > 0; i-- {
		j := r.IntN(i + 1)
		d.Undealt[i], d.Undealt[j] = d.Undealt[j], d.Undealt[i]
	}
}

// CanDeal reports whether n cards can be dealt, counting the discard pile
// when recycling is enabled.
func (d *Deck) CanDeal(n int) bool {
	if n <= len(d.Undealt) {
		return true
	}
	return d.Recycle && n <= len(d.Undealt)+len(d.Discarded)
}

// DealHand removes size undealt cards and marks them held.
func (d *Deck) DealHand(size int) ([]Card, error) {
	if size < 0 {
		return nil, fmt.Errorf("invalid hand size %d", size)
	}
	if !d.CanDeal(size) {
		return nil, reject(ErrDeckExhausted, fmt.Sprintf("deck exhausted: %d cards requested, %d remaining", size, len(d.Undealt)))
	}
	if size > len(d.Undealt) {
		d.replenish()
	}

	hand := append([]Card(nil), d.Undealt[:size]...)
	d.Undealt = d.Undealt[size:]
	d.Held = append(d.Held, hand...)
	return hand, nil
}

// replenish moves the discard pile under the undealt pile and reshuffles.
func (d *Deck) replenish() {
	d.Undealt = append(d.Undealt, d.Discarded...)
	d.Discarded = []Card{}
	d.Shuffle()
}

// Discard moves held cards to the discard pile. Cards that are not held,
// including already discarded ones, are left where they are.
func (d *Deck) Discard(cards ...Card) {
	for _, c := range cards {
		var ok bool
		if d.Held, ok = removeCard(d.Held, c); ok {
			d.Discarded = append(d.Discarded, c)
		}
	}
}

// RemainingCards returns the number of cards left in the undealt pile.
func (d *Deck) RemainingCards() int {
	return len(d.Undealt)
}

// Counts returns the size of each partition.
func (d *Deck) Counts() DeckCounts {
	c := DeckCounts{
		Undealt:   len(d.Undealt),
		Held:      len(d.Held),
		Discarded: len(d.Discarded),
	}
	c.Total = c.Undealt + c.Held + c.Discarded
	return c
}
