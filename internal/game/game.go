package game

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

type GameStatus string

const (
	New       GameStatus = "new"       // First round not started yet
	Ongoing   GameStatus = "ongoing"   // Rounds are being played
	Finished  GameStatus = "finished"  // No further round can be dealt
	Abandoned GameStatus = "abandoned" // Every player left
)

const (
	DefaultHandSize = 6
	DefaultDeckSize = 84
)

// Options are fixed when a game is created.
type Options struct {
	HandSize int    `json:"handSize"`
	DeckSize int    `json:"deckSize"`
	Recycle  bool   `json:"recycle"`
	Rules    Rules  `json:"rules"`
	Seed     uint64 `json:"-"` // Deck seed; zero draws one from crypto/rand
}

// DefaultOptions returns a six-card hand, the 84-card box and both scoring
// components.
func DefaultOptions() Options {
	return Options{
		HandSize: DefaultHandSize,
		DeckSize: DefaultDeckSize,
		Rules:    DefaultRules(),
	}
}

// Game owns the roster, the deck and the append-only sequence of rounds.
// The current round is the last one.
type Game struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Status    GameStatus `json:"status"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	Options   Options    `json:"options"`
	Deck      *Deck      `json:"deck"`
	Players   []*Player  `json:"players"` // Ordered by seat number
	Rounds    []*Round   `json:"rounds"`
	NextSeat  int        `json:"nextSeat"`
}

// NewGame bootstraps a game with its owner seated and round 0 waiting to be
// dealt.
func NewGame(name, ownerName string, opts Options) (*Game, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, reject(ErrInvalidName, "game name is required")
	}
	if opts.HandSize <= 0 {
		return nil, fmt.Errorf("invalid hand size %d", opts.HandSize)
	}
	if opts.DeckSize < opts.HandSize {
		return nil, fmt.Errorf("deck of %d cards cannot deal a hand of %d", opts.DeckSize, opts.HandSize)
	}

	seed := opts.Seed
	if seed == 0 {
		var err error
		if seed, err = NewSeed(); err != nil {
			return nil, err
		}
	}

	now := time.Now()
	g := &Game{
		ID:        uuid.New().String(),
		Name:      name,
		Status:    New,
		CreatedAt: now,
		UpdatedAt: now,
		Options:   opts,
		Deck:      NewDeck(NewCardSet(opts.DeckSize), seed, opts.Recycle),
		Players:   []*Player{},
		Rounds:    []*Round{},
	}

	owner, err := g.seat(ownerName)
	if err != nil {
		return nil, err
	}
	owner.Owner = true
	g.Rounds = append(g.Rounds, newRound(0, owner))
	g.UpdateStatus()

	return g, nil
}

// CurrentRound returns the last round, or nil before any round exists.
func (g *Game) CurrentRound() *Round {
	if len(g.Rounds) == 0 {
		return nil
	}
	return g.Rounds[len(g.Rounds)-1]
}

// Storyteller returns the storyteller of the current round.
func (g *Game) Storyteller() *Player {
	if r := g.CurrentRound(); r != nil {
		return g.Player(r.Turn)
	}
	return nil
}

// Round returns the round with the given number.
func (g *Game) Round(number int) (*Round, error) {
	if number < 0 || number >= len(g.Rounds) {
		return nil, reject(ErrRoundNotFound, fmt.Sprintf("round %d not found", number))
	}
	return g.Rounds[number], nil
}

// Player returns the seated player with the given id, or nil.
func (g *Game) Player(id string) *Player {
	for _, p := range g.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// FindPlayer is like Player but reports a missing seat as an error.
func (g *Game) FindPlayer(id string) (*Player, error) {
	if p := g.Player(id); p != nil {
		return p, nil
	}
	return nil, reject(ErrPlayerNotFound, fmt.Sprintf("player %s is not seated in game %s", id, g.Name))
}

func (g *Game) seat(name string) (*Player, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, reject(ErrInvalidName, "player name is required")
	}
	folded := foldName(name)
	for _, p := range g.Players {
		if foldName(p.Name) == folded {
			return nil, reject(ErrDuplicatePlayerName, fmt.Sprintf("name %q is already taken", name))
		}
	}

	player := &Player{
		ID:     uuid.New().String(),
		Name:   name,
		Number: g.NextSeat,
		Hand:   []Card{},
	}
	g.Players = append(g.Players, player)
	g.NextSeat++
	return player, nil
}

func (g *Game) unseat(id string) {
	g.Players = slices.DeleteFunc(g.Players, func(p *Player) bool { return p.ID == id })
}

// IsOver reports whether the game has finished or been abandoned.
func (g *Game) IsOver() bool {
	return g.Status == Finished || g.Status == Abandoned
}

// AddPlayer seats a new player. If the current round has not started the
// whole roster is dealt in; if the deck cannot cover the new hand the
// player is not seated.
func (g *Game) AddPlayer(name string) (*Player, error) {
	if g.IsOver() {
		return nil, reject(ErrGameOver, fmt.Sprintf("game %s is %s", g.Name, g.Status))
	}
	player, err := g.seat(name)
	if err != nil {
		return nil, err
	}

	if r := g.CurrentRound(); r != nil && r.Dealable() {
		if err := r.Deal(g.Deck, g.Players, g.Options.HandSize); err != nil {
			g.unseat(player.ID)
			g.NextSeat--
			return nil, err
		}
	}

	g.touch()
	g.UpdateStatus()
	return player, nil
}

// RemovePlayer vacates a seat. Seat numbers of the remaining players are
// kept. The hand goes to the discard pile; if the player was telling the
// current story, that round is voided and the next one starts.
func (g *Game) RemovePlayer(id string) error {
	player, err := g.FindPlayer(id)
	if err != nil {
		return err
	}

	g.unseat(id)
	g.Deck.Discard(player.Hand...)
	player.Hand = []Card{}

	if r := g.CurrentRound(); r != nil && r.Status != RoundComplete {
		if r.Turn == id {
			r.Void(g.Deck)
			if len(g.Players) > 0 {
				// A short deck here means the game is over, which
				// UpdateStatus below records.
				_, _ = g.addRound()
			}
		} else {
			r.removeParticipant(id)
		}
	}

	g.touch()
	g.UpdateStatus()
	return nil
}

// SubmitPlay commits a card for the given round.
func (g *Game) SubmitPlay(roundNumber int, playerID string, card Card, story string) (*Play, error) {
	r, err := g.Round(roundNumber)
	if err != nil {
		return nil, err
	}
	if r.Status != RoundCollectingPlays {
		return nil, reject(ErrInvalidPlay, fmt.Sprintf("round %d is not accepting plays (%s)", r.Number, r.Status))
	}
	player := g.Player(playerID)
	if player == nil {
		return nil, reject(ErrCardNotInHand, fmt.Sprintf("player %s is not seated in game %s", playerID, g.Name))
	}

	play, err := r.SubmitPlay(player, card, story)
	if err != nil {
		return nil, err
	}
	g.touch()
	return play, nil
}

// SubmitVote records a vote for the given round.
func (g *Game) SubmitVote(roundNumber int, voterID, playID string) error {
	r, err := g.Round(roundNumber)
	if err != nil {
		return err
	}
	voter := g.Player(voterID)
	if voter == nil {
		return reject(ErrInvalidVote, fmt.Sprintf("player %s is not seated in game %s", voterID, g.Name))
	}
	if err := r.SubmitVote(voter, playID); err != nil {
		return err
	}
	g.touch()
	return nil
}

// CloseRound scores the current round.
func (g *Game) CloseRound() (map[string]int, error) {
	r := g.CurrentRound()
	if r == nil {
		return nil, reject(ErrRoundNotFound, "game has no rounds")
	}
	scores, err := r.Close(g.Deck, g.Options.Rules, g.Player)
	if err != nil {
		return nil, err
	}
	g.touch()
	g.UpdateStatus()
	return scores, nil
}

// AddRound starts the next round with the next storyteller. When the deck
// cannot deal it, no round is added, the error is ErrDeckExhausted and the
// game is finished.
func (g *Game) AddRound() (*Round, error) {
	r, err := g.addRound()
	g.touch()
	g.UpdateStatus()
	return r, err
}

func (g *Game) addRound() (*Round, error) {
	if len(g.Players) == 0 {
		return nil, reject(ErrPlayerNotFound, fmt.Sprintf("game %s has no players", g.Name))
	}

	number, teller := 0, g.Players[0]
	if cur := g.CurrentRound(); cur != nil {
		if cur.Status != RoundComplete {
			return nil, &Error{
				Code:    CodeInvalidRoundState,
				Class:   ClassInvariant,
				Message: fmt.Sprintf("round %d is still %s", cur.Number, cur.Status),
			}
		}
		number = cur.Number + 1
		teller = g.nextStoryteller(cur.TurnNumber)
	}

	r := newRound(number, teller)
	if err := r.Deal(g.Deck, g.Players, g.Options.HandSize); err != nil {
		return nil, err
	}
	g.Rounds = append(g.Rounds, r)
	return r, nil
}

// nextStoryteller returns the seated player with the lowest seat number
// after seat, wrapping around to the first seat. Vacated seats are skipped.
func (g *Game) nextStoryteller(seat int) *Player {
	for _, p := range g.Players {
		if p.Number > seat {
			return p
		}
	}
	return g.Players[0]
}

// NextRound closes the current round and adds the next one. An incomplete
// round is left open and ErrRoundIncomplete returned.
func (g *Game) NextRound() (*Round, error) {
	if r := g.CurrentRound(); r != nil && r.Status != RoundComplete {
		if _, err := g.CloseRound(); err != nil {
			return nil, err
		}
	}
	return g.AddRound()
}

// UpdateStatus derives the status from the roster and the rounds and
// reports whether it changed. Call it after every mutation that can change
// the player count or round completion.
func (g *Game) UpdateStatus() bool {
	status := g.deriveStatus()
	if g.Status == status {
		return false
	}
	g.Status = status
	g.touch()
	return true
}

func (g *Game) deriveStatus() GameStatus {
	cur := g.CurrentRound()
	switch {
	case len(g.Players) == 0:
		return Abandoned
	case cur == nil || g.allRoundsComplete():
		return Finished
	case cur.Number == 0 && cur.Status == RoundNew:
		return New
	default:
		return Ongoing
	}
}

func (g *Game) allRoundsComplete() bool {
	for _, r := range g.Rounds {
		if r.Status != RoundComplete {
			return false
		}
	}
	return true
}

func (g *Game) touch() {
	g.UpdatedAt = time.Now()
}

// Clone returns a deep copy of the game.
func (g *Game) Clone() (*Game, error) {
	data, err := json.Marshal(g)
	if err != nil {
		return nil, fmt.Errorf("marshal game: %w", err)
	}
	var c Game
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("unmarshal game: %w", err)
	}
	return &c, nil
}
