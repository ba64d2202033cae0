// Package engine exposes the game operations to a request-handling layer.
// Every mutation of a game runs under that game's lock and is committed to
// the store as one snapshot; games never share mutable state.
package engine

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/calvinwijaya/dixit-be/internal/game"
	"github.com/calvinwijaya/dixit-be/internal/store"
)

// Config controls the games an engine creates.
type Config struct {
	Options game.Options
	Verbose bool // Log every mutation
}

// Engine runs game operations against a store.
type Engine struct {
	store store.Store
	cfg   Config

	mu    sync.Mutex
	locks map[string]*gameLock
}

// gameLock is dropped from the map once no operation holds or waits on it.
type gameLock struct {
	mu   sync.Mutex
	refs int
}

// New creates an engine backed by s.
func New(s store.Store, cfg Config) *Engine {
	return &Engine{
		store: s,
		cfg:   cfg,
		locks: make(map[string]*gameLock),
	}
}

// lock acquires the per-game lock and returns its release.
func (e *Engine) lock(gameID string) func() {
	e.mu.Lock()
	l, ok := e.locks[gameID]
	if !ok {
		l = &gameLock{}
		e.locks[gameID] = l
	}
	l.refs++
	e.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()

		e.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(e.locks, gameID)
		}
		e.mu.Unlock()
	}
}

// mutate loads a game, applies fn and saves the result, all under the
// game's lock. Nothing is saved when fn fails.
func (e *Engine) mutate(ctx context.Context, gameID, op string, fn func(g *game.Game) error) (*game.Game, error) {
	unlock := e.lock(gameID)
	defer unlock()

	g, err := e.store.GetGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if err := fn(g); err != nil {
		return nil, err
	}
	if err := e.store.SaveGame(ctx, g); err != nil {
		return nil, err
	}

	if e.cfg.Verbose {
		log.Printf("game %s: %s (status %s)", gameID, op, g.Status)
	}
	return g, nil
}

// CreateGame starts a game with its owner seated.
func (e *Engine) CreateGame(ctx context.Context, name, ownerName string) (*GameDetail, error) {
	g, err := game.NewGame(name, ownerName, e.cfg.Options)
	if err != nil {
		return nil, err
	}

	unlock := e.lock(g.ID)
	defer unlock()
	if err := e.store.SaveGame(ctx, g); err != nil {
		return nil, err
	}
	if e.cfg.Verbose {
		log.Printf("game %s: created %q by %s", g.ID, g.Name, ownerName)
	}
	return gameDetail(g), nil
}

// DeleteGame removes a game from the store.
func (e *Engine) DeleteGame(ctx context.Context, gameID string) error {
	unlock := e.lock(gameID)
	defer unlock()
	return e.store.DeleteGame(ctx, gameID)
}

// JoinGame seats a new player.
func (e *Engine) JoinGame(ctx context.Context, gameID, playerName string) (*PlayerView, error) {
	var player *game.Player
	_, err := e.mutate(ctx, gameID, "join", func(g *game.Game) error {
		var err error
		player, err = g.AddPlayer(playerName)
		return err
	})
	if err != nil {
		return nil, err
	}
	v := playerView(player)
	return &v, nil
}

// LeaveGame vacates a player's seat.
func (e *Engine) LeaveGame(ctx context.Context, gameID, playerID string) error {
	_, err := e.mutate(ctx, gameID, "leave", func(g *game.Game) error {
		return g.RemovePlayer(playerID)
	})
	return err
}

// GetGame describes a game.
func (e *Engine) GetGame(ctx context.Context, gameID string) (*GameDetail, error) {
	g, err := e.store.GetGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	return gameDetail(g), nil
}

// ListGames describes every game, newest first.
func (e *Engine) ListGames(ctx context.Context) ([]*GameDetail, error) {
	games, err := e.store.ListGames(ctx)
	if err != nil {
		return nil, err
	}
	details := make([]*GameDetail, 0, len(games))
	for _, g := range games {
		details = append(details, gameDetail(g))
	}
	return details, nil
}

// GetHand returns the cards a player holds.
func (e *Engine) GetHand(ctx context.Context, gameID, playerID string) ([]game.Card, error) {
	g, err := e.store.GetGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	p, err := g.FindPlayer(playerID)
	if err != nil {
		return nil, err
	}
	return append([]game.Card{}, p.Hand...), nil
}

// ListRounds summarizes the rounds of a game in order.
func (e *Engine) ListRounds(ctx context.Context, gameID string) ([]RoundSummary, error) {
	g, err := e.store.GetGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	rounds := make([]RoundSummary, 0, len(g.Rounds))
	for _, r := range g.Rounds {
		rounds = append(rounds, roundSummary(g, r))
	}
	return rounds, nil
}

// GetRound describes one round.
func (e *Engine) GetRound(ctx context.Context, gameID string, number int) (*RoundDetail, error) {
	g, err := e.store.GetGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	r, err := g.Round(number)
	if err != nil {
		return nil, err
	}
	return roundDetail(g, r), nil
}

// SubmitPlay commits a card for a round. The acting player sees their
// play in full.
func (e *Engine) SubmitPlay(ctx context.Context, gameID string, number int, playerID string, card game.Card, story string) (*PlayDetail, error) {
	var detail PlayDetail
	_, err := e.mutate(ctx, gameID, "play", func(g *game.Game) error {
		play, err := g.SubmitPlay(number, playerID, card, story)
		if err != nil {
			return err
		}
		r, _ := g.Round(number)
		detail = playDetail(r, play, true)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &detail, nil
}

// GetPlay describes one play as far as its round reveals it.
func (e *Engine) GetPlay(ctx context.Context, gameID string, number int, playID string) (*PlayDetail, error) {
	g, err := e.store.GetGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	r, err := g.Round(number)
	if err != nil {
		return nil, err
	}
	p, err := r.Play(playID)
	if err != nil {
		return nil, err
	}
	d := playDetail(r, p, false)
	return &d, nil
}

// SubmitVote records a vote for the storyteller's card.
func (e *Engine) SubmitVote(ctx context.Context, gameID string, number int, voterID, playID string) error {
	_, err := e.mutate(ctx, gameID, "vote", func(g *game.Game) error {
		return g.SubmitVote(number, voterID, playID)
	})
	return err
}

// AdvanceRound closes the current round and starts the next. When the deck
// cannot deal another round the game is finished and that is reported in
// the result, not as an error.
func (e *Engine) AdvanceRound(ctx context.Context, gameID string) (*Advance, error) {
	var adv Advance
	_, err := e.mutate(ctx, gameID, "advance", func(g *game.Game) error {
		if g.Status == game.Abandoned {
			return game.Rejectf(game.ErrGameOver, "game %s was abandoned", g.Name)
		}
		r, err := g.NextRound()
		switch {
		case errors.Is(err, game.ErrDeckExhausted):
			adv.Finished = true
			return nil
		case err != nil:
			return err
		}
		s := roundSummary(g, r)
		adv.Round = &s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &adv, nil
}
