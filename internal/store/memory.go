package store

import (
	"context"
	"sort"
	"sync"

	"github.com/calvinwijaya/dixit-be/internal/game"
)

// MemoryStore is an in-memory implementation of game storage. It keeps
// deep copies, so a caller that fails halfway through a mutation never
// leaves a partial change behind.
type MemoryStore struct {
	games map[string]*game.Game
	mu    sync.RWMutex
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		games: make(map[string]*game.Game),
	}
}

// SaveGame saves a copy of the game
func (s *MemoryStore) SaveGame(ctx context.Context, g *game.Game) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c, err := g.Clone()
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.games[g.ID] = c
	return nil
}

// GetGame retrieves a copy of the game
func (s *MemoryStore) GetGame(ctx context.Context, id string) (*game.Game, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	g, exists := s.games[id]
	s.mu.RUnlock()
	if !exists {
		return nil, game.Rejectf(game.ErrGameNotFound, "game %s not found", id)
	}
	return g.Clone()
}

// ListGames returns copies of all games, newest first
func (s *MemoryStore) ListGames(ctx context.Context) ([]*game.Game, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	games := make([]*game.Game, 0, len(s.games))
	for _, g := range s.games {
		c, err := g.Clone()
		if err != nil {
			return nil, err
		}
		games = append(games, c)
	}
	sort.Slice(games, func(i, j int) bool {
		return games[i].CreatedAt.After(games[j].CreatedAt)
	})
	return games, nil
}

// DeleteGame removes a game from the store
func (s *MemoryStore) DeleteGame(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.games[id]; !exists {
		return game.Rejectf(game.ErrGameNotFound, "game %s not found", id)
	}
	delete(s.games, id)
	return nil
}
