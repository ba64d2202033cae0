package store

import (
	"context"

	"github.com/calvinwijaya/dixit-be/internal/game"
)

// Store defines the interface for game storage. SaveGame commits a whole
// game snapshot atomically; GetGame returns a copy the caller may mutate
// freely until it saves it back.
type Store interface {
	// SaveGame saves a game to the store
	SaveGame(ctx context.Context, g *game.Game) error

	// GetGame retrieves a game by ID
	GetGame(ctx context.Context, id string) (*game.Game, error)

	// ListGames returns every stored game, newest first
	ListGames(ctx context.Context) ([]*game.Game, error)

	// DeleteGame removes a game from the store
	DeleteGame(ctx context.Context, id string) error
}
