package store

import (
	"context"

	"github.com/calvinwijaya/dixit-be/internal/db"
	"github.com/calvinwijaya/dixit-be/internal/game"
)

// DatabaseStore is a database implementation of game storage
type DatabaseStore struct {
	db *db.Database
}

// NewDatabaseStore creates a new database store
func NewDatabaseStore(database *db.Database) *DatabaseStore {
	return &DatabaseStore{
		db: database,
	}
}

// SaveGame saves a game and its round scores to the database
func (s *DatabaseStore) SaveGame(ctx context.Context, g *game.Game) error {
	return s.db.SaveGame(ctx, g)
}

// GetGame retrieves a game by ID
func (s *DatabaseStore) GetGame(ctx context.Context, id string) (*game.Game, error) {
	return s.db.GetGame(ctx, id)
}

// ListGames returns all games in the database
func (s *DatabaseStore) ListGames(ctx context.Context) ([]*game.Game, error) {
	return s.db.GetAllGames(ctx)
}

// DeleteGame removes a game from the database
func (s *DatabaseStore) DeleteGame(ctx context.Context, id string) error {
	return s.db.DeleteGame(ctx, id)
}
