package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/calvinwijaya/dixit-be/internal/game"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Supported database/sql driver names.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

type Database struct {
	db *sql.DB
}

// ScoreEntry is one row of the append-only score ledger: the points a
// player earned in one completed round.
type ScoreEntry struct {
	GameID      string    `json:"gameId"`
	RoundNumber int       `json:"roundNumber"`
	PlayerID    string    `json:"playerId"`
	PlayerName  string    `json:"playerName"`
	Points      int       `json:"points"`
	RecordedAt  time.Time `json:"recordedAt"`
}

// NewDatabase opens a connection with the given driver and creates the
// tables if they don't exist. The queries below are written to run
// unchanged on both SQLite and PostgreSQL.
func NewDatabase(driver, dsn string) (*Database, error) {
	switch driver {
	case DriverSQLite, DriverPostgres:
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("error connecting to the database: %w", err)
	}

	// Set connection parameters
	if driver == DriverSQLite {
		// A single writer avoids SQLITE_BUSY between concurrent games.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
	}
	db.SetConnMaxLifetime(time.Hour)

	if err := initTables(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Database{db: db}, nil
}

// initTables creates the necessary tables if they don't exist
func initTables(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS games (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			status TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL,
			game_state TEXT NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("error creating games table: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS round_scores (
			game_id TEXT NOT NULL,
			round_number INTEGER NOT NULL,
			player_id TEXT NOT NULL,
			player_name TEXT NOT NULL,
			points INTEGER NOT NULL,
			recorded_at TIMESTAMP NOT NULL,
			PRIMARY KEY (game_id, round_number, player_id)
		)
	`)
	if err != nil {
		return fmt.Errorf("error creating round_scores table: %w", err)
	}

	return nil
}

// Close closes the database connection
func (d *Database) Close() error {
	return d.db.Close()
}

// SaveGame writes the game snapshot and records the scores of newly
// completed rounds in one transaction. Ledger rows are written once per
// round and player; later saves never change them.
func (d *Database) SaveGame(ctx context.Context, g *game.Game) error {
	gameState, err := json.Marshal(g)
	if err != nil {
		return fmt.Errorf("marshal game %s: %w", g.ID, err)
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO games (id, name, status, created_at, updated_at, game_state)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE
		SET status = excluded.status, updated_at = excluded.updated_at, game_state = excluded.game_state
	`,
		g.ID, g.Name, string(g.Status), g.CreatedAt.UTC(), g.UpdatedAt.UTC(), string(gameState))
	if err != nil {
		return fmt.Errorf("save game %s: %w", g.ID, err)
	}

	// Rounds complete in order, so everything up to the last recorded round
	// is already in the ledger.
	var recorded int
	err = tx.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(round_number), -1) FROM round_scores WHERE game_id = $1
	`, g.ID).Scan(&recorded)
	if err != nil {
		return fmt.Errorf("load recorded rounds of %s: %w", g.ID, err)
	}

	names := make(map[string]string, len(g.Players))
	for _, p := range g.Players {
		names[p.ID] = p.Name
	}
	now := time.Now().UTC()
	for _, r := range g.Rounds {
		if r.Number <= recorded || r.Status != game.RoundComplete || r.Voided {
			continue
		}
		for playerID, points := range r.Scores {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO round_scores (game_id, round_number, player_id, player_name, points, recorded_at)
				VALUES ($1, $2, $3, $4, $5, $6)
				ON CONFLICT (game_id, round_number, player_id) DO NOTHING
			`, g.ID, r.Number, playerID, names[playerID], points, now)
			if err != nil {
				return fmt.Errorf("record score of round %d: %w", r.Number, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit game %s: %w", g.ID, err)
	}
	return nil
}

// GetGame retrieves a game by ID
func (d *Database) GetGame(ctx context.Context, id string) (*game.Game, error) {
	var gameState string
	err := d.db.QueryRowContext(ctx, `
		SELECT game_state FROM games WHERE id = $1
	`, id).Scan(&gameState)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, game.Rejectf(game.ErrGameNotFound, "game %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("load game %s: %w", id, err)
	}

	var g game.Game
	if err := json.Unmarshal([]byte(gameState), &g); err != nil {
		return nil, fmt.Errorf("decode game %s: %w", id, err)
	}
	return &g, nil
}

// GetAllGames returns all games in the database, newest first
func (d *Database) GetAllGames(ctx context.Context) ([]*game.Game, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT game_state FROM games ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	defer rows.Close()

	var games []*game.Game
	for rows.Next() {
		var gameState string
		if err := rows.Scan(&gameState); err != nil {
			return nil, err
		}

		var g game.Game
		if err := json.Unmarshal([]byte(gameState), &g); err != nil {
			return nil, fmt.Errorf("decode game: %w", err)
		}
		games = append(games, &g)
	}
	return games, rows.Err()
}

// DeleteGame removes a game and its score ledger from the database
func (d *Database) DeleteGame(ctx context.Context, id string) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, "DELETE FROM games WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete game %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return game.Rejectf(game.ErrGameNotFound, "game %s not found", id)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM round_scores WHERE game_id = $1", id); err != nil {
		return fmt.Errorf("delete scores of game %s: %w", id, err)
	}
	return tx.Commit()
}

// GetScoreLedger returns the recorded round scores of a game, ordered by
// round and player name.
func (d *Database) GetScoreLedger(ctx context.Context, gameID string) ([]ScoreEntry, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT game_id, round_number, player_id, player_name, points, recorded_at
		FROM round_scores
		WHERE game_id = $1
		ORDER BY round_number, player_name
	`, gameID)
	if err != nil {
		return nil, fmt.Errorf("load score ledger of %s: %w", gameID, err)
	}
	defer rows.Close()

	entries := []ScoreEntry{}
	for rows.Next() {
		var e ScoreEntry
		if err := rows.Scan(&e.GameID, &e.RoundNumber, &e.PlayerID, &e.PlayerName, &e.Points, &e.RecordedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
