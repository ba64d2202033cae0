package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/calvinwijaya/dixit-be/internal/game"
)

func newGame(t *testing.T, name string) *game.Game {
	t.Helper()
	opts := game.DefaultOptions()
	opts.Seed = 11
	g, err := game.NewGame(name, "Alice", opts)
	if err != nil {
		t.Fatalf("new game: %v", err)
	}
	return g
}

func TestMemoryStoreKeepsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	g := newGame(t, "copies")

	if err := s.SaveGame(ctx, g); err != nil {
		t.Fatalf("save game: %v", err)
	}
	if _, err := g.AddPlayer("Bob"); err != nil {
		t.Fatalf("add player: %v", err)
	}

	stored, err := s.GetGame(ctx, g.ID)
	if err != nil {
		t.Fatalf("get game: %v", err)
	}
	if len(stored.Players) != 1 {
		t.Fatalf("expected unsaved change invisible, got %d players", len(stored.Players))
	}

	stored.Name = "changed"
	again, err := s.GetGame(ctx, g.ID)
	if err != nil {
		t.Fatalf("get game: %v", err)
	}
	if again.Name != "copies" {
		t.Fatalf("expected stored name untouched, got %q", again.Name)
	}
}

func TestMemoryStoreNotFound(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	if _, err := s.GetGame(ctx, "missing"); !errors.Is(err, game.ErrGameNotFound) {
		t.Fatalf("expected game not found, got %v", err)
	}
	if err := s.DeleteGame(ctx, "missing"); !errors.Is(err, game.ErrGameNotFound) {
		t.Fatalf("expected game not found, got %v", err)
	}
}

func TestMemoryStoreListNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	older := newGame(t, "older")
	older.CreatedAt = time.Now().Add(-time.Hour)
	newer := newGame(t, "newer")
	for _, g := range []*game.Game{older, newer} {
		if err := s.SaveGame(ctx, g); err != nil {
			t.Fatalf("save game: %v", err)
		}
	}

	games, err := s.ListGames(ctx)
	if err != nil {
		t.Fatalf("list games: %v", err)
	}
	if len(games) != 2 || games[0].Name != "newer" || games[1].Name != "older" {
		t.Fatalf("expected newer before older, got %d games", len(games))
	}

	if err := s.DeleteGame(ctx, older.ID); err != nil {
		t.Fatalf("delete game: %v", err)
	}
	if games, _ := s.ListGames(ctx); len(games) != 1 {
		t.Fatalf("expected 1 game after delete, got %d", len(games))
	}
}

func TestMemoryStoreHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := NewMemoryStore().SaveGame(ctx, newGame(t, "cancelled")); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context canceled, got %v", err)
	}
}
