package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/calvinwijaya/dixit-be/internal/game"
	"github.com/calvinwijaya/dixit-be/internal/store"
)

func newTestEngine(deckSize int) *Engine {
	opts := game.DefaultOptions()
	opts.DeckSize = deckSize
	opts.Seed = 3
	return New(store.NewMemoryStore(), Config{Options: opts})
}

type table struct {
	gameID  string
	players []string // ids in seat order
}

func newTable(t *testing.T, e *Engine, names ...string) table {
	t.Helper()
	ctx := context.Background()
	created, err := e.CreateGame(ctx, "table", names[0])
	if err != nil {
		t.Fatalf("create game: %v", err)
	}
	tb := table{gameID: created.ID, players: []string{created.Players[0].ID}}
	for _, name := range names[1:] {
		p, err := e.JoinGame(ctx, created.ID, name)
		if err != nil {
			t.Fatalf("join %s: %v", name, err)
		}
		tb.players = append(tb.players, p.ID)
	}
	return tb
}

// playRound has everybody play their first card and vote for the
// storyteller.
func playRound(t *testing.T, e *Engine, tb table) {
	t.Helper()
	ctx := context.Background()
	g, err := e.GetGame(ctx, tb.gameID)
	if err != nil {
		t.Fatalf("get game: %v", err)
	}
	number := *g.CurrentRound
	r, err := e.GetRound(ctx, tb.gameID, number)
	if err != nil {
		t.Fatalf("get round: %v", err)
	}

	hand, err := e.GetHand(ctx, tb.gameID, r.StorytellerID)
	if err != nil {
		t.Fatalf("get hand: %v", err)
	}
	target, err := e.SubmitPlay(ctx, tb.gameID, number, r.StorytellerID, hand[0], "clue")
	if err != nil {
		t.Fatalf("storyteller play: %v", err)
	}
	for _, id := range tb.players {
		if id == r.StorytellerID {
			continue
		}
		hand, err := e.GetHand(ctx, tb.gameID, id)
		if err != nil {
			t.Fatalf("get hand: %v", err)
		}
		if _, err := e.SubmitPlay(ctx, tb.gameID, number, id, hand[0], ""); err != nil {
			t.Fatalf("play: %v", err)
		}
	}
	for _, id := range tb.players {
		if id == r.StorytellerID {
			continue
		}
		if err := e.SubmitVote(ctx, tb.gameID, number, id, target.ID); err != nil {
			t.Fatalf("vote: %v", err)
		}
	}
}

func TestCreateAndJoin(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(game.DefaultDeckSize)
	tb := newTable(t, e, "Alice", "Bob")

	g, err := e.GetGame(ctx, tb.gameID)
	if err != nil {
		t.Fatalf("get game: %v", err)
	}
	if g.Status != game.Ongoing || len(g.Players) != 2 {
		t.Fatalf("expected ongoing game with 2 players, got %s with %d", g.Status, len(g.Players))
	}
	if !g.Players[0].Owner || g.Players[1].Owner {
		t.Fatal("expected only the creator to be owner")
	}
	if g.Deck.Held != 12 || g.Deck.Total != game.DefaultDeckSize {
		t.Fatalf("unexpected deck counts %+v", g.Deck)
	}

	if _, err := e.JoinGame(ctx, tb.gameID, "BOB"); !errors.Is(err, game.ErrDuplicatePlayerName) {
		t.Fatalf("expected duplicate player name, got %v", err)
	}
	if _, err := e.JoinGame(ctx, "missing", "Carol"); !errors.Is(err, game.ErrGameNotFound) {
		t.Fatalf("expected game not found, got %v", err)
	}
}

func TestRoundLifecycle(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(game.DefaultDeckSize)
	tb := newTable(t, e, "Alice", "Bob", "Carol")

	hand, _ := e.GetHand(ctx, tb.gameID, tb.players[0])
	play, err := e.SubmitPlay(ctx, tb.gameID, 0, tb.players[0], hand[0], "a door in the sky")
	if err != nil {
		t.Fatalf("submit play: %v", err)
	}
	if play.Card == nil || *play.Card != hand[0] || play.PlayerID != tb.players[0] {
		t.Fatalf("expected acting player to see their play, got %+v", play)
	}

	hidden, err := e.GetPlay(ctx, tb.gameID, 0, play.ID)
	if err != nil {
		t.Fatalf("get play: %v", err)
	}
	if hidden.Card != nil || hidden.PlayerID != "" || hidden.ID != "" {
		t.Fatalf("expected card and owner hidden while collecting plays, got %+v", hidden)
	}
	collecting, err := e.GetRound(ctx, tb.gameID, 0)
	if err != nil {
		t.Fatalf("get round: %v", err)
	}
	if len(collecting.PlayDetails) != 1 || collecting.PlayDetails[0].ID != "" {
		t.Fatalf("expected the storyteller's play id hidden while collecting plays, got %+v", collecting.PlayDetails)
	}
	if _, err := e.GetPlay(ctx, tb.gameID, 0, "missing"); !errors.Is(err, game.ErrPlayNotFound) {
		t.Fatalf("expected play not found, got %v", err)
	}

	if _, err := e.AdvanceRound(ctx, tb.gameID); !errors.Is(err, game.ErrRoundIncomplete) {
		t.Fatalf("expected round incomplete, got %v", err)
	}

	var bobPlay string
	for _, id := range tb.players[1:] {
		h, _ := e.GetHand(ctx, tb.gameID, id)
		p, err := e.SubmitPlay(ctx, tb.gameID, 0, id, h[0], "")
		if err != nil {
			t.Fatalf("submit play: %v", err)
		}
		if id == tb.players[1] {
			bobPlay = p.ID
		}
	}
	r, err := e.GetRound(ctx, tb.gameID, 0)
	if err != nil {
		t.Fatalf("get round: %v", err)
	}
	if r.Status != game.RoundCollectingVotes || r.Story != "a door in the sky" {
		t.Fatalf("expected voting on the story, got %s %q", r.Status, r.Story)
	}
	for i, p := range r.PlayDetails {
		if p.Card == nil || p.ID == "" || p.PlayerID != "" {
			t.Fatalf("expected cards shown and owners hidden while voting, got %+v", p)
		}
		if p.Story != "" || p.Position != nil || p.Storyteller {
			t.Fatalf("expected nothing marking the storyteller's card while voting, got %+v", p)
		}
		if i > 0 && *r.PlayDetails[i-1].Card > *p.Card {
			t.Fatalf("expected plays listed by card while voting, got %v before %v", *r.PlayDetails[i-1].Card, *p.Card)
		}
	}
	if len(r.PlayDetails) != 3 {
		t.Fatalf("expected 3 plays, got %d", len(r.PlayDetails))
	}
	hidden, err = e.GetPlay(ctx, tb.gameID, 0, play.ID)
	if err != nil {
		t.Fatalf("get play: %v", err)
	}
	if hidden.Story != "" || hidden.Position != nil {
		t.Fatalf("expected storyteller's play unmarked while voting, got %+v", hidden)
	}

	// Bob finds the card, Carol votes for Bob.
	if err := e.SubmitVote(ctx, tb.gameID, 0, tb.players[1], play.ID); err != nil {
		t.Fatalf("vote: %v", err)
	}
	if err := e.SubmitVote(ctx, tb.gameID, 0, tb.players[2], bobPlay); err != nil {
		t.Fatalf("vote: %v", err)
	}

	adv, err := e.AdvanceRound(ctx, tb.gameID)
	if err != nil {
		t.Fatalf("advance round: %v", err)
	}
	if adv.Finished || adv.Round == nil || adv.Round.Number != 1 || adv.Round.StorytellerID != tb.players[1] {
		t.Fatalf("expected round 1 told by bob, got %+v", adv)
	}

	done, err := e.GetRound(ctx, tb.gameID, 0)
	if err != nil {
		t.Fatalf("get round: %v", err)
	}
	want := map[string]int{tb.players[0]: 3, tb.players[1]: 4, tb.players[2]: 0}
	for id, v := range want {
		if done.Scores[id] != v {
			t.Errorf("player %s: expected %d, got %d", id, v, done.Scores[id])
		}
	}
	for _, p := range done.PlayDetails {
		if p.PlayerID == "" || p.Position == nil {
			t.Fatalf("expected owners revealed after scoring, got %+v", p)
		}
	}
	if first := done.PlayDetails[0]; *first.Position != 0 || first.Story != "a door in the sky" || !first.Storyteller {
		t.Fatalf("expected storyteller's play first after scoring, got %+v", first)
	}

	rounds, err := e.ListRounds(ctx, tb.gameID)
	if err != nil {
		t.Fatalf("list rounds: %v", err)
	}
	if len(rounds) != 2 || rounds[0].Status != game.RoundComplete || rounds[1].Status != game.RoundCollectingPlays {
		t.Fatalf("unexpected rounds %+v", rounds)
	}
	if _, err := e.GetRound(ctx, tb.gameID, 5); !errors.Is(err, game.ErrRoundNotFound) {
		t.Fatalf("expected round not found, got %v", err)
	}
}

func TestRejectedPlayIsNotSaved(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(game.DefaultDeckSize)
	tb := newTable(t, e, "Alice", "Bob")

	hand, _ := e.GetHand(ctx, tb.gameID, tb.players[1])
	if _, err := e.SubmitPlay(ctx, tb.gameID, 0, tb.players[1], hand[0], ""); !errors.Is(err, game.ErrStorytellerNotReady) {
		t.Fatalf("expected storyteller not ready, got %v", err)
	}
	after, _ := e.GetHand(ctx, tb.gameID, tb.players[1])
	if len(after) != len(hand) {
		t.Fatalf("expected hand of %d unchanged, got %d", len(hand), len(after))
	}
}

func TestAdvanceUntilDeckExhausted(t *testing.T) {
	ctx := context.Background()
	// Twelve cards for the first hands and two for each top-up: three rounds.
	e := newTestEngine(16)
	tb := newTable(t, e, "Alice", "Bob")

	rounds := 0
	for {
		playRound(t, e, tb)
		adv, err := e.AdvanceRound(ctx, tb.gameID)
		if err != nil {
			t.Fatalf("advance round: %v", err)
		}
		rounds++
		if adv.Finished {
			break
		}
		if rounds > 10 {
			t.Fatal("expected the deck to run out")
		}
	}
	if rounds != 3 {
		t.Fatalf("expected 3 rounds played, got %d", rounds)
	}

	g, err := e.GetGame(ctx, tb.gameID)
	if err != nil {
		t.Fatalf("get game: %v", err)
	}
	if g.Status != game.Finished {
		t.Fatalf("expected finished, got %s", g.Status)
	}
	if g.Deck.Total != 16 {
		t.Fatalf("expected 16 cards accounted for, got %+v", g.Deck)
	}
	// Every round the lone guesser finds the card: 2 points, none for the
	// storyteller. Alice told rounds 0 and 2.
	want := map[string]int{"Alice": 2, "Bob": 4}
	for _, p := range g.Players {
		if p.Score != want[p.Name] {
			t.Fatalf("expected %s to score %d, got %d", p.Name, want[p.Name], p.Score)
		}
	}
}

func TestLeaveGame(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(game.DefaultDeckSize)
	tb := newTable(t, e, "Alice", "Bob")

	for _, id := range tb.players {
		if err := e.LeaveGame(ctx, tb.gameID, id); err != nil {
			t.Fatalf("leave game: %v", err)
		}
	}
	g, err := e.GetGame(ctx, tb.gameID)
	if err != nil {
		t.Fatalf("get game: %v", err)
	}
	if g.Status != game.Abandoned {
		t.Fatalf("expected abandoned, got %s", g.Status)
	}
	if _, err := e.AdvanceRound(ctx, tb.gameID); !errors.Is(err, game.ErrGameOver) {
		t.Fatalf("expected game over, got %v", err)
	}
	if err := e.LeaveGame(ctx, tb.gameID, tb.players[0]); !errors.Is(err, game.ErrPlayerNotFound) {
		t.Fatalf("expected player not found, got %v", err)
	}
}

func TestConcurrentJoinsAreSerialized(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(200)
	created, err := e.CreateGame(ctx, "busy", "Host")
	if err != nil {
		t.Fatalf("create game: %v", err)
	}

	const joiners = 20
	var wg sync.WaitGroup
	errs := make(chan error, joiners)
	for i := 0; i < joiners; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := e.JoinGame(ctx, created.ID, fmt.Sprintf("player-%d", i)); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("join: %v", err)
	}

	g, err := e.GetGame(ctx, created.ID)
	if err != nil {
		t.Fatalf("get game: %v", err)
	}
	if len(g.Players) != joiners+1 {
		t.Fatalf("expected %d players, got %d", joiners+1, len(g.Players))
	}
	seats := map[int]bool{}
	for _, p := range g.Players {
		if seats[p.Number] {
			t.Fatalf("seat %d assigned twice", p.Number)
		}
		seats[p.Number] = true
	}
	if g.Deck.Held != (joiners+1)*game.DefaultHandSize {
		t.Fatalf("expected every player dealt in, got %+v", g.Deck)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.locks) != 0 {
		t.Fatalf("expected locks released after the joins, got %d", len(e.locks))
	}
}

func TestLocksAreReleased(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(game.DefaultDeckSize)
	tb := newTable(t, e, "Alice", "Bob")
	playRound(t, e, tb)
	if _, err := e.AdvanceRound(ctx, tb.gameID); err != nil {
		t.Fatalf("advance round: %v", err)
	}
	for _, id := range tb.players {
		if err := e.LeaveGame(ctx, tb.gameID, id); err != nil {
			t.Fatalf("leave game: %v", err)
		}
	}
	if _, err := e.JoinGame(ctx, tb.gameID, "Carol"); !errors.Is(err, game.ErrGameOver) {
		t.Fatalf("expected game over, got %v", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.locks) != 0 {
		t.Fatalf("expected no lock left behind, got %d", len(e.locks))
	}
}
