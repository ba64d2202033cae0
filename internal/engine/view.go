package engine

import (
	"slices"
	"time"

	"github.com/calvinwijaya/dixit-be/internal/game"
)

// PlayerView is the public view of a seat. Hands are only shown to their
// owner through GetHand.
type PlayerView struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Number   int    `json:"number"`
	Owner    bool   `json:"owner"`
	Score    int    `json:"score"`
	HandSize int    `json:"handSize"`
}

// GameDetail describes a game and its roster.
type GameDetail struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Status       game.GameStatus `json:"status"`
	CreatedAt    time.Time       `json:"createdAt"`
	Players      []PlayerView    `json:"players"`
	CurrentRound *int            `json:"currentRound,omitempty"`
	Deck         game.DeckCounts `json:"deck"`
	Options      game.Options    `json:"options"`
}

// RoundSummary describes a round without its plays.
type RoundSummary struct {
	Number        int              `json:"number"`
	Status        game.RoundStatus `json:"status"`
	StorytellerID string           `json:"storytellerId"`
	Storyteller   string           `json:"storyteller"`
	Story         string           `json:"story,omitempty"`
	Plays         int              `json:"plays"`
	Votes         int              `json:"votes"`
	Voided        bool             `json:"voided,omitempty"`
}

// RoundDetail adds the plays to a summary. Play ids and cards are revealed
// once voting starts, in card order; play order, owners, votes and scores once the
// round is complete.
type RoundDetail struct {
	RoundSummary
	PlayDetails []PlayDetail   `json:"playDetails"`
	Scores      map[string]int `json:"scores,omitempty"`
}

// PlayDetail describes one play as far as the round reveals it.
type PlayDetail struct {
	ID          string     `json:"id,omitempty"`
	Round       int        `json:"round"`
	Position    *int       `json:"position,omitempty"`
	Card        *game.Card `json:"card,omitempty"`
	PlayerID    string     `json:"playerId,omitempty"`
	Story       string     `json:"story,omitempty"`
	Storyteller bool       `json:"storyteller,omitempty"`
	Votes       []string   `json:"votes,omitempty"`
}

// Advance is the outcome of AdvanceRound: either the new round or the end
// of the game.
type Advance struct {
	Round    *RoundSummary `json:"round,omitempty"`
	Finished bool          `json:"finished"`
}

func gameDetail(g *game.Game) *GameDetail {
	d := &GameDetail{
		ID:        g.ID,
		Name:      g.Name,
		Status:    g.Status,
		CreatedAt: g.CreatedAt,
		Players:   make([]PlayerView, 0, len(g.Players)),
		Deck:      g.Deck.Counts(),
		Options:   g.Options,
	}
	for _, p := range g.Players {
		d.Players = append(d.Players, playerView(p))
	}
	if r := g.CurrentRound(); r != nil {
		n := r.Number
		d.CurrentRound = &n
	}
	return d
}

func playerView(p *game.Player) PlayerView {
	return PlayerView{
		ID:       p.ID,
		Name:     p.Name,
		Number:   p.Number,
		Owner:    p.Owner,
		Score:    p.Score,
		HandSize: len(p.Hand),
	}
}

func roundSummary(g *game.Game, r *game.Round) RoundSummary {
	s := RoundSummary{
		Number:        r.Number,
		Status:        r.Status,
		StorytellerID: r.Turn,
		Story:         r.Story,
		Plays:         len(r.Plays),
		Voided:        r.Voided,
	}
	if p := g.Player(r.Turn); p != nil {
		s.Storyteller = p.Name
	}
	for _, p := range r.Plays {
		s.Votes += len(p.Votes)
	}
	return s
}

func roundDetail(g *game.Game, r *game.Round) *RoundDetail {
	d := &RoundDetail{
		RoundSummary: roundSummary(g, r),
		PlayDetails:  make([]PlayDetail, 0, len(r.Plays)),
	}
	for _, p := range r.Plays {
		d.PlayDetails = append(d.PlayDetails, playDetail(r, p, false))
	}
	if r.Status == game.RoundComplete {
		d.Scores = r.Scores
		return d
	}

	// Submission order gives the storyteller away.
	if r.Status == game.RoundCollectingVotes {
		slices.SortFunc(d.PlayDetails, func(a, b PlayDetail) int {
			return int(*a.Card) - int(*b.Card)
		})
	}
	return d
}

// playDetail reveals as much of p as the round's status allows, or
// everything when full is set. The storyteller plays first, so ids stay
// hidden until voting; the story and position would mark the storyteller's
// card, so they stay hidden with the owner.
func playDetail(r *game.Round, p *game.Play, full bool) PlayDetail {
	d := PlayDetail{Round: r.Number}
	if full || r.Status == game.RoundCollectingVotes || r.Status == game.RoundComplete {
		d.ID = p.ID
		card := p.Card
		d.Card = &card
	}
	if full || r.Status == game.RoundComplete {
		position := p.Position
		d.Position = &position
		d.Story = p.Story
		d.PlayerID = p.PlayerID
		d.Storyteller = p.PlayerID == r.Turn
		d.Votes = append([]string(nil), p.Votes...)
	}
	return d
}
