package game

import (
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
)

type RoundStatus string

const (
	RoundNew             RoundStatus = "new"              // Created, hands not dealt yet
	RoundCollectingPlays RoundStatus = "collecting_plays" // Waiting for every participant to commit a card
	RoundCollectingVotes RoundStatus = "collecting_votes" // Waiting for every non-storyteller to vote
	RoundComplete        RoundStatus = "complete"         // Scored, or voided
)

// Round is one storytelling cycle of a game.
type Round struct {
	Number     int            `json:"number"`
	Turn       string         `json:"turn"`       // Storyteller's player id
	TurnNumber int            `json:"turnNumber"` // Storyteller's seat number
	Status     RoundStatus    `json:"status"`
	Story      string         `json:"story,omitempty"`
	Players    []string       `json:"players"` // Participants: seated players dealt into this round
	Plays      []*Play        `json:"plays"`
	Scores     map[string]int `json:"scores,omitempty"`
	Voided     bool           `json:"voided,omitempty"`
}

func newRound(number int, storyteller *Player) *Round {
	return &Round{
		Number:     number,
		Turn:       storyteller.ID,
		TurnNumber: storyteller.Number,
		Status:     RoundNew,
		Players:    []string{},
		Plays:      []*Play{},
	}
}

// IsParticipant reports whether playerID was dealt into this round and is
// still seated.
func (r *Round) IsParticipant(playerID string) bool {
	return slices.Contains(r.Players, playerID)
}

// Dealable reports whether the round may still (re)deal hands: it has not
// started or no card has been played yet.
func (r *Round) Dealable() bool {
	return r.Status == RoundNew || (r.Status == RoundCollectingPlays && len(r.Plays) == 0)
}

// Deal tops up every player's hand to handSize and makes them the round's
// participants. If the deck cannot supply every missing card nothing is
// dealt and the round keeps its status.
func (r *Round) Deal(deck *Deck, players []*Player, handSize int) error {
	if !r.Dealable() {
		return &Error{
			Code:    CodeInvalidRoundState,
			Class:   ClassInvariant,
			Message: fmt.Sprintf("round %d cannot be dealt in status %s", r.Number, r.Status),
		}
	}

	need := 0
	for _, p := range players {
		if missing := handSize - len(p.Hand); missing > 0 {
			need += missing
		}
	}
	cards, err := deck.DealHand(need)
	if err != nil {
		return err
	}

	ids := make([]string, 0, len(players))
	for _, p := range players {
		if missing := handSize - len(p.Hand); missing > 0 {
			if err := p.Receive(cards[:missing]); err != nil {
				return err
			}
			cards = cards[missing:]
		}
		ids = append(ids, p.ID)
	}

	r.Players = ids
	r.Status = RoundCollectingPlays
	return nil
}

// PlayOf returns the play submitted by playerID, if any.
func (r *Round) PlayOf(playerID string) *Play {
	for _, p := range r.Plays {
		if p.PlayerID == playerID {
			return p
		}
	}
	return nil
}

// Play returns the play with the given id.
func (r *Round) Play(id string) (*Play, error) {
	for _, p := range r.Plays {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, reject(ErrPlayNotFound, fmt.Sprintf("play %s not found in round %d", id, r.Number))
}

// StorytellerPlay returns the storyteller's play, or nil before the clue
// has been given.
func (r *Round) StorytellerPlay() *Play {
	return r.PlayOf(r.Turn)
}

// SubmitPlay commits card from player's hand. The storyteller plays first
// and must tell a story; everybody else plays without one.
func (r *Round) SubmitPlay(player *Player, card Card, story string) (*Play, error) {
	if r.Status != RoundCollectingPlays {
		return nil, reject(ErrInvalidPlay, fmt.Sprintf("round %d is not accepting plays (%s)", r.Number, r.Status))
	}
	if !r.IsParticipant(player.ID) {
		return nil, reject(ErrCardNotInHand, fmt.Sprintf("%s was not dealt into round %d", player.Name, r.Number))
	}
	if !player.HasCard(card) {
		return nil, reject(ErrCardNotInHand, fmt.Sprintf("%s is not in %s's hand", card, player.Name))
	}
	if r.PlayOf(player.ID) != nil {
		return nil, reject(ErrAlreadyPlayed, fmt.Sprintf("%s already played in round %d", player.Name, r.Number))
	}

	story = strings.TrimSpace(story)
	if player.ID == r.Turn {
		if story == "" {
			return nil, reject(ErrInvalidPlay, "the storyteller must tell a story")
		}
		if len(r.Plays) > 0 {
			return nil, reject(ErrInvalidPlay, "the storyteller must play first")
		}
	} else {
		if r.StorytellerPlay() == nil {
			return nil, reject(ErrStorytellerNotReady, fmt.Sprintf("waiting for the storyteller of round %d", r.Number))
		}
		story = ""
	}

	if _, err := player.PlayCard(card); err != nil {
		return nil, err
	}
	play := &Play{
		ID:       uuid.New().String(),
		PlayerID: player.ID,
		Card:     card,
		Story:    story,
		Position: len(r.Plays),
		Votes:    []string{},
	}
	r.Plays = append(r.Plays, play)
	if story != "" {
		r.Story = story
	}

	r.advance()
	return play, nil
}

// advance moves to vote collection once every participant has played.
func (r *Round) advance() {
	if r.Status == RoundCollectingPlays && r.StorytellerPlay() != nil && r.allPlayed() {
		r.Status = RoundCollectingVotes
	}
}

func (r *Round) allPlayed() bool {
	for _, id := range r.Players {
		if r.PlayOf(id) == nil {
			return false
		}
	}
	return true
}

// HasVoted reports whether playerID already cast a vote this round.
func (r *Round) HasVoted(playerID string) bool {
	for _, p := range r.Plays {
		if p.VotedBy(playerID) {
			return true
		}
	}
	return false
}

// SubmitVote records voter's guess for the storyteller's card.
func (r *Round) SubmitVote(voter *Player, playID string) error {
	if r.Status != RoundCollectingVotes {
		return reject(ErrInvalidVote, fmt.Sprintf("round %d is not accepting votes (%s)", r.Number, r.Status))
	}
	if !r.IsParticipant(voter.ID) {
		return reject(ErrInvalidVote, fmt.Sprintf("%s is not playing round %d", voter.Name, r.Number))
	}
	if voter.ID == r.Turn {
		return reject(ErrInvalidVote, "the storyteller does not vote")
	}
	if r.HasVoted(voter.ID) {
		return reject(ErrAlreadyVoted, fmt.Sprintf("%s already voted in round %d", voter.Name, r.Number))
	}
	play, err := r.Play(playID)
	if err != nil {
		return err
	}
	if play.PlayerID == voter.ID {
		return reject(ErrInvalidVote, "players cannot vote for their own card")
	}

	play.Votes = append(play.Votes, voter.ID)
	return nil
}

// VotesComplete reports whether every non-storyteller participant voted.
func (r *Round) VotesComplete() bool {
	if r.Status != RoundCollectingVotes {
		return false
	}
	for _, id := range r.Players {
		if id != r.Turn && !r.HasVoted(id) {
			return false
		}
	}
	return true
}

// Close scores the round, credits the players and discards every played
// card. A round closes exactly once.
func (r *Round) Close(deck *Deck, rules Rules, player func(id string) *Player) (map[string]int, error) {
	if r.Status == RoundComplete {
		return nil, &Error{
			Code:    CodeInvalidRoundState,
			Class:   ClassInvariant,
			Message: fmt.Sprintf("round %d is already complete", r.Number),
		}
	}
	if !r.VotesComplete() {
		return nil, reject(ErrRoundIncomplete, fmt.Sprintf("round %d is still %s", r.Number, r.Status))
	}

	scores := ScoreRound(r, rules)
	for id, delta := range scores {
		if p := player(id); p != nil {
			p.AddScore(delta)
		}
	}
	r.Scores = scores
	r.Status = RoundComplete
	r.discardPlays(deck)
	return scores, nil
}

// Void completes the round without scoring.
func (r *Round) Void(deck *Deck) {
	r.Status = RoundComplete
	r.Voided = true
	r.discardPlays(deck)
}

func (r *Round) discardPlays(deck *Deck) {
	for _, p := range r.Plays {
		deck.Discard(p.Card)
	}
}

// removeParticipant drops a departing player from the round. Their play
// and votes stay, but they no longer hold up the round or score in it.
func (r *Round) removeParticipant(playerID string) {
	i := slices.Index(r.Players, playerID)
	if i < 0 {
		return
	}
	r.Players = slices.Delete(r.Players, i, i+1)
	r.advance()
}
