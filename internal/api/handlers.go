package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/calvinwijaya/dixit-be/internal/db"
	"github.com/calvinwijaya/dixit-be/internal/engine"
	"github.com/calvinwijaya/dixit-be/internal/game"
	"github.com/gorilla/mux"
)

// Handlers contains all the API handlers
type Handlers struct {
	engine   *engine.Engine
	database *db.Database
}

// NewHandlers creates a new instance of Handlers. database may be nil, in
// which case the score ledger endpoint is unavailable.
func NewHandlers(e *engine.Engine, database *db.Database) *Handlers {
	return &Handlers{
		engine:   e,
		database: database,
	}
}

// RegisterRoutes registers all API routes
func (h *Handlers) RegisterRoutes(r *mux.Router) {
	// Game endpoints
	r.HandleFunc("/api/games", h.CreateGame).Methods("POST")
	r.HandleFunc("/api/games", h.ListGames).Methods("GET")
	r.HandleFunc("/api/games/{id}", h.GetGame).Methods("GET")
	r.HandleFunc("/api/games/{id}", h.DeleteGame).Methods("DELETE")
	r.HandleFunc("/api/games/{id}/advance", h.AdvanceRound).Methods("POST")
	r.HandleFunc("/api/games/{id}/scores", h.GetScores).Methods("GET")

	// Player endpoints
	r.HandleFunc("/api/games/{id}/players", h.JoinGame).Methods("POST")
	r.HandleFunc("/api/games/{id}/players/{player}", h.LeaveGame).Methods("DELETE")
	r.HandleFunc("/api/games/{id}/players/{player}/hand", h.GetHand).Methods("GET")

	// Round endpoints
	r.HandleFunc("/api/games/{id}/rounds", h.ListRounds).Methods("GET")
	r.HandleFunc("/api/games/{id}/rounds/{number:[0-9]+}", h.GetRound).Methods("GET")
	r.HandleFunc("/api/games/{id}/rounds/{number:[0-9]+}/plays", h.SubmitPlay).Methods("POST")
	r.HandleFunc("/api/games/{id}/rounds/{number:[0-9]+}/plays/{play}", h.GetPlay).Methods("GET")
	r.HandleFunc("/api/games/{id}/rounds/{number:[0-9]+}/votes", h.SubmitVote).Methods("POST")
}

// response helper function to send JSON responses
func response(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// error response helper function
func errorResponse(w http.ResponseWriter, status int, message string) {
	response(w, status, map[string]string{"error": message})
}

// domainErrorResponse answers with the reason and code of a domain
// rejection.
func domainErrorResponse(w http.ResponseWriter, status int, err error) {
	response(w, status, map[string]string{
		"error": err.Error(),
		"code":  string(game.CodeOf(err)),
	})
}

// failure maps an operation error to a response. Rejections go back to the
// client; anything else is logged and answered as an internal error.
func failure(w http.ResponseWriter, r *http.Request, err error) {
	if !game.IsRejection(err) {
		log.Printf("%s %s: %v", r.Method, r.RequestURI, err)
		errorResponse(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	status := http.StatusBadRequest
	switch {
	case errors.Is(err, game.ErrGameNotFound),
		errors.Is(err, game.ErrRoundNotFound),
		errors.Is(err, game.ErrPlayNotFound),
		errors.Is(err, game.ErrPlayerNotFound):
		status = http.StatusNotFound
	case errors.Is(err, game.ErrInvalidPlay),
		errors.Is(err, game.ErrInvalidVote):
		status = http.StatusForbidden
	case errors.Is(err, game.ErrDuplicatePlayerName),
		errors.Is(err, game.ErrRoundIncomplete),
		errors.Is(err, game.ErrDeckExhausted),
		errors.Is(err, game.ErrGameOver):
		status = http.StatusConflict
	}
	domainErrorResponse(w, status, err)
}

func roundNumber(r *http.Request) (int, bool) {
	n, err := strconv.Atoi(mux.Vars(r)["number"])
	return n, err == nil
}

// CreateGame creates a new game owned by the requesting player
func (h *Handlers) CreateGame(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name      string `json:"name"`
		OwnerName string `json:"ownerName"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	g, err := h.engine.CreateGame(r.Context(), req.Name, req.OwnerName)
	if err != nil {
		failure(w, r, err)
		return
	}

	response(w, http.StatusCreated, g)
}

// ListGames returns every game, newest first
func (h *Handlers) ListGames(w http.ResponseWriter, r *http.Request) {
	games, err := h.engine.ListGames(r.Context())
	if err != nil {
		failure(w, r, err)
		return
	}
	response(w, http.StatusOK, games)
}

// GetGame returns the current state of a game
func (h *Handlers) GetGame(w http.ResponseWriter, r *http.Request) {
	g, err := h.engine.GetGame(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		failure(w, r, err)
		return
	}
	response(w, http.StatusOK, g)
}

// DeleteGame removes a game
func (h *Handlers) DeleteGame(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.DeleteGame(r.Context(), mux.Vars(r)["id"]); err != nil {
		failure(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// JoinGame seats a new player
func (h *Handlers) JoinGame(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	player, err := h.engine.JoinGame(r.Context(), mux.Vars(r)["id"], req.Name)
	if err != nil {
		failure(w, r, err)
		return
	}
	response(w, http.StatusCreated, player)
}

// LeaveGame vacates a player's seat
func (h *Handlers) LeaveGame(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := h.engine.LeaveGame(r.Context(), vars["id"], vars["player"]); err != nil {
		failure(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetHand returns the cards held by a player
func (h *Handlers) GetHand(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	hand, err := h.engine.GetHand(r.Context(), vars["id"], vars["player"])
	if err != nil {
		failure(w, r, err)
		return
	}
	response(w, http.StatusOK, map[string]interface{}{"cards": hand})
}

// ListRounds returns the summaries of every round of a game
func (h *Handlers) ListRounds(w http.ResponseWriter, r *http.Request) {
	rounds, err := h.engine.ListRounds(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		failure(w, r, err)
		return
	}
	response(w, http.StatusOK, rounds)
}

// GetRound returns one round with its plays
func (h *Handlers) GetRound(w http.ResponseWriter, r *http.Request) {
	number, ok := roundNumber(r)
	if !ok {
		errorResponse(w, http.StatusBadRequest, "Invalid round number")
		return
	}
	round, err := h.engine.GetRound(r.Context(), mux.Vars(r)["id"], number)
	if err != nil {
		failure(w, r, err)
		return
	}
	response(w, http.StatusOK, round)
}

// SubmitPlay commits a card for a round
func (h *Handlers) SubmitPlay(w http.ResponseWriter, r *http.Request) {
	number, ok := roundNumber(r)
	if !ok {
		errorResponse(w, http.StatusBadRequest, "Invalid round number")
		return
	}

	var req struct {
		PlayerID string `json:"playerId"`
		Card     int    `json:"card"`
		Story    string `json:"story,omitempty"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.PlayerID == "" {
		errorResponse(w, http.StatusBadRequest, "Player ID is required")
		return
	}

	play, err := h.engine.SubmitPlay(r.Context(), mux.Vars(r)["id"], number, req.PlayerID, game.Card(req.Card), req.Story)
	if err != nil {
		failure(w, r, err)
		return
	}
	response(w, http.StatusCreated, play)
}

// GetPlay returns one play of a round
func (h *Handlers) GetPlay(w http.ResponseWriter, r *http.Request) {
	number, ok := roundNumber(r)
	if !ok {
		errorResponse(w, http.StatusBadRequest, "Invalid round number")
		return
	}
	vars := mux.Vars(r)
	play, err := h.engine.GetPlay(r.Context(), vars["id"], number, vars["play"])
	if err != nil {
		failure(w, r, err)
		return
	}
	response(w, http.StatusOK, play)
}

// SubmitVote records a guess for the storyteller's card
func (h *Handlers) SubmitVote(w http.ResponseWriter, r *http.Request) {
	number, ok := roundNumber(r)
	if !ok {
		errorResponse(w, http.StatusBadRequest, "Invalid round number")
		return
	}

	var req struct {
		VoterID string `json:"voterId"`
		PlayID  string `json:"playId"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.VoterID == "" || req.PlayID == "" {
		errorResponse(w, http.StatusBadRequest, "Voter ID and play ID are required")
		return
	}

	if err := h.engine.SubmitVote(r.Context(), mux.Vars(r)["id"], number, req.VoterID, req.PlayID); err != nil {
		failure(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AdvanceRound closes the current round and starts the next one
func (h *Handlers) AdvanceRound(w http.ResponseWriter, r *http.Request) {
	adv, err := h.engine.AdvanceRound(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		failure(w, r, err)
		return
	}
	response(w, http.StatusOK, adv)
}

// GetScores returns the recorded score ledger of a game
func (h *Handlers) GetScores(w http.ResponseWriter, r *http.Request) {
	if h.database == nil {
		errorResponse(w, http.StatusServiceUnavailable, "Database not available")
		return
	}

	entries, err := h.database.GetScoreLedger(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		failure(w, r, err)
		return
	}
	response(w, http.StatusOK, entries)
}
