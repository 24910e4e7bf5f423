package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"turtleword/internal/repository"
	"turtleword/internal/session"
)

// PlayerHandler serves player registration, stats and the leaderboard
type PlayerHandler struct {
	controller *session.Controller
	players    *repository.PlayerRepository
}

// NewPlayerHandler creates a new player handler
func NewPlayerHandler(controller *session.Controller, players *repository.PlayerRepository) *PlayerHandler {
	return &PlayerHandler{controller: controller, players: players}
}

// Auth handles POST /api/auth. Registration is idempotent: an existing
// username comes back with its original player ID.
func (h *PlayerHandler) Auth(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", "Auth request decode failed", err)
		return
	}
	if req.Username == "" {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "Missing username"})
		return
	}

	player, err := h.controller.RegisterPlayer(r.Context(), req.Username)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternal, "Player registration failed", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"userId":   player.ID,
		"username": player.Username,
	})
}

// GetUser handles GET /api/user/{id} and returns the player's stats
func (h *PlayerHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	playerID := chi.URLParam(r, "id")

	player, err := h.players.GetPlayer(playerID)
	if err != nil {
		if errors.Is(err, repository.ErrPlayerNotFound) {
			respondJSON(w, http.StatusNotFound, map[string]string{"error": "Player not found"})
			return
		}
		respondWithError(w, http.StatusInternalServerError, ErrInternal, "Player lookup failed", err)
		return
	}

	stats, err := h.players.GetStats(playerID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternal, "Stats lookup failed", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"userId":   player.ID,
		"username": player.Username,
		"stats":    stats,
	})
}

// UpdateStats handles POST /api/update-stats for clients that run their
// own game loop and report only the outcome
func (h *PlayerHandler) UpdateStats(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID      string `json:"userId"`
		Won         bool   `json:"won"`
		GuessNumber int    `json:"guessNumber"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", "Stats update decode failed", err)
		return
	}
	if req.UserID == "" {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "Missing userId"})
		return
	}

	if err := h.controller.RecordReportedOutcome(r.Context(), req.UserID, req.Won, req.GuessNumber); err != nil {
		if errors.Is(err, repository.ErrPlayerNotFound) {
			respondJSON(w, http.StatusNotFound, map[string]string{"error": "Player not found"})
			return
		}
		respondWithError(w, http.StatusInternalServerError, ErrInternal, "Stats update failed", err)
		return
	}

	stats, err := h.players.GetStats(req.UserID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternal, "Stats lookup failed", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"stats": stats})
}

// Leaderboard handles GET /api/leaderboard
func (h *PlayerHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	entries, err := h.players.Leaderboard(20)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternal, "Leaderboard query failed", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"leaderboard": entries})
}
