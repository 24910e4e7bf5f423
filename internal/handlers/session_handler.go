package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"turtleword/internal/game"
	"turtleword/internal/models"
	"turtleword/internal/repository"
	"turtleword/internal/session"
)

// SessionHandler drives the server-side game loop: starting rounds,
// waiting on invoice settlement and applying guesses
type SessionHandler struct {
	controller *session.Controller
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(controller *session.Controller) *SessionHandler {
	return &SessionHandler{controller: controller}
}

// roundView is the client-facing shape of a round. The target word only
// appears once the round is over.
type roundView struct {
	ID           string                        `json:"id"`
	Language     string                        `json:"language"`
	Guesses      []string                      `json:"guesses"`
	LetterStates map[string]models.LetterState `json:"letterStates"`
	Outcome      models.RoundOutcome           `json:"outcome"`
	WordLength   int                           `json:"wordLength"`
	MaxGuesses   int                           `json:"maxGuesses"`
	TargetWord   string                        `json:"targetWord,omitempty"`
}

func newRoundView(round *models.GameRound) *roundView {
	view := &roundView{
		ID:           round.ID,
		Language:     round.Language,
		Guesses:      round.Guesses,
		LetterStates: round.LetterStates,
		Outcome:      round.Outcome,
		WordLength:   models.WordLength,
		MaxGuesses:   models.MaxGuesses,
	}
	if round.IsOver() {
		view.TargetWord = round.TargetWord
	}
	return view
}

// Start handles POST /api/session/start. A closed gate answers 402 with
// the invoice to settle; everything else answers with a fresh round and
// its play token.
func (h *SessionHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID   string `json:"userId"`
		Language string `json:"language"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", "Session start decode failed", err)
		return
	}
	if req.UserID == "" {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "Missing userId"})
		return
	}
	if req.Language == "" {
		req.Language = "english"
	}

	result, err := h.controller.StartSession(r.Context(), req.UserID, req.Language)
	if err != nil {
		h.respondStartError(w, err)
		return
	}

	h.respondStartResult(w, result)
}

// AwaitPayment handles POST /api/session/await-payment. The request
// blocks until the pending invoice settles or the payment window
// closes, mirroring the orchestrator's polling loop.
func (h *SessionHandler) AwaitPayment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID   string `json:"userId"`
		Language string `json:"language"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", "Await payment decode failed", err)
		return
	}
	if req.UserID == "" {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "Missing userId"})
		return
	}
	if req.Language == "" {
		req.Language = "english"
	}

	result, err := h.controller.AwaitPayment(r.Context(), req.UserID, req.Language)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrNoPendingPayment):
			respondJSON(w, http.StatusConflict, map[string]string{"error": "No pending payment"})
		case errors.Is(err, session.ErrPaymentNotReceived):
			respondJSON(w, http.StatusPaymentRequired, map[string]string{"error": "Payment not received"})
		default:
			h.respondStartError(w, err)
		}
		return
	}

	h.respondStartResult(w, result)
}

// Guess handles POST /api/session/guess. The bearer play token names
// the player; the round is looked up server-side.
func (h *SessionHandler) Guess(w http.ResponseWriter, r *http.Request) {
	playerID, ok := h.authorize(w, r)
	if !ok {
		return
	}

	var req struct {
		Guess string `json:"guess"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", "Guess decode failed", err)
		return
	}

	outcome, round, err := h.controller.SubmitGuess(r.Context(), playerID, req.Guess)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrNoActiveRound):
			respondJSON(w, http.StatusConflict, map[string]string{"error": "No active round"})
		case errors.Is(err, game.ErrRoundOver):
			respondJSON(w, http.StatusConflict, map[string]string{"error": "Round is already over"})
		default:
			respondWithError(w, http.StatusInternalServerError, ErrInternal, "Guess handling failed", err)
		}
		return
	}

	if !outcome.Accepted {
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"accepted": false,
			"message":  outcome.Message,
			"round":    newRoundView(round),
		})
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"accepted": true,
		"results":  outcome.Results,
		"outcome":  outcome.Outcome,
		"round":    newRoundView(round),
	})
}

// Languages handles GET /api/languages
func (h *SessionHandler) Languages(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{"languages": h.controller.Languages()})
}

func (h *SessionHandler) respondStartResult(w http.ResponseWriter, result *session.StartResult) {
	if result.PaymentRequired {
		respondJSON(w, http.StatusPaymentRequired, map[string]interface{}{
			"paymentRequired": true,
			"paymentRequest":  result.Invoice.PaymentRequest,
			"paymentHash":     result.Invoice.PaymentHash,
			"amount":          result.Invoice.AmountSats,
		})
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"round":     newRoundView(result.Round),
		"playToken": result.PlayToken,
	})
}

func (h *SessionHandler) respondStartError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrPlayerNotFound):
		respondJSON(w, http.StatusNotFound, map[string]string{"error": "Player not found"})
	case errors.Is(err, session.ErrUnknownLanguage):
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "Unknown language"})
	case errors.Is(err, session.ErrRoundInProgress):
		respondJSON(w, http.StatusConflict, map[string]string{"error": "A round is already in progress"})
	default:
		respondWithError(w, http.StatusBadGateway, ErrPaymentFailed, "Session start failed", err)
	}
}

// authorize extracts and verifies the bearer play token
func (h *SessionHandler) authorize(w http.ResponseWriter, r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || token == "" {
		respondJSON(w, http.StatusUnauthorized, map[string]string{"error": "Missing play token"})
		return "", false
	}

	playerID, err := h.controller.VerifyPlayToken(token)
	if err != nil {
		respondWithError(w, http.StatusUnauthorized, "Invalid play token", "Play token rejected", err)
		return "", false
	}

	return playerID, true
}
