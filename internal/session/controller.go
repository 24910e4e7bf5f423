package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"turtleword/internal/game"
	"turtleword/internal/models"
	"turtleword/internal/repository"
)

var (
	// ErrRoundInProgress means the player already has an unfinished round
	ErrRoundInProgress = errors.New("a round is already in progress")

	// ErrNoActiveRound means a guess arrived with no round to apply it to
	ErrNoActiveRound = errors.New("no active round")

	// ErrNoPendingPayment means there is no payment attempt to wait on
	ErrNoPendingPayment = errors.New("no pending payment")

	// ErrPaymentNotReceived means the payment wait ended without settlement
	ErrPaymentNotReceived = errors.New("payment not received")

	// ErrUnknownLanguage means no word list is loaded for the language
	ErrUnknownLanguage = errors.New("unknown language")
)

// PaymentCollector is the slice of the payment orchestrator the
// controller drives
type PaymentCollector interface {
	Begin(ctx context.Context, amountSats int64, memo string) (*models.Invoice, bool, error)
	AwaitPayment(ctx context.Context, paymentHash string) bool
}

// StartResult reports how a session-start request ended: either a round
// with a play token, or an invoice the player must settle first.
type StartResult struct {
	Round           *models.GameRound
	PlayToken       string
	PaymentRequired bool
	Invoice         *models.Invoice
}

// Controller owns per-player session state: the single in-flight round,
// the single pending payment attempt, gate decisions and stats
// recording. Rounds and payments live in memory; stats and gate markers
// persist through the repository.
type Controller struct {
	engine   *game.Engine
	payments PaymentCollector
	players  *repository.PlayerRepository
	tokens   *TokenIssuer
	policy   Policy
	mirror   *StatsMirror

	priceSats int64
	now       func() time.Time

	mu       sync.Mutex
	rounds   map[string]*models.GameRound // playerID -> active round
	pending  map[string]*models.Invoice   // playerID -> unpaid invoice
	inflight map[string]struct{}          // playerID -> start/await mid-operation
}

// NewController creates the session controller
func NewController(engine *game.Engine, payments PaymentCollector, players *repository.PlayerRepository,
	tokens *TokenIssuer, policy Policy, mirror *StatsMirror, priceSats int64) *Controller {
	return &Controller{
		engine:    engine,
		payments:  payments,
		players:   players,
		tokens:    tokens,
		policy:    policy,
		mirror:    mirror,
		priceSats: priceSats,
		now:       time.Now,
		rounds:    make(map[string]*models.GameRound),
		pending:   make(map[string]*models.Invoice),
		inflight:  make(map[string]struct{}),
	}
}

// RegisterPlayer returns the player for a display name, creating one
// with a fresh server-issued ID on first sight. Registration is
// mirrored to the remote stats service on a best-effort basis.
func (c *Controller) RegisterPlayer(ctx context.Context, username string) (*models.Player, error) {
	player, err := c.players.GetPlayerByUsername(username)
	if err == nil {
		return player, nil
	}
	if !errors.Is(err, repository.ErrPlayerNotFound) {
		return nil, err
	}

	player, err = c.players.CreatePlayer(username)
	if err != nil {
		return nil, err
	}

	if err := c.mirror.Register(ctx, player.ID, player.Username); err != nil {
		log.Printf("Stats mirror registration failed for %s (local registration kept): %v", player.ID, err)
	}

	return player, nil
}

// IsGateOpen reports whether the player may start a game without paying
func (c *Controller) IsGateOpen(playerID string) (bool, error) {
	state, err := c.players.GetGateState(playerID)
	if err != nil {
		return false, err
	}
	return c.policy.IsOpen(state, c.now()), nil
}

// StartSession starts a round for the player. When the gate is open the
// free-play allowance is consumed and the round starts immediately.
// When it is closed, a payment attempt begins: a wallet settlement
// grants the round at once, otherwise the invoice is returned for QR
// payment and the session stays pending until AwaitPayment confirms it.
// At most one start or payment wait runs per player at a time; a start
// arriving while another is mid-flight is rejected like a second round.
func (c *Controller) StartSession(ctx context.Context, playerID, lang string) (*StartResult, error) {
	player, err := c.players.GetPlayer(playerID)
	if err != nil {
		return nil, err
	}
	if !c.engine.HasLanguage(lang) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownLanguage, lang)
	}

	c.mu.Lock()
	if round, ok := c.rounds[playerID]; ok && !round.IsOver() {
		c.mu.Unlock()
		return nil, ErrRoundInProgress
	}
	if _, busy := c.inflight[playerID]; busy {
		// Another start or payment wait for this player is mid-flight
		c.mu.Unlock()
		return nil, ErrRoundInProgress
	}
	if invoice, ok := c.pending[playerID]; ok {
		c.mu.Unlock()
		// One payment attempt at a time: re-present the open invoice
		return &StartResult{PaymentRequired: true, Invoice: invoice}, nil
	}
	// Reserve the player's slot before any I/O so concurrent starts
	// cannot double-consume the allowance or open duplicate invoices
	c.inflight[playerID] = struct{}{}
	c.mu.Unlock()
	defer c.release(playerID)

	state, err := c.players.GetGateState(playerID)
	if err != nil {
		return nil, err
	}

	now := c.now()
	if c.policy.IsOpen(state, now) {
		result, err := c.grantRound(playerID, lang)
		if err != nil {
			return nil, err
		}
		c.policy.Consume(state, now)
		if err := c.players.SaveGateState(state); err != nil {
			// Allowance not recorded: revoke the granted round rather
			// than burn a free play the player never received
			c.mu.Lock()
			delete(c.rounds, playerID)
			c.mu.Unlock()
			return nil, err
		}
		return result, nil
	}

	memo := fmt.Sprintf("Turtle Game Payment - %s", player.Username)
	invoice, paid, err := c.payments.Begin(ctx, c.priceSats, memo)
	if err != nil {
		return nil, err
	}
	if paid {
		return c.grantRound(playerID, lang)
	}

	c.mu.Lock()
	c.pending[playerID] = invoice
	c.mu.Unlock()

	return &StartResult{PaymentRequired: true, Invoice: invoice}, nil
}

// AwaitPayment waits on the player's pending invoice. On settlement the
// round is granted; on timeout or cancellation the attempt is abandoned
// and ErrPaymentNotReceived returned. The invoice itself stays valid
// upstream either way.
func (c *Controller) AwaitPayment(ctx context.Context, playerID, lang string) (*StartResult, error) {
	if !c.engine.HasLanguage(lang) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownLanguage, lang)
	}

	c.mu.Lock()
	invoice, ok := c.pending[playerID]
	if !ok {
		c.mu.Unlock()
		return nil, ErrNoPendingPayment
	}
	// Take ownership of the attempt before polling: a second wait finds
	// nothing pending, and a concurrent start sees the in-flight marker
	delete(c.pending, playerID)
	c.inflight[playerID] = struct{}{}
	c.mu.Unlock()
	defer c.release(playerID)

	paid := c.payments.AwaitPayment(ctx, invoice.PaymentHash)

	if !paid {
		invoice.Status = models.InvoiceExpired
		return nil, ErrPaymentNotReceived
	}

	invoice.Status = models.InvoicePaid
	return c.grantRound(playerID, lang)
}

// SubmitGuess applies one guess to the player's active round. A
// terminal outcome records stats and releases the round slot.
func (c *Controller) SubmitGuess(ctx context.Context, playerID, guess string) (*game.GuessOutcome, *models.GameRound, error) {
	c.mu.Lock()
	round, ok := c.rounds[playerID]
	c.mu.Unlock()
	if !ok {
		return nil, nil, ErrNoActiveRound
	}

	outcome, err := c.engine.SubmitGuess(round, guess)
	if err != nil {
		return nil, nil, err
	}

	if outcome.Accepted && round.IsOver() {
		c.recordOutcome(ctx, round)
		c.mu.Lock()
		delete(c.rounds, playerID)
		c.mu.Unlock()
	}

	return outcome, round, nil
}

// Languages lists the playable languages
func (c *Controller) Languages() []string {
	return c.engine.Languages()
}

// VerifyPlayToken validates a bearer play token and returns the player ID
func (c *Controller) VerifyPlayToken(token string) (string, error) {
	return c.tokens.Verify(token)
}

// release clears the player's in-flight marker
func (c *Controller) release(playerID string) {
	c.mu.Lock()
	delete(c.inflight, playerID)
	c.mu.Unlock()
}

func (c *Controller) grantRound(playerID, lang string) (*StartResult, error) {
	round, err := c.engine.NewRound(playerID, lang)
	if err != nil {
		return nil, err
	}

	token, err := c.tokens.Issue(playerID)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.rounds[playerID] = round
	c.mu.Unlock()

	return &StartResult{Round: round, PlayToken: token}, nil
}

// RecordReportedOutcome applies a round outcome reported by a client
// that keeps its own game loop (the update-stats contract)
func (c *Controller) RecordReportedOutcome(ctx context.Context, playerID string, won bool, guessNumber int) error {
	if _, err := c.players.GetPlayer(playerID); err != nil {
		return err
	}
	return c.applyOutcome(ctx, playerID, won, guessNumber)
}

// recordOutcome updates and persists the player's stats for a finished
// round. Persistence problems are logged; the finished round is already
// terminal either way.
func (c *Controller) recordOutcome(ctx context.Context, round *models.GameRound) {
	won := round.Outcome == models.RoundWon
	if err := c.applyOutcome(ctx, round.PlayerID, won, len(round.Guesses)); err != nil {
		log.Printf("Failed to record outcome for %s: %v", round.PlayerID, err)
	}
}

// applyOutcome runs the stats transitions for one finished round and
// persists them. Mirror failures never affect local state.
func (c *Controller) applyOutcome(ctx context.Context, playerID string, won bool, guessCount int) error {
	stats, err := c.players.GetStats(playerID)
	if err != nil {
		return err
	}

	stats.Played++
	if won {
		stats.Won++
		stats.CurrentStreak++
		if stats.CurrentStreak > stats.MaxStreak {
			stats.MaxStreak = stats.CurrentStreak
		}
	} else {
		stats.CurrentStreak = 0
	}

	if err := c.players.SaveStats(stats); err != nil {
		return err
	}
	if won {
		if err := c.players.IncrementGuessDistribution(playerID, guessCount); err != nil {
			log.Printf("Failed to record guess distribution for %s: %v", playerID, err)
		}
	}

	if err := c.mirror.ReportOutcome(ctx, playerID, won, guessCount); err != nil {
		log.Printf("Stats mirror update failed for %s (local stats kept): %v", playerID, err)
	}

	return nil
}
