package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"turtleword/internal/database"
	"turtleword/internal/game"
	"turtleword/internal/lightning"
	"turtleword/internal/models"
	"turtleword/internal/payment"
	"turtleword/internal/repository"
	"turtleword/internal/session"
)

// fakeInvoiceService stands in for the provider client
type fakeInvoiceService struct {
	mu        sync.Mutex
	createErr error
	checkErr  error
	paid      bool
	created   int
}

func (f *fakeInvoiceService) CreateInvoice(ctx context.Context, amountSats int64, memo string) (*models.Invoice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created++
	return &models.Invoice{
		PaymentHash:    fmt.Sprintf("hash-%d", f.created),
		PaymentRequest: fmt.Sprintf("lnbc1fake%d", f.created),
		AmountSats:     amountSats,
		Memo:           memo,
		Status:         models.InvoicePending,
		CreatedAt:      time.Now(),
	}, nil
}

func (f *fakeInvoiceService) CheckInvoice(ctx context.Context, paymentHash string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.checkErr != nil {
		return false, f.checkErr
	}
	return f.paid, nil
}

// testServer wires the full router over a temp database, a single-word
// list and the fake provider
func testServer(t *testing.T, invoices *fakeInvoiceService, policy session.Policy) *httptest.Server {
	t.Helper()

	db, err := database.Initialize(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.RunMigrations(filepath.Join("..", "..", "migrations")))

	wordsDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(wordsDir, "english.txt"), []byte("crane\n"), 0644))
	words, err := game.LoadWordLists(wordsDir)
	require.NoError(t, err)

	players := repository.NewPlayerRepository(db)
	engine := game.NewEngine(words, nil)
	tokens := session.NewTokenIssuer("test-secret", time.Hour)
	orchestrator := payment.NewOrchestrator(invoices, payment.WalletUnavailable(), 5*time.Millisecond, 200*time.Millisecond)
	controller := session.NewController(engine, orchestrator, players, tokens, policy, nil, 100)

	router := NewRouter(
		NewInvoiceHandler(invoices),
		NewPlayerHandler(controller, players),
		NewSessionHandler(controller),
	)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server
}

func postJSON(t *testing.T, url string, payload interface{}, headers map[string]string) (*http.Response, map[string]interface{}) {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var decoded map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

func getJSON(t *testing.T, url string) (*http.Response, map[string]interface{}) {
	t.Helper()

	resp, err := http.Get(url)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var decoded map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

func authPlayer(t *testing.T, server *httptest.Server, username string) string {
	t.Helper()

	resp, body := postJSON(t, server.URL+"/api/auth", map[string]string{"username": username}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	userID, _ := body["userId"].(string)
	require.NotEmpty(t, userID)
	return userID
}

func TestCreateInvoiceEndpoint(t *testing.T) {
	invoices := &fakeInvoiceService{}
	server := testServer(t, invoices, session.DailyPolicy{})

	resp, body := postJSON(t, server.URL+"/api/create-invoice",
		map[string]interface{}{"amount": 100, "memo": "Turtle Game Payment - alice"}, nil)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "lnbc1fake1", body["paymentRequest"])
	assert.Equal(t, "hash-1", body["paymentHash"])
}

func TestCreateInvoiceMissingAmount(t *testing.T) {
	server := testServer(t, &fakeInvoiceService{}, session.DailyPolicy{})

	resp, body := postJSON(t, server.URL+"/api/create-invoice", map[string]interface{}{"memo": "x"}, nil)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Missing amount", body["error"])
}

func TestCreateInvoiceUpstreamFailure(t *testing.T) {
	invoices := &fakeInvoiceService{createErr: fmt.Errorf("%w: status 500", lightning.ErrUpstream)}
	server := testServer(t, invoices, session.DailyPolicy{})

	resp, body := postJSON(t, server.URL+"/api/create-invoice", map[string]interface{}{"amount": 100}, nil)

	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, ErrPaymentFailed, body["error"])
}

func TestCheckInvoiceEndpoint(t *testing.T) {
	invoices := &fakeInvoiceService{paid: true}
	server := testServer(t, invoices, session.DailyPolicy{})

	resp, body := getJSON(t, server.URL+"/api/check-invoice?paymentHash=hash-1")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["paid"])

	resp, body = getJSON(t, server.URL+"/api/check-invoice")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Missing paymentHash", body["error"])
}

func TestCheckInvoiceNotFound(t *testing.T) {
	invoices := &fakeInvoiceService{checkErr: fmt.Errorf("%w: payment hash nope", lightning.ErrNotFound)}
	server := testServer(t, invoices, session.DailyPolicy{})

	resp, _ := getJSON(t, server.URL+"/api/check-invoice?paymentHash=nope")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestInvoiceQREndpoint(t *testing.T) {
	server := testServer(t, &fakeInvoiceService{}, session.DailyPolicy{})

	resp, err := http.Get(server.URL + "/api/invoice-qr?paymentRequest=lnbc1fake1")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))

	resp, err = http.Get(server.URL + "/api/invoice-qr")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAuthEndpoint(t *testing.T) {
	server := testServer(t, &fakeInvoiceService{}, session.DailyPolicy{})

	userID := authPlayer(t, server, "turtle_fan")

	// Same username resolves to the same player
	resp, body := postJSON(t, server.URL+"/api/auth", map[string]string{"username": "turtle_fan"}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, userID, body["userId"])

	resp, _ = postJSON(t, server.URL+"/api/auth", map[string]string{}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetUserEndpoint(t *testing.T) {
	server := testServer(t, &fakeInvoiceService{}, session.DailyPolicy{})
	userID := authPlayer(t, server, "turtle_fan")

	resp, body := getJSON(t, server.URL+"/api/user/"+userID)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "turtle_fan", body["username"])

	stats, ok := body["stats"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(0), stats["played"])

	resp, _ = getJSON(t, server.URL+"/api/user/missing-id")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUpdateStatsEndpoint(t *testing.T) {
	server := testServer(t, &fakeInvoiceService{}, session.DailyPolicy{})
	userID := authPlayer(t, server, "turtle_fan")

	resp, body := postJSON(t, server.URL+"/api/update-stats",
		map[string]interface{}{"userId": userID, "won": true, "guessNumber": 3}, nil)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	stats, ok := body["stats"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(1), stats["played"])
	assert.Equal(t, float64(1), stats["won"])
	assert.Equal(t, float64(1), stats["current_streak"])

	resp, _ = postJSON(t, server.URL+"/api/update-stats",
		map[string]interface{}{"userId": "missing-id", "won": true, "guessNumber": 3}, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestLeaderboardEndpoint(t *testing.T) {
	server := testServer(t, &fakeInvoiceService{}, session.DailyPolicy{})
	userID := authPlayer(t, server, "turtle_fan")

	_, _ = postJSON(t, server.URL+"/api/update-stats",
		map[string]interface{}{"userId": userID, "won": true, "guessNumber": 2}, nil)

	resp, body := getJSON(t, server.URL+"/api/leaderboard")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	entries, ok := body["leaderboard"].([]interface{})
	require.True(t, ok)
	require.Len(t, entries, 1)
	entry := entries[0].(map[string]interface{})
	assert.Equal(t, "turtle_fan", entry["username"])
	assert.Equal(t, float64(1), entry["won"])
}

func TestLanguagesEndpoint(t *testing.T) {
	server := testServer(t, &fakeInvoiceService{}, session.DailyPolicy{})

	resp, body := getJSON(t, server.URL+"/api/languages")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []interface{}{"english"}, body["languages"])
}

func TestSessionFreePlayAndGuess(t *testing.T) {
	server := testServer(t, &fakeInvoiceService{}, session.DailyPolicy{})
	userID := authPlayer(t, server, "turtle_fan")

	resp, body := postJSON(t, server.URL+"/api/session/start",
		map[string]string{"userId": userID, "language": "english"}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	token, _ := body["playToken"].(string)
	require.NotEmpty(t, token)
	round, ok := body["round"].(map[string]interface{})
	require.True(t, ok)
	assert.Empty(t, round["targetWord"], "target word must stay hidden while the round runs")

	// The only word in the list is CRANE, so one guess wins
	auth := map[string]string{"Authorization": "Bearer " + token}
	resp, body = postJSON(t, server.URL+"/api/session/guess", map[string]string{"guess": "crane"}, auth)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["accepted"])
	assert.Equal(t, "won", body["outcome"])

	round, ok = body["round"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "CRANE", round["targetWord"], "finished rounds reveal the target word")

	// Stats recorded server-side
	resp, body = getJSON(t, server.URL+"/api/user/"+userID)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	stats := body["stats"].(map[string]interface{})
	assert.Equal(t, float64(1), stats["won"])
}

func TestSessionGuessRejectedInput(t *testing.T) {
	server := testServer(t, &fakeInvoiceService{}, session.DailyPolicy{})
	userID := authPlayer(t, server, "turtle_fan")

	resp, body := postJSON(t, server.URL+"/api/session/start",
		map[string]string{"userId": userID, "language": "english"}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	token := body["playToken"].(string)

	auth := map[string]string{"Authorization": "Bearer " + token}
	resp, body = postJSON(t, server.URL+"/api/session/guess", map[string]string{"guess": "cat"}, auth)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, body["accepted"])
	assert.Equal(t, "Not enough letters", body["message"])
}

func TestSessionGuessRequiresToken(t *testing.T) {
	server := testServer(t, &fakeInvoiceService{}, session.DailyPolicy{})

	resp, _ := postJSON(t, server.URL+"/api/session/guess", map[string]string{"guess": "crane"}, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = postJSON(t, server.URL+"/api/session/guess", map[string]string{"guess": "crane"},
		map[string]string{"Authorization": "Bearer not-a-token"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestSessionPaymentRequiredFlow(t *testing.T) {
	invoices := &fakeInvoiceService{paid: true}
	server := testServer(t, invoices, session.FreePlaysPolicy{Limit: 0})
	userID := authPlayer(t, server, "turtle_fan")

	// Gate closed: starting answers 402 with the invoice
	resp, body := postJSON(t, server.URL+"/api/session/start",
		map[string]string{"userId": userID, "language": "english"}, nil)
	require.Equal(t, http.StatusPaymentRequired, resp.StatusCode)
	assert.Equal(t, true, body["paymentRequired"])
	assert.Equal(t, "lnbc1fake1", body["paymentRequest"])
	assert.Equal(t, "hash-1", body["paymentHash"])

	// Settlement grants the round
	resp, body = postJSON(t, server.URL+"/api/session/await-payment",
		map[string]string{"userId": userID, "language": "english"}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, body["playToken"])
	assert.NotNil(t, body["round"])
}

func TestSessionAwaitPaymentExpiry(t *testing.T) {
	invoices := &fakeInvoiceService{paid: false}
	server := testServer(t, invoices, session.FreePlaysPolicy{Limit: 0})
	userID := authPlayer(t, server, "turtle_fan")

	resp, _ := postJSON(t, server.URL+"/api/session/start",
		map[string]string{"userId": userID, "language": "english"}, nil)
	require.Equal(t, http.StatusPaymentRequired, resp.StatusCode)

	resp, body := postJSON(t, server.URL+"/api/session/await-payment",
		map[string]string{"userId": userID, "language": "english"}, nil)
	assert.Equal(t, http.StatusPaymentRequired, resp.StatusCode)
	assert.Equal(t, "Payment not received", body["error"])

	// The attempt is cleared; waiting again is a conflict
	resp, _ = postJSON(t, server.URL+"/api/session/await-payment",
		map[string]string{"userId": userID, "language": "english"}, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestSessionStartErrors(t *testing.T) {
	server := testServer(t, &fakeInvoiceService{}, session.DailyPolicy{})
	userID := authPlayer(t, server, "turtle_fan")

	resp, _ := postJSON(t, server.URL+"/api/session/start",
		map[string]string{"userId": "missing-id", "language": "english"}, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = postJSON(t, server.URL+"/api/session/start",
		map[string]string{"userId": userID, "language": "klingon"}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	_, _ = postJSON(t, server.URL+"/api/session/start",
		map[string]string{"userId": userID, "language": "english"}, nil)
	resp, _ = postJSON(t, server.URL+"/api/session/start",
		map[string]string{"userId": userID, "language": "english"}, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestSessionStartPaymentFailure(t *testing.T) {
	invoices := &fakeInvoiceService{createErr: errors.New("provider down")}
	server := testServer(t, invoices, session.FreePlaysPolicy{Limit: 0})
	userID := authPlayer(t, server, "turtle_fan")

	resp, body := postJSON(t, server.URL+"/api/session/start",
		map[string]string{"userId": userID, "language": "english"}, nil)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, ErrPaymentFailed, body["error"])
}
