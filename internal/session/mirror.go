package session

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// StatsMirror posts outcomes to a remote stats/leaderboard service.
// Mirroring is best-effort: an unreachable service degrades to
// local-only stats and never blocks gameplay.
type StatsMirror struct {
	http *resty.Client
}

// NewStatsMirror creates a mirror client, or nil when no URL is
// configured (a nil mirror is safe to call)
func NewStatsMirror(baseURL string) *StatsMirror {
	if baseURL == "" {
		return nil
	}
	return &StatsMirror{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(5 * time.Second),
	}
}

// Register announces a player identifier for a chosen display name
func (m *StatsMirror) Register(ctx context.Context, playerID, username string) error {
	if m == nil {
		return nil
	}

	resp, err := m.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]string{"userId": playerID, "username": username}).
		Post("/api/auth")
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("stats mirror register returned status %d", resp.StatusCode())
	}
	return nil
}

// ReportOutcome posts one finished round keyed by player identifier
func (m *StatsMirror) ReportOutcome(ctx context.Context, playerID string, won bool, guessNumber int) error {
	if m == nil {
		return nil
	}

	resp, err := m.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]interface{}{
			"userId":      playerID,
			"won":         won,
			"guessNumber": guessNumber,
		}).
		Post("/api/update-stats")
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("stats mirror update returned status %d", resp.StatusCode())
	}
	return nil
}
