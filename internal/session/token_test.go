package session

import (
	"testing"
	"time"
)

func TestPlayTokenRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)

	token, err := issuer.Issue("player-123")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	playerID, err := issuer.Verify(token)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if playerID != "player-123" {
		t.Errorf("Verify() = %q, want player-123", playerID)
	}
}

func TestPlayTokenWrongSecret(t *testing.T) {
	token, err := NewTokenIssuer("secret-a", time.Hour).Issue("player-123")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	if _, err := NewTokenIssuer("secret-b", time.Hour).Verify(token); err == nil {
		t.Error("token verified with wrong secret")
	}
}

func TestPlayTokenExpiry(t *testing.T) {
	token, err := NewTokenIssuer("test-secret", -time.Minute).Issue("player-123")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	if _, err := NewTokenIssuer("test-secret", -time.Minute).Verify(token); err == nil {
		t.Error("expired token verified")
	}
}

func TestPlayTokenGarbage(t *testing.T) {
	if _, err := NewTokenIssuer("test-secret", time.Hour).Verify("not-a-token"); err == nil {
		t.Error("garbage token verified")
	}
}
