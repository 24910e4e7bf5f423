package session

import (
	"testing"
	"time"

	"turtleword/internal/models"
)

func TestDailyPolicy(t *testing.T) {
	policy := DailyPolicy{}
	state := &models.GateState{PlayerID: "p1"}
	day1 := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

	if !policy.IsOpen(state, day1) {
		t.Fatal("fresh state should be open")
	}

	policy.Consume(state, day1)

	if policy.IsOpen(state, day1) {
		t.Error("gate open twice on the same day")
	}
	if policy.IsOpen(state, day1.Add(5*time.Hour)) {
		t.Error("gate reopened later the same day")
	}

	day2 := day1.Add(24 * time.Hour)
	if !policy.IsOpen(state, day2) {
		t.Error("gate still closed after day rollover")
	}
}

func TestFreePlaysPolicy(t *testing.T) {
	policy := FreePlaysPolicy{Limit: 2}
	state := &models.GateState{PlayerID: "p1"}
	now := time.Now()

	for i := 0; i < 2; i++ {
		if !policy.IsOpen(state, now) {
			t.Fatalf("gate closed before play %d of 2", i+1)
		}
		policy.Consume(state, now)
	}

	if policy.IsOpen(state, now) {
		t.Error("gate open after free plays exhausted")
	}
	if policy.IsOpen(state, now.Add(48*time.Hour)) {
		t.Error("free-plays allowance must not reset over time")
	}
}

func TestNewPolicy(t *testing.T) {
	if _, err := NewPolicy("daily", 0); err != nil {
		t.Errorf("daily policy error = %v", err)
	}
	if _, err := NewPolicy("free-plays", 3); err != nil {
		t.Errorf("free-plays policy error = %v", err)
	}
	if _, err := NewPolicy("weekly", 0); err == nil {
		t.Error("expected error for unknown policy")
	}
}
