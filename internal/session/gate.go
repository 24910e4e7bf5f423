package session

import (
	"fmt"
	"time"

	"turtleword/internal/models"
)

const dateLayout = "2006-01-02"

// Policy decides whether a player may start a game without paying, and
// records that the allowance was used
type Policy interface {
	// IsOpen returns true iff the free-play allowance is unexhausted
	IsOpen(state *models.GateState, now time.Time) bool

	// Consume marks the allowance as used for the current period
	Consume(state *models.GateState, now time.Time)
}

// DailyPolicy grants one free game per calendar day
type DailyPolicy struct{}

func (DailyPolicy) IsOpen(state *models.GateState, now time.Time) bool {
	return state.LastPlayedDate != now.Format(dateLayout)
}

func (DailyPolicy) Consume(state *models.GateState, now time.Time) {
	state.LastPlayedDate = now.Format(dateLayout)
	state.PlaysUsed++
}

// FreePlaysPolicy grants the first Limit games free, ever
type FreePlaysPolicy struct {
	Limit int
}

func (p FreePlaysPolicy) IsOpen(state *models.GateState, now time.Time) bool {
	return state.PlaysUsed < p.Limit
}

func (p FreePlaysPolicy) Consume(state *models.GateState, now time.Time) {
	state.PlaysUsed++
	state.LastPlayedDate = now.Format(dateLayout)
}

// NewPolicy builds the configured gate policy
func NewPolicy(name string, freePlays int) (Policy, error) {
	switch name {
	case "daily":
		return DailyPolicy{}, nil
	case "free-plays":
		return FreePlaysPolicy{Limit: freePlays}, nil
	default:
		return nil, fmt.Errorf("unknown gate policy: %s", name)
	}
}
