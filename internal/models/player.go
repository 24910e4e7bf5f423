package models

import "time"

// Player represents a registered player identified by a server-issued ID
type Player struct {
	ID        string
	Username  string
	CreatedAt time.Time
}

// PlayerStats tracks aggregate game results for one player
type PlayerStats struct {
	PlayerID          string      `json:"-"`
	Played            int         `json:"played"`
	Won               int         `json:"won"`
	CurrentStreak     int         `json:"current_streak"`
	MaxStreak         int         `json:"max_streak"`
	GuessDistribution map[int]int `json:"guess_distribution,omitempty"`
}

// WinRate returns the win percentage rounded down, 0 for a fresh player
func (s *PlayerStats) WinRate() int {
	if s.Played == 0 {
		return 0
	}
	return s.Won * 100 / s.Played
}

// GateState holds the free-play allowance markers for one player.
// LastPlayedDate is a calendar date in YYYY-MM-DD form for the daily
// policy; PlaysUsed counts lifetime free games for the free-plays policy.
type GateState struct {
	PlayerID       string
	LastPlayedDate string
	PlaysUsed      int
}

// LeaderboardEntry is one ranked row of the leaderboard
type LeaderboardEntry struct {
	Username  string `json:"username"`
	Won       int    `json:"won"`
	MaxStreak int    `json:"max_streak"`
	WinRate   int    `json:"win_rate"`
}
