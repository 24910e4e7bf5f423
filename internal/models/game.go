package models

import "time"

// Game board dimensions, shared by the engine and the HTTP layer
const (
	WordLength = 5
	MaxGuesses = 6
)

// LetterState classifies a guessed letter against the target word
type LetterState string

const (
	LetterAbsent  LetterState = "absent"
	LetterPresent LetterState = "present"
	LetterCorrect LetterState = "correct"
)

// letterStateRank orders states so the keyboard map never regresses:
// correct beats present beats absent
var letterStateRank = map[LetterState]int{
	LetterAbsent:  0,
	LetterPresent: 1,
	LetterCorrect: 2,
}

// Beats returns true if s is a strictly better classification than other
func (s LetterState) Beats(other LetterState) bool {
	return letterStateRank[s] > letterStateRank[other]
}

// GuessResult is the per-position classification of a submitted guess
type GuessResult struct {
	Letter string      `json:"letter"`
	State  LetterState `json:"state"`
}

// RoundOutcome represents the lifecycle state of a game round
type RoundOutcome string

const (
	RoundInProgress RoundOutcome = "in_progress"
	RoundWon        RoundOutcome = "won"
	RoundLost       RoundOutcome = "lost"
)

// GameRound is a single word-guessing round for one player. Created at
// round start, mutated by each submitted guess, terminal on won/lost.
type GameRound struct {
	ID           string
	PlayerID     string
	Language     string
	TargetWord   string
	Guesses      []string
	LetterStates map[string]LetterState
	Outcome      RoundOutcome
	StartedAt    time.Time
}

// IsOver returns true once the round reached a terminal outcome
func (r *GameRound) IsOver() bool {
	return r.Outcome == RoundWon || r.Outcome == RoundLost
}

// MergeLetterState records a classification for a letter without ever
// downgrading a previously known better one
func (r *GameRound) MergeLetterState(letter string, state LetterState) {
	if current, ok := r.LetterStates[letter]; ok && !state.Beats(current) {
		return
	}
	r.LetterStates[letter] = state
}
