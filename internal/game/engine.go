package game

import (
	"errors"
	"math/rand"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"turtleword/internal/models"
)

// ErrRoundOver is returned when a guess is submitted after the round
// reached a terminal outcome
var ErrRoundOver = errors.New("round is already over")

// GuessOutcome reports what happened to a submitted guess. A rejected
// guess (wrong length, unknown word) is not an error: Accepted is false
// and Message carries the user-facing validation text.
type GuessOutcome struct {
	Accepted bool
	Message  string
	Results  []models.GuessResult
	Outcome  models.RoundOutcome
}

// Engine runs word-guessing rounds. It owns no persistent state; rounds
// are created here and tracked by the session controller.
type Engine struct {
	words           *WordLists
	dictionaryCheck func(lang string) bool
}

// NewEngine creates a game engine. dictionaryCheck decides per language
// whether guesses must appear in the word list.
func NewEngine(words *WordLists, dictionaryCheck func(lang string) bool) *Engine {
	if dictionaryCheck == nil {
		dictionaryCheck = func(string) bool { return false }
	}
	return &Engine{words: words, dictionaryCheck: dictionaryCheck}
}

// Languages returns the languages with a loaded word list
func (e *Engine) Languages() []string {
	return e.words.Languages()
}

// HasLanguage reports whether a word list is loaded for the language
func (e *Engine) HasLanguage(lang string) bool {
	_, err := e.words.Words(lang)
	return err == nil
}

// NewRound starts a round with a uniformly random target word from the
// language's list
func (e *Engine) NewRound(playerID, lang string) (*models.GameRound, error) {
	words, err := e.words.Words(lang)
	if err != nil {
		return nil, err
	}

	return &models.GameRound{
		ID:           uuid.New().String(),
		PlayerID:     playerID,
		Language:     lang,
		TargetWord:   words[rand.Intn(len(words))],
		Guesses:      []string{},
		LetterStates: make(map[string]models.LetterState),
		Outcome:      models.RoundInProgress,
		StartedAt:    time.Now(),
	}, nil
}

// SubmitGuess validates and classifies one guess against the round's
// target word, updating the round in place. No guesses are accepted
// after a terminal outcome.
func (e *Engine) SubmitGuess(round *models.GameRound, guess string) (*GuessOutcome, error) {
	if round.IsOver() {
		return nil, ErrRoundOver
	}

	guess = strings.ToUpper(strings.TrimSpace(guess))

	if utf8.RuneCountInString(guess) != models.WordLength {
		return &GuessOutcome{Message: "Not enough letters", Outcome: round.Outcome}, nil
	}
	if e.dictionaryCheck(round.Language) && !e.words.Contains(round.Language, guess) {
		return &GuessOutcome{Message: "Word not in dictionary", Outcome: round.Outcome}, nil
	}

	results := Classify(round.TargetWord, guess)
	round.Guesses = append(round.Guesses, guess)
	for _, r := range results {
		round.MergeLetterState(r.Letter, r.State)
	}

	switch {
	case guess == round.TargetWord:
		round.Outcome = models.RoundWon
	case len(round.Guesses) >= models.MaxGuesses:
		round.Outcome = models.RoundLost
	}

	return &GuessOutcome{
		Accepted: true,
		Results:  results,
		Outcome:  round.Outcome,
	}, nil
}

// Classify scores a guess against a target word in two passes. Pass one
// marks exact-position matches correct and consumes that target letter.
// Pass two walks the remaining positions left to right, marking a letter
// present only while unconsumed occurrences remain in the target, so
// each target letter satisfies at most one guess position.
func Classify(target, guess string) []models.GuessResult {
	targetRunes := []rune(target)
	guessRunes := []rune(guess)

	results := make([]models.GuessResult, len(guessRunes))
	consumed := make([]bool, len(targetRunes))

	for i, r := range guessRunes {
		results[i] = models.GuessResult{Letter: string(r), State: models.LetterAbsent}
		if i < len(targetRunes) && targetRunes[i] == r {
			results[i].State = models.LetterCorrect
			consumed[i] = true
		}
	}

	for i, r := range guessRunes {
		if results[i].State == models.LetterCorrect {
			continue
		}
		for j, t := range targetRunes {
			if !consumed[j] && t == r {
				results[i].State = models.LetterPresent
				consumed[j] = true
				break
			}
		}
	}

	return results
}
