package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"turtleword/internal/database"
	"turtleword/internal/models"
)

// ErrPlayerNotFound is returned when no player matches the identifier
var ErrPlayerNotFound = errors.New("player not found")

// PlayerRepository handles player, stats and gate-state database operations
type PlayerRepository struct {
	db *database.DB
}

// NewPlayerRepository creates a new player repository
func NewPlayerRepository(db *database.DB) *PlayerRepository {
	return &PlayerRepository{db: db}
}

// CreatePlayer registers a display name under a fresh server-issued ID
func (r *PlayerRepository) CreatePlayer(username string) (*models.Player, error) {
	id := uuid.New().String()

	_, err := r.db.Exec("INSERT INTO players (id, username) VALUES (?, ?)", id, username)
	if err != nil {
		return nil, fmt.Errorf("failed to create player: %w", err)
	}

	return r.GetPlayer(id)
}

// GetPlayer retrieves a player by ID
func (r *PlayerRepository) GetPlayer(id string) (*models.Player, error) {
	player := &models.Player{}
	err := r.db.QueryRow(
		"SELECT id, username, created_at FROM players WHERE id = ?", id,
	).Scan(&player.ID, &player.Username, &player.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPlayerNotFound
	}
	if err != nil {
		return nil, err
	}
	return player, nil
}

// GetPlayerByUsername retrieves a player by display name
func (r *PlayerRepository) GetPlayerByUsername(username string) (*models.Player, error) {
	player := &models.Player{}
	err := r.db.QueryRow(
		"SELECT id, username, created_at FROM players WHERE username = ?", username,
	).Scan(&player.ID, &player.Username, &player.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPlayerNotFound
	}
	if err != nil {
		return nil, err
	}
	return player, nil
}

// GetStats returns the player's aggregate stats, zero-valued for a
// player who has not finished a game yet
func (r *PlayerRepository) GetStats(playerID string) (*models.PlayerStats, error) {
	stats := &models.PlayerStats{PlayerID: playerID}

	err := r.db.QueryRow(`
		SELECT played, won, current_streak, max_streak
		FROM player_stats
		WHERE player_id = ?
	`, playerID).Scan(&stats.Played, &stats.Won, &stats.CurrentStreak, &stats.MaxStreak)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	rows, err := r.db.Query(`
		SELECT guess_count, games
		FROM guess_distribution
		WHERE player_id = ?
	`, playerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var guessCount, games int
		if err := rows.Scan(&guessCount, &games); err != nil {
			return nil, err
		}
		if stats.GuessDistribution == nil {
			stats.GuessDistribution = make(map[int]int)
		}
		stats.GuessDistribution[guessCount] = games
	}

	return stats, rows.Err()
}

// SaveStats writes the aggregate counters, inserting or updating as needed
func (r *PlayerRepository) SaveStats(stats *models.PlayerStats) error {
	_, err := r.db.Exec(r.db.Dialect.UpsertStats(),
		stats.PlayerID, stats.Played, stats.Won, stats.CurrentStreak, stats.MaxStreak)
	return err
}

// IncrementGuessDistribution records one more win at the given guess count
func (r *PlayerRepository) IncrementGuessDistribution(playerID string, guessCount int) error {
	result, err := r.db.Exec(`
		UPDATE guess_distribution SET games = games + 1
		WHERE player_id = ? AND guess_count = ?
	`, playerID, guessCount)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		_, err = r.db.Exec(`
			INSERT INTO guess_distribution (player_id, guess_count, games)
			VALUES (?, ?, 1)
		`, playerID, guessCount)
	}
	return err
}

// GetGateState returns the free-play markers for a player, zero-valued
// when the player has never consumed an allowance
func (r *PlayerRepository) GetGateState(playerID string) (*models.GateState, error) {
	state := &models.GateState{PlayerID: playerID}

	err := r.db.QueryRow(`
		SELECT last_played_date, plays_used
		FROM gate_state
		WHERE player_id = ?
	`, playerID).Scan(&state.LastPlayedDate, &state.PlaysUsed)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	return state, nil
}

// SaveGateState writes the free-play markers, inserting or updating as needed
func (r *PlayerRepository) SaveGateState(state *models.GateState) error {
	_, err := r.db.Exec(r.db.Dialect.UpsertGateState(),
		state.PlayerID, state.LastPlayedDate, state.PlaysUsed)
	return err
}

// Leaderboard returns up to limit players ranked by wins, then win rate
// (the display ordering the stats page uses)
func (r *PlayerRepository) Leaderboard(limit int) ([]models.LeaderboardEntry, error) {
	rows, err := r.db.Query(`
		SELECT p.username, s.won, s.max_streak,
		       CASE WHEN s.played > 0 THEN s.won * 100 / s.played ELSE 0 END AS win_rate
		FROM player_stats s
		JOIN players p ON p.id = s.player_id
		WHERE s.played > 0
		ORDER BY s.won DESC, win_rate DESC, p.username ASC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.LeaderboardEntry
	for rows.Next() {
		var e models.LeaderboardEntry
		if err := rows.Scan(&e.Username, &e.Won, &e.MaxStreak, &e.WinRate); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}
