package repository

import (
	"path/filepath"
	"testing"

	"turtleword/internal/database"
	"turtleword/internal/models"
)

func testDB(t *testing.T) *database.DB {
	t.Helper()

	db, err := database.Initialize(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.RunMigrations(filepath.Join("..", "..", "migrations")); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

func TestCreateAndGetPlayer(t *testing.T) {
	repo := NewPlayerRepository(testDB(t))

	player, err := repo.CreatePlayer("turtle_fan")
	if err != nil {
		t.Fatalf("CreatePlayer() error = %v", err)
	}
	if player.ID == "" {
		t.Error("player ID is empty")
	}
	if player.Username != "turtle_fan" {
		t.Errorf("username = %q, want turtle_fan", player.Username)
	}

	got, err := repo.GetPlayer(player.ID)
	if err != nil {
		t.Fatalf("GetPlayer() error = %v", err)
	}
	if got.Username != "turtle_fan" {
		t.Errorf("looked-up username = %q", got.Username)
	}

	byName, err := repo.GetPlayerByUsername("turtle_fan")
	if err != nil {
		t.Fatalf("GetPlayerByUsername() error = %v", err)
	}
	if byName.ID != player.ID {
		t.Errorf("lookup by name returned ID %q, want %q", byName.ID, player.ID)
	}
}

func TestGetPlayerNotFound(t *testing.T) {
	repo := NewPlayerRepository(testDB(t))

	if _, err := repo.GetPlayer("nope"); err != ErrPlayerNotFound {
		t.Errorf("GetPlayer() error = %v, want ErrPlayerNotFound", err)
	}
	if _, err := repo.GetPlayerByUsername("nobody"); err != ErrPlayerNotFound {
		t.Errorf("GetPlayerByUsername() error = %v, want ErrPlayerNotFound", err)
	}
}

func TestDuplicateUsernameRejected(t *testing.T) {
	repo := NewPlayerRepository(testDB(t))

	if _, err := repo.CreatePlayer("dupe"); err != nil {
		t.Fatalf("CreatePlayer() error = %v", err)
	}
	if _, err := repo.CreatePlayer("dupe"); err == nil {
		t.Error("duplicate username was accepted")
	}
}

func TestStatsRoundTrip(t *testing.T) {
	repo := NewPlayerRepository(testDB(t))

	player, err := repo.CreatePlayer("statsy")
	if err != nil {
		t.Fatalf("CreatePlayer() error = %v", err)
	}

	// Fresh player has zero stats
	stats, err := repo.GetStats(player.ID)
	if err != nil {
		t.Fatalf("GetStats() error = %v", err)
	}
	if stats.Played != 0 || stats.Won != 0 {
		t.Errorf("fresh stats = %+v, want zeros", stats)
	}

	stats.Played = 3
	stats.Won = 2
	stats.CurrentStreak = 2
	stats.MaxStreak = 2
	if err := repo.SaveStats(stats); err != nil {
		t.Fatalf("SaveStats() insert error = %v", err)
	}

	// Upsert path: update the same row
	stats.Played = 4
	stats.CurrentStreak = 0
	if err := repo.SaveStats(stats); err != nil {
		t.Fatalf("SaveStats() update error = %v", err)
	}

	if err := repo.IncrementGuessDistribution(player.ID, 3); err != nil {
		t.Fatalf("IncrementGuessDistribution() error = %v", err)
	}
	if err := repo.IncrementGuessDistribution(player.ID, 3); err != nil {
		t.Fatalf("IncrementGuessDistribution() error = %v", err)
	}
	if err := repo.IncrementGuessDistribution(player.ID, 5); err != nil {
		t.Fatalf("IncrementGuessDistribution() error = %v", err)
	}

	got, err := repo.GetStats(player.ID)
	if err != nil {
		t.Fatalf("GetStats() error = %v", err)
	}
	if got.Played != 4 || got.Won != 2 || got.CurrentStreak != 0 || got.MaxStreak != 2 {
		t.Errorf("stats after upsert = %+v", got)
	}
	if got.GuessDistribution[3] != 2 || got.GuessDistribution[5] != 1 {
		t.Errorf("guess distribution = %v", got.GuessDistribution)
	}
}

func TestGateStateRoundTrip(t *testing.T) {
	repo := NewPlayerRepository(testDB(t))

	player, err := repo.CreatePlayer("gated")
	if err != nil {
		t.Fatalf("CreatePlayer() error = %v", err)
	}

	state, err := repo.GetGateState(player.ID)
	if err != nil {
		t.Fatalf("GetGateState() error = %v", err)
	}
	if state.LastPlayedDate != "" || state.PlaysUsed != 0 {
		t.Errorf("fresh gate state = %+v, want zeros", state)
	}

	state.LastPlayedDate = "2024-06-01"
	state.PlaysUsed = 1
	if err := repo.SaveGateState(state); err != nil {
		t.Fatalf("SaveGateState() insert error = %v", err)
	}

	state.PlaysUsed = 2
	if err := repo.SaveGateState(state); err != nil {
		t.Fatalf("SaveGateState() update error = %v", err)
	}

	got, err := repo.GetGateState(player.ID)
	if err != nil {
		t.Fatalf("GetGateState() error = %v", err)
	}
	if got.LastPlayedDate != "2024-06-01" || got.PlaysUsed != 2 {
		t.Errorf("gate state = %+v", got)
	}
}

func TestLeaderboardRanking(t *testing.T) {
	repo := NewPlayerRepository(testDB(t))

	seed := []struct {
		username string
		played   int
		won      int
		streak   int
	}{
		{"alice", 10, 8, 5},
		{"bob", 10, 8, 3}, // same wins as alice, same rate
		{"carol", 20, 9, 2},
		{"dave", 5, 0, 0},
		{"erin", 0, 0, 0}, // never played, excluded
	}

	for _, s := range seed {
		player, err := repo.CreatePlayer(s.username)
		if err != nil {
			t.Fatalf("CreatePlayer(%s) error = %v", s.username, err)
		}
		if s.played == 0 {
			continue
		}
		err = repo.SaveStats(&models.PlayerStats{
			PlayerID:      player.ID,
			Played:        s.played,
			Won:           s.won,
			CurrentStreak: s.streak,
			MaxStreak:     s.streak,
		})
		if err != nil {
			t.Fatalf("SaveStats(%s) error = %v", s.username, err)
		}
	}

	entries, err := repo.Leaderboard(10)
	if err != nil {
		t.Fatalf("Leaderboard() error = %v", err)
	}

	want := []string{"carol", "alice", "bob", "dave"}
	if len(entries) != len(want) {
		t.Fatalf("leaderboard has %d entries, want %d: %+v", len(entries), len(want), entries)
	}
	for i, username := range want {
		if entries[i].Username != username {
			t.Errorf("rank %d = %s, want %s", i+1, entries[i].Username, username)
		}
	}

	if entries[0].WinRate != 45 {
		t.Errorf("carol win rate = %d, want 45", entries[0].WinRate)
	}
}
