package game

import (
	"os"
	"path/filepath"
	"testing"
)

func writeWordFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
}

func TestLoadWordLists(t *testing.T) {
	dir := t.TempDir()
	writeWordFile(t, dir, "english.txt", "crane\nrace\nlevel\n  abbey  \ntoolong\n\n")
	writeWordFile(t, dir, "spanish.txt", "gatos\nperro\n")
	writeWordFile(t, dir, "empty.txt", "cat\n")

	lists, err := LoadWordLists(dir)
	if err != nil {
		t.Fatalf("LoadWordLists() error = %v", err)
	}

	langs := lists.Languages()
	if len(langs) != 2 || langs[0] != "english" || langs[1] != "spanish" {
		t.Errorf("Languages() = %v, want [english spanish]", langs)
	}

	words, err := lists.Words("english")
	if err != nil {
		t.Fatalf("Words() error = %v", err)
	}
	// "race" too short, "toolong" too long, blank skipped
	if len(words) != 3 {
		t.Errorf("english words = %v, want 3 entries", words)
	}

	if !lists.Contains("english", "CRANE") {
		t.Error("CRANE missing from english list")
	}
	if !lists.Contains("english", "ABBEY") {
		t.Error("whitespace-trimmed ABBEY missing from english list")
	}
	if lists.Contains("english", "crane") {
		t.Error("Contains must match upper-cased entries only")
	}
	if lists.Contains("french", "CRANE") {
		t.Error("unknown language must not match")
	}

	if _, err := lists.Words("french"); err == nil {
		t.Error("expected error for missing language")
	}
}

func TestLoadWordListsEmptyDir(t *testing.T) {
	if _, err := LoadWordLists(t.TempDir()); err == nil {
		t.Error("expected error for directory with no word lists")
	}
}
