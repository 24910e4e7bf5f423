package game

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"turtleword/internal/models"
)

// WordLists holds the playable words per language, loaded once at
// startup from newline-delimited text files (one file per language).
type WordLists struct {
	byLang map[string][]string
	sets   map[string]map[string]struct{}
}

// LoadWordLists reads every *.txt file in dir. The file base name is the
// language name; entries are trimmed, filtered to the fixed word length
// and upper-cased.
func LoadWordLists(dir string) (*WordLists, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.txt"))
	if err != nil {
		return nil, fmt.Errorf("failed to scan words directory: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no word lists found in %s", dir)
	}

	lists := &WordLists{
		byLang: make(map[string][]string),
		sets:   make(map[string]map[string]struct{}),
	}

	for _, file := range files {
		lang := strings.TrimSuffix(filepath.Base(file), ".txt")
		words, err := loadWordFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to load word list %s: %w", lang, err)
		}
		if len(words) == 0 {
			continue
		}

		set := make(map[string]struct{}, len(words))
		for _, w := range words {
			set[w] = struct{}{}
		}
		lists.byLang[lang] = words
		lists.sets[lang] = set
	}

	if len(lists.byLang) == 0 {
		return nil, fmt.Errorf("no usable words of length %d in %s", models.WordLength, dir)
	}

	return lists, nil
}

func loadWordFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var words []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		word := strings.TrimSpace(scanner.Text())
		if utf8.RuneCountInString(word) != models.WordLength {
			continue
		}
		words = append(words, strings.ToUpper(word))
	}
	return words, scanner.Err()
}

// Languages returns the loaded language names, sorted
func (w *WordLists) Languages() []string {
	langs := make([]string, 0, len(w.byLang))
	for lang := range w.byLang {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}

// Words returns the word list for a language
func (w *WordLists) Words(lang string) ([]string, error) {
	words, ok := w.byLang[lang]
	if !ok {
		return nil, fmt.Errorf("no word list for language %q", lang)
	}
	return words, nil
}

// Contains reports whether word is a recognized word for the language.
// The word must already be upper-cased.
func (w *WordLists) Contains(lang, word string) bool {
	set, ok := w.sets[lang]
	if !ok {
		return false
	}
	_, found := set[word]
	return found
}
