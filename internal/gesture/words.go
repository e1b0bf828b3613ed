package gesture

import "fmt"

// WordMapping maps gesture labels to display words. It is immutable once built.
type WordMapping struct {
	words map[Label]string
}

// DefaultWords returns the built-in mapping.
func DefaultWords() WordMapping {
	return WordMapping{words: map[Label]string{
		Fist:       "NO",
		Open:       "HELLO",
		ThumbsUp:   "YES",
		ThumbsDown: "BAD",
		Victory:    "PEACE",
		ILoveYou:   "I LOVE YOU",
	}}
}

// NewWordMapping builds a mapping from label strings to words. Labels missing
// from table keep their default word; unknown labels and empty words are rejected.
func NewWordMapping(table map[string]string) (WordMapping, error) {
	m := DefaultWords()
	for key, word := range table {
		label := Label(key)
		if !label.Valid() {
			return WordMapping{}, fmt.Errorf("unknown gesture label %q", key)
		}
		if word == "" {
			return WordMapping{}, fmt.Errorf("empty word for gesture %q", key)
		}
		m.words[label] = word
	}
	return m, nil
}

// Word returns the word for label, or the empty string for an unknown label.
func (m WordMapping) Word(label Label) string {
	return m.words[label]
}

// Table returns a copy of the mapping keyed by label string.
func (m WordMapping) Table() map[string]string {
	table := make(map[string]string, len(m.words))
	for label, word := range m.words {
		table[string(label)] = word
	}
	return table
}
