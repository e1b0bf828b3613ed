package store

import (
	"database/sql"
	"time"
)

// WordRepository stores the gesture label to word mapping.
type WordRepository struct {
	db *sql.DB
}

// Words returns the word repository for this store.
func (s *Store) Words() *WordRepository {
	return &WordRepository{db: s.db}
}

// Seed inserts every label in defaults that has no stored word yet.
// Existing words are left untouched.
func (r *WordRepository) Seed(defaults map[string]string) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := toMillis(time.Now())
	for label, word := range defaults {
		if _, err := tx.Exec(
			`INSERT OR IGNORE INTO words (label, word, updated_at) VALUES (?, ?, ?)`,
			label, word, now,
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// Set stores the word for label.
func (r *WordRepository) Set(label, word string) error {
	_, err := r.db.Exec(
		`INSERT INTO words (label, word, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(label) DO UPDATE SET word = excluded.word, updated_at = excluded.updated_at`,
		label, word, toMillis(time.Now()),
	)
	return err
}

// Map returns every stored label and word.
func (r *WordRepository) Map() (map[string]string, error) {
	rows, err := r.db.Query(`SELECT label, word FROM words`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	words := make(map[string]string)
	for rows.Next() {
		var label, word string
		if err := rows.Scan(&label, &word); err != nil {
			return nil, err
		}
		words[label] = word
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return words, nil
}
