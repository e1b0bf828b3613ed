package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// DefaultHistoryLimit caps List when no positive limit is given.
const DefaultHistoryLimit = 50

// Recognition is one emitted word and its translation.
type Recognition struct {
	ID          string
	Label       string
	Word        string
	Translation string
	Language    string
	Backend     string
	CreatedAt   time.Time
}

// RecognitionRepository stores recognition history.
type RecognitionRepository struct {
	db *sql.DB
}

// Recognitions returns the recognition repository for this store.
func (s *Store) Recognitions() *RecognitionRepository {
	return &RecognitionRepository{db: s.db}
}

// Create inserts rec, assigning an ID and timestamp when they are unset.
func (r *RecognitionRepository) Create(rec *Recognition) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	_, err := r.db.Exec(
		`INSERT INTO recognitions (id, label, word, translation, language, backend, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Label, rec.Word, rec.Translation, rec.Language, rec.Backend, toMillis(rec.CreatedAt),
	)
	return err
}

// GetByID retrieves a recognition by its ID.
func (r *RecognitionRepository) GetByID(id string) (*Recognition, error) {
	rec := &Recognition{}
	var createdAt int64

	err := r.db.QueryRow(
		`SELECT id, label, word, translation, language, backend, created_at
		 FROM recognitions WHERE id = ?`,
		id,
	).Scan(&rec.ID, &rec.Label, &rec.Word, &rec.Translation, &rec.Language, &rec.Backend, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	rec.CreatedAt = fromMillis(createdAt)
	return rec, nil
}

// List returns up to limit recognitions, newest first.
func (r *RecognitionRepository) List(limit int) ([]*Recognition, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	rows, err := r.db.Query(
		`SELECT id, label, word, translation, language, backend, created_at
		 FROM recognitions ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []*Recognition
	for rows.Next() {
		rec := &Recognition{}
		var createdAt int64
		if err := rows.Scan(&rec.ID, &rec.Label, &rec.Word, &rec.Translation, &rec.Language, &rec.Backend, &createdAt); err != nil {
			return nil, err
		}
		rec.CreatedAt = fromMillis(createdAt)
		recs = append(recs, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return recs, nil
}

// Clear deletes all recognition history.
func (r *RecognitionRepository) Clear() error {
	_, err := r.db.Exec(`DELETE FROM recognitions`)
	return err
}
