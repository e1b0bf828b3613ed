package store

import (
	"errors"
	"testing"
	"time"
)

func TestRecognitionRepository_Create(t *testing.T) {
	repo := newTestStore(t).Recognitions()

	rec := &Recognition{
		Label:       "thumbs_up",
		Word:        "YES",
		Translation: "SÍ",
		Language:    "es",
		Backend:     "mymemory",
	}
	if err := repo.Create(rec); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if rec.ID == "" {
		t.Error("Create() should assign an ID")
	}
	if rec.CreatedAt.IsZero() {
		t.Error("Create() should assign CreatedAt")
	}

	got, err := repo.GetByID(rec.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Word != "YES" || got.Translation != "SÍ" || got.Language != "es" || got.Backend != "mymemory" {
		t.Errorf("GetByID() = %+v", got)
	}
	if !got.CreatedAt.Equal(rec.CreatedAt.Truncate(time.Millisecond)) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, rec.CreatedAt)
	}
}

func TestRecognitionRepository_GetByID_NotFound(t *testing.T) {
	repo := newTestStore(t).Recognitions()

	if _, err := repo.GetByID("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID() error = %v, want ErrNotFound", err)
	}
}

func TestRecognitionRepository_List(t *testing.T) {
	repo := newTestStore(t).Recognitions()

	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	words := []string{"HELLO", "YES", "NO"}
	for i, w := range words {
		rec := &Recognition{Label: "open", Word: w, Translation: w, Language: "en", CreatedAt: base.Add(time.Duration(i) * time.Second)}
		if err := repo.Create(rec); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	recs, err := repo.List(2)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("List(2) returned %d, want 2", len(recs))
	}
	if recs[0].Word != "NO" || recs[1].Word != "YES" {
		t.Errorf("List() order = %s, %s; want NO, YES", recs[0].Word, recs[1].Word)
	}

	all, err := repo.List(0)
	if err != nil {
		t.Fatalf("List(0) error = %v", err)
	}
	if len(all) != 3 {
		t.Errorf("List(0) returned %d, want 3", len(all))
	}

	if err := repo.Clear(); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if recs, _ := repo.List(10); len(recs) != 0 {
		t.Errorf("List() after Clear() returned %d", len(recs))
	}
}
