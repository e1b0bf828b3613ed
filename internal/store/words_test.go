package store

import "testing"

func TestWordRepository_SeedAndSet(t *testing.T) {
	repo := newTestStore(t).Words()

	defaults := map[string]string{"fist": "NO", "open": "HELLO"}
	if err := repo.Seed(defaults); err != nil {
		t.Fatalf("Seed() error = %v", err)
	}

	if err := repo.Set("fist", "STOP"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	// Seeding again must not overwrite customized words.
	if err := repo.Seed(defaults); err != nil {
		t.Fatalf("second Seed() error = %v", err)
	}

	words, err := repo.Map()
	if err != nil {
		t.Fatalf("Map() error = %v", err)
	}
	if len(words) != 2 {
		t.Fatalf("Map() has %d entries, want 2", len(words))
	}
	if words["fist"] != "STOP" {
		t.Errorf("fist = %q, want STOP", words["fist"])
	}
	if words["open"] != "HELLO" {
		t.Errorf("open = %q, want HELLO", words["open"])
	}
}

func TestWordRepository_EmptyMap(t *testing.T) {
	words, err := newTestStore(t).Words().Map()
	if err != nil {
		t.Fatalf("Map() error = %v", err)
	}
	if len(words) != 0 {
		t.Errorf("Map() = %v, want empty", words)
	}
}
