package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Settings table - persisted session preferences as key-value pairs
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,

		// Words table - gesture label to spoken word mapping
		`CREATE TABLE IF NOT EXISTS words (
			label TEXT PRIMARY KEY,
			word TEXT NOT NULL,
			updated_at INTEGER NOT NULL
		)`,

		// Recognitions table - history of emitted words and their translations
		`CREATE TABLE IF NOT EXISTS recognitions (
			id TEXT PRIMARY KEY,
			label TEXT NOT NULL,
			word TEXT NOT NULL,
			translation TEXT NOT NULL,
			language TEXT NOT NULL,
			backend TEXT NOT NULL DEFAULT '',
			created_at INTEGER NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_recognitions_created_at ON recognitions(created_at)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
