package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Records table - one row per finished detection run
		`CREATE TABLE IF NOT EXISTS records (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			kind TEXT NOT NULL CHECK(kind IN ('image', 'video', 'webcam')),
			source TEXT NOT NULL,
			status TEXT NOT NULL CHECK(status IN ('completed', 'stopped', 'failed')),
			created_at DATETIME NOT NULL,
			count INTEGER NOT NULL DEFAULT 0,
			source_frames INTEGER NOT NULL DEFAULT 0,
			processing_seconds REAL NOT NULL DEFAULT 0
		)`,

		// Record detections table - per-detection classes of image runs
		`CREATE TABLE IF NOT EXISTS record_detections (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			record_id TEXT NOT NULL REFERENCES records(id) ON DELETE CASCADE,
			class_id INTEGER NOT NULL,
			label TEXT NOT NULL,
			confidence REAL NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_record_detections_record_id ON record_detections(record_id)`,
		`CREATE INDEX IF NOT EXISTS idx_records_kind ON records(kind)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
