package store

import "fmt"

// migrations run in order on every open; each must be idempotent.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS photos (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		url TEXT NOT NULL,
		source TEXT NOT NULL DEFAULT '',
		file TEXT NOT NULL DEFAULT '',
		content_type TEXT NOT NULL DEFAULT '',
		pos_x REAL NOT NULL DEFAULT 0,
		pos_y REAL NOT NULL DEFAULT 0,
		pos_z REAL NOT NULL DEFAULT 0,
		rot_x REAL NOT NULL DEFAULT 0,
		rot_y REAL NOT NULL DEFAULT 0,
		rot_z REAL NOT NULL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,

	`CREATE INDEX IF NOT EXISTS idx_photos_source ON photos(source)`,
}

func (s *Store) runMigrations() error {
	for i, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}
