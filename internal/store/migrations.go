package store

import (
	"fmt"
	"strings"
)

func (s *Store) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS users (
			api_key TEXT PRIMARY KEY,
			name TEXT NOT NULL DEFAULT '',
			is_admin BOOLEAN NOT NULL DEFAULT 0,
			date_granted TIMESTAMP NOT NULL,
			authed_by TEXT NOT NULL DEFAULT ''
		)`,

		`CREATE TABLE IF NOT EXISTS log (
			api_key TEXT,
			ip_address TEXT NOT NULL DEFAULT '',
			endpoint TEXT NOT NULL DEFAULT '',
			date TIMESTAMP NOT NULL,
			request_data TEXT NOT NULL DEFAULT ''
		)`,

		`CREATE INDEX IF NOT EXISTS idx_log_api_key ON log(api_key)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			// SQLite ALTER TABLE ADD COLUMN fails if the column already
			// exists; treat that as a no-op so migrations stay idempotent.
			if strings.Contains(err.Error(), "duplicate column") {
				continue
			}
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}
	return nil
}
