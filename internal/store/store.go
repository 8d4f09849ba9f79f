package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// Store owns the two persistent tables behind the API: the issued key
// registry (users) and the append-only access log (log). Every operation is
// a single round trip against SQLite; no state is cached in process, so the
// unique-key constraint on users.api_key is the only synchronization needed
// between concurrent requests.
type Store struct {
	db *sqlx.DB
}

// New opens the store under dataDir. Pass empty string for in-memory, which
// is what the tests use.
func New(dataDir string) (*Store, error) {
	var dsn string
	if dataDir == "" {
		dsn = ":memory:?_journal_mode=WAL"
	} else {
		if err := os.MkdirAll(dataDir, 0755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
		dsn = filepath.Join(dataDir, "scribe.db") + "?_journal_mode=WAL&_busy_timeout=5000"
	}

	db, err := sqlx.Connect("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping reports whether the database is reachable. Used by the liveness probe.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
