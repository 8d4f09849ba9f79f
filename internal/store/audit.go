package store

import (
	"context"
	"fmt"
	"time"

	"github.com/scribehub/scribe/internal/model"
)

// AppendLog writes one entry to the access log. The Date field is assigned
// here, at write time. The request payload is stored as an opaque blob;
// whatever the client submitted (including nothing at all) is recorded
// verbatim, never validated.
func (s *Store) AppendLog(ctx context.Context, entry *model.AuditEntry) error {
	entry.Date = time.Now().UTC()

	const q = `INSERT INTO log (api_key, ip_address, endpoint, date, request_data)
		VALUES (:api_key, :ip_address, :endpoint, :date, :request_data)`

	if _, err := s.db.NamedExecContext(ctx, q, entry); err != nil {
		return fmt.Errorf("append log entry: %w", err)
	}
	return nil
}

// ListLogByKey returns all log entries recorded for key, in insertion order.
// The log has no read path in the request flow; this exists for operators
// and tests.
func (s *Store) ListLogByKey(ctx context.Context, key string) ([]model.AuditEntry, error) {
	var entries []model.AuditEntry
	err := s.db.SelectContext(ctx, &entries,
		`SELECT * FROM log WHERE api_key = ? ORDER BY rowid`, key)
	if err != nil {
		return nil, fmt.Errorf("list log entries: %w", err)
	}
	return entries, nil
}

// CountLog returns the total number of log entries.
func (s *Store) CountLog(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM log`); err != nil {
		return 0, fmt.Errorf("count log entries: %w", err)
	}
	return n, nil
}
