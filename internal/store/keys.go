package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/scribehub/scribe/internal/model"
)

// IssueKey inserts a new key record. The DateGranted field is stamped here
// if the caller left it zero. A primary-key collision is reported as
// ErrDuplicateKey; the insert is atomic, so two concurrent issues of the
// same token cannot both succeed.
func (s *Store) IssueKey(ctx context.Context, key *model.APIKey) error {
	if key.DateGranted.IsZero() {
		key.DateGranted = time.Now().UTC()
	}

	const q = `INSERT INTO users (api_key, name, is_admin, date_granted, authed_by)
		VALUES (:api_key, :name, :is_admin, :date_granted, :authed_by)`

	if _, err := s.db.NamedExecContext(ctx, q, key); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "unique constraint") {
			return ErrDuplicateKey
		}
		return fmt.Errorf("insert api key: %w", err)
	}
	return nil
}

// FindKey looks up a key record by its token. Returns ErrNotFound when no
// record exists.
func (s *Store) FindKey(ctx context.Context, key string) (*model.APIKey, error) {
	var rec model.APIKey
	err := s.db.GetContext(ctx, &rec, `SELECT * FROM users WHERE api_key = ?`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find api key: %w", err)
	}
	return &rec, nil
}

// Exists reports whether some record has this key.
func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM users WHERE api_key = ?`, key); err != nil {
		return false, fmt.Errorf("check api key: %w", err)
	}
	return n > 0, nil
}

// IsAdmin reports whether a record exists for key with the admin flag set.
// An unknown key is simply "not admin", never an error; callers of the
// admin gate must not be able to tell the two cases apart.
func (s *Store) IsAdmin(ctx context.Context, key string) (bool, error) {
	var isAdmin bool
	err := s.db.GetContext(ctx, &isAdmin, `SELECT is_admin FROM users WHERE api_key = ?`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check admin flag: %w", err)
	}
	return isAdmin, nil
}

// RevokeKey hard-deletes the record for key. Revoking a key that does not
// exist is a no-op, which makes revocation idempotent.
func (s *Store) RevokeKey(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE api_key = ?`, key); err != nil {
		return fmt.Errorf("revoke api key: %w", err)
	}
	return nil
}

// ListKeys returns every issued key record ordered by issuance time. Used
// by the CLI; the HTTP surface never enumerates keys.
func (s *Store) ListKeys(ctx context.Context) ([]model.APIKey, error) {
	var keys []model.APIKey
	if err := s.db.SelectContext(ctx, &keys, `SELECT * FROM users ORDER BY date_granted`); err != nil {
		return nil, fmt.Errorf("list api keys: %w", err)
	}
	return keys, nil
}

// CountKeys returns the number of issued keys. Used by tests to assert that
// rejected operations leave no partial writes behind.
func (s *Store) CountKeys(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM users`); err != nil {
		return 0, fmt.Errorf("count api keys: %w", err)
	}
	return n, nil
}
