package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/scribehub/scribe/internal/auth"
	"github.com/scribehub/scribe/internal/model"
	"github.com/scribehub/scribe/internal/store"
)

// KeyAdmin implements key administration: minting new keys, self lookup,
// and revocation. Every mutating operation is admin-gated and authorization
// is checked before anything touches the store, so a rejected request never
// leaves a partial write behind.
type KeyAdmin struct {
	store  *store.Store
	gate   *auth.Gate
	logger *slog.Logger

	// newToken is swappable in tests; defaults to a UUIDv4, which carries
	// 122 bits of randomness.
	newToken func() string
}

func NewKeyAdmin(st *store.Store, gate *auth.Gate, logger *slog.Logger) *KeyAdmin {
	return &KeyAdmin{
		store:    st,
		gate:     gate,
		logger:   logger,
		newToken: uuid.NewString,
	}
}

// Issue mints a fresh key for holderName, admin-flagged if grantAdmin is
// set. Only admin keys may mint, including other admin keys. The returned
// record carries the plaintext token; this is the only time it is handed
// out. The authorizing key is recorded on the new record for traceability.
func (ka *KeyAdmin) Issue(ctx context.Context, callerKey, holderName string, grantAdmin bool) (*model.APIKey, error) {
	if err := ka.gate.RequireAdmin(ctx, callerKey); err != nil {
		ka.logRejection("issue", callerKey, err)
		return nil, err
	}

	rec := &model.APIKey{
		Key:      ka.newToken(),
		Name:     holderName,
		IsAdmin:  grantAdmin,
		AuthedBy: callerKey,
	}

	if err := ka.store.IssueKey(ctx, rec); err != nil {
		return nil, err
	}

	ka.logger.Info("api key issued",
		"holder", holderName,
		"admin", grantAdmin,
		"authorized_by", keyPrefix(callerKey),
	)
	return rec, nil
}

// WhoAmI returns the caller's own key record. The store lookup can still
// miss even after RequireKey passes, if the key was revoked in between; in
// that case the store's ErrNotFound is passed through.
func (ka *KeyAdmin) WhoAmI(ctx context.Context, callerKey string) (*model.APIKey, error) {
	if err := ka.gate.RequireKey(ctx, callerKey); err != nil {
		return nil, err
	}
	return ka.store.FindKey(ctx, callerKey)
}

// Revoke hard-deletes targetKey. The delete is unconditional and idempotent:
// revoking a key that was never issued, or revoking twice, both succeed.
func (ka *KeyAdmin) Revoke(ctx context.Context, callerKey, targetKey string) error {
	if err := ka.gate.RequireAdmin(ctx, callerKey); err != nil {
		ka.logRejection("revoke", callerKey, err)
		return err
	}

	if err := ka.store.RevokeKey(ctx, targetKey); err != nil {
		return err
	}

	ka.logger.Info("api key revoked",
		"target", keyPrefix(targetKey),
		"authorized_by", keyPrefix(callerKey),
	)
	return nil
}

// logRejection records a failed privilege check in the structured log.
// Rejections are not written to the audit table (only authorized requests
// are), so this is the only trail an escalation attempt leaves.
func (ka *KeyAdmin) logRejection(op, callerKey string, err error) {
	ka.logger.Warn("key administration rejected",
		"op", op,
		"caller", keyPrefix(callerKey),
		"reason", err,
	)
}

// keyPrefix returns a short, log-safe fragment of a key. Full tokens never
// go to the structured log.
func keyPrefix(key string) string {
	if len(key) <= 8 {
		return key
	}
	return fmt.Sprintf("%s…", key[:8])
}
