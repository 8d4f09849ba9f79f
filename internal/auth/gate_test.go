package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/scribehub/scribe/internal/model"
	"github.com/scribehub/scribe/internal/store"
)

func newTestGate(t *testing.T) (*Gate, *store.Store) {
	t.Helper()
	s, err := store.New("")
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return NewGate(s), s
}

func seedKey(t *testing.T, s *store.Store, key, name string, admin bool) {
	t.Helper()
	if err := s.IssueKey(context.Background(), &model.APIKey{Key: key, Name: name, IsAdmin: admin}); err != nil {
		t.Fatalf("seed key %q: %v", key, err)
	}
}

func TestRequireKey(t *testing.T) {
	gate, s := newTestGate(t)
	ctx := context.Background()
	seedKey(t, s, "asdf", "Dopey", false)

	if err := gate.RequireKey(ctx, "asdf"); err != nil {
		t.Errorf("RequireKey(issued) = %v, want nil", err)
	}
	if err := gate.RequireKey(ctx, ""); !errors.Is(err, ErrMissingKey) {
		t.Errorf("RequireKey(absent) = %v, want ErrMissingKey", err)
	}
	if err := gate.RequireKey(ctx, "qwer"); !errors.Is(err, ErrUnknownKey) {
		t.Errorf("RequireKey(unknown) = %v, want ErrUnknownKey", err)
	}
}

func TestRequireAdmin(t *testing.T) {
	gate, s := newTestGate(t)
	ctx := context.Background()
	seedKey(t, s, "asdf", "Dopey", true)
	seedKey(t, s, "1234", "Sneezy", false)

	if err := gate.RequireAdmin(ctx, "asdf"); err != nil {
		t.Errorf("RequireAdmin(admin) = %v, want nil", err)
	}
	if err := gate.RequireAdmin(ctx, ""); !errors.Is(err, ErrMissingKey) {
		t.Errorf("RequireAdmin(absent) = %v, want ErrMissingKey", err)
	}

	// A known non-admin key and a key that was never issued must be rejected
	// with the same error, so callers can't probe which keys exist.
	errKnown := gate.RequireAdmin(ctx, "1234")
	errUnknown := gate.RequireAdmin(ctx, "qwer")
	if !errors.Is(errKnown, ErrForbidden) {
		t.Errorf("RequireAdmin(non-admin) = %v, want ErrForbidden", errKnown)
	}
	if !errors.Is(errUnknown, ErrForbidden) {
		t.Errorf("RequireAdmin(unknown) = %v, want ErrForbidden", errUnknown)
	}
	if errKnown.Error() != errUnknown.Error() {
		t.Errorf("non-admin and unknown rejections differ: %q vs %q", errKnown, errUnknown)
	}
}
