// Package auth decides whether a request carrying a claimed API key may
// proceed. The checks are pure functions of key-store state; nothing here
// mutates anything.
package auth

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrMissingKey means no API key was presented at all.
	ErrMissingKey = errors.New("no api key supplied")

	// ErrUnknownKey means a key was presented but is not in the store. Only
	// the plain "any valid key" path distinguishes this from ErrMissingKey.
	ErrUnknownKey = errors.New("api key not recognized")

	// ErrForbidden covers both "known key without the admin flag" and
	// "unknown key where admin was required". The two are intentionally
	// conflated so a rejected caller cannot probe which keys exist.
	ErrForbidden = errors.New("admin privileges required")
)

// KeyChecker is the read-only slice of the key store the gate consults.
type KeyChecker interface {
	Exists(ctx context.Context, key string) (bool, error)
	IsAdmin(ctx context.Context, key string) (bool, error)
}

// Gate gates operations on the presence or privilege of an API key.
type Gate struct {
	keys KeyChecker
}

func NewGate(keys KeyChecker) *Gate {
	return &Gate{keys: keys}
}

// RequireKey succeeds when candidate names an issued key. It distinguishes
// "no key submitted" (ErrMissingKey) from "key submitted but unrecognized"
// (ErrUnknownKey), matching the 400 vs 401 split on the wire.
func (g *Gate) RequireKey(ctx context.Context, candidate string) error {
	if candidate == "" {
		return ErrMissingKey
	}
	ok, err := g.keys.Exists(ctx, candidate)
	if err != nil {
		return fmt.Errorf("look up api key: %w", err)
	}
	if !ok {
		return ErrUnknownKey
	}
	return nil
}

// RequireAdmin succeeds when candidate names an issued key with the admin
// flag. Unlike RequireKey it never reveals whether a rejected key exists.
func (g *Gate) RequireAdmin(ctx context.Context, candidate string) error {
	if candidate == "" {
		return ErrMissingKey
	}
	admin, err := g.keys.IsAdmin(ctx, candidate)
	if err != nil {
		return fmt.Errorf("look up admin flag: %w", err)
	}
	if !admin {
		return ErrForbidden
	}
	return nil
}
