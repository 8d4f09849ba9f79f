package model

import "time"

// APIKey is one issued credential in the users table. The raw key is the
// primary identity: it is stored as presented and returned to the holder
// exactly once, at issuance. Every field is immutable after that; changing
// a holder's name or admin flag means revoking the key and minting a new one.
type APIKey struct {
	Key         string    `json:"api_key" db:"api_key"`
	Name        string    `json:"username" db:"name"`
	IsAdmin     bool      `json:"is_admin" db:"is_admin"`
	DateGranted time.Time `json:"date_granted" db:"date_granted"`
	AuthedBy    string    `json:"authorized_by" db:"authed_by"`
}
