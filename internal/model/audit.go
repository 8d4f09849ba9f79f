package model

import "time"

// AuditEntry is one row of the append-only access log, written after a
// request clears authorization. Entries are never updated or deleted, and
// there is deliberately no foreign key against the users table: revoking a
// key must not erase the record of what that key did while it was live.
type AuditEntry struct {
	Key         string    `json:"api_key" db:"api_key"`
	IPAddress   string    `json:"ip_address" db:"ip_address"`
	Endpoint    string    `json:"endpoint" db:"endpoint"`
	Date        time.Time `json:"date" db:"date"`
	RequestData string    `json:"request_data" db:"request_data"`
}
