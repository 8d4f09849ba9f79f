package service

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/scribehub/scribe/internal/model"
	"github.com/scribehub/scribe/internal/store"
)

// RequestLogger records every authorized, key-bearing request in the access
// log: which key hit which endpoint, from where, with what payload. The
// payload is stored as an opaque JSON snapshot of whatever was submitted.
type RequestLogger struct {
	store  *store.Store
	logger *slog.Logger
}

func NewRequestLogger(st *store.Store, logger *slog.Logger) *RequestLogger {
	return &RequestLogger{store: st, logger: logger}
}

// Record appends one access-log entry. A nil payload is recorded as an
// empty marker, not an error. Append failures must never fail the request
// they describe; they are logged and dropped.
func (rl *RequestLogger) Record(ctx context.Context, key, ip, endpoint string, payload map[string]any) {
	var data string
	if payload != nil {
		if b, err := json.Marshal(payload); err == nil {
			data = string(b)
		}
	}

	entry := &model.AuditEntry{
		Key:         key,
		IPAddress:   ip,
		Endpoint:    endpoint,
		RequestData: data,
	}
	if err := rl.store.AppendLog(ctx, entry); err != nil {
		rl.logger.Error("access log append failed", "endpoint", endpoint, "error", err)
	}
}
