package handler

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/scribehub/scribe/internal/auth"
	"github.com/scribehub/scribe/internal/model"
	"github.com/scribehub/scribe/internal/stats"
	"github.com/scribehub/scribe/internal/store"
)

// writeJSON serializes v and writes it with the given HTTP status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// respond writes the uniform response envelope, success or error, with any
// operation-specific extras merged in at the top level.
func respond(w http.ResponseWriter, status int, message string, extra map[string]any) {
	body := model.Envelope(status, message)
	for k, v := range extra {
		body[k] = v
	}
	writeJSON(w, status, body)
}

// readPayload decodes the request body as a JSON object. A missing or
// non-JSON body yields an empty payload rather than an error: the field
// validation that follows will enumerate everything that is absent.
func readPayload(r *http.Request) map[string]any {
	defer r.Body.Close()
	var payload map[string]any
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		return map[string]any{}
	}
	if payload == nil {
		return map[string]any{}
	}
	return payload
}

// missingFields returns the names of required fields that are absent, nil,
// or empty in the payload. It reports all of them, not just the first, so
// the client gets one complete complaint.
func missingFields(payload map[string]any, fields ...string) []string {
	var missing []string
	for _, f := range fields {
		v, ok := payload[f]
		if !ok || v == nil {
			missing = append(missing, f)
			continue
		}
		if s, isStr := v.(string); isStr && s == "" {
			missing = append(missing, f)
		}
	}
	return missing
}

// respondMissingFields writes the 400 envelope enumerating every missing
// field name.
func respondMissingFields(w http.ResponseWriter, missing []string) {
	respond(w, http.StatusBadRequest,
		"Please supply the following fields: "+strings.Join(missing, ", "),
		map[string]any{"missing_fields": missing})
}

// stringField extracts a string-typed payload field, or "".
func stringField(payload map[string]any, key string) string {
	s, _ := payload[key].(string)
	return s
}

// boolField extracts a bool-typed payload field, or false.
func boolField(payload map[string]any, key string) bool {
	b, _ := payload[key].(bool)
	return b
}

// respondError maps the typed errors from the gate, the store, and the
// stats store onto envelope responses. Anything unrecognized is a storage
// or transport failure: fatal for this request only, reported as a 500.
func respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auth.ErrMissingKey):
		respond(w, http.StatusBadRequest, "no api key supplied", nil)
	case errors.Is(err, auth.ErrUnknownKey):
		respond(w, http.StatusUnauthorized, "api key not recognized", nil)
	case errors.Is(err, auth.ErrForbidden):
		respond(w, http.StatusForbidden, "admin privileges required", nil)
	case errors.Is(err, store.ErrNotFound):
		respond(w, http.StatusNotFound, "api key not in use", nil)
	case errors.Is(err, store.ErrDuplicateKey):
		respond(w, http.StatusConflict, "generated key collided, please retry", nil)
	case errors.Is(err, stats.ErrNoProfile):
		respond(w, http.StatusNotFound, "no such user", nil)
	default:
		respond(w, http.StatusInternalServerError, "internal error", nil)
	}
}

// clientIP returns the remote address without the port. The RealIP
// middleware has already resolved forwarding headers by the time this runs.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
