package handler

import (
	"net/http"

	"github.com/scribehub/scribe/internal/service"
)

// KeysHandler exposes key administration over HTTP. Field validation runs
// first, then authorization inside the service, then the mutation; the
// access log is written only after all of that succeeds.
type KeysHandler struct {
	admin  *service.KeyAdmin
	reqlog *service.RequestLogger
}

func NewKeysHandler(admin *service.KeyAdmin, reqlog *service.RequestLogger) *KeysHandler {
	return &KeysHandler{admin: admin, reqlog: reqlog}
}

// Create mints a new API key for a named holder. Only admin keys may call
// this; the response carries the plaintext token exactly once.
// POST /keys/create
func (h *KeysHandler) Create(w http.ResponseWriter, r *http.Request) {
	payload := readPayload(r)

	if missing := missingFields(payload, "api_key", "name"); len(missing) > 0 {
		respondMissingFields(w, missing)
		return
	}

	callerKey := stringField(payload, "api_key")
	rec, err := h.admin.Issue(r.Context(), callerKey,
		stringField(payload, "name"), boolField(payload, "is_admin"))
	if err != nil {
		respondError(w, err)
		return
	}

	h.reqlog.Record(r.Context(), callerKey, clientIP(r), "/keys/create", payload)
	respond(w, http.StatusOK, "", map[string]any{"key": rec})
}

// Me returns the caller's own key record.
// POST /keys/me
func (h *KeysHandler) Me(w http.ResponseWriter, r *http.Request) {
	payload := readPayload(r)

	if missing := missingFields(payload, "api_key"); len(missing) > 0 {
		respondMissingFields(w, missing)
		return
	}

	callerKey := stringField(payload, "api_key")
	rec, err := h.admin.WhoAmI(r.Context(), callerKey)
	if err != nil {
		respondError(w, err)
		return
	}

	h.reqlog.Record(r.Context(), callerKey, clientIP(r), "/keys/me", payload)
	respond(w, http.StatusOK, "", map[string]any{"key": rec})
}

// Revoke hard-deletes a target key. Admin-only, idempotent.
// POST /keys/revoke
func (h *KeysHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	payload := readPayload(r)

	if missing := missingFields(payload, "api_key", "target_key"); len(missing) > 0 {
		respondMissingFields(w, missing)
		return
	}

	callerKey := stringField(payload, "api_key")
	if err := h.admin.Revoke(r.Context(), callerKey, stringField(payload, "target_key")); err != nil {
		respondError(w, err)
		return
	}

	h.reqlog.Record(r.Context(), callerKey, clientIP(r), "/keys/revoke", payload)
	respond(w, http.StatusOK, "key revoked", nil)
}
