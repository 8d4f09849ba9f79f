package handler

import (
	"net/http"

	"github.com/scribehub/scribe/internal/auth"
	"github.com/scribehub/scribe/internal/service"
)

// PostsHandler covers the transcription workflow endpoints: claim, done,
// unclaim. The workflow state machine itself does not exist yet; each
// endpoint validates the payload, checks the key, records the access, and
// echoes the payload back so clients can be built against the contract.
type PostsHandler struct {
	gate   *auth.Gate
	reqlog *service.RequestLogger
}

func NewPostsHandler(gate *auth.Gate, reqlog *service.RequestLogger) *PostsHandler {
	return &PostsHandler{gate: gate, reqlog: reqlog}
}

// Claim marks a post as being worked on. POST /claim
func (h *PostsHandler) Claim(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, "/claim")
}

// Done marks a claimed post as transcribed. POST /done
func (h *PostsHandler) Done(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, "/done")
}

// Unclaim releases a claimed post back to the queue. POST /unclaim
func (h *PostsHandler) Unclaim(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, "/unclaim")
}

func (h *PostsHandler) handle(w http.ResponseWriter, r *http.Request, endpoint string) {
	payload := readPayload(r)

	if missing := missingFields(payload, "api_key", "post_id"); len(missing) > 0 {
		respondMissingFields(w, missing)
		return
	}

	key := stringField(payload, "api_key")
	if err := h.gate.RequireKey(r.Context(), key); err != nil {
		respondError(w, err)
		return
	}

	h.reqlog.Record(r.Context(), key, clientIP(r), endpoint, payload)

	// TODO: wire the claim state machine once the queue backend lands.
	respond(w, http.StatusOK, "", map[string]any{"data": payload})
}
