package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/scribehub/scribe/internal/stats"
)

// UsersHandler looks up volunteer profiles. Profiles live in Redis next to
// the community counters; the bot pipeline writes them, this API reads.
type UsersHandler struct {
	stats *stats.Store
}

func NewUsersHandler(st *stats.Store) *UsersHandler {
	return &UsersHandler{stats: st}
}

// Get returns one volunteer's profile. The username comes from the routing
// table, never from parsing the path here.
// GET /user/{username}
func (h *UsersHandler) Get(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	if username == "" {
		respond(w, http.StatusBadRequest,
			"Please supply a username in the following URL format: /user/spez", nil)
		return
	}

	profile, err := h.stats.Volunteer(r.Context(), username)
	if err != nil {
		respondError(w, err)
		return
	}

	respond(w, http.StatusOK, "", map[string]any{
		"username": username,
		"user":     profile,
	})
}
