package handler

import (
	"log/slog"
	"net/http"

	"github.com/scribehub/scribe/internal/stats"
)

// StatsHandler serves the public aggregate statistics from the Redis
// counters maintained by the bot pipeline.
type StatsHandler struct {
	stats  *stats.Store
	logger *slog.Logger
}

func NewStatsHandler(st *stats.Store, logger *slog.Logger) *StatsHandler {
	return &StatsHandler{stats: st, logger: logger}
}

// Index reports how much has been transcribed and by how many volunteers.
// GET /
func (h *StatsHandler) Index(w http.ResponseWriter, r *http.Request) {
	sum, err := h.stats.Summarize(r.Context())
	if err != nil {
		h.logger.Error("stats summary failed", "error", err)
		respondError(w, err)
		return
	}

	respond(w, http.StatusOK, "", map[string]any{
		"transcription_count":      sum.TranscriptionCount,
		"transcription_percentage": sum.TranscriptionPercentage,
		"volunteer_count":          sum.VolunteerCount,
	})
}
