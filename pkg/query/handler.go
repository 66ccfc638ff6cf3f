package query

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"

	"github.com/skillwatch/skillwatch/pkg/config"
	"github.com/skillwatch/skillwatch/pkg/hiscores"
	"github.com/skillwatch/skillwatch/pkg/httpx"
	"github.com/skillwatch/skillwatch/pkg/stats"
	"github.com/skillwatch/skillwatch/pkg/storage"
	"github.com/skillwatch/skillwatch/pkg/telemetry"
)

// Handler serves the hiscores query endpoints.
type Handler struct {
	store storage.Store
}

// NewHandler creates a query handler backed by the given store.
func NewHandler(store storage.Store) *Handler {
	return &Handler{store: store}
}

// HandleHiscores handles GET /v1/hiscores. Required params: player,
// startTime, endTime. Optional: skills (comma-separated) together with
// category, restricting each row to those leaves.
func (h *Handler) HandleHiscores(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()

	player := params.Get("player")
	if player == "" {
		httpx.RespondErrorString(w, http.StatusBadRequest, "API requires 'player' param")
		return
	}

	start := params.Get("startTime")
	if !validBound(start) {
		httpx.RespondErrorString(w, http.StatusBadRequest,
			"API requires 'startTime' param with shape 'YYYY-MM[-DD [HH:MM:SS]]'")
		return
	}
	end := params.Get("endTime")
	if !validBound(end) {
		httpx.RespondErrorString(w, http.StatusBadRequest,
			"API requires 'endTime' param with shape 'YYYY-MM[-DD [HH:MM:SS]]'")
		return
	}

	var skills []string
	if raw := params.Get("skills"); raw != "" {
		skills = strings.Split(raw, ",")
	}
	category := params.Get("category")

	ctx, cancel := context.WithTimeout(r.Context(), config.QueryTimeout)
	defer cancel()

	rows, _, err := h.run(ctx, player, start, end, skills, category)
	if err != nil {
		h.respondQueryError(w, err)
		return
	}
	httpx.RespondJSON(w, http.StatusOK, rows)
}

// run is the shared query path: infer the level, resolve boundaries, fetch
// the range, apply the optional projection, and lint the rows.
func (h *Handler) run(ctx context.Context, player, start, end string, skills []string, category string) ([]Row, Level, error) {
	level, err := Infer(start, end)
	if err != nil {
		return nil, level, err
	}
	timer := prometheus.NewTimer(telemetry.QueryDuration.WithLabelValues(level.String()))
	defer timer.ObserveDuration()

	lo, hi, err := Resolve(start, end, level)
	if err != nil {
		return nil, level, err
	}

	recs, err := h.store.QueryRange(ctx, player, lo, hi)
	if err != nil {
		return nil, level, err
	}

	if len(skills) > 0 && category != "" {
		for i := range recs {
			recs[i].Metrics = projectMetrics(recs[i].Metrics, skills, category)
		}
	}

	rows, err := Lint(recs, level)
	if err != nil {
		return nil, level, err
	}
	return rows, level, nil
}

func (h *Handler) respondQueryError(w http.ResponseWriter, err error) {
	var mismatch *FormatMismatchError
	if errors.As(err, &mismatch) {
		httpx.RespondErrorString(w, http.StatusBadRequest,
			"'startTime' and 'endTime' parameter formats must match")
		return
	}
	// Detail stays in the server log; callers get a generic failure.
	log.Error().Err(err).Msg("query failed")
	httpx.RespondError(w, http.StatusInternalServerError, errors.New("query failed"))
}

// validBound reports whether a caller-supplied bound parses under one of
// the three accepted shapes.
func validBound(s string) bool {
	return parses(s, hiscores.TimestampFormat) ||
		parses(s, hiscores.DateFormat) ||
		parses(s, hiscores.MonthFormat)
}

// projectMetrics restricts a metric tree to skills.<skill>.<category>
// leaves, mirroring the projection the query API exposes. Missing skills
// or categories are simply absent from the result.
func projectMetrics(m stats.Branch, skills []string, category string) stats.Branch {
	skillsBranch, ok := m["skills"].(stats.Branch)
	if !ok {
		return stats.Branch{}
	}

	projected := make(stats.Branch, len(skills))
	for _, skill := range skills {
		sb, ok := skillsBranch[skill].(stats.Branch)
		if !ok {
			continue
		}
		leaf, ok := sb[category]
		if !ok {
			continue
		}
		projected[skill] = stats.Branch{category: leaf}
	}
	return stats.Branch{"skills": projected}
}
