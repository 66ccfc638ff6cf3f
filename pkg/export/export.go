// Package export moves a player's full history in and out of the store as
// a JSON archive.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/skillwatch/skillwatch/pkg/config"
	"github.com/skillwatch/skillwatch/pkg/hiscores"
	"github.com/skillwatch/skillwatch/pkg/httpx"
	"github.com/skillwatch/skillwatch/pkg/rollup"
	"github.com/skillwatch/skillwatch/pkg/storage"
)

// maxTimestamp sorts after every raw timestamp and every bucket label, so
// a ["", maxTimestamp] range covers a player's entire key space.
const maxTimestamp = "~"

// Archive is the export/import wire format.
type Archive struct {
	Player     string            `json:"player"`
	ExportedAt string            `json:"exportedAt"`
	Rows       []hiscores.Record `json:"rows"`
}

// Handler handles the archive endpoints.
type Handler struct {
	store storage.Store
}

// NewHandler creates an export/import handler backed by the given store.
func NewHandler(store storage.Store) *Handler {
	return &Handler{store: store}
}

// HandleExport handles GET /v1/export?player=... and returns every stored
// row for the player, bucket rows included.
func (h *Handler) HandleExport(w http.ResponseWriter, r *http.Request) {
	player := r.URL.Query().Get("player")
	if player == "" {
		httpx.RespondErrorString(w, http.StatusBadRequest, "API requires 'player' param")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), config.ExportTimeout)
	defer cancel()

	rows, err := h.store.QueryRange(ctx, player, "", maxTimestamp)
	if err != nil {
		log.Error().Err(err).Str("player", player).Msg("export failed")
		httpx.RespondErrorString(w, http.StatusInternalServerError, "export failed")
		return
	}

	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=skillwatch-%s-%s.json", player, time.Now().Format("20060102-150405")))
	httpx.RespondJSON(w, http.StatusOK, Archive{
		Player:     player,
		ExportedAt: time.Now().UTC().Format(hiscores.TimestampFormat),
		Rows:       rows,
	})
}

// ImportResult summarizes an import run.
type ImportResult struct {
	Player   string `json:"player"`
	Imported int    `json:"imported"`
	Skipped  int    `json:"skipped"`
}

// HandleImport handles POST /v1/import. Only raw rows from the archive are
// written; bucket rows are skipped and rebuilt by the aggregator from the
// raw writes, so a restore cannot double-count into existing buckets.
func (h *Handler) HandleImport(w http.ResponseWriter, r *http.Request) {
	var archive Archive
	if err := json.NewDecoder(r.Body).Decode(&archive); err != nil {
		httpx.RespondErrorString(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if archive.Player == "" {
		httpx.RespondErrorString(w, http.StatusBadRequest, "archive is missing 'player'")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), config.ExportTimeout)
	defer cancel()

	result := ImportResult{Player: archive.Player}
	for _, rec := range archive.Rows {
		if rollup.IsBucketLabel(rec.Timestamp) {
			result.Skipped++
			continue
		}
		if rec.Player != archive.Player {
			httpx.RespondErrorString(w, http.StatusBadRequest,
				fmt.Sprintf("row %q belongs to player %q, not %q", rec.Timestamp, rec.Player, archive.Player))
			return
		}
		if err := rec.ValidateRaw(); err != nil {
			httpx.RespondError(w, http.StatusBadRequest, err)
			return
		}
		if err := h.store.Put(ctx, rec); err != nil {
			log.Error().Err(err).Str("player", archive.Player).Msg("import failed")
			httpx.RespondErrorString(w, http.StatusInternalServerError, "import failed")
			return
		}
		result.Imported++
	}

	log.Info().Str("player", archive.Player).
		Int("imported", result.Imported).
		Int("skipped", result.Skipped).
		Msg("archive imported")
	httpx.RespondJSON(w, http.StatusOK, result)
}
