// Package ingest accepts raw hiscore rows over HTTP and writes them to
// storage. Rollups are not touched here; the aggregator picks up every
// accepted write from the store's change feed.
package ingest

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/skillwatch/skillwatch/pkg/config"
	"github.com/skillwatch/skillwatch/pkg/hiscores"
	"github.com/skillwatch/skillwatch/pkg/httpx"
	"github.com/skillwatch/skillwatch/pkg/storage"
	"github.com/skillwatch/skillwatch/pkg/telemetry"
)

// Broadcaster pushes accepted rows to live subscribers.
type Broadcaster interface {
	Broadcast(v any) error
	HasClients() bool
}

// Handler handles raw row ingestion.
type Handler struct {
	store storage.Store
	hub   Broadcaster
}

// NewHandler creates an ingest handler backed by the given store.
func NewHandler(store storage.Store) *Handler {
	return &Handler{store: store}
}

// SetBroadcaster attaches a live-update hub. Optional; ingestion works
// without one.
func (h *Handler) SetBroadcaster(b Broadcaster) {
	h.hub = b
}

// HandleInsert handles POST /v1/records. The body is a single raw row:
//
//	{"player": "...", "timestamp": "YYYY-MM-DD HH:MM:SS", "metrics": {...}}
func (h *Handler) HandleInsert(w http.ResponseWriter, r *http.Request) {
	var rec hiscores.Record
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		httpx.RespondErrorString(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	if err := rec.ValidateRaw(); err != nil {
		httpx.RespondError(w, http.StatusBadRequest, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), config.IngestTimeout)
	defer cancel()

	if err := h.store.Put(ctx, rec); err != nil {
		httpx.RespondError(w, http.StatusInternalServerError, err)
		return
	}
	telemetry.RecordsIngested.Inc()

	if h.hub != nil && h.hub.HasClients() {
		_ = h.hub.Broadcast(rec)
	}

	httpx.RespondJSON(w, http.StatusOK, rec)
}
