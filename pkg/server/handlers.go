package server

import (
	"net/http"
	"time"

	"github.com/skillwatch/skillwatch/pkg/httpx"
	"github.com/skillwatch/skillwatch/pkg/rollup"
	"github.com/skillwatch/skillwatch/pkg/storage"
)

var startTime = time.Now()

// HealthResponse is the health check payload.
type HealthResponse struct {
	Status  string                                    `json:"status"`
	Version string                                    `json:"version"`
	Uptime  string                                    `json:"uptime"`
	Rollups map[rollup.Interval]rollup.IntervalStatus `json:"rollups"`
}

// HandleHealth reports service health. The service is degraded when any
// rollup interval has been failing repeatedly.
func HandleHealth(monitor *rollup.Monitor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := "healthy"
		code := http.StatusOK
		if !monitor.Healthy() {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}

		httpx.RespondJSON(w, code, HealthResponse{
			Status:  status,
			Version: "1.0.0",
			Uptime:  time.Since(startTime).String(),
			Rollups: monitor.Status(),
		})
	}
}

// HandleStats reports row and player counts from storage.
func HandleStats(store storage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := store.Stats(r.Context())
		if err != nil {
			httpx.RespondError(w, http.StatusInternalServerError, err)
			return
		}
		httpx.RespondJSON(w, http.StatusOK, stats)
	}
}
