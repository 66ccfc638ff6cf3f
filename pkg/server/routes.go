// Package server wires the HTTP surface together: routing, middleware,
// health reporting, and background maintenance tasks.
package server

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/skillwatch/skillwatch/pkg/export"
	"github.com/skillwatch/skillwatch/pkg/ingest"
	"github.com/skillwatch/skillwatch/pkg/live"
	"github.com/skillwatch/skillwatch/pkg/query"
	"github.com/skillwatch/skillwatch/pkg/rollup"
	"github.com/skillwatch/skillwatch/pkg/storage"
)

// Deps collects the handlers and services the router exposes.
type Deps struct {
	Store   storage.Store
	Ingest  *ingest.Handler
	Query   *query.Handler
	Export  *export.Handler
	Hub     *live.Hub
	Monitor *rollup.Monitor
}

// NewRouter builds the full route table with middleware applied.
func NewRouter(deps Deps) *mux.Router {
	router := mux.NewRouter()
	router.Use(corsMiddleware, requestIDMiddleware, loggingMiddleware)

	api := router.PathPrefix("/v1").Subrouter()

	api.HandleFunc("/records", deps.Ingest.HandleInsert).Methods("POST")
	api.HandleFunc("/hiscores", deps.Query.HandleHiscores).Methods("GET")
	api.HandleFunc("/legacy", deps.Query.HandleLegacy).Methods("GET")

	api.HandleFunc("/export", deps.Export.HandleExport).Methods("GET")
	api.HandleFunc("/import", deps.Export.HandleImport).Methods("POST")

	api.HandleFunc("/stats", HandleStats(deps.Store)).Methods("GET")
	api.HandleFunc("/health", HandleHealth(deps.Monitor)).Methods("GET")

	api.HandleFunc("/ws", live.HandleWebSocket(deps.Hub)).Methods("GET")

	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	return router
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requestIDMiddleware tags each request, honoring a caller-supplied
// X-Request-ID so IDs survive proxies.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r)
	})
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("request_id", w.Header().Get("X-Request-ID")).
			Dur("elapsed", time.Since(start)).
			Msg("request served")
	})
}
