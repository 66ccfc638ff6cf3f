package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/skillwatch/skillwatch/pkg/config"
	"github.com/skillwatch/skillwatch/pkg/export"
	"github.com/skillwatch/skillwatch/pkg/ingest"
	"github.com/skillwatch/skillwatch/pkg/live"
	"github.com/skillwatch/skillwatch/pkg/query"
	"github.com/skillwatch/skillwatch/pkg/rollup"
	"github.com/skillwatch/skillwatch/pkg/server"
	badgerstore "github.com/skillwatch/skillwatch/pkg/storage/badger"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Fatal().Err(err).Str("log_level", cfg.LogLevel).Msg("invalid log level")
	}
	zerolog.SetGlobalLevel(level)

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		log.Fatal().Err(err).Str("dir", cfg.DataDir).Msg("failed to create data directory")
	}

	store, err := badgerstore.New(badgerstore.Config{
		Path:        cfg.DataDir,
		MaxMemoryMB: int64(cfg.MaxMemoryMB),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open storage")
	}
	defer store.Close()
	log.Info().Str("dir", cfg.DataDir).Msg("storage opened")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup

	hub := live.NewHub()
	wg.Add(1)
	go func() {
		defer wg.Done()
		hub.Run(ctx)
	}()

	agg := rollup.New(store)
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := agg.Run(ctx, store); err != nil && ctx.Err() == nil {
			log.Error().Err(err).Msg("aggregator stopped")
		}
	}()
	log.Info().Msg("rollup aggregator consuming the change feed")

	wg.Add(1)
	go func() {
		defer wg.Done()
		server.RunBadgerGC(ctx, store)
	}()

	ingestHandler := ingest.NewHandler(store)
	ingestHandler.SetBroadcaster(hub)

	router := server.NewRouter(server.Deps{
		Store:   store,
		Ingest:  ingestHandler,
		Query:   query.NewHandler(store),
		Export:  export.NewHandler(store),
		Hub:     hub,
		Monitor: agg.Monitor(),
	})

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: config.ServerWriteTimeout,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutdown signal received")

	// Cancel before waiting, or the background goroutines never exit.
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("server shutdown incomplete")
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Info().Msg("background tasks stopped")
	case <-time.After(5 * time.Second):
		log.Warn().Msg("background tasks did not stop in time")
	}

	log.Info().Msg("server exited")
}
