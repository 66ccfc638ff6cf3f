package server

import (
	"context"
	"errors"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog/log"

	"github.com/skillwatch/skillwatch/pkg/config"
	badgerstore "github.com/skillwatch/skillwatch/pkg/storage/badger"
)

// RunBadgerGC runs value log garbage collection periodically. The LSM
// value log accumulates overwritten bucket rows; without GC, disk usage
// grows without bound.
func RunBadgerGC(ctx context.Context, store *badgerstore.Store) {
	ticker := time.NewTicker(config.BadgerGCInterval)
	defer ticker.Stop()

	log.Info().Dur("interval", config.BadgerGCInterval).Msg("badger gc scheduler started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("badger gc scheduler stopped")
			return
		case <-ticker.C:
			start := time.Now()
			err := store.RunGC(config.BadgerGCDiscardRatio)
			switch {
			case err == nil:
				log.Info().Dur("elapsed", time.Since(start)).Msg("badger gc reclaimed space")
			case errors.Is(err, badger.ErrNoRewrite):
				log.Debug().Msg("badger gc found nothing to reclaim")
			default:
				log.Warn().Err(err).Msg("badger gc failed")
			}
		}
	}
}
