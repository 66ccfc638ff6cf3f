package rollup

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/skillwatch/skillwatch/pkg/hiscores"
	"github.com/skillwatch/skillwatch/pkg/stats"
	"github.com/skillwatch/skillwatch/pkg/storage"
	"github.com/skillwatch/skillwatch/pkg/telemetry"
)

// Aggregator folds raw writes into per-player daily and monthly buckets.
//
// Each bucket update is an unguarded read-merge-write: two writers landing
// in the same bucket concurrently can race, and the last write wins,
// dropping the other contribution. This matches the upstream deployments
// this tracker replaces and is left as-is rather than papered over with a
// retry loop. Likewise, a redelivered notification double-counts its
// record; the delivery layer is trusted to redeliver rarely.
type Aggregator struct {
	store   storage.Store
	monitor *Monitor
}

// New creates an aggregator writing through the given store.
func New(store storage.Store) *Aggregator {
	return &Aggregator{store: store, monitor: NewMonitor()}
}

// Monitor returns the aggregator's health monitor.
func (a *Aggregator) Monitor() *Monitor {
	return a.monitor
}

// OnRawWrite folds one raw record into every configured interval's bucket.
// Notifications for bucket labels are echoes of the aggregator's own
// writes and are ignored. Intervals are updated independently: a failure
// in one does not block the others, and all failures are reported joined.
func (a *Aggregator) OnRawWrite(ctx context.Context, rec hiscores.Record) error {
	if IsBucketLabel(rec.Timestamp) {
		telemetry.RollupsSkipped.Inc()
		log.Debug().
			Str("player", rec.Player).
			Str("timestamp", rec.Timestamp).
			Msg("ignoring aggregate write echo")
		return nil
	}

	var errs []error
	for _, interval := range Intervals {
		if err := a.apply(ctx, interval, rec); err != nil {
			telemetry.RollupErrors.WithLabelValues(string(interval)).Inc()
			a.monitor.RecordFailure(interval, err)
			log.Error().Err(err).
				Str("player", rec.Player).
				Str("interval", string(interval)).
				Msg("rollup update failed")
			errs = append(errs, fmt.Errorf("%s rollup: %w", interval, err))
			continue
		}
		telemetry.RollupsApplied.WithLabelValues(string(interval)).Inc()
		a.monitor.RecordSuccess(interval)
	}
	return errors.Join(errs...)
}

func (a *Aggregator) apply(ctx context.Context, interval Interval, rec hiscores.Record) error {
	label, err := BucketLabel(interval, rec.Timestamp)
	if err != nil {
		return err
	}

	existing, ok, err := a.store.Get(ctx, rec.Player, label)
	if err != nil {
		return fmt.Errorf("failed to read bucket %q: %w", label, err)
	}

	bucket := hiscores.Record{Player: rec.Player, Timestamp: label}
	if !ok {
		// First contribution: the raw record becomes the bucket verbatim.
		bucket.Metrics = rec.Metrics.Clone()
		bucket.Divisor = 1
	} else {
		merged, err := stats.Merge(existing.Metrics, rec.Metrics, stats.Add)
		if err != nil {
			return fmt.Errorf("failed to merge into bucket %q: %w", label, err)
		}
		bucket.Metrics = merged
		bucket.Divisor = existing.Divisor + 1
	}

	if err := a.store.Put(ctx, bucket); err != nil {
		return fmt.Errorf("failed to write bucket %q: %w", label, err)
	}

	log.Debug().
		Str("player", rec.Player).
		Str("bucket", label).
		Int64("divisor", bucket.Divisor).
		Msg("rollup bucket updated")
	return nil
}

// Run consumes the watcher's change feed until ctx is done, applying
// OnRawWrite to every delivered row. Aggregation failures are logged and
// counted but never wedge the feed; a dropped notification would lose data
// for good, a logged failure can be investigated.
func (a *Aggregator) Run(ctx context.Context, w storage.Watcher) error {
	return w.Watch(ctx, func(recs []hiscores.Record) error {
		for _, rec := range recs {
			if err := a.OnRawWrite(ctx, rec); err != nil {
				log.Error().Err(err).
					Str("player", rec.Player).
					Str("timestamp", rec.Timestamp).
					Msg("aggregation incomplete for record")
			}
		}
		return nil
	})
}
