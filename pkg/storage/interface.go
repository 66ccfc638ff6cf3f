package storage

import (
	"context"

	"github.com/skillwatch/skillwatch/pkg/hiscores"
)

// Store is the keyed, range-queryable store backing the tracker. Rows are
// keyed by (player, timestamp) with timestamps ordered lexically as
// strings, so sentinel-prefixed bucket labels share one ordered key space
// with raw instants.
// Implementations: memory (testing), badger (production).
type Store interface {
	// Get returns the row at (player, timestamp); ok is false when absent.
	Get(ctx context.Context, player, timestamp string) (rec hiscores.Record, ok bool, err error)

	// Put writes a row, overwriting any prior value at its key.
	Put(ctx context.Context, rec hiscores.Record) error

	// QueryRange returns the player's rows with lo <= timestamp <= hi,
	// ordered by timestamp.
	QueryRange(ctx context.Context, player, lo, hi string) ([]hiscores.Record, error)

	// Stats returns storage statistics.
	Stats(ctx context.Context) (*Stats, error)

	// Close cleanly shuts down the storage.
	Close() error
}

// Watcher delivers a change notification for every successful Put,
// including the aggregator's own bucket writes; consumers filter those by
// sentinel prefix. Delivery is at-least-once and Watch blocks until ctx is
// done or fn returns an error.
type Watcher interface {
	Watch(ctx context.Context, fn func(recs []hiscores.Record) error) error
}

// Stats provides storage usage info.
type Stats struct {
	TotalRows    uint64 `json:"total_rows"`
	TotalPlayers uint64 `json:"total_players"`

	// Lexically smallest and largest timestamps seen across all players.
	OldestRow string `json:"oldest_row,omitempty"`
	NewestRow string `json:"newest_row,omitempty"`
}
