package badger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/dgraph-io/badger/v4/pb"

	"github.com/skillwatch/skillwatch/pkg/hiscores"
	"github.com/skillwatch/skillwatch/pkg/storage"
)

const keySeparator = "#"

// Store implements storage.Store using BadgerDB (LSM tree). Keys are
// player + "#" + timestamp, so one player's rows, raw instants and
// sentinel-prefixed bucket labels alike, sit in a single lexically
// ordered range under the player prefix.
type Store struct {
	db *badger.DB
}

// Config holds BadgerDB configuration.
type Config struct {
	// Path to store database files.
	Path string

	// InMemory mode (for testing).
	InMemory bool

	// MaxMemoryMB limits BadgerDB memory usage in MB (0 = defaults).
	MaxMemoryMB int64
}

// New creates a BadgerDB storage backend.
func New(cfg Config) (*Store, error) {
	opts := badger.DefaultOptions(cfg.Path)
	if cfg.InMemory {
		opts = opts.WithInMemory(true)
	}

	// Conservative memory bounds; BadgerDB's defaults assume far more RAM
	// than a small tracker deployment has.
	memTableSize := int64(16 << 20)
	if cfg.MaxMemoryMB > 0 {
		memTableSize = cfg.MaxMemoryMB << 20 / 3
	}

	opts = opts.
		WithCompression(options.Snappy).
		WithNumVersionsToKeep(1).
		WithMemTableSize(memTableSize).
		WithNumMemtables(3).
		WithBlockCacheSize(memTableSize / 2).
		WithIndexCacheSize(memTableSize / 4).
		WithNumCompactors(2).
		WithValueLogFileSize(64 << 20)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger: %w", err)
	}
	return &Store{db: db}, nil
}

func rowKey(player, timestamp string) []byte {
	return []byte(player + keySeparator + timestamp)
}

// Get returns the row at (player, timestamp).
func (s *Store) Get(ctx context.Context, player, timestamp string) (hiscores.Record, bool, error) {
	if err := ctx.Err(); err != nil {
		return hiscores.Record{}, false, err
	}

	var rec hiscores.Record
	found := false
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(rowKey(player, timestamp))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	if err != nil {
		return hiscores.Record{}, false, fmt.Errorf("failed to read row: %w", err)
	}
	return rec, found, nil
}

// Put writes a row, overwriting any prior value at its key.
func (s *Store) Put(ctx context.Context, rec hiscores.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	value, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode row: %w", err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(rowKey(rec.Player, rec.Timestamp), value)
	})
	if err != nil {
		return fmt.Errorf("failed to write row: %w", err)
	}
	return nil
}

// QueryRange returns the player's rows with lo <= timestamp <= hi, ordered
// by timestamp.
func (s *Store) QueryRange(ctx context.Context, player, lo, hi string) ([]hiscores.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prefix := []byte(player + keySeparator)
	hiKey := rowKey(player, hi)

	var results []hiscores.Record
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchSize = 100

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(rowKey(player, lo)); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			if bytes.Compare(item.Key(), hiKey) > 0 {
				break
			}
			var rec hiscores.Record
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			}); err != nil {
				return err
			}
			results = append(results, rec)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("range query failed: %w", err)
	}
	return results, nil
}

// Watch subscribes to the change feed and invokes fn for every batch of
// written rows until ctx is done or fn returns an error. BadgerDB's
// subscription is this store's analogue of a table stream: every Put,
// including the aggregator's own bucket writes, is delivered at least
// once.
func (s *Store) Watch(ctx context.Context, fn func(recs []hiscores.Record) error) error {
	return s.db.Subscribe(ctx, func(kvs *badger.KVList) error {
		recs := make([]hiscores.Record, 0, len(kvs.Kv))
		for _, kv := range kvs.Kv {
			if len(kv.Value) == 0 {
				continue
			}
			var rec hiscores.Record
			if err := json.Unmarshal(kv.Value, &rec); err != nil {
				return fmt.Errorf("failed to decode change notification: %w", err)
			}
			recs = append(recs, rec)
		}
		if len(recs) == 0 {
			return nil
		}
		return fn(recs)
	}, []pb.Match{{}})
}

// Stats returns storage statistics.
func (s *Store) Stats(ctx context.Context) (*storage.Stats, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	stats := &storage.Stats{}
	players := make(map[string]bool)

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			stats.TotalRows++
			player, ts, ok := strings.Cut(string(it.Item().Key()), keySeparator)
			if !ok {
				continue
			}
			players[player] = true
			if stats.OldestRow == "" || ts < stats.OldestRow {
				stats.OldestRow = ts
			}
			if ts > stats.NewestRow {
				stats.NewestRow = ts
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	stats.TotalPlayers = uint64(len(players))
	return stats, nil
}

// RunGC runs BadgerDB's value log garbage collection. Returns
// badger.ErrNoRewrite when there was nothing to reclaim.
func (s *Store) RunGC(discardRatio float64) error {
	return s.db.RunValueLogGC(discardRatio)
}

// Close shuts down BadgerDB cleanly.
func (s *Store) Close() error {
	return s.db.Close()
}
