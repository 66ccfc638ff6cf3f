package memory

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"

	"github.com/skillwatch/skillwatch/pkg/hiscores"
	"github.com/skillwatch/skillwatch/pkg/storage"
)

const keySeparator = "#"

// Store keeps rows in memory. Data is lost on restart.
// Useful for testing and development.
//
// Rows are held in their wire (JSON) form so the store owns the durable
// copy and callers never share mutable trees with it, matching the
// production backend.
type Store struct {
	mu       sync.RWMutex
	rows     map[string][]byte // player + "#" + timestamp -> encoded row
	watchers []chan hiscores.Record
}

// New creates an in-memory storage backend.
func New() *Store {
	return &Store{
		rows: make(map[string][]byte),
	}
}

func key(player, timestamp string) string {
	return player + keySeparator + timestamp
}

// Get returns the row at (player, timestamp).
func (s *Store) Get(ctx context.Context, player, timestamp string) (hiscores.Record, bool, error) {
	s.mu.RLock()
	data, ok := s.rows[key(player, timestamp)]
	s.mu.RUnlock()
	if !ok {
		return hiscores.Record{}, false, nil
	}

	var rec hiscores.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return hiscores.Record{}, false, err
	}
	return rec, true, nil
}

// Put stores a row and notifies watchers.
func (s *Store) Put(ctx context.Context, rec hiscores.Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.rows[key(rec.Player, rec.Timestamp)] = data
	watchers := make([]chan hiscores.Record, len(s.watchers))
	copy(watchers, s.watchers)
	s.mu.Unlock()

	for _, ch := range watchers {
		select {
		case ch <- rec:
		default:
			// Subscriber fell behind; drop rather than block the writer.
		}
	}
	return nil
}

// QueryRange returns the player's rows with lo <= timestamp <= hi, ordered
// by timestamp.
func (s *Store) QueryRange(ctx context.Context, player, lo, hi string) ([]hiscores.Record, error) {
	prefix := player + keySeparator

	s.mu.RLock()
	var encoded []string
	for k := range s.rows {
		if !strings.HasPrefix(k, prefix) {
			continue
		}
		ts := strings.TrimPrefix(k, prefix)
		if ts < lo || ts > hi {
			continue
		}
		encoded = append(encoded, k)
	}
	sort.Strings(encoded)

	results := make([]hiscores.Record, 0, len(encoded))
	for _, k := range encoded {
		var rec hiscores.Record
		if err := json.Unmarshal(s.rows[k], &rec); err != nil {
			s.mu.RUnlock()
			return nil, err
		}
		results = append(results, rec)
	}
	s.mu.RUnlock()

	return results, nil
}

// Watch invokes fn for every subsequent Put until ctx is done or fn
// returns an error.
func (s *Store) Watch(ctx context.Context, fn func(recs []hiscores.Record) error) error {
	ch := make(chan hiscores.Record, 1024)

	s.mu.Lock()
	s.watchers = append(s.watchers, ch)
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		for i, w := range s.watchers {
			if w == ch {
				s.watchers = append(s.watchers[:i], s.watchers[i+1:]...)
				break
			}
		}
		s.mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case rec := <-ch:
			if err := fn([]hiscores.Record{rec}); err != nil {
				return err
			}
		}
	}
}

// Stats returns storage statistics.
func (s *Store) Stats(ctx context.Context) (*storage.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &storage.Stats{TotalRows: uint64(len(s.rows))}

	players := make(map[string]bool)
	for k := range s.rows {
		player, ts, ok := strings.Cut(k, keySeparator)
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
	stats.TotalPlayers = uint64(len(players))

	return stats, nil
}

// Close is a no-op for memory storage.
func (s *Store) Close() error {
	return nil
}
