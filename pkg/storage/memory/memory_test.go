package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/skillwatch/skillwatch/pkg/hiscores"
	"github.com/skillwatch/skillwatch/pkg/stats"
)

func record(player, timestamp string, xp int64) hiscores.Record {
	return hiscores.Record{
		Player:    player,
		Timestamp: timestamp,
		Metrics:   stats.Branch{"xp": stats.Leaf(xp)},
	}
}

func TestPutGet(t *testing.T) {
	store := New()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, record("zezima", "2021-12-18 10:00:00", 100)))

	rec, ok, err := store.Get(ctx, "zezima", "2021-12-18 10:00:00")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "zezima", rec.Player)
	require.Equal(t, stats.Leaf(100), rec.Metrics["xp"])

	_, ok, err = store.Get(ctx, "zezima", "2021-12-18 11:00:00")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestPutOverwrites(t *testing.T) {
	store := New()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, record("zezima", "2021-12-18 10:00:00", 100)))
	require.NoError(t, store.Put(ctx, record("zezima", "2021-12-18 10:00:00", 200)))

	rec, _, err := store.Get(ctx, "zezima", "2021-12-18 10:00:00")
	require.NoError(t, err)
	require.Equal(t, stats.Leaf(200), rec.Metrics["xp"])
}

func TestQueryRangeInclusiveAndOrdered(t *testing.T) {
	store := New()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, record("zezima", "2021-12-17 10:00:00", 1)))
	require.NoError(t, store.Put(ctx, record("zezima", "2021-12-18 10:00:00", 2)))
	require.NoError(t, store.Put(ctx, record("zezima", "2021-12-19 10:00:00", 3)))
	require.NoError(t, store.Put(ctx, record("other", "2021-12-18 10:00:00", 9)))

	recs, err := store.QueryRange(ctx, "zezima", "2021-12-17 10:00:00", "2021-12-18 10:00:00")
	require.NoError(t, err)
	require.Len(t, recs, 2)
	require.Equal(t, "2021-12-17 10:00:00", recs[0].Timestamp)
	require.Equal(t, "2021-12-18 10:00:00", recs[1].Timestamp)
}

func TestGetReturnsIndependentCopies(t *testing.T) {
	store := New()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, record("zezima", "2021-12-18 10:00:00", 100)))

	rec, _, err := store.Get(ctx, "zezima", "2021-12-18 10:00:00")
	require.NoError(t, err)
	rec.Metrics["xp"] = stats.Leaf(999)

	again, _, err := store.Get(ctx, "zezima", "2021-12-18 10:00:00")
	require.NoError(t, err)
	require.Equal(t, stats.Leaf(100), again.Metrics["xp"])
}

func TestWatchDeliversWrites(t *testing.T) {
	store := New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan hiscores.Record, 1)
	done := make(chan error, 1)
	go func() {
		done <- store.Watch(ctx, func(recs []hiscores.Record) error {
			for _, rec := range recs {
				got <- rec
			}
			return nil
		})
	}()

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, store.Put(ctx, record("zezima", "2021-12-18 10:00:00", 100)))

	select {
	case rec := <-got:
		require.Equal(t, "zezima", rec.Player)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher never delivered the write")
	}

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
}

func TestStats(t *testing.T) {
	store := New()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, record("zezima", "2021-12-17 10:00:00", 1)))
	require.NoError(t, store.Put(ctx, record("zezima", "2021-12-19 10:00:00", 3)))
	require.NoError(t, store.Put(ctx, record("other", "2021-12-18 10:00:00", 2)))

	st, err := store.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(3), st.TotalRows)
	require.Equal(t, uint64(2), st.TotalPlayers)
	require.Equal(t, "2021-12-17 10:00:00", st.OldestRow)
	require.Equal(t, "2021-12-19 10:00:00", st.NewestRow)
}
