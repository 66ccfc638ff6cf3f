package ingest

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/skillwatch/skillwatch/pkg/stats"
	"github.com/skillwatch/skillwatch/pkg/storage/memory"
)

func postRecord(t *testing.T, handler *Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/records", bytes.NewReader([]byte(body)))
	rr := httptest.NewRecorder()
	handler.HandleInsert(rr, req)
	return rr
}

func TestHandleInsertStoresRow(t *testing.T) {
	store := memory.New()
	handler := NewHandler(store)

	rr := postRecord(t, handler,
		`{"player": "zezima", "timestamp": "2021-12-18 10:00:00", "metrics": {"skills": {"Overall": {"xp": 100}}}}`)
	require.Equal(t, http.StatusOK, rr.Code)

	rec, ok, err := store.Get(context.Background(), "zezima", "2021-12-18 10:00:00")
	require.NoError(t, err)
	require.True(t, ok)

	skills := rec.Metrics["skills"].(stats.Branch)
	require.Equal(t, stats.Leaf(100), skills["Overall"].(stats.Branch)["xp"])
}

func TestHandleInsertRejectsInvalidJSON(t *testing.T) {
	handler := NewHandler(memory.New())

	rr := postRecord(t, handler, `{"player": `)
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandleInsertRejectsInvalidRecords(t *testing.T) {
	handler := NewHandler(memory.New())

	for name, body := range map[string]string{
		"empty player":        `{"player": "", "timestamp": "2021-12-18 10:00:00", "metrics": {"xp": 1}}`,
		"reserved character":  `{"player": "ze#zima", "timestamp": "2021-12-18 10:00:00", "metrics": {"xp": 1}}`,
		"date only timestamp": `{"player": "zezima", "timestamp": "2021-12-18", "metrics": {"xp": 1}}`,
		"bucket label":        `{"player": "zezima", "timestamp": "Daily#2021-12-18", "metrics": {"xp": 1}}`,
		"empty metrics":       `{"player": "zezima", "timestamp": "2021-12-18 10:00:00", "metrics": {}}`,
		"fractional leaf":     `{"player": "zezima", "timestamp": "2021-12-18 10:00:00", "metrics": {"xp": 1.5}}`,
	} {
		rr := postRecord(t, handler, body)
		require.Equal(t, http.StatusBadRequest, rr.Code, "case %q", name)
	}
}

type captureBroadcaster struct {
	got []any
}

func (c *captureBroadcaster) Broadcast(v any) error { c.got = append(c.got, v); return nil }
func (c *captureBroadcaster) HasClients() bool      { return true }

func TestHandleInsertBroadcastsToLiveClients(t *testing.T) {
	handler := NewHandler(memory.New())
	hub := &captureBroadcaster{}
	handler.SetBroadcaster(hub)

	rr := postRecord(t, handler,
		`{"player": "zezima", "timestamp": "2021-12-18 10:00:00", "metrics": {"xp": 100}}`)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Len(t, hub.got, 1)
}
