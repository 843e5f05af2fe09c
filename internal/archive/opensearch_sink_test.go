//go:build !integration

package archive

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeOpenSearch implements the index endpoints used by OpenSearchSink.
type fakeOpenSearch struct {
	mu      sync.Mutex
	indices map[string]bool
	docs    map[string][]byte
}

func newFakeOpenSearch(t *testing.T) (*fakeOpenSearch, *httptest.Server) {
	f := &fakeOpenSearch{indices: map[string]bool{}, docs: map[string][]byte{}}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeOpenSearch) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	const index = "/events"

	switch {
	case r.Method == http.MethodHead && r.URL.Path == index:
		if !f.indices["events"] {
			w.WriteHeader(http.StatusNotFound)
		}
	case r.Method == http.MethodPut && r.URL.Path == index:
		f.indices["events"] = true
		_, _ = w.Write([]byte(`{"acknowledged":true}`))
	case r.Method == http.MethodPut && len(r.URL.Path) > len("/events/_doc/"):
		id := r.URL.Path[len("/events/_doc/"):]
		if r.URL.Query().Get("op_type") == "create" {
			if _, exists := f.docs[id]; exists {
				w.WriteHeader(http.StatusConflict)
				_, _ = w.Write([]byte(`{"error":{"type":"version_conflict_engine_exception"},"status":409}`))
				return
			}
		}
		body, _ := io.ReadAll(r.Body)
		f.docs[id] = body
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"result":"created"}`))
	default:
		w.WriteHeader(http.StatusBadRequest)
	}
}

func TestOpenSearchSink(t *testing.T) {
	fake, srv := newFakeOpenSearch(t)
	ctx := context.Background()

	client, err := NewOpenSearchClient([]string{srv.URL})
	require.NoError(t, err)

	sink, err := NewOpenSearchSink(ctx, client, "events")
	require.NoError(t, err)
	assert.True(t, fake.indices["events"], "index created on start")

	record, err := NewRecord(depositEvent())
	require.NoError(t, err)
	record.ReceivedAt = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, sink.Store(ctx, record))

	var doc map[string]any
	require.NoError(t, json.Unmarshal(fake.docs[record.ID], &doc))
	assert.Equal(t, record.ID, doc["record_id"])
	assert.Equal(t, "d-1", doc["resource_id"])
	assert.Equal(t, "crypto.deposit.updated", doc["event_type"])

	assert.ErrorIs(t, sink.Store(ctx, record), ErrDuplicate)

	_, err = NewOpenSearchSink(ctx, client, "events")
	assert.NoError(t, err, "existing index is reused")
}

func TestNewOpenSearchClient_NoAddresses(t *testing.T) {
	_, err := NewOpenSearchClient(nil)
	assert.Error(t, err)
}
