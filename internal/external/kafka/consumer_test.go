//go:build !integration

package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReader struct {
	mu         sync.Mutex
	pending    []kafka.Message
	committed  []kafka.Message
	commitErrs []error
}

func newFakeReader(keys ...string) *fakeReader {
	r := &fakeReader{}
	for i, k := range keys {
		r.pending = append(r.pending, kafka.Message{Topic: "t", Partition: 0, Offset: int64(i), Key: []byte(k)})
	}
	return r
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if len(r.pending) > 0 {
		msg := r.pending[0]
		r.pending = r.pending[1:]
		r.mu.Unlock()
		return msg, nil
	}
	r.mu.Unlock()

	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *fakeReader) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.committed = append(r.committed, msgs...)
	r.commitErrs = append(r.commitErrs, ctx.Err())
	return nil
}

func (r *fakeReader) Config() kafka.ReaderConfig {
	return kafka.ReaderConfig{Topic: "t", GroupID: "g"}
}

func (r *fakeReader) Close() error { return nil }

func (r *fakeReader) committedOffsets() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	offsets := make([]int64, 0, len(r.committed))
	for _, m := range r.committed {
		offsets = append(offsets, m.Offset)
	}
	return offsets
}

type recordingHandler struct {
	mu    sync.Mutex
	calls []string
	fail  func(key string, attempt int) error
}

func (h *recordingHandler) handle(_ context.Context, key, _ []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls = append(h.calls, string(key))

	attempt := 0
	for _, c := range h.calls {
		if c == string(key) {
			attempt++
		}
	}
	if h.fail != nil {
		return h.fail(string(key), attempt)
	}
	return nil
}

func (h *recordingHandler) callCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.calls)
}

func startConsumer(t *testing.T, reader *fakeReader, h *recordingHandler) (context.CancelFunc, <-chan error) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- newConsumer(reader, time.Millisecond, 5*time.Millisecond).Start(ctx, h.handle)
	}()
	return cancel, done
}

func waitStopped(t *testing.T, done <-chan error) {
	t.Helper()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("consumer did not stop")
	}
}

func TestConsumer_FailedMessageIsNotSkipped(t *testing.T) {
	reader := newFakeReader("a", "b")
	h := &recordingHandler{fail: func(key string, attempt int) error {
		if key == "a" && attempt < 3 {
			return errors.New("dlq unavailable")
		}
		return nil
	}}

	cancel, done := startConsumer(t, reader, h)
	require.Eventually(t, func() bool { return len(reader.committedOffsets()) == 2 }, 5*time.Second, time.Millisecond)
	cancel()
	waitStopped(t, done)

	assert.Equal(t, []string{"a", "a", "a", "b"}, h.calls)
	assert.Equal(t, []int64{0, 1}, reader.committedOffsets())
}

func TestConsumer_CancelLeavesFailedMessageUncommitted(t *testing.T) {
	reader := newFakeReader("a", "b")
	h := &recordingHandler{fail: func(key string, _ int) error {
		if key == "a" {
			return errors.New("dlq unavailable")
		}
		return nil
	}}

	cancel, done := startConsumer(t, reader, h)
	require.Eventually(t, func() bool { return h.callCount() >= 2 }, 5*time.Second, time.Millisecond)
	cancel()
	waitStopped(t, done)

	assert.Empty(t, reader.committedOffsets())
	assert.NotContains(t, h.calls, "b")
}

func TestConsumer_CommitsAfterShutdownStarts(t *testing.T) {
	reader := newFakeReader("a")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	err := newConsumer(reader, time.Millisecond, time.Millisecond).Start(ctx, func(context.Context, []byte, []byte) error {
		cancel()
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, []int64{0}, reader.committedOffsets())
	assert.Equal(t, []error{nil}, reader.commitErrs)
}
