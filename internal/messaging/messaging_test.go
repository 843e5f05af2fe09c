//go:build !integration

package messaging

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestNewEnvelope(t *testing.T) {
	raw := []byte(`{"event":"crypto.deposit.updated",  "timestamp":"1","data":{}}`)

	env, err := NewEnvelope("d-1", "crypto.deposit.updated", raw)
	require.NoError(t, err)

	assert.NotEmpty(t, env.EventID)
	assert.Equal(t, "d-1", env.Key)
	assert.Equal(t, raw, []byte(env.Payload), "payload bytes are kept verbatim")
	assert.False(t, env.Timestamp.IsZero())

	_, err = NewEnvelope("k", "t", []byte(`{not json`))
	assert.ErrorIs(t, err, ErrInvalidEnvelope)
}

func TestDecodeEnvelope(t *testing.T) {
	_, err := DecodeEnvelope([]byte(`garbage`))
	assert.ErrorIs(t, err, ErrInvalidEnvelope)

	_, err = DecodeEnvelope([]byte(`{"event_id":"1","key":"k"}`))
	assert.ErrorIs(t, err, ErrInvalidEnvelope)

	env, err := DecodeEnvelope([]byte(`{"event_id":"1","key":"k","type":"fiat.deposit.updated","payload":{"a":1},"timestamp":"2025-01-01T00:00:00Z"}`))
	require.NoError(t, err)
	assert.Equal(t, "fiat.deposit.updated", env.Type)
	assert.JSONEq(t, `{"a":1}`, string(env.Payload))
}

func fastRetry(attempts int) RetryConfig {
	return RetryConfig{MaxAttempts: attempts, InitialBackoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond}
}

func TestWithRetry(t *testing.T) {
	ctx := context.Background()

	t.Run("succeeds after transient failures", func(t *testing.T) {
		var calls atomic.Int32
		h := WithRetry(func(context.Context, []byte, []byte) error {
			if calls.Add(1) < 3 {
				return errors.New("db down")
			}
			return nil
		}, fastRetry(3))

		assert.NoError(t, h(ctx, nil, nil))
		assert.Equal(t, int32(3), calls.Load())
	})

	t.Run("gives up after max attempts", func(t *testing.T) {
		var calls atomic.Int32
		cause := errors.New("db down")
		h := WithRetry(func(context.Context, []byte, []byte) error {
			calls.Add(1)
			return cause
		}, fastRetry(2))

		err := h(ctx, nil, nil)
		assert.ErrorIs(t, err, ErrMaxRetriesExceeded)
		assert.ErrorIs(t, err, cause)
		assert.Equal(t, int32(2), calls.Load())
	})

	t.Run("stops on non-retryable error", func(t *testing.T) {
		var calls atomic.Int32
		permanent := errors.New("bad payload")
		cfg := fastRetry(5)
		cfg.Retryable = func(err error) bool { return !errors.Is(err, permanent) }

		h := WithRetry(func(context.Context, []byte, []byte) error {
			calls.Add(1)
			return permanent
		}, cfg)

		err := h(ctx, nil, nil)
		assert.Same(t, permanent, err)
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("honours cancellation while backing off", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		h := WithRetry(func(context.Context, []byte, []byte) error {
			cancel()
			return errors.New("fail")
		}, RetryConfig{MaxAttempts: 3, InitialBackoff: time.Hour, MaxBackoff: time.Hour})

		assert.ErrorIs(t, h(cctx, nil, nil), context.Canceled)
	})
}

type recordingDLQ struct {
	key, value []byte
	cause      error
	ctxErr     error
	fail       error
}

func (d *recordingDLQ) PublishToDLQ(ctx context.Context, key, value []byte, err error) error {
	d.key, d.value, d.cause, d.ctxErr = key, value, err, ctx.Err()
	return d.fail
}

func TestWithDLQ(t *testing.T) {
	cause := errors.New("handler failed")
	failing := func(context.Context, []byte, []byte) error { return cause }

	t.Run("publishes failure and swallows error", func(t *testing.T) {
		dlq := &recordingDLQ{}

		err := WithDLQ(failing, dlq)(context.Background(), []byte("k"), []byte("v"))

		assert.NoError(t, err)
		assert.Equal(t, []byte("k"), dlq.key)
		assert.Equal(t, []byte("v"), dlq.value)
		assert.Same(t, cause, dlq.cause)
	})

	t.Run("survives cancelled consumer context", func(t *testing.T) {
		dlq := &recordingDLQ{}
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		assert.NoError(t, WithDLQ(failing, dlq)(ctx, nil, nil))
		assert.NoError(t, dlq.ctxErr)
	})

	t.Run("keeps error when dlq write fails", func(t *testing.T) {
		dlq := &recordingDLQ{fail: errors.New("broker down")}

		err := WithDLQ(failing, dlq)(context.Background(), nil, nil)

		assert.ErrorIs(t, err, cause)
		assert.ErrorIs(t, err, dlq.fail)
	})

	t.Run("success bypasses dlq", func(t *testing.T) {
		dlq := &recordingDLQ{}

		err := WithDLQ(func(context.Context, []byte, []byte) error { return nil }, dlq)(context.Background(), nil, nil)

		assert.NoError(t, err)
		assert.Nil(t, dlq.cause)
	})
}

func TestWithMetrics_PassesThrough(t *testing.T) {
	cause := errors.New("x")
	h := WithMetrics(func(context.Context, []byte, []byte) error { return cause }, "topic", "group")

	assert.Same(t, cause, h(context.Background(), nil, nil))
}

func TestRunner(t *testing.T) {
	t.Run("returns nil on cancellation and closes workers", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		ctx, cancel := context.WithCancel(context.Background())

		workers := make([]Worker, 2)
		for i := range workers {
			w := NewMockWorker(ctrl)
			w.EXPECT().Start(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, _ MessageHandler) error {
				<-ctx.Done()
				return ctx.Err()
			})
			w.EXPECT().Close().Return(nil)
			workers[i] = w
		}

		done := make(chan error, 1)
		go func() { done <- NewRunner(workers, nil).Start(ctx) }()

		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("runner did not stop")
		}
	})

	t.Run("worker failure stops the others", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		boom := errors.New("fetch failed")

		failing := NewMockWorker(ctrl)
		failing.EXPECT().Start(gomock.Any(), gomock.Any()).Return(boom)
		failing.EXPECT().Close().Return(nil)

		blocking := NewMockWorker(ctrl)
		blocking.EXPECT().Start(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, _ MessageHandler) error {
			<-ctx.Done()
			return nil
		})
		blocking.EXPECT().Close().Return(nil)

		err := NewRunner([]Worker{failing, blocking}, nil).Start(context.Background())

		assert.ErrorIs(t, err, boom)
	})

	t.Run("recovers panics", func(t *testing.T) {
		ctrl := gomock.NewController(t)

		w := NewMockWorker(ctrl)
		w.EXPECT().Start(gomock.Any(), gomock.Any()).DoAndReturn(func(context.Context, MessageHandler) error {
			panic("boom")
		})
		w.EXPECT().Close().Return(nil)

		err := NewRunner([]Worker{w}, nil).Start(context.Background())

		assert.ErrorContains(t, err, "panicked")
	})
}
