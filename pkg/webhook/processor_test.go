package webhook

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSecret  = "whsec_test"
	testPayload = `{"event":"crypto.deposit.updated","timestamp":"2025-01-01T00:00:00Z","data":{"depositId":"d1","status":"CONFIRMED"}}`
)

func newTestProcessor(t *testing.T, opts ...Option) *Processor {
	t.Helper()

	p, err := NewProcessor(testSecret, opts...)
	require.NoError(t, err)
	return p
}

func TestNewProcessor(t *testing.T) {
	_, err := NewProcessor("")
	assert.ErrorIs(t, err, ErrMissingSecret)
}

func TestProcessor_ValidateSignature(t *testing.T) {
	p := newTestProcessor(t)
	payload := []byte(testPayload)
	valid := Sign(testSecret, payload)

	t.Run("accepts hmac of the raw payload", func(t *testing.T) {
		assert.NoError(t, p.ValidateSignature(payload, valid))
		assert.True(t, p.Verify(payload, valid))
	})

	t.Run("rejects every single-bit flip of the signature", func(t *testing.T) {
		for i := 0; i < len(valid); i++ {
			for bit := 0; bit < 8; bit++ {
				flipped := []byte(valid)
				flipped[i] ^= 1 << bit

				err := p.ValidateSignature(payload, string(flipped))
				require.ErrorIs(t, err, ErrInvalidSignature, "byte %d bit %d", i, bit)
			}
		}
	})

	t.Run("rejects a single-bit flip of the payload", func(t *testing.T) {
		tampered := []byte(testPayload)
		tampered[10] ^= 1

		assert.ErrorIs(t, p.ValidateSignature(tampered, valid), ErrInvalidSignature)
		assert.False(t, p.Verify(tampered, valid))
	})

	t.Run("rejects signature from another secret", func(t *testing.T) {
		assert.ErrorIs(t, p.ValidateSignature(payload, Sign("other", payload)), ErrInvalidSignature)
	})

	t.Run("rejects uppercase hex", func(t *testing.T) {
		upper := []byte(valid)
		for i, c := range upper {
			if c >= 'a' && c <= 'f' {
				upper[i] = c - 'a' + 'A'
			}
		}
		assert.ErrorIs(t, p.ValidateSignature(payload, string(upper)), ErrInvalidSignature)
	})
}

func TestProcessor_Process(t *testing.T) {
	ctx := context.Background()
	payload := []byte(testPayload)

	t.Run("verifies and dispatches the matching handler exactly once", func(t *testing.T) {
		p := newTestProcessor(t)

		var calls int
		var got Event
		p.RegisterHandler("crypto.deposit.updated", func(_ context.Context, e Event) error {
			calls++
			got = e
			return nil
		})

		event, err := p.Process(ctx, payload, Sign(testSecret, payload), true)

		require.NoError(t, err)
		assert.Equal(t, 1, calls)
		assert.Equal(t, "crypto.deposit.updated", event.Type)
		assert.Equal(t, "2025-01-01T00:00:00Z", event.Timestamp)
		assert.Equal(t, "d1", got.String("depositId"))
		assert.Equal(t, "CONFIRMED", got.Data["status"])
		assert.Equal(t, event, got)
	})

	t.Run("altered signature fails as verification error, not payload error", func(t *testing.T) {
		p := newTestProcessor(t)
		called := false
		p.RegisterHandler("crypto.deposit.updated", func(context.Context, Event) error {
			called = true
			return nil
		})

		sig := []byte(Sign(testSecret, payload))
		if sig[0] == 'a' {
			sig[0] = 'b'
		} else {
			sig[0] = 'a'
		}

		_, err := p.Process(ctx, payload, string(sig), true)

		assert.ErrorIs(t, err, ErrVerification)
		assert.ErrorIs(t, err, ErrInvalidSignature)
		assert.NotErrorIs(t, err, ErrInvalidPayload)
		assert.False(t, called)
	})

	t.Run("signature covers raw bytes, not a re-serialized form", func(t *testing.T) {
		p := newTestProcessor(t)
		spaced := []byte(`{ "event": "crypto.deposit.updated", "timestamp": "t", "data": {"b": 1, "a": 2} }`)

		_, err := p.Process(ctx, spaced, Sign(testSecret, spaced), true)

		assert.NoError(t, err)
	})

	t.Run("validate=false never verifies even with a bogus signature", func(t *testing.T) {
		p := newTestProcessor(t)

		event, err := p.Process(ctx, payload, "bogus", false)

		require.NoError(t, err)
		assert.Equal(t, "crypto.deposit.updated", event.Type)
	})

	t.Run("missing signature with validation requested is rejected", func(t *testing.T) {
		p := newTestProcessor(t)

		_, err := p.Process(ctx, payload, "", true)

		assert.ErrorIs(t, err, ErrMissingSignature)
		assert.ErrorIs(t, err, ErrVerification)
	})

	t.Run("missing signature is skipped when allowed", func(t *testing.T) {
		p := newTestProcessor(t, AllowMissingSignature())

		event, err := p.Process(ctx, payload, "", true)

		require.NoError(t, err)
		assert.Equal(t, "crypto.deposit.updated", event.Type)

		_, err = p.Process(ctx, payload, "deadbeef", true)
		assert.ErrorIs(t, err, ErrInvalidSignature, "a present signature is still checked")
	})

	t.Run("unregistered event type is returned without error", func(t *testing.T) {
		p := newTestProcessor(t)
		p.RegisterHandler("fiat.deposit.updated", func(context.Context, Event) error {
			t.Fatal("handler for another event type must not run")
			return nil
		})

		event, err := p.Process(ctx, payload, Sign(testSecret, payload), true)

		require.NoError(t, err)
		assert.Equal(t, "crypto.deposit.updated", event.Type)
		assert.Equal(t, "d1", event.String("depositId"))
	})

	t.Run("handler error propagates unchanged", func(t *testing.T) {
		p := newTestProcessor(t)
		handlerErr := errors.New("ledger unavailable")
		p.RegisterHandler("crypto.deposit.updated", func(context.Context, Event) error {
			return handlerErr
		})

		_, err := p.Process(ctx, payload, Sign(testSecret, payload), true)

		assert.Same(t, handlerErr, err)
	})

	t.Run("process waits for asynchronous handler work and surfaces its error", func(t *testing.T) {
		p := newTestProcessor(t)
		asyncErr := errors.New("async failure")
		var finished atomic.Bool

		p.RegisterHandler("crypto.deposit.updated", func(ctx context.Context, e Event) error {
			errCh := make(chan error, 1)
			go func() {
				time.Sleep(20 * time.Millisecond)
				finished.Store(true)
				errCh <- asyncErr
			}()
			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
				return ctx.Err()
			}
		})

		_, err := p.Process(ctx, payload, Sign(testSecret, payload), true)

		assert.Same(t, asyncErr, err)
		assert.True(t, finished.Load(), "Process returned before the handler finished")
	})

	t.Run("context reaches the handler", func(t *testing.T) {
		p := newTestProcessor(t)
		type key struct{}
		reqCtx := context.WithValue(ctx, key{}, "delivery-1")

		p.RegisterHandler("crypto.deposit.updated", func(ctx context.Context, _ Event) error {
			assert.Equal(t, "delivery-1", ctx.Value(key{}))
			return nil
		})

		_, err := p.Process(reqCtx, payload, "", false)
		assert.NoError(t, err)
	})

	t.Run("malformed payloads are payload errors", func(t *testing.T) {
		p := newTestProcessor(t)
		testCases := []struct {
			name    string
			payload string
		}{
			{name: "not json", payload: `event=crypto.deposit.updated`},
			{name: "json array", payload: `[1,2,3]`},
			{name: "missing event", payload: `{"timestamp":"t","data":{}}`},
			{name: "missing timestamp", payload: `{"event":"e","data":{}}`},
			{name: "missing data", payload: `{"event":"e","timestamp":"t"}`},
			{name: "null data", payload: `{"event":"e","timestamp":"t","data":null}`},
			{name: "data not an object", payload: `{"event":"e","timestamp":"t","data":"x"}`},
			{name: "event not a string", payload: `{"event":1,"timestamp":"t","data":{}}`},
			{name: "empty body", payload: ``},
		}

		for _, tc := range testCases {
			t.Run(tc.name, func(t *testing.T) {
				body := []byte(tc.payload)

				_, err := p.Process(ctx, body, Sign(testSecret, body), true)

				assert.ErrorIs(t, err, ErrInvalidPayload)
				assert.NotErrorIs(t, err, ErrVerification)
			})
		}
	})

	t.Run("empty data object is valid", func(t *testing.T) {
		p := newTestProcessor(t)

		event, err := p.Process(ctx, []byte(`{"event":"e","timestamp":"1735689600","data":{}}`), "", false)

		require.NoError(t, err)
		assert.Empty(t, event.Data)
	})

	t.Run("calls are independent", func(t *testing.T) {
		p := newTestProcessor(t)
		var count atomic.Int32
		p.RegisterHandler("crypto.deposit.updated", func(context.Context, Event) error {
			count.Add(1)
			return nil
		})

		for i := 0; i < 3; i++ {
			_, err := p.Process(ctx, payload, Sign(testSecret, payload), true)
			require.NoError(t, err)
		}
		assert.EqualValues(t, 3, count.Load(), "identical deliveries are all dispatched")
	})
}

func TestProcessor_RegisterHandler(t *testing.T) {
	t.Run("overwrites existing handler", func(t *testing.T) {
		p := newTestProcessor(t)
		var which string
		p.RegisterHandler("crypto.deposit.updated", func(context.Context, Event) error {
			which = "first"
			return nil
		})
		p.RegisterHandler("crypto.deposit.updated", func(context.Context, Event) error {
			which = "second"
			return nil
		})

		_, err := p.Process(context.Background(), []byte(testPayload), "", false)

		require.NoError(t, err)
		assert.Equal(t, "second", which)
		assert.Len(t, p.ListHandlers(), 1)
	})

	t.Run("panics on nil handler", func(t *testing.T) {
		p := newTestProcessor(t)
		assert.Panics(t, func() { p.RegisterHandler("x", nil) })
	})
}

func TestProcessor_ListHandlers(t *testing.T) {
	p := newTestProcessor(t)
	noop := func(context.Context, Event) error { return nil }
	p.RegisterHandler("crypto.deposit.updated", noop)
	p.RegisterHandler("fiat.deposit.updated", noop)

	snapshot := p.ListHandlers()
	require.Len(t, snapshot, 2)
	assert.Contains(t, snapshot, "crypto.deposit.updated")
	assert.Contains(t, snapshot, "fiat.deposit.updated")

	delete(snapshot, "fiat.deposit.updated")
	snapshot["injected"] = noop

	assert.Len(t, p.ListHandlers(), 2, "snapshot is not a live view")
	assert.NotContains(t, p.ListHandlers(), "injected")
}

func TestProcessor_Concurrent(t *testing.T) {
	p := newTestProcessor(t)
	var count atomic.Int64
	p.RegisterHandler("crypto.deposit.updated", func(context.Context, Event) error {
		count.Add(1)
		return nil
	})

	payload := []byte(testPayload)
	sig := Sign(testSecret, payload)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := p.Process(context.Background(), payload, sig, true)
			assert.NoError(t, err)
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		p.RegisterHandler("fiat.deposit.updated", func(context.Context, Event) error { return nil })
	}()
	wg.Wait()

	assert.EqualValues(t, 50, count.Load())
}
