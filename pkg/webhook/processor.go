package webhook

import (
	"context"
	"log/slog"
	"sync"
)

// Handler processes one event. Any asynchronous work it starts must be
// finished before it returns.
type Handler func(ctx context.Context, event Event) error

// Option configures a Processor.
type Option func(*Processor)

// AllowMissingSignature makes Process skip verification when validation is
// requested but the signature is empty, instead of failing with
// ErrMissingSignature.
func AllowMissingSignature() Option {
	return func(p *Processor) {
		p.allowMissingSignature = true
	}
}

// Processor verifies deliveries and routes them to handlers by event type.
// It is safe for concurrent use; registering every handler before serving
// traffic is still recommended.
type Processor struct {
	secret                []byte
	allowMissingSignature bool

	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewProcessor creates a Processor bound to secret.
func NewProcessor(secret string, opts ...Option) (*Processor, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}

	p := &Processor{
		secret:   []byte(secret),
		handlers: make(map[string]Handler),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// RegisterHandler routes eventType to h, replacing any previous handler.
func (p *Processor) RegisterHandler(eventType string, h Handler) {
	if h == nil {
		panic("webhook: nil handler for " + eventType)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.handlers[eventType] = h
}

// ListHandlers returns a copy of the registry.
func (p *Processor) ListHandlers() map[string]Handler {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make(map[string]Handler, len(p.handlers))
	for k, v := range p.handlers {
		out[k] = v
	}
	return out
}

// ValidateSignature checks signature against the HMAC of the raw payload.
func (p *Processor) ValidateSignature(payload []byte, signature string) error {
	if !equalSignatures(sign(p.secret, payload), signature) {
		return ErrInvalidSignature
	}
	return nil
}

// Verify reports whether signature matches payload.
func (p *Processor) Verify(payload []byte, signature string) bool {
	return p.ValidateSignature(payload, signature) == nil
}

// Process verifies payload (when validate is set), parses it and invokes the
// handler registered for its event type. The returned error is either a
// verification error, a payload error, or the handler's own error unchanged.
func (p *Processor) Process(ctx context.Context, payload []byte, signature string, validate bool) (Event, error) {
	if validate {
		if err := p.verify(payload, signature); err != nil {
			slog.WarnContext(ctx, "Webhook signature rejected", slog.Any("error", err))
			return Event{}, err
		}
	}

	event, err := ParseEvent(payload)
	if err != nil {
		return Event{}, err
	}

	p.mu.RLock()
	h, ok := p.handlers[event.Type]
	p.mu.RUnlock()

	if !ok {
		slog.DebugContext(ctx, "No handler registered for webhook event", "event", event.Type)
		return event, nil
	}

	if err := h(ctx, event); err != nil {
		return Event{}, err
	}

	slog.DebugContext(ctx, "Webhook event dispatched", "event", event.Type)
	return event, nil
}

func (p *Processor) verify(payload []byte, signature string) error {
	if signature == "" {
		if p.allowMissingSignature {
			return nil
		}
		return ErrMissingSignature
	}
	return p.ValidateSignature(payload, signature)
}
