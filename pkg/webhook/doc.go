// Package webhook verifies and dispatches inbound KeshPay webhook deliveries.
//
// A delivery is the raw request body plus the X-Signature header. The
// signature is the lowercase hex HMAC-SHA256 of the raw body keyed with the
// webhook secret, so verification must run on the bytes exactly as received,
// before any parsing.
//
//	p, err := webhook.NewProcessor(secret)
//	if err != nil {
//	    return err
//	}
//	p.RegisterHandler(webhook.EventCryptoDepositUpdated, func(ctx context.Context, e webhook.Event) error {
//	    slog.InfoContext(ctx, "deposit updated", "deposit_id", e.String("depositId"))
//	    return nil
//	})
//
//	event, err := p.Process(ctx, body, r.Header.Get(webhook.HeaderSignature), true)
//	switch {
//	case errors.Is(err, webhook.ErrVerification):
//	    // 401
//	case errors.Is(err, webhook.ErrInvalidPayload):
//	    // 400
//	case err != nil:
//	    // 500, the handler failed
//	}
//
// Handlers run synchronously: Process returns only after the handler returns,
// and a handler error is returned to the caller unchanged. Events without a
// registered handler are accepted and returned without dispatch.
//
// Process keeps no state between calls. There is no replay protection: a
// captured delivery with a valid signature is accepted again.
package webhook
