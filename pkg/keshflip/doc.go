// Package keshflip provides a client for the KeshPay crypto and fiat payments API.
//
// # Authentication
//
// Every request is signed by pkg/auth: the X-Signature header carries the
// HMAC-SHA256 of "METHOD|PATH|TIMESTAMP|BODY" keyed with the API secret,
// alongside X-API-Key and X-Timestamp. The client marshals a request body
// exactly once and signs and sends those same bytes.
//
// # Basic Usage
//
//	client, err := keshflip.New(keshflip.Config{
//	    APIKey:    "your-api-key",
//	    APISecret: "your-api-secret",
//	    PartnerID: "your-partner-id",
//	})
//
//	deposit, err := client.Crypto.Deposits.Create(ctx, keshflip.CreateCryptoDepositParams{
//	    Asset:          "USDC",
//	    ChainID:        "1",
//	    Amount:         "100.00",
//	    IdempotencyKey: keshflip.NewIdempotencyKey("deposit"),
//	})
//
// # Error Handling
//
// Failed calls return *Error. Its Kind is one of ErrAuthentication,
// ErrValidation, ErrAPI or ErrNetwork:
//
//	_, err := client.Crypto.Withdrawals.Create(ctx, params)
//	switch {
//	case errors.Is(err, keshflip.ErrValidation):
//	    // fix the request
//	case errors.Is(err, keshflip.ErrNetwork):
//	    // safe to retry with the same idempotency key
//	}
//
// # Webhooks
//
// Client.Webhooks is a *webhook.Processor keyed with Config.WebhookSecret
// (the API secret when unset). See package webhook.
package keshflip
