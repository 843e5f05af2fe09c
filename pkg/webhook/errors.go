package webhook

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingSecret is returned by NewProcessor when the secret is empty.
	ErrMissingSecret = errors.New("webhook: secret is required")

	// ErrVerification is the umbrella for every signature failure.
	// Callers map it to 401.
	ErrVerification = errors.New("webhook verification failed")

	// ErrInvalidSignature is returned when the signature does not match the payload.
	ErrInvalidSignature = fmt.Errorf("%w: invalid signature", ErrVerification)

	// ErrMissingSignature is returned when validation is requested but no signature was supplied.
	ErrMissingSignature = fmt.Errorf("%w: missing signature", ErrVerification)

	// ErrInvalidPayload is returned when the body is not a valid event envelope.
	// Callers map it to 400.
	ErrInvalidPayload = errors.New("invalid webhook payload")
)
