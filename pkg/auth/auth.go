// Package auth signs outbound KeshPay API requests.
//
// Every request carries three headers: the API key, an HMAC-SHA256 signature
// and the Unix timestamp used to compute it. The signature covers the
// canonical string METHOD|PATH|TIMESTAMP|BODY and is recomputed by the server,
// so every byte of the canonical string must match what is actually sent.
package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Header names sent with every authenticated request.
const (
	HeaderAPIKey    = "X-API-Key"
	HeaderSignature = "X-Signature"
	HeaderTimestamp = "X-Timestamp"
)

const separator = "|"

var (
	// ErrMissingSecret is returned when the API secret is empty.
	ErrMissingSecret = errors.New("auth: api secret is required")

	// ErrMissingAPIKey is returned when the API key is empty.
	ErrMissingAPIKey = errors.New("auth: api key is required")
)

// Credentials identify a partner against the API.
type Credentials struct {
	APIKey    string
	APISecret string
}

// SignedHeaders is the header set produced for a single request.
type SignedHeaders struct {
	APIKey    string
	Signature string
	Timestamp string
}

// Apply sets the authentication headers on h.
func (s SignedHeaders) Apply(h http.Header) {
	h.Set(HeaderAPIKey, s.APIKey)
	h.Set(HeaderSignature, s.Signature)
	h.Set(HeaderTimestamp, s.Timestamp)
}

// Option configures an Authenticator.
type Option func(*Authenticator)

// WithClock overrides the time source used for X-Timestamp.
func WithClock(now func() time.Time) Option {
	return func(a *Authenticator) {
		if now != nil {
			a.now = now
		}
	}
}

// Authenticator computes request signatures. It holds only immutable
// credentials and is safe for concurrent use.
type Authenticator struct {
	apiKey string
	secret []byte
	now    func() time.Time
}

// New creates an Authenticator. Missing credentials fail here rather than
// producing requests the server will reject.
func New(creds Credentials, opts ...Option) (*Authenticator, error) {
	if creds.APISecret == "" {
		return nil, ErrMissingSecret
	}
	if creds.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	a := &Authenticator{
		apiKey: creds.APIKey,
		secret: []byte(creds.APISecret),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// APIKey returns the key sent in X-API-Key.
func (a *Authenticator) APIKey() string {
	return a.apiKey
}

// CanonicalString builds the string covered by the signature.
// body must be the exact JSON text transmitted, or "" for bodyless requests.
func CanonicalString(method, path, timestamp, body string) string {
	var b strings.Builder
	b.Grow(len(method) + len(path) + len(timestamp) + len(body) + 3*len(separator))
	b.WriteString(method)
	b.WriteString(separator)
	b.WriteString(path)
	b.WriteString(separator)
	b.WriteString(timestamp)
	b.WriteString(separator)
	b.WriteString(body)
	return b.String()
}

// Sign returns the lowercase hex HMAC-SHA256 of the canonical string.
func (a *Authenticator) Sign(method, path, timestamp, body string) string {
	mac := hmac.New(sha256.New, a.secret)
	mac.Write([]byte(CanonicalString(method, path, timestamp, body)))
	return hex.EncodeToString(mac.Sum(nil))
}

// BuildHeaders signs a request at the current Unix second.
func (a *Authenticator) BuildHeaders(method, path, body string) SignedHeaders {
	timestamp := strconv.FormatInt(a.now().Unix(), 10)

	return SignedHeaders{
		APIKey:    a.apiKey,
		Signature: a.Sign(method, path, timestamp, body),
		Timestamp: timestamp,
	}
}
