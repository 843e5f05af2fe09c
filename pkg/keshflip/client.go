package keshflip

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-querystring/query"

	"github.com/thechainkeshflip/keshflip-go/pkg/auth"
	"github.com/thechainkeshflip/keshflip-go/pkg/webhook"
)

// DefaultBaseURL is the production API endpoint.
const DefaultBaseURL = "https://api.keshpay.com"

const defaultTimeout = 30 * time.Second

// Config holds configuration for Client.
type Config struct {
	APIKey    string
	APISecret string
	BaseURL   string
	// PartnerID is used when a call does not name a partner explicitly.
	PartnerID string
	// WebhookSecret verifies inbound webhooks. Defaults to APISecret.
	WebhookSecret string

	Timeout        time.Duration
	RetryAttempts  int
	RetryBaseDelay time.Duration
	RetryMaxDelay  time.Duration

	// HTTPClient replaces the default client; Timeout is ignored when set.
	HTTPClient *http.Client
}

// Client is a KeshPay API client. It is safe for concurrent use.
type Client struct {
	baseURL    string
	partnerID  string
	auth       *auth.Authenticator
	httpClient *http.Client
	retryCfg   RetryConfig

	Crypto   *CryptoService
	Fiat     *FiatService
	Webhooks *webhook.Processor
}

// CryptoService groups crypto operations.
type CryptoService struct {
	Deposits    *CryptoDepositsService
	Withdrawals *CryptoWithdrawalsService
	Balances    *CryptoBalancesService
}

// FiatService groups fiat operations.
type FiatService struct {
	Deposits *FiatDepositsService
}

// New creates a Client.
func New(cfg Config) (*Client, error) {
	authenticator, err := auth.New(auth.Credentials{APIKey: cfg.APIKey, APISecret: cfg.APISecret})
	if err != nil {
		return nil, err
	}

	webhookSecret := cfg.WebhookSecret
	if webhookSecret == "" {
		webhookSecret = cfg.APISecret
	}
	processor, err := webhook.NewProcessor(webhookSecret)
	if err != nil {
		return nil, err
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	retryCfg := DefaultRetryConfig()
	if cfg.RetryAttempts > 0 {
		retryCfg.MaxAttempts = cfg.RetryAttempts
	}
	if cfg.RetryBaseDelay > 0 {
		retryCfg.BaseDelay = cfg.RetryBaseDelay
	}
	if cfg.RetryMaxDelay > 0 {
		retryCfg.MaxDelay = cfg.RetryMaxDelay
	}

	c := &Client{
		baseURL:    baseURL,
		partnerID:  cfg.PartnerID,
		auth:       authenticator,
		httpClient: httpClient,
		retryCfg:   retryCfg,
		Webhooks:   processor,
	}
	c.Crypto = &CryptoService{
		Deposits:    &CryptoDepositsService{client: c},
		Withdrawals: &CryptoWithdrawalsService{client: c},
		Balances:    &CryptoBalancesService{client: c},
	}
	c.Fiat = &FiatService{
		Deposits: &FiatDepositsService{client: c},
	}
	return c, nil
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// Request performs an authenticated call. body is JSON-encoded once and the
// same bytes are signed and sent; params is encoded with go-querystring url
// tags. The decoded JSON response is stored in out when out is non-nil.
func (c *Client) Request(ctx context.Context, method, path string, body, params, out any) error {
	method = strings.ToUpper(method)

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
	}

	rawQuery := ""
	if params != nil {
		values, err := query.Values(params)
		if err != nil {
			return fmt.Errorf("encode query: %w", err)
		}
		rawQuery = values.Encode()
	}

	var raw []byte
	err := DoWithRetry(ctx, c.retryCfg, func() error {
		var err error
		raw, err = c.send(ctx, method, path, rawQuery, payload)
		return err
	})
	if err != nil {
		return err
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, path, rawQuery string, payload []byte) ([]byte, error) {
	u := c.baseURL + path
	if rawQuery != "" {
		u += "?" + rawQuery
	}

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	c.auth.BuildHeaders(method, path, string(payload)).Apply(httpReq.Header)

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		slog.WarnContext(ctx, "KeshPay request failed",
			"method", method, "path", path, slog.Any("error", err))
		return nil, &Error{Kind: ErrNetwork, Message: "request failed", Err: unwrapURLError(err)}
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Kind: ErrNetwork, Message: "read response", Err: err}
	}

	slog.DebugContext(ctx, "KeshPay request completed",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration", time.Since(start))

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, newResponseError(resp.StatusCode, decodeErrorBody(raw))
	}
	return raw, nil
}

// decodeErrorBody parses an error body, falling back to {"message": text}.
func decodeErrorBody(raw []byte) map[string]any {
	var body map[string]any
	if err := json.Unmarshal(raw, &body); err != nil || body == nil {
		return map[string]any{"message": string(raw)}
	}
	return body
}

// unwrapURLError keeps context errors reachable through errors.Is.
func unwrapURLError(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		return urlErr.Err
	}
	return err
}

func (c *Client) resolvePartnerID(partnerID string) (string, error) {
	if partnerID != "" {
		return partnerID, nil
	}
	if c.partnerID != "" {
		return c.partnerID, nil
	}
	return "", ErrPartnerIDRequired
}
