package keshflip

import (
	"context"
	"net/http"
	"net/url"
)

// CreateCryptoDepositParams describes a new crypto deposit.
type CreateCryptoDepositParams struct {
	Asset          string
	ChainID        string
	Amount         string
	IdempotencyKey string
	// PartnerID overrides the client default.
	PartnerID string
	// Currency defaults to USD.
	Currency  string
	Reference string
}

// ListCryptoDepositsParams filters a partner's crypto deposits.
type ListCryptoDepositsParams struct {
	PartnerID string `url:"-"`
	Status    string `url:"status,omitempty"`
	// Limit defaults to 50.
	Limit int `url:"limit"`
}

// CreateCryptoWithdrawalParams describes a new crypto withdrawal.
type CreateCryptoWithdrawalParams struct {
	Asset          string
	ChainID        string
	Amount         string
	ToAddress      string
	IdempotencyKey string
	PartnerID      string
	Reference      string
}

// CryptoDepositsService calls /api/v1/crypto/deposits.
type CryptoDepositsService struct {
	client *Client
}

// Create requests a deposit address for the given asset and chain.
func (s *CryptoDepositsService) Create(ctx context.Context, p CreateCryptoDepositParams) (*CryptoDepositResponse, error) {
	pid, err := s.client.resolvePartnerID(p.PartnerID)
	if err != nil {
		return nil, err
	}

	currency := p.Currency
	if currency == "" {
		currency = defaultCurrency
	}

	req := CryptoDepositRequest{
		PartnerID:      pid,
		Asset:          p.Asset,
		ChainID:        p.ChainID,
		Amount:         p.Amount,
		IdempotencyKey: p.IdempotencyKey,
		Currency:       currency,
		Reference:      p.Reference,
	}

	var out CryptoDepositResponse
	if err := s.client.Request(ctx, http.MethodPost, "/api/v1/crypto/deposits", req, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Get fetches a deposit by id.
func (s *CryptoDepositsService) Get(ctx context.Context, depositID string) (*Response, error) {
	var out Response
	if err := s.client.Request(ctx, http.MethodGet, "/api/v1/crypto/deposits/"+url.PathEscape(depositID), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// List returns a partner's deposits.
func (s *CryptoDepositsService) List(ctx context.Context, p ListCryptoDepositsParams) (*ListResponse, error) {
	pid, err := s.client.resolvePartnerID(p.PartnerID)
	if err != nil {
		return nil, err
	}
	if p.Limit == 0 {
		p.Limit = defaultListLimit
	}

	var out ListResponse
	if err := s.client.Request(ctx, http.MethodGet, "/api/v1/crypto/deposits/partner/"+url.PathEscape(pid), nil, p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CryptoWithdrawalsService calls /api/v1/crypto/withdrawals.
type CryptoWithdrawalsService struct {
	client *Client
}

// Create sends funds to an external address.
func (s *CryptoWithdrawalsService) Create(ctx context.Context, p CreateCryptoWithdrawalParams) (*CryptoWithdrawalResponse, error) {
	pid, err := s.client.resolvePartnerID(p.PartnerID)
	if err != nil {
		return nil, err
	}

	req := CryptoWithdrawalRequest{
		PartnerID:      pid,
		Asset:          p.Asset,
		ChainID:        p.ChainID,
		Amount:         p.Amount,
		ToAddress:      p.ToAddress,
		IdempotencyKey: p.IdempotencyKey,
		Reference:      p.Reference,
	}

	var out CryptoWithdrawalResponse
	if err := s.client.Request(ctx, http.MethodPost, "/api/v1/crypto/withdrawals", req, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Get fetches a withdrawal by id.
func (s *CryptoWithdrawalsService) Get(ctx context.Context, withdrawalID string) (*Response, error) {
	var out Response
	if err := s.client.Request(ctx, http.MethodGet, "/api/v1/crypto/withdrawals/"+url.PathEscape(withdrawalID), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Cancel cancels a pending withdrawal. The request has no body.
func (s *CryptoWithdrawalsService) Cancel(ctx context.Context, withdrawalID string) (*Response, error) {
	var out Response
	path := "/api/v1/crypto/withdrawals/" + url.PathEscape(withdrawalID) + "/cancel"
	if err := s.client.Request(ctx, http.MethodPost, path, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CryptoBalancesService calls /api/v1/crypto/balances.
type CryptoBalancesService struct {
	client *Client
}

// Get returns the balance for one chain and asset. An empty partnerID uses
// the client default.
func (s *CryptoBalancesService) Get(ctx context.Context, chainID, asset, partnerID string) (*CryptoBalance, error) {
	pid, err := s.client.resolvePartnerID(partnerID)
	if err != nil {
		return nil, err
	}

	path := "/api/v1/crypto/balances/" + url.PathEscape(pid) + "/" + url.PathEscape(chainID) + "/" + url.PathEscape(asset)

	var out CryptoBalance
	if err := s.client.Request(ctx, http.MethodGet, path, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// List returns every balance of a partner. A response without a data array
// yields an empty slice.
func (s *CryptoBalancesService) List(ctx context.Context, partnerID string) ([]CryptoBalance, error) {
	pid, err := s.client.resolvePartnerID(partnerID)
	if err != nil {
		return nil, err
	}

	var out struct {
		Data []CryptoBalance `json:"data"`
	}
	if err := s.client.Request(ctx, http.MethodGet, "/api/v1/crypto/balances/"+url.PathEscape(pid), nil, nil, &out); err != nil {
		return nil, err
	}
	if out.Data == nil {
		return []CryptoBalance{}, nil
	}
	return out.Data, nil
}
