package keshflip

import (
	"context"
	"net/http"
	"net/url"
)

// CreateFiatDepositParams describes a new mobile money or bank deposit.
type CreateFiatDepositParams struct {
	Provider       FiatProvider
	CustomerNumber string
	Amount         string
	IdempotencyKey string
	PartnerID      string
	// Currency defaults to USD.
	Currency  string
	Reference string
}

// ListFiatDepositsParams filters a partner's fiat deposits.
type ListFiatDepositsParams struct {
	PartnerID string       `url:"-"`
	Provider  FiatProvider `url:"provider,omitempty"`
	Status    string       `url:"status,omitempty"`
	// Limit defaults to 50.
	Limit int `url:"limit"`
}

// FiatDepositsService calls /api/v1/fiat/deposits.
type FiatDepositsService struct {
	client *Client
}

// Create starts a fiat deposit with an EVC or Salaam Bank customer.
func (s *FiatDepositsService) Create(ctx context.Context, p CreateFiatDepositParams) (*FiatDepositResponse, error) {
	pid, err := s.client.resolvePartnerID(p.PartnerID)
	if err != nil {
		return nil, err
	}

	currency := p.Currency
	if currency == "" {
		currency = defaultCurrency
	}

	req := FiatDepositRequest{
		PartnerID:      pid,
		Provider:       p.Provider,
		CustomerNumber: p.CustomerNumber,
		Amount:         p.Amount,
		Currency:       currency,
		IdempotencyKey: p.IdempotencyKey,
		Reference:      p.Reference,
	}

	var out FiatDepositResponse
	if err := s.client.Request(ctx, http.MethodPost, "/api/v1/fiat/deposits", req, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Get fetches a fiat deposit by id.
func (s *FiatDepositsService) Get(ctx context.Context, depositID string) (*Response, error) {
	var out Response
	if err := s.client.Request(ctx, http.MethodGet, "/api/v1/fiat/deposits/"+url.PathEscape(depositID), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// List returns a partner's fiat deposits.
func (s *FiatDepositsService) List(ctx context.Context, p ListFiatDepositsParams) (*ListResponse, error) {
	pid, err := s.client.resolvePartnerID(p.PartnerID)
	if err != nil {
		return nil, err
	}
	if p.Limit == 0 {
		p.Limit = defaultListLimit
	}

	var out ListResponse
	if err := s.client.Request(ctx, http.MethodGet, "/api/v1/fiat/deposits/partner/"+url.PathEscape(pid), nil, p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
