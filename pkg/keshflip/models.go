package keshflip

// DepositStatus is the lifecycle state of a deposit.
type DepositStatus string

const (
	DepositPending   DepositStatus = "PENDING"
	DepositConfirmed DepositStatus = "CONFIRMED"
	DepositExpired   DepositStatus = "EXPIRED"
	DepositFailed    DepositStatus = "FAILED"
)

// TransactionStatus is the lifecycle state of an outgoing transaction.
type TransactionStatus string

const (
	TransactionPending   TransactionStatus = "PENDING"
	TransactionSuccess   TransactionStatus = "SUCCESS"
	TransactionFailed    TransactionStatus = "FAILED"
	TransactionConfirmed TransactionStatus = "CONFIRMED"
)

// FiatProvider identifies a mobile money or bank rail.
type FiatProvider string

const (
	ProviderEVC        FiatProvider = "EVC"
	ProviderSalaamBank FiatProvider = "SALAAM_BANK"
)

const (
	defaultCurrency  = "USD"
	defaultListLimit = 50
)

// CryptoDepositRequest is the body of POST /api/v1/crypto/deposits.
type CryptoDepositRequest struct {
	PartnerID      string `json:"partnerId"`
	Asset          string `json:"asset"`
	ChainID        string `json:"chainId"`
	Amount         string `json:"amount"`
	IdempotencyKey string `json:"idempotencyKey"`
	Currency       string `json:"currency,omitempty"`
	Reference      string `json:"reference,omitempty"`
}

// CryptoDepositResponse is returned when a crypto deposit is created.
type CryptoDepositResponse struct {
	Success   bool          `json:"success"`
	DepositID string        `json:"depositId"`
	Status    DepositStatus `json:"status"`
	Address   string        `json:"address"`
	Asset     string        `json:"asset"`
	ChainID   string        `json:"chainId"`
	Amount    string        `json:"amount"`
	ExpiresAt string        `json:"expiresAt"`
	Message   string        `json:"message,omitempty"`
}

// CryptoWithdrawalRequest is the body of POST /api/v1/crypto/withdrawals.
type CryptoWithdrawalRequest struct {
	PartnerID      string `json:"partnerId"`
	Asset          string `json:"asset"`
	ChainID        string `json:"chainId"`
	Amount         string `json:"amount"`
	ToAddress      string `json:"toAddress"`
	IdempotencyKey string `json:"idempotencyKey"`
	Reference      string `json:"reference,omitempty"`
}

// CryptoWithdrawalResponse is returned when a crypto withdrawal is created.
type CryptoWithdrawalResponse struct {
	Success       bool   `json:"success"`
	WithdrawalID  string `json:"withdrawalId"`
	Status        string `json:"status"`
	TransactionID string `json:"transactionId,omitempty"`
	Hash          string `json:"hash,omitempty"`
	Message       string `json:"message,omitempty"`
}

// CryptoBalance is the balance of one asset on one chain.
type CryptoBalance struct {
	Success          bool   `json:"success"`
	PartnerID        string `json:"partnerId"`
	ChainID          string `json:"chainId"`
	Asset            string `json:"asset"`
	Balance          string `json:"balance"`
	TotalDeposits    string `json:"totalDeposits"`
	TotalWithdrawals string `json:"totalWithdrawals"`
	LastUpdatedAt    string `json:"lastUpdatedAt"`
}

// FiatDepositRequest is the body of POST /api/v1/fiat/deposits.
type FiatDepositRequest struct {
	PartnerID      string       `json:"partnerId"`
	Provider       FiatProvider `json:"provider"`
	CustomerNumber string       `json:"customerNumber"`
	Amount         string       `json:"amount"`
	Currency       string       `json:"currency"`
	IdempotencyKey string       `json:"idempotencyKey"`
	Reference      string       `json:"reference,omitempty"`
}

// FiatDepositResponse is returned when a fiat deposit is created.
type FiatDepositResponse struct {
	Success        bool          `json:"success"`
	DepositID      string        `json:"depositId"`
	Status         DepositStatus `json:"status"`
	Provider       FiatProvider  `json:"provider"`
	CustomerNumber string        `json:"customerNumber"`
	Amount         string        `json:"amount"`
	Currency       string        `json:"currency"`
	ExpiresAt      string        `json:"expiresAt"`
	Instructions   string        `json:"instructions,omitempty"`
	Message        string        `json:"message,omitempty"`
}

// Response is the generic envelope for read endpoints. Data keeps the
// server's fields as-is; their shape differs per resource.
type Response struct {
	Success bool           `json:"success"`
	Data    map[string]any `json:"data,omitempty"`
	Message string         `json:"message,omitempty"`
}

// ListResponse is the envelope for list endpoints.
type ListResponse struct {
	Success bool             `json:"success"`
	Data    []map[string]any `json:"data"`
	Message string           `json:"message,omitempty"`
}
