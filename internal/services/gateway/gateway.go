package gateway

import (
	"context"

	"github.com/shopspring/decimal"

	"storefront/models"
)

// Provider identifies a card payment gateway.
type Provider string

const (
	ProviderWompi  Provider = "wompi"
	ProviderStripe Provider = "stripe"
)

// ChargeRequest is a gateway-agnostic card charge.
type ChargeRequest struct {
	Reference     string          `json:"reference"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	Installments  int             `json:"installments,omitempty"`
	CardNumber    string          `json:"-"`
	CardHolder    string          `json:"-"`
	ExpiryMonth   string          `json:"-"`
	ExpiryYear    string          `json:"-"`
	CVC           string          `json:"-"`
	CustomerEmail string          `json:"customer_email"`
}

// ChargeResult is the gateway's view of a transaction.
type ChargeResult struct {
	TransactionID string                   `json:"transaction_id"`
	Reference     string                   `json:"reference"`
	Status        models.TransactionStatus `json:"status"`
	Message       string                   `json:"message,omitempty"`
}

// Event is an asynchronous settlement notification from a gateway, either
// pushed over the realtime channel or delivered to the webhook.
type Event struct {
	TransactionID string                   `json:"transaction_id"`
	Reference     string                   `json:"reference"`
	Status        models.TransactionStatus `json:"status"`
	Amount        decimal.Decimal          `json:"amount"`
	Timestamp     int64                    `json:"timestamp"`
}

// Interface defines the common surface for all gateway providers.
type Interface interface {
	// GetProvider returns the gateway provider type.
	GetProvider() Provider

	// CreateCharge submits a card charge and returns the initial result,
	// which may still be PENDING.
	CreateCharge(ctx context.Context, req *ChargeRequest) (*ChargeResult, error)

	// CheckTransaction fetches the current status of a charge.
	CheckTransaction(ctx context.Context, transactionID string) (*ChargeResult, error)

	// SetEventChannel sets the channel for asynchronous settlement events.
	SetEventChannel(ch chan *Event)

	// Close gracefully closes any connections.
	Close(ctx context.Context) error
}
