package models

import (
	"time"
)

// TransactionStatus is the gateway-facing status of a checkout transaction.
type TransactionStatus string

const (
	StatusPending  TransactionStatus = "PENDING"
	StatusApproved TransactionStatus = "APPROVED"
	StatusDeclined TransactionStatus = "DECLINED"
	StatusVoided   TransactionStatus = "VOIDED"
	StatusError    TransactionStatus = "ERROR"
)

// Terminal reports whether the status will not change without a new
// explicit action. PENDING is the only non-terminal status.
func (s TransactionStatus) Terminal() bool {
	return s != StatusPending && s != ""
}

// Transaction is a checkout transaction. All amounts are integers in the
// smallest currency unit.
type Transaction struct {
	ID             string            `json:"id"`
	Status         TransactionStatus `json:"status"`
	ProductID      string            `json:"product_id"`
	CustomerID     string            `json:"customer_id"`
	DeliveryID     string            `json:"delivery_id"`
	Quantity       int               `json:"quantity"`
	Installments   int               `json:"installments"`
	ProductAmount  int64             `json:"product_amount"`
	BaseFee        int64             `json:"base_fee"`
	DeliveryFee    int64             `json:"delivery_fee"`
	TotalAmount    int64             `json:"total_amount"`
	GatewayTxnID   string            `json:"gateway_transaction_id,omitempty"`
	GatewayRef     string            `json:"gateway_reference,omitempty"`
	ErrorMessage   string            `json:"error_message,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// AmountsConsistent checks the total against its parts.
func (t *Transaction) AmountsConsistent() bool {
	return t.TotalAmount == t.ProductAmount+t.BaseFee+t.DeliveryFee
}
