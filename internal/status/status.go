package status

import "errors"

var (
	ErrInvalidCardNumber   = errors.New("card: invalid card number")
	ErrExpiredCard         = errors.New("card: card is expired")
	ErrInvalidCVC          = errors.New("card: invalid security code")
	ErrProductNotFound     = errors.New("catalog: product not found")
	ErrTransactionNotFound = errors.New("transaction: transaction not found")
	ErrFlowNotFound        = errors.New("payflow: flow not found")
)
