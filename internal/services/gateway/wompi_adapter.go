package gateway

import (
	"context"
	"fmt"

	"storefront/internal/services/gateway/wompi"
	"storefront/models"
)

// WompiAdapter wraps the wompi client to conform to Interface.
type WompiAdapter struct {
	client *wompi.Wompi
	ctx    context.Context
	cancel context.CancelFunc
}

func NewWompiAdapter(ctx context.Context, config *wompi.Config) (*WompiAdapter, error) {
	ctx, cancel := context.WithCancel(ctx)

	client, err := wompi.New(ctx, config)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create wompi client: %w", err)
	}

	return &WompiAdapter{
		client: client,
		ctx:    ctx,
		cancel: cancel,
	}, nil
}

func (w *WompiAdapter) GetProvider() Provider {
	return ProviderWompi
}

func (w *WompiAdapter) CreateCharge(ctx context.Context, req *ChargeRequest) (*ChargeResult, error) {
	charge, err := w.client.CreateCharge(ctx, &wompi.FormCharge{
		Reference:     req.Reference,
		Amount:        req.Amount,
		Currency:      req.Currency,
		Installments:  req.Installments,
		CardNumber:    req.CardNumber,
		CardHolder:    req.CardHolder,
		ExpiryMonth:   req.ExpiryMonth,
		ExpiryYear:    req.ExpiryYear,
		CVC:           req.CVC,
		CustomerEmail: req.CustomerEmail,
	})
	if err != nil {
		return nil, err
	}

	return chargeToResult(charge), nil
}

func (w *WompiAdapter) CheckTransaction(ctx context.Context, transactionID string) (*ChargeResult, error) {
	charge, err := w.client.CheckTransaction(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	return chargeToResult(charge), nil
}

// SetEventChannel pumps wompi settlement events into the generic channel.
// The pump stops when the adapter is closed.
func (w *WompiAdapter) SetEventChannel(ch chan *Event) {
	charges := make(chan *wompi.Charge, 1)
	w.client.SetChargeChannel(charges)

	go pumpEvents(w.ctx, charges, ch)
}

func pumpEvents(ctx context.Context, charges <-chan *wompi.Charge, out chan<- *Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case charge := <-charges:
			evt := &Event{
				TransactionID: charge.ID,
				Reference:     charge.Reference,
				Status:        MapStatus(charge.Status),
				Amount:        charge.Amount,
				Timestamp:     charge.Timestamp,
			}
			select {
			case <-ctx.Done():
				return
			case out <- evt:
			}
		}
	}
}

func (w *WompiAdapter) Close(ctx context.Context) error {
	w.client.Unsubscribe(ctx)
	w.cancel()
	return nil
}

func chargeToResult(charge *wompi.Charge) *ChargeResult {
	return &ChargeResult{
		TransactionID: charge.ID,
		Reference:     charge.Reference,
		Status:        MapStatus(charge.Status),
		Message:       charge.Message,
	}
}

// MapStatus converts a gateway status string to a transaction status.
// Unrecognized statuses map to ERROR so they never read as settled success.
func MapStatus(s string) models.TransactionStatus {
	switch models.TransactionStatus(s) {
	case models.StatusPending, models.StatusApproved, models.StatusDeclined, models.StatusVoided, models.StatusError:
		return models.TransactionStatus(s)
	default:
		return models.StatusError
	}
}
