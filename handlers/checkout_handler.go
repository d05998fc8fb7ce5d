package handlers

import (
	"errors"
	"net/http"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"storefront/internal/payflow"
	"storefront/internal/status"
	"storefront/models"
	"storefront/services"
)

type CheckoutHandler struct {
	checkout *services.CheckoutService
}

func NewCheckoutHandler(checkout *services.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{checkout: checkout}
}

// checkoutRequest is the wire form of a checkout submission. Card details
// are accepted here and handed to the gateway once; they never appear in
// responses or logs.
type checkoutRequest struct {
	ProductID    string `json:"product_id"`
	Quantity     int    `json:"quantity"`
	Installments int    `json:"installments"`

	Customer struct {
		FullName string `json:"full_name"`
		Email    string `json:"email"`
		Phone    string `json:"phone"`
	} `json:"customer"`

	Delivery struct {
		Address    string `json:"address"`
		City       string `json:"city"`
		Region     string `json:"region"`
		PostalCode string `json:"postal_code"`
		Country    string `json:"country"`
	} `json:"delivery"`

	Card struct {
		Number      string `json:"number"`
		HolderName  string `json:"holder_name"`
		ExpiryMonth string `json:"expiry_month"`
		ExpiryYear  string `json:"expiry_year"`
		CVC         string `json:"cvc"`
	} `json:"card"`
}

// Submit starts a payment flow and returns its id. The flow is polled via
// GetFlow; the submission itself returns immediately.
func (h *CheckoutHandler) Submit(e *core.RequestEvent) error {
	var req checkoutRequest
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("invalid request body", err)
	}
	if req.ProductID == "" {
		return apis.NewBadRequestError("product_id is required", nil)
	}
	if req.Customer.Email == "" {
		return apis.NewBadRequestError("customer email is required", nil)
	}

	flowReq := payflow.CheckoutRequest{
		ProductID:    req.ProductID,
		Quantity:     req.Quantity,
		Installments: req.Installments,
		Customer: models.Customer{
			FullName: req.Customer.FullName,
			Email:    req.Customer.Email,
			Phone:    req.Customer.Phone,
		},
		Delivery: models.Delivery{
			Address:    req.Delivery.Address,
			City:       req.Delivery.City,
			Region:     req.Delivery.Region,
			PostalCode: req.Delivery.PostalCode,
			Country:    req.Delivery.Country,
		},
		Card: models.CardData{
			Number:      req.Card.Number,
			HolderName:  req.Card.HolderName,
			ExpiryMonth: req.Card.ExpiryMonth,
			ExpiryYear:  req.Card.ExpiryYear,
			CVC:         req.Card.CVC,
		},
		SessionID: e.Request.Header.Get("X-Session-ID"),
	}

	flowID, err := h.checkout.StartFlow(flowReq)
	if err != nil {
		return apis.NewInternalServerError("failed to start checkout", err)
	}

	return e.JSON(http.StatusAccepted, map[string]string{
		"flow_id": flowID,
		"state":   string(payflow.StateProcessing),
	})
}

func (h *CheckoutHandler) GetFlow(e *core.RequestEvent) error {
	flowID := e.Request.PathValue("flowId")

	snapshot, err := h.checkout.GetFlow(flowID)
	if err != nil {
		if errors.Is(err, status.ErrFlowNotFound) {
			return apis.NewNotFoundError("flow not found", err)
		}
		return apis.NewInternalServerError("failed to load flow", err)
	}
	return e.JSON(http.StatusOK, snapshot)
}

func (h *CheckoutHandler) CloseFlow(e *core.RequestEvent) error {
	flowID := e.Request.PathValue("flowId")

	if err := h.checkout.CloseFlow(flowID); err != nil {
		if errors.Is(err, status.ErrFlowNotFound) {
			return apis.NewNotFoundError("flow not found", err)
		}
		return apis.NewInternalServerError("failed to close flow", err)
	}
	return e.JSON(http.StatusOK, map[string]string{"state": string(payflow.StateIdle)})
}
