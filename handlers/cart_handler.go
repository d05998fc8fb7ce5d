package handlers

import (
	"errors"
	"net/http"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"storefront/internal/status"
	"storefront/services"
)

type CartHandler struct {
	cart *services.CartService
}

func NewCartHandler(cart *services.CartService) *CartHandler {
	return &CartHandler{cart: cart}
}

// sessionID resolves the cart session from the X-Session-ID header.
func sessionID(e *core.RequestEvent) (string, error) {
	id := e.Request.Header.Get("X-Session-ID")
	if id == "" {
		return "", apis.NewBadRequestError("missing X-Session-ID header", nil)
	}
	return id, nil
}

func (h *CartHandler) Get(e *core.RequestEvent) error {
	session, err := sessionID(e)
	if err != nil {
		return err
	}

	cart, err := h.cart.GetCart(e.Request.Context(), session)
	if err != nil {
		return apis.NewInternalServerError("failed to load cart", err)
	}
	return e.JSON(http.StatusOK, cart)
}

type addItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

func (h *CartHandler) AddItem(e *core.RequestEvent) error {
	session, err := sessionID(e)
	if err != nil {
		return err
	}

	var req addItemRequest
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("invalid request body", err)
	}
	if req.ProductID == "" {
		return apis.NewBadRequestError("product_id is required", nil)
	}

	cart, err := h.cart.AddItem(e.Request.Context(), session, req.ProductID, req.Quantity)
	if err != nil {
		if errors.Is(err, status.ErrProductNotFound) {
			return apis.NewNotFoundError("product not found", err)
		}
		return apis.NewInternalServerError("failed to add item", err)
	}
	return e.JSON(http.StatusOK, cart)
}

type updateItemRequest struct {
	Quantity int `json:"quantity"`
}

func (h *CartHandler) UpdateItem(e *core.RequestEvent) error {
	session, err := sessionID(e)
	if err != nil {
		return err
	}
	productID := e.Request.PathValue("productId")

	var req updateItemRequest
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("invalid request body", err)
	}

	cart, err := h.cart.UpdateQuantity(e.Request.Context(), session, productID, req.Quantity)
	if err != nil {
		if errors.Is(err, status.ErrProductNotFound) {
			return apis.NewNotFoundError("item not in cart", err)
		}
		return apis.NewInternalServerError("failed to update item", err)
	}
	return e.JSON(http.StatusOK, cart)
}

func (h *CartHandler) Clear(e *core.RequestEvent) error {
	session, err := sessionID(e)
	if err != nil {
		return err
	}

	if err := h.cart.ClearCart(e.Request.Context(), session); err != nil {
		return apis.NewInternalServerError("failed to clear cart", err)
	}
	return e.JSON(http.StatusOK, map[string]string{"status": "cleared"})
}
