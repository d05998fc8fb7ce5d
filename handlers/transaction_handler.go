package handlers

import (
	"errors"
	"net/http"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"storefront/internal/status"
	"storefront/services"
)

type TransactionHandler struct {
	txns *services.TransactionService
}

func NewTransactionHandler(txns *services.TransactionService) *TransactionHandler {
	return &TransactionHandler{txns: txns}
}

// Get returns the current transaction snapshot. A PENDING transaction is
// re-checked against the gateway before answering.
func (h *TransactionHandler) Get(e *core.RequestEvent) error {
	id := e.Request.PathValue("id")

	txn, err := h.txns.GetByID(e.Request.Context(), id)
	if err != nil {
		if errors.Is(err, status.ErrTransactionNotFound) {
			return apis.NewNotFoundError("transaction not found", err)
		}
		return apis.NewInternalServerError("failed to load transaction", err)
	}
	return e.JSON(http.StatusOK, txn)
}
