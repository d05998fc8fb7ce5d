package handlers

import (
	"net/http"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"storefront/services"
)

type ProductHandler struct {
	catalog *services.CatalogService
}

func NewProductHandler(catalog *services.CatalogService) *ProductHandler {
	return &ProductHandler{catalog: catalog}
}

func (h *ProductHandler) List(e *core.RequestEvent) error {
	products, err := h.catalog.ListProducts()
	if err != nil {
		return apis.NewInternalServerError("failed to list products", err)
	}
	return e.JSON(http.StatusOK, map[string]any{"products": products})
}

func (h *ProductHandler) Get(e *core.RequestEvent) error {
	id := e.Request.PathValue("id")
	product, err := h.catalog.GetProduct(id)
	if err != nil {
		return apis.NewNotFoundError("product not found", err)
	}
	return e.JSON(http.StatusOK, product)
}
