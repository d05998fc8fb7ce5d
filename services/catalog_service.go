package services

import (
	"strconv"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"

	"storefront/internal/status"
	"storefront/models"
)

// CatalogService lists and loads storefront products.
type CatalogService struct {
	app core.App
}

func NewCatalogService(app core.App) *CatalogService {
	return &CatalogService{app: app}
}

// ListProducts returns published products, newest first.
func (s *CatalogService) ListProducts() ([]models.Product, error) {
	var rows []dbx.NullStringMap
	err := s.app.DB().
		Select("id", "name", "description", "price_cents", "stock", "image_url", "status", "created", "updated").
		From("products").
		Where(dbx.HashExp{"status": "published"}).
		OrderBy("created DESC").
		All(&rows)
	if err != nil {
		return nil, err
	}

	products := make([]models.Product, 0, len(rows))
	for _, row := range rows {
		products = append(products, rowToProduct(row))
	}
	return products, nil
}

// GetProduct loads one product by id. Archived products are hidden.
func (s *CatalogService) GetProduct(id string) (*models.Product, error) {
	rec, err := s.app.FindRecordById("products", id)
	if err != nil {
		return nil, status.ErrProductNotFound
	}
	if rec.GetString("status") == "archived" {
		return nil, status.ErrProductNotFound
	}
	p := recordToProduct(rec)
	return &p, nil
}

func recordToProduct(rec *core.Record) models.Product {
	return models.Product{
		ID:          rec.Id,
		Name:        rec.GetString("name"),
		Description: rec.GetString("description"),
		PriceCents:  int64(rec.GetInt("price_cents")),
		Stock:       rec.GetInt("stock"),
		ImageURL:    rec.GetString("image_url"),
		Status:      rec.GetString("status"),
		CreatedAt:   rec.GetDateTime("created").Time(),
		UpdatedAt:   rec.GetDateTime("updated").Time(),
	}
}

func rowToProduct(row dbx.NullStringMap) models.Product {
	var p models.Product
	p.ID = row["id"].String
	p.Name = row["name"].String
	p.Description = row["description"].String
	p.ImageURL = row["image_url"].String
	p.Status = row["status"].String
	if row["price_cents"].Valid {
		p.PriceCents, _ = strconv.ParseInt(row["price_cents"].String, 10, 64)
	}
	if row["stock"].Valid {
		p.Stock, _ = strconv.Atoi(row["stock"].String)
	}
	return p
}
