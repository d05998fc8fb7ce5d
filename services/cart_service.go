package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"storefront/internal/status"
	"storefront/models"
)

// CartService keeps session carts in Redis. Each cart is a hash keyed by
// product id; the whole hash shares one sliding TTL.
type CartService struct {
	Redis   *redis.Client
	catalog *CatalogService
	ttl     time.Duration
}

func NewCartService(redisClient *redis.Client, catalog *CatalogService, ttl time.Duration) *CartService {
	return &CartService{
		Redis:   redisClient,
		catalog: catalog,
		ttl:     ttl,
	}
}

func cartKey(sessionID string) string {
	return fmt.Sprintf("cart:%s", sessionID)
}

// GetCart returns the cart for a session. A missing hash is an empty cart,
// not an error.
func (s *CartService) GetCart(ctx context.Context, sessionID string) (*models.Cart, error) {
	fields, err := s.Redis.HGetAll(ctx, cartKey(sessionID)).Result()
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}

	cart := &models.Cart{SessionID: sessionID, Items: []models.CartItem{}}
	for _, raw := range fields {
		var item models.CartItem
		if err := json.Unmarshal([]byte(raw), &item); err != nil {
			continue
		}
		cart.Items = append(cart.Items, item)
		cart.TotalCents += item.PriceCents * int64(item.Quantity)
	}
	return cart, nil
}

// AddItem puts quantity units of a product into the cart, merging with any
// existing line. The line snapshots name and price at add time.
func (s *CartService) AddItem(ctx context.Context, sessionID, productID string, quantity int) (*models.Cart, error) {
	if quantity < 1 {
		quantity = 1
	}

	product, err := s.catalog.GetProduct(productID)
	if err != nil {
		return nil, err
	}

	key := cartKey(sessionID)
	item := models.CartItem{
		ProductID:  product.ID,
		Name:       product.Name,
		PriceCents: product.PriceCents,
		Quantity:   quantity,
	}

	if raw, err := s.Redis.HGet(ctx, key, productID).Result(); err == nil {
		var existing models.CartItem
		if json.Unmarshal([]byte(raw), &existing) == nil {
			item.Quantity += existing.Quantity
		}
	}

	data, err := json.Marshal(item)
	if err != nil {
		return nil, fmt.Errorf("encode cart item: %w", err)
	}
	if err := s.Redis.HSet(ctx, key, productID, data).Err(); err != nil {
		return nil, fmt.Errorf("save cart item: %w", err)
	}
	s.Redis.Expire(ctx, key, s.ttl)

	return s.GetCart(ctx, sessionID)
}

// UpdateQuantity sets the quantity of a cart line. Zero removes the line.
func (s *CartService) UpdateQuantity(ctx context.Context, sessionID, productID string, quantity int) (*models.Cart, error) {
	key := cartKey(sessionID)

	raw, err := s.Redis.HGet(ctx, key, productID).Result()
	if err == redis.Nil {
		return nil, status.ErrProductNotFound
	} else if err != nil {
		return nil, fmt.Errorf("load cart item: %w", err)
	}

	if quantity <= 0 {
		if err := s.Redis.HDel(ctx, key, productID).Err(); err != nil {
			return nil, fmt.Errorf("remove cart item: %w", err)
		}
		return s.GetCart(ctx, sessionID)
	}

	var item models.CartItem
	if err := json.Unmarshal([]byte(raw), &item); err != nil {
		return nil, fmt.Errorf("decode cart item: %w", err)
	}
	item.Quantity = quantity

	data, _ := json.Marshal(item)
	if err := s.Redis.HSet(ctx, key, productID, data).Err(); err != nil {
		return nil, fmt.Errorf("save cart item: %w", err)
	}
	s.Redis.Expire(ctx, key, s.ttl)

	return s.GetCart(ctx, sessionID)
}

// ClearCart drops the whole cart.
func (s *CartService) ClearCart(ctx context.Context, sessionID string) error {
	if err := s.Redis.Del(ctx, cartKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}
