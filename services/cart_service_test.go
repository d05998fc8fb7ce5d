package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/status"
	"storefront/models"
)

func newTestCartService(t *testing.T) (*CartService, redismock.ClientMock) {
	t.Helper()
	db, mock := redismock.NewClientMock()
	return NewCartService(db, nil, 24*time.Hour), mock
}

func mustMarshal(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

func TestGetCartEmpty(t *testing.T) {
	svc, mock := newTestCartService(t)

	mock.ExpectHGetAll("cart:s1").SetVal(map[string]string{})

	cart, err := svc.GetCart(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "s1", cart.SessionID)
	assert.Empty(t, cart.Items)
	assert.Equal(t, int64(0), cart.TotalCents)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetCartSumsLineTotals(t *testing.T) {
	svc, mock := newTestCartService(t)

	itemA := models.CartItem{ProductID: "p1", Name: "Keyboard", PriceCents: 2500, Quantity: 2}
	itemB := models.CartItem{ProductID: "p2", Name: "Mouse", PriceCents: 1200, Quantity: 1}

	mock.ExpectHGetAll("cart:s1").SetVal(map[string]string{
		"p1": string(mustMarshal(t, itemA)),
		"p2": string(mustMarshal(t, itemB)),
	})

	cart, err := svc.GetCart(context.Background(), "s1")
	require.NoError(t, err)
	assert.Len(t, cart.Items, 2)
	assert.Equal(t, int64(2*2500+1200), cart.TotalCents)
}

func TestUpdateQuantitySetsNewValue(t *testing.T) {
	svc, mock := newTestCartService(t)

	existing := models.CartItem{ProductID: "p1", Name: "Keyboard", PriceCents: 2500, Quantity: 1}
	updated := existing
	updated.Quantity = 3

	mock.ExpectHGet("cart:s1", "p1").SetVal(string(mustMarshal(t, existing)))
	mock.ExpectHSet("cart:s1", "p1", mustMarshal(t, updated)).SetVal(1)
	mock.ExpectExpire("cart:s1", 24*time.Hour).SetVal(true)
	mock.ExpectHGetAll("cart:s1").SetVal(map[string]string{
		"p1": string(mustMarshal(t, updated)),
	})

	cart, err := svc.UpdateQuantity(context.Background(), "s1", "p1", 3)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 3, cart.Items[0].Quantity)
	assert.Equal(t, int64(7500), cart.TotalCents)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateQuantityZeroRemovesLine(t *testing.T) {
	svc, mock := newTestCartService(t)

	existing := models.CartItem{ProductID: "p1", Name: "Keyboard", PriceCents: 2500, Quantity: 2}

	mock.ExpectHGet("cart:s1", "p1").SetVal(string(mustMarshal(t, existing)))
	mock.ExpectHDel("cart:s1", "p1").SetVal(1)
	mock.ExpectHGetAll("cart:s1").SetVal(map[string]string{})

	cart, err := svc.UpdateQuantity(context.Background(), "s1", "p1", 0)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateQuantityMissingLine(t *testing.T) {
	svc, mock := newTestCartService(t)

	mock.ExpectHGet("cart:s1", "missing").RedisNil()

	_, err := svc.UpdateQuantity(context.Background(), "s1", "missing", 2)
	assert.ErrorIs(t, err, status.ErrProductNotFound)
}

func TestClearCart(t *testing.T) {
	svc, mock := newTestCartService(t)

	mock.ExpectDel("cart:s1").SetVal(1)

	require.NoError(t, svc.ClearCart(context.Background(), "s1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
