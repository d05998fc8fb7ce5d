package wompi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := newClient(context.Background(), &ClientConfig{
		BaseURL:    srv.URL,
		PublicKey:  "pub_test",
		PrivateKey: "prv_test",
		EventsKey:  "events_test",
	})
	c.setSessionToken("Bearer test-token")
	return c
}

func TestConnectReturnsSessionToken(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/merchants/session", r.URL.Path)
		assert.NotEmpty(t, r.Header.Get("SignedHash"))

		json.NewEncoder(w).Encode(map[string]any{
			"status": "OK",
			"data": map[string]string{
				"sessionToken": "abc123",
				"tokenType":    "Bearer",
			},
		})
	})

	token, err := c.connect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer abc123", token)
}

func TestCreateChargeDecodesReply(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/transactions", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		var sent map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&sent))
		assert.Equal(t, "REF1", sent["reference"])
		card := sent["card"].(map[string]any)
		assert.Equal(t, "4111111111111111", card["number"])

		json.NewEncoder(w).Encode(map[string]any{
			"status": "OK",
			"data": map[string]any{
				"id":            "gw-1",
				"reference":     "REF1",
				"status":        "PENDING",
				"statusMessage": "created",
				"amountCents":   "11400",
				"timestamp":     1756700000,
			},
		})
	})

	charge, err := c.createCharge(context.Background(), &FormCharge{
		Reference:     "REF1",
		Amount:        decimal.NewFromInt(11400),
		Currency:      "COP",
		CardNumber:    "4111111111111111",
		CardHolder:    "Jane Doe",
		ExpiryMonth:   "09",
		ExpiryYear:    "28",
		CVC:           "123",
		CustomerEmail: "jane@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "gw-1", charge.ID)
	assert.Equal(t, "REF1", charge.Reference)
	assert.Equal(t, "PENDING", charge.Status)
	assert.Equal(t, "11400", charge.Amount.String())
}

func TestCreateChargeRejectedReply(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"status":  "ERROR",
			"message": "invalid merchant",
		})
	})

	_, err := c.createCharge(context.Background(), &FormCharge{Reference: "REF1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid merchant")
}

func TestCheckTransactionDecodesReply(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v1/transactions/gw-1", r.URL.Path)

		json.NewEncoder(w).Encode(map[string]any{
			"status": "OK",
			"data": map[string]any{
				"id":        "gw-1",
				"reference": "REF1",
				"status":    "APPROVED",
			},
		})
	})

	charge, err := c.checkTransaction(context.Background(), "gw-1")
	require.NoError(t, err)
	assert.Equal(t, "APPROVED", charge.Status)
}

func TestUnauthorizedTogglesSessionRefresh(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := c.checkTransaction(context.Background(), "gw-1")
	require.Error(t, err)

	select {
	case <-c.toggleTokenRefresher:
	default:
		t.Fatal("expected a session refresh to be requested")
	}
}
