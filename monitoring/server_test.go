package monitoring

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/services/gateway"
)

type stubEventHandler struct {
	events []*gateway.Event
	err    error
}

func (s *stubEventHandler) HandleGatewayEvent(ctx context.Context, evt *gateway.Event) error {
	s.events = append(s.events, evt)
	return s.err
}

func newTestServer(handler GatewayEventHandler) *Server {
	return NewServer(ServerConfig{
		Port: "0",
		VerifySecret: func(secret string) bool {
			return secret == "hunter2"
		},
		VerifyChecksum: func(transactionID, status, amount, checksum string) bool {
			return checksum == "valid"
		},
	}, handler, nil)
}

func postWebhook(srv *Server, secret, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/hooks/gateway", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if secret != "" {
		req.Header.Set("X-Webhook-Secret", secret)
	}
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)
	return rec
}

const validEvent = `{
	"event": "transaction.updated",
	"data": {
		"transaction_id": "gw-1",
		"reference": "REF1",
		"status": "APPROVED",
		"amount": "11400"
	},
	"timestamp": 1756700000,
	"checksum": "valid"
}`

func TestWebhookRejectsBadSecret(t *testing.T) {
	handler := &stubEventHandler{}
	srv := newTestServer(handler)

	rec := postWebhook(srv, "wrong", validEvent)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, handler.events)
}

func TestWebhookRejectsBadChecksum(t *testing.T) {
	handler := &stubEventHandler{}
	srv := newTestServer(handler)

	body := strings.Replace(validEvent, `"valid"`, `"forged"`, 1)
	rec := postWebhook(srv, "hunter2", body)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, handler.events)
}

func TestWebhookAppliesEvent(t *testing.T) {
	handler := &stubEventHandler{}
	srv := newTestServer(handler)

	rec := postWebhook(srv, "hunter2", validEvent)
	assert.Equal(t, http.StatusOK, rec.Code)

	require.Len(t, handler.events, 1)
	evt := handler.events[0]
	assert.Equal(t, "gw-1", evt.TransactionID)
	assert.Equal(t, "REF1", evt.Reference)
	assert.Equal(t, "11400", evt.Amount.String())
}

func TestWebhookPropagatesHandlerFailure(t *testing.T) {
	handler := &stubEventHandler{err: assert.AnError}
	srv := newTestServer(handler)

	rec := postWebhook(srv, "hunter2", validEvent)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestHealthzOKWithoutRedis(t *testing.T) {
	srv := newTestServer(&stubEventHandler{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok"`)
}
