package monitoring

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"

	"storefront/internal/services/gateway"
)

// GatewayEventHandler applies a settlement event delivered out of band.
type GatewayEventHandler interface {
	HandleGatewayEvent(ctx context.Context, evt *gateway.Event) error
}

// ServerConfig wires the ops server without binding it to a concrete
// gateway: secret comparison and checksum verification are injected.
type ServerConfig struct {
	Port string

	// VerifySecret checks the shared webhook secret presented in the
	// X-Webhook-Secret header. Nil disables the check.
	VerifySecret func(secret string) bool

	// VerifyChecksum validates the event signature. Nil disables the check.
	VerifyChecksum func(transactionID, status, amount, checksum string) bool

	// RateLimit guards the webhook route when set.
	RateLimit echo.MiddlewareFunc
}

// Server is the operational HTTP surface: Prometheus metrics, health and the
// gateway settlement webhook. It listens on its own port, away from the
// storefront API.
type Server struct {
	echo    *echo.Echo
	srv     *http.Server
	handler GatewayEventHandler
	redis   RedisPinger
	cfg     ServerConfig
}

// RedisPinger is the slice of the Redis client the health check needs.
type RedisPinger interface {
	Ping(ctx context.Context) error
}

type redisHealth struct {
	check func() error
}

func (r redisHealth) Ping(ctx context.Context) error { return r.check() }

// NewRedisPinger adapts utils.RedisHealthCheck to the health endpoint.
func NewRedisPinger(check func() error) RedisPinger {
	return redisHealth{check: check}
}

func NewServer(cfg ServerConfig, handler GatewayEventHandler, redis RedisPinger) *Server {
	s := &Server{
		echo:    echo.New(),
		handler: handler,
		redis:   redis,
		cfg:     cfg,
	}
	s.routes()
	s.srv = &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      s.echo,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) routes() {
	s.echo.GET("/metrics", func(c echo.Context) error {
		promhttp.Handler().ServeHTTP(c.Response(), c.Request())
		return nil
	})

	s.echo.GET("/healthz", s.health)

	if s.cfg.RateLimit != nil {
		s.echo.POST("/hooks/gateway", s.gatewayWebhook, s.cfg.RateLimit)
	} else {
		s.echo.POST("/hooks/gateway", s.gatewayWebhook)
	}
}

// Start blocks serving the ops endpoints until the listener fails or
// Shutdown is called.
func (s *Server) Start() error {
	slog.Info("ops server listening", "addr", s.srv.Addr)
	err := s.srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) health(c echo.Context) error {
	status := map[string]string{"status": "ok"}
	code := http.StatusOK

	if s.redis != nil {
		if err := s.redis.Ping(c.Request().Context()); err != nil {
			status["status"] = "degraded"
			status["redis"] = err.Error()
			code = http.StatusServiceUnavailable
		}
	}
	return c.JSON(code, status)
}

type webhookEvent struct {
	Event string `json:"event"`
	Data  struct {
		TransactionID string `json:"transaction_id"`
		Reference     string `json:"reference"`
		Status        string `json:"status"`
		Amount        string `json:"amount"`
	} `json:"data"`
	Timestamp int64  `json:"timestamp"`
	Checksum  string `json:"checksum"`
}

// gatewayWebhook is the fallback delivery path for settlement events when
// the realtime channel misses one. Replays are tolerated downstream.
func (s *Server) gatewayWebhook(c echo.Context) error {
	if s.cfg.VerifySecret != nil {
		if !s.cfg.VerifySecret(c.Request().Header.Get("X-Webhook-Secret")) {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid webhook secret"})
		}
	}

	var evt webhookEvent
	if err := c.Bind(&evt); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "malformed event"})
	}

	if s.cfg.VerifyChecksum != nil {
		if !s.cfg.VerifyChecksum(evt.Data.TransactionID, evt.Data.Status, evt.Data.Amount, evt.Checksum) {
			slog.Warn("gateway webhook checksum mismatch", "transaction", evt.Data.TransactionID)
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid checksum"})
		}
	}

	amount, err := decimal.NewFromString(evt.Data.Amount)
	if err != nil {
		amount = decimal.Zero
	}

	gwEvent := &gateway.Event{
		TransactionID: evt.Data.TransactionID,
		Reference:     evt.Data.Reference,
		Status:        gateway.MapStatus(evt.Data.Status),
		Amount:        amount,
		Timestamp:     evt.Timestamp,
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	if err := s.handler.HandleGatewayEvent(ctx, gwEvent); err != nil {
		slog.Error("gateway webhook handling failed", "transaction", evt.Data.TransactionID, "error", err)
		return c.JSON(http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "accepted"})
}
