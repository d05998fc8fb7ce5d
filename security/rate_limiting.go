package security

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"github.com/redis/go-redis/v9"
)

// RateLimiter provides Redis-backed request throttling for the ops surface.
type RateLimiter struct {
	redis *redis.Client
}

func NewRateLimiter(redisClient *redis.Client) *RateLimiter {
	return &RateLimiter{redis: redisClient}
}

// redisStore implements middleware.RateLimiterStore against a fixed window
// counter in Redis, so limits hold across instances.
type redisStore struct {
	redis  *redis.Client
	prefix string
	limit  int64
	window time.Duration
}

func (s *redisStore) Allow(identifier string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	key := fmt.Sprintf("%s:%s", s.prefix, identifier)
	count, err := s.redis.Incr(ctx, key).Result()
	if err != nil {
		// Redis being down should not take the webhook down with it.
		return true, nil
	}
	if count == 1 {
		s.redis.Expire(ctx, key, s.window)
	}
	return count <= s.limit, nil
}

// WebhookRateLimit caps gateway webhook deliveries per source IP. Legitimate
// gateways retry, so a burst over the cap only delays settlement.
func (l *RateLimiter) WebhookRateLimit() echo.MiddlewareFunc {
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: &redisStore{
			redis:  l.redis,
			prefix: "ratelimit:webhook",
			limit:  60,
			window: time.Minute,
		},
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return c.JSON(http.StatusForbidden, map[string]string{
				"error": "rate limit identification failed",
			})
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return c.JSON(http.StatusTooManyRequests, map[string]string{
				"error": "too many requests, slow down",
			})
		},
	})
}

var errTooManySubmissions = errors.New("too many submissions")

// AntiBot rejects obvious scripted traffic on the storefront API: suspicious
// user agents are turned away outright and one IP gets at most 30 checkout
// submissions a minute.
func (l *RateLimiter) AntiBot() func(e *core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		if isSuspiciousUserAgent(e.Request.Header.Get("User-Agent")) {
			return apis.NewForbiddenError("automated traffic is not allowed", nil)
		}

		ctx, cancel := context.WithTimeout(e.Request.Context(), 2*time.Second)
		defer cancel()

		if err := l.allowSubmission(ctx, e.RealIP()); err != nil {
			return apis.NewApiError(http.StatusTooManyRequests, "too many requests, slow down", nil)
		}

		return e.Next()
	}
}

// allowSubmission counts submissions per IP in a one-minute fixed window.
// Redis errors fail open so an outage does not block checkouts.
func (l *RateLimiter) allowSubmission(ctx context.Context, ip string) error {
	key := fmt.Sprintf("antibot:%s", ip)
	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return nil
	}
	if count == 1 {
		l.redis.Expire(ctx, key, time.Minute)
	}
	if count > 30 {
		return errTooManySubmissions
	}
	return nil
}

func isSuspiciousUserAgent(ua string) bool {
	if ua == "" {
		return true
	}
	ua = strings.ToLower(ua)
	for _, marker := range []string{"bot", "crawler", "spider", "scraper", "curl/", "python-requests"} {
		if strings.Contains(ua, marker) {
			return true
		}
	}
	return false
}
