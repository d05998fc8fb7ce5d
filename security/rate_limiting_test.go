package security

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsSuspiciousUserAgent(t *testing.T) {
	suspicious := []string{
		"",
		"Googlebot/2.1",
		"my-crawler 1.0",
		"curl/8.4.0",
		"python-requests/2.31",
		"SomeSpider",
	}
	for _, ua := range suspicious {
		assert.True(t, isSuspiciousUserAgent(ua), ua)
	}

	legit := []string{
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36",
		"Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X)",
	}
	for _, ua := range legit {
		assert.False(t, isSuspiciousUserAgent(ua), ua)
	}
}

func TestRedisStoreAllowWithinLimit(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := &redisStore{redis: db, prefix: "ratelimit:test", limit: 2, window: time.Minute}

	mock.ExpectIncr("ratelimit:test:1.2.3.4").SetVal(1)
	mock.ExpectExpire("ratelimit:test:1.2.3.4", time.Minute).SetVal(true)

	allowed, err := store.Allow("1.2.3.4")
	require.NoError(t, err)
	assert.True(t, allowed)

	mock.ExpectIncr("ratelimit:test:1.2.3.4").SetVal(2)
	allowed, _ = store.Allow("1.2.3.4")
	assert.True(t, allowed)

	mock.ExpectIncr("ratelimit:test:1.2.3.4").SetVal(3)
	allowed, _ = store.Allow("1.2.3.4")
	assert.False(t, allowed)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAllowSubmissionCountsPerIP(t *testing.T) {
	db, mock := redismock.NewClientMock()
	limiter := NewRateLimiter(db)
	ctx := context.Background()

	mock.ExpectIncr("antibot:1.2.3.4").SetVal(1)
	mock.ExpectExpire("antibot:1.2.3.4", time.Minute).SetVal(true)
	require.NoError(t, limiter.allowSubmission(ctx, "1.2.3.4"))

	mock.ExpectIncr("antibot:1.2.3.4").SetVal(30)
	require.NoError(t, limiter.allowSubmission(ctx, "1.2.3.4"))

	mock.ExpectIncr("antibot:1.2.3.4").SetVal(31)
	assert.ErrorIs(t, limiter.allowSubmission(ctx, "1.2.3.4"), errTooManySubmissions)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAllowSubmissionFailsOpen(t *testing.T) {
	db, mock := redismock.NewClientMock()
	limiter := NewRateLimiter(db)

	mock.ExpectIncr("antibot:1.2.3.4").SetErr(assert.AnError)
	assert.NoError(t, limiter.allowSubmission(context.Background(), "1.2.3.4"))
}

func TestRedisStoreFailsOpen(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := &redisStore{redis: db, prefix: "ratelimit:test", limit: 1, window: time.Minute}

	mock.ExpectIncr("ratelimit:test:1.2.3.4").SetErr(assert.AnError)

	allowed, err := store.Allow("1.2.3.4")
	require.NoError(t, err)
	assert.True(t, allowed)
}
