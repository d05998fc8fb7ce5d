package utils

import (
	"context"
	"encoding/hex"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateCode(t *testing.T) {
	code, err := GenerateCode(8)
	require.NoError(t, err)
	assert.Len(t, code, 16)
	assert.Equal(t, strings.ToUpper(code), code)

	_, err = hex.DecodeString(code)
	assert.NoError(t, err)

	other, err := GenerateCode(8)
	require.NoError(t, err)
	assert.NotEqual(t, code, other)
}

func TestCircuitBreakerStaysClosedOnSuccess(t *testing.T) {
	cb := NewCircuitBreaker("test")

	for i := 0; i < 100; i++ {
		_, err := cb.Execute(context.Background(), func() (interface{}, error) {
			return "ok", nil
		})
		require.NoError(t, err)
	}
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreakerTripsOnFailureRatio(t *testing.T) {
	cb := NewCircuitBreaker("test")
	cb.maxRequests = 4

	boom := errors.New("gateway down")
	for i := 0; i < 4; i++ {
		_, err := cb.Execute(context.Background(), func() (interface{}, error) {
			return nil, boom
		})
		assert.ErrorIs(t, err, boom)
	}
	assert.Equal(t, StateOpen, cb.State())

	_, err := cb.Execute(context.Background(), func() (interface{}, error) {
		t.Fatal("request must not pass an open breaker")
		return nil, nil
	})
	assert.ErrorIs(t, err, ErrCircuitOpen)
}

func TestCircuitBreakerRecoversThroughHalfOpen(t *testing.T) {
	cb := NewCircuitBreaker("test")
	cb.maxRequests = 2
	cb.timeout = 20 * time.Millisecond

	boom := errors.New("gateway down")
	for i := 0; i < 2; i++ {
		cb.Execute(context.Background(), func() (interface{}, error) {
			return nil, boom
		})
	}
	require.Equal(t, StateOpen, cb.State())

	time.Sleep(30 * time.Millisecond)

	// First request after the timeout is the half-open trial.
	_, err := cb.Execute(context.Background(), func() (interface{}, error) {
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreakerStateString(t *testing.T) {
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "half-open", StateHalfOpen.String())
	assert.Equal(t, "open", StateOpen.String())
}
