package gateway

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/services/gateway/wompi"
	"storefront/models"
)

func TestMapStatus(t *testing.T) {
	assert.Equal(t, models.StatusPending, MapStatus("PENDING"))
	assert.Equal(t, models.StatusApproved, MapStatus("APPROVED"))
	assert.Equal(t, models.StatusDeclined, MapStatus("DECLINED"))
	assert.Equal(t, models.StatusVoided, MapStatus("VOIDED"))
	assert.Equal(t, models.StatusError, MapStatus("ERROR"))

	// Unknown statuses must never read as settled success.
	assert.Equal(t, models.StatusError, MapStatus("SOMETHING_NEW"))
	assert.Equal(t, models.StatusError, MapStatus(""))
}

func TestPumpEventsForwardsCharges(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	charges := make(chan *wompi.Charge, 1)
	out := make(chan *Event, 1)
	go pumpEvents(ctx, charges, out)

	charges <- &wompi.Charge{
		ID:        "gw-1",
		Reference: "REF1",
		Status:    "APPROVED",
		Amount:    decimal.NewFromInt(11400),
		Timestamp: 1756700000,
	}

	select {
	case evt := <-out:
		assert.Equal(t, "gw-1", evt.TransactionID)
		assert.Equal(t, models.StatusApproved, evt.Status)
		assert.Equal(t, "11400", evt.Amount.String())
	case <-time.After(time.Second):
		t.Fatal("expected a forwarded event")
	}
}

func TestPumpEventsStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	charges := make(chan *wompi.Charge)
	out := make(chan *Event)
	done := make(chan struct{})
	go func() {
		pumpEvents(ctx, charges, out)
		close(done)
	}()

	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("pump did not exit after cancellation")
	}
}

func TestPumpEventsDropsSendAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	charges := make(chan *wompi.Charge, 1)
	out := make(chan *Event) // unbuffered, nobody reading
	done := make(chan struct{})
	go func() {
		pumpEvents(ctx, charges, out)
		close(done)
	}()

	charges <- &wompi.Charge{ID: "gw-1", Status: "APPROVED"}
	// Give the pump a moment to block on the send, then cancel.
	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("pump did not exit while blocked on send")
	}

	require.Empty(t, out)
}
