package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"storefront/models"
)

func TestComputeAmounts(t *testing.T) {
	tests := []struct {
		name        string
		price       int64
		quantity    int
		baseFee     int64
		deliveryFee int64
		wantTotal   int64
	}{
		{"single unit", 10000, 1, 500, 900, 11400},
		{"multiple units", 10000, 3, 500, 900, 31400},
		{"zero quantity clamps to one", 10000, 0, 500, 900, 11400},
		{"negative quantity clamps to one", 10000, -2, 500, 900, 11400},
		{"free product still pays fees", 0, 1, 500, 900, 1400},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeAmounts(tt.price, tt.quantity, tt.baseFee, tt.deliveryFee)
			assert.Equal(t, tt.wantTotal, got.Total)
			assert.Equal(t, got.Total, got.Product+got.Base+got.Delivery)
		})
	}
}

type recordingPublisher struct {
	channels []string
	messages []map[string]any
}

func (p *recordingPublisher) Publish(channel string, message map[string]any) {
	p.channels = append(p.channels, channel)
	p.messages = append(p.messages, message)
}

func TestPublishStatusChannels(t *testing.T) {
	pub := &recordingPublisher{}
	svc := &TransactionService{publisher: pub}

	txn := &models.Transaction{ID: "txn1", Status: models.StatusApproved, TotalAmount: 11400}

	svc.publishStatus(txn, "")
	svc.publishStatus(txn, "sess42")

	assert.Equal(t, []string{"transaction-txn1", "session-sess42"}, pub.channels)
	assert.Equal(t, "APPROVED", pub.messages[0]["status"])
	assert.Equal(t, int64(11400), pub.messages[0]["total_amount"])
}
