package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactionStatusTerminal(t *testing.T) {
	assert.False(t, StatusPending.Terminal())
	assert.False(t, TransactionStatus("").Terminal())

	for _, s := range []TransactionStatus{StatusApproved, StatusDeclined, StatusVoided, StatusError} {
		assert.True(t, s.Terminal(), string(s))
	}
}

func TestAmountsConsistent(t *testing.T) {
	txn := Transaction{
		ProductAmount: 30000,
		BaseFee:       500,
		DeliveryFee:   900,
		TotalAmount:   31400,
	}
	assert.True(t, txn.AmountsConsistent())

	txn.TotalAmount = 31000
	assert.False(t, txn.AmountsConsistent())
}

func TestCardDataNeverSerializesSensitiveFields(t *testing.T) {
	card := CardData{
		Number:      "4111111111111111",
		HolderName:  "Jane Doe",
		ExpiryMonth: "09",
		ExpiryYear:  "28",
		CVC:         "123",
	}

	data, err := json.Marshal(card)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))

	assert.NotContains(t, string(data), "4111111111111111")
	assert.NotContains(t, string(data), "123")
	assert.Equal(t, "Jane Doe", out["holder_name"])
}

func TestCardDataLastFour(t *testing.T) {
	assert.Equal(t, "1111", CardData{Number: "4111111111111111"}.LastFour())
	assert.Equal(t, "42", CardData{Number: "42"}.LastFour())
}

func TestTransactionJSONOmitsEmptyGatewayFields(t *testing.T) {
	txn := Transaction{ID: "t1", Status: StatusPending}

	data, err := json.Marshal(txn)
	require.NoError(t, err)

	assert.NotContains(t, string(data), "gateway_transaction_id")
	assert.NotContains(t, string(data), "error_message")

	txn.GatewayTxnID = "gw-1"
	data, err = json.Marshal(txn)
	require.NoError(t, err)
	assert.Contains(t, string(data), "gateway_transaction_id")
}
