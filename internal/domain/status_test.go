package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderStatusJSONRoundTrip(t *testing.T) {
	payload, err := json.Marshal(OrderArrived)
	require.NoError(t, err)
	assert.Equal(t, `"arrived"`, string(payload))

	var status OrderStatus
	require.NoError(t, json.Unmarshal([]byte(`"Received"`), &status))
	assert.Equal(t, OrderReceived, status)
}

func TestOrderStatusUnmarshalRejectsUnknownLabel(t *testing.T) {
	var status OrderStatus
	err := json.Unmarshal([]byte(`"cancelled"`), &status)

	var invalid *InvalidInputError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "status", invalid.Field)
}

func TestParseOrderStatusIsCaseInsensitive(t *testing.T) {
	status, ok := ParseOrderStatus("PENDING")
	require.True(t, ok)
	assert.Equal(t, OrderPending, status)

	_, ok = ParseOrderStatus("cancelled")
	assert.False(t, ok)
}

func TestStockConditionsCoversEveryBucket(t *testing.T) {
	conditions := StockConditions()

	assert.ElementsMatch(t, []string{
		StockUnderstocked,
		StockHealthy,
		StockOverstocked,
		StockDead,
		StockNoDemand,
	}, conditions)
}
