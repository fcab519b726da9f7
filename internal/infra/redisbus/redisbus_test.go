package redisbus

import (
	"encoding/json"
	"testing"

	"ecshop/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeEvent(t *testing.T) {
	b, err := json.Marshal(model.OrderUpdatedEvent{OrderID: 5, Status: model.OrderStatusOutForDelivery})
	require.NoError(t, err)

	ev, err := decodeEvent(string(b))
	require.NoError(t, err)
	assert.Equal(t, int64(5), ev.OrderID)
	assert.Equal(t, model.OrderStatusOutForDelivery, ev.Status)

	for _, bad := range []string{
		`not json`,
		`{"order_id":0,"status":"Pending"}`,
		`{"order_id":1,"status":"Lost"}`,
	} {
		_, err := decodeEvent(bad)
		assert.Error(t, err, bad)
	}
}
