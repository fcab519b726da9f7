package export

import (
	"bytes"
	"testing"
	"time"

	"ecshop/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx"
)

func TestOrderXLSXExporter_WriteOrders(t *testing.T) {
	delivered := time.Date(2024, 5, 2, 10, 0, 0, 0, time.UTC)
	personID := int64(9)
	orders := []model.Order{
		{
			ID:     1,
			UserID: 3,
			User:   &model.User{ID: 3, Username: "alice", Email: "alice@example.com"},
			Items: []model.OrderItem{
				{ProductNameSnapshot: "Tea", Quantity: 2, UnitPriceSnapshot: 1000},
				{ProductNameSnapshot: "Cup", Quantity: 1, UnitPriceSnapshot: 500},
			},
			ShippingAddress:  model.ShippingAddress{Address: "1 Main St", Phone: "0900"},
			PaymentMethod:    model.PaymentMethodCOD,
			TotalPrice:       2500,
			Status:           model.OrderStatusDelivered,
			DeliveryStatus:   model.DeliveryStatusDelivered,
			DeliveryPersonID: &personID,
			DeliveryPerson:   &model.User{ID: 9, Username: "rider"},
			DeliveryDate:     &delivered,
			CreatedAt:        time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC),
		},
		{
			ID:             2,
			UserID:         4,
			PaymentMethod:  model.PaymentMethodVNPay,
			TotalPrice:     100,
			Status:         model.OrderStatusPending,
			DeliveryStatus: model.DeliveryStatusNotAssigned,
		},
	}

	ex := NewOrderXLSXExporter()
	assert.Equal(t, ".xlsx", ex.FileExtension())
	assert.Contains(t, ex.ContentType(), "spreadsheetml")

	var buf bytes.Buffer
	require.NoError(t, ex.WriteOrders(&buf, orders))

	f, err := xlsx.OpenBinary(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, f.Sheets, 1)
	sheet := f.Sheets[0]
	assert.Equal(t, "Orders", sheet.Name)
	require.Len(t, sheet.Rows, 3)

	header := sheet.Rows[0].Cells
	require.Len(t, header, len(orderHeaders))
	assert.Equal(t, "ID", header[0].Value)
	assert.Equal(t, "DeliveredAt", header[len(header)-1].Value)

	first := sheet.Rows[1].Cells
	assert.Equal(t, "1", first[0].Value)
	assert.Equal(t, "alice", first[2].Value)
	assert.Equal(t, "Tea x2, Cup x1", first[4].Value)
	assert.Equal(t, "2500", first[5].Value)
	assert.Equal(t, "Delivered", first[7].Value)
	assert.Equal(t, "rider", first[9].Value)
	assert.Equal(t, "2024-05-02 10:00:00", first[14].Value)

	second := sheet.Rows[2].Cells
	assert.Equal(t, "2", second[0].Value)
	assert.Equal(t, "", second[2].Value)
	assert.Equal(t, "VNPAY", second[6].Value)
}

func TestOrderXLSXExporter_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewOrderXLSXExporter().WriteOrders(&buf, nil))

	f, err := xlsx.OpenBinary(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, f.Sheets[0].Rows, 1)
}
