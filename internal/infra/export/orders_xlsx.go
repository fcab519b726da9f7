package export

import (
	"fmt"
	"io"
	"strings"

	"ecshop/internal/domain/model"

	"github.com/tealeg/xlsx"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	sheetName       = "Orders"
	timeLayout      = "2006-01-02 15:04:05"
)

var orderHeaders = []string{
	"ID", "UserID", "Username", "Email", "Items", "TotalPrice", "PaymentMethod",
	"Status", "DeliveryStatus", "DeliveryPerson", "DeliveryAttempts",
	"ShippingAddress", "Phone", "CreatedAt", "DeliveredAt",
}

// 管理者向けの注文一覧Excel
type OrderXLSXExporter struct{}

func NewOrderXLSXExporter() *OrderXLSXExporter {
	return &OrderXLSXExporter{}
}

func (OrderXLSXExporter) ContentType() string   { return xlsxContentType }
func (OrderXLSXExporter) FileExtension() string { return ".xlsx" }

func (OrderXLSXExporter) WriteOrders(w io.Writer, orders []model.Order) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet(sheetName)
	if err != nil {
		return fmt.Errorf("add sheet: %w", err)
	}

	header := sheet.AddRow()
	for _, h := range orderHeaders {
		header.AddCell().SetString(h)
	}

	for _, o := range orders {
		row := sheet.AddRow()
		row.AddCell().SetInt64(o.ID)
		row.AddCell().SetInt64(o.UserID)

		var username, email string
		if o.User != nil {
			username, email = o.User.Username, o.User.Email
		}
		row.AddCell().SetString(username)
		row.AddCell().SetString(email)
		row.AddCell().SetString(itemsSummary(o.Items))
		row.AddCell().SetInt64(o.TotalPrice)
		row.AddCell().SetString(string(o.PaymentMethod))
		row.AddCell().SetString(string(o.Status))
		row.AddCell().SetString(string(o.DeliveryStatus))

		var person string
		if o.DeliveryPerson != nil {
			person = o.DeliveryPerson.Username
		}
		row.AddCell().SetString(person)
		row.AddCell().SetInt(o.DeliveryAttempts)
		row.AddCell().SetString(o.ShippingAddress.Address)
		row.AddCell().SetString(o.ShippingAddress.Phone)
		row.AddCell().SetString(o.CreatedAt.Format(timeLayout))

		var delivered string
		if o.DeliveryDate != nil {
			delivered = o.DeliveryDate.Format(timeLayout)
		}
		row.AddCell().SetString(delivered)
	}

	if err := file.Write(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

// "商品名 x数量" をカンマ区切り
func itemsSummary(items []model.OrderItem) string {
	parts := make([]string, 0, len(items))
	for _, it := range items {
		parts = append(parts, fmt.Sprintf("%s x%d", it.ProductNameSnapshot, it.Quantity))
	}
	return strings.Join(parts, ", ")
}
