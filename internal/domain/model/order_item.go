package model

import (
	"math"
	"time"
)

// カート1行・注文明細1行あたりの数量上限
const MaxLineQuantity int64 = 1000

// 注文時点の商品名と価格を残す
type OrderItem struct {
	ID                  int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID             int64     `gorm:"not null;index" json:"order_id"`
	ProductID           int64     `gorm:"not null;index" json:"product_id"`
	ProductNameSnapshot string    `gorm:"type:varchar(255);not null" json:"name"`
	UnitPriceSnapshot   int64     `gorm:"not null" json:"price"`
	Quantity            int64     `gorm:"not null" json:"quantity"`
	CreatedAt           time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}

func (i OrderItem) Subtotal() int64 {
	return i.UnitPriceSnapshot * i.Quantity
}

// total に price×qty を足す。負の値やint64に収まらない場合はfalse
func AddLineTotal(total, price, qty int64) (int64, bool) {
	if total < 0 || price < 0 || qty < 0 {
		return total, false
	}
	if qty > 0 && price > (math.MaxInt64-total)/qty {
		return total, false
	}
	return total + price*qty, true
}
