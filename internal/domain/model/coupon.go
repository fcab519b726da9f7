package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type CouponStatus string

const (
	CouponStatusActive  CouponStatus = "active"
	CouponStatusExpired CouponStatus = "expired"
)

func (s CouponStatus) Valid() bool {
	return s == CouponStatusActive || s == CouponStatusExpired
}

type Coupon struct {
	ID   int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Code string `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"`

	//割引率（%）。0より大きく100以下
	Discount decimal.Decimal `gorm:"type:numeric(5,2);not null" json:"discount"`

	Status         CouponStatus `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
	ExpirationDate time.Time    `gorm:"not null;index" json:"expiration_date"`
	CreatedAt      time.Time    `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time    `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// active かつ期限内のときだけ使える
func (c Coupon) UsableAt(now time.Time) bool {
	return c.Status == CouponStatusActive && c.ExpirationDate.After(now)
}
