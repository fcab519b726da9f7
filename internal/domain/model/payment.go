package model

import "time"

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusSuccess PaymentStatus = "success"
	PaymentStatusFailed  PaymentStatus = "failed"
)

// ウォレット入金の1回分。pendingから抜けるのは1回だけ
type Payment struct {
	ID     int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	TxnRef string `gorm:"type:varchar(64);uniqueIndex;not null" json:"txn_ref"`
	UserID int64  `gorm:"not null;index" json:"user_id"`
	Amount int64  `gorm:"not null;check:amount > 0" json:"amount"`

	Status PaymentStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`

	//ゲートウェイから返ってきた値
	BankCode      string `gorm:"type:varchar(50)" json:"bank_code"`
	TransactionNo string `gorm:"type:varchar(50)" json:"transaction_no"`
	ResponseCode  string `gorm:"type:varchar(10)" json:"response_code"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
