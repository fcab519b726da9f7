package model

import (
	"errors"
	"time"
)

// 顧客から見える注文ステータス
type OrderStatus string

const (
	OrderStatusPending            OrderStatus = "Pending"
	OrderStatusProcessing         OrderStatus = "Processing"
	OrderStatusReadyForDelivery   OrderStatus = "Ready for Delivery"
	OrderStatusAssignedToDelivery OrderStatus = "Assigned to Delivery"
	OrderStatusDeliveryAccepted   OrderStatus = "Delivery Accepted"
	OrderStatusOutForDelivery     OrderStatus = "Out for Delivery"
	OrderStatusDelivered          OrderStatus = "Delivered"
	OrderStatusDeliveryFailed     OrderStatus = "Delivery Failed"
	OrderStatusCancelled          OrderStatus = "Cancelled"
)

var OrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusProcessing,
	OrderStatusReadyForDelivery,
	OrderStatusAssignedToDelivery,
	OrderStatusDeliveryAccepted,
	OrderStatusOutForDelivery,
	OrderStatusDelivered,
	OrderStatusDeliveryFailed,
	OrderStatusCancelled,
}

func (s OrderStatus) Valid() bool {
	for _, v := range OrderStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// 終端。Delivery Failedは再割当てできるので含めない
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// 配送員側の状態
type DeliveryStatus string

const (
	DeliveryStatusNotAssigned DeliveryStatus = "Not Assigned"
	DeliveryStatusAssigned    DeliveryStatus = "Assigned"
	DeliveryStatusAccepted    DeliveryStatus = "Accepted"
	DeliveryStatusRejected    DeliveryStatus = "Rejected"
	DeliveryStatusInTransit   DeliveryStatus = "In Transit"
	DeliveryStatusDelivered   DeliveryStatus = "Delivered"
	DeliveryStatusFailed      DeliveryStatus = "Failed"
)

var DeliveryStatuses = []DeliveryStatus{
	DeliveryStatusNotAssigned,
	DeliveryStatusAssigned,
	DeliveryStatusAccepted,
	DeliveryStatusRejected,
	DeliveryStatusInTransit,
	DeliveryStatusDelivered,
	DeliveryStatusFailed,
}

type PaymentMethod string

const (
	PaymentMethodCOD PaymentMethod = "COD"
	//ウォレット残高から引き落とす
	PaymentMethodVNPay PaymentMethod = "VNPAY"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentMethodCOD || m == PaymentMethodVNPay
}

type ShippingAddress struct {
	Address string `gorm:"type:varchar(500);not null" json:"address"`
	Phone   string `gorm:"type:varchar(30);not null" json:"phone"`
	Email   string `gorm:"type:varchar(255);not null" json:"email"`
}

type Order struct {
	ID              int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID          int64           `gorm:"not null;index;uniqueIndex:idx_orders_user_idempotency" json:"user_id"`
	User            *User           `gorm:"foreignKey:UserID" json:"-"`
	Items           []OrderItem     `gorm:"foreignKey:OrderID" json:"items"`
	ShippingAddress ShippingAddress `gorm:"embedded;embeddedPrefix:shipping_" json:"shipping_address"`
	PaymentMethod   PaymentMethod   `gorm:"type:varchar(20);not null" json:"payment_method"`

	//作成時点で確定。以後変えない
	TotalPrice int64 `gorm:"not null" json:"total_price"`

	Status           OrderStatus    `gorm:"type:varchar(30);not null;index" json:"status"`
	DeliveryStatus   DeliveryStatus `gorm:"type:varchar(30);not null;index" json:"delivery_status"`
	DeliveryPersonID *int64         `gorm:"index" json:"delivery_person_id"`
	DeliveryPerson   *User          `gorm:"foreignKey:DeliveryPersonID" json:"-"`
	DeliveryNotes    string         `gorm:"type:text" json:"delivery_notes"`
	DeliveryAttempts int            `gorm:"not null;default:0" json:"delivery_attempts"`
	DeliveryDate     *time.Time     `json:"delivery_date"`

	//最新メモ（履歴はContactHistory）
	CustomerServiceNotes   string        `gorm:"type:text" json:"customer_service_notes"`
	CustomerServiceAgentID *int64        `gorm:"index" json:"customer_service_agent_id"`
	ContactHistory         []ContactNote `gorm:"foreignKey:OrderID" json:"customer_contact_history"`

	IdempotencyKey *string   `gorm:"type:varchar(255);uniqueIndex:idx_orders_user_idempotency" json:"-"`
	CreatedAt      time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// CSの対応履歴（追記のみ）
type ContactNote struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID   int64     `gorm:"not null;index" json:"order_id"`
	AgentID   int64     `gorm:"not null;index" json:"agent_id"`
	Note      string    `gorm:"type:text;not null" json:"note"`
	CreatedAt time.Time `gorm:"not null" json:"date"`
}

var (
	ErrInvalidOrderStatus = errors.New("invalid order status")
	ErrOrderFinalized     = errors.New("order is already finalized")
)

// 管理者/CSによるステータス変更。
// Ready for Deliveryに戻すと配送員を外して再割当て可能にする
func (o *Order) SetStatus(s OrderStatus) error {
	if !s.Valid() {
		return ErrInvalidOrderStatus
	}
	if o.Status == s {
		return nil
	}
	if o.Status.Terminal() {
		return ErrOrderFinalized
	}

	o.Status = s
	if s == OrderStatusReadyForDelivery {
		o.DeliveryPersonID = nil
		o.DeliveryStatus = DeliveryStatusNotAssigned
	}
	return nil
}

// 注文の状態が変わったことを通知するイベント
type OrderUpdatedEvent struct {
	OrderID int64       `json:"order_id"`
	Status  OrderStatus `json:"status"`
}
