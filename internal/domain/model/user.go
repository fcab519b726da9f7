package model

import "time"

type Role string

const (
	RoleUser            Role = "user"
	RoleAdmin           Role = "admin"
	RoleDelivery        Role = "delivery"
	RoleCustomerService Role = "customer_service"
)

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleDelivery, RoleCustomerService:
		return true
	}
	return false
}

type User struct {
	ID       int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Username string `gorm:"type:varchar(50);uniqueIndex;not null" json:"username"`
	Email    string `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	//ハッシュのみ保存
	PasswordHash string `gorm:"column:password_hash;not null" json:"-"`
	Role         Role   `gorm:"type:varchar(30);not null;default:'user';index" json:"role"`

	//ウォレット残高（VND）。マイナスにはならない
	WalletBalance int64 `gorm:"not null;default:0;check:wallet_balance >= 0" json:"wallet_balance"`

	//配送員のみ
	PhoneNumber    string `gorm:"type:varchar(30)" json:"phone_number,omitempty"`
	VehicleType    string `gorm:"type:varchar(50)" json:"vehicle_type,omitempty"`
	ActiveDelivery bool   `gorm:"not null;default:false" json:"active_delivery"`

	TokenVersion int        `gorm:"not null;default:0" json:"-"`
	IsActive     bool       `gorm:"not null;default:true" json:"is_active"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}
