package model

import "time"

type AuditAction string

const (
	//注文ステータスを更新した操作。
	AuditActionUpdateOrderStatus AuditAction = "UPDATE_ORDER_STATUS"
	//配送員を割り当てた操作。
	AuditActionAssignDelivery AuditAction = "ASSIGN_DELIVERY"
	//クーポンの状態を変えた操作。
	AuditActionUpdateCouponStatus AuditAction = "UPDATE_COUPON_STATUS"
	//スタッフアカウント作成。
	AuditActionCreateStaff AuditAction = "CREATE_STAFF"
	//強制ログアウト。
	AuditActionForceLogout AuditAction = "FORCE_LOGOUT"
)

func (a AuditAction) Valid() bool {
	switch a {
	case AuditActionUpdateOrderStatus, AuditActionAssignDelivery, AuditActionUpdateCouponStatus,
		AuditActionCreateStaff, AuditActionForceLogout:
		return true
	}
	return false
}

// 何に対する操作か
type AuditResourceType string

const (
	AuditResourceOrder  AuditResourceType = "order"
	AuditResourceCoupon AuditResourceType = "coupon"
	AuditResourceUser   AuditResourceType = "user"
)

func (t AuditResourceType) Valid() bool {
	return t == AuditResourceOrder || t == AuditResourceCoupon || t == AuditResourceUser
}

// 監査ログ（管理者・CS操作ログ）。
// 「誰が」「何を」「どの対象に」「どう変えたか」を残す。
type AuditLog struct {
	ID           int64             `gorm:"primaryKey;autoIncrement" json:"id"`
	ActorUserID  int64             `gorm:"not null;index" json:"actor_user_id"`
	Action       AuditAction       `gorm:"type:varchar(50);not null;index" json:"action"`
	ResourceType AuditResourceType `gorm:"type:varchar(50);not null;index" json:"resource_type"`
	ResourceID   int64             `gorm:"not null;index" json:"resource_id"`

	//JSON文字列で保存する。
	BeforeJSON string `gorm:"type:text" json:"before_json"`
	AfterJSON  string `gorm:"type:text" json:"after_json"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
}
