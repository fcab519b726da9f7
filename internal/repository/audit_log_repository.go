package repository

import (
	"context"
	"time"

	"ecshop/internal/domain/model"
)

// nilの項目は絞り込まない。Limit/Offsetはusecase側で検証済み
type AuditLogQuery struct {
	ActorUserID  *int64
	Action       *model.AuditAction
	ResourceType *model.AuditResourceType
	ResourceID   *int64
	From         *time.Time
	To           *time.Time
	Limit        int
	Offset       int
}

// スタッフ操作・注文更新の記録。追記のみで更新・削除はしない
type AuditLogRepository interface {
	Record(ctx context.Context, entry model.AuditLog) error
	// 新しい順
	Search(ctx context.Context, q AuditLogQuery) ([]model.AuditLog, error)
}
