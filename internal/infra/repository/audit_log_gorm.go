package repository

import (
	"context"
	"time"

	"ecshop/internal/domain/model"
	repo "ecshop/internal/repository"

	"gorm.io/gorm"
)

type AuditLogGormRepository struct {
	db *gorm.DB
}

func NewAuditLogGormRepository(db *gorm.DB) *AuditLogGormRepository {
	return &AuditLogGormRepository{db: db}
}

func (r *AuditLogGormRepository) Record(ctx context.Context, entry model.AuditLog) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	return r.db.WithContext(ctx).Create(&entry).Error
}

func (r *AuditLogGormRepository) Search(ctx context.Context, q repo.AuditLogQuery) ([]model.AuditLog, error) {
	db := r.db.WithContext(ctx).
		Scopes(auditLogFilter(q)).
		Order("created_at DESC, id DESC").
		Offset(q.Offset)
	if q.Limit > 0 {
		db = db.Limit(q.Limit)
	}

	logs := []model.AuditLog{}
	if err := db.Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

func auditLogFilter(q repo.AuditLogQuery) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if q.ActorUserID != nil {
			db = db.Where("actor_user_id = ?", *q.ActorUserID)
		}
		if q.Action != nil {
			db = db.Where("action = ?", *q.Action)
		}
		if q.ResourceType != nil {
			db = db.Where("resource_type = ?", *q.ResourceType)
		}
		if q.ResourceID != nil {
			db = db.Where("resource_id = ?", *q.ResourceID)
		}
		if q.From != nil {
			db = db.Where("created_at >= ?", *q.From)
		}
		if q.To != nil {
			db = db.Where("created_at <= ?", *q.To)
		}
		return db
	}
}
