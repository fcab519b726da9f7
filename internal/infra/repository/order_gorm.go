package repository

import (
	"context"
	"errors"

	"ecshop/internal/domain/model"
	repo "ecshop/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OrderGormRepository struct {
	db *gorm.DB
}

func NewOrderGormRepository(db *gorm.DB) *OrderGormRepository {
	return &OrderGormRepository{db: db}
}

// 明細は別で保存する
func (r *OrderGormRepository) Create(ctx context.Context, order *model.Order) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(order).Error; err != nil {
		if isUniqueViolation(err) {
			return repo.ErrConflict
		}
		return err
	}
	return nil
}

// 明細・対応履歴・注文者/配送員の概要まで読む
func (r *OrderGormRepository) withDetails(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Items", func(tx *gorm.DB) *gorm.DB { return tx.Order("id asc") }).
		Preload("ContactHistory", func(tx *gorm.DB) *gorm.DB { return tx.Order("id asc") }).
		Preload("User", userSummaryColumns).
		Preload("DeliveryPerson", userSummaryColumns)
}

func userSummaryColumns(tx *gorm.DB) *gorm.DB {
	return tx.Select("id", "username", "email", "phone_number", "vehicle_type")
}

func (r *OrderGormRepository) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	var o model.Order
	err := r.withDetails(r.db.WithContext(ctx)).Where("id = ?", orderID).First(&o).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Order{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Order{}, err
	}
	return o, nil
}

// SELECT ... FOR UPDATE。Tx外で呼ぶとロックはすぐ外れる
func (r *OrderGormRepository) FindByIDForUpdate(ctx context.Context, orderID int64) (model.Order, error) {
	var o model.Order
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", orderID).
		First(&o).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Order{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Order{}, err
	}
	return o, nil
}

func (r *OrderGormRepository) FindByIdempotencyKey(ctx context.Context, userID int64, key string) (model.Order, bool, error) {
	var o model.Order
	err := r.withDetails(r.db.WithContext(ctx)).
		Where("user_id = ? AND idempotency_key = ?", userID, key).
		First(&o).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Order{}, false, nil
	}
	if err != nil {
		return model.Order{}, false, err
	}
	return o, true, nil
}

func (r *OrderGormRepository) ListByUserID(ctx context.Context, userID int64) ([]model.Order, error) {
	var items []model.Order
	err := r.withDetails(r.db.WithContext(ctx)).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Order("id desc").
		Find(&items).Error
	if err != nil {
		return []model.Order{}, err
	}
	return items, nil
}

func (r *OrderGormRepository) List(ctx context.Context, f repo.OrderListFilter) ([]model.Order, error) {
	q := r.withDetails(r.db.WithContext(ctx)).Model(&model.Order{})

	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}
	if f.From != nil {
		q = q.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("created_at <= ?", *f.To)
	}
	if f.DeliveryPersonID != nil {
		q = q.Where("delivery_person_id = ?", *f.DeliveryPersonID)
	}
	if len(f.ExcludeDeliveryStatuses) > 0 {
		q = q.Where("delivery_status NOT IN ?", f.ExcludeDeliveryStatuses)
	}

	q = q.Order("created_at desc").Order("id desc")
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}

	var items []model.Order
	if err := q.Find(&items).Error; err != nil {
		return []model.Order{}, err
	}
	return items, nil
}

// 状態に関わる列だけ更新する（金額や明細は触らない）
func (r *OrderGormRepository) SaveState(ctx context.Context, o model.Order) error {
	res := r.db.WithContext(ctx).
		Model(&model.Order{ID: o.ID}).
		Select(
			"status",
			"delivery_status",
			"delivery_person_id",
			"delivery_notes",
			"delivery_attempts",
			"delivery_date",
			"customer_service_notes",
			"customer_service_agent_id",
		).
		Omit(clause.Associations).
		Updates(&o)

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *OrderGormRepository) AddContactNote(ctx context.Context, note *model.ContactNote) error {
	return r.db.WithContext(ctx).Create(note).Error
}

func (r *OrderGormRepository) Stats(ctx context.Context, agentID int64) (repo.OrderStats, error) {
	stats := repo.OrderStats{ByStatus: map[model.OrderStatus]int64{}}
	db := r.db.WithContext(ctx)

	if err := db.Model(&model.Order{}).Count(&stats.Total).Error; err != nil {
		return repo.OrderStats{}, err
	}
	if err := db.Model(&model.Order{}).
		Where("customer_service_agent_id = ?", agentID).
		Count(&stats.Handled).Error; err != nil {
		return repo.OrderStats{}, err
	}

	var rows []struct {
		Status model.OrderStatus
		Count  int64
	}
	if err := db.Model(&model.Order{}).
		Select("status, count(*) AS count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return repo.OrderStats{}, err
	}
	for _, row := range rows {
		stats.ByStatus[row.Status] = row.Count
	}
	return stats, nil
}
