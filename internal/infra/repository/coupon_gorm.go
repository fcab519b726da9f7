package repository

import (
	"context"
	"errors"
	"time"

	"ecshop/internal/domain/model"
	repo "ecshop/internal/repository"

	"gorm.io/gorm"
)

type CouponGormRepository struct {
	db *gorm.DB
}

func NewCouponGormRepository(db *gorm.DB) *CouponGormRepository {
	return &CouponGormRepository{db: db}
}

func (r *CouponGormRepository) Create(ctx context.Context, c *model.Coupon) error {
	if err := r.db.WithContext(ctx).Create(c).Error; err != nil {
		if isUniqueViolation(err) {
			return repo.ErrConflict
		}
		return err
	}
	return nil
}

func (r *CouponGormRepository) List(ctx context.Context) ([]model.Coupon, error) {
	var coupons []model.Coupon
	if err := r.db.WithContext(ctx).Order("created_at desc").Find(&coupons).Error; err != nil {
		return []model.Coupon{}, err
	}
	return coupons, nil
}

func (r *CouponGormRepository) FindByID(ctx context.Context, id int64) (model.Coupon, error) {
	var c model.Coupon
	err := r.db.WithContext(ctx).First(&c, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Coupon{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Coupon{}, err
	}
	return c, nil
}

// 使用時点で active かつ期限内のものだけ
func (r *CouponGormRepository) FindUsableByCode(ctx context.Context, code string, now time.Time) (model.Coupon, error) {
	var c model.Coupon
	err := r.db.WithContext(ctx).
		Where("code = ? AND status = ? AND expiration_date > ?", code, model.CouponStatusActive, now).
		First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Coupon{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Coupon{}, err
	}
	return c, nil
}

func (r *CouponGormRepository) Update(ctx context.Context, c model.Coupon) error {
	res := r.db.WithContext(ctx).Model(&model.Coupon{}).Where("id = ?", c.ID).Updates(map[string]interface{}{
		"code":            c.Code,
		"discount":        c.Discount,
		"status":          c.Status,
		"expiration_date": c.ExpirationDate,
	})
	if res.Error != nil {
		if isUniqueViolation(res.Error) {
			return repo.ErrConflict
		}
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *CouponGormRepository) UpdateStatus(ctx context.Context, id int64, status model.CouponStatus) error {
	res := r.db.WithContext(ctx).Model(&model.Coupon{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *CouponGormRepository) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&model.Coupon{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}
