package repository

import (
	"context"
	"errors"

	"ecshop/internal/domain/model"
	repo "ecshop/internal/repository"

	"gorm.io/gorm"
)

type ReviewGormRepository struct {
	db *gorm.DB
}

func NewReviewGormRepository(db *gorm.DB) *ReviewGormRepository {
	return &ReviewGormRepository{db: db}
}

func (r *ReviewGormRepository) Create(ctx context.Context, rv *model.Review) error {
	if err := r.db.WithContext(ctx).Create(rv).Error; err != nil {
		if isUniqueViolation(err) {
			return repo.ErrConflict
		}
		return err
	}
	return nil
}

func (r *ReviewGormRepository) FindByID(ctx context.Context, id int64) (model.Review, error) {
	var rv model.Review
	err := r.db.WithContext(ctx).First(&rv, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Review{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Review{}, err
	}
	return rv, nil
}

func (r *ReviewGormRepository) Update(ctx context.Context, rv model.Review) error {
	res := r.db.WithContext(ctx).Model(&model.Review{}).Where("id = ?", rv.ID).Updates(map[string]interface{}{
		"rating":  rv.Rating,
		"comment": rv.Comment,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *ReviewGormRepository) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&model.Review{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *ReviewGormRepository) ListByProductID(ctx context.Context, productID int64) ([]repo.ReviewRow, error) {
	var rows []repo.ReviewRow
	err := r.db.WithContext(ctx).
		Table("reviews").
		Select("reviews.*, users.username").
		Joins("LEFT JOIN users ON users.id = reviews.user_id").
		Where("reviews.product_id = ?", productID).
		Order("reviews.created_at desc").
		Scan(&rows).Error
	if err != nil {
		return []repo.ReviewRow{}, err
	}
	return rows, nil
}

func (r *ReviewGormRepository) Summary(ctx context.Context, productID int64) (repo.RatingSummary, error) {
	var out struct {
		Average *float64
		Count   int64
	}
	err := r.db.WithContext(ctx).
		Model(&model.Review{}).
		Select("AVG(rating) AS average, COUNT(*) AS count").
		Where("product_id = ?", productID).
		Scan(&out).Error
	if err != nil {
		return repo.RatingSummary{}, err
	}

	s := repo.RatingSummary{Count: out.Count}
	if out.Average != nil {
		s.Average = *out.Average
	}
	return s, nil
}
