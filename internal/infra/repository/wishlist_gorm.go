package repository

import (
	"context"

	"ecshop/internal/domain/model"
	repo "ecshop/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type WishlistGormRepository struct {
	db *gorm.DB
}

func NewWishlistGormRepository(db *gorm.DB) *WishlistGormRepository {
	return &WishlistGormRepository{db: db}
}

func (r *WishlistGormRepository) ListLinesByUserID(ctx context.Context, userID int64) ([]repo.WishlistLine, error) {
	var lines []repo.WishlistLine

	err := r.db.WithContext(ctx).
		Table("wishlist_items").
		Select("wishlist_items.product_id, products.name, products.price, products.image, products.brand").
		Joins("LEFT JOIN products ON products.id = wishlist_items.product_id AND products.deleted_at IS NULL").
		Where("wishlist_items.user_id = ?", userID).
		Order("wishlist_items.id asc").
		Scan(&lines).Error
	if err != nil {
		return []repo.WishlistLine{}, err
	}
	return lines, nil
}

// 既にある場合は何もしないでErrConflict
func (r *WishlistGormRepository) Create(ctx context.Context, userID int64, productID int64) error {
	item := model.WishlistItem{UserID: userID, ProductID: productID}

	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&item)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrConflict
	}
	return nil
}

func (r *WishlistGormRepository) Delete(ctx context.Context, userID int64, productID int64) error {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&model.WishlistItem{})

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}
