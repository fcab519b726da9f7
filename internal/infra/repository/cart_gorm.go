package repository

import (
	"context"
	"errors"
	"time"

	"ecshop/internal/domain/model"
	repo "ecshop/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CartGormRepository struct {
	db *gorm.DB
}

// DI
func NewCartGormRepository(db *gorm.DB) *CartGormRepository {
	return &CartGormRepository{db: db}
}

// カート明細を一覧取得
func (r *CartGormRepository) ListByUserID(ctx context.Context, userID int64) ([]model.CartItem, error) {
	var items []model.CartItem

	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id asc").
		Find(&items).Error; err != nil {
		return []model.CartItem{}, err
	}

	return items, nil
}

// 商品情報付きで取得。削除された商品はNULLで返る
func (r *CartGormRepository) ListLinesByUserID(ctx context.Context, userID int64) ([]repo.CartLine, error) {
	var lines []repo.CartLine

	err := r.db.WithContext(ctx).
		Table("cart_items").
		Select("cart_items.product_id, cart_items.quantity, products.name, products.price, products.image, products.brand").
		Joins("LEFT JOIN products ON products.id = cart_items.product_id AND products.deleted_at IS NULL").
		Where("cart_items.user_id = ?", userID).
		Order("cart_items.id asc").
		Scan(&lines).Error
	if err != nil {
		return []repo.CartLine{}, err
	}
	return lines, nil
}

// 同一商品は数量加算。
// 同時に追加されても1行になるようにON CONFLICTで1文にする。
// 加算後に上限を超えるなら更新せずErrConflict
func (r *CartGormRepository) AddQuantity(ctx context.Context, userID int64, productID int64, qty int64) error {
	if qty <= 0 {
		return errors.New("invalid quantity")
	}
	if qty > model.MaxLineQuantity {
		return repo.ErrConflict
	}

	now := time.Now()
	item := model.CartItem{
		UserID:    userID,
		ProductID: productID,
		Quantity:  qty,
		CreatedAt: now,
		UpdatedAt: now,
	}

	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"quantity":   gorm.Expr("cart_items.quantity + EXCLUDED.quantity"),
				"updated_at": gorm.Expr("EXCLUDED.updated_at"),
			}),
			Where: clause.Where{Exprs: []clause.Expression{
				gorm.Expr("cart_items.quantity + EXCLUDED.quantity <= ?", model.MaxLineQuantity),
			}},
		}).
		Create(&item)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrConflict
	}
	return nil
}

// 明細を削除
func (r *CartGormRepository) Delete(ctx context.Context, userID int64, productID int64) error {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&model.CartItem{})

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// ユーザーの明細を全削除
func (r *CartGormRepository) ClearByUserID(ctx context.Context, userID int64) error {
	return r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&model.CartItem{}).Error
}
