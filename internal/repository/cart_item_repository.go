package repository

import (
	"context"

	"ecshop/internal/domain/model"
)

// 商品と結合したカート1行。商品が消えていればnil
type CartLine struct {
	ProductID int64
	Quantity  int64
	Name      *string
	Price     *int64
	Image     *string
	Brand     *string
}

type CartItemRepository interface {
	ListByUserID(ctx context.Context, userID int64) ([]model.CartItem, error)
	ListLinesByUserID(ctx context.Context, userID int64) ([]CartLine, error)
	// 同一商品はプラス（1文で加算）。上限を超えるならErrConflict
	AddQuantity(ctx context.Context, userID int64, productID int64, qty int64) error
	Delete(ctx context.Context, userID int64, productID int64) error
	ClearByUserID(ctx context.Context, userID int64) error
}

// 商品と結合したお気に入り1行
type WishlistLine struct {
	ProductID int64
	Name      *string
	Price     *int64
	Image     *string
	Brand     *string
}

type WishlistRepository interface {
	ListLinesByUserID(ctx context.Context, userID int64) ([]WishlistLine, error)
	//既にあればErrConflict
	Create(ctx context.Context, userID int64, productID int64) error
	Delete(ctx context.Context, userID int64, productID int64) error
}
