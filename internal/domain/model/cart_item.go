package model

import "time"

// カートの明細
// (user_id, product_id)は1行だけ。同じ商品は数量を加算する
type CartItem struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64     `gorm:"not null;uniqueIndex:idx_cart_items_user_product" json:"user_id"`
	ProductID int64     `gorm:"not null;uniqueIndex:idx_cart_items_user_product;index" json:"product_id"`
	Quantity  int64     `gorm:"not null;check:quantity BETWEEN 1 AND 1000" json:"quantity"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// お気に入り。1商品1行
type WishlistItem struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64     `gorm:"not null;uniqueIndex:idx_wishlist_items_user_product" json:"user_id"`
	ProductID int64     `gorm:"not null;uniqueIndex:idx_wishlist_items_user_product;index" json:"product_id"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}
