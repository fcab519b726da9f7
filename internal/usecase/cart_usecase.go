package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"ecshop/internal/domain/model"
	repo "ecshop/internal/repository"
)

// 商品が消えているときの表示名
const unknownProductName = "Unknown Product"

var (
	// 加算後の数量が上限を超える場合も同じ
	errQuantityLimit = NewHTTPError(http.StatusBadRequest, fmt.Sprintf("quantity must be at most %d per product", model.MaxLineQuantity))
	errTotalTooLarge = NewHTTPError(http.StatusBadRequest, "total is too large")
)

// CartUsecase は /cart の業務ロジックです。
// カートはユーザーごとの明細（user_id, product_id）だけで持ちます。
type CartUsecase struct {
	cartItemRepo repo.CartItemRepository
	productRepo  repo.ProductRepository
}

func NewCartUsecase(
	cartItemRepo repo.CartItemRepository,
	productRepo repo.ProductRepository,
) *CartUsecase {
	return &CartUsecase{
		cartItemRepo: cartItemRepo,
		productRepo:  productRepo,
	}
}

// price は現在の商品価格を返します（注文時に改めて確定）。
type CartItemResponse struct {
	ProductID int64   `json:"product_id"`
	Name      string  `json:"name"`
	Price     int64   `json:"price"`
	Image     *string `json:"image"`
	Brand     string  `json:"brand"`
	Quantity  int64   `json:"quantity"`
}

type CartResponse struct {
	Items []CartItemResponse `json:"items"`
	Total int64              `json:"total"`
}

type AddCartInput struct {
	ProductID int64
	Quantity  int64
}

func (u *CartUsecase) GetCart(ctx context.Context, userID int64) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	return u.buildCartResponse(ctx, userID)
}

// AddToCart はカートに追加（同一商品は数量加算）。
func (u *CartUsecase) AddToCart(ctx context.Context, userID int64, in AddCartInput) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if in.ProductID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "product_id is required")
	}
	if in.Quantity == 0 {
		in.Quantity = 1
	}
	if in.Quantity < 1 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid quantity")
	}
	if in.Quantity > model.MaxLineQuantity {
		return CartResponse{}, errQuantityLimit
	}

	if err := ensureProductAvailable(ctx, u.productRepo, in.ProductID); err != nil {
		return CartResponse{}, err
	}

	err := u.cartItemRepo.AddQuantity(ctx, userID, in.ProductID, in.Quantity)
	if errors.Is(err, repo.ErrConflict) {
		return CartResponse{}, errQuantityLimit
	}
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return u.buildCartResponse(ctx, userID)
}

func (u *CartUsecase) RemoveFromCart(ctx context.Context, userID int64, productID int64) error {
	if userID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if productID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "product_id is required")
	}

	err := u.cartItemRepo.Delete(ctx, userID, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return NewHTTPError(http.StatusNotFound, "product not found in cart")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

// 商品と結合してCartResponseを作る。
func (u *CartUsecase) buildCartResponse(ctx context.Context, userID int64) (CartResponse, error) {
	lines, err := u.cartItemRepo.ListLinesByUserID(ctx, userID)
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	items := make([]CartItemResponse, 0, len(lines))
	var total int64
	for _, l := range lines {
		it := CartItemResponse{
			ProductID: l.ProductID,
			Name:      stringOr(l.Name, unknownProductName),
			Price:     int64Or(l.Price, 0),
			Image:     nonEmpty(l.Image),
			Brand:     stringOr(l.Brand, ""),
			Quantity:  l.Quantity,
		}
		items = append(items, it)
		var ok bool
		if total, ok = model.AddLineTotal(total, it.Price, it.Quantity); !ok {
			return CartResponse{}, errTotalTooLarge
		}
	}

	return CartResponse{Items: items, Total: total}, nil
}

// 存在して公開中の商品だけ受け付ける
func ensureProductAvailable(ctx context.Context, products repo.ProductRepository, productID int64) error {
	p, err := products.FindByID(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return NewHTTPError(http.StatusNotFound, "product not found")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if !p.IsActive {
		return NewHTTPError(http.StatusNotFound, "product not found")
	}
	return nil
}

func stringOr(p *string, def string) string {
	if p == nil || *p == "" {
		return def
	}
	return *p
}

func int64Or(p *int64, def int64) int64 {
	if p == nil {
		return def
	}
	return *p
}

func nonEmpty(p *string) *string {
	if p == nil || *p == "" {
		return nil
	}
	return p
}
