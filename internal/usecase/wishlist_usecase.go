package usecase

import (
	"context"
	"errors"
	"net/http"

	repo "ecshop/internal/repository"
)

type WishlistUsecase struct {
	tx           repo.TransactionManager
	wishlistRepo repo.WishlistRepository
	productRepo  repo.ProductRepository
}

func NewWishlistUsecase(
	tx repo.TransactionManager,
	wishlistRepo repo.WishlistRepository,
	productRepo repo.ProductRepository,
) *WishlistUsecase {
	return &WishlistUsecase{
		tx:           tx,
		wishlistRepo: wishlistRepo,
		productRepo:  productRepo,
	}
}

type WishlistItemResponse struct {
	ProductID int64   `json:"product_id"`
	Name      string  `json:"name"`
	Price     int64   `json:"price"`
	Image     *string `json:"image"`
	Brand     string  `json:"brand"`
}

func (u *WishlistUsecase) GetWishlist(ctx context.Context, userID int64) ([]WishlistItemResponse, error) {
	if userID <= 0 {
		return nil, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	lines, err := u.wishlistRepo.ListLinesByUserID(ctx, userID)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	out := make([]WishlistItemResponse, 0, len(lines))
	for _, l := range lines {
		out = append(out, WishlistItemResponse{
			ProductID: l.ProductID,
			Name:      stringOr(l.Name, unknownProductName),
			Price:     int64Or(l.Price, 0),
			Image:     nonEmpty(l.Image),
			Brand:     stringOr(l.Brand, ""),
		})
	}
	return out, nil
}

func (u *WishlistUsecase) AddToWishlist(ctx context.Context, userID int64, productID int64) error {
	if userID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if productID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "product_id is required")
	}
	if err := ensureProductAvailable(ctx, u.productRepo, productID); err != nil {
		return err
	}

	err := u.wishlistRepo.Create(ctx, userID, productID)
	if errors.Is(err, repo.ErrConflict) {
		return NewHTTPError(http.StatusBadRequest, "product already in wishlist")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

func (u *WishlistUsecase) RemoveFromWishlist(ctx context.Context, userID int64, productID int64) error {
	if userID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if productID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "product_id is required")
	}

	err := u.wishlistRepo.Delete(ctx, userID, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return NewHTTPError(http.StatusNotFound, "product not found in wishlist")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

// お気に入りから外してカートに1個入れる（1トランザクション）
func (u *WishlistUsecase) MoveToCart(ctx context.Context, userID int64, productID int64) error {
	if userID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if productID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "product_id is required")
	}

	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		err := r.Wishlist().Delete(ctx, userID, productID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "product not found in wishlist")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if err := ensureProductAvailable(ctx, r.Products(), productID); err != nil {
			return err
		}

		err = r.CartItems().AddQuantity(ctx, userID, productID, 1)
		if errors.Is(err, repo.ErrConflict) {
			return errQuantityLimit
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		return nil
	})
}
