package usecase

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strings"
	"time"

	"ecshop/internal/domain/model"
	repo "ecshop/internal/repository"
)

type ReviewUsecase struct {
	reviews  repo.ReviewRepository
	products repo.ProductRepository
}

func NewReviewUsecase(reviews repo.ReviewRepository, products repo.ProductRepository) *ReviewUsecase {
	return &ReviewUsecase{reviews: reviews, products: products}
}

type ReviewOutput struct {
	ID        int64     `json:"id"`
	ProductID int64     `json:"product_id"`
	UserID    int64     `json:"user_id"`
	Username  string    `json:"username"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type RatingOutput struct {
	AverageRating float64 `json:"average_rating"`
	TotalReviews  int64   `json:"total_reviews"`
}

type ReviewInput struct {
	ProductID int64
	Rating    int
	Comment   string
}

func validRating(r int) bool {
	return r >= 1 && r <= 5
}

func (u *ReviewUsecase) ListByProduct(ctx context.Context, productID int64) ([]ReviewOutput, error) {
	if productID <= 0 {
		return nil, NewHTTPError(http.StatusBadRequest, "invalid product id")
	}
	rows, err := u.reviews.ListByProductID(ctx, productID)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	out := make([]ReviewOutput, 0, len(rows))
	for _, r := range rows {
		out = append(out, ReviewOutput{
			ID:        r.ID,
			ProductID: r.ProductID,
			UserID:    r.UserID,
			Username:  r.Username,
			Rating:    r.Rating,
			Comment:   r.Comment,
			CreatedAt: r.CreatedAt,
			UpdatedAt: r.UpdatedAt,
		})
	}
	return out, nil
}

// 平均は小数1桁
func (u *ReviewUsecase) Rating(ctx context.Context, productID int64) (RatingOutput, error) {
	if productID <= 0 {
		return RatingOutput{}, NewHTTPError(http.StatusBadRequest, "invalid product id")
	}
	s, err := u.reviews.Summary(ctx, productID)
	if err != nil {
		return RatingOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return RatingOutput{
		AverageRating: math.Round(s.Average*10) / 10,
		TotalReviews:  s.Count,
	}, nil
}

func (u *ReviewUsecase) Create(ctx context.Context, userID int64, in ReviewInput) (model.Review, error) {
	if userID <= 0 {
		return model.Review{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if in.ProductID <= 0 {
		return model.Review{}, NewHTTPError(http.StatusBadRequest, "product_id is required")
	}
	if !validRating(in.Rating) {
		return model.Review{}, NewHTTPError(http.StatusBadRequest, "rating must be between 1 and 5")
	}
	if err := ensureProductAvailable(ctx, u.products, in.ProductID); err != nil {
		return model.Review{}, err
	}

	rv := model.Review{
		UserID:    userID,
		ProductID: in.ProductID,
		Rating:    in.Rating,
		Comment:   strings.TrimSpace(in.Comment),
	}
	err := u.reviews.Create(ctx, &rv)
	if errors.Is(err, repo.ErrConflict) {
		return model.Review{}, NewHTTPError(http.StatusConflict, "You have already reviewed this product")
	}
	if err != nil {
		return model.Review{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return rv, nil
}

// 本人のレビューだけ取得する
func (u *ReviewUsecase) findOwned(ctx context.Context, userID int64, reviewID int64, action string) (model.Review, error) {
	if userID <= 0 {
		return model.Review{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if reviewID <= 0 {
		return model.Review{}, NewHTTPError(http.StatusBadRequest, "invalid review id")
	}
	rv, err := u.reviews.FindByID(ctx, reviewID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Review{}, NewHTTPError(http.StatusNotFound, "Review not found")
	}
	if err != nil {
		return model.Review{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if rv.UserID != userID {
		return model.Review{}, NewHTTPError(http.StatusForbidden, "Not authorized to "+action+" this review")
	}
	return rv, nil
}

func (u *ReviewUsecase) Update(ctx context.Context, userID int64, reviewID int64, rating int, comment string) (model.Review, error) {
	rv, err := u.findOwned(ctx, userID, reviewID, "update")
	if err != nil {
		return model.Review{}, err
	}
	if !validRating(rating) {
		return model.Review{}, NewHTTPError(http.StatusBadRequest, "rating must be between 1 and 5")
	}

	rv.Rating = rating
	rv.Comment = strings.TrimSpace(comment)
	err = u.reviews.Update(ctx, rv)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Review{}, NewHTTPError(http.StatusNotFound, "Review not found")
	}
	if err != nil {
		return model.Review{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return rv, nil
}

func (u *ReviewUsecase) Delete(ctx context.Context, userID int64, reviewID int64) error {
	if _, err := u.findOwned(ctx, userID, reviewID, "delete"); err != nil {
		return err
	}
	err := u.reviews.Delete(ctx, reviewID)
	if errors.Is(err, repo.ErrNotFound) {
		return NewHTTPError(http.StatusNotFound, "Review not found")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}
