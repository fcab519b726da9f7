package repository

import (
	"context"

	"ecshop/internal/domain/model"
)

// レビュー + 投稿者名
type ReviewRow struct {
	model.Review
	Username string
}

type RatingSummary struct {
	Average float64
	Count   int64
}

type ReviewRepository interface {
	//同じユーザー・商品はErrConflict
	Create(ctx context.Context, r *model.Review) error
	FindByID(ctx context.Context, id int64) (model.Review, error)
	Update(ctx context.Context, r model.Review) error
	Delete(ctx context.Context, id int64) error
	ListByProductID(ctx context.Context, productID int64) ([]ReviewRow, error)
	Summary(ctx context.Context, productID int64) (RatingSummary, error)
}
