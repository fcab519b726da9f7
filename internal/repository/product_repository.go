package repository

import (
	"context"

	"ecshop/internal/domain/model"
)

// 公開一覧の条件。Pageは1から
type ProductListQuery struct {
	Page  int
	Limit int
	// 名前・ブランドの部分一致
	Q string
	// ブランドの完全一致（大文字小文字は無視）
	Brand    string
	MinPrice *int64
	MaxPrice *int64
	Sort     string
}

type ProductRepository interface {
	ListPublic(ctx context.Context, q ProductListQuery) ([]model.Product, int64, error)
	FindByID(ctx context.Context, id int64) (model.Product, error)
	//指定IDをまとめて取得（削除済みは含まない）
	FindByIDs(ctx context.Context, ids []int64) (map[int64]model.Product, error)

	Create(ctx context.Context, p model.Product) (model.Product, error)
	Update(ctx context.Context, p model.Product) error
	SoftDelete(ctx context.Context, id int64) error
}
