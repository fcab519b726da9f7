package repository

import (
	"context"

	"ecshop/internal/domain/model"
)

type PostListFilter struct {
	PublishedOnly bool
	TagID         *int64
}

type PostRepository interface {
	Create(ctx context.Context, p *model.Post) error
	FindByID(ctx context.Context, id int64) (model.Post, error)
	List(ctx context.Context, f PostListFilter) ([]model.Post, error)
	//タグも置き換える
	Update(ctx context.Context, p *model.Post) error
	Delete(ctx context.Context, id int64) error
	IncrementViews(ctx context.Context, id int64) error
}

type TagRepository interface {
	Create(ctx context.Context, t *model.Tag) error
	List(ctx context.Context) ([]model.Tag, error)
	FindByID(ctx context.Context, id int64) (model.Tag, error)
	FindByIDs(ctx context.Context, ids []int64) ([]model.Tag, error)
	Update(ctx context.Context, t model.Tag) error
	UpdateStatus(ctx context.Context, id int64, status model.TagStatus) error
	Delete(ctx context.Context, id int64) error
}
