package repository

import (
	"context"
	"errors"

	"ecshop/internal/domain/model"
	repo "ecshop/internal/repository"

	"gorm.io/gorm"
)

type PostGormRepository struct {
	db *gorm.DB
}

func NewPostGormRepository(db *gorm.DB) *PostGormRepository {
	return &PostGormRepository{db: db}
}

// タグ(post_tags)も一緒に作る
func (r *PostGormRepository) Create(ctx context.Context, p *model.Post) error {
	return r.db.WithContext(ctx).Omit("Author").Create(p).Error
}

func withPostDetails(db *gorm.DB) *gorm.DB {
	return db.Preload("Tags").Preload("Author", userSummaryColumns)
}

func (r *PostGormRepository) FindByID(ctx context.Context, id int64) (model.Post, error) {
	var p model.Post
	err := withPostDetails(r.db.WithContext(ctx)).First(&p, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Post{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Post{}, err
	}
	return p, nil
}

func (r *PostGormRepository) List(ctx context.Context, f repo.PostListFilter) ([]model.Post, error) {
	q := withPostDetails(r.db.WithContext(ctx)).Model(&model.Post{})

	if f.PublishedOnly {
		q = q.Where("posts.status = ?", model.PostStatusPublished)
	}
	if f.TagID != nil {
		q = q.Joins("JOIN post_tags ON post_tags.post_id = posts.id").
			Where("post_tags.tag_id = ?", *f.TagID)
	}

	var posts []model.Post
	if err := q.Order("posts.created_at desc").Find(&posts).Error; err != nil {
		return []model.Post{}, err
	}
	return posts, nil
}

// 本文などの更新とタグの置き換え
func (r *PostGormRepository) Update(ctx context.Context, p *model.Post) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Post{ID: p.ID}).
			Select("title", "content", "thumbnail", "status").
			Updates(p)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return repo.ErrNotFound
		}

		return tx.Model(p).Association("Tags").Replace(p.Tags)
	})
}

func (r *PostGormRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		post := model.Post{ID: id}
		if err := tx.Model(&post).Association("Tags").Clear(); err != nil {
			return err
		}

		res := tx.Delete(&model.Post{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return repo.ErrNotFound
		}
		return nil
	})
}

func (r *PostGormRepository) IncrementViews(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).
		Model(&model.Post{}).
		Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + ?", 1))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}
