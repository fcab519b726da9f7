package repository

import (
	"context"
	"errors"

	"ecshop/internal/domain/model"
	repo "ecshop/internal/repository"

	"gorm.io/gorm"
)

type TagGormRepository struct {
	db *gorm.DB
}

func NewTagGormRepository(db *gorm.DB) *TagGormRepository {
	return &TagGormRepository{db: db}
}

func (r *TagGormRepository) Create(ctx context.Context, t *model.Tag) error {
	if err := r.db.WithContext(ctx).Create(t).Error; err != nil {
		if isUniqueViolation(err) {
			return repo.ErrConflict
		}
		return err
	}
	return nil
}

func (r *TagGormRepository) List(ctx context.Context) ([]model.Tag, error) {
	var tags []model.Tag
	if err := r.db.WithContext(ctx).Order("name asc").Find(&tags).Error; err != nil {
		return []model.Tag{}, err
	}
	return tags, nil
}

func (r *TagGormRepository) FindByID(ctx context.Context, id int64) (model.Tag, error) {
	var t model.Tag
	err := r.db.WithContext(ctx).First(&t, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Tag{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Tag{}, err
	}
	return t, nil
}

func (r *TagGormRepository) FindByIDs(ctx context.Context, ids []int64) ([]model.Tag, error) {
	if len(ids) == 0 {
		return []model.Tag{}, nil
	}
	var tags []model.Tag
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&tags).Error; err != nil {
		return []model.Tag{}, err
	}
	return tags, nil
}

func (r *TagGormRepository) Update(ctx context.Context, t model.Tag) error {
	res := r.db.WithContext(ctx).Model(&model.Tag{}).Where("id = ?", t.ID).Updates(map[string]interface{}{
		"name":        t.Name,
		"description": t.Description,
		"status":      t.Status,
	})
	if res.Error != nil {
		if isUniqueViolation(res.Error) {
			return repo.ErrConflict
		}
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *TagGormRepository) UpdateStatus(ctx context.Context, id int64, status model.TagStatus) error {
	res := r.db.WithContext(ctx).Model(&model.Tag{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// post_tagsの行も消す
func (r *TagGormRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM post_tags WHERE tag_id = ?", id).Error; err != nil {
			return err
		}
		res := tx.Delete(&model.Tag{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return repo.ErrNotFound
		}
		return nil
	})
}
