package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"ecshop/internal/domain/model"
	repo "ecshop/internal/repository"
)

type TagUsecase struct {
	tags repo.TagRepository
}

func NewTagUsecase(tags repo.TagRepository) *TagUsecase {
	return &TagUsecase{tags: tags}
}

type TagInput struct {
	Name        string
	Description string
}

func (u *TagUsecase) List(ctx context.Context) ([]model.Tag, error) {
	tags, err := u.tags.List(ctx)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return tags, nil
}

func (u *TagUsecase) Create(ctx context.Context, in TagInput) (model.Tag, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return model.Tag{}, NewHTTPError(http.StatusBadRequest, "name is required")
	}

	t := model.Tag{Name: name, Description: strings.TrimSpace(in.Description), Status: model.TagStatusActive}
	err := u.tags.Create(ctx, &t)
	if errors.Is(err, repo.ErrConflict) {
		return model.Tag{}, NewHTTPError(http.StatusConflict, "Tag with this name already exists")
	}
	if err != nil {
		return model.Tag{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return t, nil
}

func (u *TagUsecase) find(ctx context.Context, id int64) (model.Tag, error) {
	if id <= 0 {
		return model.Tag{}, NewHTTPError(http.StatusBadRequest, "Invalid tag ID")
	}
	t, err := u.tags.FindByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Tag{}, NewHTTPError(http.StatusNotFound, "Tag not found")
	}
	if err != nil {
		return model.Tag{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return t, nil
}

func (u *TagUsecase) Update(ctx context.Context, id int64, in TagInput) (model.Tag, error) {
	t, err := u.find(ctx, id)
	if err != nil {
		return model.Tag{}, err
	}
	if name := strings.TrimSpace(in.Name); name != "" {
		t.Name = name
	}
	t.Description = strings.TrimSpace(in.Description)

	err = u.tags.Update(ctx, t)
	if errors.Is(err, repo.ErrConflict) {
		return model.Tag{}, NewHTTPError(http.StatusConflict, "Tag with this name already exists")
	}
	if errors.Is(err, repo.ErrNotFound) {
		return model.Tag{}, NewHTTPError(http.StatusNotFound, "Tag not found")
	}
	if err != nil {
		return model.Tag{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return t, nil
}

func (u *TagUsecase) UpdateStatus(ctx context.Context, id int64, status model.TagStatus) (model.Tag, error) {
	if !status.Valid() {
		return model.Tag{}, NewHTTPError(http.StatusBadRequest, "Invalid status value")
	}
	t, err := u.find(ctx, id)
	if err != nil {
		return model.Tag{}, err
	}

	err = u.tags.UpdateStatus(ctx, id, status)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Tag{}, NewHTTPError(http.StatusNotFound, "Tag not found")
	}
	if err != nil {
		return model.Tag{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	t.Status = status
	return t, nil
}

func (u *TagUsecase) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return NewHTTPError(http.StatusBadRequest, "Invalid tag ID")
	}
	err := u.tags.Delete(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return NewHTTPError(http.StatusNotFound, "Tag not found")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}
