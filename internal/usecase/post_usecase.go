package usecase

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"ecshop/internal/domain/model"
	repo "ecshop/internal/repository"

	"github.com/rs/zerolog"
)

// サムネイル画像の保存先
type ThumbnailStore interface {
	// 公開パス（/uploads/xxx.png）を返す
	Save(ctx context.Context, originalName string, r io.Reader) (string, error)
	Remove(ctx context.Context, publicPath string) error
}

var ErrUnsupportedImage = errors.New("unsupported image type")

type PostUsecase struct {
	posts  repo.PostRepository
	tags   repo.TagRepository
	thumbs ThumbnailStore
	log    zerolog.Logger
}

func NewPostUsecase(posts repo.PostRepository, tags repo.TagRepository, thumbs ThumbnailStore, log zerolog.Logger) *PostUsecase {
	return &PostUsecase{posts: posts, tags: tags, thumbs: thumbs, log: log}
}

type TagSummary struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type PostOutput struct {
	ID        int64            `json:"id"`
	Title     string           `json:"title"`
	Content   string           `json:"content"`
	Thumbnail *string          `json:"thumbnail"`
	Author    *UserSummary     `json:"author"`
	Tags      []TagSummary     `json:"tags"`
	Status    model.PostStatus `json:"status"`
	Views     int64            `json:"views"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

func toPostOutput(p model.Post) PostOutput {
	tags := make([]TagSummary, 0, len(p.Tags))
	for _, t := range p.Tags {
		tags = append(tags, TagSummary{ID: t.ID, Name: t.Name})
	}
	var author *UserSummary
	if p.Author != nil {
		author = &UserSummary{ID: p.Author.ID, Username: p.Author.Username}
	}
	return PostOutput{
		ID:        p.ID,
		Title:     p.Title,
		Content:   p.Content,
		Thumbnail: nonEmpty(&p.Thumbnail),
		Author:    author,
		Tags:      tags,
		Status:    p.Status,
		Views:     p.Views,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

// アップロードされた画像
type Upload struct {
	Filename string
	Body     io.Reader
}

type PostInput struct {
	Title     string
	Content   string
	Status    model.PostStatus
	TagIDs    []int64
	Thumbnail *Upload
}

// 管理者は下書きも見える
func (u *PostUsecase) List(ctx context.Context, includeDrafts bool, tagID *int64) ([]PostOutput, error) {
	if tagID != nil && *tagID <= 0 {
		return nil, NewHTTPError(http.StatusBadRequest, "Invalid tag ID")
	}
	posts, err := u.posts.List(ctx, repo.PostListFilter{PublishedOnly: !includeDrafts, TagID: tagID})
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	out := make([]PostOutput, 0, len(posts))
	for _, p := range posts {
		out = append(out, toPostOutput(p))
	}
	return out, nil
}

// 管理者以外が見たら閲覧数を+1
func (u *PostUsecase) Get(ctx context.Context, id int64, isManager bool) (PostOutput, error) {
	if id <= 0 {
		return PostOutput{}, NewHTTPError(http.StatusBadRequest, "Invalid post ID")
	}
	p, err := u.posts.FindByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return PostOutput{}, NewHTTPError(http.StatusNotFound, "Post not found")
	}
	if err != nil {
		return PostOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if isManager {
		return toPostOutput(p), nil
	}

	if p.Status != model.PostStatusPublished {
		return PostOutput{}, NewHTTPError(http.StatusNotFound, "Post not found")
	}
	if err := u.posts.IncrementViews(ctx, id); err != nil {
		return PostOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	p.Views++
	return toPostOutput(p), nil
}

func (u *PostUsecase) resolveTags(ctx context.Context, ids []int64) ([]model.Tag, error) {
	if len(ids) == 0 {
		return []model.Tag{}, nil
	}
	tags, err := u.tags.FindByIDs(ctx, ids)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if len(tags) != len(uniqueIDs(ids)) {
		return nil, NewHTTPError(http.StatusBadRequest, "unknown tag")
	}
	return tags, nil
}

func uniqueIDs(ids []int64) map[int64]struct{} {
	m := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		m[id] = struct{}{}
	}
	return m
}

func (u *PostUsecase) saveThumbnail(ctx context.Context, up *Upload) (string, error) {
	path, err := u.thumbs.Save(ctx, up.Filename, up.Body)
	if errors.Is(err, ErrUnsupportedImage) {
		return "", NewHTTPError(http.StatusBadRequest, "thumbnail must be an image")
	}
	if err != nil {
		u.log.Error().Err(err).Msg("save thumbnail failed")
		return "", NewHTTPError(http.StatusInternalServerError, "upload failed")
	}
	return path, nil
}

// 古いファイルが消せなくても処理は続ける
func (u *PostUsecase) removeThumbnail(ctx context.Context, path string) {
	if path == "" {
		return
	}
	if err := u.thumbs.Remove(ctx, path); err != nil {
		u.log.Warn().Err(err).Str("thumbnail", path).Msg("remove thumbnail failed")
	}
}

func (in PostInput) validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return NewHTTPError(http.StatusBadRequest, "title is required")
	}
	if strings.TrimSpace(in.Content) == "" {
		return NewHTTPError(http.StatusBadRequest, "content is required")
	}
	if in.Status != "" && !in.Status.Valid() {
		return NewHTTPError(http.StatusBadRequest, "invalid status")
	}
	return nil
}

func (u *PostUsecase) Create(ctx context.Context, authorID int64, in PostInput) (PostOutput, error) {
	if authorID <= 0 {
		return PostOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if err := in.validate(); err != nil {
		return PostOutput{}, err
	}
	tags, err := u.resolveTags(ctx, in.TagIDs)
	if err != nil {
		return PostOutput{}, err
	}

	status := in.Status
	if status == "" {
		status = model.PostStatusPublished
	}
	p := model.Post{
		Title:    strings.TrimSpace(in.Title),
		Content:  in.Content,
		AuthorID: authorID,
		Tags:     tags,
		Status:   status,
	}
	if in.Thumbnail != nil {
		if p.Thumbnail, err = u.saveThumbnail(ctx, in.Thumbnail); err != nil {
			return PostOutput{}, err
		}
	}

	if err := u.posts.Create(ctx, &p); err != nil {
		u.removeThumbnail(ctx, p.Thumbnail)
		return PostOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return u.reload(ctx, p.ID)
}

// 新しいサムネイルが来たら古いファイルは消す
func (u *PostUsecase) Update(ctx context.Context, id int64, in PostInput) (PostOutput, error) {
	if id <= 0 {
		return PostOutput{}, NewHTTPError(http.StatusBadRequest, "Invalid post ID")
	}
	if err := in.validate(); err != nil {
		return PostOutput{}, err
	}

	current, err := u.posts.FindByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return PostOutput{}, NewHTTPError(http.StatusNotFound, "Post not found")
	}
	if err != nil {
		return PostOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	tags, err := u.resolveTags(ctx, in.TagIDs)
	if err != nil {
		return PostOutput{}, err
	}

	oldThumb := current.Thumbnail
	current.Title = strings.TrimSpace(in.Title)
	current.Content = in.Content
	current.Tags = tags
	if in.Status != "" {
		current.Status = in.Status
	}
	if in.Thumbnail != nil {
		if current.Thumbnail, err = u.saveThumbnail(ctx, in.Thumbnail); err != nil {
			return PostOutput{}, err
		}
	}

	if err := u.posts.Update(ctx, &current); err != nil {
		if in.Thumbnail != nil {
			u.removeThumbnail(ctx, current.Thumbnail)
		}
		if errors.Is(err, repo.ErrNotFound) {
			return PostOutput{}, NewHTTPError(http.StatusNotFound, "Post not found")
		}
		return PostOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if in.Thumbnail != nil {
		u.removeThumbnail(ctx, oldThumb)
	}
	return u.reload(ctx, id)
}

func (u *PostUsecase) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return NewHTTPError(http.StatusBadRequest, "Invalid post ID")
	}
	current, err := u.posts.FindByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return NewHTTPError(http.StatusNotFound, "Post not found")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}

	err = u.posts.Delete(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return NewHTTPError(http.StatusNotFound, "Post not found")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	u.removeThumbnail(ctx, current.Thumbnail)
	return nil
}

func (u *PostUsecase) reload(ctx context.Context, id int64) (PostOutput, error) {
	p, err := u.posts.FindByID(ctx, id)
	if err != nil {
		return PostOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return toPostOutput(p), nil
}
