package usecase_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"ecshop/internal/domain/model"
	repo "ecshop/internal/repository"
	"ecshop/internal/usecase"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// =====================
// Mock: PostRepository / ThumbnailStore
// =====================

type PostRepoMock struct{ mock.Mock }

func (m *PostRepoMock) Create(ctx context.Context, p *model.Post) error {
	return m.Called(ctx, p).Error(0)
}

func (m *PostRepoMock) FindByID(ctx context.Context, id int64) (model.Post, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(model.Post)
	return p, args.Error(1)
}

func (m *PostRepoMock) List(ctx context.Context, f repo.PostListFilter) ([]model.Post, error) {
	args := m.Called(ctx, f)
	posts, _ := args.Get(0).([]model.Post)
	return posts, args.Error(1)
}

func (m *PostRepoMock) Update(ctx context.Context, p *model.Post) error {
	return m.Called(ctx, p).Error(0)
}

func (m *PostRepoMock) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *PostRepoMock) IncrementViews(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

type ThumbnailStoreMock struct{ mock.Mock }

func (m *ThumbnailStoreMock) Save(ctx context.Context, originalName string, r io.Reader) (string, error) {
	args := m.Called(ctx, originalName, r)
	return args.String(0), args.Error(1)
}

func (m *ThumbnailStoreMock) Remove(ctx context.Context, publicPath string) error {
	return m.Called(ctx, publicPath).Error(0)
}

func newPostUC(posts *PostRepoMock, tags *TagRepoMock, thumbs *ThumbnailStoreMock) *usecase.PostUsecase {
	return usecase.NewPostUsecase(posts, tags, thumbs, zerolog.Nop())
}

func upload(name string) *usecase.Upload {
	return &usecase.Upload{Filename: name, Body: strings.NewReader("png-bytes")}
}

// =====================
// Get / List
// =====================

func TestPostUsecase_Get_Visibility(t *testing.T) {
	posts := new(PostRepoMock)
	posts.On("FindByID", mock.Anything, int64(1)).Return(model.Post{ID: 1, Status: model.PostStatusPublished, Views: 4}, nil)
	posts.On("FindByID", mock.Anything, int64(2)).Return(model.Post{ID: 2, Status: model.PostStatusDraft}, nil)
	posts.On("IncrementViews", mock.Anything, int64(1)).Return(nil).Once()
	uc := newPostUC(posts, new(TagRepoMock), new(ThumbnailStoreMock))

	out, err := uc.Get(context.Background(), 1, false)
	require.NoError(t, err)
	assert.Equal(t, int64(5), out.Views)

	// 管理者は閲覧数に数えない
	out, err = uc.Get(context.Background(), 1, true)
	require.NoError(t, err)
	assert.Equal(t, int64(4), out.Views)

	_, err = uc.Get(context.Background(), 2, false)
	requireHTTPError(t, err, http.StatusNotFound)

	out, err = uc.Get(context.Background(), 2, true)
	require.NoError(t, err)
	assert.Equal(t, model.PostStatusDraft, out.Status)

	posts.AssertNumberOfCalls(t, "IncrementViews", 1)
}

func TestPostUsecase_List_PublicHidesDrafts(t *testing.T) {
	posts := new(PostRepoMock)
	posts.On("List", mock.Anything, repo.PostListFilter{PublishedOnly: true}).Return([]model.Post{{ID: 1}}, nil).Once()
	posts.On("List", mock.Anything, repo.PostListFilter{PublishedOnly: false}).Return([]model.Post{{ID: 1}, {ID: 2}}, nil).Once()
	uc := newPostUC(posts, new(TagRepoMock), new(ThumbnailStoreMock))

	public, err := uc.List(context.Background(), false, nil)
	require.NoError(t, err)
	assert.Len(t, public, 1)

	all, err := uc.List(context.Background(), true, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	bad := int64(0)
	_, err = uc.List(context.Background(), false, &bad)
	requireHTTPError(t, err, http.StatusBadRequest)
}

// =====================
// Create
// =====================

func TestPostUsecase_Create_WithThumbnail(t *testing.T) {
	posts := new(PostRepoMock)
	tags := new(TagRepoMock)
	thumbs := new(ThumbnailStoreMock)

	tags.On("FindByIDs", mock.Anything, []int64{3}).Return([]model.Tag{{ID: 3, Name: "news"}}, nil)
	thumbs.On("Save", mock.Anything, "cover.png", mock.Anything).Return("/uploads/new.png", nil)
	posts.On("Create", mock.Anything, mock.MatchedBy(func(p *model.Post) bool {
		return p.Title == "Hello" && p.AuthorID == 9 && p.Thumbnail == "/uploads/new.png" &&
			p.Status == model.PostStatusPublished && len(p.Tags) == 1
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*model.Post).ID = 7
	}).Return(nil)
	posts.On("FindByID", mock.Anything, int64(7)).Return(model.Post{ID: 7, Title: "Hello", Thumbnail: "/uploads/new.png"}, nil)

	out, err := newPostUC(posts, tags, thumbs).Create(context.Background(), 9, usecase.PostInput{
		Title:     " Hello ",
		Content:   "body",
		TagIDs:    []int64{3},
		Thumbnail: upload("cover.png"),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(7), out.ID)
	require.NotNil(t, out.Thumbnail)
	assert.Equal(t, "/uploads/new.png", *out.Thumbnail)
	thumbs.AssertNotCalled(t, "Remove", mock.Anything, mock.Anything)
}

// DBに書けなければ保存した画像は消す
func TestPostUsecase_Create_DBErrorRemovesUpload(t *testing.T) {
	posts := new(PostRepoMock)
	thumbs := new(ThumbnailStoreMock)

	thumbs.On("Save", mock.Anything, "cover.png", mock.Anything).Return("/uploads/new.png", nil)
	thumbs.On("Remove", mock.Anything, "/uploads/new.png").Return(nil).Once()
	posts.On("Create", mock.Anything, mock.Anything).Return(errors.New("db down"))

	_, err := newPostUC(posts, new(TagRepoMock), thumbs).Create(context.Background(), 9, usecase.PostInput{
		Title:     "Hello",
		Content:   "body",
		Thumbnail: upload("cover.png"),
	})
	requireHTTPError(t, err, http.StatusInternalServerError)
	thumbs.AssertExpectations(t)
}

func TestPostUsecase_Create_Rejected(t *testing.T) {
	t.Run("unknown tag", func(t *testing.T) {
		posts := new(PostRepoMock)
		tags := new(TagRepoMock)
		tags.On("FindByIDs", mock.Anything, []int64{3, 4}).Return([]model.Tag{{ID: 3}}, nil)

		_, err := newPostUC(posts, tags, new(ThumbnailStoreMock)).Create(context.Background(), 9, usecase.PostInput{
			Title: "Hello", Content: "body", TagIDs: []int64{3, 4},
		})
		he := requireHTTPError(t, err, http.StatusBadRequest)
		assert.Equal(t, "unknown tag", he.Message)
		posts.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("not an image", func(t *testing.T) {
		posts := new(PostRepoMock)
		thumbs := new(ThumbnailStoreMock)
		thumbs.On("Save", mock.Anything, "notes.txt", mock.Anything).Return("", usecase.ErrUnsupportedImage)

		_, err := newPostUC(posts, new(TagRepoMock), thumbs).Create(context.Background(), 9, usecase.PostInput{
			Title: "Hello", Content: "body", Thumbnail: upload("notes.txt"),
		})
		he := requireHTTPError(t, err, http.StatusBadRequest)
		assert.Equal(t, "thumbnail must be an image", he.Message)
		posts.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("blank title", func(t *testing.T) {
		_, err := newPostUC(new(PostRepoMock), new(TagRepoMock), new(ThumbnailStoreMock)).Create(context.Background(), 9, usecase.PostInput{
			Title: "  ", Content: "body",
		})
		requireHTTPError(t, err, http.StatusBadRequest)
	})
}

// =====================
// Update
// =====================

func TestPostUsecase_Update_ReplacesThumbnail(t *testing.T) {
	posts := new(PostRepoMock)
	thumbs := new(ThumbnailStoreMock)

	posts.On("FindByID", mock.Anything, int64(7)).Return(model.Post{ID: 7, Title: "Old", Content: "c", Thumbnail: "/uploads/old.png", Status: model.PostStatusDraft}, nil).Once()
	thumbs.On("Save", mock.Anything, "new.png", mock.Anything).Return("/uploads/new.png", nil)
	posts.On("Update", mock.Anything, mock.MatchedBy(func(p *model.Post) bool {
		return p.Title == "New" && p.Thumbnail == "/uploads/new.png" && p.Status == model.PostStatusDraft
	})).Return(nil)
	thumbs.On("Remove", mock.Anything, "/uploads/old.png").Return(nil).Once()
	posts.On("FindByID", mock.Anything, int64(7)).Return(model.Post{ID: 7, Title: "New", Thumbnail: "/uploads/new.png"}, nil).Once()

	out, err := newPostUC(posts, new(TagRepoMock), thumbs).Update(context.Background(), 7, usecase.PostInput{
		Title: "New", Content: "c", Thumbnail: upload("new.png"),
	})
	require.NoError(t, err)
	assert.Equal(t, "New", out.Title)
	thumbs.AssertExpectations(t)
	thumbs.AssertNotCalled(t, "Remove", mock.Anything, "/uploads/new.png")
}

// 失敗したら新しい画像を消し、古い画像は残す
func TestPostUsecase_Update_DBErrorKeepsOldThumbnail(t *testing.T) {
	posts := new(PostRepoMock)
	thumbs := new(ThumbnailStoreMock)

	posts.On("FindByID", mock.Anything, int64(7)).Return(model.Post{ID: 7, Title: "Old", Content: "c", Thumbnail: "/uploads/old.png"}, nil)
	thumbs.On("Save", mock.Anything, "new.png", mock.Anything).Return("/uploads/new.png", nil)
	posts.On("Update", mock.Anything, mock.Anything).Return(errors.New("db down"))
	thumbs.On("Remove", mock.Anything, "/uploads/new.png").Return(nil).Once()

	_, err := newPostUC(posts, new(TagRepoMock), thumbs).Update(context.Background(), 7, usecase.PostInput{
		Title: "New", Content: "c", Thumbnail: upload("new.png"),
	})
	requireHTTPError(t, err, http.StatusInternalServerError)
	thumbs.AssertExpectations(t)
	thumbs.AssertNotCalled(t, "Remove", mock.Anything, "/uploads/old.png")
}

func TestPostUsecase_Update_WithoutThumbnailKeepsFile(t *testing.T) {
	posts := new(PostRepoMock)
	thumbs := new(ThumbnailStoreMock)

	posts.On("FindByID", mock.Anything, int64(7)).Return(model.Post{ID: 7, Title: "Old", Content: "c", Thumbnail: "/uploads/old.png"}, nil)
	posts.On("Update", mock.Anything, mock.MatchedBy(func(p *model.Post) bool {
		return p.Thumbnail == "/uploads/old.png"
	})).Return(nil)

	_, err := newPostUC(posts, new(TagRepoMock), thumbs).Update(context.Background(), 7, usecase.PostInput{Title: "New", Content: "c"})
	require.NoError(t, err)
	thumbs.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything)
	thumbs.AssertNotCalled(t, "Remove", mock.Anything, mock.Anything)
}

func TestPostUsecase_Update_NotFound(t *testing.T) {
	posts := new(PostRepoMock)
	thumbs := new(ThumbnailStoreMock)
	posts.On("FindByID", mock.Anything, int64(7)).Return(model.Post{}, repo.ErrNotFound)

	_, err := newPostUC(posts, new(TagRepoMock), thumbs).Update(context.Background(), 7, usecase.PostInput{
		Title: "New", Content: "c", Thumbnail: upload("new.png"),
	})
	requireHTTPError(t, err, http.StatusNotFound)
	thumbs.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything)
}

// =====================
// Delete
// =====================

func TestPostUsecase_Delete_RemovesThumbnail(t *testing.T) {
	posts := new(PostRepoMock)
	thumbs := new(ThumbnailStoreMock)

	posts.On("FindByID", mock.Anything, int64(7)).Return(model.Post{ID: 7, Thumbnail: "/uploads/old.png"}, nil)
	posts.On("Delete", mock.Anything, int64(7)).Return(nil)
	// 消せなくても削除自体は成功
	thumbs.On("Remove", mock.Anything, "/uploads/old.png").Return(errors.New("permission denied")).Once()

	require.NoError(t, newPostUC(posts, new(TagRepoMock), thumbs).Delete(context.Background(), 7))
	thumbs.AssertExpectations(t)
}

func TestPostUsecase_Delete_NoThumbnail(t *testing.T) {
	posts := new(PostRepoMock)
	thumbs := new(ThumbnailStoreMock)

	posts.On("FindByID", mock.Anything, int64(7)).Return(model.Post{ID: 7}, nil)
	posts.On("Delete", mock.Anything, int64(7)).Return(nil)

	require.NoError(t, newPostUC(posts, new(TagRepoMock), thumbs).Delete(context.Background(), 7))
	thumbs.AssertNotCalled(t, "Remove", mock.Anything, mock.Anything)
}
