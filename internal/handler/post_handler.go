package handler

import (
	"net/http"
	"strconv"
	"strings"

	"ecshop/internal/authz"
	"ecshop/internal/domain/model"
	"ecshop/internal/usecase"

	"github.com/labstack/echo/v4"
)

// 1投稿あたりのアップロード上限
const maxThumbnailBytes = 5 << 20

type PostHandler struct {
	postUC *usecase.PostUsecase
	gd     Guards
}

func NewPostHandler(postUC *usecase.PostUsecase) *PostHandler {
	return &PostHandler{postUC: postUC}
}

func (h *PostHandler) RegisterRoutes(api *echo.Group, gd Guards) {
	h.gd = gd
	g := api.Group("/posts")

	// 公開（管理者なら下書きも見える）
	g.GET("", h.List, gd.Optional())
	g.GET("/tag/:tagId", h.ListByTag, gd.Optional())
	g.GET("/:id", h.Get, gd.Optional())

	g.POST("", h.Create, gd.Require(authz.PostsManage)...)
	g.PUT("/:id", h.Update, gd.Require(authz.PostsManage)...)
	g.DELETE("/:id", h.Delete, gd.Require(authz.PostsManage)...)
}

func (h *PostHandler) List(c echo.Context) error {
	out, err := h.postUC.List(c.Request().Context(), h.gd.Can(c, authz.PostsManage), nil)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *PostHandler) ListByTag(c echo.Context) error {
	tagID, ok := paramID(c, "tagId")
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid tag ID"})
	}
	out, err := h.postUC.List(c.Request().Context(), h.gd.Can(c, authz.PostsManage), &tagID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *PostHandler) Get(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid post ID"})
	}
	out, err := h.postUC.Get(c.Request().Context(), id, h.gd.Can(c, authz.PostsManage))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// multipart/form-data: title, content, status, tag_ids(カンマ区切り), thumbnail
func (h *PostHandler) bindPostForm(c echo.Context) (usecase.PostInput, func(), error) {
	noop := func() {}
	in := usecase.PostInput{
		Title:   c.FormValue("title"),
		Content: c.FormValue("content"),
		Status:  model.PostStatus(strings.TrimSpace(c.FormValue("status"))),
	}

	if raw := strings.TrimSpace(c.FormValue("tag_ids")); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			s = strings.TrimSpace(s)
			if s == "" {
				continue
			}
			id, err := strconv.ParseInt(s, 10, 64)
			if err != nil || id <= 0 {
				return in, noop, usecase.NewHTTPError(http.StatusBadRequest, "invalid tag_ids")
			}
			in.TagIDs = append(in.TagIDs, id)
		}
	}

	fh, err := c.FormFile("thumbnail")
	if err != nil {
		// ファイルなし
		return in, noop, nil
	}
	if fh.Size > maxThumbnailBytes {
		return in, noop, usecase.NewHTTPError(http.StatusRequestEntityTooLarge, "thumbnail too large")
	}
	f, err := fh.Open()
	if err != nil {
		return in, noop, usecase.NewHTTPError(http.StatusBadRequest, "invalid thumbnail")
	}
	in.Thumbnail = &usecase.Upload{Filename: fh.Filename, Body: f}
	return in, func() { _ = f.Close() }, nil
}

func (h *PostHandler) Create(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}
	in, done, err := h.bindPostForm(c)
	defer done()
	if err != nil {
		return writeError(c, err)
	}

	out, err := h.postUC.Create(c.Request().Context(), userID, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, out)
}

func (h *PostHandler) Update(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid post ID"})
	}
	in, done, err := h.bindPostForm(c)
	defer done()
	if err != nil {
		return writeError(c, err)
	}

	out, err := h.postUC.Update(c.Request().Context(), id, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *PostHandler) Delete(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid post ID"})
	}
	if err := h.postUC.Delete(c.Request().Context(), id); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Message: "Post deleted successfully"})
}
