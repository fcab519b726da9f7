package handler

import (
	"net/http"

	"ecshop/internal/authz"
	"ecshop/internal/domain/model"
	"ecshop/internal/usecase"

	"github.com/labstack/echo/v4"
)

type TagHandler struct {
	tagUC *usecase.TagUsecase
}

func NewTagHandler(tagUC *usecase.TagUsecase) *TagHandler {
	return &TagHandler{tagUC: tagUC}
}

type tagRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type tagStatusRequest struct {
	Status model.TagStatus `json:"status"`
}

func (h *TagHandler) RegisterRoutes(api *echo.Group, gd Guards) {
	g := api.Group("/tags", gd.Require(authz.TagsManage)...)

	g.GET("", h.List)
	g.POST("", h.Create)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
	g.PATCH("/:id/status", h.UpdateStatus)
}

func (h *TagHandler) List(c echo.Context) error {
	tags, err := h.tagUC.List(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, tags)
}

func (h *TagHandler) Create(c echo.Context) error {
	var req tagRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	tag, err := h.tagUC.Create(c.Request().Context(), usecase.TagInput{Name: req.Name, Description: req.Description})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, tag)
}

func (h *TagHandler) Update(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid tag ID"})
	}
	var req tagRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	tag, err := h.tagUC.Update(c.Request().Context(), id, usecase.TagInput{Name: req.Name, Description: req.Description})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, tag)
}

func (h *TagHandler) UpdateStatus(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid tag ID"})
	}
	var req tagStatusRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	tag, err := h.tagUC.UpdateStatus(c.Request().Context(), id, req.Status)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, tag)
}

func (h *TagHandler) Delete(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid tag ID"})
	}
	if err := h.tagUC.Delete(c.Request().Context(), id); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Message: "Tag deleted successfully"})
}
