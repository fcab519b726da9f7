package handler

import (
	"net/http"
	"strconv"

	"ecshop/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /products の公開API
type ProductHandler struct {
	uc *usecase.ProductUsecase
}

func NewProductHandler(uc *usecase.ProductUsecase) *ProductHandler {
	return &ProductHandler{uc: uc}
}

func (h *ProductHandler) RegisterRoutes(api *echo.Group) {
	api.GET("/products", h.list)
	api.GET("/products/:id", h.detail)
}

// 空ならnil。数値でなければok=false
func queryInt64(c echo.Context, name string) (*int64, bool) {
	v := c.QueryParam(name)
	if v == "" {
		return nil, true
	}
	x, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return nil, false
	}
	return &x, true
}

func (h *ProductHandler) list(c echo.Context) error {
	in := usecase.ListProductsInput{
		Q:     c.QueryParam("q"),
		Brand: c.QueryParam("brand"),
		Sort:  c.QueryParam("sort"),
	}

	for name, dst := range map[string]*int{"page": &in.Page, "limit": &in.Limit} {
		v, ok := queryInt64(c, name)
		if !ok {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid " + name})
		}
		if v != nil {
			*dst = int(*v)
		}
	}

	var ok bool
	if in.MinPrice, ok = queryInt64(c, "min_price"); !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid min_price"})
	}
	if in.MaxPrice, ok = queryInt64(c, "max_price"); !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid max_price"})
	}

	out, err := h.uc.List(c.Request().Context(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *ProductHandler) detail(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	out, err := h.uc.Detail(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
