package handler

import (
	"net/http"

	"ecshop/internal/authz"
	"ecshop/internal/usecase"

	"github.com/labstack/echo/v4"
)

type productRequest struct {
	Name        string `json:"name"`
	Brand       string `json:"brand"`
	Description string `json:"description"`
	Price       int64  `json:"price"`
	Image       string `json:"image"`
	// 省略時は公開
	IsActive *bool `json:"is_active"`
}

func bindProduct(c echo.Context) (usecase.ProductInput, bool) {
	var req productRequest
	if err := c.Bind(&req); err != nil {
		return usecase.ProductInput{}, false
	}
	in := usecase.ProductInput{
		Name:        req.Name,
		Brand:       req.Brand,
		Description: req.Description,
		Price:       req.Price,
		Image:       req.Image,
		IsActive:    true,
	}
	if req.IsActive != nil {
		in.IsActive = *req.IsActive
	}
	return in, true
}

// /admin/products
type AdminProductHandler struct {
	uc *usecase.ProductUsecase
}

func NewAdminProductHandler(uc *usecase.ProductUsecase) *AdminProductHandler {
	return &AdminProductHandler{uc: uc}
}

func (h *AdminProductHandler) RegisterRoutes(api *echo.Group, gd Guards) {
	admin := api.Group("/admin/products", gd.Require(authz.ProductsManage)...)

	admin.POST("", h.create)
	admin.PUT("/:id", h.update)
	admin.DELETE("/:id", h.delete)
}

func (h *AdminProductHandler) create(c echo.Context) error {
	in, ok := bindProduct(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	p, err := h.uc.Create(c.Request().Context(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *AdminProductHandler) update(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}
	in, ok := bindProduct(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	p, err := h.uc.Update(c.Request().Context(), id, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *AdminProductHandler) delete(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	if err := h.uc.Delete(c.Request().Context(), id); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Message: "Product deleted successfully"})
}
