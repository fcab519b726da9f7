package handler

import (
	"net/http"

	"ecshop/internal/authz"
	"ecshop/internal/usecase"

	"github.com/labstack/echo/v4"
)

type WishlistHandler struct {
	uc *usecase.WishlistUsecase
}

func NewWishlistHandler(uc *usecase.WishlistUsecase) *WishlistHandler {
	return &WishlistHandler{uc: uc}
}

type AddWishlistRequest struct {
	ProductID int64 `json:"product_id"`
}

func (h *WishlistHandler) RegisterRoutes(api *echo.Group, gd Guards) {
	g := api.Group("/wishlist", gd.Require(authz.WishlistUse)...)

	g.GET("", h.list)
	g.POST("/add", h.add)
	g.DELETE("/remove/:productId", h.remove)
	g.POST("/move-to-cart/:productId", h.moveToCart)
}

func (h *WishlistHandler) list(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	out, err := h.uc.GetWishlist(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *WishlistHandler) add(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	var req AddWishlistRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	if err := h.uc.AddToWishlist(c.Request().Context(), userID, req.ProductID); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, SuccessResponse{Message: "Product added to wishlist"})
}

func (h *WishlistHandler) remove(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}
	productID, ok := paramID(c, "productId")
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid productId"})
	}

	if err := h.uc.RemoveFromWishlist(c.Request().Context(), userID, productID); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Message: "Product removed from wishlist"})
}

func (h *WishlistHandler) moveToCart(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}
	productID, ok := paramID(c, "productId")
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid productId"})
	}

	if err := h.uc.MoveToCart(c.Request().Context(), userID, productID); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Message: "Product moved to cart"})
}
