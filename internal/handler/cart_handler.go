package handler

import (
	"net/http"

	"ecshop/internal/authz"
	"ecshop/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /cartのHTTP
type CartHandler struct {
	uc      *usecase.CartUsecase
	coupons *usecase.CouponUsecase
}

// DI
func NewCartHandler(uc *usecase.CartUsecase, coupons *usecase.CouponUsecase) *CartHandler {
	return &CartHandler{uc: uc, coupons: coupons}
}

type AddCartRequest struct {
	ProductID int64 `json:"product_id"`
	Quantity  int64 `json:"quantity"`
}

type ApplyCouponRequest struct {
	Code string `json:"code"`
}

func (h *CartHandler) RegisterRoutes(api *echo.Group, gd Guards) {
	g := api.Group("/cart", gd.Require(authz.CartUse)...)

	g.GET("", h.getCart)
	g.POST("/add", h.addToCart)
	g.DELETE("/remove/:productId", h.removeItem)
	g.POST("/apply-coupon", h.applyCoupon)
}

func (h *CartHandler) getCart(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	out, err := h.uc.GetCart(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *CartHandler) addToCart(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	var req AddCartRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.AddToCart(c.Request().Context(), userID, usecase.AddCartInput{
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *CartHandler) removeItem(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	productID, ok := paramID(c, "productId")
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid productId"})
	}

	if err := h.uc.RemoveFromCart(c.Request().Context(), userID, productID); err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, SuccessResponse{Message: "Product removed from cart"})
}

// カートは変更しない（プレビューのみ）
func (h *CartHandler) applyCoupon(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	var req ApplyCouponRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.coupons.ApplyCoupon(c.Request().Context(), userID, req.Code)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}
