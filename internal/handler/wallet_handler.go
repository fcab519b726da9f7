package handler

import (
	"net/http"

	"ecshop/internal/authz"
	"ecshop/internal/usecase"

	"github.com/labstack/echo/v4"
)

type WalletHandler struct {
	uc *usecase.WalletUsecase
}

func NewWalletHandler(uc *usecase.WalletUsecase) *WalletHandler {
	return &WalletHandler{uc: uc}
}

type CreatePaymentRequest struct {
	Amount int64 `json:"amount"`
}

func (h *WalletHandler) RegisterRoutes(api *echo.Group, gd Guards) {
	g := api.Group("/wallet")

	g.GET("/balance", h.balance, gd.Require(authz.WalletUse)...)
	g.POST("/create_payment_url", h.createPaymentURL, gd.Require(authz.WalletUse)...)

	// VNPAYから呼ばれる。認証は署名で行う
	g.GET("/vnpay_return", h.vnpayReturn)
	g.GET("/payment-callback", h.vnpayReturn)
	g.GET("/vnpay_ipn", h.vnpayIPN)
}

func (h *WalletHandler) balance(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	out, err := h.uc.Balance(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *WalletHandler) createPaymentURL(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	var req CreatePaymentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid amount"})
	}

	out, err := h.uc.CreatePaymentURL(c.Request().Context(), userID, usecase.CreatePaymentInput{
		Amount: req.Amount,
		IPAddr: c.RealIP(),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// 常に302
func (h *WalletHandler) vnpayReturn(c echo.Context) error {
	target := h.uc.HandleReturn(c.Request().Context(), c.QueryParams())
	return c.Redirect(http.StatusFound, target)
}

// 常に200
func (h *WalletHandler) vnpayIPN(c echo.Context) error {
	out := h.uc.HandleIPN(c.Request().Context(), c.QueryParams())
	return c.JSON(http.StatusOK, out)
}
