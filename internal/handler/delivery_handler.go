package handler

import (
	"net/http"

	"ecshop/internal/authz"
	"ecshop/internal/middleware"
	"ecshop/internal/usecase"

	"github.com/labstack/echo/v4"
)

// 配送員の割当てと配送員による状態更新
type DeliveryHandler struct {
	uc *usecase.DeliveryUsecase
}

func NewDeliveryHandler(uc *usecase.DeliveryUsecase) *DeliveryHandler {
	return &DeliveryHandler{uc: uc}
}

type AssignDeliveryRequest struct {
	DeliveryPersonID int64 `json:"delivery_person_id"`
}

type DeliveryStatusRequest struct {
	Status string `json:"status"`
	Notes  string `json:"notes"`
}

func (h *DeliveryHandler) RegisterRoutes(api *echo.Group, gd Guards) {
	g := api.Group("/orders")

	g.GET("/delivery-orders", h.listAssigned, gd.Require(authz.OrdersDeliver)...)
	g.POST("/:orderId/assign-delivery", h.assign, gd.Require(authz.OrdersAssign)...)
	g.PUT("/:orderId/delivery-status", h.updateStatus, gd.Require(authz.OrdersDeliver)...)
}

func (h *DeliveryHandler) assign(c echo.Context) error {
	actorID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}
	orderID, ok := paramID(c, "orderId")
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid orderId"})
	}

	var req AssignDeliveryRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.Assign(c.Request().Context(), usecase.Actor{
		ID:   actorID,
		Role: middleware.UserRole(c),
	}, orderID, req.DeliveryPersonID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *DeliveryHandler) listAssigned(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	out, err := h.uc.ListAssigned(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *DeliveryHandler) updateStatus(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}
	orderID, ok := paramID(c, "orderId")
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid orderId"})
	}

	var req DeliveryStatusRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.UpdateDeliveryStatus(c.Request().Context(), userID, orderID, usecase.UpdateDeliveryStatusInput{
		Action: req.Status,
		Notes:  req.Notes,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
