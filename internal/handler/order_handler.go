package handler

import (
	"net/http"
	"strconv"

	"ecshop/internal/authz"
	"ecshop/internal/domain/model"
	"ecshop/internal/usecase"

	"github.com/labstack/echo/v4"
)

type OrderHandler struct {
	uc *usecase.OrderUsecase
}

func NewOrderHandler(uc *usecase.OrderUsecase) *OrderHandler {
	return &OrderHandler{uc: uc}
}

type OrderCreateRequest struct {
	ShippingAddress model.ShippingAddress `json:"shipping_address"`
	PaymentMethod   model.PaymentMethod   `json:"payment_method"`
}

type OrderStatusRequest struct {
	Status string `json:"status"`
}

func (h *OrderHandler) RegisterRoutes(api *echo.Group, gd Guards) {
	g := api.Group("/orders")

	g.POST("", h.create, gd.Require(authz.OrdersCreate)...)
	g.GET("/user", h.listMine, gd.Require(authz.OrdersReadOwn)...)
	g.GET("", h.listAll, gd.Require(authz.OrdersReadAll)...)
	g.GET("/export", h.export, gd.Require(authz.OrdersExport)...)
	g.PUT("/:orderId", h.updateStatus, gd.Require(authz.OrdersUpdateStatus)...)
	g.PUT("/:orderId/status", h.updateStatus, gd.Require(authz.OrdersUpdateStatus)...)
}

func (h *OrderHandler) create(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	var req OrderCreateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	//二重送信防止キーはヘッダーから受け取る（bodyには入れない）
	idemKey := c.Request().Header.Get("X-Idempotency-Key")

	out, created, err := h.uc.PlaceOrder(c.Request().Context(), userID, usecase.PlaceOrderInput{
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   req.PaymentMethod,
		IdempotencyKey:  idemKey,
	})
	if err != nil {
		return writeError(c, err)
	}

	if !created {
		return c.JSON(http.StatusOK, out)
	}
	return c.JSON(http.StatusCreated, out)
}

func (h *OrderHandler) listMine(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	out, err := h.uc.ListMyOrders(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func listOrdersInput(c echo.Context) (usecase.ListOrdersInput, bool) {
	in := usecase.ListOrdersInput{Status: c.QueryParam("status")}
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return in, false
		}
		in.Limit = n
	}
	if v := c.QueryParam("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return in, false
		}
		in.Offset = n
	}
	return in, true
}

func (h *OrderHandler) listAll(c echo.Context) error {
	in, ok := listOrdersInput(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid query"})
	}

	out, err := h.uc.ListAll(c.Request().Context(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *OrderHandler) export(c echo.Context) error {
	in, ok := listOrdersInput(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid query"})
	}

	out, err := h.uc.Export(c.Request().Context(), in)
	if err != nil {
		return writeError(c, err)
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+out.Filename+`"`)
	return c.Blob(http.StatusOK, out.ContentType, out.Data)
}

func (h *OrderHandler) updateStatus(c echo.Context) error {
	actorID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}
	orderID, ok := paramID(c, "orderId")
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid orderId"})
	}

	var req OrderStatusRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.UpdateStatus(c.Request().Context(), actorID, orderID, req.Status)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
