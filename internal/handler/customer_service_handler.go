package handler

import (
	"net/http"

	"ecshop/internal/authz"
	"ecshop/internal/usecase"

	"github.com/labstack/echo/v4"
)

type CustomerServiceHandler struct {
	uc *usecase.CustomerServiceUsecase
}

func NewCustomerServiceHandler(uc *usecase.CustomerServiceUsecase) *CustomerServiceHandler {
	return &CustomerServiceHandler{uc: uc}
}

type CustomerNoteRequest struct {
	Note string `json:"note"`
}

func (h *CustomerServiceHandler) RegisterRoutes(api *echo.Group, gd Guards) {
	g := api.Group("/orders")

	g.GET("/customer-service", h.dashboard, gd.Require(authz.OrdersDashboard)...)
	g.PUT("/:orderId/customer-note", h.addNote, gd.Require(authz.OrdersContact)...)
}

func (h *CustomerServiceHandler) dashboard(c echo.Context) error {
	agentID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	out, err := h.uc.Dashboard(c.Request().Context(), agentID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CustomerServiceHandler) addNote(c echo.Context) error {
	agentID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}
	orderID, ok := paramID(c, "orderId")
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid orderId"})
	}

	var req CustomerNoteRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.AddNote(c.Request().Context(), agentID, orderID, req.Note)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
