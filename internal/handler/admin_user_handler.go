package handler

import (
	"net/http"
	"strconv"
	"time"

	"ecshop/internal/authz"
	"ecshop/internal/usecase"

	"github.com/labstack/echo/v4"
)

type AdminUserHandler struct {
	staffUC *usecase.StaffUsecase
	auditUC *usecase.AuditLogUsecase
}

func NewAdminUserHandler(staffUC *usecase.StaffUsecase, auditUC *usecase.AuditLogUsecase) *AdminUserHandler {
	return &AdminUserHandler{staffUC: staffUC, auditUC: auditUC}
}

func (h *AdminUserHandler) RegisterRoutes(api *echo.Group, gd Guards) {
	admin := api.Group("/admin")

	admin.POST("/users/:id/force-logout", h.ForceLogout, gd.Require(authz.UsersForceLogout)...)
	admin.GET("/audit-logs", h.AuditLogs, gd.Require(authz.AuditLogsRead)...)
}

func (h *AdminUserHandler) ForceLogout(c echo.Context) error {
	actorID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}
	userID, ok := paramID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid user_id"})
	}

	res, err := h.staffUC.ForceLogout(c.Request().Context(), actorID, userID)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, res)
}

// ?actor_user_id=&action=&resource_type=&resource_id=&from=&to=&limit=&offset=
func (h *AdminUserHandler) AuditLogs(c echo.Context) error {
	in := usecase.ListAuditLogsInput{
		Action:       c.QueryParam("action"),
		ResourceType: c.QueryParam("resource_type"),
	}

	for _, p := range []struct {
		name string
		dst  **int64
	}{
		{"actor_user_id", &in.ActorUserID},
		{"resource_id", &in.ResourceID},
	} {
		if v := c.QueryParam(p.name); v != "" {
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid " + p.name})
			}
			*p.dst = &n
		}
	}

	for _, p := range []struct {
		name string
		dst  **time.Time
	}{
		{"from", &in.From},
		{"to", &in.To},
	} {
		if v := c.QueryParam(p.name); v != "" {
			t, err := time.Parse(time.RFC3339, v)
			if err != nil {
				return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid " + p.name})
			}
			*p.dst = &t
		}
	}

	var err error
	if v := c.QueryParam("limit"); v != "" {
		if in.Limit, err = strconv.Atoi(v); err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid limit"})
		}
	}
	if v := c.QueryParam("offset"); v != "" {
		if in.Offset, err = strconv.Atoi(v); err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid offset"})
		}
	}

	logs, err := h.auditUC.List(c.Request().Context(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, logs)
}
