package middleware

import (
	"net/http"

	"ecshop/internal/authz"
	"ecshop/internal/domain/model"

	"github.com/labstack/echo/v4"
)

type CapabilityChecker interface {
	Can(role model.Role, c authz.Capability) bool
}

// contextのroleが指定の権限を持っているか確認。ロール判定はここだけで行う
func RequireCapability(az CapabilityChecker, capability authz.Capability) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role := UserRole(c)
			if role == "" {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}
			if !az.Can(role, capability) {
				return c.JSON(http.StatusForbidden, errorJSON("forbidden"))
			}
			return next(c)
		}
	}
}
