package handler

import (
	"net/http"
	"strconv"

	"ecshop/internal/authz"
	"ecshop/internal/middleware"
	"ecshop/internal/repository"
	"ecshop/internal/usecase"

	"github.com/labstack/echo/v4"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type SuccessResponse struct {
	Message string `json:"message"`
}

func writeError(c echo.Context, err error) error {
	if err == nil {
		return nil
	}
	if he, ok := usecase.AsHTTPError(err); ok {
		if len(he.Fields) == 0 {
			return c.JSON(he.Status, ErrorResponse{Error: he.Message})
		}
		body := make(map[string]any, len(he.Fields)+1)
		for k, v := range he.Fields {
			body[k] = v
		}
		body["error"] = he.Message
		return c.JSON(he.Status, body)
	}

	//500
	c.Logger().Error(err)
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
}

//middleware.AuthJWT が c.Set("user_id", int64) した値を取り出す
func getUserIDFromContext(c echo.Context) (int64, bool) {
	id := middleware.UserID(c)
	return id, id > 0
}

// パスの数値ID
func paramID(c echo.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// ルート登録で使う認証・権限ミドルウェア
type Guards struct {
	authn    []echo.MiddlewareFunc
	optional echo.MiddlewareFunc
	az       middleware.CapabilityChecker
}

func NewGuards(jwtSecret string, users repository.UserRepository, az middleware.CapabilityChecker) Guards {
	return Guards{
		authn: []echo.MiddlewareFunc{
			middleware.AuthJWT(jwtSecret),
			middleware.TokenVersionGuard(users),
		},
		optional: middleware.OptionalAuth(jwtSecret),
		az:       az,
	}
}

// JWT必須 + token_version一致
func (g Guards) Authn() []echo.MiddlewareFunc {
	return g.authn
}

// JWT必須 + 権限
func (g Guards) Require(capability authz.Capability) []echo.MiddlewareFunc {
	return append(append([]echo.MiddlewareFunc{}, g.authn...), middleware.RequireCapability(g.az, capability))
}

func (g Guards) Optional() echo.MiddlewareFunc {
	return g.optional
}

func (g Guards) Can(c echo.Context, capability authz.Capability) bool {
	role := middleware.UserRole(c)
	return role != "" && g.az.Can(role, capability)
}
