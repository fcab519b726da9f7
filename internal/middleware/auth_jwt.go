package middleware

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"ecshop/internal/domain/model"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
)

const (
	CtxUserIDKey       = "user_id"       // int64
	CtxUserRoleKey     = "user_role"     // model.Role
	CtxTokenVersionKey = "token_version" // int
)

var ErrInvalidToken = errors.New("invalid token")

// JWTから取り出した値
type Claims struct {
	UserID       int64
	Role         model.Role
	TokenVersion int
}

// HS256の署名と期限を検証してclaimsを返す。websocketでも使う
func ParseToken(secret string, rawToken string) (Claims, error) {
	rawToken = strings.TrimSpace(rawToken)
	if rawToken == "" {
		return Claims{}, ErrInvalidToken
	}

	token, err := jwt.Parse(rawToken, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil || token == nil || !token.Valid {
		return Claims{}, ErrInvalidToken
	}

	mc, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, ErrInvalidToken
	}

	userID, err := parseUserID(mc["sub"])
	if err != nil || userID <= 0 {
		return Claims{}, ErrInvalidToken
	}
	role, err := parseString(mc["role"])
	if err != nil || !model.Role(role).Valid() {
		return Claims{}, ErrInvalidToken
	}
	tv, err := parseInt(mc["tv"])
	if err != nil || tv < 0 {
		return Claims{}, ErrInvalidToken
	}

	return Claims{UserID: userID, Role: model.Role(role), TokenVersion: tv}, nil
}

// Authorization: Bearer <token> を取り出す
func bearerToken(c echo.Context) (string, bool) {
	authz := c.Request().Header.Get("Authorization")
	if authz == "" {
		return "", false
	}
	parts := strings.SplitN(authz, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	raw := strings.TrimSpace(parts[1])
	return raw, raw != ""
}

func setClaims(c echo.Context, cl Claims) {
	c.Set(CtxUserIDKey, cl.UserID)
	c.Set(CtxUserRoleKey, cl.Role)
	c.Set(CtxTokenVersionKey, cl.TokenVersion)
}

// bearerAuth用のJWT検証ミドルウェア。
func AuthJWT(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := bearerToken(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}
			cl, err := ParseToken(secret, raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}
			setClaims(c, cl)
			return next(c)
		}
	}
}

// トークンがあれば読むが、無くても通す（投稿一覧など）
func OptionalAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if raw, ok := bearerToken(c); ok {
				if cl, err := ParseToken(secret, raw); err == nil {
					setClaims(c, cl)
				}
			}
			return next(c)
		}
	}
}

// contextのuser_id。無ければ0
func UserID(c echo.Context) int64 {
	id, _ := c.Get(CtxUserIDKey).(int64)
	return id
}

// contextのrole。無ければ空
func UserRole(c echo.Context) model.Role {
	r, _ := c.Get(CtxUserRoleKey).(model.Role)
	return r
}

type errorResponse struct {
	Error string `json:"error"`
}

func errorJSON(msg string) errorResponse {
	return errorResponse{Error: msg}
}

// user_idをint64に変換する
func parseUserID(v interface{}) (int64, error) {
	switch t := v.(type) {
	case float64:
		return int64(t), nil
	case string:
		return strconv.ParseInt(t, 10, 64)
	default:
		return 0, errors.New("invalid sub")
	}
}

func parseString(v interface{}) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", errors.New("invalid string")
	}
	return s, nil
}

func parseInt(v interface{}) (int, error) {
	switch t := v.(type) {
	case float64:
		return int(t), nil
	case int:
		return t, nil
	case string:
		i64, err := strconv.ParseInt(t, 10, 32)
		if err != nil {
			return 0, err
		}
		return int(i64), nil
	default:
		return 0, errors.New("invalid int")
	}
}
