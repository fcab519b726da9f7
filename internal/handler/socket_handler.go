package handler

import (
	"net/http"
	"strings"

	"ecshop/internal/middleware"
	"ecshop/internal/realtime"
	"ecshop/internal/repository"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

type SocketHandler struct {
	hub       *realtime.Hub
	users     repository.UserRepository
	jwtSecret string
	upgrader  websocket.Upgrader
}

// allowedOrigin が空なら Origin を見ない
func NewSocketHandler(hub *realtime.Hub, users repository.UserRepository, jwtSecret string, allowedOrigin string) *SocketHandler {
	allowedOrigin = strings.TrimRight(allowedOrigin, "/")
	return &SocketHandler{
		hub:       hub,
		users:     users,
		jwtSecret: jwtSecret,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return allowedOrigin == "" || origin == "" || strings.TrimRight(origin, "/") == allowedOrigin
			},
		},
	}
}

func (h *SocketHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/ws", h.Connect)
}

// GET /ws?token=<jwt>
// ブラウザのWebSocketはヘッダを付けられないのでクエリで受ける
func (h *SocketHandler) Connect(c echo.Context) error {
	claims, err := middleware.ParseToken(h.jwtSecret, c.QueryParam("token"))
	if err != nil {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	user, err := h.users.FindByID(c.Request().Context(), claims.UserID)
	if err != nil || user == nil || user.TokenVersion != claims.TokenVersion {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}
	if !user.IsActive {
		return c.JSON(http.StatusForbidden, ErrorResponse{Error: "user is inactive"})
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade が応答を書いている
		return nil
	}

	h.hub.Serve(conn, realtime.Identity{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
	})
	return nil
}
