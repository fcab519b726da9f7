package handler

import (
	"errors"
	"net/http"

	"ecshop/internal/authz"
	"ecshop/internal/domain/model"
	"ecshop/internal/usecase"
	auth "ecshop/internal/usecase/auth_usecase"
	"ecshop/internal/validator"

	"github.com/labstack/echo/v4"
)

type AuthHandler struct {
	registerUC *auth.RegisterUserUsecase // 会員登録usecase
	loginUC    *auth.LoginUsecase        // ログインusecase
	meUC       *auth.MeUsecase
	staffUC    *usecase.StaffUsecase
}

// DIコンストラクタ
func NewAuthHandler(
	registerUC *auth.RegisterUserUsecase,
	loginUC *auth.LoginUsecase,
	meUC *auth.MeUsecase,
	staffUC *usecase.StaffUsecase,
) *AuthHandler {
	return &AuthHandler{
		registerUC: registerUC,
		loginUC:    loginUC,
		meUC:       meUC,
		staffUC:    staffUC,
	}
}

// /auth/register のリクエストボディ。
type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// /auth/login のリクエストボディ。
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type createStaffRequest struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	PhoneNumber string `json:"phone_number"`
	VehicleType string `json:"vehicle_type"`
}

func (h *AuthHandler) RegisterRoutes(api *echo.Group, gd Guards) {
	g := api.Group("/auth")

	g.POST("/register", h.Register)
	g.POST("/login", h.Login)
	g.GET("/user", h.Me, gd.Authn()...)

	g.POST("/delivery/create", h.createStaff(model.RoleDelivery), gd.Require(authz.StaffManage)...)
	g.GET("/delivery/accounts", h.listStaff(model.RoleDelivery), gd.Require(authz.DeliveryStaffRead)...)
	g.POST("/customer-service/create", h.createStaff(model.RoleCustomerService), gd.Require(authz.StaffManage)...)
	g.GET("/customer-service/accounts", h.listStaff(model.RoleCustomerService), gd.Require(authz.StaffManage)...)
}

// auth usecaseのエラーをHTTPに変換
func writeAuthError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, validator.ErrInvalidInput):
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	case errors.Is(err, auth.ErrUserAlreadyExists):
		return c.JSON(http.StatusConflict, ErrorResponse{Error: "Username or email already exists"})
	case errors.Is(err, auth.ErrInvalidCredentials):
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Invalid credentials"})
	case errors.Is(err, auth.ErrUserInactive):
		return c.JSON(http.StatusForbidden, ErrorResponse{Error: "Account is disabled"})
	}
	return writeError(c, err)
}

// RegisterはPOST /auth/registerのハンドラ
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.registerUC.Execute(c.Request().Context(), auth.RegisterUserInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return writeAuthError(c, err)
	}

	return c.JSON(http.StatusCreated, out)
}

// LoginはPOST /auth/login のハンドラ。
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.loginUC.Execute(c.Request().Context(), auth.LoginInput{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		return writeAuthError(c, err)
	}

	//JSONレスポンス（token + user）
	return c.JSON(http.StatusOK, out)
}

func (h *AuthHandler) Me(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	user, err := h.meUC.Execute(c.Request().Context(), userID)
	if err != nil {
		return writeAuthError(c, err)
	}
	return c.JSON(http.StatusOK, user)
}

func (h *AuthHandler) createStaff(role model.Role) echo.HandlerFunc {
	return func(c echo.Context) error {
		actorID, ok := getUserIDFromContext(c)
		if !ok {
			return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		}

		var req createStaffRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
		}

		user, err := h.staffUC.CreateStaff(c.Request().Context(), actorID, usecase.CreateStaffInput{
			Role:        role,
			Username:    req.Username,
			Email:       req.Email,
			Password:    req.Password,
			PhoneNumber: req.PhoneNumber,
			VehicleType: req.VehicleType,
		})
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusCreated, user)
	}
}

func (h *AuthHandler) listStaff(role model.Role) echo.HandlerFunc {
	return func(c echo.Context) error {
		users, err := h.staffUC.ListStaff(c.Request().Context(), role)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusOK, users)
	}
}
