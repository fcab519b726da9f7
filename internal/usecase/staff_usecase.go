package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"ecshop/internal/domain/model"
	repo "ecshop/internal/repository"
	"ecshop/internal/validator"
)

// 平文パスワードからハッシュへ。
type PasswordHasher interface {
	Hash(plain string) (string, error)
}

// スタッフ（配送員・CS）アカウントと強制ログアウト
type StaffUsecase struct {
	tx     repo.TransactionManager
	users  repo.UserRepository
	hasher PasswordHasher
	clock  Clock
}

func NewStaffUsecase(tx repo.TransactionManager, users repo.UserRepository, hasher PasswordHasher, clock Clock) *StaffUsecase {
	return &StaffUsecase{tx: tx, users: users, hasher: hasher, clock: clock}
}

type CreateStaffInput struct {
	Role        model.Role
	Username    string
	Email       string
	Password    string
	PhoneNumber string
	VehicleType string
}

func isStaffRole(r model.Role) bool {
	return r == model.RoleDelivery || r == model.RoleCustomerService
}

func (u *StaffUsecase) CreateStaff(ctx context.Context, actorID int64, in CreateStaffInput) (model.User, error) {
	if actorID <= 0 {
		return model.User{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if !isStaffRole(in.Role) {
		return model.User{}, NewHTTPError(http.StatusBadRequest, "invalid role")
	}

	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := validator.ValidateRegister(in.Username, in.Email, in.Password); err != nil {
		return model.User{}, NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if in.Role == model.RoleDelivery {
		if err := validator.ValidateDeliveryStaff(in.PhoneNumber, in.VehicleType); err != nil {
			return model.User{}, NewHTTPError(http.StatusBadRequest, err.Error())
		}
	}

	hashed, err := u.hasher.Hash(in.Password)
	if err != nil {
		return model.User{}, NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	now := u.clock.Now()
	user := model.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hashed,
		Role:         in.Role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if in.Role == model.RoleDelivery {
		user.PhoneNumber = strings.TrimSpace(in.PhoneNumber)
		user.VehicleType = strings.TrimSpace(in.VehicleType)
		user.ActiveDelivery = true
	}

	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		err := r.Users().Create(ctx, &user)
		if errors.Is(err, repo.ErrConflict) {
			return NewHTTPError(http.StatusConflict, "Username or email already exists")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if err := r.AuditLogs().Record(ctx, model.AuditLog{
			ActorUserID:  actorID,
			Action:       model.AuditActionCreateStaff,
			ResourceType: model.AuditResourceUser,
			ResourceID:   user.ID,
			AfterJSON:    auditJSON(map[string]any{"username": user.Username, "role": user.Role}),
			CreatedAt:    now,
		}); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		return nil
	})
	if err != nil {
		return model.User{}, err
	}
	return user, nil
}

func (u *StaffUsecase) ListStaff(ctx context.Context, role model.Role) ([]model.User, error) {
	if !isStaffRole(role) {
		return nil, NewHTTPError(http.StatusBadRequest, "invalid role")
	}
	users, err := u.users.ListByRole(ctx, role)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return users, nil
}

type ForceLogoutOutput struct {
	UserID          int64 `json:"user_id"`
	NewTokenVersion int   `json:"new_token_version"`
}

// token_versionを上げて発行済みトークンを全部無効にする
func (u *StaffUsecase) ForceLogout(ctx context.Context, actorID int64, targetUserID int64) (ForceLogoutOutput, error) {
	if actorID <= 0 {
		return ForceLogoutOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if targetUserID <= 0 {
		return ForceLogoutOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var out ForceLogoutOutput
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		before, err := r.Users().FindByID(ctx, targetUserID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "User not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if err := r.Users().IncrementTokenVersion(ctx, targetUserID); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		out = ForceLogoutOutput{UserID: targetUserID, NewTokenVersion: before.TokenVersion + 1}

		if err := r.AuditLogs().Record(ctx, model.AuditLog{
			ActorUserID:  actorID,
			Action:       model.AuditActionForceLogout,
			ResourceType: model.AuditResourceUser,
			ResourceID:   targetUserID,
			BeforeJSON:   auditJSON(map[string]any{"token_version": before.TokenVersion}),
			AfterJSON:    auditJSON(map[string]any{"token_version": out.NewTokenVersion}),
			CreatedAt:    u.clock.Now(),
		}); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		return nil
	})
	if err != nil {
		return ForceLogoutOutput{}, err
	}
	return out, nil
}
