package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"ecshop/internal/domain/model"
	"ecshop/internal/repository"
	"ecshop/internal/validator"
)

// handlerからusecaseに渡す入力
type LoginInput struct {
	Username string
	Password string
}

// handlerがJSONにして返す
type LoginOutput struct {
	Token     string     `json:"token"`
	ExpiresIn int        `json:"expires_in"`
	User      model.User `json:"user"`
}

// ユーザー名またはパスワードが違う
var ErrInvalidCredentials = errors.New("invalid credentials")

// 停止済みユーザー
var ErrUserInactive = errors.New("user is inactive")

// JWTを発行する約束
type AccessTokenIssuer interface {
	Issue(userID int64, role model.Role, tokenVersion int, now time.Time) (token string, expiresAt time.Time, err error)
}

// 入力パスワードと保存したハッシュを比べる約束
type PasswordVerifier interface {
	Verify(plain string, hashed string) bool
}

type LoginUsecase struct {
	userRepo repository.UserRepository
	verifier PasswordVerifier
	issuer   AccessTokenIssuer
	clock    Clock
}

func NewLoginUsecase(
	userRepo repository.UserRepository,
	verifier PasswordVerifier,
	issuer AccessTokenIssuer,
	clock Clock,
) *LoginUsecase {
	return &LoginUsecase{
		userRepo: userRepo,
		verifier: verifier,
		issuer:   issuer,
		clock:    clock,
	}
}

// ログイン処理を実行する
func (u *LoginUsecase) Execute(ctx context.Context, in LoginInput) (LoginOutput, error) {
	var out LoginOutput

	if err := validator.ValidateLogin(in.Username, in.Password); err != nil {
		return out, err
	}

	//usernameでユーザー取得
	user, err := u.userRepo.FindByUsername(ctx, strings.TrimSpace(in.Username))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return out, ErrInvalidCredentials
		}
		return out, err
	}

	//パスワード照合
	if ok := u.verifier.Verify(in.Password, user.PasswordHash); !ok {
		return out, ErrInvalidCredentials
	}

	//停止ユーザーはログイン不可
	if !user.IsActive {
		return out, ErrUserInactive
	}

	now := u.clock.Now()
	token, exp, err := u.issuer.Issue(user.ID, user.Role, user.TokenVersion, now)
	if err != nil {
		return out, err
	}

	//最終ログイン時刻更新
	if err := u.userRepo.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return out, err
	}
	user.LastLoginAt = &now

	out.Token = token
	out.ExpiresIn = int(exp.Sub(now).Seconds())
	out.User = *user
	return out, nil
}

// ログイン中のユーザー
type MeUsecase struct {
	userRepo repository.UserRepository
}

func NewMeUsecase(userRepo repository.UserRepository) *MeUsecase {
	return &MeUsecase{userRepo: userRepo}
}

func (u *MeUsecase) Execute(ctx context.Context, userID int64) (model.User, error) {
	if userID <= 0 {
		return model.User{}, ErrInvalidCredentials
	}
	user, err := u.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.User{}, ErrInvalidCredentials
		}
		return model.User{}, err
	}
	if !user.IsActive {
		return model.User{}, ErrUserInactive
	}
	return *user, nil
}
