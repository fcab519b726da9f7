package repository

import (
	"context"
	"time"

	"ecshop/internal/domain/model"
)

// 保存・取得を約束
type UserRepository interface {
	//新規ユーザー作成。username/emailの重複はErrConflict
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, userID int64) (*model.User, error)
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	ListByRole(ctx context.Context, role model.Role) ([]model.User, error)
	UpdateLastLogin(ctx context.Context, userID int64, at time.Time) error
	//トークンのバージョンを＋１
	IncrementTokenVersion(ctx context.Context, userID int64) error

	//残高が足りるときだけ減算。足りなければfalse
	DebitWallet(ctx context.Context, userID int64, amount int64) (bool, error)
	//残高を加算
	CreditWallet(ctx context.Context, userID int64, amount int64) error
}
