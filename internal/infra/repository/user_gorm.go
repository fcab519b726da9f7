package repository

import (
	"context"
	"errors"
	"time"

	"ecshop/internal/domain/model"
	domainrepo "ecshop/internal/repository"

	"gorm.io/gorm"
)

type userGormRepository struct {
	db *gorm.DB
}

// DI
// main.goでこれをnewしてusecaseに注入します。
func NewUserGormRepository(db *gorm.DB) domainrepo.UserRepository {
	return &userGormRepository{db: db}
}

// Create はユーザーを新規作成
func (r *userGormRepository) Create(ctx context.Context, user *model.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueViolation(err) {
			return domainrepo.ErrConflict
		}
		return err
	}
	return nil
}

func (r *userGormRepository) findOne(ctx context.Context, query string, arg interface{}) (*model.User, error) {
	var u model.User

	err := r.db.WithContext(ctx).
		Where(query, arg).
		First(&u).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domainrepo.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// IDでユーザーを1件取得
func (r *userGormRepository) FindByID(ctx context.Context, id int64) (*model.User, error) {
	return r.findOne(ctx, "id = ?", id)
}

func (r *userGormRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.findOne(ctx, "username = ?", username)
}

// emailでユーザーを1件取得
func (r *userGormRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx, "email = ?", email)
}

func (r *userGormRepository) ListByRole(ctx context.Context, role model.Role) ([]model.User, error) {
	var users []model.User
	if err := r.db.WithContext(ctx).
		Where("role = ?", role).
		Order("id asc").
		Find(&users).Error; err != nil {
		return []model.User{}, err
	}
	return users, nil
}

func (r *userGormRepository) UpdateLastLogin(ctx context.Context, id int64, at time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", id).
		UpdateColumn("last_login_at", at)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domainrepo.ErrNotFound
	}
	return nil
}

// token_versionを+1 します。
func (r *userGormRepository) IncrementTokenVersion(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", id).
		UpdateColumn("token_version", gorm.Expr("token_version + ?", 1))

	if res.Error != nil {
		return res.Error
	}
	// 0件更新は「対象がない」
	if res.RowsAffected == 0 {
		return domainrepo.ErrNotFound
	}
	return nil
}

// 残高が足りるときだけ減算
func (r *userGormRepository) DebitWallet(ctx context.Context, id int64, amount int64) (bool, error) {
	if amount <= 0 {
		return false, errors.New("invalid amount")
	}

	res := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ? AND wallet_balance >= ?", id, amount).
		UpdateColumn("wallet_balance", gorm.Expr("wallet_balance - ?", amount))

	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *userGormRepository) CreditWallet(ctx context.Context, id int64, amount int64) error {
	if amount <= 0 {
		return errors.New("invalid amount")
	}

	res := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", id).
		UpdateColumn("wallet_balance", gorm.Expr("wallet_balance + ?", amount))

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domainrepo.ErrNotFound
	}
	return nil
}
