package repository

import (
	"context"
	"errors"

	"ecshop/internal/domain/model"
	repo "ecshop/internal/repository"

	"gorm.io/gorm"
)

type PaymentGormRepository struct {
	db *gorm.DB
}

func NewPaymentGormRepository(db *gorm.DB) *PaymentGormRepository {
	return &PaymentGormRepository{db: db}
}

func (r *PaymentGormRepository) Create(ctx context.Context, p *model.Payment) error {
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		if isUniqueViolation(err) {
			return repo.ErrConflict
		}
		return err
	}
	return nil
}

func (r *PaymentGormRepository) FindByTxnRef(ctx context.Context, txnRef string) (model.Payment, error) {
	var p model.Payment
	err := r.db.WithContext(ctx).Where("txn_ref = ?", txnRef).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Payment{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Payment{}, err
	}
	return p, nil
}

// status='pending' を条件にした1文の更新（compare-and-set）。
// IPNと戻りURLが同時に来ても確定するのは片方だけ
func (r *PaymentGormRepository) Finalize(ctx context.Context, txnRef string, res repo.PaymentResult) (bool, error) {
	if res.Status != model.PaymentStatusSuccess && res.Status != model.PaymentStatusFailed {
		return false, errors.New("invalid payment status")
	}

	out := r.db.WithContext(ctx).
		Model(&model.Payment{}).
		Where("txn_ref = ? AND status = ?", txnRef, model.PaymentStatusPending).
		Updates(map[string]interface{}{
			"status":         res.Status,
			"bank_code":      res.BankCode,
			"transaction_no": res.TransactionNo,
			"response_code":  res.ResponseCode,
		})
	if out.Error != nil {
		return false, out.Error
	}
	return out.RowsAffected == 1, nil
}
