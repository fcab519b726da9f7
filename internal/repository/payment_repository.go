package repository

import (
	"context"

	"ecshop/internal/domain/model"
)

// ゲートウェイから受け取った結果
type PaymentResult struct {
	Status        model.PaymentStatus
	BankCode      string
	TransactionNo string
	ResponseCode  string
}

type PaymentRepository interface {
	Create(ctx context.Context, p *model.Payment) error
	FindByTxnRef(ctx context.Context, txnRef string) (model.Payment, error)
	//pendingのときだけ確定する。既に確定済みならfalse
	Finalize(ctx context.Context, txnRef string, res PaymentResult) (bool, error)
}
