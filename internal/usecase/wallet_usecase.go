package usecase

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"ecshop/internal/domain/model"
	"ecshop/internal/infra/vnpay"
	repo "ecshop/internal/repository"

	"github.com/rs/zerolog"
)

// 決済URLの注文情報（VNPAYの画面に出る）
const walletTopUpOrderInfo = "Nap tien vi dien tu"

// IPNに返すコード
const (
	RspCodeSuccess          = "00"
	RspCodeOrderNotFound    = "01"
	RspCodeAlreadyConfirmed = "02"
	RspCodeUserNotFound     = "02"
	RspCodeInvalidSignature = "97"
	RspCodeUnknownError     = "99"
)

var (
	errPaymentNotFound  = errors.New("payment not found")
	errPaymentConfirmed = errors.New("payment already confirmed")
	errPaymentUser      = errors.New("payment user not found")
)

// 決済ゲートウェイ（VNPAY）
type PaymentGateway interface {
	BuildPaymentURL(req vnpay.PaymentRequest) (string, error)
	Verify(query url.Values) (vnpay.Result, error)
}

type WalletUsecase struct {
	tx        repo.TransactionManager
	users     repo.UserRepository
	payments  repo.PaymentRepository
	gateway   PaymentGateway
	idGen     IDGenerator
	clock     Clock
	resultURL string
	log       zerolog.Logger
}

func NewWalletUsecase(
	tx repo.TransactionManager,
	users repo.UserRepository,
	payments repo.PaymentRepository,
	gateway PaymentGateway,
	idGen IDGenerator,
	clock Clock,
	resultURL string,
	log zerolog.Logger,
) *WalletUsecase {
	return &WalletUsecase{
		tx:        tx,
		users:     users,
		payments:  payments,
		gateway:   gateway,
		idGen:     idGen,
		clock:     clock,
		resultURL: resultURL,
		log:       log,
	}
}

type BalanceOutput struct {
	Balance int64 `json:"balance"`
}

func (u *WalletUsecase) Balance(ctx context.Context, userID int64) (BalanceOutput, error) {
	if userID <= 0 {
		return BalanceOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	user, err := u.users.FindByID(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return BalanceOutput{}, NewHTTPError(http.StatusNotFound, "User not found")
	}
	if err != nil {
		return BalanceOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return BalanceOutput{Balance: user.WalletBalance}, nil
}

type CreatePaymentInput struct {
	Amount int64
	IPAddr string
}

type PaymentURLOutput struct {
	PaymentURL string `json:"payment_url"`
	TxnRef     string `json:"txn_ref"`
}

// 入金用の決済URLを作り、pendingの決済を記録する
func (u *WalletUsecase) CreatePaymentURL(ctx context.Context, userID int64, in CreatePaymentInput) (PaymentURLOutput, error) {
	if userID <= 0 {
		return PaymentURLOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if in.Amount <= 0 {
		return PaymentURLOutput{}, NewHTTPError(http.StatusBadRequest, "Invalid amount")
	}

	now := u.clock.Now()
	txnRef := u.newTxnRef()

	payURL, err := u.gateway.BuildPaymentURL(vnpay.PaymentRequest{
		TxnRef:    txnRef,
		Amount:    in.Amount,
		OrderInfo: walletTopUpOrderInfo,
		IPAddr:    in.IPAddr,
		CreatedAt: now,
	})
	if err != nil {
		u.log.Error().Err(err).Msg("build payment url failed")
		return PaymentURLOutput{}, NewHTTPError(http.StatusInternalServerError, "Error creating payment")
	}

	if err := u.payments.Create(ctx, &model.Payment{
		TxnRef: txnRef,
		UserID: userID,
		Amount: in.Amount,
		Status: model.PaymentStatusPending,
	}); err != nil {
		return PaymentURLOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return PaymentURLOutput{PaymentURL: payURL, TxnRef: txnRef}, nil
}

// yyyyMMddHHmmss + ランダム8文字
func (u *WalletUsecase) newTxnRef() string {
	suffix := strings.ReplaceAll(u.idGen.NewID(), "-", "")
	if len(suffix) > 8 {
		suffix = suffix[:8]
	}
	return u.clock.Now().Format("20060102150405") + suffix
}

// pendingの決済を確定する。成功ならウォレットに入金（同じTx）
func (u *WalletUsecase) finalize(ctx context.Context, res vnpay.Result) error {
	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		p, err := r.Payments().FindByTxnRef(ctx, res.TxnRef)
		if errors.Is(err, repo.ErrNotFound) {
			return errPaymentNotFound
		}
		if err != nil {
			return err
		}
		if p.Status != model.PaymentStatusPending {
			return errPaymentConfirmed
		}

		status := model.PaymentStatusFailed
		if res.Success() {
			status = model.PaymentStatusSuccess
		}

		// pendingのときだけ更新できる。同時に来た2通目はここでfalse
		ok, err := r.Payments().Finalize(ctx, res.TxnRef, repo.PaymentResult{
			Status:        status,
			BankCode:      res.BankCode,
			TransactionNo: res.TransactionNo,
			ResponseCode:  res.ResponseCode,
		})
		if err != nil {
			return err
		}
		if !ok {
			return errPaymentConfirmed
		}

		if status != model.PaymentStatusSuccess {
			return nil
		}
		err = r.Users().CreditWallet(ctx, p.UserID, p.Amount)
		if errors.Is(err, repo.ErrNotFound) {
			return errPaymentUser
		}
		return err
	})
}

// IPNの応答。VNPAYはHTTP 200でこの形を期待する
type IPNResponse struct {
	RspCode string `json:"RspCode"`
	Message string `json:"Message"`
}

func (u *WalletUsecase) HandleIPN(ctx context.Context, query url.Values) IPNResponse {
	res, err := u.gateway.Verify(query)
	if errors.Is(err, vnpay.ErrInvalidSignature) {
		u.log.Warn().Str("txn_ref", query.Get("vnp_TxnRef")).Msg("ipn: invalid signature")
		return IPNResponse{RspCode: RspCodeInvalidSignature, Message: "Invalid Signature"}
	}
	if err != nil {
		u.log.Warn().Err(err).Msg("ipn: malformed query")
		return IPNResponse{RspCode: RspCodeUnknownError, Message: "Unknown error"}
	}

	err = u.finalize(ctx, res)
	switch {
	case err == nil:
	case errors.Is(err, errPaymentNotFound):
		return IPNResponse{RspCode: RspCodeOrderNotFound, Message: "Order not found"}
	case errors.Is(err, errPaymentUser):
		return IPNResponse{RspCode: RspCodeUserNotFound, Message: "User not found"}
	case errors.Is(err, errPaymentConfirmed):
		return IPNResponse{RspCode: RspCodeAlreadyConfirmed, Message: "Order already confirmed"}
	default:
		u.log.Error().Err(err).Str("txn_ref", res.TxnRef).Msg("ipn: finalize failed")
		return IPNResponse{RspCode: RspCodeUnknownError, Message: "Unknown error"}
	}

	u.log.Info().Str("txn_ref", res.TxnRef).Str("response_code", res.ResponseCode).Msg("ipn: payment finalized")
	if !res.Success() {
		return IPNResponse{RspCode: res.ResponseCode, Message: "Confirm Fail"}
	}
	return IPNResponse{RspCode: RspCodeSuccess, Message: "Confirm Success"}
}

// ブラウザの戻り先。元のクエリを付けてフロントの結果画面に飛ばす
func (u *WalletUsecase) HandleReturn(ctx context.Context, query url.Values) string {
	res, err := u.gateway.Verify(query)
	if errors.Is(err, vnpay.ErrInvalidSignature) {
		u.log.Warn().Str("txn_ref", query.Get("vnp_TxnRef")).Msg("return: invalid signature")
		return u.resultRedirect("vnp_ResponseCode=97&vnp_Message=InvalidSignature")
	}
	if err != nil {
		return u.resultRedirect("vnp_ResponseCode=99&vnp_Message=SystemError")
	}

	err = u.finalize(ctx, res)
	// 未登録・確定済みは表示だけ（確定はIPN側でも行う）
	if err != nil && !errors.Is(err, errPaymentNotFound) && !errors.Is(err, errPaymentConfirmed) {
		u.log.Error().Err(err).Str("txn_ref", res.TxnRef).Msg("return: finalize failed")
		return u.resultRedirect("vnp_ResponseCode=99&vnp_Message=SystemError")
	}
	return u.resultRedirect(query.Encode())
}

func (u *WalletUsecase) resultRedirect(rawQuery string) string {
	sep := "?"
	if strings.Contains(u.resultURL, "?") {
		sep = "&"
	}
	return u.resultURL + sep + rawQuery
}
