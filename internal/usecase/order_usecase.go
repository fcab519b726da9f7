package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"ecshop/internal/domain/model"
	repo "ecshop/internal/repository"

	"github.com/rs/zerolog"
)

// 同じ冪等キーで同時に作成されたとき
var errIdempotencyRace = errors.New("idempotency key race")

type OrderUsecase struct {
	tx        repo.TransactionManager
	orders    repo.OrderRepository
	publisher OrderEventPublisher
	exporter  OrderExporter
	clock     Clock
	log       zerolog.Logger
}

func NewOrderUsecase(
	tx repo.TransactionManager,
	orders repo.OrderRepository,
	publisher OrderEventPublisher,
	exporter OrderExporter,
	clock Clock,
	log zerolog.Logger,
) *OrderUsecase {
	return &OrderUsecase{
		tx:        tx,
		orders:    orders,
		publisher: publisher,
		exporter:  exporter,
		clock:     clock,
		log:       log,
	}
}

type PlaceOrderInput struct {
	ShippingAddress model.ShippingAddress
	PaymentMethod   model.PaymentMethod
	IdempotencyKey  string
}

type UserSummary struct {
	ID          int64  `json:"id"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number,omitempty"`
	VehicleType string `json:"vehicle_type,omitempty"`
}

// 注文 + 注文者/配送員の概要
type OrderOutput struct {
	model.Order
	User           *UserSummary `json:"user,omitempty"`
	DeliveryPerson *UserSummary `json:"delivery_person,omitempty"`
}

func toUserSummary(u *model.User) *UserSummary {
	if u == nil {
		return nil
	}
	return &UserSummary{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		PhoneNumber: u.PhoneNumber,
		VehicleType: u.VehicleType,
	}
}

func toOrderOutput(o model.Order) OrderOutput {
	if o.Items == nil {
		o.Items = []model.OrderItem{}
	}
	if o.ContactHistory == nil {
		o.ContactHistory = []model.ContactNote{}
	}
	return OrderOutput{
		Order:          o,
		User:           toUserSummary(o.User),
		DeliveryPerson: toUserSummary(o.DeliveryPerson),
	}
}

func toOrderOutputs(orders []model.Order) []OrderOutput {
	outs := make([]OrderOutput, 0, len(orders))
	for _, o := range orders {
		outs = append(outs, toOrderOutput(o))
	}
	return outs
}

func (in PlaceOrderInput) normalize() (PlaceOrderInput, error) {
	in.ShippingAddress.Address = strings.TrimSpace(in.ShippingAddress.Address)
	in.ShippingAddress.Phone = strings.TrimSpace(in.ShippingAddress.Phone)
	in.ShippingAddress.Email = strings.TrimSpace(in.ShippingAddress.Email)
	in.IdempotencyKey = strings.TrimSpace(in.IdempotencyKey)

	if in.ShippingAddress.Address == "" || in.ShippingAddress.Phone == "" || in.ShippingAddress.Email == "" {
		return in, NewHTTPError(http.StatusBadRequest, "shipping address is required")
	}
	if in.PaymentMethod == "" {
		in.PaymentMethod = model.PaymentMethodCOD
	}
	if !in.PaymentMethod.Valid() {
		return in, NewHTTPError(http.StatusBadRequest, "invalid payment method")
	}
	if len(in.IdempotencyKey) > 255 {
		return in, NewHTTPError(http.StatusBadRequest, "invalid idempotency key")
	}
	return in, nil
}

// カートから注文を作る。created=false は冪等キーによる再送
//
// VNPAY（ウォレット払い）は、残高の減算・注文作成・カートのクリアを
// 1トランザクションで行う。どこかで失敗すれば減算も戻る。
func (u *OrderUsecase) PlaceOrder(ctx context.Context, userID int64, in PlaceOrderInput) (out OrderOutput, created bool, err error) {
	if userID <= 0 {
		return OrderOutput{}, false, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	in, err = in.normalize()
	if err != nil {
		return OrderOutput{}, false, err
	}

	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if in.IdempotencyKey != "" {
			existing, found, err := r.Orders().FindByIdempotencyKey(ctx, userID, in.IdempotencyKey)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			if found {
				out = toOrderOutput(existing)
				return nil
			}
		}

		cartItems, err := r.CartItems().ListByUserID(ctx, userID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if len(cartItems) == 0 {
			return NewHTTPError(http.StatusBadRequest, "Cart is empty")
		}

		ids := make([]int64, 0, len(cartItems))
		for _, ci := range cartItems {
			ids = append(ids, ci.ProductID)
		}
		products, err := r.Products().FindByIDs(ctx, ids)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		//合計は現在の商品価格で計算して、以後固定
		items := make([]model.OrderItem, 0, len(cartItems))
		var total int64
		for _, ci := range cartItems {
			p, ok := products[ci.ProductID]
			if !ok || !p.IsActive {
				return NewHTTPError(http.StatusBadRequest, fmt.Sprintf("product %d is not available", ci.ProductID))
			}
			if ci.Quantity < 1 || ci.Quantity > model.MaxLineQuantity {
				return errQuantityLimit
			}
			if total, ok = model.AddLineTotal(total, p.Price, ci.Quantity); !ok {
				return errTotalTooLarge
			}
			items = append(items, model.OrderItem{
				ProductID:           p.ID,
				ProductNameSnapshot: p.Name,
				UnitPriceSnapshot:   p.Price,
				Quantity:            ci.Quantity,
			})
		}

		// 0円の注文はウォレットを動かさない
		if in.PaymentMethod == model.PaymentMethodVNPay && total > 0 {
			if err := debitWallet(ctx, r.Users(), userID, total); err != nil {
				return err
			}
		}

		order := model.Order{
			UserID:          userID,
			ShippingAddress: in.ShippingAddress,
			PaymentMethod:   in.PaymentMethod,
			TotalPrice:      total,
			Status:          model.OrderStatusPending,
			DeliveryStatus:  model.DeliveryStatusNotAssigned,
		}
		if in.IdempotencyKey != "" {
			key := in.IdempotencyKey
			order.IdempotencyKey = &key
		}

		if err := r.Orders().Create(ctx, &order); err != nil {
			if errors.Is(err, repo.ErrConflict) {
				return errIdempotencyRace
			}
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if err := r.OrderItems().CreateBulk(ctx, order.ID, items); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if err := r.CartItems().ClearByUserID(ctx, userID); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		order.Items = items
		out = toOrderOutput(order)
		created = true
		return nil
	})

	if errors.Is(err, errIdempotencyRace) {
		//先に入った方の注文を返す（こちらのTxは全て戻っている）
		existing, found, ferr := u.orders.FindByIdempotencyKey(ctx, userID, in.IdempotencyKey)
		if ferr != nil || !found {
			return OrderOutput{}, false, NewHTTPError(http.StatusConflict, "idempotency conflict")
		}
		return toOrderOutput(existing), false, nil
	}
	if err != nil {
		return OrderOutput{}, false, err
	}
	return out, created, nil
}

// 残高が足りるときだけ減算する。足りなければ現在残高と必要額を返す
func debitWallet(ctx context.Context, users repo.UserRepository, userID int64, amount int64) error {
	ok, err := users.DebitWallet(ctx, userID, amount)
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if ok {
		return nil
	}

	user, err := users.FindByID(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return NewHTTPError(http.StatusNotFound, "User not found")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return &HTTPError{
		Status:  http.StatusBadRequest,
		Message: "Insufficient wallet balance",
		Fields: map[string]any{
			"current_balance": user.WalletBalance,
			"required":        amount,
		},
	}
}

func (u *OrderUsecase) ListMyOrders(ctx context.Context, userID int64) ([]OrderOutput, error) {
	if userID <= 0 {
		return nil, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	orders, err := u.orders.ListByUserID(ctx, userID)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return toOrderOutputs(orders), nil
}

type ListOrdersInput struct {
	Status string
	Limit  int
	Offset int
}

func (in ListOrdersInput) filter() (repo.OrderListFilter, error) {
	f := repo.OrderListFilter{Limit: in.Limit, Offset: in.Offset}
	if in.Status != "" {
		s := model.OrderStatus(in.Status)
		if !s.Valid() {
			return f, NewHTTPError(http.StatusBadRequest, "invalid status")
		}
		f.Status = s
	}
	if in.Limit < 0 || in.Limit > 500 {
		return f, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	if in.Offset < 0 {
		return f, NewHTTPError(http.StatusBadRequest, "invalid offset")
	}
	return f, nil
}

// 管理者/CS向けの全件一覧
func (u *OrderUsecase) ListAll(ctx context.Context, in ListOrdersInput) ([]OrderOutput, error) {
	f, err := in.filter()
	if err != nil {
		return nil, err
	}
	orders, err := u.orders.List(ctx, f)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return toOrderOutputs(orders), nil
}

// ステータス更新（管理者・CS）。Delivered/Cancelledの注文は変更できない
func (u *OrderUsecase) UpdateStatus(ctx context.Context, actorUserID int64, orderID int64, status string) (OrderOutput, error) {
	if actorUserID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	newStatus := model.OrderStatus(strings.TrimSpace(status))
	if !newStatus.Valid() {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid status")
	}

	changed := false
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByIDForUpdate(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "Order not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		// すでに同じなら何もしない
		if o.Status == newStatus {
			return nil
		}

		before := o.Status
		if err := o.SetStatus(newStatus); err != nil {
			return orderStateError(err)
		}
		if err := r.Orders().SaveState(ctx, o); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if err := r.AuditLogs().Record(ctx, model.AuditLog{
			ActorUserID:  actorUserID,
			Action:       model.AuditActionUpdateOrderStatus,
			ResourceType: model.AuditResourceOrder,
			ResourceID:   orderID,
			BeforeJSON:   auditJSON(map[string]any{"status": before}),
			AfterJSON:    auditJSON(map[string]any{"status": o.Status}),
			CreatedAt:    u.clock.Now(),
		}); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		changed = true
		return nil
	})
	if err != nil {
		return OrderOutput{}, err
	}

	o, err := u.orders.FindByID(ctx, orderID)
	if err != nil {
		return OrderOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if changed {
		publishOrderUpdated(ctx, u.publisher, u.log, o)
	}
	return toOrderOutput(o), nil
}

type ExportOutput struct {
	Filename    string
	ContentType string
	Data        []byte
}

// 条件に合う注文をファイルにする
func (u *OrderUsecase) Export(ctx context.Context, in ListOrdersInput) (ExportOutput, error) {
	if u.exporter == nil {
		return ExportOutput{}, NewHTTPError(http.StatusNotImplemented, "export not available")
	}
	f, err := in.filter()
	if err != nil {
		return ExportOutput{}, err
	}
	orders, err := u.orders.List(ctx, f)
	if err != nil {
		return ExportOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	var buf bytes.Buffer
	if err := u.exporter.WriteOrders(&buf, orders); err != nil {
		u.log.Error().Err(err).Msg("order export failed")
		return ExportOutput{}, NewHTTPError(http.StatusInternalServerError, "export failed")
	}

	return ExportOutput{
		Filename:    "orders_" + u.clock.Now().Format("20060102_150405") + u.exporter.FileExtension(),
		ContentType: u.exporter.ContentType(),
		Data:        buf.Bytes(),
	}, nil
}

// 状態遷移のエラーをHTTPに変換
func orderStateError(err error) error {
	switch {
	case errors.Is(err, model.ErrInvalidOrderStatus):
		return NewHTTPError(http.StatusBadRequest, "invalid status")
	case errors.Is(err, model.ErrInvalidDeliveryAction):
		return NewHTTPError(http.StatusBadRequest, "Invalid status update")
	case errors.Is(err, model.ErrOrderFinalized):
		return NewHTTPError(http.StatusConflict, "order is already finalized")
	case errors.Is(err, model.ErrTransitionNotAllowed):
		return NewHTTPError(http.StatusConflict, "status change not allowed")
	}
	return NewHTTPError(http.StatusInternalServerError, "internal error")
}
