package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"ecshop/internal/authz"
	"ecshop/internal/domain/model"
	repo "ecshop/internal/repository"

	"github.com/rs/zerolog"
)

// ロールの権限判定
type CapabilityChecker interface {
	Can(role model.Role, c authz.Capability) bool
}

// 操作した人
type Actor struct {
	ID   int64
	Role model.Role
}

type DeliveryUsecase struct {
	tx        repo.TransactionManager
	orders    repo.OrderRepository
	authz     CapabilityChecker
	publisher OrderEventPublisher
	clock     Clock
	log       zerolog.Logger
}

func NewDeliveryUsecase(
	tx repo.TransactionManager,
	orders repo.OrderRepository,
	authz CapabilityChecker,
	publisher OrderEventPublisher,
	clock Clock,
	log zerolog.Logger,
) *DeliveryUsecase {
	return &DeliveryUsecase{
		tx:        tx,
		orders:    orders,
		authz:     authz,
		publisher: publisher,
		clock:     clock,
		log:       log,
	}
}

// 配送員を割り当てる（管理者・CS）。
// 顧客対応を記録できる人が割り当てたときは対応履歴にも残す
func (u *DeliveryUsecase) Assign(ctx context.Context, actor Actor, orderID int64, deliveryPersonID int64) (OrderOutput, error) {
	if actor.ID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if deliveryPersonID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "delivery_person_id is required")
	}

	now := u.clock.Now()
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByIDForUpdate(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "Order not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		person, err := r.Users().FindByID(ctx, deliveryPersonID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "Delivery person not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if person.Role != model.RoleDelivery || !person.IsActive {
			return NewHTTPError(http.StatusNotFound, "Delivery person not found")
		}

		before := o.Status
		if err := o.ApplyDeliveryAction(model.DeliveryActionAssign, model.TransitionInput{
			DeliveryPersonID: person.ID,
			Now:              now,
		}); err != nil {
			return orderStateError(err)
		}

		if u.authz.Can(actor.Role, authz.OrdersContact) {
			agentID := actor.ID
			o.CustomerServiceAgentID = &agentID
			if err := r.Orders().AddContactNote(ctx, &model.ContactNote{
				OrderID:   o.ID,
				AgentID:   actor.ID,
				Note:      "Assigned to delivery person " + person.Username,
				CreatedAt: now,
			}); err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
		}

		if err := r.Orders().SaveState(ctx, o); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if err := r.AuditLogs().Record(ctx, model.AuditLog{
			ActorUserID:  actor.ID,
			Action:       model.AuditActionAssignDelivery,
			ResourceType: model.AuditResourceOrder,
			ResourceID:   o.ID,
			BeforeJSON:   auditJSON(map[string]any{"status": before}),
			AfterJSON:    auditJSON(map[string]any{"status": o.Status, "delivery_person_id": person.ID}),
			CreatedAt:    now,
		}); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		return nil
	})
	if err != nil {
		return OrderOutput{}, err
	}

	return u.reloadAndPublish(ctx, orderID)
}

// 自分に割り当てられていて、まだ終わっていない注文
func (u *DeliveryUsecase) ListAssigned(ctx context.Context, deliveryPersonID int64) ([]OrderOutput, error) {
	if deliveryPersonID <= 0 {
		return nil, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	id := deliveryPersonID
	orders, err := u.orders.List(ctx, repo.OrderListFilter{
		DeliveryPersonID: &id,
		ExcludeDeliveryStatuses: []model.DeliveryStatus{
			model.DeliveryStatusDelivered,
			model.DeliveryStatusFailed,
		},
	})
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return toOrderOutputs(orders), nil
}

type UpdateDeliveryStatusInput struct {
	Action string
	Notes  string
}

// 配送員本人による状態更新
func (u *DeliveryUsecase) UpdateDeliveryStatus(ctx context.Context, deliveryPersonID int64, orderID int64, in UpdateDeliveryStatusInput) (OrderOutput, error) {
	if deliveryPersonID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	action, err := model.ParseDeliveryAction(strings.TrimSpace(in.Action))
	// 割当ては配送員の操作ではない
	if err != nil || action == model.DeliveryActionAssign {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "Invalid status update")
	}

	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByIDForUpdate(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "Order not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if o.DeliveryPersonID == nil || *o.DeliveryPersonID != deliveryPersonID {
			return NewHTTPError(http.StatusForbidden, "You are not assigned to this order")
		}

		if err := o.ApplyDeliveryAction(action, model.TransitionInput{Now: u.clock.Now()}); err != nil {
			return orderStateError(err)
		}
		if notes := strings.TrimSpace(in.Notes); notes != "" {
			o.DeliveryNotes = notes
		}

		if err := r.Orders().SaveState(ctx, o); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		return nil
	})
	if err != nil {
		return OrderOutput{}, err
	}

	return u.reloadAndPublish(ctx, orderID)
}

func (u *DeliveryUsecase) reloadAndPublish(ctx context.Context, orderID int64) (OrderOutput, error) {
	o, err := u.orders.FindByID(ctx, orderID)
	if err != nil {
		return OrderOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	publishOrderUpdated(ctx, u.publisher, u.log, o)
	return toOrderOutput(o), nil
}
