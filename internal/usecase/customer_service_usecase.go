package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"ecshop/internal/domain/model"
	repo "ecshop/internal/repository"
)

const recentOrdersLimit = 5

type CustomerServiceUsecase struct {
	tx     repo.TransactionManager
	orders repo.OrderRepository
	clock  Clock
}

func NewCustomerServiceUsecase(tx repo.TransactionManager, orders repo.OrderRepository, clock Clock) *CustomerServiceUsecase {
	return &CustomerServiceUsecase{tx: tx, orders: orders, clock: clock}
}

// 対応メモを追記して、最新メモと担当者を更新する
func (u *CustomerServiceUsecase) AddNote(ctx context.Context, agentID int64, orderID int64, note string) (OrderOutput, error) {
	if agentID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	note = strings.TrimSpace(note)
	if note == "" {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "note is required")
	}

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByIDForUpdate(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "Order not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if err := r.Orders().AddContactNote(ctx, &model.ContactNote{
			OrderID:   o.ID,
			AgentID:   agentID,
			Note:      note,
			CreatedAt: u.clock.Now(),
		}); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		id := agentID
		o.CustomerServiceNotes = note
		o.CustomerServiceAgentID = &id
		if err := r.Orders().SaveState(ctx, o); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		return nil
	})
	if err != nil {
		return OrderOutput{}, err
	}

	o, err := u.orders.FindByID(ctx, orderID)
	if err != nil {
		return OrderOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return toOrderOutput(o), nil
}

type DashboardOutput struct {
	TotalOrders      int64         `json:"total_orders"`
	HandledOrders    int64         `json:"handled_orders"`
	PendingOrders    int64         `json:"pending_orders"`
	ProcessingOrders int64         `json:"processing_orders"`
	DeliveredOrders  int64         `json:"delivered_orders"`
	CancelledOrders  int64         `json:"cancelled_orders"`
	RecentOrders     []OrderOutput `json:"recent_orders"`
}

// handled_orders は自分が担当になっている注文の数
func (u *CustomerServiceUsecase) Dashboard(ctx context.Context, agentID int64) (DashboardOutput, error) {
	if agentID <= 0 {
		return DashboardOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	stats, err := u.orders.Stats(ctx, agentID)
	if err != nil {
		return DashboardOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	recent, err := u.orders.List(ctx, repo.OrderListFilter{Limit: recentOrdersLimit})
	if err != nil {
		return DashboardOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return DashboardOutput{
		TotalOrders:      stats.Total,
		HandledOrders:    stats.Handled,
		PendingOrders:    stats.ByStatus[model.OrderStatusPending],
		ProcessingOrders: stats.ByStatus[model.OrderStatusProcessing],
		DeliveredOrders:  stats.ByStatus[model.OrderStatusDelivered],
		CancelledOrders:  stats.ByStatus[model.OrderStatusCancelled],
		RecentOrders:     toOrderOutputs(recent),
	}, nil
}
