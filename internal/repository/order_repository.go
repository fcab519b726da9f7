package repository

import (
	"context"
	"time"

	"ecshop/internal/domain/model"
)

type OrderListFilter struct {
	Status           model.OrderStatus
	UserID           *int64
	From             *time.Time
	To               *time.Time
	DeliveryPersonID *int64
	//この配送状態は除外
	ExcludeDeliveryStatuses []model.DeliveryStatus
	Limit                   int
	Offset                  int
}

// CSダッシュボード用の集計
type OrderStats struct {
	Total    int64
	Handled  int64
	ByStatus map[model.OrderStatus]int64
}

type OrderRepository interface {
	Create(ctx context.Context, order *model.Order) error
	//明細と対応履歴も読む
	FindByID(ctx context.Context, orderID int64) (model.Order, error)
	//行ロック付き（Tx内で使う）
	FindByIDForUpdate(ctx context.Context, orderID int64) (model.Order, error)
	//同じキーなら同じ結果を返す
	FindByIdempotencyKey(ctx context.Context, userID int64, key string) (model.Order, bool, error)
	ListByUserID(ctx context.Context, userID int64) ([]model.Order, error)
	List(ctx context.Context, f OrderListFilter) ([]model.Order, error)

	//ステータス・配送関連の列だけ保存
	SaveState(ctx context.Context, order model.Order) error
	AddContactNote(ctx context.Context, note *model.ContactNote) error
	Stats(ctx context.Context, agentID int64) (OrderStats, error)
}
