package usecase

import (
	"context"
	"encoding/json"
	"io"

	"ecshop/internal/domain/model"

	"github.com/rs/zerolog"
)

// 注文の状態変化を配信する。届かなくても注文処理は失敗させない
type OrderEventPublisher interface {
	PublishOrderUpdated(ctx context.Context, ev model.OrderUpdatedEvent) error
}

// 注文一覧をファイルに書き出す
type OrderExporter interface {
	ContentType() string
	FileExtension() string
	WriteOrders(w io.Writer, orders []model.Order) error
}

// コミット後に呼ぶ。配信に失敗してもログだけ残す
func publishOrderUpdated(ctx context.Context, pub OrderEventPublisher, log zerolog.Logger, o model.Order) {
	if pub == nil {
		return
	}
	ev := model.OrderUpdatedEvent{OrderID: o.ID, Status: o.Status}
	if err := pub.PublishOrderUpdated(ctx, ev); err != nil {
		log.Warn().Err(err).Int64("order_id", o.ID).Str("status", string(o.Status)).Msg("publish order_updated failed")
	}
}

// 監査ログのbefore/afterに入れるJSON
func auditJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(b)
}
