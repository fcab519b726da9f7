package redisbus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ecshop/internal/domain/model"
	"ecshop/internal/usecase"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// 接続してPINGが通ったクライアントを返す
func NewClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return client, nil
}

// 複数インスタンス間でorder_updatedを流す（Pub/Sub、再送なし）
type Bus struct {
	client  *redis.Client
	channel string
	log     zerolog.Logger
}

func New(client *redis.Client, channel string, log zerolog.Logger) *Bus {
	return &Bus{client: client, channel: channel, log: log}
}

func (b *Bus) PublishOrderUpdated(ctx context.Context, ev model.OrderUpdatedEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if err := b.client.Publish(ctx, b.channel, payload).Err(); err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}
	return nil
}

// ctxが終わるまで購読して、届いたイベントをlocalに渡す
func (b *Bus) Subscribe(ctx context.Context, local usecase.OrderEventPublisher) error {
	sub := b.client.Subscribe(ctx, b.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("redis subscribe %s: %w", b.channel, err)
	}
	b.log.Info().Str("channel", b.channel).Msg("subscribed to order events")

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			ev, err := decodeEvent(msg.Payload)
			if err != nil {
				b.log.Warn().Err(err).Msg("drop malformed order event")
				continue
			}
			if err := local.PublishOrderUpdated(ctx, ev); err != nil {
				b.log.Warn().Err(err).Int64("order_id", ev.OrderID).Msg("relay order event failed")
			}
		}
	}
}

func decodeEvent(payload string) (model.OrderUpdatedEvent, error) {
	var ev model.OrderUpdatedEvent
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		return model.OrderUpdatedEvent{}, err
	}
	if ev.OrderID <= 0 || !ev.Status.Valid() {
		return model.OrderUpdatedEvent{}, fmt.Errorf("invalid order event %q", payload)
	}
	return ev, nil
}
