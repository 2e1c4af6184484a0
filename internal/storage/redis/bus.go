package redis

import (
	"context"

	"go.uber.org/zap"

	"campusdate/backend/internal/realtime"
)

// DefaultBusChannel 跨实例事件频道
const DefaultBusChannel = "campusdate:changes"

// Bus 基于 Redis Pub/Sub 的跨实例事件总线
type Bus struct {
	client  *Client
	channel string
	log     *zap.Logger
}

// NewBus 创建事件总线
func NewBus(client *Client, channel string, log *zap.Logger) *Bus {
	if channel == "" {
		channel = DefaultBusChannel
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Bus{client: client, channel: channel, log: log}
}

// Publish 实现 realtime.Publisher
func (b *Bus) Publish(ctx context.Context, event realtime.Event) error {
	data, err := event.Encode()
	if err != nil {
		return err
	}
	return b.client.rdb.Publish(ctx, b.channel, data).Err()
}

// Subscribe 订阅频道并把事件交给 sink，直到 ctx 取消
func (b *Bus) Subscribe(ctx context.Context, sink realtime.Sink) error {
	pubsub := b.client.rdb.Subscribe(ctx, b.channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return err
	}
	b.log.Info("subscribed to change bus", zap.String("channel", b.channel))

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			event, err := realtime.DecodeEvent([]byte(msg.Payload))
			if err != nil {
				b.log.Warn("invalid bus payload", zap.Error(err))
				continue
			}
			sink.Deliver(event)
		}
	}
}
