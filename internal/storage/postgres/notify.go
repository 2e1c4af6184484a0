package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"campusdate/backend/internal/realtime"
)

// ChangeChannel pg_notify 使用的频道名
const ChangeChannel = "campus_changes"

// maxNotifyPayload PostgreSQL NOTIFY 负载上限为 8000 字节
const maxNotifyPayload = 7900

// Notifier 通过 pg_notify 发布变更事件，所有实例的 Listener 都会收到
type Notifier struct {
	db      *gorm.DB
	channel string
}

// NewNotifier 创建 Notifier
func NewNotifier(db *gorm.DB) *Notifier {
	return &Notifier{db: db, channel: ChangeChannel}
}

// Publish 发布事件，负载过大时去掉 Payload 仅保留元数据
func (n *Notifier) Publish(ctx context.Context, event realtime.Event) error {
	data, err := event.Encode()
	if err != nil {
		return err
	}
	if len(data) > maxNotifyPayload {
		event.Payload = nil
		if data, err = event.Encode(); err != nil {
			return err
		}
	}
	return n.db.WithContext(ctx).Exec("SELECT pg_notify(?, ?)", n.channel, string(data)).Error
}

// Listener 在独占连接上执行 LISTEN，并把通知转交给 Sink
type Listener struct {
	client  *Client
	channel string
	sink    realtime.Sink
	log     *zap.Logger
	backoff time.Duration
}

// NewListener 创建 Listener
func NewListener(client *Client, sink realtime.Sink, log *zap.Logger) *Listener {
	if log == nil {
		log = zap.NewNop()
	}
	return &Listener{
		client:  client,
		channel: ChangeChannel,
		sink:    sink,
		log:     log,
		backoff: time.Second,
	}
}

// Run 持续监听直到 ctx 取消，连接断开后按退避重连
func (l *Listener) Run(ctx context.Context) error {
	backoff := l.backoff
	for {
		err := l.listen(ctx)
		if ctx.Err() != nil {
			return nil
		}
		l.log.Warn("change listener disconnected", zap.Error(err), zap.Duration("retry_in", backoff))

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(backoff):
		}
		if backoff < 30*time.Second {
			backoff *= 2
		}
	}
}

func (l *Listener) listen(ctx context.Context) error {
	conn, err := l.client.Pool().Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+l.channel); err != nil {
		return fmt.Errorf("listen %s: %w", l.channel, err)
	}
	l.log.Info("listening for changes", zap.String("channel", l.channel))

	for {
		notification, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}

		event, err := realtime.DecodeEvent([]byte(notification.Payload))
		if err != nil {
			l.log.Warn("invalid change payload", zap.Error(err))
			continue
		}
		l.sink.Deliver(event)
	}
}
