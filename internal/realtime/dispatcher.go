package realtime

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"campusdate/backend/internal/pool"
)

// Dispatcher 将事件异步分发给所有 Sink
//
// 发布方不会被慢速投递阻塞：队列满时事件被丢弃并记录日志。
type Dispatcher struct {
	pool   *pool.WorkerPool
	logger *zap.Logger

	mu    sync.RWMutex
	sinks []Sink

	onDrop func(Event)
}

// NewDispatcher 创建分发器
func NewDispatcher(workers *pool.WorkerPool, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		pool:   workers,
		logger: logger,
	}
}

// AddSink 注册投递目标
func (d *Dispatcher) AddSink(s Sink) {
	d.mu.Lock()
	d.sinks = append(d.sinks, s)
	d.mu.Unlock()
}

// OnDrop 设置事件被丢弃时的回调（用于指标）
func (d *Dispatcher) OnDrop(fn func(Event)) {
	d.onDrop = fn
}

// Publish 实现 Publisher
func (d *Dispatcher) Publish(_ context.Context, event Event) error {
	d.mu.RLock()
	sinks := append([]Sink(nil), d.sinks...)
	d.mu.RUnlock()

	if len(sinks) == 0 {
		return nil
	}

	ok := d.pool.TrySubmit(func() {
		for _, s := range sinks {
			s.Deliver(event)
		}
	})
	if !ok {
		d.logger.Warn("realtime event dropped",
			zap.String("table", event.Table),
			zap.String("record_id", event.RecordID),
		)
		if d.onDrop != nil {
			d.onDrop(event)
		}
	}
	return nil
}

// Deliver 实现 Sink，便于将外部来源（pg LISTEN、redis 订阅）接入分发器
func (d *Dispatcher) Deliver(event Event) {
	_ = d.Publish(context.Background(), event)
}

// MultiPublisher 依次发布到多个 Publisher，返回第一个错误
type MultiPublisher []Publisher

// Publish 实现 Publisher
func (m MultiPublisher) Publish(ctx context.Context, event Event) error {
	var firstErr error
	for _, p := range m {
		if err := p.Publish(ctx, event); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
