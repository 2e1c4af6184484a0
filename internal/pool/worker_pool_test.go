package pool

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkerPool(t *testing.T) {
	t.Run("执行所有已提交任务", func(t *testing.T) {
		p := NewWorkerPool("test", 4, 16, nil)
		p.Start(context.Background())

		var count atomic.Int32
		for i := 0; i < 10; i++ {
			require.NoError(t, p.Submit(context.Background(), func() { count.Add(1) }))
		}
		p.Stop()

		assert.Equal(t, int32(10), count.Load())
		assert.Equal(t, int64(10), p.Completed())
	})

	t.Run("任务panic不影响后续任务", func(t *testing.T) {
		p := NewWorkerPool("test", 1, 4, nil)
		p.Start(context.Background())

		var ran atomic.Bool
		require.NoError(t, p.Submit(context.Background(), func() { panic("boom") }))
		require.NoError(t, p.Submit(context.Background(), func() { ran.Store(true) }))
		p.Stop()

		assert.True(t, ran.Load())
		assert.Equal(t, int64(1), p.Panicked())
	})

	t.Run("停止后拒绝新任务", func(t *testing.T) {
		p := NewWorkerPool("test", 1, 1, nil)
		p.Start(context.Background())
		p.Stop()
		p.Stop()

		assert.False(t, p.TrySubmit(func() {}))
		assert.ErrorIs(t, p.Submit(context.Background(), func() {}), ErrPoolStopped)
	})

	t.Run("队列已满时TrySubmit返回false", func(t *testing.T) {
		p := NewWorkerPool("test", 1, 1, nil)
		// 未启动 worker，队列只能容纳一个任务
		assert.True(t, p.TrySubmit(func() {}))
		assert.False(t, p.TrySubmit(func() {}))
		assert.Equal(t, 1, p.QueueLength())
	})

	t.Run("队列已满时Submit随ctx超时返回", func(t *testing.T) {
		p := NewWorkerPool("test", 1, 0, nil)
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		err := p.Submit(ctx, func() {})
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}
