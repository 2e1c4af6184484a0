package realtime

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campusdate/backend/internal/pool"
)

type recordingSink struct {
	mu     sync.Mutex
	events []Event
}

func (s *recordingSink) Deliver(e Event) {
	s.mu.Lock()
	s.events = append(s.events, e)
	s.mu.Unlock()
}

func (s *recordingSink) all() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Event(nil), s.events...)
}

func TestDispatcher(t *testing.T) {
	t.Run("事件投递到所有Sink", func(t *testing.T) {
		workers := pool.NewWorkerPool("realtime", 2, 8, nil)
		workers.Start(context.Background())

		d := NewDispatcher(workers, nil)
		a, b := &recordingSink{}, &recordingSink{}
		d.AddSink(a)
		d.AddSink(b)

		ev := NewEvent(TableMessages, ActionInsert, "m1", map[string]string{"content": "hi"}, "u1", "u2")
		require.NoError(t, d.Publish(context.Background(), ev))
		workers.Stop()

		require.Len(t, a.all(), 1)
		require.Len(t, b.all(), 1)
		assert.Equal(t, "m1", a.all()[0].RecordID)
		assert.JSONEq(t, `{"content":"hi"}`, string(a.all()[0].Payload))
	})

	t.Run("队列满时丢弃并回调", func(t *testing.T) {
		// 不启动 worker，队列容量为 1
		workers := pool.NewWorkerPool("realtime", 1, 1, nil)
		d := NewDispatcher(workers, nil)
		d.AddSink(&recordingSink{})

		dropped := 0
		d.OnDrop(func(Event) { dropped++ })

		require.NoError(t, d.Publish(context.Background(), Event{Table: TableMessages}))
		require.NoError(t, d.Publish(context.Background(), Event{Table: TableMessages}))
		assert.Equal(t, 1, dropped)
	})

	t.Run("没有Sink时直接返回", func(t *testing.T) {
		workers := pool.NewWorkerPool("realtime", 1, 0, nil)
		d := NewDispatcher(workers, nil)
		assert.NoError(t, d.Publish(context.Background(), Event{}))
		assert.Equal(t, 0, workers.QueueLength())
	})
}

type failingPublisher struct{ err error }

func (f failingPublisher) Publish(context.Context, Event) error { return f.err }

func TestMultiPublisher(t *testing.T) {
	boom := errors.New("boom")
	sink := &recordingSink{}
	workers := pool.NewWorkerPool("realtime", 1, 4, nil)
	workers.Start(context.Background())
	d := NewDispatcher(workers, nil)
	d.AddSink(sink)

	m := MultiPublisher{failingPublisher{err: boom}, d}
	err := m.Publish(context.Background(), Event{Table: TableMatches})
	workers.Stop()

	assert.ErrorIs(t, err, boom)
	assert.Len(t, sink.all(), 1)
}

func TestEventCodec(t *testing.T) {
	ev := NewEvent(TableMessageRequests, ActionUpdate, "r1", nil, "u1", "u1", "", "u2")
	assert.Equal(t, []string{"u1", "u2"}, ev.UserIDs)
	assert.Nil(t, ev.Payload)

	data, err := ev.Encode()
	require.NoError(t, err)
	decoded, err := DecodeEvent(data)
	require.NoError(t, err)
	assert.Equal(t, ev.Table, decoded.Table)
	assert.Equal(t, ev.UserIDs, decoded.UserIDs)
	assert.True(t, ev.At.Equal(decoded.At))
}
