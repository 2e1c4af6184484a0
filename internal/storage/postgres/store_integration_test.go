//go:build integration

package postgres

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"campusdate/backend/internal/config"
	"campusdate/backend/internal/domain"
	"campusdate/backend/internal/realtime"
	"campusdate/backend/internal/storage"
)

// startPostgres 启动临时 PostgreSQL 容器并返回 DSN
func startPostgres(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("campusdate"),
		tcpostgres.WithUsername("campus"),
		tcpostgres.WithPassword("campus"),
		tcpostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = testcontainers.TerminateContainer(container) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	return dsn
}

func newIntegrationStore(t *testing.T, cooldown time.Duration) (*Store, string) {
	t.Helper()
	dsn := startPostgres(t)
	store, err := NewStore(dsn, Options{Cooldown: cooldown, AutoMigrate: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store, dsn
}

func seedUser(t *testing.T, s *Store, email string) *domain.User {
	t.Helper()
	u := &domain.User{Email: email, PasswordHash: "x"}
	require.NoError(t, s.CreateUser(context.Background(), u))
	return u
}

func TestStoreMessageRequestLifecycle(t *testing.T) {
	store, _ := newIntegrationStore(t, 720*time.Hour)
	ctx := context.Background()

	alice := seedUser(t, store, "alice@mit.edu")
	bob := seedUser(t, store, "bob@mit.edu")
	carol := seedUser(t, store, "carol@mit.edu")

	t.Run("接受后建立会话并写入首条消息", func(t *testing.T) {
		req, err := store.CreateMessageRequest(ctx, alice.ID, bob.ID, "hi bob")
		require.NoError(t, err)

		_, err = store.CreateMessageRequest(ctx, alice.ID, bob.ID, "again")
		assert.ErrorIs(t, err, storage.ErrRequestExists)

		convID, err := store.AcceptMessageRequest(ctx, req.ID, bob.ID)
		require.NoError(t, err)

		msgs, err := store.ListMessages(ctx, convID, 50)
		require.NoError(t, err)
		require.Len(t, msgs, 1)
		assert.Equal(t, "hi bob", msgs[0].Content)
		assert.Equal(t, alice.ID, msgs[0].SenderID)

		logs, err := store.ListMessageLogs(ctx, domain.MessageLogFilter{})
		require.NoError(t, err)
		assert.Len(t, logs, 1)

		_, err = store.AcceptMessageRequest(ctx, req.ID, bob.ID)
		assert.ErrorIs(t, err, storage.ErrRequestNotPending)

		_, err = store.CreateMessageRequest(ctx, bob.ID, alice.ID, "hello")
		assert.ErrorIs(t, err, storage.ErrConversationExists)
	})

	t.Run("拒绝后进入冷却期", func(t *testing.T) {
		req, err := store.CreateMessageRequest(ctx, carol.ID, bob.ID, "hey")
		require.NoError(t, err)

		_, err = store.RejectMessageRequest(ctx, req.ID, alice.ID)
		assert.ErrorIs(t, err, storage.ErrNotRecipient)

		until, err := store.RejectMessageRequest(ctx, req.ID, bob.ID)
		require.NoError(t, err)
		require.NotNil(t, until)
		assert.WithinDuration(t, time.Now().Add(720*time.Hour), *until, time.Minute)

		_, err = store.CreateMessageRequest(ctx, carol.ID, bob.ID, "please")
		assert.ErrorIs(t, err, storage.ErrSenderBlocked)

		blocked, err := store.IsBlocked(ctx, bob.ID, carol.ID)
		require.NoError(t, err)
		assert.True(t, blocked)
	})

	t.Run("未知请求返回不存在", func(t *testing.T) {
		_, err := store.AcceptMessageRequest(ctx, "00000000-0000-0000-0000-000000000000", bob.ID)
		assert.ErrorIs(t, err, storage.ErrRequestNotFound)
	})
}

func TestStoreConcurrentAccept(t *testing.T) {
	store, _ := newIntegrationStore(t, 0)
	ctx := context.Background()

	alice := seedUser(t, store, "alice@ox.ac.uk")
	bob := seedUser(t, store, "bob@ox.ac.uk")

	req, err := store.CreateMessageRequest(ctx, alice.ID, bob.ID, "hi")
	require.NoError(t, err)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.AcceptMessageRequest(ctx, req.ID, bob.ID)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				successes++
			} else {
				assert.ErrorIs(t, err, storage.ErrRequestNotPending)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, successes)

	convs, err := store.ListConversations(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, convs, 1)

	msgs, err := store.ListMessages(ctx, convs[0].ID, 10)
	require.NoError(t, err)
	assert.Len(t, msgs, 1)
}

func TestStoreConcurrentSend(t *testing.T) {
	store, _ := newIntegrationStore(t, 0)
	ctx := context.Background()

	alice := seedUser(t, store, "alice@ucl.ac.uk")
	bob := seedUser(t, store, "bob@ucl.ac.uk")

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.CreateMessageRequest(ctx, alice.ID, bob.ID, "hi")
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				successes++
			} else {
				assert.ErrorIs(t, err, storage.ErrRequestExists)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, successes)

	pending, err := store.ListPendingMessageRequests(ctx, bob.ID)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestStoreRejectWithoutCooldown(t *testing.T) {
	store, _ := newIntegrationStore(t, 0)
	ctx := context.Background()

	alice := seedUser(t, store, "alice@nus.edu.sg")
	bob := seedUser(t, store, "bob@nus.edu.sg")

	req, err := store.CreateMessageRequest(ctx, alice.ID, bob.ID, "hi")
	require.NoError(t, err)

	until, err := store.RejectMessageRequest(ctx, req.ID, bob.ID)
	require.NoError(t, err)
	assert.Nil(t, until)

	_, err = store.CreateMessageRequest(ctx, alice.ID, bob.ID, "hi again")
	assert.NoError(t, err)
}

func TestListenerReceivesNotifications(t *testing.T) {
	store, dsn := newIntegrationStore(t, 0)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client, err := New(ctx, &config.DatabaseConfig{DSN: dsn, MaxOpenConns: 2}, nil)
	require.NoError(t, err)
	defer client.Close()

	received := make(chan realtime.Event, 8)
	listener := NewListener(client, realtime.SinkFunc(func(e realtime.Event) {
		received <- e
	}), nil)
	go func() { _ = listener.Run(ctx) }()

	notifier := NewNotifier(store.DB())

	// LISTEN 建立前发出的通知会丢失，先确认监听已就绪
	require.Eventually(t, func() bool {
		_ = notifier.Publish(ctx, realtime.NewEvent("ping", realtime.ActionInsert, "ping", nil))
		select {
		case <-received:
			return true
		case <-time.After(200 * time.Millisecond):
			return false
		}
	}, 10*time.Second, 100*time.Millisecond)

	store.SetPublisher(notifier)
	alice := seedUser(t, store, "alice@mit.edu")
	bob := seedUser(t, store, "bob@mit.edu")

	req, err := store.CreateMessageRequest(ctx, alice.ID, bob.ID, "hi")
	require.NoError(t, err)

	timeout := time.After(5 * time.Second)
	for {
		select {
		case e := <-received:
			if e.Table != realtime.TableMessageRequests {
				continue
			}
			assert.Equal(t, req.ID, e.RecordID)
			assert.Contains(t, e.UserIDs, bob.ID)
			return
		case <-timeout:
			t.Fatal("no notification received")
		}
	}
}
