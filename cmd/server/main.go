package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"campusdate/backend/internal/auth"
	"campusdate/backend/internal/config"
	"campusdate/backend/internal/health"
	"campusdate/backend/internal/logger"
	"campusdate/backend/internal/middleware"
	"campusdate/backend/internal/monitoring"
	"campusdate/backend/internal/pool"
	"campusdate/backend/internal/realtime"
	"campusdate/backend/internal/service"
	"campusdate/backend/internal/storage"
	"campusdate/backend/internal/storage/hybrid"
	"campusdate/backend/internal/storage/memory"
	"campusdate/backend/internal/storage/postgres"
	"campusdate/backend/internal/storage/redis"
	httptransport "campusdate/backend/internal/transport/http"
	"campusdate/backend/internal/university"
	"campusdate/backend/internal/websocket"
)

const version = "0.1.0"

// backend 组装好的存储层及其附属组件
type backend struct {
	store   storage.Store
	tasks   []func(ctx context.Context) error // 随服务运行的后台任务（LISTEN、redis 订阅）
	pg      *postgres.Client
	redis   *redis.Client
	closers []func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	if !cfg.Log.Development {
		gin.SetMode(gin.ReleaseMode)
	}

	log, err := logger.FromConfig(&cfg.Log)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting campusdate server",
		zap.String("version", version),
		zap.String("log_level", cfg.Log.Level),
		zap.Bool("development", cfg.Log.Development),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 实时事件：存储层 -> 分发器 -> websocket hub
	workers := pool.NewWorkerPool("realtime", cfg.Realtime.Workers, cfg.Realtime.QueueSize, log)
	dispatcher := realtime.NewDispatcher(workers, log)

	be, err := initializeStorage(ctx, cfg, dispatcher, log)
	if err != nil {
		log.Fatal("failed to initialize storage", zap.Error(err))
	}
	defer be.close()
	store := be.store

	metrics := monitoring.NewMetrics()
	dispatcher.OnDrop(func(e realtime.Event) {
		metrics.RecordEventDropped(e.Table)
	})

	// 服务层
	classifier := university.NewClassifier(university.DefaultRegistry())
	authService := auth.NewService(store, store, classifier, auth.NewJWTManager(&cfg.JWT), log)
	profileService := service.NewProfileService(store, log)
	matchService := service.NewMatchService(store, log)
	chatService := service.NewChatService(store, log)
	requestService := service.NewMessageRequestService(store, log)
	safetyService := service.NewSafetyService(store, log)
	verificationService := service.NewVerificationService(store, log)
	adminService := service.NewAdminService(store, log)
	defer adminService.Close()

	log.Info("JWT configuration",
		zap.String("issuer", cfg.JWT.Issuer),
		zap.Duration("access_expiry", cfg.JWT.AccessExpiry),
		zap.Duration("refresh_expiry", cfg.JWT.RefreshExpiry),
	)

	wsHub := websocket.NewHub(cfg.CORS.AllowedOrigins, authService, log)
	dispatcher.AddSink(wsHub)

	// 健康检查：管理后台报告 + 探针
	monitor := monitoring.NewHealthChecker(metrics, log, version, environment(cfg))
	healthChecker := health.NewHealthChecker(log)
	monitor.AddDependency("storage", true, store.Health)
	healthChecker.AddDependency("storage", store.Health)
	if be.redis != nil {
		monitor.AddDependency("redis", false, be.redis.Ping)
		healthChecker.AddDependency("redis", be.redis.Ping)
	}
	monitor.AddGauge(func(m *monitoring.Metrics) {
		m.UpdateWebsocketClients(wsHub.ConnectedUsers())
	})
	if be.pg != nil {
		pg := be.pg
		monitor.AddGauge(func(m *monitoring.Metrics) {
			m.UpdateDatabaseConnections(int(pg.Stats().AcquiredConns()))
		})
	}

	ipLimiter, sendLimiter, limiterTasks := initializeLimiters(cfg, be, log)

	router := httptransport.NewRouter(httptransport.RouterDependencies{
		Config:                cfg,
		AuthService:           authService,
		Classifier:            classifier,
		ProfileService:        profileService,
		MatchService:          matchService,
		ChatService:           chatService,
		MessageRequestService: requestService,
		SafetyService:         safetyService,
		VerificationService:   verificationService,
		AdminService:          adminService,
		WebSocketHub:          wsHub,
		Metrics:               metrics,
		Monitor:               monitor,
		Health:                healthChecker,
		IPLimiter:             ipLimiter,
		SendLimiter:           sendLimiter,
		Logger:                log,
	})

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	group, groupCtx := errgroup.WithContext(ctx)

	workers.Start(groupCtx)

	// HTTP 服务器
	group.Go(func() error {
		log.Info("starting HTTP server", zap.String("address", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", zap.Error(err))
			return err
		}
		return nil
	})

	// WebSocket Hub
	group.Go(func() error {
		log.Info("starting WebSocket hub")
		wsHub.Run(groupCtx)
		return nil
	})

	// 存储层后台任务
	for _, task := range be.tasks {
		group.Go(func() error {
			if err := task(groupCtx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("storage background task failed", zap.Error(err))
				return err
			}
			return nil
		})
	}

	for _, task := range limiterTasks {
		group.Go(func() error {
			task(groupCtx)
			return nil
		})
	}

	// 定时清理过期屏蔽
	group.Go(func() error {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()

		log.Info("starting expired block cleanup task", zap.Duration("interval", time.Hour))

		for {
			select {
			case <-groupCtx.Done():
				log.Info("cleanup task stopped")
				return nil
			case <-ticker.C:
				count, err := store.DeleteExpiredBlocks(groupCtx, time.Now().UTC())
				if err != nil {
					log.Error("failed to cleanup expired blocks", zap.Error(err))
				} else if count > 0 {
					log.Info("expired blocks cleaned up", zap.Int("count", count))
				}
			}
		}
	})

	// 监控
	group.Go(func() error {
		log.Info("starting monitoring services")
		monitor.Run(groupCtx, 30*time.Second)
		return nil
	})

	// 优雅关闭
	group.Go(func() error {
		<-groupCtx.Done()
		log.Info("shutdown signal received, gracefully shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error("HTTP server shutdown error", zap.Error(err))
		}
		workers.Stop()

		log.Info("servers stopped")
		return nil
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("server error", zap.Error(err))
		return
	}

	log.Info("server exited cleanly")
}

// initializeStorage 按配置选择存储实现并接好变更事件的发布路径
//
//   - 未配置数据库：内存存储，事件直接进入分发器
//   - PostgreSQL：pg_notify 发布，LISTEN 连接接收后交给分发器，多实例共享
//   - MySQL：单实例，事件直接进入分发器
//   - 启用 Redis：混合存储，事件经 Redis Pub/Sub 在实例间广播
func initializeStorage(ctx context.Context, cfg *config.Config, dispatcher *realtime.Dispatcher, log *zap.Logger) (*backend, error) {
	if cfg.Database.Type == "" || cfg.Database.Type == "memory" || cfg.Database.DSN == "" {
		store := memory.NewStore(cfg.MessageRequest.Cooldown)
		store.SetPublisher(dispatcher)
		log.Info("using memory storage (development mode)", zap.Duration("cooldown", cfg.MessageRequest.Cooldown))
		return &backend{store: store, closers: []func(){func() { _ = store.Close() }}}, nil
	}

	log.Info("initializing database storage",
		zap.String("database_type", cfg.Database.Type),
		zap.Bool("redis_enabled", cfg.Redis.Enabled),
	)

	opts := postgres.Options{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		Cooldown:        cfg.MessageRequest.Cooldown,
		AutoMigrate:     true,
	}

	var (
		sqlStore *postgres.Store
		err      error
	)
	switch cfg.Database.Type {
	case "mysql":
		sqlStore, err = postgres.NewMySQLStore(cfg.Database.DSN, opts)
	default:
		sqlStore, err = postgres.NewStore(cfg.Database.DSN, opts)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create sql store: %w", err)
	}

	be := &backend{closers: []func(){func() { _ = sqlStore.Close() }}}

	if cfg.Database.Type == "postgres" {
		pg, err := postgres.New(ctx, &cfg.Database, log)
		if err != nil {
			be.close()
			return nil, err
		}
		be.pg = pg
		be.closers = append(be.closers, pg.Close)
	}

	if cfg.Redis.Enabled {
		client, err := redis.New(ctx, &cfg.Redis, log)
		if err != nil {
			be.close()
			return nil, err
		}
		be.redis = client
		be.closers = append(be.closers, func() { _ = client.Close() })

		bus := redis.NewBus(client, redis.DefaultBusChannel, log)
		sqlStore.SetPublisher(bus)
		be.tasks = append(be.tasks, func(ctx context.Context) error {
			return bus.Subscribe(ctx, dispatcher)
		})
		be.store = hybrid.NewStore(sqlStore, client, log)
		log.Info("database storage initialized with redis cache")
		return be, nil
	}

	if be.pg != nil {
		sqlStore.SetPublisher(postgres.NewNotifier(sqlStore.DB()))
		listener := postgres.NewListener(be.pg, dispatcher, log)
		be.tasks = append(be.tasks, listener.Run)
	} else {
		sqlStore.SetPublisher(dispatcher)
	}
	be.store = sqlStore

	log.Info("database storage initialized successfully",
		zap.String("database_type", cfg.Database.Type),
	)
	return be, nil
}

// initializeLimiters 公开接口按 IP 限流（有 Redis 时多实例共享计数），发送消息请求按用户令牌桶限流
func initializeLimiters(cfg *config.Config, be *backend, log *zap.Logger) (middleware.Limiter, middleware.Limiter, []func(context.Context)) {
	sendLimiter := middleware.NewLocalLimiter(cfg.MessageRequest.SendRatePerMinute, cfg.MessageRequest.SendBurst)
	tasks := []func(context.Context){sendLimiter.Run}

	if be.redis != nil {
		counter := redis.NewCache(be.redis, "campusdate")
		log.Info("using redis rate limiter", zap.Int("per_ip_per_minute", cfg.RateLimit.PerIPPerMinute))
		return middleware.NewCounterLimiter(counter, cfg.RateLimit.PerIPPerMinute, time.Minute), sendLimiter, tasks
	}

	ipLimiter := middleware.NewLocalLimiter(cfg.RateLimit.PerIPPerMinute, cfg.RateLimit.PerIPBurst)
	return ipLimiter, sendLimiter, append(tasks, ipLimiter.Run)
}

func (b *backend) close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

func environment(cfg *config.Config) string {
	if cfg.Log.Development {
		return "development"
	}
	return "production"
}
