package httptransport

import (
	"net/http"
	"time"

	gincors "github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"campusdate/backend/internal/auth"
	"campusdate/backend/internal/config"
	"campusdate/backend/internal/health"
	"campusdate/backend/internal/middleware"
	"campusdate/backend/internal/monitoring"
	"campusdate/backend/internal/service"
	"campusdate/backend/internal/university"
	"campusdate/backend/internal/websocket"
)

// RouterDependencies 路由器依赖项
type RouterDependencies struct {
	Config                *config.Config
	AuthService           *auth.Service
	Classifier            *university.Classifier
	ProfileService        *service.ProfileService
	MatchService          *service.MatchService
	ChatService           *service.ChatService
	MessageRequestService *service.MessageRequestService
	SafetyService         *service.SafetyService
	VerificationService   *service.VerificationService
	AdminService          *service.AdminService
	WebSocketHub          *websocket.Hub            // 可选
	Metrics               *monitoring.Metrics       // 可选
	Monitor               *monitoring.HealthChecker // 可选，管理后台健康报告
	Health                *health.HealthChecker     // 可选，存活/就绪探针
	IPLimiter             middleware.Limiter        // 公开接口按 IP 限流，nil 时使用进程内令牌桶
	SendLimiter           middleware.Limiter        // 发送消息请求按用户限流，nil 时使用进程内令牌桶
	Logger                *zap.Logger
}

// NewRouter 创建并返回 Gin 路由实例。
func NewRouter(deps RouterDependencies) *gin.Engine {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	cfg := deps.Config

	router := gin.New()

	if deps.Metrics != nil {
		mm := middleware.NewMonitoringMiddleware(deps.Metrics, log)
		router.Use(mm.PanicRecovery(), mm.HTTPMetrics(), mm.BusinessMetrics())
	} else {
		router.Use(gin.Recovery())
	}
	router.Use(middleware.RequestLogger(log))
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.BodySizeLimit(middleware.DefaultBodyLimit))

	corsConfig := gincors.Config{
		AllowOrigins:  cfg.CORS.AllowedOrigins,
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders: []string{"Content-Length", "Retry-After"},
		MaxAge:        12 * time.Hour,
	}
	// 允许所有来源时不能携带凭证
	corsConfig.AllowCredentials = true
	if len(corsConfig.AllowOrigins) == 0 {
		corsConfig.AllowOrigins = []string{"*"}
	}
	for _, origin := range corsConfig.AllowOrigins {
		if origin == "*" {
			corsConfig.AllowCredentials = false
			break
		}
	}
	router.Use(gincors.New(corsConfig))

	ipLimiter := deps.IPLimiter
	if ipLimiter == nil {
		ipLimiter = middleware.NewLocalLimiter(cfg.RateLimit.PerIPPerMinute, cfg.RateLimit.PerIPBurst)
	}
	sendLimiter := deps.SendLimiter
	if sendLimiter == nil {
		sendLimiter = middleware.NewLocalLimiter(cfg.MessageRequest.SendRatePerMinute, cfg.MessageRequest.SendBurst)
	}
	ipLimit := middleware.RateLimit(ipLimiter, middleware.KeyByIP, "ip", deps.Metrics, log)
	sendLimit := middleware.RateLimit(sendLimiter, middleware.KeyByUser, "message_request", deps.Metrics, log)

	classifier := deps.Classifier
	if classifier == nil {
		classifier = university.NewClassifier(nil)
	}
	handler := &Handler{
		classifier:    classifier,
		profiles:      deps.ProfileService,
		matches:       deps.MatchService,
		chat:          deps.ChatService,
		requests:      deps.MessageRequestService,
		safety:        deps.SafetyService,
		verifications: deps.VerificationService,
		metrics:       deps.Metrics,
		log:           log,
	}
	authHandler := NewAuthHandler(deps.AuthService, log)
	adminHandler := NewAdminHandler(deps.AdminService, deps.VerificationService, deps.Monitor, log)

	jwtAuth := middleware.NewJWTAuth(deps.AuthService, log)
	adminAuth := middleware.NewAdminAuth(deps.AuthService)
	requireAuth := jwtAuth.RequireAuth()

	// 健康检查与指标
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if deps.Health != nil {
		router.GET("/health/live", gin.WrapF(deps.Health.LiveHandler()))
		router.GET("/health/ready", gin.WrapF(deps.Health.ReadyHandler()))
	}
	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(deps.Metrics.HTTPHandler()))
	}
	if deps.WebSocketHub != nil {
		router.GET("/ws", websocket.HandleWebSocket(deps.WebSocketHub))
	}

	v1 := router.Group("/api/v1")
	v1.Use(middleware.ValidateContentType("application/json"))
	{
		// ========== Email（公开） ==========
		emailRoutes := v1.Group("/email", ipLimit)
		{
			emailRoutes.POST("/validate", handler.validateEmail)
			emailRoutes.GET("/suggestions", handler.suggestDomains)
		}

		// ========== Auth ==========
		authRoutes := v1.Group("/auth")
		{
			authRoutes.POST("/register", ipLimit, authHandler.Register)
			authRoutes.POST("/login", ipLimit, authHandler.Login)
			authRoutes.POST("/refresh", ipLimit, authHandler.Refresh)
			authRoutes.POST("/logout", requireAuth, authHandler.Logout)
			authRoutes.GET("/me", requireAuth, authHandler.Me)
			authRoutes.PUT("/password", requireAuth, authHandler.ChangePassword)
		}

		user := v1.Group("", requireAuth)
		{
			// 资料与推荐
			user.GET("/profile", handler.getMyProfile)
			user.POST("/profile", handler.createProfile)
			user.PUT("/profile", handler.updateProfile)
			user.GET("/profiles/:userId", handler.getProfile)
			user.GET("/discover", handler.discover)

			// 滑动与配对
			user.POST("/swipes", handler.swipe)
			user.GET("/matches", handler.listMatches)

			// 会话
			user.GET("/conversations", handler.listConversations)
			user.GET("/conversations/:id/messages", handler.listMessages)
			user.POST("/conversations/:id/messages", handler.sendMessage)
			user.POST("/conversations/:id/read", handler.markRead)

			// 消息请求
			user.POST("/message-requests", sendLimit, handler.sendRequest)
			user.GET("/message-requests/pending", handler.listPending)
			user.POST("/message-requests/:id/accept", handler.acceptRequest)
			user.POST("/message-requests/:id/reject", handler.rejectRequest)

			// 安全
			user.GET("/blocks", handler.listBlocked)
			user.POST("/blocks", handler.blockUser)
			user.DELETE("/blocks/:userId", handler.unblockUser)
			user.POST("/reports", handler.reportUser)

			// 身份认证
			user.GET("/verifications", handler.listMyVerifications)
			user.POST("/verifications", handler.submitVerification)
		}

		// ========== Admin Routes ==========
		adminRoutes := v1.Group("/admin", requireAuth, adminAuth.RequireAdmin())
		{
			adminRoutes.GET("/dashboard", adminHandler.Dashboard)
			adminRoutes.GET("/health", adminHandler.SystemHealth)

			adminRoutes.GET("/users", adminHandler.ListUsers)
			adminRoutes.GET("/users/:id", adminHandler.GetUser)
			adminRoutes.PATCH("/users/:id/status", adminHandler.SetUserActive)

			adminRoutes.GET("/verifications", adminHandler.ListVerifications)
			adminRoutes.POST("/verifications/:id/approve", adminHandler.ApproveVerification)
			adminRoutes.POST("/verifications/:id/reject", adminHandler.RejectVerification)

			adminRoutes.GET("/message-logs", adminHandler.ListMessageLogs)
			adminRoutes.POST("/message-logs/:id/flag", adminHandler.FlagMessage)
			adminRoutes.POST("/message-logs/:id/review", adminHandler.ReviewMessage)

			adminRoutes.GET("/reports", adminHandler.ListReports)
			adminRoutes.PATCH("/reports/:id", adminHandler.UpdateReport)

			adminRoutes.GET("/audit-logs", adminAuth.RequireSuper(), adminHandler.ListAuditLogs)
		}
	}

	return router
}
