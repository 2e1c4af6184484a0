package httptransport

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"campusdate/backend/internal/monitoring"
	"campusdate/backend/internal/service"
	"campusdate/backend/internal/university"
)

// Handler 聚合面向用户的 HTTP 处理逻辑
type Handler struct {
	classifier    *university.Classifier
	profiles      *service.ProfileService
	matches       *service.MatchService
	chat          *service.ChatService
	requests      *service.MessageRequestService
	safety        *service.SafetyService
	verifications *service.VerificationService
	metrics       *monitoring.Metrics
	log           *zap.Logger
}

// queryInt 读取整数查询参数，缺省或非法时返回 def
func queryInt(c *gin.Context, name string, def int) int {
	raw := c.Query(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

// queryBool 读取布尔查询参数，缺省时返回 nil
func queryBool(c *gin.Context, name string) (*bool, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, false
	}
	return &v, true
}
