package httptransport

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"campusdate/backend/internal/auth"
	"campusdate/backend/internal/auth/jwt"
	"campusdate/backend/internal/domain"
	"campusdate/backend/internal/security"
	"campusdate/backend/internal/service"
	"campusdate/backend/internal/storage"
)

// errorStatus 业务错误到 HTTP 状态码的映射，按 errors.Is 顺序匹配
//
// 响应消息直接使用错误文本，客户端原样展示。
var errorStatus = []struct {
	err    error
	status int
}{
	// 认证
	{auth.ErrNotUniversityEmail, http.StatusUnprocessableEntity},
	{auth.ErrEmailExists, http.StatusConflict},
	{auth.ErrUserNotFound, http.StatusNotFound},
	{auth.ErrInvalidCredentials, http.StatusUnauthorized},
	{auth.ErrUserInactive, http.StatusForbidden},
	{auth.ErrTokenRevoked, http.StatusUnauthorized},
	{auth.ErrInvalidOldPassword, http.StatusBadRequest},
	{jwt.ErrInvalidToken, http.StatusUnauthorized},
	{jwt.ErrExpiredToken, http.StatusUnauthorized},
	{jwt.ErrWrongTokenType, http.StatusUnauthorized},

	// 消息请求
	{storage.ErrSelfRequest, http.StatusBadRequest},
	{storage.ErrEmptyContent, http.StatusBadRequest},
	{storage.ErrConversationExists, http.StatusConflict},
	{storage.ErrRequestExists, http.StatusConflict},
	{storage.ErrSenderBlocked, http.StatusForbidden},
	{storage.ErrRequestNotFound, http.StatusNotFound},
	{storage.ErrNotRecipient, http.StatusForbidden},
	{storage.ErrRequestNotPending, http.StatusConflict},
	{service.ErrRequestInFlight, http.StatusConflict},

	// 资源
	{storage.ErrUserNotFound, http.StatusNotFound},
	{storage.ErrUserExists, http.StatusConflict},
	{storage.ErrProfileNotFound, http.StatusNotFound},
	{storage.ErrProfileExists, http.StatusConflict},
	{storage.ErrMatchNotFound, http.StatusNotFound},
	{storage.ErrAlreadySwiped, http.StatusConflict},
	{storage.ErrConversationNotFound, http.StatusNotFound},
	{storage.ErrMessageNotFound, http.StatusNotFound},
	{storage.ErrBlockNotFound, http.StatusNotFound},
	{storage.ErrReportNotFound, http.StatusNotFound},
	{storage.ErrVerificationNotFound, http.StatusNotFound},
	{storage.ErrVerificationPending, http.StatusConflict},
	{storage.ErrMessageLogNotFound, http.StatusNotFound},

	// 业务规则
	{service.ErrSelfAction, http.StatusBadRequest},
	{service.ErrNotParticipant, http.StatusForbidden},
	{service.ErrUserBlocked, http.StatusForbidden},
	{service.ErrVerificationReviewed, http.StatusConflict},
	{service.ErrInvalidReportStatus, http.StatusBadRequest},
	{service.ErrFlagReasonRequired, http.StatusBadRequest},
	{service.ErrCannotModifySelf, http.StatusForbidden},
	{service.ErrCannotModifySuper, http.StatusForbidden},

	// 媒体链接
	{security.ErrInvalidMediaURL, http.StatusBadRequest},
	{security.ErrDisallowedMedia, http.StatusBadRequest},
	{security.ErrDangerousFileExt, http.StatusBadRequest},
}

// validationErrors 字段校验错误，统一 400
var validationErrors = []error{
	domain.ErrInvalidEmail,
	domain.ErrEmailTooLong,
	domain.ErrPasswordTooShort,
	domain.ErrPasswordTooLong,
	domain.ErrDisplayNameRequired,
	domain.ErrDisplayNameTooLong,
	domain.ErrBioTooLong,
	domain.ErrUnderage,
	domain.ErrInvalidGender,
	domain.ErrInvalidGoal,
	domain.ErrTooManyPhotos,
	domain.ErrTooManyInterests,
	domain.ErrEmptyMessage,
	domain.ErrMessageTooLong,
	domain.ErrInvalidYearOfStudy,
	domain.ErrReportReasonRequired,
	domain.ErrInvalidVerification,
	domain.ErrDocumentURLRequired,
	domain.ErrRejectReasonRequired,
}

// StatusFor 返回错误对应的状态码与消息，未知错误返回 false
func StatusFor(err error) (int, string, bool) {
	for _, m := range errorStatus {
		if errors.Is(err, m.err) {
			return m.status, m.err.Error(), true
		}
	}
	for _, v := range validationErrors {
		if errors.Is(err, v) {
			return http.StatusBadRequest, v.Error(), true
		}
	}
	return http.StatusInternalServerError, MsgInternalError, false
}

// Fail 按错误类型写入响应，未知错误记录日志并返回 500
func Fail(c *gin.Context, log *zap.Logger, err error) {
	status, msg, known := StatusFor(err)
	if !known {
		log.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err))
		_ = c.Error(err)
	}
	Error(c, status, msg)
}

// 通用错误消息
const (
	MsgInvalidRequest = "请求参数格式错误"
	MsgInvalidQuery   = "查询参数无效"
	MsgAuthRequired   = "需要登录认证"
	MsgInternalError  = "服务器内部错误，请稍后重试"
)
