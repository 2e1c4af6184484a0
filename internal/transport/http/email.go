package httptransport

import (
	"github.com/gin-gonic/gin"

	"campusdate/backend/internal/university"
)

type validateEmailRequest struct {
	Email string `json:"email"`
}

type validateEmailResponse struct {
	university.ValidationResult
	Institution *university.InstitutionInfo `json:"institution,omitempty"`
}

// validateEmail 判断邮箱是否为高校邮箱
// @Summary 高校邮箱校验
// @Tags Email
// @Accept json
// @Produce json
// @Success 200 {object} validateEmailResponse
// @Router /api/v1/email/validate [post]
func (h *Handler) validateEmail(c *gin.Context) {
	var req validateEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, MsgInvalidRequest)
		return
	}

	result := h.classifier.Classify(req.Email)
	if h.metrics != nil {
		h.metrics.RecordEmailClassification(string(result.Confidence), result.IsValid)
	}

	resp := validateEmailResponse{ValidationResult: result}
	if info, ok := h.classifier.InstitutionInfo(req.Email); ok {
		resp.Institution = info
	}
	Success(c, resp)
}

// suggestDomains 邮箱自动补全
func (h *Handler) suggestDomains(c *gin.Context) {
	Success(c, gin.H{"suggestions": h.classifier.SuggestDomains(c.Query("email"))})
}
