package domain

import "time"

// DashboardStats 管理后台概览
type DashboardStats struct {
	TotalUsers           int       `json:"totalUsers"`
	VerifiedUsers        int       `json:"verifiedUsers"`
	CompleteProfiles     int       `json:"completeProfiles"`
	PendingVerifications int       `json:"pendingVerifications"`
	FlaggedMessages      int       `json:"flaggedMessages"`
	OpenReports          int       `json:"openReports"`
	TotalConversations   int       `json:"totalConversations"`
	PendingRequests      int       `json:"pendingRequests"`
	GeneratedAt          time.Time `json:"generatedAt"`
}
