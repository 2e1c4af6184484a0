package domain

import "time"

// ReportStatus 举报处理状态
type ReportStatus string

const (
	ReportPending   ReportStatus = "pending"
	ReportReviewed  ReportStatus = "reviewed"
	ReportResolved  ReportStatus = "resolved"
	ReportDismissed ReportStatus = "dismissed"
)

// Report 用户举报
type Report struct {
	ID         string       `json:"id" gorm:"primaryKey;type:varchar(36)"`
	ReporterID string       `json:"reporterId" gorm:"type:varchar(36);not null;index"`
	ReportedID string       `json:"reportedId" gorm:"type:varchar(36);not null;index"`
	Reason     string       `json:"reason" gorm:"type:varchar(100);not null"`
	Details    string       `json:"details,omitempty" gorm:"type:text"`
	Status     ReportStatus `json:"status" gorm:"type:varchar(20);default:'pending';index"`
	CreatedAt  time.Time    `json:"createdAt"`
	UpdatedAt  time.Time    `json:"updatedAt"`
}
