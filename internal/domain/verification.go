package domain

import "time"

// VerificationType 认证材料类型
type VerificationType string

const (
	VerificationStudentID    VerificationType = "student_id"
	VerificationGovernmentID VerificationType = "government_id"
	VerificationSelfie       VerificationType = "selfie"
)

// Valid 判断认证类型是否合法
func (t VerificationType) Valid() bool {
	switch t {
	case VerificationStudentID, VerificationGovernmentID, VerificationSelfie:
		return true
	}
	return false
}

// VerificationStatus 认证审核状态
type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "pending"
	VerificationApproved VerificationStatus = "approved"
	VerificationRejected VerificationStatus = "rejected"
	VerificationExpired  VerificationStatus = "expired"
)

// Verification 用户身份认证申请
type Verification struct {
	ID              string             `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID          string             `json:"userId" gorm:"type:varchar(36);not null;index"`
	Type            VerificationType   `json:"verificationType" gorm:"type:varchar(30);not null"`
	DocumentURL     string             `json:"documentUrl" gorm:"type:text;not null"`
	Status          VerificationStatus `json:"status" gorm:"type:varchar(20);default:'pending';index"`
	RejectionReason string             `json:"rejectionReason,omitempty" gorm:"type:text"`
	ReviewedBy      *string            `json:"reviewedBy,omitempty" gorm:"type:varchar(36)"`
	ReviewedAt      *time.Time         `json:"reviewedAt,omitempty"`
	CreatedAt       time.Time          `json:"createdAt"`
	UpdatedAt       time.Time          `json:"updatedAt"`
}

// TableName 表名
func (Verification) TableName() string {
	return "user_verifications"
}
