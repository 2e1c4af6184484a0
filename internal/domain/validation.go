package domain

import (
	"errors"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// 验证相关的错误定义
var (
	ErrInvalidEmail         = errors.New("invalid email format")
	ErrEmailTooLong         = errors.New("email address too long")
	ErrPasswordTooShort     = errors.New("password too short (min 8 chars)")
	ErrPasswordTooLong      = errors.New("password too long (max 128 chars)")
	ErrDisplayNameRequired  = errors.New("display name is required")
	ErrDisplayNameTooLong   = errors.New("display name too long (max 50 chars)")
	ErrBioTooLong           = errors.New("bio too long (max 500 chars)")
	ErrUnderage             = errors.New("you must be at least 18 years old")
	ErrInvalidGender        = errors.New("invalid gender")
	ErrInvalidGoal          = errors.New("invalid relationship goal")
	ErrTooManyPhotos        = errors.New("too many photos (max 6)")
	ErrTooManyInterests     = errors.New("too many interests (max 6)")
	ErrEmptyMessage         = errors.New("message content is required")
	ErrMessageTooLong       = errors.New("message too long (max 2000 chars)")
	ErrInvalidYearOfStudy   = errors.New("invalid year of study")
	ErrReportReasonRequired = errors.New("report reason is required")
	ErrInvalidVerification  = errors.New("invalid verification type")
	ErrDocumentURLRequired  = errors.New("document url is required")
	ErrRejectReasonRequired = errors.New("rejection reason is required")
)

// 验证常量
const (
	MaxEmailLength       = 254
	MinPasswordLength    = 8
	MaxPasswordLength    = 128
	MaxDisplayNameLength = 50
	MaxBioLength         = 500
	MaxMessageLength     = 2000
	MaxPhotos            = 6
	MaxInterests         = 6
	MinAge               = 18
	MaxYearOfStudy       = 10
)

// ValidateEmailFormat 基础邮箱格式校验（高校域名判断由 university 包负责）
func ValidateEmailFormat(email string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	if len(email) > MaxEmailLength {
		return ErrEmailTooLong
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return ErrInvalidEmail
	}
	return nil
}

// ValidatePassword 验证密码长度
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	if len(password) > MaxPasswordLength {
		return ErrPasswordTooLong
	}
	return nil
}

// ValidateDisplayName 验证昵称
func ValidateDisplayName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrDisplayNameRequired
	}
	if utf8.RuneCountInString(name) > MaxDisplayNameLength {
		return ErrDisplayNameTooLong
	}
	return nil
}

// ValidateBirthDate 验证年龄不小于 MinAge
func ValidateBirthDate(birth time.Time, now time.Time) error {
	p := Profile{BirthDate: &birth}
	if p.Age(now) < MinAge {
		return ErrUnderage
	}
	return nil
}

// ValidateMessageContent 验证消息内容（1-2000 字符）
func ValidateMessageContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return ErrEmptyMessage
	}
	if utf8.RuneCountInString(content) > MaxMessageLength {
		return ErrMessageTooLong
	}
	return nil
}

// Validate 校验资料字段
func (p *Profile) Validate(now time.Time) error {
	if err := ValidateDisplayName(p.DisplayName); err != nil {
		return err
	}
	if p.BirthDate != nil {
		if err := ValidateBirthDate(*p.BirthDate, now); err != nil {
			return err
		}
	}
	if p.Gender != "" && !p.Gender.Valid() {
		return ErrInvalidGender
	}
	for _, g := range p.LookingForGender {
		if !g.Valid() {
			return ErrInvalidGender
		}
	}
	if !p.RelationshipGoal.Valid() {
		return ErrInvalidGoal
	}
	if utf8.RuneCountInString(p.Bio) > MaxBioLength {
		return ErrBioTooLong
	}
	if len(p.Photos) > MaxPhotos {
		return ErrTooManyPhotos
	}
	if len(p.Interests) > MaxInterests {
		return ErrTooManyInterests
	}
	if p.YearOfStudy < 0 || p.YearOfStudy > MaxYearOfStudy {
		return ErrInvalidYearOfStudy
	}
	return nil
}

var interestFolder = cases.Fold()

// NormalizeInterests 规范化兴趣标签：NFKC、去首尾空白、大小写折叠后去重
//
// 保留首次出现时的原始写法（规范化后），顺序不变。
func NormalizeInterests(interests []string) []string {
	seen := make(map[string]struct{}, len(interests))
	out := make([]string, 0, len(interests))
	for _, raw := range interests {
		v := strings.TrimSpace(norm.NFKC.String(raw))
		if v == "" {
			continue
		}
		key := interestFolder.String(v)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, v)
	}
	return out
}
