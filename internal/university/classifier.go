package university

import (
	"fmt"
	"strings"
)

// Confidence 分类置信度
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// 分类原因文本（客户端直接展示）
const (
	ReasonInvalidFormat = "Invalid email format"
	ReasonNotRecognized = "Not recognized as a university email domain"
	reasonRegionFormat  = "Recognized %s university domain"
	reasonKeywordFormat = "Contains university keyword: %s"
	reasonEduTLDFormat  = "Contains educational TLD: %s"
)

// educationTLDs 通用教育类域名片段，按顺序匹配
var educationTLDs = []string{".edu", ".ac.", ".edu."}

// popularDomains 自动补全使用的常见高校域名，与注册表无关
var popularDomains = []string{
	"student.university.edu",
	"mail.university.edu",
	"alumni.university.edu",
	"university.ac.uk",
	"student.uni.edu",
}

// ValidationResult 邮箱分类结果
type ValidationResult struct {
	IsValid    bool       `json:"isValid"`
	Domain     string     `json:"domain"`
	Confidence Confidence `json:"confidence"`
	Country    string     `json:"country,omitempty"`
	Reason     string     `json:"reason"`
}

// InstitutionInfo 院校信息
type InstitutionInfo struct {
	Name    string `json:"name"`
	Country string `json:"country"`
}

// defaultInstitutions 已知院校映射（尽力而为的补充信息）
var defaultInstitutions = map[string]InstitutionInfo{
	"harvard.edu":  {Name: "Harvard University", Country: "United States"},
	"mit.edu":      {Name: "Massachusetts Institute of Technology", Country: "United States"},
	"stanford.edu": {Name: "Stanford University", Country: "United States"},
	"ox.ac.uk":     {Name: "University of Oxford", Country: "United Kingdom"},
	"cam.ac.uk":    {Name: "University of Cambridge", Country: "United Kingdom"},
	"nus.edu.sg":   {Name: "National University of Singapore", Country: "Singapore"},
}

// Classifier 高校邮箱分类器
//
// 无内部可变状态，可并发调用。
type Classifier struct {
	registry     *Registry
	institutions map[string]InstitutionInfo
}

// NewClassifier 创建分类器，registry 为 nil 时使用默认注册表
func NewClassifier(registry *Registry) *Classifier {
	if registry == nil {
		registry = DefaultRegistry()
	}
	return &Classifier{
		registry:     registry,
		institutions: defaultInstitutions,
	}
}

// Classify 判断邮箱是否属于高校
func (c *Classifier) Classify(email string) ValidationResult {
	normalized := strings.TrimSpace(strings.ToLower(email))

	_, domain, found := strings.Cut(normalized, "@")
	if !found || domain == "" {
		return ValidationResult{
			IsValid:    false,
			Domain:     "",
			Confidence: ConfidenceHigh,
			Reason:     ReasonInvalidFormat,
		}
	}

	// 先地区、后列表顺序，首个命中即返回
	for _, region := range c.registry.regions {
		for _, suffix := range region.Suffixes {
			if domain == suffix || strings.HasSuffix(domain, suffix) {
				return ValidationResult{
					IsValid:    true,
					Domain:     domain,
					Confidence: ConfidenceHigh,
					Country:    region.Code,
					Reason:     fmt.Sprintf(reasonRegionFormat, strings.ToUpper(region.Code)),
				}
			}
		}
	}

	for _, keyword := range c.registry.keywords {
		if strings.Contains(domain, keyword) {
			return ValidationResult{
				IsValid:    true,
				Domain:     domain,
				Confidence: ConfidenceMedium,
				Reason:     fmt.Sprintf(reasonKeywordFormat, keyword),
			}
		}
	}

	for _, tld := range educationTLDs {
		if strings.Contains(domain, tld) {
			return ValidationResult{
				IsValid:    true,
				Domain:     domain,
				Confidence: ConfidenceMedium,
				Reason:     fmt.Sprintf(reasonEduTLDFormat, tld),
			}
		}
	}

	return ValidationResult{
		IsValid:    false,
		Domain:     domain,
		Confidence: ConfidenceHigh,
		Reason:     ReasonNotRecognized,
	}
}

// InstitutionInfo 获取邮箱对应的院校信息
//
// 邮箱无效或域名不在已知映射中时返回 false。
func (c *Classifier) InstitutionInfo(email string) (*InstitutionInfo, bool) {
	result := c.Classify(email)
	if !result.IsValid {
		return nil, false
	}
	info, ok := c.institutions[result.Domain]
	if !ok {
		return nil, false
	}
	return &info, true
}

// SuggestDomains 根据已输入的本地部分生成邮箱补全建议
func (c *Classifier) SuggestDomains(partial string) []string {
	localPart, _, found := strings.Cut(partial, "@")
	if !found || localPart == "" {
		return []string{}
	}

	suggestions := make([]string, 0, len(popularDomains))
	for _, d := range popularDomains {
		suggestions = append(suggestions, localPart+"@"+d)
	}
	return suggestions
}
