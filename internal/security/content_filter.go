package security

import (
	"regexp"
	"strings"
)

// 命中多少个可疑关键词时标记
const spamThreshold = 2

// ContentFilter 聊天内容过滤器
//
// 只做标记，不拦截发送；标记结果写入消息审核日志供管理员复核。
type ContentFilter struct {
	// 恶意内容模式
	maliciousPatterns []*regexp.Regexp

	// 诈骗/引流关键词
	spamKeywords []string

	// 联系方式外泄
	contactPatterns []*regexp.Regexp
}

// NewContentFilter 创建内容过滤器
func NewContentFilter() *ContentFilter {
	return &ContentFilter{
		maliciousPatterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)<script[^>]*>`),
			regexp.MustCompile(`(?i)javascript:`),
			regexp.MustCompile(`(?i)on(load|error)\s*=`),
			regexp.MustCompile(`(?i)<iframe[^>]*>`),
		},
		spamKeywords: []string{
			"crypto", "bitcoin", "investment", "forex",
			"gift card", "cash app", "venmo me", "wire transfer",
			"free money", "click here", "sugar daddy", "onlyfans",
			"guaranteed", "act now",
		},
		contactPatterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(telegram|whatsapp|kik|snap(chat)?)\b.{0,20}[@:]`),
			regexp.MustCompile(`https?://(bit\.ly|tinyurl\.com|t\.me)/`),
		},
	}
}

// Scan 检查消息内容，返回是否需要标记以及原因
func (cf *ContentFilter) Scan(content string) (bool, string) {
	for _, pattern := range cf.maliciousPatterns {
		if pattern.MatchString(content) {
			return true, "malicious markup"
		}
	}

	lower := strings.ToLower(content)
	hits := make([]string, 0, spamThreshold)
	for _, keyword := range cf.spamKeywords {
		if strings.Contains(lower, keyword) {
			hits = append(hits, keyword)
		}
	}
	if len(hits) >= spamThreshold {
		return true, "possible scam: " + strings.Join(hits, ", ")
	}

	for _, pattern := range cf.contactPatterns {
		if pattern.MatchString(content) {
			return true, "off-platform contact solicitation"
		}
	}
	return false, ""
}
