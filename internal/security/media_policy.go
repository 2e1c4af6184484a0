package security

import (
	"errors"
	"mime"
	"net/url"
	"path"
	"strings"
)

// 媒体链接校验错误
var (
	ErrInvalidMediaURL  = errors.New("media url must be an absolute http(s) url")
	ErrDisallowedMedia  = errors.New("media type is not allowed")
	ErrDangerousFileExt = errors.New("file type is not allowed")
)

// MediaPolicy 校验资料照片与认证材料的链接
type MediaPolicy struct {
	// 允许的 MIME 前缀或完整类型
	allowed []string

	// 危险文件扩展名
	dangerousExtensions map[string]bool
}

// PhotoPolicy 资料照片只允许图片
func PhotoPolicy() *MediaPolicy {
	return newMediaPolicy("image/")
}

// DocumentPolicy 认证材料允许图片与 PDF
func DocumentPolicy() *MediaPolicy {
	return newMediaPolicy("image/", "application/pdf")
}

func newMediaPolicy(allowed ...string) *MediaPolicy {
	return &MediaPolicy{
		allowed: allowed,
		dangerousExtensions: map[string]bool{
			".exe": true, ".bat": true, ".cmd": true, ".scr": true,
			".com": true, ".vbs": true, ".js": true, ".jar": true,
			".php": true, ".html": true, ".htm": true, ".svg": true,
		},
	}
}

// CheckURL 校验链接
//
// 没有扩展名的链接（例如 CDN 签名地址）放行，由存储服务保证类型。
func (p *MediaPolicy) CheckURL(raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return ErrInvalidMediaURL
	}

	ext := strings.ToLower(path.Ext(u.Path))
	if ext == "" {
		return nil
	}
	if p.dangerousExtensions[ext] {
		return ErrDangerousFileExt
	}

	mimeType := mime.TypeByExtension(ext)
	if mimeType == "" {
		return ErrDisallowedMedia
	}
	mimeType, _, _ = strings.Cut(mimeType, ";")
	for _, allowed := range p.allowed {
		if strings.HasSuffix(allowed, "/") && strings.HasPrefix(mimeType, allowed) {
			return nil
		}
		if mimeType == allowed {
			return nil
		}
	}
	return ErrDisallowedMedia
}
