package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContentFilter_Scan(t *testing.T) {
	cf := NewContentFilter()

	tests := []struct {
		name    string
		content string
		flagged bool
	}{
		{"普通消息", "hey, want to grab coffee after the lecture?", false},
		{"单个关键词不标记", "my econ class covers investment theory", false},
		{"多个诈骗关键词", "I can teach you crypto investment, guaranteed returns", true},
		{"脚本注入", `<script>alert(1)</script>`, true},
		{"引流到站外", "add me on telegram: @bestdeals", true},
		{"短链接", "look https://bit.ly/abc", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flagged, reason := cf.Scan(tt.content)
			assert.Equal(t, tt.flagged, flagged)
			if tt.flagged {
				assert.NotEmpty(t, reason)
			}
		})
	}
}

func TestMediaPolicy_CheckURL(t *testing.T) {
	photos := PhotoPolicy()
	docs := DocumentPolicy()

	assert.NoError(t, photos.CheckURL("https://cdn.example.com/a.jpg"))
	assert.NoError(t, photos.CheckURL("https://cdn.example.com/u/123?sig=abc"))
	assert.ErrorIs(t, photos.CheckURL("ftp://cdn.example.com/a.jpg"), ErrInvalidMediaURL)
	assert.ErrorIs(t, photos.CheckURL("/relative/a.jpg"), ErrInvalidMediaURL)
	assert.ErrorIs(t, photos.CheckURL("https://cdn.example.com/a.exe"), ErrDangerousFileExt)
	assert.ErrorIs(t, photos.CheckURL("https://cdn.example.com/a.pdf"), ErrDisallowedMedia)

	assert.NoError(t, docs.CheckURL("https://cdn.example.com/id.pdf"))
	assert.NoError(t, docs.CheckURL("https://cdn.example.com/id.png"))
}
