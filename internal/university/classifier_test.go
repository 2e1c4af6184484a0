package university

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	c := NewClassifier(nil)

	t.Run("没有@的输入返回格式错误", func(t *testing.T) {
		for _, input := range []string{"", "john", "   ", "student.mit.edu", "harvard.edu"} {
			result := c.Classify(input)
			assert.Equal(t, ValidationResult{
				IsValid:    false,
				Domain:     "",
				Confidence: ConfidenceHigh,
				Reason:     ReasonInvalidFormat,
			}, result, "input=%q", input)
		}
	})

	t.Run("@后为空返回格式错误", func(t *testing.T) {
		result := c.Classify("john@")
		assert.False(t, result.IsValid)
		assert.Equal(t, "", result.Domain)
		assert.Equal(t, ReasonInvalidFormat, result.Reason)
	})

	t.Run("美国高校域名高置信度", func(t *testing.T) {
		result := c.Classify("student@mit.edu")
		assert.True(t, result.IsValid)
		assert.Equal(t, ConfidenceHigh, result.Confidence)
		assert.Equal(t, "us", result.Country)
		assert.Equal(t, "mit.edu", result.Domain)
		assert.Equal(t, "Recognized US university domain", result.Reason)
	})

	t.Run("大小写和空白被规范化", func(t *testing.T) {
		result := c.Classify("  Student@MIT.EDU  ")
		assert.True(t, result.IsValid)
		assert.Equal(t, "mit.edu", result.Domain)
		assert.Equal(t, "us", result.Country)
	})

	t.Run("新加坡高校域名", func(t *testing.T) {
		result := c.Classify("x@nus.edu.sg")
		assert.True(t, result.IsValid)
		assert.Equal(t, ConfidenceHigh, result.Confidence)
		assert.Equal(t, "sg", result.Country)
	})

	t.Run("各地区后缀命中对应地区", func(t *testing.T) {
		cases := map[string]string{
			"a@ox.ac.uk":            "uk",
			"a@mail.utoronto.ca":    "ca",
			"a@student.unsw.edu.au": "au",
			"a@tudelft.nl":          "nl",
			"a@cs.auckland.ac.nz":   "nz",
			"a@u-tokyo.ac.jp":       "jp",
			"a@snu.ac.kr":           "kr",
			"a@rwth-aachen.de":      "de",
		}
		for email, country := range cases {
			result := c.Classify(email)
			assert.True(t, result.IsValid, email)
			assert.Equal(t, ConfidenceHigh, result.Confidence, email)
			assert.Equal(t, country, result.Country, email)
		}
	})

	t.Run("多个后缀可命中时按注册表顺序取第一个", func(t *testing.T) {
		// kit.edu 与 insead.edu 同时列在 de/fr，但 us 的 .edu 在前
		assert.Equal(t, "us", c.Classify("a@kit.edu").Country)
		assert.Equal(t, "us", c.Classify("a@insead.edu").Country)
	})

	t.Run("自定义注册表顺序决定结果", func(t *testing.T) {
		first := NewClassifier(NewRegistry([]Region{
			{Code: "aa", Suffixes: []string{"example.org"}},
			{Code: "bb", Suffixes: []string{".org"}},
		}, nil))
		second := NewClassifier(NewRegistry([]Region{
			{Code: "bb", Suffixes: []string{".org"}},
			{Code: "aa", Suffixes: []string{"example.org"}},
		}, nil))

		assert.Equal(t, "aa", first.Classify("x@example.org").Country)
		assert.Equal(t, "bb", second.Classify("x@example.org").Country)
	})

	t.Run("全局关键词中等置信度", func(t *testing.T) {
		result := c.Classify("someone@randomuniversity.org")
		assert.True(t, result.IsValid)
		assert.Equal(t, ConfidenceMedium, result.Confidence)
		assert.Empty(t, result.Country)
		assert.Contains(t, result.Reason, "university")
		assert.Equal(t, "Contains university keyword: university", result.Reason)
	})

	t.Run("教育类域名片段中等置信度", func(t *testing.T) {
		result := c.Classify("someone@cs.ac.in")
		assert.True(t, result.IsValid)
		assert.Equal(t, ConfidenceMedium, result.Confidence)
		assert.Equal(t, "Contains educational TLD: .ac.", result.Reason)

		result = c.Classify("someone@edu.example.edu.br")
		assert.True(t, result.IsValid)
		assert.Equal(t, "Contains educational TLD: .edu", result.Reason)
	})

	t.Run("普通邮箱无效", func(t *testing.T) {
		result := c.Classify("a@gmail.com")
		assert.False(t, result.IsValid)
		assert.Equal(t, ConfidenceHigh, result.Confidence)
		assert.Equal(t, "gmail.com", result.Domain)
		assert.Equal(t, ReasonNotRecognized, result.Reason)
	})

	t.Run("多个@时取第一个@之后的全部内容", func(t *testing.T) {
		result := c.Classify("a@b@mit.edu")
		assert.Equal(t, "b@mit.edu", result.Domain)
		assert.True(t, result.IsValid)
		assert.Equal(t, "us", result.Country)
	})

	t.Run("同一输入结果一致", func(t *testing.T) {
		for _, input := range []string{"student@mit.edu", "a@gmail.com", "x", "a@college.io"} {
			assert.Equal(t, c.Classify(input), c.Classify(input))
		}
	})
}

func TestValidationResultJSON(t *testing.T) {
	c := NewClassifier(nil)

	t.Run("注册表命中包含country", func(t *testing.T) {
		data, err := json.Marshal(c.Classify("student@mit.edu"))
		require.NoError(t, err)
		assert.JSONEq(t, `{"isValid":true,"domain":"mit.edu","confidence":"high","country":"us","reason":"Recognized US university domain"}`, string(data))
	})

	t.Run("未命中注册表时省略country", func(t *testing.T) {
		data, err := json.Marshal(c.Classify("a@gmail.com"))
		require.NoError(t, err)
		assert.NotContains(t, string(data), "country")
	})
}

func TestInstitutionInfo(t *testing.T) {
	c := NewClassifier(nil)

	t.Run("已知院校返回名称和国家", func(t *testing.T) {
		info, ok := c.InstitutionInfo("x@nus.edu.sg")
		require.True(t, ok)
		assert.Equal(t, &InstitutionInfo{Name: "National University of Singapore", Country: "Singapore"}, info)
	})

	t.Run("有效但不在映射中", func(t *testing.T) {
		info, ok := c.InstitutionInfo("x@yale.edu")
		assert.False(t, ok)
		assert.Nil(t, info)
	})

	t.Run("子域名不在映射中", func(t *testing.T) {
		_, ok := c.InstitutionInfo("x@cs.mit.edu")
		assert.False(t, ok)
	})

	t.Run("无效邮箱返回空", func(t *testing.T) {
		info, ok := c.InstitutionInfo("a@gmail.com")
		assert.False(t, ok)
		assert.Nil(t, info)
	})
}

func TestSuggestDomains(t *testing.T) {
	c := NewClassifier(nil)

	t.Run("没有@不给建议", func(t *testing.T) {
		assert.Empty(t, c.SuggestDomains("john"))
		assert.Empty(t, c.SuggestDomains(""))
	})

	t.Run("本地部分为空不给建议", func(t *testing.T) {
		assert.Empty(t, c.SuggestDomains("@mit.edu"))
	})

	t.Run("返回五个固定顺序的建议", func(t *testing.T) {
		expected := []string{
			"john@student.university.edu",
			"john@mail.university.edu",
			"john@alumni.university.edu",
			"john@university.ac.uk",
			"john@student.uni.edu",
		}
		assert.Equal(t, expected, c.SuggestDomains("john@"))
		assert.Equal(t, expected, c.SuggestDomains("john@"))
		assert.Equal(t, expected, c.SuggestDomains("john@har"))
	})

	t.Run("建议不依赖注册表", func(t *testing.T) {
		empty := NewClassifier(NewRegistry(nil, nil))
		assert.Len(t, empty.SuggestDomains("amy@"), 5)
	})
}

func TestNewRegistryCopiesInput(t *testing.T) {
	regions := []Region{{Code: "xx", Suffixes: []string{".xx"}}}
	keywords := []string{"academy"}
	r := NewRegistry(regions, keywords)

	regions[0].Suffixes[0] = ".yy"
	keywords[0] = "changed"

	assert.Equal(t, ".xx", r.Regions()[0].Suffixes[0])
	assert.Equal(t, []string{"academy"}, r.Keywords())
}

func TestDefaultRegistryOrder(t *testing.T) {
	codes := make([]string, 0)
	for _, region := range DefaultRegistry().Regions() {
		codes = append(codes, region.Code)
	}
	assert.Equal(t, []string{"us", "uk", "ca", "au", "de", "fr", "nl", "sg", "nz", "jp", "kr"}, codes)
}
