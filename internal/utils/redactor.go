package utils

import (
	"net/http"
	"strings"
)

// SensitiveKeywords 命中即视为敏感头部的名称关键字
// 流媒体站点的防盗链常走Cookie和签名头部,这两类也要脱敏
var SensitiveKeywords = []string{
	"authorization",
	"cookie",
	"token",
	"key",
	"secret",
	"password",
	"credential",
	"signature",
}

// HeaderRedactor 头部脱敏器
// 日志和--validate-config输出展示头部前,先经过这里
type HeaderRedactor struct {
	sensitiveKeywords []string
}

// NewHeaderRedactor 创建头部脱敏器
func NewHeaderRedactor() *HeaderRedactor {
	return &HeaderRedactor{sensitiveKeywords: SensitiveKeywords}
}

// IsSensitiveHeader 按名称关键字判断头部是否敏感
func (hr *HeaderRedactor) IsSensitiveHeader(name string) bool {
	nameLower := strings.ToLower(name)
	for _, keyword := range hr.sensitiveKeywords {
		if strings.Contains(nameLower, keyword) {
			return true
		}
	}
	return false
}

// RedactHeaderValue 脱敏单个头部值
// Bearer令牌只留方案名; 足够长的值留首尾各4位; 其余完全隐藏
func (hr *HeaderRedactor) RedactHeaderValue(name, value string) string {
	if !hr.IsSensitiveHeader(name) {
		return value
	}

	if strings.HasPrefix(value, "Bearer ") {
		return "Bearer ***"
	}

	if len(value) > 8 {
		return value[:4] + "***" + value[len(value)-4:]
	}

	return "***"
}

// Redact 对整个http.Header脱敏,返回可安全写日志的map
// 多值头部只取第一个值
func (hr *HeaderRedactor) Redact(headers http.Header) map[string]string {
	result := make(map[string]string, len(headers))
	for name, values := range headers {
		if len(values) == 0 {
			continue
		}
		result[name] = hr.RedactHeaderValue(name, values[0])
	}
	return result
}
