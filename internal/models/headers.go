package models

import (
	"fmt"
	"net/http"
	"strings"
)

// HeaderConfig headers.yaml配置文件的结构
// 扫描器所有出站请求(页面抓取、清单验证、浏览器渲染)共用这组头部
type HeaderConfig struct {
	// Headers 自定义HTTP头部键值对
	// 键: 头部名称 (如 "User-Agent")
	// 值: 头部值 (如 "Mozilla/5.0...")
	Headers map[string]string `mapstructure:"headers" yaml:"headers"`
}

// CliHeaders 命令行传递的头部列表,每项格式为 "Name: Value"
type CliHeaders []string

// Parse 将字符串列表解析为 http.Header
func (ch CliHeaders) Parse() (http.Header, error) {
	result := make(http.Header)
	for i, s := range ch {
		name, value, err := parseHeaderString(s)
		if err != nil {
			return nil, fmt.Errorf("参数 --header 第%d项格式错误: %w", i+1, err)
		}
		result.Set(name, value)
	}
	return result, nil
}

// parseHeaderString 解析单个头部字符串 "Name: Value"
func parseHeaderString(s string) (name, value string, err error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return "", "", fmt.Errorf("格式错误: 缺少冒号分隔符,应为 'Name: Value'")
	}

	name = strings.TrimSpace(parts[0])
	value = strings.TrimSpace(parts[1])

	if name == "" {
		return "", "", fmt.Errorf("头部名称不能为空")
	}

	return name, value, nil
}

// HeaderProvider 定义HTTP头部提供者接口
// 抓取器和渲染器通过此接口获取出站身份头部,而不直接依赖配置层
type HeaderProvider interface {
	// GetHeaders 返回当前有效的HTTP请求头部
	// 返回的http.Header已按优先级合并(默认 < 配置 < 命令行)
	GetHeaders() (http.Header, error)
}

// ValidationError 头部验证错误
type ValidationError struct {
	// Field 出错的字段 ("name" 或 "value")
	Field string

	// HeaderName 头部名称
	HeaderName string

	// Reason 错误原因
	Reason string

	// Suggestion 修复建议 (可选)
	Suggestion string
}

// Error 实现error接口
func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("头部验证失败 [%s]: %s", e.HeaderName, e.Reason)
	if e.Suggestion != "" {
		msg += fmt.Sprintf(" (建议: %s)", e.Suggestion)
	}
	return msg
}

// ConfigError 配置文件错误
type ConfigError struct {
	// FilePath 配置文件路径
	FilePath string

	// Cause 底层错误
	Cause error
}

// Error 实现error接口
func (e *ConfigError) Error() string {
	return fmt.Sprintf("配置文件错误 [%s]: %v", e.FilePath, e.Cause)
}

// Unwrap 支持errors.Unwrap
func (e *ConfigError) Unwrap() error {
	return e.Cause
}
