package utils

import (
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/RecoveryAshes/StreamFind/internal/models"
)

// MaxHeaderValueLength 单个头部值的长度上限(字节)
const MaxHeaderValueLength = 8192

// ForbiddenHeaders 不允许用户配置的头部
// 这些由HTTP客户端和浏览器自行管理,手工设置会被静默覆盖或破坏请求
var ForbiddenHeaders = []string{
	"Host",
	"Content-Length",
	"Transfer-Encoding",
	"Connection",
}

// 头部名称为RFC 7230 token的常用子集,值为可打印ASCII加制表符
var (
	headerNamePattern  = regexp.MustCompile(`^[A-Za-z0-9-]+$`)
	headerValuePattern = regexp.MustCompile(`^[\x20-\x7E\t]*$`)
)

// HeaderValidator 出站头部合法性校验
// 页面抓取、清单验证和浏览器渲染共用一组头部,统一在进入前校验
type HeaderValidator struct {
	forbidden map[string]bool
}

// NewHeaderValidator 创建验证器
func NewHeaderValidator() *HeaderValidator {
	forbidden := make(map[string]bool, len(ForbiddenHeaders))
	for _, h := range ForbiddenHeaders {
		forbidden[strings.ToLower(h)] = true
	}
	return &HeaderValidator{forbidden: forbidden}
}

// ValidateName 验证头部名称
func (hv *HeaderValidator) ValidateName(name string) error {
	if name == "" {
		return &models.ValidationError{
			Field:      "name",
			HeaderName: name,
			Reason:     "头部名称不能为空",
		}
	}

	if !headerNamePattern.MatchString(name) {
		return &models.ValidationError{
			Field:      "name",
			HeaderName: name,
			Reason:     "头部名称包含非法字符 (仅允许字母、数字和连字符)",
			Suggestion: "使用字母、数字和连字符 (如 'Referer', 'X-Forwarded-For')",
		}
	}

	return nil
}

// ValidateValue 验证头部值
func (hv *HeaderValidator) ValidateValue(name, value string) error {
	if len(value) > MaxHeaderValueLength {
		return &models.ValidationError{
			Field:      "value",
			HeaderName: name,
			Reason:     fmt.Sprintf("头部值过长: %d 字节 (最大 %d)", len(value), MaxHeaderValueLength),
			Suggestion: fmt.Sprintf("将值缩短至 %d 字节以内", MaxHeaderValueLength),
		}
	}

	if !headerValuePattern.MatchString(value) {
		return &models.ValidationError{
			Field:      "value",
			HeaderName: name,
			Reason:     "头部值包含非法字符 (仅允许可打印ASCII字符)",
			Suggestion: "移除控制字符和非ASCII字符",
		}
	}

	return nil
}

// ValidateHeader 验证单个头部的名称和值
func (hv *HeaderValidator) ValidateHeader(name, value string) error {
	if hv.IsForbidden(name) {
		return &models.ValidationError{
			Field:      "name",
			HeaderName: name,
			Reason:     "此头部由HTTP客户端自动管理,不允许自定义",
			Suggestion: fmt.Sprintf("移除 '%s' 头部配置", name),
		}
	}

	if err := hv.ValidateName(name); err != nil {
		return err
	}
	return hv.ValidateValue(name, value)
}

// IsForbidden 检查头部是否在受禁列表中(不区分大小写)
func (hv *HeaderValidator) IsForbidden(name string) bool {
	return hv.forbidden[strings.ToLower(name)]
}

// Validate 验证http.Header中的所有头部,返回第一个错误
func (hv *HeaderValidator) Validate(headers http.Header) error {
	for name, values := range headers {
		for _, value := range values {
			if err := hv.ValidateHeader(name, value); err != nil {
				return err
			}
		}
	}
	return nil
}
