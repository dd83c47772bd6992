package main

import (
	"fmt"
	"net/url"

	"github.com/RecoveryAshes/StreamFind/internal/models"
)

// ValidateURL 验证URL格式
func ValidateURL(urlStr string) error {
	return models.ValidateURL(urlStr)
}

// ValidateFlags 验证命令行标志
func ValidateFlags(
	targetURL string,
	depth int,
	waitTime int,
	pageTimeout int,
	verifyTimeout int,
	frameLimit int,
) error {
	// 验证URL
	if targetURL != "" {
		if err := ValidateURL(targetURL); err != nil {
			return fmt.Errorf("无效的目标URL: %w", err)
		}
	}

	// 验证深度
	if depth < 0 || depth > 2 {
		return fmt.Errorf("iframe遍历深度必须在0-2之间,当前值: %d", depth)
	}

	// 验证等待时间
	if waitTime < 0 || waitTime > 60 {
		return fmt.Errorf("等待时间必须在0-60秒之间,当前值: %d", waitTime)
	}

	// 验证页面超时
	if pageTimeout < 1 || pageTimeout > 120 {
		return fmt.Errorf("页面超时必须在1-120秒之间,当前值: %d", pageTimeout)
	}

	// 验证验证超时
	if verifyTimeout < 1 || verifyTimeout > 60 {
		return fmt.Errorf("验证超时必须在1-60秒之间,当前值: %d", verifyTimeout)
	}

	// 验证iframe数量上限
	if frameLimit < 1 || frameLimit > 50 {
		return fmt.Errorf("iframe数量上限必须在1-50之间,当前值: %d", frameLimit)
	}

	return nil
}

// ValidateURLFile 验证URL文件路径
func ValidateURLFile(filepath string) error {
	if filepath == "" {
		return fmt.Errorf("URL文件路径不能为空")
	}
	// 文件存在性检查将在运行时进行
	return nil
}

// NormalizeURL 规范化URL
func NormalizeURL(urlStr string) (string, error) {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return "", err
	}

	// 如果没有协议,默认使用https
	if parsed.Scheme == "" {
		urlStr = "https://" + urlStr
		parsed, err = url.Parse(urlStr)
		if err != nil {
			return "", err
		}
	}

	return parsed.String(), nil
}
