package scanners

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/RecoveryAshes/StreamFind/internal/models"
)

// 候选清单URL匹配模式
// 匹配文本中任意位置出现的绝对URL,路径以清单后缀结尾,可跟查询串
var (
	hlsURLPattern     = regexp.MustCompile(`(?i)https?://[^\s"'<>]+\.m3u8(?:\?[^\s"'<>]*)?`)
	dashURLPattern    = regexp.MustCompile(`(?i)https?://[^\s"'<>]+\.mpd(?:\?[^\s"'<>]*)?`)
	segmentURLPattern = regexp.MustCompile(`(?i)https?://[^\s"'<>]+\.m4s(?:\?[^\s"'<>]*)?`)

	// src属性匹配,同时用于清单引用和iframe子文档
	srcAttrPattern = regexp.MustCompile(`(?i)src\s*=\s*["']([^"']+)["']`)
)

// frameWindow iframe判定的词法窗口宽度(字节)
// src属性前后各frameWindow字节内出现"<iframe"即认为该src属于iframe标签。
// 这是对完整HTML解析的有意简化: 对畸形标记容错,但可能把紧邻iframe标签的
// 其他src误判进来。换成DOM解析会改变对畸形输入的匹配行为,不要"修复"。
const frameWindow = 20

// Extractor 标记文本模式提取器
// 对同一HTML与基准URL的提取是确定且幂等的: 输出保序、去重、首次出现优先
type Extractor struct {
	// frameLimit 每次提取保留的iframe src数量上限
	frameLimit int
}

// NewExtractor 创建提取器
func NewExtractor(frameLimit int) *Extractor {
	if frameLimit < 1 {
		frameLimit = 10
	}
	return &Extractor{frameLimit: frameLimit}
}

// ExtractCandidates 从HTML中提取候选清单URL
// 两个来源合并为一个保序去重序列:
//  1. 文本中任意位置的绝对清单URL (.m3u8/.mpd/.m4s)
//  2. src属性值中包含清单后缀的引用,相对路径按baseURL解析为绝对URL
func (e *Extractor) ExtractCandidates(html string, baseURL string) []models.Candidate {
	set := models.NewCandidateSet()

	for _, pattern := range []*regexp.Regexp{hlsURLPattern, dashURLPattern, segmentURLPattern} {
		for _, match := range pattern.FindAllString(html, -1) {
			set.AddURL(match)
		}
	}

	for _, match := range srcAttrPattern.FindAllStringSubmatch(html, -1) {
		value := match[1]
		if !models.HasManifestExt(value) {
			continue
		}
		if absolute := absolutize(baseURL, value); absolute != "" {
			set.AddURL(absolute)
		}
	}

	return set.Items()
}

// ExtractFrames 从HTML中提取iframe子文档URL
// 仅保留词法窗口内出现"<iframe"的src属性,保序去重,
// 结果截断到frameLimit个
func (e *Extractor) ExtractFrames(html string, baseURL string) []string {
	frames := make([]string, 0)
	seen := make(map[string]bool)

	for _, match := range srcAttrPattern.FindAllStringSubmatchIndex(html, -1) {
		start := match[0]
		value := html[match[2]:match[3]]

		// 取src前后各frameWindow字节的窗口判断是否在iframe标签内
		winStart := start - frameWindow
		if winStart < 0 {
			winStart = 0
		}
		winEnd := start + frameWindow
		if winEnd > len(html) {
			winEnd = len(html)
		}
		window := strings.ToLower(html[winStart:winEnd])
		if !strings.Contains(window, "<iframe") {
			continue
		}

		absolute := absolutize(baseURL, value)
		if absolute == "" || seen[absolute] {
			continue
		}
		seen[absolute] = true
		frames = append(frames, absolute)

		if len(frames) >= e.frameLimit {
			break
		}
	}

	return frames
}

// absolutize 将可能为相对路径的引用按base解析为绝对URL
// 解析失败返回空字符串
func absolutize(base string, ref string) string {
	baseURL, err := url.Parse(base)
	if err != nil {
		return ""
	}
	refURL, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return ""
	}
	return baseURL.ResolveReference(refURL).String()
}
