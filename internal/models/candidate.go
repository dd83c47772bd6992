package models

import (
	"net/url"
	"strings"
)

// MediaFormat 候选清单的媒体格式
type MediaFormat string

const (
	FormatHLS     MediaFormat = "hls"     // HLS播放列表 (.m3u8)
	FormatDASH    MediaFormat = "dash"    // DASH清单 (.mpd)
	FormatSegment MediaFormat = "segment" // 裸分片 (.m4s)
	FormatUnknown MediaFormat = "unknown" // 无法识别的格式
)

// ManifestExtensions 识别为流媒体清单的URL路径后缀
var ManifestExtensions = []string{".m3u8", ".mpd", ".m4s"}

// Candidate 一个候选清单URL
// 提取后不可变,唯一性按URL字符串精确相等判断
type Candidate struct {
	// URL 绝对URL字符串
	URL string `json:"url"`

	// Format 根据路径后缀推断的格式
	Format MediaFormat `json:"format"`
}

// NewCandidate 创建候选清单,根据路径后缀推断格式
func NewCandidate(rawURL string) Candidate {
	return Candidate{
		URL:    rawURL,
		Format: DetectFormat(rawURL),
	}
}

// DetectFormat 根据URL路径后缀推断媒体格式
// 后缀匹配不区分大小写,查询参数不参与判断
func DetectFormat(rawURL string) MediaFormat {
	path := strings.ToLower(rawURL)
	if parsed, err := url.Parse(rawURL); err == nil && parsed.Path != "" {
		path = strings.ToLower(parsed.Path)
	}

	switch {
	case strings.HasSuffix(path, ".m3u8"):
		return FormatHLS
	case strings.HasSuffix(path, ".mpd"):
		return FormatDASH
	case strings.HasSuffix(path, ".m4s"):
		return FormatSegment
	default:
		return FormatUnknown
	}
}

// HasManifestExt 判断URL值中是否包含清单后缀(用于src属性值的宽松匹配)
func HasManifestExt(value string) bool {
	lower := strings.ToLower(value)
	for _, ext := range ManifestExtensions {
		if strings.Contains(lower, ext) {
			return true
		}
	}
	return false
}

// CandidateSet 插入有序的去重候选集合
// 不变式: 同一URL字符串不会出现两次,顺序为首次发现顺序
type CandidateSet struct {
	items []Candidate
	seen  map[string]bool
}

// NewCandidateSet 创建空候选集合
func NewCandidateSet() *CandidateSet {
	return &CandidateSet{
		seen: make(map[string]bool),
	}
}

// Add 添加候选,重复URL被忽略(首次出现优先)
// 返回是否实际加入
func (s *CandidateSet) Add(c Candidate) bool {
	if s.seen[c.URL] {
		return false
	}
	s.seen[c.URL] = true
	s.items = append(s.items, c)
	return true
}

// AddURL 按URL字符串添加候选
func (s *CandidateSet) AddURL(rawURL string) bool {
	return s.Add(NewCandidate(rawURL))
}

// Contains 检查URL是否已在集合中
func (s *CandidateSet) Contains(rawURL string) bool {
	return s.seen[rawURL]
}

// Len 返回候选数量
func (s *CandidateSet) Len() int {
	return len(s.items)
}

// Items 按首次发现顺序返回所有候选
func (s *CandidateSet) Items() []Candidate {
	out := make([]Candidate, len(s.items))
	copy(out, s.items)
	return out
}

// URLs 按首次发现顺序返回所有候选URL字符串
func (s *CandidateSet) URLs() []string {
	out := make([]string, 0, len(s.items))
	for _, c := range s.items {
		out = append(out, c.URL)
	}
	return out
}
