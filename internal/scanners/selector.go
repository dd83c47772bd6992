package scanners

import (
	"net/url"
	"strings"

	"github.com/RecoveryAshes/StreamFind/internal/models"
	"github.com/RecoveryAshes/StreamFind/internal/utils"
)

// Selection 选择结果
type Selection struct {
	// Best 选中的候选URL,候选集为空时为空字符串
	Best string

	// Verified Best是否通过了master清单验证
	Verified bool

	// Checks 执行的验证抓取次数
	Checks int
}

// Selector 最优候选选择器
// 对去重后的候选集应用确定性的优先级策略:
//  1. 首个验证为master的.mpd候选(按发现顺序)
//  2. 否则首个验证为master的.m3u8候选,路径含"master"的优先尝试
//  3. 否则回退到发现顺序的首个候选,不验证
type Selector struct {
	classifier *Classifier
}

// NewSelector 创建选择器
func NewSelector(classifier *Classifier) *Selector {
	return &Selector{classifier: classifier}
}

// Select 从候选集中选出最优清单
// 候选集为空时返回零值Selection(Best为空)
func (s *Selector) Select(candidates []models.Candidate) Selection {
	if len(candidates) == 0 {
		return Selection{}
	}

	sel := Selection{}

	// 第一优先级: 已验证的DASH清单
	for _, c := range candidates {
		if !hasSuffix(c.URL, ".mpd") {
			continue
		}
		sel.Checks++
		if s.classifier.IsMasterDASH(c.URL) {
			utils.Debugf("选中已验证DASH清单: %s", c.URL)
			sel.Best = c.URL
			sel.Verified = true
			return sel
		}
	}

	// 第二优先级: 已验证的HLS master播放列表
	// 路径含"master"的候选先试,再按发现顺序回退其余候选
	checked := make(map[string]bool)
	for _, c := range orderHLSCandidates(candidates) {
		if checked[c.URL] {
			continue
		}
		checked[c.URL] = true
		sel.Checks++
		if s.classifier.IsMasterHLS(c.URL) {
			utils.Debugf("选中已验证HLS master播放列表: %s", c.URL)
			sel.Best = c.URL
			sel.Verified = true
			return sel
		}
	}

	// 回退: 发现顺序的首个候选,未验证
	utils.Debugf("未验证到master清单,回退到首个候选: %s", candidates[0].URL)
	sel.Best = candidates[0].URL
	sel.Verified = false
	return sel
}

// orderHLSCandidates 返回.m3u8候选的验证尝试顺序
// 路径包含"master"标记的排在前,组内保持发现顺序
func orderHLSCandidates(candidates []models.Candidate) []models.Candidate {
	preferred := make([]models.Candidate, 0)
	rest := make([]models.Candidate, 0)

	for _, c := range candidates {
		if !hasSuffix(c.URL, ".m3u8") {
			continue
		}
		if strings.Contains(strings.ToLower(pathOf(c.URL)), "master") {
			preferred = append(preferred, c)
		} else {
			rest = append(rest, c)
		}
	}

	return append(preferred, rest...)
}

// hasSuffix 判断URL路径是否以指定后缀结尾(不区分大小写,忽略查询串)
func hasSuffix(rawURL string, suffix string) bool {
	return strings.HasSuffix(strings.ToLower(pathOf(rawURL)), suffix)
}

// pathOf 提取URL的路径部分,解析失败时退回原始字符串
func pathOf(rawURL string) string {
	if parsed, err := url.Parse(rawURL); err == nil && parsed.Path != "" {
		return parsed.Path
	}
	return rawURL
}
