package scanners

import (
	"strings"

	"github.com/RecoveryAshes/StreamFind/internal/utils"
)

// 清单内容的结构特征标记
// 这些是尽力而为的子串启发式,不是规范的格式解析:
// 格式合法但写法非典型的清单可能被漏判,这是接受的折衷
const (
	// hlsMasterMarker HLS变体流播放列表标记(多码率索引,而非叶子媒体播放列表)
	hlsMasterMarker = "#EXT-X-STREAM-INF"

	// DASH清单的顶层结构元素和自适应集元素
	dashPeriodMarker        = "<Period"
	dashAdaptationSetMarker = "<AdaptationSet"
)

// Classifier 清单分类器
// 按需抓取候选内容并判断是否为该格式的master/顶层清单,结果不缓存
type Classifier struct {
	fetcher *Fetcher
}

// NewClassifier 创建清单分类器
func NewClassifier(fetcher *Fetcher) *Classifier {
	return &Classifier{fetcher: fetcher}
}

// IsMasterHLS 判断候选URL的内容是否为HLS master播放列表
// 任何抓取失败都返回false,从不向上传播错误
func (c *Classifier) IsMasterHLS(manifestURL string) bool {
	body, err := c.fetcher.FetchVerifyBody(manifestURL)
	if err != nil {
		utils.Debugf("HLS验证抓取失败 [%s]: %v", manifestURL, err)
		return false
	}
	return strings.Contains(body, hlsMasterMarker)
}

// IsMasterDASH 判断候选URL的内容是否为DASH清单描述
// 要求同时出现Period和AdaptationSet元素,排除残缺或畸形文档
// 任何抓取失败都返回false
func (c *Classifier) IsMasterDASH(manifestURL string) bool {
	body, err := c.fetcher.FetchVerifyBody(manifestURL)
	if err != nil {
		utils.Debugf("DASH验证抓取失败 [%s]: %v", manifestURL, err)
		return false
	}
	return strings.Contains(body, dashPeriodMarker) && strings.Contains(body, dashAdaptationSetMarker)
}
