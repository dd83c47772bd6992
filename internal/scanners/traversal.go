package scanners

import (
	"github.com/RecoveryAshes/StreamFind/internal/models"
	"github.com/RecoveryAshes/StreamFind/internal/utils"
)

// TraversalResult 遍历结果
type TraversalResult struct {
	// Candidates 跨层级聚合的去重候选,按首次发现顺序
	Candidates []models.Candidate

	// PageTitle 顶层页面标题(用于报告)
	PageTitle string

	// FinalURL 顶层页面重定向后的最终URL
	FinalURL string

	// PagesFetched 成功抓取的文档数(含顶层页面)
	PagesFetched int

	// FramesSkipped 抓取失败被跳过的子文档数
	FramesSkipped int
}

// Traverser 遍历控制器
// 对嵌入子文档做有界广度优先展开,严格顺序执行:
// 每层的frontier来自上一层提取的iframe src,visited集合保证
// 同一子文档无论被多少父文档引用都只展开一次,循环引用不会死循环。
// 终止有保证: 层数由maxDepth限定,每次提取的扇出由frameLimit限定。
type Traverser struct {
	fetcher   *Fetcher
	extractor *Extractor
	maxDepth  int
}

// NewTraverser 创建遍历控制器
func NewTraverser(fetcher *Fetcher, extractor *Extractor, maxDepth int) *Traverser {
	return &Traverser{
		fetcher:   fetcher,
		extractor: extractor,
		maxDepth:  maxDepth,
	}
}

// Run 执行一次完整遍历
// 顶层页面抓取失败是致命错误(无部分结果);
// 子文档抓取失败只跳过该URL,扫描继续。
// maxDepth=0时只扫描顶层页面,无论页面包含多少iframe。
func (t *Traverser) Run(pageURL string) (*TraversalResult, error) {
	result := &TraversalResult{}
	candidates := models.NewCandidateSet()

	// 深度0: 顶层页面,失败即终止
	html, finalURL, err := t.fetcher.FetchPage(pageURL)
	if err != nil {
		return nil, err
	}
	result.FinalURL = finalURL
	result.PageTitle = utils.ExtractTitle(html)
	result.PagesFetched++

	for _, c := range t.extractor.ExtractCandidates(html, finalURL) {
		candidates.Add(c)
	}

	// frontier: 当前层待展开的子文档URL,已在提取时去重并截断
	frontier := t.extractor.ExtractFrames(html, finalURL)
	visited := map[string]bool{pageURL: true, finalURL: true}

	for depth := 1; depth <= t.maxDepth; depth++ {
		if len(frontier) == 0 {
			break
		}
		utils.Debugf("展开第 %d 层子文档: %d 个", depth, len(frontier))

		next := make([]string, 0)
		for _, frameURL := range frontier {
			if visited[frameURL] {
				continue
			}
			visited[frameURL] = true

			frameHTML, frameFinal, err := t.fetcher.FetchPage(frameURL)
			if err != nil {
				// 子文档失败不致命,跳过继续
				utils.Debugf("子文档抓取失败,跳过 [%s]: %v", frameURL, err)
				result.FramesSkipped++
				continue
			}
			result.PagesFetched++

			for _, c := range t.extractor.ExtractCandidates(frameHTML, frameFinal) {
				candidates.Add(c)
			}
			next = append(next, t.extractor.ExtractFrames(frameHTML, frameFinal)...)
		}
		frontier = next
	}

	result.Candidates = candidates.Items()
	return result, nil
}
