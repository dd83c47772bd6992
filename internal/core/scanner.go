package core

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/RecoveryAshes/StreamFind/internal/models"
	"github.com/RecoveryAshes/StreamFind/internal/scanners"
	"github.com/RecoveryAshes/StreamFind/internal/utils"
)

// Scanner 主扫描协调器
type Scanner struct {
	config    models.ScanConfig
	targetURL string
	outputDir string

	// HTTP头部提供者
	headerProvider models.HeaderProvider

	// 扫描任务
	task *models.ScanTask

	// 组件实例
	fetcher   *scanners.Fetcher
	extractor *scanners.Extractor
	selector  *scanners.Selector
}

// NewScanner 创建主扫描器
func NewScanner(targetURL string, config models.ScanConfig, outputDir string, headerProvider models.HeaderProvider) (*Scanner, error) {
	task, err := models.NewScanTask(targetURL, config)
	if err != nil {
		return nil, err
	}

	fetcher := scanners.NewFetcher(config, headerProvider)

	return &Scanner{
		config:         config,
		targetURL:      targetURL,
		outputDir:      outputDir,
		headerProvider: headerProvider,
		task:           task,
		fetcher:        fetcher,
		extractor:      scanners.NewExtractor(config.FrameLimit),
		selector:       scanners.NewSelector(scanners.NewClassifier(fetcher)),
	}, nil
}

// Task 返回本次扫描对应的任务
func (s *Scanner) Task() *models.ScanTask {
	return s.task
}

// Scan 执行扫描任务
// 执行流程:
//  1. 创建输出目录结构
//  2. 获取页面文档 (静态抓取或无头渲染)
//  3. 提取并聚合清单候选
//  4. 验证并选择最佳清单
//  5. 生成扫描报告
//
// 返回: 扫描结果和错误信息
func (s *Scanner) Scan() (*models.ScanResult, error) {
	startTime := time.Now()
	now := startTime
	s.task.Status = models.TaskStatusRunning
	s.task.StartedAt = &now

	utils.Infof("🚀 开始扫描任务")
	utils.Infof("目标URL: %s", s.targetURL)
	utils.Infof("域名: %s", s.task.Domain)
	utils.Infof("扫描模式: %s", s.task.Mode)
	utils.Infof("输出目录: %s", s.outputDir)

	// 创建输出目录结构
	if err := s.setupOutputDirectories(); err != nil {
		return nil, s.fail(fmt.Errorf("创建输出目录失败: %w", err))
	}

	// 获取页面文档并提取候选
	var (
		candidates []models.Candidate
		pageTitle  string
		stats      models.ScanStats
		err        error
	)
	if s.config.UseRender {
		candidates, pageTitle, stats, err = s.runRenderScan()
	} else {
		candidates, pageTitle, stats, err = s.runStaticScan()
	}
	if err != nil {
		return nil, s.fail(err)
	}

	stats.CandidatesFound = len(candidates)
	utils.Infof("🔍 共发现 %d 个清单候选", len(candidates))

	// 验证并选择最佳清单
	selection := s.selector.Select(candidates)
	stats.VerifyChecks = selection.Checks

	duration := time.Since(startTime)
	stats.Duration = duration.Seconds()

	result := &models.ScanResult{
		Best:       selection.Best,
		Verified:   selection.Verified,
		Candidates: candidates,
		Stats:      stats,
	}

	completedAt := time.Now()
	s.task.Status = models.TaskStatusCompleted
	s.task.CompletedAt = &completedAt
	s.task.Result = result

	// 生成扫描报告
	report := &models.ScanReport{
		TaskID:     s.task.ID,
		TargetURL:  s.targetURL,
		Domain:     s.task.Domain,
		Mode:       s.task.Mode,
		PageTitle:  pageTitle,
		StartTime:  startTime,
		EndTime:    completedAt,
		Duration:   stats.Duration,
		Best:       result.Best,
		Verified:   result.Verified,
		Candidates: candidates,
		Stats:      stats,
		OutputDir:  s.outputDir,
		Config:     s.config,
	}
	reporter := utils.NewReporter(s.outputDir, s.task.Domain)
	if err := reporter.GenerateReport(report); err != nil {
		utils.Warnf("生成报告失败: %v", err)
	}

	utils.Infof("✅ 扫描任务完成")
	if result.Best != "" {
		utils.Infof("最佳清单: %s (已验证: %v)", result.Best, result.Verified)
	} else {
		utils.Infof("未发现清单候选")
	}
	utils.Infof("总耗时: %.2f秒", stats.Duration)

	return result, nil
}

// runStaticScan 执行静态扫描
// 抓取顶层页面并对iframe做有界遍历
func (s *Scanner) runStaticScan() ([]models.Candidate, string, models.ScanStats, error) {
	utils.Infof("🔍 静态扫描模式启动 (iframe深度: %d)", s.config.Depth)

	traverser := scanners.NewTraverser(s.fetcher, s.extractor, s.config.Depth)
	traversal, err := traverser.Run(s.targetURL)
	if err != nil {
		return nil, "", models.ScanStats{}, fmt.Errorf("静态扫描失败: %w", err)
	}

	stats := models.ScanStats{
		PagesFetched:  traversal.PagesFetched,
		FramesSkipped: traversal.FramesSkipped,
	}

	utils.Infof("✅ 静态扫描完成: 抓取 %d 个页面, 跳过 %d 个子文档", traversal.PagesFetched, traversal.FramesSkipped)
	return traversal.Candidates, traversal.PageTitle, stats, nil
}

// runRenderScan 执行渲染扫描
// 在无头浏览器中加载页面, 对渲染后的HTML做单次提取,
// 渲染输出不做iframe展开 (浏览器已将可加载的子文档渲染进主文档)
func (s *Scanner) runRenderScan() ([]models.Candidate, string, models.ScanStats, error) {
	utils.Infof("🌐 渲染扫描模式启动 (等待: %d秒)", s.config.WaitTime)

	renderer := scanners.NewRenderer(s.config, s.headerProvider)
	html, finalURL, err := renderer.Render(s.targetURL)
	if err != nil {
		return nil, "", models.ScanStats{}, fmt.Errorf("渲染扫描失败: %w", err)
	}

	candidates := s.extractor.ExtractCandidates(html, finalURL)
	pageTitle := utils.ExtractTitle(html)

	stats := models.ScanStats{
		PagesFetched: 1,
	}

	utils.Infof("✅ 渲染扫描完成")
	return candidates, pageTitle, stats, nil
}

// setupOutputDirectories 创建输出目录结构
func (s *Scanner) setupOutputDirectories() error {
	// 主输出目录: output/domain/
	basePath := filepath.Join(s.outputDir, s.task.Domain)

	dirs := []string{
		filepath.Join(basePath, "reports"), // 报告文件
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("创建目录失败 [%s]: %w", dir, err)
		}
		utils.Debugf("创建目录: %s", dir)
	}

	utils.Debugf("输出目录结构创建完成: %s", basePath)
	return nil
}

// fail 记录任务失败状态
func (s *Scanner) fail(err error) error {
	completedAt := time.Now()
	s.task.Status = models.TaskStatusFailed
	s.task.CompletedAt = &completedAt
	s.task.ErrorMessage = err.Error()
	return err
}
