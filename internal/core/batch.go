package core

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/RecoveryAshes/StreamFind/internal/models"
	"github.com/RecoveryAshes/StreamFind/internal/utils"
)

// BatchScanner 批量扫描器
type BatchScanner struct {
	config         models.ScanConfig
	outputDir      string
	batchDelay     time.Duration
	continueOnErr  bool
	headerProvider models.HeaderProvider
}

// BatchResult 批量扫描结果
type BatchResult struct {
	URL         string
	TaskID      string
	Success     bool
	Error       error
	Best        string
	Verified    bool
	Found       int
	ProcessedAt time.Time
	Duration    float64
}

// BatchSummary 批量扫描摘要
type BatchSummary struct {
	TotalURLs     int
	SuccessCount  int
	FailCount     int
	TotalFound    int
	TotalDuration float64
	Results       []BatchResult
}

// NewBatchScanner 创建批量扫描器
func NewBatchScanner(config models.ScanConfig, outputDir string, batchDelay int, continueOnErr bool, headerProvider models.HeaderProvider) *BatchScanner {
	return &BatchScanner{
		config:         config,
		outputDir:      outputDir,
		batchDelay:     time.Duration(batchDelay) * time.Second,
		continueOnErr:  continueOnErr,
		headerProvider: headerProvider,
	}
}

// ScanBatch 批量扫描URL列表
// URL按顺序逐个扫描,单个URL失败默认不中断后续扫描
func (bs *BatchScanner) ScanBatch(urls []string, urlsFile string) (*BatchSummary, error) {
	utils.Infof("🚀 开始批量扫描: %d个URL", len(urls))

	summary := &BatchSummary{
		TotalURLs: len(urls),
		Results:   make([]BatchResult, 0, len(urls)),
	}

	startTime := time.Now()
	bar := utils.NewProgressBar(len(urls), "批量扫描")

	for i, targetURL := range urls {
		utils.Infof("\n==================== [%d/%d] ====================", i+1, len(urls))
		utils.Infof("目标URL: %s", targetURL)

		// 执行单个URL扫描
		result := bs.scanSingleURL(targetURL)
		summary.Results = append(summary.Results, result)
		_ = bar.Add(1)

		// 更新统计
		if result.Success {
			summary.SuccessCount++
			summary.TotalFound += result.Found
		} else {
			summary.FailCount++
			utils.Errorf("❌ 扫描失败: %v", result.Error)

			// 如果不继续处理错误,则停止
			if !bs.continueOnErr {
				utils.Warn("批量扫描中止 (--continue-on-error=false)")
				break
			}
		}

		// 批量延迟(最后一个URL不需要延迟)
		if i < len(urls)-1 && bs.batchDelay > 0 {
			utils.Debugf("等待 %.0f 秒后处理下一个URL...", bs.batchDelay.Seconds())
			time.Sleep(bs.batchDelay)
		}
	}

	summary.TotalDuration = time.Since(startTime).Seconds()

	// 保存批量扫描汇总
	if err := bs.saveSummary(summary, urlsFile, startTime); err != nil {
		utils.Warnf("保存批量扫描汇总失败: %v", err)
	}

	// 显示批量扫描摘要
	bs.printSummary(summary)

	return summary, nil
}

// scanSingleURL 扫描单个URL
func (bs *BatchScanner) scanSingleURL(targetURL string) BatchResult {
	result := BatchResult{
		URL:         targetURL,
		ProcessedAt: time.Now(),
	}

	startTime := time.Now()

	// 创建扫描器
	scanner, err := NewScanner(targetURL, bs.config, bs.outputDir, bs.headerProvider)
	if err != nil {
		result.Success = false
		result.Error = fmt.Errorf("创建扫描器失败: %w", err)
		result.Duration = time.Since(startTime).Seconds()
		return result
	}
	result.TaskID = scanner.Task().ID

	// 执行扫描
	scanResult, err := scanner.Scan()
	if err != nil {
		result.Success = false
		result.Error = fmt.Errorf("扫描失败: %w", err)
		result.Duration = time.Since(startTime).Seconds()
		return result
	}

	// 成功
	result.Success = true
	result.Best = scanResult.Best
	result.Verified = scanResult.Verified
	result.Found = len(scanResult.Candidates)
	result.Duration = time.Since(startTime).Seconds()

	return result
}

// saveSummary 保存批量扫描汇总到输出目录
func (bs *BatchScanner) saveSummary(summary *BatchSummary, urlsFile string, startTime time.Time) error {
	batchSummary := models.BatchScanSummary{
		ID:             uuid.New().String(),
		URLsFile:       urlsFile,
		CreatedAt:      startTime,
		CompletedAt:    time.Now(),
		TotalURLs:      summary.TotalURLs,
		SuccessfulURLs: summary.SuccessCount,
		FailedURLs:     summary.FailCount,
		TotalFound:     summary.TotalFound,
		SubTasks:       make([]string, 0, len(summary.Results)),
	}
	for _, result := range summary.Results {
		if result.TaskID != "" {
			batchSummary.SubTasks = append(batchSummary.SubTasks, result.TaskID)
		}
	}

	if err := os.MkdirAll(bs.outputDir, 0755); err != nil {
		return fmt.Errorf("创建输出目录失败: %w", err)
	}

	data, err := json.MarshalIndent(batchSummary, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化汇总失败: %w", err)
	}

	summaryPath := filepath.Join(bs.outputDir, "batch_summary.json")
	if err := os.WriteFile(summaryPath, data, 0644); err != nil {
		return fmt.Errorf("写入汇总文件失败: %w", err)
	}

	utils.Debugf("批量扫描汇总已保存: %s", summaryPath)
	return nil
}

// printSummary 打印批量扫描摘要
func (bs *BatchScanner) printSummary(summary *BatchSummary) {
	utils.Info("\n==================================================")
	utils.Info("📊 批量扫描摘要")
	utils.Info("==================================================")
	utils.Infof("总URL数: %d", summary.TotalURLs)
	utils.Infof("✅ 成功: %d", summary.SuccessCount)
	utils.Infof("❌ 失败: %d", summary.FailCount)
	utils.Infof("🎯 候选总数: %d", summary.TotalFound)
	utils.Infof("⏱️  总耗时: %.2f秒", summary.TotalDuration)
	utils.Info("==================================================")

	// 显示失败的URL
	if summary.FailCount > 0 {
		utils.Warn("\n失败的URL:")
		for _, result := range summary.Results {
			if !result.Success {
				utils.Warnf("  - %s: %v", result.URL, result.Error)
			}
		}
	}
}
