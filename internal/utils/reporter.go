package utils

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/RecoveryAshes/StreamFind/internal/models"
	"github.com/schollz/progressbar/v3"
)

// Reporter 报告生成器
type Reporter struct {
	outputDir string
	domain    string
}

// NewReporter 创建报告生成器
func NewReporter(outputDir string, domain string) *Reporter {
	return &Reporter{
		outputDir: outputDir,
		domain:    domain,
	}
}

// GenerateReport 生成扫描报告
// 写入 output/{domain}/reports/ 下的主报告和候选列表
func (r *Reporter) GenerateReport(report *models.ScanReport) error {
	reportsDir := filepath.Join(r.outputDir, r.domain, "reports")
	if err := os.MkdirAll(reportsDir, 0755); err != nil {
		return fmt.Errorf("创建报告目录失败: %w", err)
	}

	report.OutputDir = filepath.Join(r.outputDir, r.domain)

	// 保存主报告
	if err := r.saveJSONReport(reportsDir, "scan_report.json", report); err != nil {
		return err
	}

	// 保存候选列表
	if err := r.saveJSONReport(reportsDir, "candidates.json", report.Candidates); err != nil {
		return err
	}

	Infof("✅ 报告已生成: %s", reportsDir)
	return nil
}

// saveJSONReport 保存JSON报告
func (r *Reporter) saveJSONReport(dir string, filename string, data interface{}) error {
	path := filepath.Join(dir, filename)

	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化JSON失败: %w", err)
	}

	if err := os.WriteFile(path, jsonData, 0644); err != nil {
		return fmt.Errorf("写入报告文件失败: %w", err)
	}

	Debugf("保存报告: %s", path)
	return nil
}

// NewProgressBar 创建进度条
func NewProgressBar(max int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(max,
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}
