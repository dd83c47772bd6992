package models

import (
	"encoding/json"
	"time"
)

// ScanReport 扫描报告
type ScanReport struct {
	// 任务信息
	TaskID    string   `json:"task_id"`
	TargetURL string   `json:"target_url"`
	Domain    string   `json:"domain"`
	Mode      ScanMode `json:"mode"`
	PageTitle string   `json:"page_title,omitempty"` // 顶层页面标题

	// 时间信息
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Duration  float64   `json:"duration"` // 秒

	// 结果
	Best       string      `json:"best,omitempty"`
	Verified   bool        `json:"verified"`
	Candidates []Candidate `json:"candidates"`

	// 统计信息
	Stats ScanStats `json:"stats"`

	// 输出路径
	OutputDir string `json:"output_dir"`

	// 配置快照
	Config ScanConfig `json:"config"`
}

// ToJSON 序列化为JSON
func (r *ScanReport) ToJSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// FromJSON 从JSON反序列化
func (r *ScanReport) FromJSON(data []byte) error {
	return json.Unmarshal(data, r)
}

// BatchScanSummary 批量扫描汇总
type BatchScanSummary struct {
	ID          string    `json:"id"`
	URLsFile    string    `json:"urls_file"` // URL列表文件路径
	CreatedAt   time.Time `json:"created_at"`
	CompletedAt time.Time `json:"completed_at"`

	// 统计
	TotalURLs      int `json:"total_urls"`
	SuccessfulURLs int `json:"successful_urls"`
	FailedURLs     int `json:"failed_urls"`
	TotalFound     int `json:"total_found"` // 所有扫描找到的候选总数

	// 子任务ID列表
	SubTasks []string `json:"sub_tasks"`
}
