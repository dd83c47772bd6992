package models

import (
	"encoding/json"
	"fmt"
	"net/url"
	"time"
)

// TaskStatus 任务状态
type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"   // 待执行
	TaskStatusRunning   TaskStatus = "running"   // 执行中
	TaskStatusCompleted TaskStatus = "completed" // 已完成
	TaskStatusFailed    TaskStatus = "failed"    // 失败
)

// ScanMode 扫描模式
type ScanMode string

const (
	ModeStatic ScanMode = "static" // 静态抓取页面HTML
	ModeRender ScanMode = "render" // 无头浏览器渲染后提取
)

// ScanStats 扫描统计
type ScanStats struct {
	PagesFetched    int     `json:"pages_fetched"`    // 成功抓取的页面数(含子文档)
	FramesSkipped   int     `json:"frames_skipped"`   // 抓取失败被跳过的子文档数
	CandidatesFound int     `json:"candidates_found"` // 去重后的候选数
	VerifyChecks    int     `json:"verify_checks"`    // 执行的清单验证次数
	Duration        float64 `json:"duration"`         // 总耗时(秒)
}

// ScanConfig 扫描配置
type ScanConfig struct {
	Depth         int  `json:"depth" mapstructure:"depth"`                   // iframe遍历深度 (0-2, 默认:0)
	WaitTime      int  `json:"wait_time" mapstructure:"wait_time"`           // 渲染后额外等待时间(秒) (默认:5)
	PageTimeout   int  `json:"page_timeout" mapstructure:"page_timeout"`     // 页面抓取超时(秒) (默认:20)
	VerifyTimeout int  `json:"verify_timeout" mapstructure:"verify_timeout"` // 清单验证抓取超时(秒) (默认:8)
	FrameLimit    int  `json:"frame_limit" mapstructure:"frame_limit"`       // 每次提取保留的iframe数量上限 (默认:10)
	UseRender     bool `json:"use_render" mapstructure:"use_render"`         // 是否使用无头浏览器渲染
	Headless      bool `json:"headless" mapstructure:"headless"`             // 无头模式 (默认:true)
}

// Validate 验证配置
func (c *ScanConfig) Validate() error {
	if c.Depth < 0 || c.Depth > 2 {
		return fmt.Errorf("iframe深度必须在0-2之间")
	}
	if c.WaitTime < 0 || c.WaitTime > 60 {
		return fmt.Errorf("等待时间必须在0-60秒之间")
	}
	if c.PageTimeout < 1 || c.PageTimeout > 120 {
		return fmt.Errorf("页面超时必须在1-120秒之间")
	}
	if c.VerifyTimeout < 1 || c.VerifyTimeout > 60 {
		return fmt.Errorf("验证超时必须在1-60秒之间")
	}
	if c.FrameLimit < 1 || c.FrameLimit > 50 {
		return fmt.Errorf("iframe数量上限必须在1-50之间")
	}
	return nil
}

// DefaultScanConfig 默认扫描配置
func DefaultScanConfig() ScanConfig {
	return ScanConfig{
		Depth:         0,
		WaitTime:      5,
		PageTimeout:   20,
		VerifyTimeout: 8,
		FrameLimit:    10,
		UseRender:     false,
		Headless:      true,
	}
}

// ScanResult 单次扫描的结果
// Best为空表示没有候选; Verified=false且Best非空表示回退到首个未验证候选
type ScanResult struct {
	// Best 选中的清单URL(优先已验证的master清单)
	Best string `json:"best,omitempty"`

	// Verified Best是否通过了master清单验证
	Verified bool `json:"verified"`

	// Candidates 去重后的全部候选,按首次发现顺序
	Candidates []Candidate `json:"candidates"`

	// Stats 扫描统计
	Stats ScanStats `json:"stats"`
}

// ScanTask 扫描任务
type ScanTask struct {
	// 基本信息
	ID          string     `json:"id"`                     // 任务唯一ID (UUID)
	TargetURL   string     `json:"target_url"`             // 目标页面URL
	Domain      string     `json:"domain"`                 // 解析的域名
	CreatedAt   time.Time  `json:"created_at"`             // 创建时间
	StartedAt   *time.Time `json:"started_at,omitempty"`   // 开始时间
	CompletedAt *time.Time `json:"completed_at,omitempty"` // 完成时间

	// 配置参数
	Config ScanConfig `json:"config"`

	// 执行状态
	Status TaskStatus `json:"status"`
	Mode   ScanMode   `json:"mode"`

	// 结果
	Result *ScanResult `json:"result,omitempty"`

	// 错误信息
	ErrorMessage string `json:"error_message,omitempty"`
}

// NewScanTask 创建新任务
func NewScanTask(targetURL string, config ScanConfig) (*ScanTask, error) {
	if err := ValidateURL(targetURL); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	parsed, _ := url.Parse(targetURL)

	mode := ModeStatic
	if config.UseRender {
		mode = ModeRender
	}

	return &ScanTask{
		ID:        generateID(),
		TargetURL: targetURL,
		Domain:    parsed.Host,
		CreatedAt: time.Now(),
		Config:    config,
		Status:    TaskStatusPending,
		Mode:      mode,
	}, nil
}

// ToJSON 序列化为JSON
func (t *ScanTask) ToJSON() ([]byte, error) {
	return json.MarshalIndent(t, "", "  ")
}

// FromJSON 从JSON反序列化
func (t *ScanTask) FromJSON(data []byte) error {
	return json.Unmarshal(data, t)
}
