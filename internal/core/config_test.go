package core

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig_Defaults(t *testing.T) {
	// 显式指定不存在的配置文件应报错
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nonexistent.yaml")); err == nil {
		t.Error("显式指定的配置文件不存在时应返回错误")
	}

	// 不提供配置文件时使用内置默认值
	config, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if config.Scan.Depth != 0 {
		t.Errorf("Scan.Depth = %d, want 0", config.Scan.Depth)
	}
	if config.Scan.WaitTime != 5 {
		t.Errorf("Scan.WaitTime = %d, want 5", config.Scan.WaitTime)
	}
	if config.Scan.PageTimeout != 20 {
		t.Errorf("Scan.PageTimeout = %d, want 20", config.Scan.PageTimeout)
	}
	if config.Scan.VerifyTimeout != 8 {
		t.Errorf("Scan.VerifyTimeout = %d, want 8", config.Scan.VerifyTimeout)
	}
	if config.Scan.FrameLimit != 10 {
		t.Errorf("Scan.FrameLimit = %d, want 10", config.Scan.FrameLimit)
	}
	if !config.Scan.Headless {
		t.Error("Scan.Headless默认应为true")
	}
	if config.Logging.Level != "info" {
		t.Errorf("Logging.Level = %v, want info", config.Logging.Level)
	}
	if config.Output.BaseDir != "output" {
		t.Errorf("Output.BaseDir = %v, want output", config.Output.BaseDir)
	}
}

func TestLoadConfig_FromFile(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "config.yaml")

	content := `scan:
  depth: 2
  wait_time: 10
  page_timeout: 30
logging:
  level: debug
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("写入配置文件失败: %v", err)
	}

	config, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if config.Scan.Depth != 2 {
		t.Errorf("Scan.Depth = %d, want 2", config.Scan.Depth)
	}
	if config.Scan.WaitTime != 10 {
		t.Errorf("Scan.WaitTime = %d, want 10", config.Scan.WaitTime)
	}
	if config.Scan.PageTimeout != 30 {
		t.Errorf("Scan.PageTimeout = %d, want 30", config.Scan.PageTimeout)
	}
	// 未配置的字段保持默认值
	if config.Scan.VerifyTimeout != 8 {
		t.Errorf("Scan.VerifyTimeout = %d, want 8", config.Scan.VerifyTimeout)
	}
	if config.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %v, want debug", config.Logging.Level)
	}
}

func TestConfig_MergeCLIFlags(t *testing.T) {
	config, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	// 负值/nil表示命令行未指定,保留原值
	config.MergeCLIFlags(-1, -1, -1, -1, -1, nil, nil)
	if config.Scan.Depth != 0 || config.Scan.WaitTime != 5 {
		t.Errorf("未指定的参数被修改: depth=%d wait=%d", config.Scan.Depth, config.Scan.WaitTime)
	}

	// 显式指定的参数覆盖配置
	useRender, headless := true, false
	config.MergeCLIFlags(2, 15, 40, 12, 5, &useRender, &headless)
	scan := config.GetScanConfig()
	if scan.Depth != 2 {
		t.Errorf("Depth = %d, want 2", scan.Depth)
	}
	if scan.WaitTime != 15 {
		t.Errorf("WaitTime = %d, want 15", scan.WaitTime)
	}
	if scan.PageTimeout != 40 {
		t.Errorf("PageTimeout = %d, want 40", scan.PageTimeout)
	}
	if scan.VerifyTimeout != 12 {
		t.Errorf("VerifyTimeout = %d, want 12", scan.VerifyTimeout)
	}
	if scan.FrameLimit != 5 {
		t.Errorf("FrameLimit = %d, want 5", scan.FrameLimit)
	}
	if !scan.UseRender {
		t.Error("UseRender应为true")
	}
	if scan.Headless {
		t.Error("Headless应为false")
	}
}

func TestConfig_MergeCLIFlags_KeepsFileBooleans(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "config.yaml")

	// 配置文件与命令行默认值相反的布尔组合
	content := `scan:
  use_render: true
  headless: false
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("写入配置文件失败: %v", err)
	}

	config, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	// 命令行未指定布尔参数时不得覆盖配置文件的值
	config.MergeCLIFlags(-1, -1, -1, -1, -1, nil, nil)
	if !config.Scan.UseRender {
		t.Error("配置文件的use_render=true被未指定的命令行参数覆盖")
	}
	if config.Scan.Headless {
		t.Error("配置文件的headless=false被未指定的命令行参数覆盖")
	}

	// 显式指定时命令行优先
	headless := true
	config.MergeCLIFlags(-1, -1, -1, -1, -1, nil, &headless)
	if !config.Scan.Headless {
		t.Error("显式指定的--headless未覆盖配置文件的值")
	}
	if !config.Scan.UseRender {
		t.Error("未指定的use_render不应随headless一起被修改")
	}
}
