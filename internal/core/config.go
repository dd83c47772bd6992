package core

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/RecoveryAshes/StreamFind/internal/models"
	"github.com/spf13/viper"
)

// Config 应用程序配置
type Config struct {
	Scan    models.ScanConfig `mapstructure:"scan"`
	Logging LoggingConfig     `mapstructure:"logging"`
	Output  OutputConfig      `mapstructure:"output"`
}

// LoggingConfig 日志配置
type LoggingConfig struct {
	Level    string         `mapstructure:"level"`
	LogDir   string         `mapstructure:"log_dir"`
	Rotation RotationConfig `mapstructure:"rotation"`
}

// RotationConfig 日志轮转配置
type RotationConfig struct {
	MaxSize    int  `mapstructure:"max_size"`
	MaxBackups int  `mapstructure:"max_backups"`
	MaxAge     int  `mapstructure:"max_age"`
	Compress   bool `mapstructure:"compress"`
}

// OutputConfig 输出配置
type OutputConfig struct {
	BaseDir          string `mapstructure:"base_dir"`
	DomainSeparation bool   `mapstructure:"domain_separation"`
}

// LoadConfig 加载配置文件
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	// 设置配置文件
	if configPath != "" {
		// 使用指定的配置文件
		v.SetConfigFile(configPath)
	} else {
		// 搜索默认位置
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		// 添加配置搜索路径
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")

		// 用户主目录
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".streamfind"))
		}
	}

	// 设置默认值
	setDefaults(v)

	// 读取配置文件
	if err := v.ReadInConfig(); err != nil {
		// 如果配置文件不存在,使用默认值
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
		// 配置文件不存在,使用默认值
	}

	// 解析配置
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	return &config, nil
}

// setDefaults 设置默认配置值
func setDefaults(v *viper.Viper) {
	// 扫描配置默认值
	v.SetDefault("scan.depth", 0)
	v.SetDefault("scan.wait_time", 5)
	v.SetDefault("scan.page_timeout", 20)
	v.SetDefault("scan.verify_timeout", 8)
	v.SetDefault("scan.frame_limit", 10)
	v.SetDefault("scan.use_render", false)
	v.SetDefault("scan.headless", true)

	// 日志配置默认值
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.log_dir", "logs")
	v.SetDefault("logging.rotation.max_size", 10)
	v.SetDefault("logging.rotation.max_backups", 3)
	v.SetDefault("logging.rotation.max_age", 28)
	v.SetDefault("logging.rotation.compress", true)

	// 输出配置默认值
	v.SetDefault("output.base_dir", "output")
	v.SetDefault("output.domain_separation", true)
}

// GetScanConfig 从配置中提取扫描配置
func (c *Config) GetScanConfig() models.ScanConfig {
	return c.Scan
}

// MergeCLIFlags 合并命令行参数到配置
// 整型参数传入负值、布尔参数传入nil表示命令行未指定,保留配置文件的值
func (c *Config) MergeCLIFlags(
	depth int,
	waitTime int,
	pageTimeout int,
	verifyTimeout int,
	frameLimit int,
	useRender *bool,
	headless *bool,
) {
	// 命令行参数优先于配置文件
	if depth >= 0 {
		c.Scan.Depth = depth
	}
	if waitTime >= 0 {
		c.Scan.WaitTime = waitTime
	}
	if pageTimeout > 0 {
		c.Scan.PageTimeout = pageTimeout
	}
	if verifyTimeout > 0 {
		c.Scan.VerifyTimeout = verifyTimeout
	}
	if frameLimit > 0 {
		c.Scan.FrameLimit = frameLimit
	}
	if useRender != nil {
		c.Scan.UseRender = *useRender
	}
	if headless != nil {
		c.Scan.Headless = *headless
	}
}
