package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/RecoveryAshes/StreamFind/internal/models"
	"github.com/RecoveryAshes/StreamFind/internal/utils"
	"github.com/spf13/viper"
)

const (
	// DefaultConfigFile 默认头部配置文件路径
	DefaultConfigFile = "configs/headers.yaml"

	// MaxConfigFileSize 头部配置文件大小上限 (1MB)
	// 头部配置应当很小,超大文件基本是配错了路径
	MaxConfigFileSize = 1 * 1024 * 1024
)

//go:embed headers_template.yaml
var defaultHeaderTemplate string

// HeaderConfigLoader HTTP头部配置文件加载器
// 首次运行时在默认路径落一份带注释的模板,方便用户直接改
type HeaderConfigLoader struct {
	configPath string
}

// NewHeaderConfigLoader 创建头部配置加载器
// configPath为空时使用默认路径
func NewHeaderConfigLoader(configPath string) *HeaderConfigLoader {
	if configPath == "" {
		configPath = DefaultConfigFile
	}
	return &HeaderConfigLoader{configPath: configPath}
}

// EnsureConfigExists 确保配置文件存在,缺失时生成内置模板
func (hcl *HeaderConfigLoader) EnsureConfigExists() error {
	if _, err := os.Stat(hcl.configPath); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("无法访问配置文件 [%s]: %w", hcl.configPath, err)
	}

	dir := filepath.Dir(hcl.configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("无法创建配置目录 [%s]: %w", dir, err)
	}

	if err := os.WriteFile(hcl.configPath, []byte(defaultHeaderTemplate), 0644); err != nil {
		return fmt.Errorf("无法生成配置文件 [%s]: %w", hcl.configPath, err)
	}

	utils.Infof("已生成头部配置模板: %s", hcl.configPath)
	return nil
}

// ValidateFileSize 验证配置文件大小在限制内
func (hcl *HeaderConfigLoader) ValidateFileSize() error {
	info, err := os.Stat(hcl.configPath)
	if err != nil {
		return fmt.Errorf("无法读取配置文件信息 [%s]: %w", hcl.configPath, err)
	}

	if info.Size() > MaxConfigFileSize {
		return &models.ConfigError{
			FilePath: hcl.configPath,
			Cause: fmt.Errorf("配置文件过大: %d 字节 (最大 %d 字节)",
				info.Size(), MaxConfigFileSize),
		}
	}

	return nil
}

// LoadConfig 加载并解析头部配置
// 文件缺失时先生成模板再加载; headers为空的合法配置返回空map
func (hcl *HeaderConfigLoader) LoadConfig() (*models.HeaderConfig, error) {
	if err := hcl.EnsureConfigExists(); err != nil {
		return nil, err
	}

	if err := hcl.ValidateFileSize(); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigFile(hcl.configPath)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, &models.ConfigError{
			FilePath: hcl.configPath,
			Cause:    err,
		}
	}

	var config models.HeaderConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, &models.ConfigError{
			FilePath: hcl.configPath,
			Cause:    fmt.Errorf("配置绑定失败: %w", err),
		}
	}

	if config.Headers == nil {
		config.Headers = make(map[string]string)
	}

	return &config, nil
}
