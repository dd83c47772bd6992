package core

import (
	"net/http"

	"github.com/RecoveryAshes/StreamFind/internal/config"
	"github.com/RecoveryAshes/StreamFind/internal/models"
	"github.com/RecoveryAshes/StreamFind/internal/utils"
)

// DefaultUserAgent 默认出站身份(桌面Chrome)
// 部分站点对非浏览器UA返回空壳页面或直接拒绝,扫描默认伪装成浏览器
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) " +
	"Chrome/124 Safari/537.36"

// HeaderManager 管理出站HTTP头部的三个来源并按优先级合并
// 优先级: 内置默认 < headers.yaml配置 < 命令行-H参数
// 实现 models.HeaderProvider,抓取器和渲染器只看到合并结果
type HeaderManager struct {
	configFile string

	// 三层头部来源
	defaults http.Header
	config   http.Header
	cli      http.Header

	validator    *utils.HeaderValidator
	redactor     *utils.HeaderRedactor
	configLoader *config.HeaderConfigLoader

	loaded bool
}

// NewHeaderManager 创建头部管理器
// cliHeaders为命令行传入的"Name: Value"字符串列表,解析失败即报错
func NewHeaderManager(configFile string, cliHeaders []string) (*HeaderManager, error) {
	cli, err := models.CliHeaders(cliHeaders).Parse()
	if err != nil {
		return nil, err
	}

	return &HeaderManager{
		configFile:   configFile,
		defaults:     defaultHeaders(),
		cli:          cli,
		validator:    utils.NewHeaderValidator(),
		redactor:     utils.NewHeaderRedactor(),
		configLoader: config.NewHeaderConfigLoader(configFile),
	}, nil
}

// defaultHeaders 内置默认头部
// Accept-Encoding显式声明会关闭Go传输层的自动解压,抓取器按
// Content-Encoding手动解压,见scanners.decompressBody
func defaultHeaders() http.Header {
	return http.Header{
		"User-Agent":      []string{DefaultUserAgent},
		"Accept":          []string{"*/*"},
		"Accept-Encoding": []string{"gzip, deflate, br"},
	}
}

// LoadConfig 加载headers.yaml,重复调用是幂等的
func (hm *HeaderManager) LoadConfig() error {
	if hm.loaded {
		return nil
	}

	headerConfig, err := hm.configLoader.LoadConfig()
	if err != nil {
		utils.Errorf("加载HTTP头部配置失败: %v", err)
		return err
	}

	hm.config = make(http.Header, len(headerConfig.Headers))
	for name, value := range headerConfig.Headers {
		hm.config.Set(name, value)
	}
	hm.loaded = true

	if len(headerConfig.Headers) > 0 {
		utils.Debugf("成功加载%d个HTTP头部配置: %v",
			len(headerConfig.Headers), hm.redactor.Redact(hm.config))
	}

	return nil
}

// Validate 逐层验证所有头部
func (hm *HeaderManager) Validate() error {
	for _, layer := range []struct {
		name    string
		headers http.Header
	}{
		{"默认", hm.defaults},
		{"配置文件", hm.config},
		{"命令行", hm.cli},
	} {
		if err := hm.validator.Validate(layer.headers); err != nil {
			utils.Errorf("%s头部验证失败: %v", layer.name, err)
			return err
		}
	}

	utils.Debugf("所有HTTP头部验证通过")
	return nil
}

// GetMergedHeaders 按优先级合并三层头部
func (hm *HeaderManager) GetMergedHeaders() http.Header {
	result := make(http.Header)
	for _, layer := range []http.Header{hm.defaults, hm.config, hm.cli} {
		for name, values := range layer {
			result[name] = values
		}
	}
	return result
}

// GetSafeHeaders 返回脱敏后的合并头部,用于日志和配置校验输出
func (hm *HeaderManager) GetSafeHeaders() map[string]string {
	return hm.redactor.Redact(hm.GetMergedHeaders())
}

// GetHeaders 实现 models.HeaderProvider
// 首次调用加载并校验配置,之后直接返回合并结果
func (hm *HeaderManager) GetHeaders() (http.Header, error) {
	if err := hm.LoadConfig(); err != nil {
		return nil, err
	}
	if err := hm.Validate(); err != nil {
		return nil, err
	}
	return hm.GetMergedHeaders(), nil
}
