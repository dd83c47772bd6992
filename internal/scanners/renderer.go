package scanners

import (
	"fmt"
	"sync"
	"time"

	"github.com/RecoveryAshes/StreamFind/internal/models"
	"github.com/RecoveryAshes/StreamFind/internal/utils"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/shirou/gopsutil/v3/mem"
)

const (
	// navigationTimeout 页面导航超时
	navigationTimeout = 30 * time.Second

	// requestIdleWindow 网络静默判定窗口: 该时长内无未完成请求视为静默
	requestIdleWindow = 1 * time.Second

	// browserMemoryReserve 启动浏览器前要求的最小可用系统内存
	browserMemoryReserve = 500 * 1024 * 1024
)

// 浏览器二进制一次性预备,进程生命周期内只执行一次
// 与每次扫描的逻辑完全解耦: 缓存中已有二进制时Get直接返回路径
var (
	browserOnce sync.Once
	browserBin  string
	browserErr  error
)

// ensureBrowserBinary 确保无头浏览器二进制可用,返回其路径
// 首次调用会在缺失时自动下载,结果在进程内记忆
func ensureBrowserBinary() (string, error) {
	browserOnce.Do(func() {
		b := launcher.NewBrowser()
		utils.Infof("🧩 检查无头浏览器二进制...")
		browserBin, browserErr = b.Get()
		if browserErr != nil {
			utils.Errorf("浏览器二进制预备失败: %v", browserErr)
			return
		}
		utils.Debugf("浏览器二进制就绪: %s", browserBin)
	})
	return browserBin, browserErr
}

// Renderer 渲染采集器(使用Rod)
// 在隔离的无头浏览器中执行页面脚本,等待网络静默并额外停留
// 固定的settle时长,让脚本延迟发起的请求完成,然后返回
// 物化后的标记文本和导航后的最终URL。
// 每次调用启动一个浏览器实例,顺序执行,用完即关。
type Renderer struct {
	config models.ScanConfig

	// HTTP头部提供者(出站身份)
	headerProvider models.HeaderProvider
}

// NewRenderer 创建渲染采集器
func NewRenderer(config models.ScanConfig, headerProvider models.HeaderProvider) *Renderer {
	return &Renderer{
		config:         config,
		headerProvider: headerProvider,
	}
}

// Render 渲染单个页面,返回渲染后的HTML和最终URL
func (r *Renderer) Render(pageURL string) (string, string, error) {
	// 内存预检: 可用内存不足时拒绝启动浏览器(可恢复失败)
	if err := checkAvailableMemory(); err != nil {
		return "", "", err
	}

	bin, err := ensureBrowserBinary()
	if err != nil {
		return "", "", fmt.Errorf("浏览器二进制不可用: %w", err)
	}

	// 忽略证书错误,允许访问自签名、过期或主机名不匹配的HTTPS站点
	l := launcher.New().
		Bin(bin).
		Headless(r.config.Headless).
		Set("ignore-certificate-errors")

	controlURL, err := l.Launch()
	if err != nil {
		return "", "", fmt.Errorf("启动浏览器失败: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return "", "", fmt.Errorf("连接浏览器失败: %w", err)
	}
	defer func() {
		_ = browser.Close()
		l.Cleanup()
		utils.Debugf("浏览器已关闭")
	}()

	utils.Debugf("浏览器已启动: %s", controlURL)

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return "", "", fmt.Errorf("创建页面失败: %w", err)
	}

	if err := r.applyHeaders(page); err != nil {
		utils.Warnf("设置浏览器请求头部失败: %v", err)
	}

	timed := page.Timeout(navigationTimeout)
	if err := timed.Navigate(pageURL); err != nil {
		return "", "", fmt.Errorf("导航失败 [%s]: %w", pageURL, err)
	}
	if err := timed.WaitLoad(); err != nil {
		return "", "", fmt.Errorf("等待页面加载失败 [%s]: %w", pageURL, err)
	}

	// 等待网络静默
	wait := timed.WaitRequestIdle(requestIdleWindow, nil, nil, nil)
	wait()

	// 额外settle等待,让脚本延迟发起的请求完成
	if r.config.WaitTime > 0 {
		utils.Debugf("页面加载完成,额外等待 %d 秒", r.config.WaitTime)
		time.Sleep(time.Duration(r.config.WaitTime) * time.Second)
	}

	html, err := page.HTML()
	if err != nil {
		return "", "", fmt.Errorf("提取渲染内容失败 [%s]: %w", pageURL, err)
	}

	info, err := page.Info()
	if err != nil {
		return "", "", fmt.Errorf("获取页面信息失败 [%s]: %w", pageURL, err)
	}

	utils.Debugf("渲染完成: %s (最终URL: %s, %d 字节)", pageURL, info.URL, len(html))
	return html, info.URL, nil
}

// applyHeaders 将头部提供者的头部应用到浏览器出站请求
func (r *Renderer) applyHeaders(page *rod.Page) error {
	if r.headerProvider == nil {
		return nil
	}
	headers, err := r.headerProvider.GetHeaders()
	if err != nil {
		return err
	}

	pairs := make([]string, 0, len(headers)*2)
	for name, values := range headers {
		if len(values) > 0 {
			pairs = append(pairs, name, values[0])
		}
	}
	if len(pairs) == 0 {
		return nil
	}

	_, err = page.SetExtraHeaders(pairs)
	return err
}

// checkAvailableMemory 检查系统可用内存是否足够启动浏览器
func checkAvailableMemory() error {
	vmStat, err := mem.VirtualMemory()
	if err != nil {
		// 读取失败不阻止渲染,只记录
		utils.Warnf("获取系统内存失败,跳过内存预检: %v", err)
		return nil
	}

	if vmStat.Available < browserMemoryReserve {
		return fmt.Errorf("可用内存不足,拒绝启动浏览器: %.0f MB < %.0f MB",
			float64(vmStat.Available)/(1024*1024), float64(browserMemoryReserve)/(1024*1024))
	}

	utils.Debugf("内存预检通过: 可用 %.0f MB", float64(vmStat.Available)/(1024*1024))
	return nil
}
