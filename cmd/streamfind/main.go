package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/RecoveryAshes/StreamFind/internal/core"
	"github.com/RecoveryAshes/StreamFind/internal/utils"
	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

// 命令行参数
var (
	// 全局参数
	configFile string
	verbose    bool
	logLevel   string

	// HTTP头部参数
	headers        []string // 自定义HTTP请求头
	validateConfig bool     // 验证配置文件

	// 扫描参数
	targetURL     string
	urlFile       string
	depth         int
	waitTime      int
	pageTimeout   int
	verifyTimeout int
	frameLimit    int
	useRender     bool
	headless      bool
	outputDir     string

	// 批量处理参数
	batchDelay      int
	continueOnError bool
)

var rootCmd = &cobra.Command{
	Use:   "streamfind",
	Short: "流媒体清单发现工具",
	Long: `StreamFind - 网页流媒体清单 (m3u8/mpd) 发现工具 (Go版本)

这是一个专门用于从网页中自动发现流媒体播放地址的工具,支持:
  • 静态抓取和无头浏览器渲染两种模式
  • iframe嵌套页面有界遍历 (深度0-2)
  • HLS/DASH master清单识别与验证
  • 最佳播放地址自动选择
  • 批量URL处理
  • 自定义HTTP请求头

HTTP头部配置示例:
  # 通过配置文件 (configs/headers.yaml)
  streamfind -u https://example.com/watch/123

  # 通过命令行参数
  streamfind -u https://example.com/watch/123 -H "Referer: https://example.com" -H "Cookie: session=abc"

  # 验证配置文件
  streamfind --validate-config

版本: ` + Version + `
构建时间: ` + BuildTime,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// 加载配置
		config, err := core.LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("加载配置失败: %w", err)
		}

		// 初始化日志系统
		logConfig := utils.LogConfig{
			Level:      config.Logging.Level,
			LogDir:     config.Logging.LogDir,
			MaxSize:    config.Logging.Rotation.MaxSize,
			MaxBackups: config.Logging.Rotation.MaxBackups,
			MaxAge:     config.Logging.Rotation.MaxAge,
			Compress:   config.Logging.Rotation.Compress,
		}

		// 命令行参数覆盖配置文件
		if logLevel != "" {
			logConfig.Level = logLevel
		}

		if err := utils.InitLogger(logConfig); err != nil {
			return fmt.Errorf("初始化日志系统失败: %w", err)
		}

		if verbose {
			utils.Info("详细模式已启用")
		}

		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		// 设置信号处理(Ctrl+C优雅退出)
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

		go func() {
			sig := <-sigChan
			utils.Warnf("\n收到中断信号: %v, 正在优雅关闭...", sig)
			os.Exit(0)
		}()

		// 创建HTTP头部管理器
		headerManager, err := core.NewHeaderManager(configFile, headers)
		if err != nil {
			return fmt.Errorf("创建HTTP头部管理器失败: %w", err)
		}

		// 如果用户请求验证配置
		if validateConfig {
			utils.Info("🔍 验证HTTP头部配置...")
			if err := headerManager.LoadConfig(); err != nil {
				return fmt.Errorf("加载配置失败: %w", err)
			}
			if err := headerManager.Validate(); err != nil {
				return fmt.Errorf("配置验证失败: %w", err)
			}

			// 显示合并后的头部(脱敏)
			safeHeaders := headerManager.GetSafeHeaders()
			utils.Info("✅ 配置验证通过!")
			utils.Infof("当前有效的HTTP头部 (%d个):", len(safeHeaders))
			for name, value := range safeHeaders {
				utils.Infof("  %s: %s", name, value)
			}
			return nil
		}

		// 如果没有提供任何参数,显示帮助信息
		if targetURL == "" && urlFile == "" {
			return cmd.Help()
		}

		// 验证参数
		if err := ValidateFlags(
			targetURL,
			depth,
			waitTime,
			pageTimeout,
			verifyTimeout,
			frameLimit,
		); err != nil {
			return err
		}

		// 重新加载配置并合并命令行参数
		appConfig, err := core.LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("加载配置失败: %w", err)
		}

		// 未在命令行显式指定的参数保留配置文件的值
		mergeFlag := func(name string, value int) int {
			if cmd.Flags().Changed(name) {
				return value
			}
			return -1
		}
		mergeBoolFlag := func(name string, value bool) *bool {
			if cmd.Flags().Changed(name) {
				return &value
			}
			return nil
		}
		appConfig.MergeCLIFlags(
			mergeFlag("depth", depth),
			mergeFlag("wait", waitTime),
			mergeFlag("page-timeout", pageTimeout),
			mergeFlag("verify-timeout", verifyTimeout),
			mergeFlag("frame-limit", frameLimit),
			mergeBoolFlag("render", useRender),
			mergeBoolFlag("headless", headless),
		)
		scanConfig := appConfig.GetScanConfig()

		// 检查是否为批量处理模式
		if urlFile != "" {
			// 批量处理模式
			urls, err := utils.ReadURLsFromFile(urlFile)
			if err != nil {
				return fmt.Errorf("读取URL文件失败: %w", err)
			}

			// 创建批量扫描器
			batchScanner := core.NewBatchScanner(scanConfig, outputDir, batchDelay, continueOnError, headerManager)

			// 执行批量扫描
			if _, err := batchScanner.ScanBatch(urls, urlFile); err != nil {
				return fmt.Errorf("批量扫描失败: %w", err)
			}

			utils.Info("✨ 批量扫描任务完成!")
			return nil
		}

		// 单URL扫描模式
		scanner, err := core.NewScanner(targetURL, scanConfig, outputDir, headerManager)
		if err != nil {
			return fmt.Errorf("创建扫描器失败: %w", err)
		}

		// 执行扫描
		result, err := scanner.Scan()
		if err != nil {
			return fmt.Errorf("扫描失败: %w", err)
		}

		// 显示扫描结果
		fmt.Println("\n==================================================")
		fmt.Println("📊 扫描结果")
		fmt.Println("==================================================")
		if result.Best != "" {
			fmt.Printf("🎯 最佳清单: %s\n", result.Best)
			fmt.Printf("✅ 已验证: %v\n", result.Verified)
		} else {
			fmt.Println("❌ 未发现清单候选")
		}
		fmt.Printf("🔍 候选总数: %d\n", len(result.Candidates))
		for i, c := range result.Candidates {
			fmt.Printf("  [%d] (%s) %s\n", i+1, c.Format, c.URL)
		}
		fmt.Printf("📄 抓取页面数: %d\n", result.Stats.PagesFetched)
		fmt.Printf("⏭️  跳过子文档数: %d\n", result.Stats.FramesSkipped)
		fmt.Printf("🔬 验证次数: %d\n", result.Stats.VerifyChecks)
		fmt.Printf("⏱️  总耗时: %.2f秒\n", result.Stats.Duration)
		fmt.Println("==================================================")

		utils.Info("✨ 扫描任务完成!")
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "显示版本信息",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("StreamFind %s\n", Version)
		fmt.Printf("构建时间: %s\n", BuildTime)
		fmt.Println("Go实现版本 - 流媒体清单发现工具")
	},
}

func init() {
	// 全局参数
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "配置文件路径")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "详细输出模式")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "日志级别 (trace|debug|info|warn|error)")

	// HTTP头部参数
	rootCmd.PersistentFlags().StringSliceVarP(&headers, "header", "H", []string{}, "自定义HTTP头部,格式: 'Name: Value',可多次指定")
	rootCmd.PersistentFlags().BoolVar(&validateConfig, "validate-config", false, "验证配置文件正确性")

	// 扫描参数
	rootCmd.Flags().StringVarP(&targetURL, "url", "u", "", "目标URL (必需,除非使用 --url-file)")
	rootCmd.Flags().StringVarP(&urlFile, "url-file", "f", "", "包含URL列表的文件路径")
	rootCmd.Flags().IntVarP(&depth, "depth", "d", 0, "iframe遍历深度 (0-2)")
	rootCmd.Flags().IntVarP(&waitTime, "wait", "w", 5, "渲染后额外等待时间(秒)")
	rootCmd.Flags().IntVar(&pageTimeout, "page-timeout", 20, "页面抓取超时(秒)")
	rootCmd.Flags().IntVar(&verifyTimeout, "verify-timeout", 8, "清单验证超时(秒)")
	rootCmd.Flags().IntVar(&frameLimit, "frame-limit", 10, "每次提取保留的iframe数量上限")
	rootCmd.Flags().BoolVar(&useRender, "render", false, "使用无头浏览器渲染页面")
	rootCmd.Flags().BoolVar(&headless, "headless", true, "无头浏览器模式")
	rootCmd.Flags().StringVarP(&outputDir, "output", "o", "output", "输出目录")

	// 批量处理参数
	rootCmd.Flags().IntVar(&batchDelay, "batch-delay", 1, "批量处理URL间延迟(秒)")
	rootCmd.Flags().BoolVar(&continueOnError, "continue-on-error", true, "遇到错误继续处理")

	// 添加子命令
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}
