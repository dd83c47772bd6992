package scanners

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/RecoveryAshes/StreamFind/internal/models"
	"github.com/RecoveryAshes/StreamFind/internal/utils"
	"github.com/andybalholm/brotli"
	"github.com/gocolly/colly/v2"
)

// FetchError 抓取失败错误
// 调用方根据场景决定是否致命: 顶层页面抓取失败致命,子文档/验证抓取失败可跳过
type FetchError struct {
	URL        string // 请求的URL
	StatusCode int    // HTTP状态码 (网络层失败时为0)
	Cause      error  // 底层错误
}

// Error 实现error接口
func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("抓取失败 [%s]: HTTP %d: %v", e.URL, e.StatusCode, e.Cause)
	}
	return fmt.Sprintf("抓取失败 [%s]: %v", e.URL, e.Cause)
}

// Unwrap 支持errors.Unwrap
func (e *FetchError) Unwrap() error {
	return e.Cause
}

// Fetcher 静态页面抓取器(使用Colly)
// 配置在构造时注入,多个扫描可各自持有独立配置的实例
type Fetcher struct {
	config models.ScanConfig

	// HTTP头部提供者(出站身份)
	headerProvider models.HeaderProvider

	// 页面抓取客户端(跟随重定向,跳过TLS证书验证)
	pageClient *http.Client

	// 清单验证客户端(更短的超时)
	verifyClient *http.Client
}

// NewFetcher 创建页面抓取器
func NewFetcher(config models.ScanConfig, headerProvider models.HeaderProvider) *Fetcher {
	// 跳过证书验证,允许访问自签名、过期或主机名不匹配的HTTPS站点
	transport := &http.Transport{
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: true,
		},
	}

	pageTimeout := time.Duration(config.PageTimeout) * time.Second
	verifyTimeout := time.Duration(config.VerifyTimeout) * time.Second
	utils.Debugf("抓取器: 页面超时 %d 秒, 验证超时 %d 秒", config.PageTimeout, config.VerifyTimeout)

	return &Fetcher{
		config:         config,
		headerProvider: headerProvider,
		pageClient: &http.Client{
			Transport: transport,
			Timeout:   pageTimeout,
		},
		verifyClient: &http.Client{
			Transport: transport,
			Timeout:   verifyTimeout,
		},
	}
}

// FetchPage 抓取单个页面,返回响应正文和重定向后的最终URL
// 同步执行,跟随HTTP重定向;非2xx状态码、网络失败、超时均返回FetchError
func (f *Fetcher) FetchPage(pageURL string) (string, string, error) {
	// 每次抓取使用新collector,避免Visit历史干扰重复抓取
	c := colly.NewCollector(
		colly.IgnoreRobotsTxt(),
	)
	c.SetClient(f.pageClient)
	c.SetRequestTimeout(f.pageClient.Timeout)

	var (
		body     string
		finalURL string
		fetched  bool
		fetchErr error
	)

	c.OnRequest(func(r *colly.Request) {
		f.applyHeaders(func(name, value string) {
			r.Headers.Set(name, value)
		})
	})

	accept := func(r *colly.Response) {
		raw := r.Body
		if encoding := r.Headers.Get("Content-Encoding"); encoding != "" {
			decompressed, err := decompressBody(encoding, r.Body)
			if err != nil {
				utils.Warnf("解压响应失败 [%s] (编码=%s): %v", pageURL, encoding, err)
			} else {
				raw = decompressed
			}
		}
		body = string(raw)
		// 重定向后Request.URL即为最终URL
		finalURL = r.Request.URL.String()
		fetched = true
	}

	c.OnResponse(accept)

	c.OnError(func(r *colly.Response, err error) {
		// Colly把203-299的状态码也当作错误,这里接受全部2xx响应
		if r.StatusCode >= 200 && r.StatusCode < 300 {
			accept(r)
			return
		}
		fetchErr = &FetchError{
			URL:        pageURL,
			StatusCode: r.StatusCode,
			Cause:      err,
		}
	})

	if err := c.Visit(pageURL); err != nil && fetchErr == nil && !fetched {
		fetchErr = &FetchError{URL: pageURL, Cause: err}
	}

	if fetchErr != nil {
		return "", "", fetchErr
	}

	utils.Debugf("抓取成功: %s (最终URL: %s, %d 字节)", pageURL, finalURL, len(body))
	return body, finalURL, nil
}

// FetchVerifyBody 抓取候选清单内容用于验证
// 无论HTTP状态码如何都返回正文(清单验证只看内容特征);网络失败返回错误
func (f *Fetcher) FetchVerifyBody(manifestURL string) (string, error) {
	req, err := http.NewRequest(http.MethodGet, manifestURL, nil)
	if err != nil {
		return "", &FetchError{URL: manifestURL, Cause: err}
	}

	f.applyHeaders(func(name, value string) {
		req.Header.Set(name, value)
	})

	resp, err := f.verifyClient.Do(req)
	if err != nil {
		return "", &FetchError{URL: manifestURL, Cause: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &FetchError{URL: manifestURL, StatusCode: resp.StatusCode, Cause: err}
	}

	if encoding := resp.Header.Get("Content-Encoding"); encoding != "" {
		decompressed, decErr := decompressBody(encoding, raw)
		if decErr == nil {
			raw = decompressed
		}
	}

	return string(raw), nil
}

// applyHeaders 将头部提供者的头部应用到出站请求
func (f *Fetcher) applyHeaders(set func(name, value string)) {
	if f.headerProvider == nil {
		return
	}
	headers, err := f.headerProvider.GetHeaders()
	if err != nil {
		utils.Warnf("获取HTTP头部失败: %v", err)
		return
	}
	for name, values := range headers {
		if len(values) > 0 {
			set(name, values[0])
		}
	}
}

// decompressBody 根据Content-Encoding头部解压响应体
// 支持 gzip, deflate, br (Brotli) 三种压缩格式
func decompressBody(contentEncoding string, body []byte) ([]byte, error) {
	encoding := strings.ToLower(strings.TrimSpace(contentEncoding))

	switch encoding {
	case "gzip":
		reader, err := gzip.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("gzip解压失败: %w", err)
		}
		defer reader.Close()

		decompressed, err := io.ReadAll(reader)
		if err != nil {
			return nil, fmt.Errorf("gzip读取失败: %w", err)
		}
		return decompressed, nil

	case "deflate":
		reader := flate.NewReader(bytes.NewReader(body))
		defer reader.Close()

		decompressed, err := io.ReadAll(reader)
		if err != nil {
			return nil, fmt.Errorf("deflate读取失败: %w", err)
		}
		return decompressed, nil

	case "br":
		reader := brotli.NewReader(bytes.NewReader(body))
		decompressed, err := io.ReadAll(reader)
		if err != nil {
			return nil, fmt.Errorf("brotli读取失败: %w", err)
		}
		return decompressed, nil

	case "":
		return body, nil

	default:
		// 未知编码,返回原始内容
		utils.Warnf("未知的Content-Encoding: %s", contentEncoding)
		return body, nil
	}
}
