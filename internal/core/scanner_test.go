package core

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/RecoveryAshes/StreamFind/internal/models"
)

// fixedHeaderProvider 测试用的固定头部提供者
type fixedHeaderProvider struct{}

func (fixedHeaderProvider) GetHeaders() (http.Header, error) {
	return http.Header{
		"User-Agent": []string{"streamfind-test"},
	}, nil
}

// newScanSite 返回一个完整的测试站点:
// 播放页引用master和media两个HLS候选,只有master能通过验证
func newScanSite(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	var server *httptest.Server
	mux.HandleFunc("/watch", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<html><head><title>播放页</title></head><body>
<script>
var media = "%s/hls/media.m3u8";
var master = "%s/hls/master.m3u8";
</script>
</body></html>`, server.URL, server.URL)
	})
	mux.HandleFunc("/hls/media.m3u8", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("#EXTM3U\n#EXTINF:10.0,\nseg1.ts\n"))
	})
	mux.HandleFunc("/hls/master.m3u8", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("#EXTM3U\n#EXT-X-STREAM-INF:BANDWIDTH=1280000\nlow.m3u8\n"))
	})

	server = httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestScanner_StaticScan(t *testing.T) {
	site := newScanSite(t)
	outputDir := t.TempDir()

	scanner, err := NewScanner(site.URL+"/watch", models.DefaultScanConfig(), outputDir, fixedHeaderProvider{})
	if err != nil {
		t.Fatalf("NewScanner() error = %v", err)
	}

	result, err := scanner.Scan()
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	if result.Best != site.URL+"/hls/master.m3u8" {
		t.Errorf("Best = %v, 应选中验证通过的master播放列表", result.Best)
	}
	if !result.Verified {
		t.Error("Verified应为true")
	}
	if len(result.Candidates) != 2 {
		t.Errorf("候选数 = %d, want 2", len(result.Candidates))
	}
	if result.Stats.PagesFetched != 1 {
		t.Errorf("PagesFetched = %d, want 1", result.Stats.PagesFetched)
	}
	if result.Stats.CandidatesFound != 2 {
		t.Errorf("CandidatesFound = %d, want 2", result.Stats.CandidatesFound)
	}

	// 任务状态流转
	task := scanner.Task()
	if task.Status != models.TaskStatusCompleted {
		t.Errorf("Status = %v, want completed", task.Status)
	}
	if task.StartedAt == nil || task.CompletedAt == nil {
		t.Error("任务的开始和完成时间应被记录")
	}
	if task.Result == nil {
		t.Fatal("任务结果未记录")
	}

	// 报告文件落盘
	domain := task.Domain
	reportPath := filepath.Join(outputDir, domain, "reports", "scan_report.json")
	if _, err := os.Stat(reportPath); err != nil {
		t.Errorf("扫描报告未生成: %v", err)
	}
}

// newEmbedSite 返回一个带内嵌播放器的测试站点:
// 顶层页只有iframe和一个HLS候选,DASH清单藏在嵌入页里
func newEmbedSite(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	var server *httptest.Server
	mux.HandleFunc("/watch", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<html><head><title>嵌入播放页</title></head><body>
<script>var hls = "%s/hls/master.m3u8";</script>
<iframe src="/embed/player"></iframe>
</body></html>`, server.URL)
	})
	mux.HandleFunc("/embed/player", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<html><body>
<script>player.load("%s/dash/stream.mpd");</script>
</body></html>`, server.URL)
	})
	mux.HandleFunc("/hls/master.m3u8", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("#EXTM3U\n#EXT-X-STREAM-INF:BANDWIDTH=1280000\nlow.m3u8\n"))
	})
	mux.HandleFunc("/dash/stream.mpd", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<?xml version="1.0"?>
<MPD><Period><AdaptationSet></AdaptationSet></Period></MPD>`))
	})

	server = httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestScanner_DepthOneFrameDASH(t *testing.T) {
	site := newEmbedSite(t)
	outputDir := t.TempDir()

	config := models.DefaultScanConfig()
	config.Depth = 1

	scanner, err := NewScanner(site.URL+"/watch", config, outputDir, fixedHeaderProvider{})
	if err != nil {
		t.Fatalf("NewScanner() error = %v", err)
	}

	result, err := scanner.Scan()
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	// 嵌入页里验证通过的DASH清单优先于顶层的HLS候选
	if result.Best != site.URL+"/dash/stream.mpd" {
		t.Errorf("Best = %v, 应选中iframe中的DASH清单", result.Best)
	}
	if !result.Verified {
		t.Error("Verified应为true")
	}
	if len(result.Candidates) != 2 {
		t.Errorf("候选数 = %d, want 2", len(result.Candidates))
	}
	if result.Stats.PagesFetched != 2 {
		t.Errorf("PagesFetched = %d, 顶层页加嵌入页应为2", result.Stats.PagesFetched)
	}

	// 报告记录顶层页面的标题
	reportPath := filepath.Join(outputDir, scanner.Task().Domain, "reports", "scan_report.json")
	data, err := os.ReadFile(reportPath)
	if err != nil {
		t.Fatalf("读取扫描报告失败: %v", err)
	}
	var report models.ScanReport
	if err := report.FromJSON(data); err != nil {
		t.Fatalf("解析扫描报告失败: %v", err)
	}
	if report.PageTitle != "嵌入播放页" {
		t.Errorf("PageTitle = %v, want 嵌入播放页", report.PageTitle)
	}
	if report.Best != result.Best {
		t.Errorf("报告Best = %v, 应与扫描结果一致", report.Best)
	}
}

func TestScanner_NoCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><p>没有任何流媒体内容</p></body></html>`))
	}))
	t.Cleanup(server.Close)

	scanner, err := NewScanner(server.URL, models.DefaultScanConfig(), t.TempDir(), fixedHeaderProvider{})
	if err != nil {
		t.Fatalf("NewScanner() error = %v", err)
	}

	result, err := scanner.Scan()
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	if result.Best != "" {
		t.Errorf("Best = %v, 无候选时应为空", result.Best)
	}
	if result.Verified {
		t.Error("Verified应为false")
	}
	if len(result.Candidates) != 0 {
		t.Errorf("候选数 = %d, want 0", len(result.Candidates))
	}
	if result.Stats.VerifyChecks != 0 {
		t.Errorf("VerifyChecks = %d, 无候选时不应验证", result.Stats.VerifyChecks)
	}
}

func TestScanner_PageFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	t.Cleanup(server.Close)

	scanner, err := NewScanner(server.URL, models.DefaultScanConfig(), t.TempDir(), fixedHeaderProvider{})
	if err != nil {
		t.Fatalf("NewScanner() error = %v", err)
	}

	if _, err := scanner.Scan(); err == nil {
		t.Fatal("顶层页面失败应让扫描返回错误")
	}

	task := scanner.Task()
	if task.Status != models.TaskStatusFailed {
		t.Errorf("Status = %v, want failed", task.Status)
	}
	if task.ErrorMessage == "" {
		t.Error("失败任务应记录错误信息")
	}
}

func TestScanner_InvalidInput(t *testing.T) {
	if _, err := NewScanner("not a url", models.DefaultScanConfig(), t.TempDir(), fixedHeaderProvider{}); err == nil {
		t.Error("无效URL应在创建时报错")
	}

	badConfig := models.DefaultScanConfig()
	badConfig.Depth = 9
	if _, err := NewScanner("https://example.com", badConfig, t.TempDir(), fixedHeaderProvider{}); err == nil {
		t.Error("无效配置应在创建时报错")
	}
}
