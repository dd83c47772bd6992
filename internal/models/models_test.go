package models

import (
	"testing"
)

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"有效的HTTP URL", "http://example.com", false},
		{"有效的HTTPS URL", "https://example.com", false},
		{"带路径的URL", "https://example.com/watch/123", false},
		{"无效的协议", "ftp://example.com", true},
		{"无效的URL", "not a url", true},
		{"空URL", "", true},
		{"无协议", "example.com", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.url)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateURL() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestScanConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  ScanConfig
		wantErr bool
	}{
		{
			name:    "有效配置",
			config:  DefaultScanConfig(),
			wantErr: false,
		},
		{
			name: "深度为边界值2",
			config: ScanConfig{
				Depth:         2,
				WaitTime:      5,
				PageTimeout:   20,
				VerifyTimeout: 8,
				FrameLimit:    10,
			},
			wantErr: false,
		},
		{
			name: "深度过大",
			config: ScanConfig{
				Depth:         3,
				WaitTime:      5,
				PageTimeout:   20,
				VerifyTimeout: 8,
				FrameLimit:    10,
			},
			wantErr: true,
		},
		{
			name: "深度为负",
			config: ScanConfig{
				Depth:         -1,
				WaitTime:      5,
				PageTimeout:   20,
				VerifyTimeout: 8,
				FrameLimit:    10,
			},
			wantErr: true,
		},
		{
			name: "等待时间过长",
			config: ScanConfig{
				Depth:         0,
				WaitTime:      61,
				PageTimeout:   20,
				VerifyTimeout: 8,
				FrameLimit:    10,
			},
			wantErr: true,
		},
		{
			name: "页面超时为零",
			config: ScanConfig{
				Depth:         0,
				WaitTime:      5,
				PageTimeout:   0,
				VerifyTimeout: 8,
				FrameLimit:    10,
			},
			wantErr: true,
		},
		{
			name: "验证超时过长",
			config: ScanConfig{
				Depth:         0,
				WaitTime:      5,
				PageTimeout:   20,
				VerifyTimeout: 61,
				FrameLimit:    10,
			},
			wantErr: true,
		},
		{
			name: "iframe上限过大",
			config: ScanConfig{
				Depth:         0,
				WaitTime:      5,
				PageTimeout:   20,
				VerifyTimeout: 8,
				FrameLimit:    51,
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewScanTask(t *testing.T) {
	task, err := NewScanTask("https://example.com/watch/123", DefaultScanConfig())
	if err != nil {
		t.Fatalf("NewScanTask() error = %v", err)
	}

	if task.ID == "" {
		t.Error("任务ID不应为空")
	}

	if task.TargetURL != "https://example.com/watch/123" {
		t.Errorf("TargetURL = %v, want %v", task.TargetURL, "https://example.com/watch/123")
	}

	if task.Domain != "example.com" {
		t.Errorf("Domain = %v, want %v", task.Domain, "example.com")
	}

	if task.Status != TaskStatusPending {
		t.Errorf("Status = %v, want %v", task.Status, TaskStatusPending)
	}

	if task.Mode != ModeStatic {
		t.Errorf("Mode = %v, want %v", task.Mode, ModeStatic)
	}
}

func TestNewScanTask_RenderMode(t *testing.T) {
	config := DefaultScanConfig()
	config.UseRender = true

	task, err := NewScanTask("https://example.com", config)
	if err != nil {
		t.Fatalf("NewScanTask() error = %v", err)
	}

	if task.Mode != ModeRender {
		t.Errorf("Mode = %v, want %v", task.Mode, ModeRender)
	}
}

func TestNewScanTask_InvalidInput(t *testing.T) {
	if _, err := NewScanTask("not a url", DefaultScanConfig()); err == nil {
		t.Error("无效URL应返回错误")
	}

	badConfig := DefaultScanConfig()
	badConfig.Depth = 5
	if _, err := NewScanTask("https://example.com", badConfig); err == nil {
		t.Error("无效配置应返回错误")
	}
}

func TestScanTask_JSON(t *testing.T) {
	task, err := NewScanTask("https://example.com", DefaultScanConfig())
	if err != nil {
		t.Fatalf("NewScanTask() error = %v", err)
	}

	// 测试ToJSON
	jsonData, err := task.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}

	if len(jsonData) == 0 {
		t.Error("JSON数据不应为空")
	}

	// 测试FromJSON
	var decoded ScanTask
	err = decoded.FromJSON(jsonData)
	if err != nil {
		t.Fatalf("FromJSON() error = %v", err)
	}

	if decoded.ID != task.ID {
		t.Errorf("解码后的ID不匹配: got %v, want %v", decoded.ID, task.ID)
	}

	if decoded.TargetURL != task.TargetURL {
		t.Errorf("解码后的TargetURL不匹配: got %v, want %v", decoded.TargetURL, task.TargetURL)
	}
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want MediaFormat
	}{
		{"HLS播放列表", "https://cdn.example.com/live/index.m3u8", FormatHLS},
		{"DASH清单", "https://cdn.example.com/vod/stream.mpd", FormatDASH},
		{"裸分片", "https://cdn.example.com/seg/chunk_001.m4s", FormatSegment},
		{"大写后缀", "https://cdn.example.com/live/INDEX.M3U8", FormatHLS},
		{"带查询参数", "https://cdn.example.com/live/index.m3u8?token=abc", FormatHLS},
		{"查询参数中的假后缀", "https://cdn.example.com/page?next=video.m3u8", FormatUnknown},
		{"无法识别", "https://cdn.example.com/player.js", FormatUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectFormat(tt.url); got != tt.want {
				t.Errorf("DetectFormat() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHasManifestExt(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  bool
	}{
		{"m3u8后缀", "/live/index.m3u8", true},
		{"mpd后缀", "https://cdn.example.com/stream.mpd", true},
		{"m4s后缀", "chunk.m4s", true},
		{"大小写混合", "INDEX.M3U8", true},
		{"后缀出现在中间", "/play.m3u8?sig=xyz", true},
		{"无清单后缀", "/player.js", false},
		{"空值", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HasManifestExt(tt.value); got != tt.want {
				t.Errorf("HasManifestExt(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestCandidateSet_DedupAndOrder(t *testing.T) {
	set := NewCandidateSet()

	if !set.AddURL("https://a.example.com/1.m3u8") {
		t.Error("首次加入应返回true")
	}
	if !set.AddURL("https://a.example.com/2.mpd") {
		t.Error("首次加入应返回true")
	}
	if set.AddURL("https://a.example.com/1.m3u8") {
		t.Error("重复加入应返回false")
	}

	if set.Len() != 2 {
		t.Errorf("Len() = %d, want 2", set.Len())
	}

	if !set.Contains("https://a.example.com/1.m3u8") {
		t.Error("Contains应返回true")
	}

	urls := set.URLs()
	want := []string{"https://a.example.com/1.m3u8", "https://a.example.com/2.mpd"}
	for i := range want {
		if urls[i] != want[i] {
			t.Errorf("URLs()[%d] = %v, want %v", i, urls[i], want[i])
		}
	}

	items := set.Items()
	if items[0].Format != FormatHLS || items[1].Format != FormatDASH {
		t.Errorf("候选格式推断错误: %v, %v", items[0].Format, items[1].Format)
	}
}

func TestParseHeaderString(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantName  string
		wantValue string
		wantErr   bool
	}{
		{"标准头部", "Referer: https://example.com", "Referer", "https://example.com", false},
		{"无空格", "Cookie:session=abc", "Cookie", "session=abc", false},
		{"值中含冒号", "Authorization: Bearer a:b:c", "Authorization", "Bearer a:b:c", false},
		{"缺少冒号", "InvalidHeader", "", "", true},
		{"空名称", ": value", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			header, err := CliHeaders([]string{tt.input}).Parse()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if got := header.Get(tt.wantName); got != tt.wantValue {
				t.Errorf("Get(%q) = %q, want %q", tt.wantName, got, tt.wantValue)
			}
		})
	}
}
