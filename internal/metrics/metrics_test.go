package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// counterValue はレジストリから指定メトリクスのカウンタ値の合計を取り出す。
func counterValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	for _, mf := range metrics {
		if mf.GetName() != name {
			continue
		}
		total := 0.0
		for _, m := range mf.GetMetric() {
			total += m.GetCounter().GetValue()
		}
		return total
	}
	t.Fatalf("%s metric not found", name)
	return 0
}

// TestNewCollector_ReturnsNonNil はCollectorが正常に生成されることを検証する。
func TestNewCollector_ReturnsNonNil(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	if c == nil {
		t.Fatal("expected non-nil Collector")
	}
}

// TestRecordPostPublished_IncrementsCounter は投稿成功カウンタが増加することを検証する。
func TestRecordPostPublished_IncrementsCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordPostPublished("anime", true)
	c.RecordPostPublished("anime", true)
	c.RecordPostPublished("tech", false)

	if got := counterValue(t, reg, "blogpilot_posts_published_total"); got != 3 {
		t.Errorf("posts_published_total = %v, want 3", got)
	}
}

// TestRecordPostFailed_IncrementsCounter は投稿失敗カウンタが増加することを検証する。
func TestRecordPostFailed_IncrementsCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordPostFailed("tech", "PUBLISH_TIMEOUT")

	if got := counterValue(t, reg, "blogpilot_posts_failed_total"); got != 1 {
		t.Errorf("posts_failed_total = %v, want 1", got)
	}
}

// TestRecordGenerationFallback_IncrementsCounter はフォールバックカウンタが増加することを検証する。
func TestRecordGenerationFallback_IncrementsCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordGenerationFallback("offline_product")
	c.RecordGenerationFallback("safe_template")

	if got := counterValue(t, reg, "blogpilot_generation_fallback_total"); got != 2 {
		t.Errorf("generation_fallback_total = %v, want 2", got)
	}
}

// TestRecordSeverityRouting_LabelsByResult は深刻度ルーティングが結果別に記録されることを検証する。
func TestRecordSeverityRouting_LabelsByResult(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordSeverityRouting(true)
	c.RecordSeverityRouting(false)
	c.RecordSeverityRouting(false)

	if got := counterValue(t, reg, "blogpilot_severity_routing_total"); got != 3 {
		t.Errorf("severity_routing_total = %v, want 3", got)
	}
}

// TestRecordSlotBlocked_IncrementsCounter は投稿枠の拒否カウンタが増加することを検証する。
func TestRecordSlotBlocked_IncrementsCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordSlotBlocked("DAILY_LIMIT_REACHED")

	if got := counterValue(t, reg, "blogpilot_slot_blocked_total"); got != 1 {
		t.Errorf("slot_blocked_total = %v, want 1", got)
	}
}

// TestRecordPublishLatency_ObservesHistogram は投稿レイテンシが記録されることを検証する。
func TestRecordPublishLatency_ObservesHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordPublishLatency(800 * time.Millisecond)
	c.RecordPublishLatency(2 * time.Second)

	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	found := false
	for _, mf := range metrics {
		if mf.GetName() == "blogpilot_publish_latency_seconds" {
			found = true
			count := mf.GetMetric()[0].GetHistogram().GetSampleCount()
			if count != 2 {
				t.Errorf("sample count = %d, want 2", count)
			}
		}
	}
	if !found {
		t.Error("blogpilot_publish_latency_seconds metric not found")
	}
}

// TestHandler_ServesMetrics は/metricsハンドラーが登録済みメトリクスを返すことを検証する。
func TestHandler_ServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordPostPublished("game", true)
	c.RecordHTTPStatus(200)

	ts := httptest.NewServer(Handler(reg))
	defer ts.Close()

	resp, err := http.Get(ts.URL)
	if err != nil {
		t.Fatalf("failed to GET metrics: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read body: %v", err)
	}

	for _, want := range []string{"blogpilot_posts_published_total", "blogpilot_http_status_total"} {
		if !strings.Contains(string(body), want) {
			t.Errorf("レスポンスに %q が含まれるべき", want)
		}
	}
}
