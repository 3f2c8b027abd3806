// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// パイプラインやワーカーから利用する。
type MetricsCollector interface {
	RecordPostPublished(category string, automatic bool)
	RecordPostFailed(category string, reason string)
	RecordGenerationFallback(kind string)
	RecordSeverityRouting(highSeverity bool)
	RecordSlotBlocked(reason string)
	RecordDuplicateSkipped(category string)
	RecordPublishLatency(duration time.Duration)
	RecordHTTPStatus(statusCode int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	postPublished  *prometheus.CounterVec
	postFailed     *prometheus.CounterVec
	genFallback    *prometheus.CounterVec
	severityRoute  *prometheus.CounterVec
	slotBlocked    *prometheus.CounterVec
	dupSkipped     *prometheus.CounterVec
	publishLatency prometheus.Histogram
	httpStatus     *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		postPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "blogpilot_posts_published_total",
			Help: "公開に成功した投稿の合計数",
		}, []string{"category", "trigger"}),
		postFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "blogpilot_posts_failed_total",
			Help: "失敗した投稿の合計数（原因別）",
		}, []string{"category", "reason"}),
		genFallback: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "blogpilot_generation_fallback_total",
			Help: "フォールバック経路を使用した生成の合計数",
		}, []string{"kind"}),
		severityRoute: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "blogpilot_severity_routing_total",
			Help: "深刻度判定によるルーティングの合計数",
		}, []string{"severity"}),
		slotBlocked: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "blogpilot_slot_blocked_total",
			Help: "投稿枠の予約が拒否された合計数（理由別）",
		}, []string{"reason"}),
		dupSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "blogpilot_duplicate_skipped_total",
			Help: "重複トピック検出でスキップされた投稿の合計数",
		}, []string{"category"}),
		publishLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "blogpilot_publish_latency_seconds",
			Help:    "WordPress投稿のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "blogpilot_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
	}

	reg.MustRegister(
		c.postPublished,
		c.postFailed,
		c.genFallback,
		c.severityRoute,
		c.slotBlocked,
		c.dupSkipped,
		c.publishLatency,
		c.httpStatus,
	)

	return c
}

// RecordPostPublished は投稿成功を記録する。
func (c *Collector) RecordPostPublished(category string, automatic bool) {
	trigger := "manual"
	if automatic {
		trigger = "auto"
	}
	c.postPublished.WithLabelValues(category, trigger).Inc()
}

// RecordPostFailed は投稿失敗を原因別に記録する。
func (c *Collector) RecordPostFailed(category string, reason string) {
	c.postFailed.WithLabelValues(category, reason).Inc()
}

// RecordGenerationFallback はフォールバック生成の使用を記録する。
func (c *Collector) RecordGenerationFallback(kind string) {
	c.genFallback.WithLabelValues(kind).Inc()
}

// RecordSeverityRouting は深刻度判定の結果を記録する。
func (c *Collector) RecordSeverityRouting(highSeverity bool) {
	severity := "normal"
	if highSeverity {
		severity = "high"
	}
	c.severityRoute.WithLabelValues(severity).Inc()
}

// RecordSlotBlocked は投稿枠の予約拒否を理由別に記録する。
func (c *Collector) RecordSlotBlocked(reason string) {
	c.slotBlocked.WithLabelValues(reason).Inc()
}

// RecordDuplicateSkipped は重複トピックによるスキップを記録する。
func (c *Collector) RecordDuplicateSkipped(category string) {
	c.dupSkipped.WithLabelValues(category).Inc()
}

// RecordPublishLatency はWordPress投稿のレイテンシを記録する。
func (c *Collector) RecordPublishLatency(duration time.Duration) {
	c.publishLatency.Observe(duration.Seconds())
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// compile-time interface check
var _ MetricsCollector = (*Collector)(nil)
