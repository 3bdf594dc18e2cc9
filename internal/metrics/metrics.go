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
// APIクライアント、ストア、同期ワーカーから利用する。
type MetricsCollector interface {
	RecordAPIRequest(endpoint string, statusCode int, duration time.Duration)
	RecordAPITransportFailure(endpoint string)
	RecordStoreOperation(store, op, result string)
	RecordStaleResponse(store, op string)
	RecordSyncRun(result string)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	apiRequests  *prometheus.CounterVec
	apiFailures  *prometheus.CounterVec
	apiLatency   *prometheus.HistogramVec
	storeOps     *prometheus.CounterVec
	staleDropped *prometheus.CounterVec
	syncRuns     *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		apiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_api_requests_total",
			Help: "バックエンドAPI呼び出しのエンドポイント・ステータス別件数",
		}, []string{"endpoint", "status_code"}),
		apiFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_api_transport_failures_total",
			Help: "バックエンドに到達できなかったAPI呼び出しの件数",
		}, []string{"endpoint"}),
		apiLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "storefront_api_latency_seconds",
			Help:    "バックエンドAPI呼び出しのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
		storeOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_store_operations_total",
			Help: "ストア操作の結果別件数",
		}, []string{"store", "op", "result"}),
		staleDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_stale_responses_total",
			Help: "後発のレスポンスに追い越されたため破棄したレスポンスの件数",
		}, []string{"store", "op"}),
		syncRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_sync_runs_total",
			Help: "バックグラウンド同期の実行結果別件数",
		}, []string{"result"}),
	}

	reg.MustRegister(
		c.apiRequests,
		c.apiFailures,
		c.apiLatency,
		c.storeOps,
		c.staleDropped,
		c.syncRuns,
	)

	return c
}

// RecordAPIRequest はレスポンスを受け取ったAPI呼び出しを記録する。
func (c *Collector) RecordAPIRequest(endpoint string, statusCode int, duration time.Duration) {
	c.apiRequests.WithLabelValues(endpoint, strconv.Itoa(statusCode)).Inc()
	c.apiLatency.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// RecordAPITransportFailure は通信失敗を記録する。
func (c *Collector) RecordAPITransportFailure(endpoint string) {
	c.apiFailures.WithLabelValues(endpoint).Inc()
}

// RecordStoreOperation はストア操作の結果（ok, error, swallowed）を記録する。
func (c *Collector) RecordStoreOperation(store, op, result string) {
	c.storeOps.WithLabelValues(store, op, result).Inc()
}

// RecordStaleResponse は破棄した古いレスポンスを記録する。
func (c *Collector) RecordStaleResponse(store, op string) {
	c.staleDropped.WithLabelValues(store, op).Inc()
}

// RecordSyncRun はバックグラウンド同期の実行結果を記録する。
func (c *Collector) RecordSyncRun(result string) {
	c.syncRuns.WithLabelValues(result).Inc()
}

// nopCollector は何も記録しない実装。
type nopCollector struct{}

func (nopCollector) RecordAPIRequest(string, int, time.Duration) {}
func (nopCollector) RecordAPITransportFailure(string)            {}
func (nopCollector) RecordStoreOperation(string, string, string) {}
func (nopCollector) RecordStaleResponse(string, string)          {}
func (nopCollector) RecordSyncRun(string)                        {}

// Nop はメトリクスを記録しないMetricsCollectorを返す。
// テストやメトリクス無効時に使用する。
func Nop() MetricsCollector {
	return nopCollector{}
}

// OrNop はmがnilの場合にNopを返す。
func OrNop(m MetricsCollector) MetricsCollector {
	if m == nil {
		return Nop()
	}
	return m
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute は/metricsエンドポイントを提供するHTTPハンドラーを返す。
// Prometheusスクレイプに対応する。
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}

// compile-time interface check
var _ MetricsCollector = (*Collector)(nil)
