// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "anglerclub"

// Outcome は操作結果のラベル値。
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// SubmissionRecorder はフォーム送信と削除の結果を記録する。
type SubmissionRecorder interface {
	RecordSubmission(collection, outcome string)
	RecordDeletion(collection, outcome string)
}

// AuthRecorder は認証操作の結果を記録する。
type AuthRecorder interface {
	RecordAuthAttempt(operation, outcome string)
}

// StreamRecorder はライブ購読の開始と終了を記録する。
type StreamRecorder interface {
	StreamOpened(collection string)
	StreamClosed(collection string)
}

// FetchRecorder はニュース取得ワーカーのメトリクスを記録する。
type FetchRecorder interface {
	RecordFetchSuccess(sourceID string)
	RecordFetchFailure(sourceID string, reason string)
	RecordParseFailure(sourceID string)
	RecordHTTPStatus(statusCode int)
	RecordFetchLatency(duration time.Duration)
	RecordItemsUpserted(count int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	submissions   *prometheus.CounterVec
	deletions     *prometheus.CounterVec
	authAttempts  *prometheus.CounterVec
	liveStreams   *prometheus.GaugeVec
	fetchSuccess  prometheus.Counter
	fetchFail     *prometheus.CounterVec
	parseFail     prometheus.Counter
	httpStatus    *prometheus.CounterVec
	fetchLatency  prometheus.Histogram
	itemsUpserted prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_total",
			Help:      "コレクション別・結果別のフォーム送信数",
		}, []string{"collection", "outcome"}),
		deletions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deletions_total",
			Help:      "コレクション別・結果別の削除要求数",
		}, []string{"collection", "outcome"}),
		authAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_attempts_total",
			Help:      "操作別・結果別の認証試行数",
		}, []string{"operation", "outcome"}),
		liveStreams: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "live_streams",
			Help:      "接続中のライブ購読数",
		}, []string{"collection"}),
		fetchSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "news_fetch_success_total",
			Help:      "ニュース取得成功の合計数",
		}),
		fetchFail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "news_fetch_fail_total",
			Help:      "理由別のニュース取得失敗数",
		}, []string{"reason"}),
		parseFail: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "news_parse_fail_total",
			Help:      "ニュースフィードのパース失敗数",
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "news_http_status_total",
			Help:      "配信元のHTTPステータスコード別レスポンス数",
		}, []string{"status_code"}),
		fetchLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "news_fetch_latency_seconds",
			Help:      "ニュース取得のレイテンシ（秒）",
			Buckets:   prometheus.DefBuckets,
		}),
		itemsUpserted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "news_items_upserted_total",
			Help:      "保存されたニュース記事の合計数",
		}),
	}

	reg.MustRegister(
		c.submissions,
		c.deletions,
		c.authAttempts,
		c.liveStreams,
		c.fetchSuccess,
		c.fetchFail,
		c.parseFail,
		c.httpStatus,
		c.fetchLatency,
		c.itemsUpserted,
	)

	return c
}

// RecordSubmission はフォーム送信の結果を記録する。
func (c *Collector) RecordSubmission(collection, outcome string) {
	c.submissions.WithLabelValues(collection, outcome).Inc()
}

// RecordDeletion は削除要求の結果を記録する。
func (c *Collector) RecordDeletion(collection, outcome string) {
	c.deletions.WithLabelValues(collection, outcome).Inc()
}

// RecordAuthAttempt は認証操作の結果を記録する。
func (c *Collector) RecordAuthAttempt(operation, outcome string) {
	c.authAttempts.WithLabelValues(operation, outcome).Inc()
}

// StreamOpened はライブ購読の開始を記録する。
func (c *Collector) StreamOpened(collection string) {
	c.liveStreams.WithLabelValues(collection).Inc()
}

// StreamClosed はライブ購読の終了を記録する。
func (c *Collector) StreamClosed(collection string) {
	c.liveStreams.WithLabelValues(collection).Dec()
}

// RecordFetchSuccess は取得成功を記録する。
func (c *Collector) RecordFetchSuccess(sourceID string) {
	c.fetchSuccess.Inc()
}

// RecordFetchFailure は取得失敗を記録する。
func (c *Collector) RecordFetchFailure(sourceID string, reason string) {
	c.fetchFail.WithLabelValues(reason).Inc()
}

// RecordParseFailure はパース失敗を記録する。
func (c *Collector) RecordParseFailure(sourceID string) {
	c.parseFail.Inc()
}

// RecordHTTPStatus は配信元のHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordFetchLatency は取得のレイテンシを記録する。
func (c *Collector) RecordFetchLatency(duration time.Duration) {
	c.fetchLatency.Observe(duration.Seconds())
}

// RecordItemsUpserted は保存された記事数を記録する。
func (c *Collector) RecordItemsUpserted(count int) {
	c.itemsUpserted.Add(float64(count))
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Nop は何も記録しない実装。メトリクスを公開しない構成とテストで使う。
type Nop struct{}

func (Nop) RecordSubmission(string, string) {}
func (Nop) RecordDeletion(string, string) {}
func (Nop) RecordAuthAttempt(string, string) {}
func (Nop) StreamOpened(string) {}
func (Nop) StreamClosed(string) {}
func (Nop) RecordFetchSuccess(string) {}
func (Nop) RecordFetchFailure(string, string) {}
func (Nop) RecordParseFailure(string) {}
func (Nop) RecordHTTPStatus(int) {}
func (Nop) RecordFetchLatency(time.Duration) {}
func (Nop) RecordItemsUpserted(int) {}

// compile-time interface check
var (
	_ SubmissionRecorder = (*Collector)(nil)
	_ AuthRecorder       = (*Collector)(nil)
	_ StreamRecorder     = (*Collector)(nil)
	_ FetchRecorder      = (*Collector)(nil)
	_ SubmissionRecorder = Nop{}
	_ AuthRecorder       = Nop{}
	_ StreamRecorder     = Nop{}
	_ FetchRecorder      = Nop{}
)
