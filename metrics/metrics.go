// Package metrics 提供推荐引擎的 Prometheus 指标。
//
// 指标分类：
//   - 信号：每个信号的耗时、降级次数、产出的打分条数
//   - 引擎：每次调用的耗时与返回的推荐条数
//   - 外部建议服务：HTTP 调用结果
//
// 用法：
//
//	metrics.RecordSignal("trending", 12*time.Millisecond, 5, "")
//	metrics.RecordRecommendations(8, 40*time.Millisecond)
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SignalDuration 记录单个信号的执行耗时。
	SignalDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hybridrec_signal_duration_seconds",
			Help:    "Duration of a single recommendation signal in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 3},
		},
		[]string{"signal"},
	)

	// SignalFailuresTotal 记录信号降级（错误、超时、panic）次数。
	SignalFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hybridrec_signal_failures_total",
			Help: "Total number of signal executions degraded to an empty result",
		},
		[]string{"signal", "reason"}, // reason: "error", "timeout", "panic"
	)

	// SignalScoresTotal 记录信号产出的打分条数。
	SignalScoresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hybridrec_signal_scores_total",
			Help: "Total number of item scores emitted by each signal",
		},
		[]string{"signal"},
	)

	// RecommendDuration 记录一次推荐调用的端到端耗时。
	RecommendDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "hybridrec_recommend_duration_seconds",
			Help:    "Duration of a recommendation call in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// RecommendationsReturned 记录每次调用返回的推荐条数分布。
	RecommendationsReturned = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "hybridrec_recommendations_returned",
			Help:    "Number of recommendations returned per call",
			Buckets: []float64{0, 1, 2, 3, 5, 8, 10, 20},
		},
	)

	// EmptyRecommendationsTotal 记录返回空列表的调用次数。
	EmptyRecommendationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hybridrec_empty_recommendations_total",
			Help: "Total number of recommendation calls that returned no items",
		},
	)

	// AdvisoryRequestsTotal 记录外部建议服务调用结果。
	AdvisoryRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hybridrec_advisory_requests_total",
			Help: "Total number of advisory service requests",
		},
		[]string{"result"}, // "success", "error", "rejected", "malformed"
	)
)

// 信号降级原因
const (
	ReasonError   = "error"
	ReasonTimeout = "timeout"
	ReasonPanic   = "panic"
)

// RecordSignal 记录一次信号执行。failReason 为空表示成功。
func RecordSignal(signal string, d time.Duration, scores int, failReason string) {
	SignalDuration.WithLabelValues(signal).Observe(d.Seconds())
	if failReason != "" {
		SignalFailuresTotal.WithLabelValues(signal, failReason).Inc()
		return
	}
	if scores > 0 {
		SignalScoresTotal.WithLabelValues(signal).Add(float64(scores))
	}
}

// RecordRecommendations 记录一次推荐调用。
func RecordRecommendations(n int, d time.Duration) {
	RecommendDuration.Observe(d.Seconds())
	RecommendationsReturned.Observe(float64(n))
	if n == 0 {
		EmptyRecommendationsTotal.Inc()
	}
}

// RecordAdvisory 记录一次外部建议服务调用。
func RecordAdvisory(result string) {
	AdvisoryRequestsTotal.WithLabelValues(result).Inc()
}
