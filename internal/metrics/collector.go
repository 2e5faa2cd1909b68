// Package metrics provides internal metrics collection for the retrieval
// pipeline. This package is internal and should not be imported by
// external projects.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// =============================================================================
// 📊 指标收集器
// =============================================================================

// Collector 检索管线指标收集器
type Collector struct {
	// 检索指标
	retrievalsTotal     *prometheus.CounterVec
	retrievalDuration   *prometheus.HistogramVec
	retrievalCandidates prometheus.Histogram
	retrievalResults    prometheus.Histogram

	// 向量化指标
	embeddingsTotal   *prometheus.CounterVec
	embeddingDuration prometheus.Histogram
	embeddingBatch    prometheus.Histogram

	// 路由指标
	routeDecisions *prometheus.CounterVec

	// 重排指标
	reranksTotal   *prometheus.CounterVec
	rerankDuration *prometheus.HistogramVec

	// 缓存指标
	cacheHits   *prometheus.CounterVec
	cacheMisses *prometheus.CounterVec

	logger *zap.Logger
}

// NewCollector 创建指标收集器。
// reg 注入注册表；测试传独立的 prometheus.NewRegistry() 避免重复注册，
// 生产传 prometheus.DefaultRegisterer。
func NewCollector(namespace string, reg prometheus.Registerer, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	factory := promauto.With(reg)

	c := &Collector{
		logger: logger.With(zap.String("component", "metrics")),
	}

	// 检索指标
	c.retrievalsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retrievals_total",
			Help:      "Total number of retrieval requests",
		},
		[]string{"query_type", "status"},
	)

	c.retrievalDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "retrieval_duration_seconds",
			Help:      "End-to-end retrieval duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5},
		},
		[]string{"query_type"},
	)

	c.retrievalCandidates = factory.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "retrieval_candidates",
			Help:      "Number of candidates merged across sources before reranking",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		},
	)

	c.retrievalResults = factory.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "retrieval_results",
			Help:      "Number of results returned per retrieval",
			Buckets:   prometheus.LinearBuckets(0, 2, 11),
		},
	)

	// 向量化指标
	c.embeddingsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "embeddings_total",
			Help:      "Total number of embedding calls",
		},
		[]string{"provider", "status"},
	)

	c.embeddingDuration = factory.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "embedding_duration_seconds",
			Help:      "Embedding call duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
	)

	c.embeddingBatch = factory.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "embedding_batch_size",
			Help:      "Number of texts per embedding batch",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 8),
		},
	)

	// 路由指标
	c.routeDecisions = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "route_decisions_total",
			Help:      "Total routing decisions by query type",
		},
		[]string{"query_type", "expanded"},
	)

	// 重排指标
	c.reranksTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reranks_total",
			Help:      "Total rerank invocations",
		},
		[]string{"strategy"},
	)

	c.rerankDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rerank_duration_seconds",
			Help:      "Rerank duration in seconds",
			Buckets:   []float64{0.0001, 0.001, 0.01, 0.1, 1},
		},
		[]string{"strategy"},
	)

	// 缓存指标
	c.cacheHits = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Total number of cache hits",
		},
		[]string{"cache_type"},
	)

	c.cacheMisses = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Total number of cache misses",
		},
		[]string{"cache_type"},
	)

	c.logger.Info("metrics collector initialized", zap.String("namespace", namespace))

	return c
}

// =============================================================================
// 🎯 检索指标记录
// =============================================================================

// RecordRetrieval 记录一次检索请求。
func (c *Collector) RecordRetrieval(queryType, status string, duration time.Duration, candidates, results int) {
	c.retrievalsTotal.WithLabelValues(queryType, status).Inc()
	c.retrievalDuration.WithLabelValues(queryType).Observe(duration.Seconds())
	c.retrievalCandidates.Observe(float64(candidates))
	c.retrievalResults.Observe(float64(results))
}

// RecordRouteDecision 记录一次路由决定。
func (c *Collector) RecordRouteDecision(queryType string, expanded bool) {
	label := "false"
	if expanded {
		label = "true"
	}
	c.routeDecisions.WithLabelValues(queryType, label).Inc()
}

// =============================================================================
// 🧮 向量化与重排指标记录
// =============================================================================

// RecordEmbedding 记录一次向量化调用。
func (c *Collector) RecordEmbedding(provider, status string, duration time.Duration, batchSize int) {
	c.embeddingsTotal.WithLabelValues(provider, status).Inc()
	c.embeddingDuration.Observe(duration.Seconds())
	c.embeddingBatch.Observe(float64(batchSize))
}

// RecordRerank 记录一次重排调用。
func (c *Collector) RecordRerank(strategy string, duration time.Duration) {
	c.reranksTotal.WithLabelValues(strategy).Inc()
	c.rerankDuration.WithLabelValues(strategy).Observe(duration.Seconds())
}

// =============================================================================
// 💾 缓存指标记录
// =============================================================================

// RecordCacheHit 记录缓存命中
func (c *Collector) RecordCacheHit(cacheType string) {
	c.cacheHits.WithLabelValues(cacheType).Inc()
}

// RecordCacheMiss 记录缓存未命中
func (c *Collector) RecordCacheMiss(cacheType string) {
	c.cacheMisses.WithLabelValues(cacheType).Inc()
}
