package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCollector_RecordRetrieval(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector("ragcore", reg, zap.NewNop())

	c.RecordRetrieval("semantic", "ok", 25*time.Millisecond, 12, 5)
	c.RecordRetrieval("semantic", "ok", 30*time.Millisecond, 8, 5)
	c.RecordRetrieval("keyword", "error", 5*time.Millisecond, 0, 0)

	assert.InDelta(t, 2, testutil.ToFloat64(c.retrievalsTotal.WithLabelValues("semantic", "ok")), 1e-9)
	assert.InDelta(t, 1, testutil.ToFloat64(c.retrievalsTotal.WithLabelValues("keyword", "error")), 1e-9)
}

func TestCollector_RecordCache(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector("ragcore", reg, zap.NewNop())

	c.RecordCacheHit("retrieval")
	c.RecordCacheHit("retrieval")
	c.RecordCacheMiss("retrieval")

	assert.InDelta(t, 2, testutil.ToFloat64(c.cacheHits.WithLabelValues("retrieval")), 1e-9)
	assert.InDelta(t, 1, testutil.ToFloat64(c.cacheMisses.WithLabelValues("retrieval")), 1e-9)
}

func TestCollector_RecordRouteAndRerank(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector("ragcore", reg, zap.NewNop())

	c.RecordRouteDecision("hybrid", true)
	c.RecordRouteDecision("hybrid", false)
	c.RecordRerank("rrf", time.Millisecond)
	c.RecordEmbedding("hash", "ok", time.Millisecond, 16)

	assert.InDelta(t, 1, testutil.ToFloat64(c.routeDecisions.WithLabelValues("hybrid", "true")), 1e-9)
	assert.InDelta(t, 1, testutil.ToFloat64(c.reranksTotal.WithLabelValues("rrf")), 1e-9)
	assert.InDelta(t, 1, testutil.ToFloat64(c.embeddingsTotal.WithLabelValues("hash", "ok")), 1e-9)
}

func TestCollector_SeparateRegistries(t *testing.T) {
	// 独立注册表下可重复创建，互不干扰
	a := NewCollector("ragcore", prometheus.NewRegistry(), zap.NewNop())
	b := NewCollector("ragcore", prometheus.NewRegistry(), zap.NewNop())
	require.NotNil(t, a)
	require.NotNil(t, b)
}
