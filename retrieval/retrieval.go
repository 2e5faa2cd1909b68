// Package retrieval 将路由、多来源召回、合并与重排编排为单次检索调用。
package retrieval

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/BaSui01/ragcore/internal/cache"
	"github.com/BaSui01/ragcore/internal/metrics"
	"github.com/BaSui01/ragcore/internal/telemetry"
	"github.com/BaSui01/ragcore/rerank"
	"github.com/BaSui01/ragcore/router"
	"github.com/BaSui01/ragcore/store"
	"github.com/BaSui01/ragcore/types"
)

// maxSearchConcurrency 并行召回的来源数上限。
const maxSearchConcurrency = 8

// Options 单次检索参数
type Options struct {
	// TopK 返回结果数上限，至少 1。
	TopK int `json:"top_k"`
	// Threshold 相似度下限 [0,100]。
	Threshold float64 `json:"threshold"`
	// Sources 限定召回来源；空则用全部已注册来源。
	Sources []string `json:"sources,omitempty"`
	// UseExpansion 短查询产生扩展时用扩展串召回（重排仍用原查询）。
	UseExpansion bool `json:"use_expansion"`
	// RerankStrategy 为空时跳过重排。
	RerankStrategy rerank.Strategy `json:"rerank_strategy,omitempty"`
}

// DefaultOptions 返回默认检索参数。
func DefaultOptions() Options {
	return Options{
		TopK:         5,
		Threshold:    0,
		UseExpansion: true,
	}
}

// Validate 校验检索参数。
func (o Options) Validate() error {
	if o.TopK < 1 {
		return types.NewValidationError("topK must be at least 1")
	}
	if o.Threshold < 0 || o.Threshold > 100 {
		return types.NewValidationError("threshold must be between 0 and 100")
	}
	return nil
}

// Result 单条检索结果
type Result struct {
	Document     types.Document `json:"document"`
	Score        float64        `json:"score"`
	OriginalRank int            `json:"original_rank"`
}

// Retriever 检索编排器
type Retriever struct {
	mu      sync.RWMutex
	sources map[string]store.Store
	order   []string

	router   *router.Router
	reranker *rerank.Reranker

	resultCache *cache.Manager
	cacheTTL    time.Duration
	collector   *metrics.Collector
	tracer      trace.Tracer

	logger *zap.Logger
}

// New 创建检索编排器。
func New(rt *router.Router, rr *rerank.Reranker, logger *zap.Logger) *Retriever {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Retriever{
		sources:  make(map[string]store.Store),
		router:   rt,
		reranker: rr,
		tracer:   telemetry.Tracer(),
		logger:   logger.With(zap.String("component", "retriever")),
	}
}

// UseResultCache 挂接 Redis 结果缓存。ttl 为 0 用缓存管理器默认值。
func (r *Retriever) UseResultCache(manager *cache.Manager, ttl time.Duration) *Retriever {
	r.resultCache = manager
	r.cacheTTL = ttl
	return r
}

// UseMetrics 挂接指标收集器。
func (r *Retriever) UseMetrics(collector *metrics.Collector) *Retriever {
	r.collector = collector
	return r
}

// RegisterSource 注册一个召回来源。重复注册同名来源覆盖旧实例。
func (r *Retriever) RegisterSource(id string, s store.Store) error {
	if id == "" {
		return types.NewValidationError("source id must not be empty")
	}
	if s == nil {
		return types.NewValidationError("source store must not be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sources[id]; !exists {
		r.order = append(r.order, id)
	}
	r.sources[id] = s
	r.logger.Info("source registered", zap.String("source_id", id))
	return nil
}

// Source 按 ID 取出已注册来源，供灌入数据等旁路操作。
func (r *Retriever) Source(id string) (store.Store, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sources[id]
	if !ok {
		return nil, types.NewSourceNotFoundError(id)
	}
	return s, nil
}

// SourceIDs 返回已注册来源，按注册顺序。
func (r *Retriever) SourceIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Retrieve 执行一次完整检索：路由 → 并行召回 → 合并去重 → 重排 → 截断。
func (r *Retriever) Retrieve(ctx context.Context, query string, opts Options) ([]Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	ctx, span := r.tracer.Start(ctx, "retrieval.Retrieve",
		trace.WithAttributes(
			telemetry.AttrTopK.Int(opts.TopK),
			telemetry.AttrStrategy.String(string(opts.RerankStrategy)),
		))
	defer span.End()

	started := time.Now()

	cacheKey := cache.ResultKey(query, opts.TopK, opts.Threshold, string(opts.RerankStrategy), opts.Sources)
	if r.resultCache != nil {
		var cached []Result
		if err := r.resultCache.GetJSON(ctx, cacheKey, &cached); err == nil {
			if r.collector != nil {
				r.collector.RecordCacheHit("retrieval")
			}
			span.SetAttributes(telemetry.AttrCacheHit.Bool(true))
			r.logger.Debug("retrieval cache hit", zap.String("query", query))
			return cached, nil
		} else if !cache.IsCacheMiss(err) {
			r.logger.Warn("retrieval cache read failed", zap.Error(err))
		} else if r.collector != nil {
			r.collector.RecordCacheMiss("retrieval")
		}
	}

	decision, err := r.route(ctx, query, opts)
	if err != nil {
		r.recordRetrieval("", "error", started, 0, 0)
		return nil, err
	}

	span.SetAttributes(telemetry.AttrQueryType.String(string(decision.QueryType)))

	targets, err := r.resolveSources(decision.SourceIDs)
	if err != nil {
		r.recordRetrieval(string(decision.QueryType), "error", started, 0, 0)
		return nil, err
	}

	searchQuery := query
	if opts.UseExpansion && decision.Expanded() {
		searchQuery = decision.ExpandedQuery
	}

	merged, err := r.searchAll(ctx, targets, searchQuery, opts)
	if err != nil {
		r.recordRetrieval(string(decision.QueryType), "error", started, 0, 0)
		return nil, err
	}
	candidates := len(merged)

	// 重排用原查询，不用扩展串
	results, err := r.finalize(ctx, query, merged, opts)
	if err != nil {
		r.recordRetrieval(string(decision.QueryType), "error", started, candidates, 0)
		return nil, err
	}

	if r.resultCache != nil {
		if err := r.resultCache.SetJSON(ctx, cacheKey, results, r.cacheTTL); err != nil {
			r.logger.Warn("retrieval cache write failed", zap.Error(err))
		}
	}

	span.SetAttributes(
		telemetry.AttrCandidates.Int(candidates),
		telemetry.AttrResults.Int(len(results)),
	)
	r.recordRetrieval(string(decision.QueryType), "ok", started, candidates, len(results))
	r.logger.Debug("retrieval complete",
		zap.String("query_type", string(decision.QueryType)),
		zap.Int("candidates", candidates),
		zap.Int("results", len(results)),
		zap.Duration("elapsed", time.Since(started)))

	return results, nil
}

// route 路由并记录决定指标。
func (r *Retriever) route(ctx context.Context, query string, opts Options) (*types.RouteDecision, error) {
	available := opts.Sources
	if len(available) == 0 {
		available = r.SourceIDs()
	}

	decision, err := r.router.Route(ctx, query, available)
	if err != nil {
		return nil, err
	}
	if r.collector != nil {
		r.collector.RecordRouteDecision(string(decision.QueryType), decision.Expanded())
	}
	return decision, nil
}

type namedStore struct {
	id    string
	store store.Store
}

// resolveSources 把来源 ID 解析为存储实例。未注册的 ID 报 SOURCE_NOT_FOUND。
func (r *Retriever) resolveSources(ids []string) ([]namedStore, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(ids) == 0 {
		return nil, types.NewValidationError("no sources registered")
	}

	targets := make([]namedStore, 0, len(ids))
	for _, id := range ids {
		s, ok := r.sources[id]
		if !ok {
			return nil, types.NewSourceNotFoundError(id)
		}
		targets = append(targets, namedStore{id: id, store: s})
	}
	return targets, nil
}

// searchAll 并行召回所有来源并按文档 ID 去重，保留最高分。
// 合并顺序与来源注册顺序一致，去重后结果确定。
func (r *Retriever) searchAll(ctx context.Context, targets []namedStore, query string, opts Options) ([]types.Document, error) {
	perSource := make([][]types.Document, len(targets))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxSearchConcurrency)
	for i, target := range targets {
		g.Go(func() error {
			docs, err := target.store.SearchSimilar(gctx, query, opts.TopK, opts.Threshold)
			if err != nil {
				r.logger.Error("source search failed",
					zap.String("source_id", target.id), zap.Error(err))
				return err
			}
			perSource[i] = docs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	seen := make(map[string]int)
	merged := make([]types.Document, 0, len(targets)*opts.TopK)
	for _, docs := range perSource {
		for _, doc := range docs {
			if pos, ok := seen[doc.ID]; ok {
				if doc.Similarity() > merged[pos].Similarity() {
					merged[pos] = doc
				}
				continue
			}
			seen[doc.ID] = len(merged)
			merged = append(merged, doc)
		}
	}

	sort.SliceStable(merged, func(a, b int) bool {
		return merged[a].Similarity() > merged[b].Similarity()
	})
	return merged, nil
}

// finalize 重排（可选）并截断到 TopK。
func (r *Retriever) finalize(ctx context.Context, query string, merged []types.Document, opts Options) ([]Result, error) {
	if opts.RerankStrategy == "" {
		results := make([]Result, 0, opts.TopK)
		for i, doc := range merged {
			if i >= opts.TopK {
				break
			}
			results = append(results, Result{
				Document:     doc,
				Score:        doc.Similarity(),
				OriginalRank: i,
			})
		}
		return results, nil
	}

	rerankStart := time.Now()
	ranked, err := r.reranker.Rerank(ctx, query, merged, opts.RerankStrategy)
	if err != nil {
		return nil, err
	}
	if r.collector != nil {
		r.collector.RecordRerank(string(opts.RerankStrategy), time.Since(rerankStart))
	}

	byID := make(map[string]types.Document, len(merged))
	for _, doc := range merged {
		byID[doc.ID] = doc
	}

	results := make([]Result, 0, opts.TopK)
	for i, candidate := range ranked {
		if i >= opts.TopK {
			break
		}
		results = append(results, Result{
			Document:     byID[candidate.DocID],
			Score:        candidate.Score,
			OriginalRank: candidate.OriginalRank,
		})
	}
	return results, nil
}

func (r *Retriever) recordRetrieval(queryType, status string, started time.Time, candidates, results int) {
	if r.collector == nil {
		return
	}
	if queryType == "" {
		queryType = "unknown"
	}
	r.collector.RecordRetrieval(queryType, status, time.Since(started), candidates, results)
}
