// Package ragcore provides a top-level convenience entry point for
// assembling the retrieval pipeline with minimal boilerplate.
//
// Usage:
//
//	import "github.com/BaSui01/ragcore"
//
//	r, err := ragcore.New(ragcore.WithKeywordSource("kb"))
//	r, err := ragcore.New(
//	    ragcore.WithVectorSource("vectors"),
//	    ragcore.WithLogger(logger),
//	)
//
// The returned [retrieval.Retriever] is fully wired: query router,
// reranker and the requested sources. Additional sources can still be
// registered afterwards via RegisterSource.
package ragcore

import (
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/ragcore/config"
	"github.com/BaSui01/ragcore/embedding"
	"github.com/BaSui01/ragcore/internal/cache"
	"github.com/BaSui01/ragcore/internal/metrics"
	"github.com/BaSui01/ragcore/rerank"
	"github.com/BaSui01/ragcore/retrieval"
	"github.com/BaSui01/ragcore/router"
	"github.com/BaSui01/ragcore/store"
	"github.com/BaSui01/ragcore/types"
)

// Option configures the pipeline created by [New].
type Option func(*options)

type namedSource struct {
	id    string
	store store.Store
}

type options struct {
	cfg       *config.Config
	logger    *zap.Logger
	sources   []namedSource
	keyword   []string
	vector    []string
	cache     *cache.Manager
	cacheTTL  time.Duration
	collector *metrics.Collector
}

// WithConfig sets the pipeline configuration. Defaults to [config.DefaultConfig].
func WithConfig(cfg *config.Config) Option {
	return func(o *options) { o.cfg = cfg }
}

// WithLogger sets a custom zap logger. Defaults to zap.NewNop().
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithSource registers a pre-built store under the given source id.
func WithSource(id string, s store.Store) Option {
	return func(o *options) { o.sources = append(o.sources, namedSource{id: id, store: s}) }
}

// WithKeywordSource registers an empty keyword-frequency store under the
// given source id.
func WithKeywordSource(id string) Option {
	return func(o *options) { o.keyword = append(o.keyword, id) }
}

// WithVectorSource registers an empty vector store under the given source
// id. The embedding provider is built from the configuration's embedding
// section.
func WithVectorSource(id string) Option {
	return func(o *options) { o.vector = append(o.vector, id) }
}

// WithResultCache attaches a Redis-backed result cache.
func WithResultCache(manager *cache.Manager, ttl time.Duration) Option {
	return func(o *options) {
		o.cache = manager
		o.cacheTTL = ttl
	}
}

// WithMetrics attaches a metrics collector.
func WithMetrics(collector *metrics.Collector) Option {
	return func(o *options) { o.collector = collector }
}

// New assembles a retrieval pipeline from the given options.
func New(opts ...Option) (*retrieval.Retriever, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	if o.cfg == nil {
		o.cfg = config.DefaultConfig()
	}
	if err := o.cfg.Validate(); err != nil {
		return nil, err
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}

	rt := router.New(router.Config{
		EnableCache: o.cfg.Router.EnableCache,
		CacheTTL:    o.cfg.Router.CacheTTL,
	}, o.logger)

	rr := rerank.New(rerank.Config{
		SimpleSeed: o.cfg.Retrieval.RerankSeed,
	}, o.logger)

	retriever := retrieval.New(rt, rr, o.logger)

	if o.cache != nil {
		retriever.UseResultCache(o.cache, o.cacheTTL)
	}
	if o.collector != nil {
		retriever.UseMetrics(o.collector)
	}

	for _, src := range o.sources {
		if err := retriever.RegisterSource(src.id, src.store); err != nil {
			return nil, err
		}
	}
	for _, id := range o.keyword {
		if err := retriever.RegisterSource(id, store.NewKeywordStore(o.logger)); err != nil {
			return nil, err
		}
	}
	for _, id := range o.vector {
		provider, err := buildProvider(o.cfg.Embedding, o.logger)
		if err != nil {
			return nil, err
		}
		if err := retriever.RegisterSource(id, store.NewVectorStore(provider, o.logger)); err != nil {
			return nil, err
		}
	}

	return retriever, nil
}

// buildProvider 按配置构建向量化 Provider。
func buildProvider(cfg config.EmbeddingConfig, logger *zap.Logger) (embedding.Provider, error) {
	switch cfg.Provider {
	case "", "hash":
		p := embedding.NewHashProvider(embedding.HashProviderConfig{
			Dimensions: cfg.Dimensions,
			BatchSize:  cfg.BatchSize,
		}, logger)
		return embedding.WithTimeout(p, cfg.Timeout, logger), nil
	default:
		return nil, types.NewValidationError("unknown embedding provider: " + cfg.Provider)
	}
}
