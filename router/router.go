package router

import (
	"context"
	"regexp"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/BaSui01/ragcore/types"
)

// shortQueryLength 触发扩展的查询长度上限（字符数）。
const shortQueryLength = 10

// expansionTerms 短查询追加的固定泛化补充词。
var expansionTerms = []string{"overview", "details", "explanation"}

// technicalTerms 触发 keyword 分类的固定技术术语集。
var technicalTerms = []string{"technical", "code", "error", "function"}

var (
	// 实体模式：大写字母开头、后跟小写字母的词（疑似专有名词）
	entityPattern = regexp.MustCompile(`\b[A-Z][a-z]+\b`)
	// 独立数字串
	digitPattern = regexp.MustCompile(`\b\d+\b`)
)

// Config 路由器配置
type Config struct {
	// EnableCache 缓存路由决定（同一查询短时间内重复出现时复用）。
	EnableCache bool          `json:"enable_cache" yaml:"enable_cache"`
	CacheTTL    time.Duration `json:"cache_ttl" yaml:"cache_ttl"`
}

// DefaultConfig 返回默认路由配置。
func DefaultConfig() Config {
	return Config{
		EnableCache: false,
		CacheTTL:    10 * time.Minute,
	}
}

// Router 查询路由器
type Router struct {
	config Config
	cache  *decisionCache
	logger *zap.Logger
}

// New 创建查询路由器。
func New(config Config, logger *zap.Logger) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}

	var cache *decisionCache
	if config.EnableCache {
		cache = newDecisionCache(config.CacheTTL)
	}

	return &Router{
		config: config,
		cache:  cache,
		logger: logger.With(zap.String("component", "query_router")),
	}
}

// Route 对查询进行分类、扩展并选择来源。
// 空查询（仅空白）返回 VALIDATION 错误。
func (r *Router) Route(ctx context.Context, query string, availableSources []string) (*types.RouteDecision, error) {
	if strings.TrimSpace(query) == "" {
		return nil, types.NewValidationError("query must not be empty")
	}

	if r.cache != nil {
		if cached, ok := r.cache.get(query); ok {
			r.logger.Debug("routing cache hit", zap.String("query", query))
			return withSources(cached, availableSources), nil
		}
	}

	decision := &types.RouteDecision{
		QueryType: classify(query),
	}

	// 按字符数（非字节数）判定，多字节查询不受编码宽度影响
	if utf8.RuneCountInString(query) < shortQueryLength {
		decision.ExpandedQuery = expand(query)
	}

	if r.cache != nil {
		r.cache.set(query, decision)
	}

	r.logger.Debug("routing decision",
		zap.String("query_type", string(decision.QueryType)),
		zap.Bool("expanded", decision.Expanded()),
		zap.Int("sources", len(availableSources)))

	return withSources(decision, availableSources), nil
}

// classify 按固定顺序应用分类启发式（顺序敏感）。
func classify(query string) types.QueryType {
	if entityPattern.MatchString(query) {
		return types.QueryHybrid
	}

	if digitPattern.MatchString(query) {
		return types.QueryKeyword
	}
	lower := strings.ToLower(query)
	for _, term := range technicalTerms {
		if strings.Contains(lower, term) {
			return types.QueryKeyword
		}
	}

	return types.QuerySemantic
}

// expand 在短查询后追加固定补充词。
func expand(query string) string {
	return query + " " + strings.Join(expansionTerms, " ")
}

// withSources 组装带来源的决定副本。
// 当前实现不裁剪来源；返回新切片避免调用方切片被别名持有。
func withSources(decision *types.RouteDecision, availableSources []string) *types.RouteDecision {
	out := &types.RouteDecision{
		QueryType:     decision.QueryType,
		ExpandedQuery: decision.ExpandedQuery,
		SourceIDs:     make([]string, len(availableSources)),
	}
	copy(out.SourceIDs, availableSources)
	return out
}

// ====== 决定缓存 ======

type decisionCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	ttl     time.Duration
}

type cacheEntry struct {
	decision types.RouteDecision
	storedAt time.Time
}

func newDecisionCache(ttl time.Duration) *decisionCache {
	return &decisionCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
	}
}

func (c *decisionCache) get(key string) (*types.RouteDecision, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	if !ok || time.Since(entry.storedAt) > c.ttl {
		return nil, false
	}
	decision := entry.decision
	return &decision, true
}

func (c *decisionCache) set(key string, decision *types.RouteDecision) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{decision: *decision, storedAt: time.Now()}
}
