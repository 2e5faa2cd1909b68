package rerank

import (
	"context"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/BaSui01/ragcore/types"
)

// Config 重排序器配置
type Config struct {
	// SimpleSeed simple 策略扰动 RNG 的种子；固定种子 ⇒ 可复现扰动。
	SimpleSeed int64 `json:"simple_seed" yaml:"simple_seed"`
}

// DefaultConfig 返回默认配置。
func DefaultConfig() Config {
	return Config{SimpleSeed: 1}
}

// Reranker 多策略重排序器
type Reranker struct {
	config Config
	logger *zap.Logger
}

// New 创建重排序器。
func New(config Config, logger *zap.Logger) *Reranker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reranker{
		config: config,
		logger: logger.With(zap.String("component", "reranker")),
	}
}

// Rerank 按策略重排候选集。
// 返回值恒为输入文档集的排列，分数截断到 [0,100]。
// 未知策略记 Warn 日志后回退到 simple。
func (r *Reranker) Rerank(ctx context.Context, query string, docs []types.Document, strategy Strategy) ([]types.RankedCandidate, error) {
	if len(docs) == 0 {
		return []types.RankedCandidate{}, nil
	}

	switch strategy {
	case StrategyRRF:
		return r.rerankRRF(query, docs), nil
	case StrategyCrossAttention:
		return r.rerankCrossAttention(query, docs), nil
	case StrategySimple:
		return r.rerankSimple(docs), nil
	case StrategyNone:
		return passthrough(docs), nil
	default:
		r.logger.Warn("unknown rerank strategy, falling back to simple",
			zap.String("strategy", string(strategy)))
		return r.rerankSimple(docs), nil
	}
}

// passthrough 原样透传：原顺序、原排名，仅做分数截断。
func passthrough(docs []types.Document) []types.RankedCandidate {
	candidates := make([]types.RankedCandidate, len(docs))
	for i, doc := range docs {
		candidates[i] = types.RankedCandidate{
			DocID:        doc.ID,
			Score:        clampScore(doc.Similarity()),
			OriginalRank: i,
		}
	}
	return candidates
}

// clampScore 截断到 [0,100]。
func clampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// minTermLength 合格查询词项的最小长度（与 store 的切分规则一致）。
const minTermLength = 3

// queryTerms 将查询切分为小写的合格词项。长度按字符数计。
func queryTerms(query string) []string {
	fields := strings.Fields(strings.ToLower(query))
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		if utf8.RuneCountInString(f) >= minTermLength {
			terms = append(terms, f)
		}
	}
	return terms
}

// termOverlap 返回在文档内容（小写）中出现的词项占比。
func termOverlap(terms []string, lowerContent string) float64 {
	if len(terms) == 0 {
		return 0
	}
	matched := 0
	for _, term := range terms {
		if strings.Contains(lowerContent, term) {
			matched++
		}
	}
	return float64(matched) / float64(len(terms))
}
