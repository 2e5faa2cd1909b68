package embedding

import (
	"context"
	"hash/fnv"
	"math"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/BaSui01/ragcore/types"
)

// ====== 确定性哈希嵌入（占位实现 / 测试实现）======

// HashProvider 基于 FNV-1a 种子的确定性伪嵌入。
// 文本逐字节哈希出种子，再用 splitmix64 序列展开为定长向量并做 L2 归一化。
// 语义上没有任何意义，仅保证：相同文本 ⇒ 相同向量；不同文本 ⇒ 大概率不同向量。
// 这是真实嵌入模型的替换点，见包文档。
type HashProvider struct {
	dimensions int
	batchSize  int
	logger     *zap.Logger
}

// HashProviderConfig HashProvider 配置
type HashProviderConfig struct {
	Dimensions int `json:"dimensions" yaml:"dimensions"` // 0 使用 DefaultDimensions
	BatchSize  int `json:"batch_size" yaml:"batch_size"` // 0 使用 64
}

// NewHashProvider 创建确定性哈希嵌入提供者。
func NewHashProvider(config HashProviderConfig, logger *zap.Logger) *HashProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	dims := config.Dimensions
	if dims <= 0 {
		dims = DefaultDimensions
	}
	batch := config.BatchSize
	if batch <= 0 {
		batch = 64
	}
	return &HashProvider{
		dimensions: dims,
		batchSize:  batch,
		logger:     logger.With(zap.String("component", "embedding_hash")),
	}
}

// Embed 批量生成嵌入。
// 生成是纯函数且各输入独立，按 MaxBatchSize 并行分片，输出顺序与输入一致。
func (p *HashProvider) Embed(ctx context.Context, texts []string) ([]types.EmbeddingVector, error) {
	if len(texts) == 0 {
		return []types.EmbeddingVector{}, nil
	}

	vectors := make([]types.EmbeddingVector, len(texts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for start := 0; start < len(texts); start += p.batchSize {
		end := start + p.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		start, end := start, end
		g.Go(func() error {
			for i := start; i < end; i++ {
				if err := gctx.Err(); err != nil {
					return types.NewEmbeddingError("embedding cancelled", err)
				}
				vectors[i] = p.vectorFor(texts[i])
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	p.logger.Debug("embeddings generated",
		zap.Int("count", len(vectors)),
		zap.Int("dimensions", p.dimensions))

	return vectors, nil
}

// EmbedQuery 嵌入单个查询。
func (p *HashProvider) EmbedQuery(ctx context.Context, query string) (types.EmbeddingVector, error) {
	if err := ctx.Err(); err != nil {
		return types.EmbeddingVector{}, types.NewEmbeddingError("embedding cancelled", err)
	}
	return p.vectorFor(query), nil
}

// Name 返回提供者名称。
func (p *HashProvider) Name() string { return "hash" }

// Dimensions 返回嵌入维度。
func (p *HashProvider) Dimensions() int { return p.dimensions }

// MaxBatchSize 返回最大批量大小。
func (p *HashProvider) MaxBatchSize() int { return p.batchSize }

// vectorFor 从文本确定性地展开一个 L2 归一化向量。
func (p *HashProvider) vectorFor(text string) types.EmbeddingVector {
	h := fnv.New64a()
	h.Write([]byte(text))
	state := h.Sum64()

	values := make([]float64, p.dimensions)
	var norm float64
	for i := range values {
		state = splitmix64(state)
		// 映射到 [-1, 1)
		values[i] = float64(int64(state))/float64(math.MaxInt64)
		norm += values[i] * values[i]
	}

	if norm > 0 {
		norm = math.Sqrt(norm)
		for i := range values {
			values[i] /= norm
		}
	}

	return types.EmbeddingVector{Dimensions: p.dimensions, Values: values}
}

// splitmix64 单步混合。相同种子链式展开出相同序列。
func splitmix64(state uint64) uint64 {
	state += 0x9e3779b97f4a7c15
	z := state
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}
