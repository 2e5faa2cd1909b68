package embedding

import (
	"context"

	"github.com/BaSui01/ragcore/types"
)

// DefaultDimensions 默认嵌入维度。
const DefaultDimensions = 384

// Provider 定义统一的嵌入提供者接口。
type Provider interface {
	// Embed 为给定输入批量生成嵌入，返回顺序与输入一致，一文本一向量。
	// 任何失败都返回错误，绝不返回部分填充的结果。
	Embed(ctx context.Context, texts []string) ([]types.EmbeddingVector, error)

	// EmbedQuery 是嵌入单个查询的便捷方法。
	EmbedQuery(ctx context.Context, query string) (types.EmbeddingVector, error)

	// Name 返回提供者名称。
	Name() string

	// Dimensions 返回嵌入维度。
	Dimensions() int

	// MaxBatchSize 返回支持的最大批量大小。
	MaxBatchSize() int
}
