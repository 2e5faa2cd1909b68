package store

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/BaSui01/ragcore/types"
)

// Store 文档存储统一接口
type Store interface {
	// AddDocuments 按 ID 幂等 upsert 文档。
	AddDocuments(ctx context.Context, docs []types.Document) error

	// SearchSimilar 返回与查询最相关的文档，按分数降序，长度 ≤ topK，
	// 每篇文档的 Metadata 带有归一化相似度分数（0–100）。
	SearchSimilar(ctx context.Context, query string, topK int, threshold float64) ([]types.Document, error)

	// Clear 移除全部文档。
	Clear(ctx context.Context) error

	// Count 返回文档数量。
	Count(ctx context.Context) (int, error)
}

// minTermLength 合格查询词项的最小长度（长度 > 2）。
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

// validateSearchParams 校验公共检索参数。
func validateSearchParams(topK int, threshold float64) error {
	if topK < 1 {
		return types.NewValidationError(fmt.Sprintf("topK must be >= 1, got %d", topK))
	}
	if threshold < 0 || threshold > 100 {
		return types.NewValidationError(fmt.Sprintf("threshold must be in [0,100], got %g", threshold))
	}
	return nil
}

// validateDocs 拒绝缺失 ID 的文档，保证 upsert 语义成立。
func validateDocs(docs []types.Document) error {
	for i, doc := range docs {
		if doc.ID == "" {
			return types.NewValidationError(fmt.Sprintf("document at index %d has empty id", i))
		}
	}
	return nil
}
