package store

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/BaSui01/ragcore/embedding"
	"github.com/BaSui01/ragcore/types"
)

// ====== 嵌入向量存储 ======

// VectorStore 余弦相似度存储。
// 文档入库时通过 embedding.Provider 生成向量；检索时嵌入查询并按
// 余弦相似度排序。余弦值 [-1,1] 线性映射到 0–100，与 Store 契约对齐。
type VectorStore struct {
	provider embedding.Provider

	mu     sync.RWMutex
	docs   map[string]vectorEntry
	order  []string
	logger *zap.Logger
}

type vectorEntry struct {
	doc types.Document
	vec types.EmbeddingVector
}

// NewVectorStore 创建嵌入向量存储。
func NewVectorStore(provider embedding.Provider, logger *zap.Logger) *VectorStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VectorStore{
		provider: provider,
		docs:     make(map[string]vectorEntry),
		logger:   logger.With(zap.String("component", "vector_store")),
	}
}

// AddDocuments 批量嵌入并 upsert。嵌入失败时整批不入库。
func (s *VectorStore) AddDocuments(ctx context.Context, docs []types.Document) error {
	if err := validateDocs(docs); err != nil {
		return err
	}
	if len(docs) == 0 {
		return nil
	}

	texts := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = doc.Content
	}

	// 嵌入在锁外生成，锁内只做 map 写入
	vectors, err := s.provider.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed documents: %w", err)
	}
	if len(vectors) != len(docs) {
		return types.NewEmbeddingError(
			fmt.Sprintf("provider returned %d vectors for %d inputs", len(vectors), len(docs)), nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i, doc := range docs {
		if _, exists := s.docs[doc.ID]; !exists {
			s.order = append(s.order, doc.ID)
		}
		s.docs[doc.ID] = vectorEntry{doc: doc.Clone(), vec: vectors[i]}
	}

	s.logger.Debug("documents embedded and upserted",
		zap.Int("count", len(docs)),
		zap.String("provider", s.provider.Name()))

	return nil
}

// SearchSimilar 余弦相似度检索。
func (s *VectorStore) SearchSimilar(ctx context.Context, query string, topK int, threshold float64) ([]types.Document, error) {
	if err := validateSearchParams(topK, threshold); err != nil {
		return nil, err
	}
	if len(queryTerms(query)) == 0 {
		return []types.Document{}, nil
	}

	queryVec, err := s.provider.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]types.Document, 0, len(s.order))
	for _, id := range s.order {
		entry := s.docs[id]
		if !queryVec.Comparable(entry.vec) {
			s.logger.Warn("skipping document with incomparable embedding",
				zap.String("doc_id", id),
				zap.Int("doc_dims", entry.vec.Dimensions),
				zap.Int("query_dims", queryVec.Dimensions))
			continue
		}

		// [-1,1] → [0,100]
		score := (cosineSimilarity(queryVec.Values, entry.vec.Values) + 1) * 50
		if score >= threshold {
			results = append(results, entry.doc.Clone().WithSimilarity(score))
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity() > results[j].Similarity()
	})

	if len(results) > topK {
		results = results[:topK]
	}

	return results, nil
}

// Clear 移除全部文档。
func (s *VectorStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs = make(map[string]vectorEntry)
	s.order = s.order[:0]
	return nil
}

// Count 返回文档数量。
func (s *VectorStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs), nil
}

// cosineSimilarity 计算余弦相似度。
func cosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0.0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0.0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}
