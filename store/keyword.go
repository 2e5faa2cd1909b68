package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/BaSui01/ragcore/types"
)

// ====== 关键词词频存储（基线实现）======

// KeywordStore 关键词词频基线存储。
// 评分：对每个合格查询词项统计其在文档内容（小写）中的全部出现次数，
// 求和后归一化为 min(100, raw/词项数*100)。
type KeywordStore struct {
	mu     sync.RWMutex
	docs   map[string]types.Document
	order  []string // 插入顺序，平局时先入先胜
	logger *zap.Logger
}

// NewKeywordStore 创建关键词存储。
func NewKeywordStore(logger *zap.Logger) *KeywordStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KeywordStore{
		docs:   make(map[string]types.Document),
		logger: logger.With(zap.String("component", "keyword_store")),
	}
}

// AddDocuments 按 ID 幂等 upsert。
// 重复 ID 覆盖内容但保留最初的插入位置，维持平局排序的稳定性。
func (s *KeywordStore) AddDocuments(ctx context.Context, docs []types.Document) error {
	if err := validateDocs(docs); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	added := 0
	for _, doc := range docs {
		if _, exists := s.docs[doc.ID]; !exists {
			s.order = append(s.order, doc.ID)
			added++
		}
		s.docs[doc.ID] = doc.Clone()
	}

	s.logger.Debug("documents upserted",
		zap.Int("received", len(docs)),
		zap.Int("new", added),
		zap.Int("total", len(s.docs)))

	return nil
}

// SearchSimilar 词频检索。
// 无合格词项返回空序列（不是错误）；结果按分数降序，平局按插入顺序。
func (s *KeywordStore) SearchSimilar(ctx context.Context, query string, topK int, threshold float64) ([]types.Document, error) {
	if err := validateSearchParams(topK, threshold); err != nil {
		return nil, err
	}

	terms := queryTerms(query)
	if len(terms) == 0 {
		return []types.Document{}, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]types.Document, 0, len(s.order))
	for _, id := range s.order {
		doc := s.docs[id]
		content := strings.ToLower(doc.Content)

		raw := 0
		for _, term := range terms {
			raw += strings.Count(content, term)
		}

		score := float64(raw) / float64(len(terms)) * 100
		if score > 100 {
			score = 100
		}
		if score >= threshold {
			results = append(results, doc.Clone().WithSimilarity(score))
		}
	}

	// 按分数降序；SliceStable 保证同分文档维持插入顺序
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity() > results[j].Similarity()
	})

	if len(results) > topK {
		results = results[:topK]
	}

	return results, nil
}

// Clear 移除全部文档。
func (s *KeywordStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.docs = make(map[string]types.Document)
	s.order = s.order[:0]
	s.logger.Debug("store cleared")
	return nil
}

// Count 返回文档数量。
func (s *KeywordStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs), nil
}
