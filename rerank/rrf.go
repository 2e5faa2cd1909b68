package rerank

import (
	"sort"
	"strings"

	"github.com/BaSui01/ragcore/types"
)

const (
	// rrfK 倒数排名融合的平滑常数。
	rrfK = 60
	// rrfScale 把融合分数放大到人类可读区间。
	rrfScale = 5000
)

// rrfScore 融合两路排名（0 起）为单一分数。
func rrfScore(rankA, rankB int) float64 {
	return (1.0/float64(rrfK+rankA+1) + 1.0/float64(rrfK+rankB+1)) * rrfScale
}

// rerankRRF 倒数排名融合：
// 第一路按相似度降序，第二路按查询词项重叠占比降序。
// 内容完全无词项命中的文档不进入第二路，其第二路按最坏名次 N（候选
// 总数，1 起计）记，与入榜末位之后紧邻，不额外再加一名。
func (r *Reranker) rerankRRF(query string, docs []types.Document) []types.RankedCandidate {
	n := len(docs)
	terms := queryTerms(query)

	// 相似度路：稳定排序，平分保持原始顺序
	simRank := make(map[string]int, n)
	simOrder := make([]int, n)
	for i := range simOrder {
		simOrder[i] = i
	}
	sort.SliceStable(simOrder, func(a, b int) bool {
		return docs[simOrder[a]].Similarity() > docs[simOrder[b]].Similarity()
	})
	for rank, idx := range simOrder {
		simRank[docs[idx].ID] = rank
	}

	// 重叠路：零重叠文档缺席，按最坏名次计（0 起的 n-1，即 1 起的 N）
	type overlapEntry struct {
		idx     int
		overlap float64
	}
	entries := make([]overlapEntry, 0, n)
	for i, doc := range docs {
		ov := termOverlap(terms, strings.ToLower(doc.Content))
		if ov > 0 {
			entries = append(entries, overlapEntry{idx: i, overlap: ov})
		}
	}
	sort.SliceStable(entries, func(a, b int) bool {
		return entries[a].overlap > entries[b].overlap
	})
	overlapRank := make(map[string]int, n)
	for _, doc := range docs {
		overlapRank[doc.ID] = n - 1
	}
	for rank, e := range entries {
		overlapRank[docs[e.idx].ID] = rank
	}

	// 先按截断前的融合分排序，再截断输出分数：
	// 小候选集里融合分普遍超过 100，先截断会抹平顺序
	candidates := make([]types.RankedCandidate, n)
	for i, doc := range docs {
		candidates[i] = types.RankedCandidate{
			DocID:        doc.ID,
			Score:        rrfScore(simRank[doc.ID], overlapRank[doc.ID]),
			OriginalRank: i,
		}
	}
	sort.SliceStable(candidates, func(a, b int) bool {
		return candidates[a].Score > candidates[b].Score
	})
	for i := range candidates {
		candidates[i].Score = clampScore(candidates[i].Score)
	}
	return candidates
}
