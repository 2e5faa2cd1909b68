package rerank

import (
	"math/rand"
	"sort"

	"github.com/BaSui01/ragcore/types"
)

// simpleJitterRange 基线策略扰动的半幅。
const simpleJitterRange = 5.0

// rerankSimple 基线策略：原分数加有界扰动后重排。
// 扰动 RNG 每次调用以固定种子重建，同一输入产生同一输出。
func (r *Reranker) rerankSimple(docs []types.Document) []types.RankedCandidate {
	rng := rand.New(rand.NewSource(r.config.SimpleSeed))

	candidates := make([]types.RankedCandidate, len(docs))
	for i, doc := range docs {
		jitter := (rng.Float64()*2 - 1) * simpleJitterRange
		candidates[i] = types.RankedCandidate{
			DocID:        doc.ID,
			Score:        doc.Similarity() + jitter,
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
