package rerank

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/BaSui01/ragcore/types"
)

const (
	// phraseBonus 整句（完整查询串）在内容中逐字出现时的加成。
	phraseBonus = 15.0
	// proximityWindow 邻近度加成的衰减窗口（字符距离）。
	proximityWindow = 50.0
	// proximityMaxBonus 相邻词项对零距离时的最大加成。
	proximityMaxBonus = 10.0
)

// rerankCrossAttention 交叉注意力模拟：
// 基础相似度 + 整句命中加成 + 相邻词项对的邻近度加成。
// 邻近度按词项首次出现位置的距离 d 计，加成 10×(1-d/50)，d≥50 时为零。
func (r *Reranker) rerankCrossAttention(query string, docs []types.Document) []types.RankedCandidate {
	terms := queryTerms(query)
	lowerQuery := strings.ToLower(strings.TrimSpace(query))

	candidates := make([]types.RankedCandidate, len(docs))
	for i, doc := range docs {
		lowerContent := strings.ToLower(doc.Content)
		score := doc.Similarity()

		if lowerQuery != "" && strings.Contains(lowerContent, lowerQuery) {
			score += phraseBonus
		}
		score += proximityBonus(terms, lowerContent)

		candidates[i] = types.RankedCandidate{
			DocID:        doc.ID,
			Score:        score,
			OriginalRank: i,
		}
	}

	// 排序看加成后的原始分，截断只作用于输出
	sort.SliceStable(candidates, func(a, b int) bool {
		return candidates[a].Score > candidates[b].Score
	})
	for i := range candidates {
		candidates[i].Score = clampScore(candidates[i].Score)
	}
	return candidates
}

// proximityBonus 对查询中每对相邻词项，按二者在内容里首次出现位置的
// 距离累计加成。距离按字符数（非字节数）计，任一词项缺席则该对不计。
func proximityBonus(terms []string, lowerContent string) float64 {
	bonus := 0.0
	for i := 0; i+1 < len(terms); i++ {
		posA := strings.Index(lowerContent, terms[i])
		posB := strings.Index(lowerContent, terms[i+1])
		if posA < 0 || posB < 0 {
			continue
		}
		if posA > posB {
			posA, posB = posB, posA
		}
		d := float64(utf8.RuneCountInString(lowerContent[posA:posB]))
		if d < proximityWindow {
			bonus += proximityMaxBonus * (1 - d/proximityWindow)
		}
	}
	return bonus
}
