package rerank

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/BaSui01/ragcore/types"
)

func doc(id, content string, similarity float64) types.Document {
	return types.Document{
		ID:       id,
		Content:  content,
		Metadata: map[string]any{types.SimilarityKey: similarity},
	}
}

func docIDs(candidates []types.RankedCandidate) []string {
	ids := make([]string, len(candidates))
	for i, c := range candidates {
		ids[i] = c.DocID
	}
	return ids
}

func TestRRFScoreFormula(t *testing.T) {
	// 两路排名均为 0（首位）：(1/61 + 1/61) × 5000
	assert.InDelta(t, (1.0/61+1.0/61)*5000, rrfScore(0, 0), 1e-9)
	// 一路首位、一路次位：(1/61 + 1/62) × 5000
	assert.InDelta(t, (1.0/61+1.0/62)*5000, rrfScore(0, 1), 1e-9)
	// 排名越靠后分数越低
	assert.Greater(t, rrfScore(0, 0), rrfScore(0, 1))
	assert.Greater(t, rrfScore(0, 1), rrfScore(5, 5))
}

func TestRerank_RRF(t *testing.T) {
	r := New(DefaultConfig(), zap.NewNop())
	ctx := context.Background()

	// doc-b 相似度低但词项重叠高；doc-c 两路皆垫底
	docs := []types.Document{
		doc("doc-a", "general text without the sought words", 90),
		doc("doc-b", "redis eviction policy and redis ttl semantics", 40),
		doc("doc-c", "unrelated content entirely", 10),
	}

	out, err := r.Rerank(ctx, "redis eviction", docs, StrategyRRF)
	require.NoError(t, err)
	require.Len(t, out, 3)

	// 排列保证：同一组 ID
	assert.ElementsMatch(t, []string{"doc-a", "doc-b", "doc-c"}, docIDs(out))

	// doc-b：相似度路排名 1、重叠路排名 0
	// doc-a：相似度路排名 0、重叠路缺席（最坏名次 N=3，0 起为 2）
	// doc-c：相似度路排名 2、重叠路缺席（最坏名次 N=3，0 起为 2）
	// 两路融合后 doc-b 最高，doc-c 最低
	assert.Equal(t, "doc-b", out[0].DocID)
	assert.Equal(t, "doc-c", out[2].DocID)

	for _, c := range out {
		assert.GreaterOrEqual(t, c.Score, 0.0)
		assert.LessOrEqual(t, c.Score, 100.0)
	}
}

func TestRerank_RRF_AbsentWorstCaseRank(t *testing.T) {
	r := New(DefaultConfig(), zap.NewNop())

	// doc-a：相似度路排名 0、重叠路缺席 ⇒ 最坏名次 N=2（0 起为 1）
	// doc-b：相似度路排名 1、重叠路排名 0
	// 两者融合分严格相等（1/61 + 1/62 两侧对称），稳定排序保持输入顺序
	docs := []types.Document{
		doc("doc-a", "general text without the sought words", 90),
		doc("doc-b", "redis eviction policy explained", 10),
	}

	out, err := r.Rerank(context.Background(), "redis eviction", docs, StrategyRRF)
	require.NoError(t, err)
	require.Len(t, out, 2)

	assert.InDelta(t, rrfScore(0, 1), rrfScore(1, 0), 1e-9)
	assert.Equal(t, []string{"doc-a", "doc-b"}, docIDs(out))
}

func TestRerank_RRF_ClampsToHundred(t *testing.T) {
	r := New(DefaultConfig(), zap.NewNop())

	// 两个文档都命中词项：原始融合分 (1/61+1/62)×5000 ≈ 162.6，截断到 100
	docs := []types.Document{
		doc("doc-a", "cache warmup notes", 80),
		doc("doc-b", "cache eviction notes", 60),
	}

	out, err := r.Rerank(context.Background(), "cache", docs, StrategyRRF)
	require.NoError(t, err)
	require.Len(t, out, 2)

	assert.InDelta(t, 100.0, out[0].Score, 1e-9)
	assert.InDelta(t, 100.0, out[1].Score, 1e-9)
	// 顺序由截断前的融合分决定：doc-a 两路都在前
	assert.Equal(t, "doc-a", out[0].DocID)
}

func TestRerank_CrossAttention_PhraseBonus(t *testing.T) {
	r := New(DefaultConfig(), zap.NewNop())

	docs := []types.Document{
		doc("verbatim", "the guide covers redis eviction in depth", 50),
		doc("scattered", "eviction happens when redis runs out of memory", 50),
	}

	out, err := r.Rerank(context.Background(), "redis eviction", docs, StrategyCrossAttention)
	require.NoError(t, err)
	require.Len(t, out, 2)

	// 整句命中者 +15，压过仅邻近加成者
	assert.Equal(t, "verbatim", out[0].DocID)
	assert.Greater(t, out[0].Score, out[1].Score)
}

func TestRerank_CrossAttention_ProximityDecay(t *testing.T) {
	r := New(DefaultConfig(), zap.NewNop())
	ctx := context.Background()

	near := []types.Document{doc("near", "alpha beta", 50)}
	far := []types.Document{doc("far", "alpha "+padding(60)+" beta", 50)}

	outNear, err := r.Rerank(ctx, "alpha beta", near, StrategyCrossAttention)
	require.NoError(t, err)
	outFar, err := r.Rerank(ctx, "alpha beta", far, StrategyCrossAttention)
	require.NoError(t, err)

	// 距离 ≥50 字符时邻近加成消失；两者都无整句命中时靠邻近区分
	assert.Greater(t, outNear[0].Score, outFar[0].Score)
	assert.InDelta(t, 50.0, outFar[0].Score, 1e-9)
}

func padding(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = 'x'
	}
	return string(b)
}

func TestRerank_CrossAttention_MultibyteProximityDistance(t *testing.T) {
	r := New(DefaultConfig(), zap.NewNop())

	// 词项间隔 20 个汉字（60 字节）：字符距离 6+20+1=27，窗口内仍有加成
	docs := []types.Document{
		doc("cjk-gap", "alpha "+strings.Repeat("词", 20)+" beta", 50),
	}

	out, err := r.Rerank(context.Background(), "alpha beta", docs, StrategyCrossAttention)
	require.NoError(t, err)
	require.Len(t, out, 1)

	// 50 + 10×(1-27/50)
	assert.InDelta(t, 54.6, out[0].Score, 1e-9)
}

func TestRerank_Simple_Deterministic(t *testing.T) {
	r := New(DefaultConfig(), zap.NewNop())
	ctx := context.Background()

	docs := []types.Document{
		doc("a", "one", 70),
		doc("b", "two", 50),
		doc("c", "three", 30),
	}

	first, err := r.Rerank(ctx, "anything", docs, StrategySimple)
	require.NoError(t, err)
	second, err := r.Rerank(ctx, "anything", docs, StrategySimple)
	require.NoError(t, err)

	assert.Equal(t, first, second)

	// 扰动有界：与原分数偏差不超过 ±5（截断前）
	for _, c := range first {
		var base float64
		for _, d := range docs {
			if d.ID == c.DocID {
				base = d.Similarity()
			}
		}
		assert.InDelta(t, base, c.Score, simpleJitterRange)
	}
}

func TestRerank_None_PreservesOrder(t *testing.T) {
	r := New(DefaultConfig(), zap.NewNop())

	docs := []types.Document{
		doc("low", "x", 10),
		doc("high", "y", 90),
		doc("mid", "z", 150), // 超界分数仍需截断
	}

	out, err := r.Rerank(context.Background(), "query", docs, StrategyNone)
	require.NoError(t, err)

	assert.Equal(t, []string{"low", "high", "mid"}, docIDs(out))
	for i, c := range out {
		assert.Equal(t, i, c.OriginalRank)
	}
	assert.InDelta(t, 100.0, out[2].Score, 1e-9)
}

func TestRerank_UnknownStrategyFallsBack(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	r := New(DefaultConfig(), zap.New(core))

	docs := []types.Document{doc("a", "one", 70), doc("b", "two", 50)}

	out, err := r.Rerank(context.Background(), "query", docs, Strategy("neural_magic"))
	require.NoError(t, err)
	assert.Len(t, out, 2)

	// 回退到 simple 并记 Warn
	entries := logs.FilterMessageSnippet("unknown rerank strategy").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "neural_magic", entries[0].ContextMap()["strategy"])

	expected, err := r.Rerank(context.Background(), "query", docs, StrategySimple)
	require.NoError(t, err)
	assert.Equal(t, expected, out)
}

func TestRerank_EmptyInput(t *testing.T) {
	r := New(DefaultConfig(), zap.NewNop())

	for _, s := range []Strategy{StrategyRRF, StrategyCrossAttention, StrategySimple, StrategyNone} {
		out, err := r.Rerank(context.Background(), "query", nil, s)
		require.NoError(t, err)
		assert.Empty(t, out)
	}
}

func TestParseStrategy(t *testing.T) {
	tests := []struct {
		in    string
		want  Strategy
		known bool
	}{
		{"rrf", StrategyRRF, true},
		{"cross_attention", StrategyCrossAttention, true},
		{"simple", StrategySimple, true},
		{"none", StrategyNone, true},
		{"", StrategySimple, false},
		{"RRF", StrategySimple, false},
		{"neural", StrategySimple, false},
	}

	for _, tt := range tests {
		got, ok := ParseStrategy(tt.in)
		assert.Equal(t, tt.want, got, "input %q", tt.in)
		assert.Equal(t, tt.known, ok, "input %q", tt.in)
	}
}
