package router

import (
	"context"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BaSui01/ragcore/types"
)

func TestRouter_Classification(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		expected types.QueryType
	}{
		// 数字串 + 技术术语 ⇒ keyword
		{"digits and technical term", "error code 500", types.QueryKeyword},
		// 实体模式 ⇒ hybrid
		{"capitalized entity", "Microsoft Azure pricing", types.QueryHybrid},
		{"plain conceptual query", "how does caching improve latency", types.QuerySemantic},
		{"digits only", "port 8080 configuration", types.QueryKeyword},
		{"technical term only", "show me the function signature", types.QueryKeyword},
		{"technical term code", "sample code for parsing", types.QueryKeyword},
		// 实体模式优先于数字
		{"entity wins over digits", "Kubernetes 1.29 upgrade notes", types.QueryHybrid},
		{"uppercase acronym is not an entity", "what does HTTP stand for", types.QuerySemantic},
		{"empty-ish semantic", "thoughts about naming things", types.QuerySemantic},
	}

	r := New(DefaultConfig(), zap.NewNop())
	ctx := context.Background()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision, err := r.Route(ctx, tt.query, []string{"kb1"})
			require.NoError(t, err)
			assert.Equal(t, tt.expected, decision.QueryType)
		})
	}
}

func TestRouter_Expansion(t *testing.T) {
	r := New(DefaultConfig(), zap.NewNop())
	ctx := context.Background()

	tests := []struct {
		name     string
		query    string
		expanded bool
	}{
		{"short query expands", "redis ttl", true},       // 9 chars
		{"nine chars expands", "nine char", true},        // 9 chars
		{"ten chars does not", "ten chars.", false},      // 10 chars
		{"long query does not", "how do i configure redis eviction", false},
		// 长度按字符数计：7 个汉字（21 字节）仍是短查询
		{"multibyte short query expands", "数据库索引错误", true},
		{"multibyte long query does not", "数据库索引错误排查与修复说明", false}, // 14 chars
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision, err := r.Route(ctx, tt.query, []string{"kb1"})
			require.NoError(t, err)

			chars := utf8.RuneCountInString(tt.query)
			if tt.expanded {
				require.True(t, decision.Expanded(), "expected expansion for %q (%d chars)", tt.query, chars)
				assert.NotEmpty(t, decision.ExpandedQuery)
				// 扩展查询以原查询为前缀，仅追加补充词
				assert.Contains(t, decision.ExpandedQuery, tt.query)
				assert.Greater(t, len(decision.ExpandedQuery), len(tt.query))
			} else {
				assert.False(t, decision.Expanded(), "no expansion expected for %q (%d chars)", tt.query, chars)
			}
		})
	}
}

func TestRouter_SourcesPassThrough(t *testing.T) {
	r := New(DefaultConfig(), zap.NewNop())
	ctx := context.Background()

	sources := []string{"kb1", "kb2", "kb3"}
	decision, err := r.Route(ctx, "anything at all", sources)
	require.NoError(t, err)

	assert.Equal(t, sources, decision.SourceIDs, "current behavior returns all available sources")

	// 返回切片是副本，修改不回流
	decision.SourceIDs[0] = "mutated"
	assert.Equal(t, "kb1", sources[0])
}

func TestRouter_EmptySources(t *testing.T) {
	r := New(DefaultConfig(), zap.NewNop())

	decision, err := r.Route(context.Background(), "some query", nil)
	require.NoError(t, err)
	assert.Empty(t, decision.SourceIDs)
}

func TestRouter_EmptyQuery(t *testing.T) {
	r := New(DefaultConfig(), zap.NewNop())

	for _, q := range []string{"", "   ", "\t\n"} {
		_, err := r.Route(context.Background(), q, []string{"kb1"})
		require.Error(t, err)
		assert.True(t, types.IsErrorCode(err, types.ErrValidation))
	}
}

func TestRouter_Deterministic(t *testing.T) {
	r := New(DefaultConfig(), zap.NewNop())
	ctx := context.Background()

	first, err := r.Route(ctx, "error 404", []string{"kb1", "kb2"})
	require.NoError(t, err)
	second, err := r.Route(ctx, "error 404", []string{"kb1", "kb2"})
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestRouter_CacheReusesDecision(t *testing.T) {
	cfg := Config{EnableCache: true, CacheTTL: time.Minute}
	r := New(cfg, zap.NewNop())
	ctx := context.Background()

	first, err := r.Route(ctx, "redis ttl", []string{"kb1"})
	require.NoError(t, err)

	// 同一查询，不同来源集合：分类/扩展复用，来源按本次调用给出
	second, err := r.Route(ctx, "redis ttl", []string{"kb1", "kb2"})
	require.NoError(t, err)

	assert.Equal(t, first.QueryType, second.QueryType)
	assert.Equal(t, first.ExpandedQuery, second.ExpandedQuery)
	assert.Equal(t, []string{"kb1", "kb2"}, second.SourceIDs)
}
