package embedding

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BaSui01/ragcore/types"
)

func TestHashProvider_ImplementsProvider(t *testing.T) {
	var _ Provider = (*HashProvider)(nil)
}

func TestHashProvider_Deterministic(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	p := NewHashProvider(HashProviderConfig{}, zap.NewNop())

	first, err := p.EmbedQuery(ctx, "what is retrieval augmented generation")
	require.NoError(t, err)
	second, err := p.EmbedQuery(ctx, "what is retrieval augmented generation")
	require.NoError(t, err)

	assert.Equal(t, first, second, "textually identical input must yield identical vectors")

	other, err := p.EmbedQuery(ctx, "what is retrieval augmented generation?")
	require.NoError(t, err)
	assert.NotEqual(t, first.Values, other.Values, "different text should yield a different vector")
}

func TestHashProvider_DimensionsAndNorm(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	p := NewHashProvider(HashProviderConfig{Dimensions: 128}, zap.NewNop())

	v, err := p.EmbedQuery(ctx, "hello world")
	require.NoError(t, err)
	require.NoError(t, v.Validate())
	assert.Equal(t, 128, v.Dimensions)
	assert.Len(t, v.Values, 128)

	// L2 归一化
	var norm float64
	for _, x := range v.Values {
		norm += x * x
	}
	assert.InDelta(t, 1.0, norm, 1e-9)
}

func TestHashProvider_BatchOrderMatchesInput(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	p := NewHashProvider(HashProviderConfig{Dimensions: 32, BatchSize: 3}, zap.NewNop())

	texts := []string{"alpha", "beta", "gamma", "delta", "epsilon", "zeta", "eta"}
	vectors, err := p.Embed(ctx, texts)
	require.NoError(t, err)
	require.Len(t, vectors, len(texts))

	// 批量结果与逐个生成一致且顺序对应
	for i, text := range texts {
		single, err := p.EmbedQuery(ctx, text)
		require.NoError(t, err)
		assert.Equal(t, single, vectors[i], "vector %d must correspond to input %q", i, text)
	}
}

func TestHashProvider_EmptyBatch(t *testing.T) {
	t.Parallel()
	p := NewHashProvider(HashProviderConfig{}, zap.NewNop())
	vectors, err := p.Embed(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, vectors)
}

func TestHashProvider_CancelledContext(t *testing.T) {
	t.Parallel()
	p := NewHashProvider(HashProviderConfig{}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.EmbedQuery(ctx, "query")
	require.Error(t, err)
	assert.True(t, types.IsErrorCode(err, types.ErrEmbeddingFailed))
	assert.True(t, types.IsRetryable(err))
}

// ====== WithTimeout ======

// slowProvider 模拟阻塞的嵌入后端。
type slowProvider struct {
	delay time.Duration
	dims  int
}

func (s *slowProvider) Embed(ctx context.Context, texts []string) ([]types.EmbeddingVector, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(s.delay):
	}
	out := make([]types.EmbeddingVector, len(texts))
	for i := range out {
		out[i] = types.NewEmbeddingVector(make([]float64, s.dims))
	}
	return out, nil
}

func (s *slowProvider) EmbedQuery(ctx context.Context, query string) (types.EmbeddingVector, error) {
	vs, err := s.Embed(ctx, []string{query})
	if err != nil {
		return types.EmbeddingVector{}, err
	}
	return vs[0], nil
}

func (s *slowProvider) Name() string      { return "slow" }
func (s *slowProvider) Dimensions() int   { return s.dims }
func (s *slowProvider) MaxBatchSize() int { return 8 }

func TestWithTimeout_TimesOut(t *testing.T) {
	t.Parallel()
	p := WithTimeout(&slowProvider{delay: 200 * time.Millisecond, dims: 4}, 20*time.Millisecond, zap.NewNop())

	_, err := p.EmbedQuery(context.Background(), "query")
	require.Error(t, err)
	assert.True(t, types.IsErrorCode(err, types.ErrEmbeddingFailed))
	assert.True(t, types.IsRetryable(err), "timeout must be surfaced as retryable")
}

func TestWithTimeout_PassesThroughFastCalls(t *testing.T) {
	t.Parallel()
	p := WithTimeout(&slowProvider{delay: time.Millisecond, dims: 4}, time.Second, zap.NewNop())

	vectors, err := p.Embed(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Len(t, vectors, 2)
	assert.Equal(t, "slow", p.Name())
	assert.Equal(t, 4, p.Dimensions())
}

func TestWithTimeout_ZeroTimeoutIsNoop(t *testing.T) {
	inner := NewHashProvider(HashProviderConfig{}, zap.NewNop())
	assert.Same(t, Provider(inner), WithTimeout(inner, 0, zap.NewNop()))
}

// failingProvider 总是失败，验证错误归一化。
type failingProvider struct{ slowProvider }

func (f *failingProvider) Embed(ctx context.Context, texts []string) ([]types.EmbeddingVector, error) {
	return nil, errors.New("upstream 503")
}

func (f *failingProvider) EmbedQuery(ctx context.Context, query string) (types.EmbeddingVector, error) {
	return types.EmbeddingVector{}, errors.New("upstream 503")
}

func TestWithTimeout_WrapsBackendErrors(t *testing.T) {
	t.Parallel()
	p := WithTimeout(&failingProvider{}, time.Second, zap.NewNop())

	_, err := p.Embed(context.Background(), []string{"x"})
	require.Error(t, err)
	assert.Equal(t, types.ErrEmbeddingFailed, types.GetErrorCode(err))
}
