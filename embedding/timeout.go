package embedding

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/ragcore/types"
)

// ====== 超时装饰器 ======

// timeoutProvider 为任意 Provider 追加超时与取消。
// 嵌入生成是管线中唯一预期跨进程/网络边界的步骤，超时在此边界收口。
type timeoutProvider struct {
	inner   Provider
	timeout time.Duration
	logger  *zap.Logger
}

// WithTimeout 包装 provider，使每次生成调用都受 timeout 约束。
// timeout <= 0 时原样返回 provider。
func WithTimeout(provider Provider, timeout time.Duration, logger *zap.Logger) Provider {
	if timeout <= 0 {
		return provider
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &timeoutProvider{
		inner:   provider,
		timeout: timeout,
		logger:  logger.With(zap.String("component", "embedding_timeout")),
	}
}

func (p *timeoutProvider) Embed(ctx context.Context, texts []string) ([]types.EmbeddingVector, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	vectors, err := p.inner.Embed(ctx, texts)
	if err != nil {
		return nil, p.wrap(err, len(texts))
	}
	return vectors, nil
}

func (p *timeoutProvider) EmbedQuery(ctx context.Context, query string) (types.EmbeddingVector, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	vector, err := p.inner.EmbedQuery(ctx, query)
	if err != nil {
		return types.EmbeddingVector{}, p.wrap(err, 1)
	}
	return vector, nil
}

func (p *timeoutProvider) Name() string      { return p.inner.Name() }
func (p *timeoutProvider) Dimensions() int   { return p.inner.Dimensions() }
func (p *timeoutProvider) MaxBatchSize() int { return p.inner.MaxBatchSize() }

// wrap 将底层错误统一为可重试的 EMBEDDING_FAILED。
func (p *timeoutProvider) wrap(err error, batch int) error {
	if errors.Is(err, context.DeadlineExceeded) {
		p.logger.Warn("embedding generation timed out",
			zap.Duration("timeout", p.timeout),
			zap.Int("batch", batch))
		return types.NewEmbeddingError("embedding generation timed out", err)
	}
	if types.AsError(err) != nil {
		return err
	}
	return types.NewEmbeddingError("embedding generation failed", err)
}
