package store

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BaSui01/ragcore/types"
)

// 并发写 + 并发读不得破坏文档表；用 -race 运行。
func TestKeywordStore_ConcurrentAddAndSearch(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := NewKeywordStore(zap.NewNop())

	const writers = 8
	const readers = 8
	const docsPerWriter = 50

	var wg sync.WaitGroup
	wg.Add(writers + readers)

	for w := 0; w < writers; w++ {
		go func(w int) {
			defer wg.Done()
			for i := 0; i < docsPerWriter; i++ {
				err := s.AddDocuments(ctx, []types.Document{{
					ID:      fmt.Sprintf("w%d-doc%d", w, i),
					Content: fmt.Sprintf("concurrent retrieval workload item %d", i),
				}})
				assert.NoError(t, err)
			}
		}(w)
	}

	for r := 0; r < readers; r++ {
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				results, err := s.SearchSimilar(ctx, "concurrent retrieval workload", 10, 0)
				assert.NoError(t, err)
				assert.LessOrEqual(t, len(results), 10)
			}
		}()
	}

	wg.Wait()

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, writers*docsPerWriter, count)
}

// 单个 ID 的并发覆盖写必须原子：读到的文档要么是旧版本要么是新版本，
// 不会出现 ID 与内容错配的撕裂状态。
func TestKeywordStore_ConcurrentUpsertSameID(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := NewKeywordStore(zap.NewNop())

	versions := []string{
		"version one of the shared document",
		"version two of the shared document",
		"version three of the shared document",
	}

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := s.AddDocuments(ctx, []types.Document{{
				ID:      "shared",
				Content: versions[i%len(versions)],
			}})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	results, err := s.SearchSimilar(ctx, "shared document", 1, 0)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Contains(t, versions, results[0].Content)
}
