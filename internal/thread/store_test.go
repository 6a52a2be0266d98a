package thread

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreReadAfterWrite(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	ctx := context.Background()

	_, ok, err := store.Get(ctx, "conv-1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Put(ctx, "conv-1", "thread-1"))

	threadID, ok, err := store.Get(ctx, "conv-1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "thread-1", threadID)
}

func TestMemoryStoreIdempotentPut(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "conv-1", "thread-1"))
	assert.NoError(t, store.Put(ctx, "conv-1", "thread-1"))
	assert.Error(t, store.Put(ctx, "conv-1", "thread-other"))
}

func TestMemoryStoreRejectsEmptyKeys(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	ctx := context.Background()

	assert.Error(t, store.Put(ctx, "", "thread-1"))
	assert.Error(t, store.Put(ctx, "conv-1", ""))
}

func TestMemoryStoreConcurrentDistinctKeys(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			conv := fmt.Sprintf("conv-%d", n)
			thread := fmt.Sprintf("thread-%d", n)
			if err := store.Put(ctx, conv, thread); err != nil {
				t.Errorf("put %s: %v", conv, err)
				return
			}
			got, ok, err := store.Get(ctx, conv)
			if err != nil || !ok || got != thread {
				t.Errorf("get %s: got %q ok=%v err=%v", conv, got, ok, err)
			}
		}(i)
	}
	wg.Wait()
}
