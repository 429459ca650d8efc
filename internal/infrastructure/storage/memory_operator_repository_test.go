package storage

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryOperatorRepository_GetCreatesOnce(t *testing.T) {
	repo := NewMemoryOperatorRepository()
	ctx := context.Background()

	first, err := repo.Get(ctx, 7, 70)
	require.NoError(t, err)
	require.Equal(t, int64(70), first.ChatID)
	require.False(t, first.Subscribed)

	second, err := repo.Get(ctx, 7, 70)
	require.NoError(t, err)
	require.Equal(t, first, second)

	// копия не меняет хранилище без Save
	second.Subscribe()
	third, err := repo.Get(ctx, 7, 70)
	require.NoError(t, err)
	require.False(t, third.Subscribed)
}

func TestMemoryOperatorRepository_Subscribers(t *testing.T) {
	repo := NewMemoryOperatorRepository()
	ctx := context.Background()

	for _, id := range []int64{3, 1, 2} {
		op, err := repo.Get(ctx, id, id*10)
		require.NoError(t, err)
		if id != 2 {
			op.Subscribe()
		}
		require.NoError(t, repo.Save(ctx, op))
	}

	chats, err := repo.Subscribers(ctx)
	require.NoError(t, err)
	require.Equal(t, []int64{10, 30}, chats)
}

func TestMemoryOperatorRepository_SetSubscribed(t *testing.T) {
	repo := NewMemoryOperatorRepository()
	ctx := context.Background()

	op, err := repo.SetSubscribed(ctx, 5, 50, true)
	require.NoError(t, err)
	require.True(t, op.Subscribed)

	op.Unsubscribe()
	chats, err := repo.Subscribers(ctx)
	require.NoError(t, err)
	require.Equal(t, []int64{50}, chats)

	_, err = repo.SetSubscribed(ctx, 5, 50, false)
	require.NoError(t, err)
	chats, err = repo.Subscribers(ctx)
	require.NoError(t, err)
	require.Empty(t, chats)
}

func TestMemoryOperatorRepository_ConcurrentSubscriptions(t *testing.T) {
	repo := NewMemoryOperatorRepository()
	ctx := context.Background()

	var wg sync.WaitGroup
	for id := int64(1); id <= 8; id++ {
		wg.Add(2)
		go func(id int64) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				_, err := repo.SetSubscribed(ctx, id, id*10, i%2 == 0)
				assert.NoError(t, err)
			}
		}(id)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				_, err := repo.Subscribers(ctx)
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	// последняя итерация (i=99) снимает подписку
	chats, err := repo.Subscribers(ctx)
	require.NoError(t, err)
	require.Empty(t, chats)
}
