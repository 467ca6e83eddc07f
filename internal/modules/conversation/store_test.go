package conversation

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voyage/internal/types"
)

// setupRedisStore skips when VOYAGE_TEST_REDIS_ADDR is not set.
func setupRedisStore(t *testing.T, owner types.ID) *RedisStore {
	t.Helper()
	addr := os.Getenv("VOYAGE_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("VOYAGE_TEST_REDIS_ADDR not set; skipping Redis-backed tests")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = rdb.Close() })

	store := NewRedisStore(rdb, DefaultLimit, nil)
	require.NoError(t, store.Clear(context.Background(), owner))
	return store
}

func TestRedisStore_TrimsToMostRecent(t *testing.T) {
	owner := types.ID(fmt.Sprintf("test-%d", time.Now().UnixNano()))
	store := setupRedisStore(t, owner)
	ctx := context.Background()

	for i := 0; i < 30; i++ {
		require.NoError(t, store.Append(ctx, owner, Exchange(fmt.Sprintf("q%d", i), fmt.Sprintf("a%d", i), time.Now())...))
	}

	turns, err := store.GetAll(ctx, owner)
	require.NoError(t, err)
	require.Len(t, turns, DefaultLimit)
	assert.Equal(t, "q5", turns[0].Text)
	assert.Equal(t, "a29", turns[len(turns)-1].Text)

	require.NoError(t, store.Clear(ctx, owner))
	turns, err = store.GetAll(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, turns)
}
