package limiter

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLimiter(t *testing.T, limit int) (*Limiter, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	now := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)
	return &Limiter{Redis: rdb, Limit: limit, Now: func() time.Time { return now }}, mr
}

func TestLimiter(t *testing.T) {
	ctx := context.Background()
	l, mr := newLimiter(t, 2)

	for i := 0; i < 2; i++ {
		ok, err := l.Reserve(ctx, 7)
		require.NoError(t, err)
		assert.True(t, ok)
	}

	ok, err := l.Reserve(ctx, 7)
	require.NoError(t, err)
	assert.False(t, ok)

	key := l.memberCounterKey(7)
	got, err := mr.Get(key)
	require.NoError(t, err)
	assert.Equal(t, "2", got, "a refused reservation takes nothing")
	assert.Equal(t, time.Hour, mr.TTL(key))

	ok, err = l.Reserve(ctx, 8)
	require.NoError(t, err)
	assert.True(t, ok, "counters are per member")

	require.NoError(t, l.Release(ctx, 7))
	ok, err = l.Reserve(ctx, 7)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLimiter_ConcurrentReservations(t *testing.T) {
	ctx := context.Background()
	l, _ := newLimiter(t, 3)

	var granted atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := l.Reserve(ctx, 1)
			assert.NoError(t, err)
			if ok {
				granted.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(3), granted.Load())
}

func TestLimiter_Disabled(t *testing.T) {
	ctx := context.Background()
	l, mr := newLimiter(t, 0)

	for i := 0; i < 5; i++ {
		ok, err := l.Reserve(ctx, 1)
		require.NoError(t, err)
		assert.True(t, ok)
	}
	require.NoError(t, l.Release(ctx, 1))
	assert.Empty(t, mr.Keys())
}

func TestLimiter_RedisDown(t *testing.T) {
	l, mr := newLimiter(t, 1)
	mr.Close()

	_, err := l.Reserve(context.Background(), 1)
	assert.Error(t, err)
}
