package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestRateLimiterBlocksAfterThreshold(t *testing.T) {
	_, client := newTestClient(t)
	ctx := context.Background()

	now := time.Unix(1700000000, 0)
	limiter := NewRateLimiter(client)
	limiter.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		limited, err := limiter.Limit(ctx, "ip", "127.0.0.1", 3)
		require.NoError(t, err)
		assert.False(t, limited, "request %d", i+1)
	}
	limited, err := limiter.Limit(ctx, "ip", "127.0.0.1", 3)
	require.NoError(t, err)
	assert.True(t, limited)

	// other keys have their own counters
	limited, err = limiter.Limit(ctx, "ip", "127.0.0.2", 3)
	require.NoError(t, err)
	assert.False(t, limited)
}

func TestRateLimiterWindowSlides(t *testing.T) {
	mr, client := newTestClient(t)
	ctx := context.Background()

	now := time.Unix(1700000000, 0)
	limiter := NewRateLimiter(client)
	limiter.now = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		_, err := limiter.Limit(ctx, "app", "2", 1)
		require.NoError(t, err)
	}

	now = now.Add(500 * time.Millisecond)
	limited, err := limiter.Limit(ctx, "app", "2", 1)
	require.NoError(t, err)
	assert.True(t, limited)

	now = now.Add(time.Second)
	limited, err = limiter.Limit(ctx, "app", "2", 1)
	require.NoError(t, err)
	assert.False(t, limited)

	// expired buckets are pruned
	keys, err := mr.HKeys("rl:app:2")
	require.NoError(t, err)
	assert.Len(t, keys, 1)
}

func TestRateLimiterNilClient(t *testing.T) {
	_, err := NewRateLimiter(nil).Limit(context.Background(), "ip", "x", 1)
	assert.Error(t, err)
}

func TestLookupStats(t *testing.T) {
	mr, client := newTestClient(t)
	ctx := context.Background()

	stats := NewLookupStats(client)
	stats.now = func() time.Time { return time.Date(2024, 3, 1, 14, 30, 0, 0, time.UTC) }

	require.NoError(t, stats.CountLookup(ctx, 5, true))
	require.NoError(t, stats.CountLookup(ctx, 5, true))
	require.NoError(t, stats.CountLookup(ctx, 5, false))
	require.NoError(t, stats.CountLookup(ctx, 0, false))
	assert.Equal(t, "2", mr.HGet(lookupsKey, "2024-03-01:14:5:hit"))
	assert.Equal(t, "1", mr.HGet(lookupsKey, "2024-03-01:14:5:miss"))

	require.NoError(t, stats.CountUserAgent(ctx, 5, "foo/1.0", "10.0.0.1"))
	assert.Equal(t, "1", mr.HGet(userAgentsKey, "5:foo/1.0:10.0.0.1"))

	avg, err := stats.AverageLookupTime(ctx)
	require.NoError(t, err)
	assert.Zero(t, avg)

	require.NoError(t, stats.AddLookupTime(ctx, 100*time.Millisecond))
	require.NoError(t, stats.AddLookupTime(ctx, 300*time.Millisecond))
	avg, err = stats.AverageLookupTime(ctx)
	require.NoError(t, err)
	assert.InDelta(t, float64(200*time.Millisecond), float64(avg), float64(time.Millisecond))
}

func TestSubmissionNotifierPublish(t *testing.T) {
	_, client := newTestClient(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sub := client.Subscribe(ctx, SubmissionsChannel)
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	require.NoError(t, NewSubmissionNotifier(client).Publish(ctx, []int64{1, 2}))

	select {
	case msg := <-sub.Channel():
		assert.Equal(t, "[1,2]", msg.Payload)
	case <-ctx.Done():
		t.Fatal("no message published")
	}
}
