package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	rateLimitPrefix     = "rl"
	rateLimitBucketSize = 100 * time.Millisecond
	rateLimitWindow     = time.Second
)

// rateLimitScript 在滑动窗口内计数
// KEYS[1] hash of bucket -> count
// ARGV: current bucket, oldest bucket in window, ttl in ms, limit
var rateLimitScript = redis.NewScript(`
local key = KEYS[1]
local oldest = tonumber(ARGV[2])
local limit = tonumber(ARGV[4])
redis.call('HINCRBY', key, ARGV[1], 1)
redis.call('PEXPIRE', key, ARGV[3])
local total = 0
local buckets = redis.call('HGETALL', key)
for i = 1, #buckets, 2 do
	if tonumber(buckets[i]) < oldest then
		redis.call('HDEL', key, buckets[i])
	else
		total = total + tonumber(buckets[i + 1])
	end
end
if total > limit then
	return 1
end
return 0
`)

// RateLimiter counts requests per key in a rolling one second window made of
// 100ms buckets. The counters live in redis so every API process shares them.
type RateLimiter struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

// NewRateLimiter 创建限流器
func NewRateLimiter(client *redis.Client) *RateLimiter {
	return &RateLimiter{
		client: client,
		prefix: rateLimitPrefix,
		now:    time.Now,
	}
}

// Limit records one request for key in bucket (e.g. "ip" or "app") and
// reports whether more than limit requests were seen in the last second.
func (l *RateLimiter) Limit(ctx context.Context, bucket, key string, limit int) (bool, error) {
	if l.client == nil {
		return false, fmt.Errorf("Redis client not initialized")
	}

	current := l.now().UnixNano() / int64(rateLimitBucketSize)
	oldest := current - int64(rateLimitWindow/rateLimitBucketSize) + 1
	ttl := 2 * rateLimitWindow.Milliseconds()

	redisKey := fmt.Sprintf("%s:%s:%s", l.prefix, bucket, key)
	limited, err := rateLimitScript.Run(ctx, l.client, []string{redisKey},
		strconv.FormatInt(current, 10),
		strconv.FormatInt(oldest, 10),
		strconv.FormatInt(ttl, 10),
		strconv.Itoa(limit),
	).Int()
	if err != nil {
		return false, fmt.Errorf("failed to run rate limit script: %w", err)
	}
	return limited == 1, nil
}
