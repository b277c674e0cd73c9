package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	lookupsKey         = "lookups"               // Hash: YYYY-MM-DD:HH:app:hit|miss -> count
	userAgentsKey      = "ua"                    // Hash: app:user agent:ip -> count
	lookupTimeSumKey   = "lookup_avg_time.sum"   // String: float seconds
	lookupTimeCountKey = "lookup_avg_time.count" // String: int
)

// LookupStats keeps the usage counters reported by the lookup endpoint.
type LookupStats struct {
	client *redis.Client
	now    func() time.Time
}

// NewLookupStats 创建统计计数器
func NewLookupStats(client *redis.Client) *LookupStats {
	return &LookupStats{client: client, now: time.Now}
}

// CountLookup increments the hourly hit or miss counter of an application.
func (s *LookupStats) CountLookup(ctx context.Context, applicationID int64, hit bool) error {
	if s.client == nil {
		return fmt.Errorf("Redis client not initialized")
	}
	if applicationID == 0 {
		return nil
	}

	kind := "miss"
	if hit {
		kind = "hit"
	}
	field := fmt.Sprintf("%s:%d:%s", s.now().UTC().Format("2006-01-02:15"), applicationID, kind)
	return s.client.HIncrBy(ctx, lookupsKey, field, 1).Err()
}

// CountUserAgent increments the request counter of a client program.
func (s *LookupStats) CountUserAgent(ctx context.Context, applicationID int64, userAgent, ip string) error {
	if s.client == nil {
		return fmt.Errorf("Redis client not initialized")
	}
	if applicationID == 0 {
		return nil
	}

	field := fmt.Sprintf("%d:%s:%s", applicationID, userAgent, ip)
	return s.client.HIncrBy(ctx, userAgentsKey, field, 1).Err()
}

// AddLookupTime adds one sample to the running average lookup time.
func (s *LookupStats) AddLookupTime(ctx context.Context, d time.Duration) error {
	if s.client == nil {
		return fmt.Errorf("Redis client not initialized")
	}

	pipe := s.client.TxPipeline()
	pipe.IncrByFloat(ctx, lookupTimeSumKey, d.Seconds())
	pipe.Incr(ctx, lookupTimeCountKey)
	_, err := pipe.Exec(ctx)
	return err
}

// AverageLookupTime returns the mean of all recorded lookup times.
func (s *LookupStats) AverageLookupTime(ctx context.Context) (time.Duration, error) {
	if s.client == nil {
		return 0, fmt.Errorf("Redis client not initialized")
	}

	pipe := s.client.Pipeline()
	sumCmd := pipe.Get(ctx, lookupTimeSumKey)
	countCmd := pipe.Get(ctx, lookupTimeCountKey)
	if _, err := pipe.Exec(ctx); err != nil {
		if err == redis.Nil {
			return 0, nil
		}
		return 0, err
	}

	sum, err := sumCmd.Float64()
	if err != nil {
		return 0, err
	}
	count, err := countCmd.Int64()
	if err != nil || count == 0 {
		return 0, err
	}
	return time.Duration(sum / float64(count) * float64(time.Second)), nil
}
