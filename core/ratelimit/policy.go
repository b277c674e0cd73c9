// Package ratelimit applies the request rate policy of the web service.
package ratelimit

import (
	"context"
	"fmt"
	"strconv"

	"acoustid/core/apierr"
	"acoustid/core/params"
	"acoustid/logger"
)

// Counter records a request for a key and reports whether the key is over limit.
type Counter interface {
	Limit(ctx context.Context, bucket, key string, limit int) (bool, error)
}

// Limits provides the configured thresholds.
type Limits interface {
	IPRate(ip string) int
	ApplicationRate(applicationID int64) (int, bool)
}

// Policy tracks every client by IP and, when it has a configured limit, by
// application. Only the demo application is ever rejected.
type Policy struct {
	counter Counter
	limits  Limits
}

// NewPolicy 创建限流策略
func NewPolicy(counter Counter, limits Limits) *Policy {
	return &Policy{counter: counter, limits: limits}
}

// Check records the request and returns apierr.TooManyRequests when it must
// be rejected.
func (p *Policy) Check(ctx context.Context, ip string, client params.Client) error {
	ipRate := p.limits.IPRate(ip)
	limited, err := p.counter.Limit(ctx, "ip", ip, ipRate)
	if err != nil {
		return fmt.Errorf("rate limit ip %s: %w", ip, err)
	}
	if limited {
		logger.Debug("[RateLimit] IP over limit", logger.String("ip", ip), logger.Int("rate", ipRate))
		if client.IsDemo() {
			return apierr.TooManyRequests(ipRate)
		}
	}

	if client.ApplicationID == 0 {
		return nil
	}
	appRate, ok := p.limits.ApplicationRate(client.ApplicationID)
	if !ok {
		return nil
	}
	limited, err = p.counter.Limit(ctx, "app", strconv.FormatInt(client.ApplicationID, 10), appRate)
	if err != nil {
		return fmt.Errorf("rate limit application %d: %w", client.ApplicationID, err)
	}
	if limited {
		logger.Debug("[RateLimit] Application over limit",
			logger.Int64("application", client.ApplicationID), logger.Int("rate", appRate))
		if client.IsDemo() {
			return apierr.TooManyRequests(appRate)
		}
	}
	return nil
}
