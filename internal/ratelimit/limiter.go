package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/fatali-fataliyev/bank_ledger/logging"
	redis "github.com/redis/go-redis/v9"
)

const keyPrefix = "bank_ledger:rate_limit:"

var tokenBucketScript = redis.NewScript(`
	local key = KEYS[1]
	local capacity = tonumber(ARGV[1])
	local rate = tonumber(ARGV[2])
	local now = tonumber(ARGV[3])
	local requested = tonumber(ARGV[4])

	local info = redis.call("HMGET", key, "tokens", "last_refill")
	local tokens = tonumber(info[1])
	local last_refill = tonumber(info[2])

	if tokens == nil then
		tokens = capacity
		last_refill = now
	end

	local delta = math.max(0, now - last_refill)
	local filled_tokens = math.min(capacity, tokens + (delta / 1000 * rate))

	local allowed = 0
	if filled_tokens >= requested then
		filled_tokens = filled_tokens - requested
		allowed = 1
		redis.call("HMSET", key, "tokens", filled_tokens, "last_refill", now)
		redis.call("EXPIRE", key, math.ceil(capacity / rate) * 2)
	end

	return allowed
`)

// Limiter is a Redis token bucket shared by every server instance. A nil
// *Limiter allows everything.
type Limiter struct {
	client   redis.Scripter
	capacity int
	rate     float64
	now      func() time.Time
}

func New(client redis.Scripter, capacity int, rate float64) *Limiter {
	return &Limiter{
		client:   client,
		capacity: capacity,
		rate:     rate,
		now:      time.Now,
	}
}

// Connect dials Redis and returns nil when it is unreachable, which
// disables rate limiting rather than failing startup.
func Connect(ctx context.Context, addr string, capacity int, rate float64) *Limiter {
	if addr == "" {
		return nil
	}

	rdb := redis.NewClient(&redis.Options{Addr: addr})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		logging.Logger.Warnf("failed to connect to redis at %s: %v, rate limiter disabled", addr, err)
		rdb.Close()
		return nil
	}

	logging.Logger.Infof("connected to redis at %s, rate limit %.2f rps burst %d", addr, rate, capacity)
	return New(rdb, capacity, rate)
}

func bucketKey(scope string, id string) string {
	return fmt.Sprintf("%s%s:%s", keyPrefix, scope, id)
}

func (l *Limiter) Allow(ctx context.Context, scope string, id string) (bool, error) {
	if l == nil {
		return true, nil
	}

	keys := []string{bucketKey(scope, id)}
	args := []interface{}{l.capacity, l.rate, l.now().UnixMilli(), 1}

	result, err := tokenBucketScript.Run(ctx, l.client, keys, args...).Int64()
	if err != nil {
		return false, err
	}
	return result == 1, nil
}

func (l *Limiter) Close() error {
	if l == nil {
		return nil
	}
	if closer, ok := l.client.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}
