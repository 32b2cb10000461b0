package middleware

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gh900098/Mini-Game-Cursor-sub001/pkg/logger"
	"github.com/gh900098/Mini-Game-Cursor-sub001/pkg/metrics"
	pkgredis "github.com/gh900098/Mini-Game-Cursor-sub001/pkg/redis"
	"github.com/gh900098/Mini-Game-Cursor-sub001/pkg/response"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RateLimitConfig holds token bucket settings
type RateLimitConfig struct {
	// Disabled turns the middleware into a pass-through
	Disabled          bool
	RequestsPerSecond int
	BurstSize         int
	// RedisClient shares buckets across replicas when set
	RedisClient *pkgredis.Client
	KeyPrefix   string
	// KeyFunc selects the bucket, client IP by default
	KeyFunc  func(c *gin.Context) string
	EntryTTL time.Duration
}

// DefaultRateLimitConfig returns limits suited to the public member login endpoints
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerSecond: 5,
		BurstSize:         20,
		KeyPrefix:         "ratelimit:",
		EntryTTL:          time.Minute,
	}
}

// bucketStore takes one token for key and reports the whole tokens left
type bucketStore interface {
	take(ctx context.Context, key string) (allowed bool, remaining int, err error)
}

type bucket struct {
	mu     sync.Mutex
	tokens float64
	last   time.Time
}

// LocalRateLimiter keeps one token bucket per key in process memory.
// Idle buckets are swept lazily on the write path.
type LocalRateLimiter struct {
	rate  float64
	burst float64
	ttl   time.Duration

	mu        sync.Mutex
	buckets   map[string]*bucket
	lastSweep time.Time
	now       func() time.Time
}

// NewLocalRateLimiter creates an in-memory limiter
func NewLocalRateLimiter(config RateLimitConfig) *LocalRateLimiter {
	ttl := config.EntryTTL
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &LocalRateLimiter{
		rate:    float64(config.RequestsPerSecond),
		burst:   float64(config.BurstSize),
		ttl:     ttl,
		buckets: make(map[string]*bucket),
		now:     time.Now,
	}
}

// Allow takes one token from the bucket for key
func (rl *LocalRateLimiter) Allow(key string) bool {
	ok, _, _ := rl.take(context.Background(), key)
	return ok
}

func (rl *LocalRateLimiter) take(_ context.Context, key string) (bool, int, error) {
	now := rl.now()

	rl.mu.Lock()
	if now.Sub(rl.lastSweep) > rl.ttl {
		for k, b := range rl.buckets {
			b.mu.Lock()
			idle := now.Sub(b.last) > rl.ttl
			b.mu.Unlock()
			if idle {
				delete(rl.buckets, k)
			}
		}
		rl.lastSweep = now
	}
	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{tokens: rl.burst, last: now}
		rl.buckets[key] = b
	}
	rl.mu.Unlock()

	b.mu.Lock()
	defer b.mu.Unlock()

	b.tokens = math.Min(rl.burst, b.tokens+now.Sub(b.last).Seconds()*rl.rate)
	b.last = now
	if b.tokens < 1 {
		return false, 0, nil
	}
	b.tokens--
	return true, int(b.tokens), nil
}

// Size returns the number of live buckets
func (rl *LocalRateLimiter) Size() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.buckets)
}

const tokenBucketScriptName = "rate_limit_token_bucket"

const tokenBucketScript = `
local rate = tonumber(ARGV[1])
local burst = tonumber(ARGV[2])
local now = tonumber(ARGV[3])
local ttl = tonumber(ARGV[4])

local data = redis.call("HMGET", KEYS[1], "tokens", "last_update")
local tokens = tonumber(data[1]) or burst
local last = tonumber(data[2]) or now

tokens = math.min(burst, tokens + (now - last) * rate)

local allowed = 0
if tokens >= 1 then
    tokens = tokens - 1
    allowed = 1
end

redis.call("HSET", KEYS[1], "tokens", tokens, "last_update", now)
redis.call("EXPIRE", KEYS[1], ttl)
return {allowed, math.floor(tokens)}
`

// RedisRateLimiter is a token bucket shared by every replica through Redis
type RedisRateLimiter struct {
	client *pkgredis.Client
	prefix string
	rate   int
	burst  int
	ttl    int
	loaded atomic.Bool
}

// NewRedisRateLimiter creates a Redis-backed limiter
func NewRedisRateLimiter(config RateLimitConfig) *RedisRateLimiter {
	ttl := int(config.EntryTTL.Seconds())
	if ttl < 1 {
		ttl = 60
	}
	return &RedisRateLimiter{
		client: config.RedisClient,
		prefix: config.KeyPrefix,
		rate:   config.RequestsPerSecond,
		burst:  config.BurstSize,
		ttl:    ttl,
	}
}

// Allow takes one token for key and reports the remaining whole tokens
func (rl *RedisRateLimiter) Allow(ctx context.Context, key string) (bool, int, error) {
	return rl.take(ctx, key)
}

func (rl *RedisRateLimiter) take(ctx context.Context, key string) (bool, int, error) {
	if !rl.loaded.Load() {
		if _, err := rl.client.LoadScript(ctx, tokenBucketScriptName, tokenBucketScript); err != nil {
			return false, 0, err
		}
		rl.loaded.Store(true)
	}
	now := float64(time.Now().UnixMicro()) / 1e6

	values, err := rl.client.EvalShaByName(ctx, tokenBucketScriptName, []string{rl.prefix + key},
		rl.rate, rl.burst, now, rl.ttl).Int64Slice()
	if err != nil {
		return false, 0, err
	}
	if len(values) != 2 {
		return false, 0, fmt.Errorf("unexpected rate limit result length %d", len(values))
	}
	return values[0] == 1, int(values[1]), nil
}

// RateLimiter limits requests per key. Redis errors fail open.
func RateLimiter(config RateLimitConfig) gin.HandlerFunc {
	if config.Disabled {
		return func(c *gin.Context) { c.Next() }
	}

	var store bucketStore
	if config.RedisClient != nil {
		store = NewRedisRateLimiter(config)
	} else {
		store = NewLocalRateLimiter(config)
	}

	keyFunc := config.KeyFunc
	if keyFunc == nil {
		keyFunc = func(c *gin.Context) string { return c.ClientIP() }
	}
	limit := strconv.Itoa(config.RequestsPerSecond)

	return func(c *gin.Context) {
		ctx := c.Request.Context()

		allowed, remaining, err := store.take(ctx, keyFunc(c))
		if err != nil {
			logger.Get().WarnContext(ctx, "rate limiter unavailable, allowing request", zap.Error(err))
			allowed, remaining = true, config.BurstSize-1
		}

		c.Header("X-RateLimit-Limit", limit)
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if !allowed {
			route := c.FullPath()
			if route == "" {
				route = "unmatched"
			}
			metrics.RateLimited.WithLabelValues(route).Inc()

			c.Header("Retry-After", "1")
			response.Abort(c, response.ErrCodeTooManyRequests, "Rate limit exceeded. Please retry after 1 second(s).")
			return
		}
		c.Next()
	}
}
