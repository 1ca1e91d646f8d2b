package middleware

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	appErrors "github.com/noah-isme/timeslots-api/pkg/errors"
	"github.com/noah-isme/timeslots-api/pkg/response"
)

// Limiter decides whether one more request from key fits the budget.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// RateLimit rejects callers over budget with 429. When the limiter itself
// fails the request passes if failOpen is set and gets 503 otherwise.
func RateLimit(limiter Limiter, logger *zap.Logger, failOpen bool) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		key := c.ClientIP()
		allowed, err := limiter.Allow(c.Request.Context(), key)
		if err != nil {
			logger.Warn("rate limiter error", zap.String("client", key), zap.Error(err))
			if failOpen {
				c.Next()
				return
			}
			response.Abort(c, appErrors.ErrServiceUnavailable)
			return
		}
		if !allowed {
			logger.Debug("rate limit exceeded", zap.String("client", key), zap.String("path", c.FullPath()))
			response.Abort(c, appErrors.ErrRateLimited)
			return
		}
		c.Next()
	}
}

// RedisLimiter is a fixed-window limiter shared by every API instance.
type RedisLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
	prefix string
}

var fixedWindowScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return current
`)

// NewRedisLimiter allows limit requests per window and key.
func NewRedisLimiter(client *redis.Client, limit int, window time.Duration, prefix string) *RedisLimiter {
	if limit <= 0 {
		limit = 120
	}
	if window <= 0 {
		window = time.Minute
	}
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "rl"
	}
	return &RedisLimiter{client: client, limit: limit, window: window, prefix: prefix}
}

// Allow increments the window counter of key.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	res, err := fixedWindowScript.Run(ctx, l.client, []string{l.prefix + ":" + key}, l.window.Milliseconds()).Result()
	if err != nil {
		return false, err
	}
	var count int64
	switch v := res.(type) {
	case int64:
		count = v
	case string:
		count, err = strconv.ParseInt(v, 10, 64)
		if err != nil {
			return false, err
		}
	default:
		return false, fmt.Errorf("unexpected rate limit script result %T", res)
	}
	return count <= int64(l.limit), nil
}

// LocalLimiter is a per-process token bucket per key.
type LocalLimiter struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	idle     time.Duration
	visitors map[string]*visitor
	now      func() time.Time
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

const visitorSweepThreshold = 4096

// NewLocalLimiter refills limit tokens per window with a burst of limit.
func NewLocalLimiter(limit int, window time.Duration) *LocalLimiter {
	if limit <= 0 {
		limit = 120
	}
	if window <= 0 {
		window = time.Minute
	}
	return &LocalLimiter{
		limit:    rate.Every(window / time.Duration(limit)),
		burst:    limit,
		idle:     2 * window,
		visitors: make(map[string]*visitor),
		now:      time.Now,
	}
}

// Allow takes one token from the bucket of key.
func (l *LocalLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	v, ok := l.visitors[key]
	if !ok {
		if len(l.visitors) >= visitorSweepThreshold {
			l.sweep(now)
		}
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[key] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1), nil
}

func (l *LocalLimiter) sweep(now time.Time) {
	for key, v := range l.visitors {
		if now.Sub(v.lastSeen) > l.idle {
			delete(l.visitors, key)
		}
	}
}
