package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
)

// RateLimitConfig tunes the per-caller token bucket.
type RateLimitConfig struct {
	RequestsPerSecond float64
	BurstSize         int
}

// DefaultRateLimitConfig is generous enough for a clinic front desk
// polling availability while still stopping scripted slot grabbing.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerSecond: 100,
		BurstSize:         200,
	}
}

// bucket is one caller's token bucket. level refills continuously at rate
// tokens per second, capped at capacity.
type bucket struct {
	mu       sync.Mutex
	level    float64
	capacity float64
	rate     float64
	lastSeen time.Time
}

// take refills the bucket for the elapsed time and spends one token.
// When the bucket is empty it reports the whole seconds until a token
// becomes available.
func (b *bucket) take(now time.Time) (ok bool, retryAfter int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.level += now.Sub(b.lastSeen).Seconds() * b.rate
	if b.level > b.capacity {
		b.level = b.capacity
	}
	b.lastSeen = now

	if b.level >= 1 {
		b.level--
		return true, 0
	}
	if b.rate <= 0 {
		return false, 1
	}
	return false, int((1-b.level)/b.rate) + 1
}

// bucketIdleTTL is how long a caller must stay silent before its bucket is
// dropped. Idle buckets are full anyway, so eviction never loosens the
// limit; it only keeps the map from growing one entry per caller forever.
const bucketIdleTTL = 10 * time.Minute

// limiter holds the per-caller buckets and sweeps idle ones.
type limiter struct {
	mu      sync.Mutex
	cfg     RateLimitConfig
	buckets map[string]*bucket
	swept   time.Time
}

func newLimiter(cfg RateLimitConfig) *limiter {
	return &limiter{
		cfg:     cfg,
		buckets: make(map[string]*bucket),
		swept:   time.Now(),
	}
}

func (l *limiter) get(key string, now time.Time) *bucket {
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.swept) > bucketIdleTTL {
		for k, b := range l.buckets {
			b.mu.Lock()
			idle := now.Sub(b.lastSeen) > bucketIdleTTL
			b.mu.Unlock()
			if idle {
				delete(l.buckets, k)
			}
		}
		l.swept = now
	}

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{
			level:    float64(l.cfg.BurstSize),
			capacity: float64(l.cfg.BurstSize),
			rate:     l.cfg.RequestsPerSecond,
			lastSeen: now,
		}
		l.buckets[key] = b
	}
	return b
}

// RateLimit limits authenticated traffic per account and anonymous traffic
// per source IP, so one flooding caller cannot starve other patients behind
// the same NAT.
func RateLimit(cfg RateLimitConfig) echo.MiddlewareFunc {
	l := newLimiter(cfg)
	limitHeader := strconv.FormatFloat(cfg.RequestsPerSecond, 'f', 0, 64)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := "ip:" + c.RealIP()
			if userID, ok := c.Get("user_id").(string); ok {
				key = "user:" + userID
			}

			now := time.Now()
			ok, retryAfter := l.get(key, now).take(now)

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", limitHeader)
			if !ok {
				h.Set("Retry-After", strconv.Itoa(retryAfter))
				h.Set("X-RateLimit-Remaining", "0")
				return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
			}
			return next(c)
		}
	}
}
