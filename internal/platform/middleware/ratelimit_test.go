package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

func TestRateLimit_RequestsWithinLimit(t *testing.T) {
	cfg := RateLimitConfig{
		RequestsPerSecond: 10,
		BurstSize:         5,
	}

	e := echo.New()
	mw := RateLimit(cfg)
	handler := mw(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	// Send 5 requests (within burst size), all should pass
	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		err := handler(c)
		if err != nil {
			t.Fatalf("request %d: expected no error, got %v", i+1, err)
		}
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, rec.Code)
		}

		limitHeader := rec.Header().Get("X-RateLimit-Limit")
		if limitHeader != "10" {
			t.Errorf("request %d: expected X-RateLimit-Limit '10', got %q", i+1, limitHeader)
		}
	}
}

func TestRateLimit_ExceedsLimit(t *testing.T) {
	cfg := RateLimitConfig{
		RequestsPerSecond: 1,
		BurstSize:         2,
	}

	e := echo.New()
	mw := RateLimit(cfg)
	handler := mw(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	// First 2 requests should pass (burst size = 2)
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		if err := handler(c); err != nil {
			t.Fatalf("request %d: expected no error, got %v", i+1, err)
		}
	}

	// Third request should be rate limited
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	err := handler(c)

	if err == nil {
		t.Fatal("expected error for rate-limited request")
	}
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError, got %T", err)
	}
	if httpErr.Code != http.StatusTooManyRequests {
		t.Errorf("expected 429, got %d", httpErr.Code)
	}
}

func TestRateLimit_RetryAfterHeader(t *testing.T) {
	cfg := RateLimitConfig{
		RequestsPerSecond: 1,
		BurstSize:         1,
	}

	e := echo.New()
	mw := RateLimit(cfg)
	handler := mw(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	_ = handler(c)

	// Second request should be rate limited and include Retry-After
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	rec = httptest.NewRecorder()
	c = e.NewContext(req, rec)
	err := handler(c)

	if err == nil {
		t.Fatal("expected error for rate-limited request")
	}

	retryAfter := rec.Header().Get("Retry-After")
	if retryAfter == "" {
		t.Error("expected Retry-After header to be set")
	}

	retryVal, parseErr := strconv.Atoi(retryAfter)
	if parseErr != nil {
		t.Fatalf("Retry-After header is not a valid integer: %q", retryAfter)
	}
	if retryVal < 1 {
		t.Errorf("expected Retry-After >= 1, got %d", retryVal)
	}

	remaining := rec.Header().Get("X-RateLimit-Remaining")
	if remaining != "0" {
		t.Errorf("expected X-RateLimit-Remaining '0', got %q", remaining)
	}
}

func TestRateLimit_PerUserIsolation(t *testing.T) {
	cfg := RateLimitConfig{
		RequestsPerSecond: 1,
		BurstSize:         1,
	}

	e := echo.New()
	mw := RateLimit(cfg)
	handler := mw(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	req1 := httptest.NewRequest(http.MethodGet, "/", nil)
	rec1 := httptest.NewRecorder()
	c1 := e.NewContext(req1, rec1)
	c1.Set("user_id", "user-a")
	if err := handler(c1); err != nil {
		t.Fatalf("user-a first request: expected no error, got %v", err)
	}

	req2 := httptest.NewRequest(http.MethodGet, "/", nil)
	rec2 := httptest.NewRecorder()
	c2 := e.NewContext(req2, rec2)
	c2.Set("user_id", "user-a")
	if err := handler(c2); err == nil {
		t.Fatal("user-a second request: expected rate limit error")
	}

	// Separate bucket for a different user
	req3 := httptest.NewRequest(http.MethodGet, "/", nil)
	rec3 := httptest.NewRecorder()
	c3 := e.NewContext(req3, rec3)
	c3.Set("user_id", "user-b")
	if err := handler(c3); err != nil {
		t.Fatalf("user-b first request: expected no error, got %v", err)
	}
}

func TestBucket_RetryAfterWithZeroRate(t *testing.T) {
	now := time.Now()
	b := &bucket{level: 1, capacity: 1, rate: 0, lastSeen: now}

	if ok, _ := b.take(now); !ok {
		t.Fatal("expected first take to succeed")
	}
	ok, retryAfter := b.take(now)
	if ok {
		t.Fatal("expected empty bucket to deny")
	}
	if retryAfter != 1 {
		t.Errorf("expected retryAfter 1 for zero rate, got %d", retryAfter)
	}
}

func TestLimiter_SameKeySameBucket(t *testing.T) {
	l := newLimiter(RateLimitConfig{RequestsPerSecond: 10, BurstSize: 5})
	now := time.Now()

	b1 := l.get("key1", now)
	if b1 == nil {
		t.Fatal("expected non-nil bucket")
	}
	if b2 := l.get("key1", now); b1 != b2 {
		t.Error("expected same bucket instance for same key")
	}
	if b3 := l.get("key2", now); b1 == b3 {
		t.Error("expected different bucket for different key")
	}
}

func TestLimiter_EvictsIdleBuckets(t *testing.T) {
	l := newLimiter(RateLimitConfig{RequestsPerSecond: 10, BurstSize: 5})
	start := time.Now()

	for i := 0; i < 20; i++ {
		key := "user:" + strconv.Itoa(i)
		b := l.get(key, start)
		b.take(start)
	}

	// One caller comes back after everyone has gone idle; the sweep runs
	// and only that caller's bucket survives.
	later := start.Add(2 * bucketIdleTTL)
	l.get("user:0", later)

	l.mu.Lock()
	remaining := len(l.buckets)
	l.mu.Unlock()
	if remaining != 1 {
		t.Errorf("expected idle buckets to be swept down to 1, got %d", remaining)
	}
}
