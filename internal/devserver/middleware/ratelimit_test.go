package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// newTestLimiter возвращает limiter с управляемыми часами
func newTestLimiter(t *testing.T, rate int, window time.Duration) (*RateLimiter, *time.Time) {
	t.Helper()

	now := time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(rate, window, setupTestLogger())
	rl.now = func() time.Time { return now }
	t.Cleanup(rl.Stop)
	return rl, &now
}

func TestRateLimiter_Allow(t *testing.T) {
	t.Run("within limit", func(t *testing.T) {
		rl, _ := newTestLimiter(t, 3, time.Minute)
		for i := range 3 {
			allowed, _ := rl.Allow("10.0.0.1")
			assert.True(t, allowed, "request %d", i+1)
		}

		allowed, retryAfter := rl.Allow("10.0.0.1")
		assert.False(t, allowed)
		assert.Equal(t, time.Minute, retryAfter)
	})

	t.Run("keys are independent", func(t *testing.T) {
		rl, _ := newTestLimiter(t, 1, time.Minute)

		allowed, _ := rl.Allow("10.0.0.1")
		assert.True(t, allowed)
		allowed, _ = rl.Allow("10.0.0.1")
		assert.False(t, allowed)
		allowed, _ = rl.Allow("10.0.0.2")
		assert.True(t, allowed)
	})

	t.Run("refills after window", func(t *testing.T) {
		rl, now := newTestLimiter(t, 1, time.Minute)

		allowed, _ := rl.Allow("10.0.0.1")
		assert.True(t, allowed)

		*now = now.Add(40 * time.Second)
		allowed, retryAfter := rl.Allow("10.0.0.1")
		assert.False(t, allowed)
		assert.Equal(t, 20*time.Second, retryAfter)

		*now = now.Add(20 * time.Second)
		allowed, _ = rl.Allow("10.0.0.1")
		assert.True(t, allowed)
	})
}

func TestRateLimiter_CleanupOldBuckets(t *testing.T) {
	rl, now := newTestLimiter(t, 5, time.Minute)

	rl.Allow("old")
	*now = now.Add(90 * time.Second)
	rl.Allow("fresh")
	*now = now.Add(60 * time.Second)

	rl.cleanupOldBuckets()

	rl.mu.Lock()
	defer rl.mu.Unlock()
	assert.NotContains(t, rl.buckets, "old")
	assert.Contains(t, rl.buckets, "fresh")
}

func TestRateLimiter_StopTwice(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute, setupTestLogger())
	assert.NotPanics(t, func() {
		rl.Stop()
		rl.Stop()
	})
}

func TestRateLimiter_Middleware(t *testing.T) {
	rl, _ := newTestLimiter(t, 2, time.Minute)
	handler := rl.Middleware(statusHandler(http.StatusOK, "ok"))

	send := func(remoteAddr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/news/db", nil)
		req.RemoteAddr = remoteAddr
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w
	}

	// разные порты одного адреса делят лимит
	assert.Equal(t, http.StatusOK, send("192.168.1.1:1000").Code)
	assert.Equal(t, http.StatusOK, send("192.168.1.1:1001").Code)

	w := send("192.168.1.1:1002")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), "rate limit exceeded")

	assert.Equal(t, http.StatusOK, send("192.168.1.2:1000").Code)
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		headers    map[string]string
		remoteAddr string
		want       string
	}{
		{name: "remote addr", remoteAddr: "192.168.1.1:12345", want: "192.168.1.1"},
		{name: "ipv6", remoteAddr: "[::1]:8080", want: "::1"},
		{name: "no port", remoteAddr: "192.168.1.1", want: "192.168.1.1"},
		{
			name:       "forwarded chain",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.1, 10.0.0.1"},
			remoteAddr: "10.0.0.1:80",
			want:       "203.0.113.1",
		},
		{
			name:       "real ip",
			headers:    map[string]string{"X-Real-IP": "203.0.113.9"},
			remoteAddr: "10.0.0.1:80",
			want:       "203.0.113.9",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, clientIP(req))
		})
	}
}
