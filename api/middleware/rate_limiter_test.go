// api/middleware/rate_limiter_test.go
package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestRateLimiterAllow(t *testing.T) {
	rl := NewRateLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		if !rl.Allow("198.51.100.7") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if rl.Allow("198.51.100.7") {
		t.Error("request over the limit should be rejected")
	}
	if !rl.Allow("203.0.113.9") {
		t.Error("limits should be tracked per IP")
	}
}

func TestRateLimiterDefaults(t *testing.T) {
	rl := NewRateLimiter(0, 0)
	if rl.limit != 120 || rl.window != time.Minute {
		t.Errorf("limiter defaults = %d/%v; want 120/minute", rl.limit, rl.window)
	}
}

func TestRateLimiterSweepsIdleIPs(t *testing.T) {
	rl := NewRateLimiter(5, time.Minute)
	rl.Allow("198.51.100.7")
	rl.Allow("203.0.113.9")

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if len(rl.visitors) != 2 {
		t.Fatalf("expected 2 tracked IPs, got %d", len(rl.visitors))
	}
	rl.sweep(time.Now().Add(2 * time.Minute))
	if len(rl.visitors) != 0 {
		t.Errorf("idle entries survived the sweep: %d remain", len(rl.visitors))
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RateLimitMiddleware(NewRateLimiter(2, time.Minute)))
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	status := func(remoteAddr string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = remoteAddr
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Code
	}

	if got := status("198.51.100.7:40000"); got != http.StatusOK {
		t.Fatalf("first request = %d; want 200", got)
	}
	if got := status("198.51.100.7:40001"); got != http.StatusOK {
		t.Fatalf("second request = %d; want 200", got)
	}
	if got := status("198.51.100.7:40002"); got != http.StatusTooManyRequests {
		t.Errorf("third request = %d; want 429", got)
	}
	// A different client is unaffected.
	if got := status("203.0.113.9:40000"); got != http.StatusOK {
		t.Errorf("other client = %d; want 200", got)
	}
}
