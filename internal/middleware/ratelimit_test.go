package middleware

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func limitedEngine(l *RateLimiter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(l.Middleware())
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	return r
}

func hit(r http.Handler) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	return w
}

func TestRateLimiter_DisabledWithoutRedis(t *testing.T) {
	for name, l := range map[string]*RateLimiter{
		"nil":        nil,
		"empty addr": NewRedisRateLimiter("", "", 0, 1, time.Minute),
	} {
		if l.Enabled() {
			t.Errorf("%s: Enabled() = true", name)
		}
		r := limitedEngine(l)
		for i := 0; i < 3; i++ {
			if w := hit(r); w.Code != http.StatusOK {
				t.Fatalf("%s: request %d status = %d", name, i+1, w.Code)
			}
		}
		if err := l.Close(); err != nil {
			t.Errorf("%s: Close() = %v", name, err)
		}
	}
}

func TestRateLimiter_UnreachableRedisFailsOpen(t *testing.T) {
	l := NewRedisRateLimiter("127.0.0.1:1", "", 0, 1, time.Minute)
	if l.Enabled() {
		t.Fatal("Enabled() = true for unreachable redis")
	}
	if w := hit(limitedEngine(l)); w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

// Needs a running Redis, e.g. REDIS_ADDR=localhost:6379.
func TestRateLimiter_Redis(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}

	// a window no other test run shares
	window := time.Duration(time.Now().UnixNano()%1000+1000) * time.Second
	l := NewRedisRateLimiter(addr, "", 0, 2, window)
	if !l.Enabled() {
		t.Fatalf("redis at %s not reachable", addr)
	}
	defer l.Close()

	r := limitedEngine(l)
	for i := 0; i < 2; i++ {
		if w := hit(r); w.Code != http.StatusOK {
			t.Fatalf("request %d status = %d", i+1, w.Code)
		}
	}
	w := hit(r)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("third request status = %d, want 429", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("Retry-After header missing")
	}
}
