package server

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/livetemplate/studio/internal/logging"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func reqFromIP(ip string) *http.Request {
	r := httptest.NewRequest("GET", "/api/buffers", nil)
	r.RemoteAddr = ip + ":12345"
	return r
}

// rateLimitWrap creates a rate-limited handler whose cleanup goroutine
// stops when the test finishes.
func rateLimitWrap(t *testing.T, rps float64, burst, maxIPs int, next http.Handler) http.Handler {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	mw, _ := RateLimitMiddleware(ctx, rps, burst, maxIPs, logging.Nop())
	return mw(next)
}

func TestRateLimitBurstExhausted(t *testing.T) {
	wrapped := rateLimitWrap(t, 0.001, 2, 10, okHandler())

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		wrapped.ServeHTTP(w, reqFromIP("8.8.8.8"))
		if w.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, w.Code)
		}
	}

	w := httptest.NewRecorder()
	wrapped.ServeHTTP(w, reqFromIP("8.8.8.8"))
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
	if w.Header().Get("Retry-After") != "1" {
		t.Errorf("expected Retry-After header")
	}
	if !strings.Contains(w.Body.String(), "rate limit exceeded") {
		t.Errorf("unexpected body %q", w.Body.String())
	}

	// Other clients have their own bucket.
	w = httptest.NewRecorder()
	wrapped.ServeHTTP(w, reqFromIP("9.9.9.9"))
	if w.Code != http.StatusOK {
		t.Errorf("second IP: expected 200, got %d", w.Code)
	}
}

func TestRateLimitEvictedIPGetsFreshLimiter(t *testing.T) {
	wrapped := rateLimitWrap(t, 100, 1, 2, okHandler())

	w := httptest.NewRecorder()
	wrapped.ServeHTTP(w, reqFromIP("1.1.1.1"))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	w = httptest.NewRecorder()
	wrapped.ServeHTTP(w, reqFromIP("1.1.1.1"))
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}

	for _, ip := range []string{"2.2.2.2", "3.3.3.3"} {
		w = httptest.NewRecorder()
		wrapped.ServeHTTP(w, reqFromIP(ip))
		if w.Code != http.StatusOK {
			t.Fatalf("IP %s: expected 200, got %d", ip, w.Code)
		}
	}

	w = httptest.NewRecorder()
	wrapped.ServeHTTP(w, reqFromIP("1.1.1.1"))
	if w.Code != http.StatusOK {
		t.Errorf("evicted IP returning: expected 200 (fresh limiter), got %d", w.Code)
	}
}

func TestRateLimitConcurrentAccess(t *testing.T) {
	wrapped := rateLimitWrap(t, 1000, 1000, 50, okHandler())

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			ip := fmt.Sprintf("10.0.%d.%d", id/256, id%256)
			for j := 0; j < 10; j++ {
				w := httptest.NewRecorder()
				wrapped.ServeHTTP(w, reqFromIP(ip))
				if w.Code != http.StatusOK {
					t.Errorf("IP %s: got %d under concurrent load", ip, w.Code)
				}
			}
		}(i)
	}
	wg.Wait()
}

func TestRateLimitCleanupStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	_, done := RateLimitMiddleware(ctx, 100, 100, 100, logging.Nop())

	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("cleanup goroutine did not exit within 2s")
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name   string
		remote string
		xff    string
		want   string
	}{
		{"direct", "203.0.113.7:5000", "", "203.0.113.7"},
		{"untrusted forwarded", "203.0.113.7:5000", "1.2.3.4", "203.0.113.7"},
		{"trusted proxy", "127.0.0.1:5000", "1.2.3.4, 10.0.0.1", "1.2.3.4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = tt.remote
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if got := getClientIP(r); got != tt.want {
				t.Errorf("getClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCORSMiddleware(t *testing.T) {
	tests := []struct {
		name    string
		origins []string
		origin  string
		want    string
	}{
		{"disabled", nil, "http://a.test", ""},
		{"wildcard", []string{"*"}, "http://a.test", "*"},
		{"listed", []string{"http://a.test"}, "http://a.test", "http://a.test"},
		{"not listed", []string{"http://a.test"}, "http://b.test", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := CORSMiddleware(tt.origins)(okHandler())
			r := httptest.NewRequest("GET", "/api/buffers", nil)
			r.Header.Set("Origin", tt.origin)
			w := httptest.NewRecorder()
			h.ServeHTTP(w, r)
			if got := w.Header().Get("Access-Control-Allow-Origin"); got != tt.want {
				t.Errorf("Allow-Origin = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCORSPreflight(t *testing.T) {
	called := false
	h := CORSMiddleware([]string{"*"})(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		called = true
	}))
	r := httptest.NewRequest(http.MethodOptions, "/api/buffers/html", nil)
	r.Header.Set("Origin", "http://a.test")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	if w.Code != http.StatusOK || called {
		t.Errorf("preflight should be answered by the middleware (code %d, called %v)", w.Code, called)
	}
	if !strings.Contains(w.Header().Get("Access-Control-Allow-Methods"), "PUT") {
		t.Errorf("Allow-Methods = %q", w.Header().Get("Access-Control-Allow-Methods"))
	}
}

func TestSecurityHeaders(t *testing.T) {
	h := SecurityHeadersMiddleware()(okHandler())
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))

	if got := w.Header().Get("X-Frame-Options"); got != "SAMEORIGIN" {
		t.Errorf("X-Frame-Options = %q", got)
	}
	if got := w.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
	if !strings.Contains(w.Header().Get("Content-Security-Policy"), "frame-src 'self'") {
		t.Errorf("CSP should allow the same-origin preview frame")
	}
}

func TestIPLimitersSweepDropsIdle(t *testing.T) {
	l := newIPLimiters(1, 1, 10, logging.Nop())
	l.allow("1.1.1.1")
	l.allow("2.2.2.2")

	l.sweep(time.Now())
	if got := l.size(); got != 2 {
		t.Fatalf("fresh buckets swept: size = %d", got)
	}

	l.sweep(time.Now().Add(limiterIdleTimeout + time.Second))
	if got := l.size(); got != 0 {
		t.Errorf("idle buckets kept: size = %d", got)
	}
}

func TestIPLimitersCapacity(t *testing.T) {
	l := newIPLimiters(1, 1, 3, logging.Nop())
	for i := 0; i < 10; i++ {
		l.allow(fmt.Sprintf("10.0.0.%d", i))
	}
	if got := l.size(); got != 3 {
		t.Errorf("size = %d, want 3", got)
	}
}
