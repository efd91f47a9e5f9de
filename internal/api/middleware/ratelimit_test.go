package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"customer-directory/internal/config"
)

func newRateLimitedHandler(cfg config.RateLimitConfig) http.Handler {
	rl := NewRateLimiterMiddleware(cfg, discardLogger)
	return rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func TestRateLimiterMiddleware(t *testing.T) {
	t.Run("DisabledPassesThrough", func(t *testing.T) {
		h := newRateLimitedHandler(config.RateLimitConfig{Enabled: false, RPS: 0, Burst: 0})

		for i := 0; i < 5; i++ {
			req := httptest.NewRequest(http.MethodGet, "/customers", nil)
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)
			if rr.Code != http.StatusOK {
				t.Errorf(statusErrorMsg, rr.Code, http.StatusOK)
			}
		}
	})

	t.Run("BurstExhaustionReturns429", func(t *testing.T) {
		h := newRateLimitedHandler(config.RateLimitConfig{Enabled: true, RPS: 1, Burst: 2})

		for i := 0; i < 2; i++ {
			req := httptest.NewRequest(http.MethodGet, "/customers", nil)
			req.RemoteAddr = "10.0.0.1:12345"
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)
			if rr.Code != http.StatusOK {
				t.Errorf(statusErrorMsg, rr.Code, http.StatusOK)
			}
		}

		req := httptest.NewRequest(http.MethodGet, "/customers", nil)
		req.RemoteAddr = "10.0.0.1:12345"
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)

		if rr.Code != http.StatusTooManyRequests {
			t.Errorf(statusErrorMsg, rr.Code, http.StatusTooManyRequests)
		}
		if !strings.Contains(rr.Body.String(), "Rate limit exceeded") {
			t.Errorf("expected rate limit error message, got %q", rr.Body.String())
		}
	})

	t.Run("LimitsArePerClient", func(t *testing.T) {
		h := newRateLimitedHandler(config.RateLimitConfig{Enabled: true, RPS: 1, Burst: 1})

		first := httptest.NewRequest(http.MethodGet, "/customers", nil)
		first.RemoteAddr = "10.0.0.1:12345"
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, first)
		if rr.Code != http.StatusOK {
			t.Errorf(statusErrorMsg, rr.Code, http.StatusOK)
		}

		second := httptest.NewRequest(http.MethodGet, "/customers", nil)
		second.RemoteAddr = "10.0.0.2:12345"
		rr = httptest.NewRecorder()
		h.ServeHTTP(rr, second)
		if rr.Code != http.StatusOK {
			t.Errorf(statusErrorMsg, rr.Code, http.StatusOK)
		}
	})
}

func TestExtractIP(t *testing.T) {
	rl := NewRateLimiterMiddleware(config.RateLimitConfig{Enabled: true, RPS: 1, Burst: 1}, discardLogger)

	t.Run("XForwardedFor", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
		if got := rl.extractIP(req); got != "203.0.113.7" {
			t.Errorf("extractIP() = %q, want %q", got, "203.0.113.7")
		}
	})

	t.Run("XRealIP", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Real-IP", "203.0.113.8")
		if got := rl.extractIP(req); got != "203.0.113.8" {
			t.Errorf("extractIP() = %q, want %q", got, "203.0.113.8")
		}
	})

	t.Run("RemoteAddr", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.9:54321"
		if got := rl.extractIP(req); got != "10.0.0.9" {
			t.Errorf("extractIP() = %q, want %q", got, "10.0.0.9")
		}
	})
}
