package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRateLimiter_AllowWithinLimit(t *testing.T) {
	rl := newRateLimiter(5, time.Minute)

	for i := 0; i < 5; i++ {
		if !rl.allow("10.0.0.1") {
			t.Fatalf("Request %d should be allowed", i+1)
		}
	}
	if rl.allow("10.0.0.1") {
		t.Error("Request over the limit should be denied")
	}
}

func TestRateLimiter_PerIP(t *testing.T) {
	rl := newRateLimiter(1, time.Minute)

	if !rl.allow("10.0.0.1") {
		t.Error("First request from first IP should be allowed")
	}
	if !rl.allow("10.0.0.2") {
		t.Error("Another IP has its own budget")
	}
	if rl.allow("10.0.0.1") {
		t.Error("Second request from first IP should be denied")
	}
}

func TestRateLimiter_WindowExpiry(t *testing.T) {
	rl := newRateLimiter(1, 50*time.Millisecond)

	if !rl.allow("10.0.0.1") {
		t.Fatal("First request should be allowed")
	}
	if rl.allow("10.0.0.1") {
		t.Fatal("Second request inside the window should be denied")
	}

	time.Sleep(60 * time.Millisecond)

	if !rl.allow("10.0.0.1") {
		t.Error("Request after the window has passed should be allowed")
	}
}

func TestRateLimiter_Middleware(t *testing.T) {
	rl := newRateLimiter(2, time.Minute)
	handler := rl.middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/upload", nil)
		req.RemoteAddr = "10.0.0.1:12345"
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("Request %d: expected 200, got %d", i+1, rr.Code)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/upload", nil)
	req.RemoteAddr = "10.0.0.1:12345"
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusTooManyRequests {
		t.Errorf("Expected 429 over the limit, got %d", rr.Code)
	}
}
