package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/codr1/courtbook/internal/api/authz"
)

// mockClock is a controllable clock for testing.
type mockClock struct {
	mu  sync.Mutex
	now time.Time
}

func newMockClock() *mockClock {
	return &mockClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *mockClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *mockClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestAllow_UserLimit(t *testing.T) {
	clock := newMockClock()
	limiter := New(&Config{Window: time.Hour, MaxPerUser: 3, MaxPerIP: 100, Clock: clock})
	defer limiter.Close()

	for i := 0; i < 3; i++ {
		if res := limiter.Allow(7, "203.0.113.1"); !res.Allowed {
			t.Fatalf("attempt %d should be allowed, got %s", i+1, res.Reason)
		}
		clock.Advance(time.Minute)
	}

	res := limiter.Allow(7, "203.0.113.1")
	if res.Allowed {
		t.Fatal("fourth attempt should be blocked")
	}
	if res.Reason != "user_limit" {
		t.Errorf("Expected reason 'user_limit', got '%s'", res.Reason)
	}
	if res.RetryAfter != 57*time.Minute {
		t.Errorf("Expected RetryAfter 57m, got %v", res.RetryAfter)
	}

	// Another user from the same IP is unaffected
	if res := limiter.Allow(8, "203.0.113.1"); !res.Allowed {
		t.Errorf("other user should be allowed, got %s", res.Reason)
	}

	// Window rolls over
	clock.Advance(time.Hour)
	if res := limiter.Allow(7, "203.0.113.1"); !res.Allowed {
		t.Errorf("attempt after window should be allowed, got %s", res.Reason)
	}
}

func TestAllow_IPLimit(t *testing.T) {
	clock := newMockClock()
	limiter := New(&Config{Window: time.Hour, MaxPerUser: 100, MaxPerIP: 2, Clock: clock})
	defer limiter.Close()

	limiter.Allow(1, "203.0.113.9")
	limiter.Allow(2, "203.0.113.9")

	res := limiter.Allow(3, "203.0.113.9")
	if res.Allowed || res.Reason != "ip_limit" {
		t.Fatalf("expected ip_limit, got %+v", res)
	}

	// Blocked attempts are not counted against the user
	if res := limiter.Allow(3, "198.51.100.1"); !res.Allowed {
		t.Errorf("user 3 from another IP should be allowed, got %s", res.Reason)
	}
}

func TestAllow_Cooldown(t *testing.T) {
	clock := newMockClock()
	limiter := New(&Config{Cooldown: 10 * time.Second, Clock: clock})
	defer limiter.Close()

	if res := limiter.Allow(1, "203.0.113.1"); !res.Allowed {
		t.Fatalf("first attempt blocked: %s", res.Reason)
	}
	clock.Advance(4 * time.Second)
	res := limiter.Allow(1, "203.0.113.1")
	if res.Allowed || res.Reason != "cooldown" || res.RetryAfter != 6*time.Second {
		t.Fatalf("expected 6s cooldown, got %+v", res)
	}
	clock.Advance(6 * time.Second)
	if res := limiter.Allow(1, "203.0.113.1"); !res.Allowed {
		t.Errorf("attempt after cooldown blocked: %s", res.Reason)
	}
}

func TestNew_Defaults(t *testing.T) {
	limiter := New(&Config{MaxPerUser: 5})
	defer limiter.Close()

	if limiter.config.MaxPerUser != 5 {
		t.Errorf("MaxPerUser: %d", limiter.config.MaxPerUser)
	}
	if limiter.config.MaxPerIP != 120 || limiter.config.Window != time.Hour {
		t.Errorf("defaults not applied: %+v", limiter.config)
	}

	nilCfg := New(nil)
	defer nilCfg.Close()
	if nilCfg.config.MaxPerUser != 30 {
		t.Errorf("nil config MaxPerUser: %d", nilCfg.config.MaxPerUser)
	}
}

func TestCleanup_DropsExpired(t *testing.T) {
	clock := newMockClock()
	limiter := New(&Config{Clock: clock})
	defer limiter.Close()

	limiter.Allow(1, "203.0.113.1")
	clock.Advance(30 * time.Minute)
	limiter.Allow(2, "203.0.113.2")
	clock.Advance(45 * time.Minute)

	limiter.cleanup()
	users, ips := limiter.size()
	if users != 1 || ips != 1 {
		t.Errorf("expected one user and one ip left, got %d and %d", users, ips)
	}
}

func TestMiddleware(t *testing.T) {
	clock := newMockClock()
	limiter := New(&Config{MaxPerUser: 1, Clock: clock})
	defer limiter.Close()

	calls := 0
	handler := limiter.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusCreated)
	}))

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/reservations", nil)
		req.RemoteAddr = "203.0.113.5:4321"
		req = req.WithContext(authz.ContextWithUser(req.Context(), &authz.AuthUser{ID: 11}))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	if rec := send(); rec.Code != http.StatusCreated {
		t.Fatalf("first request: %d", rec.Code)
	}
	rec := send()
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second request: %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "3600" {
		t.Errorf("Retry-After: %q", rec.Header().Get("Retry-After"))
	}
	if calls != 1 {
		t.Errorf("handler called %d times", calls)
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		xff        string
		xri        string
		trustProxy bool
		want       string
	}{
		{"remote addr", "203.0.113.1:1234", "", "", false, "203.0.113.1"},
		{"xff ignored without trust", "10.0.0.1:1234", "198.51.100.7", "", false, "10.0.0.1"},
		{"rightmost public xff", "10.0.0.1:1234", "198.51.100.7, 203.0.113.8, 10.0.0.2", "", true, "203.0.113.8"},
		{"all private xff", "10.0.0.1:1234", "10.0.0.5, 192.168.1.1", "", true, "192.168.1.1"},
		{"x-real-ip", "10.0.0.1:1234", "", "198.51.100.9", true, "198.51.100.9"},
		{"no port", "203.0.113.1", "", "", false, "203.0.113.1"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tc.remoteAddr
			if tc.xff != "" {
				req.Header.Set("X-Forwarded-For", tc.xff)
			}
			if tc.xri != "" {
				req.Header.Set("X-Real-IP", tc.xri)
			}
			if got := GetClientIP(req, tc.trustProxy); got != tc.want {
				t.Errorf("got %q want %q", got, tc.want)
			}
		})
	}
}

func TestIsPrivateIP(t *testing.T) {
	cases := map[string]bool{
		"10.1.2.3":           true,
		"172.20.0.1":         true,
		"192.168.0.10":       true,
		"127.0.0.1":          true,
		"::1":                true,
		"::ffff:192.168.1.1": true,
		"8.8.8.8":            false,
		"2001:db8::1":        false,
		"not-an-ip":          false,
	}
	for ip, want := range cases {
		if got := isPrivateIP(ip); got != want {
			t.Errorf("isPrivateIP(%q) = %v, want %v", ip, got, want)
		}
	}
}

func TestConcurrentAccess(t *testing.T) {
	limiter := New(&Config{MaxPerUser: 50, MaxPerIP: 1000})
	defer limiter.Close()

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if limiter.Allow(1, "203.0.113.1").Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if allowed != 50 {
		t.Errorf("expected exactly 50 allowed, got %d", allowed)
	}
}
