// Package ratelimit throttles reservation writes per user and per client IP.
package ratelimit

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/courtbook/internal/api/authz"
)

// Clock interface for testing time-dependent behavior.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Config holds rate limit configuration.
type Config struct {
	Window        time.Duration // Length of the fixed counting window (default: 1h)
	MaxPerUser    int           // Max write attempts per user per window (default: 30)
	MaxPerIP      int           // Max write attempts per client IP per window (default: 120)
	Cooldown      time.Duration // Minimum gap between attempts by one user (0 disables)
	TrustProxy    bool          // Read the client IP from X-Forwarded-For / X-Real-IP
	CleanupPeriod time.Duration // How often expired entries are dropped (default: 5m)

	// Clock for testing (nil uses real time)
	Clock Clock
}

// DefaultConfig returns production-ready defaults.
func DefaultConfig() *Config {
	return &Config{
		Window:        time.Hour,
		MaxPerUser:    30,
		MaxPerIP:      120,
		CleanupPeriod: 5 * time.Minute,
	}
}

// LimitResult contains the result of a rate limit check.
type LimitResult struct {
	Allowed    bool
	RetryAfter time.Duration
	Reason     string // For logging
}

type entry struct {
	count   int
	firstAt time.Time
	lastAt  time.Time
}

// Limiter counts attempts in fixed windows keyed by user id and by IP.
type Limiter struct {
	config *Config
	clock  Clock
	mu     sync.Mutex
	byUser map[int64]*entry
	byIP   map[string]*entry

	cleanupCtx    context.Context
	cleanupCancel context.CancelFunc
	cleanupOnce   sync.Once
	cleanupWg     sync.WaitGroup
}

// New creates a new rate limiter with the given config. Zero fields take the
// defaults.
func New(cfg *Config) *Limiter {
	defaults := DefaultConfig()
	if cfg == nil {
		cfg = defaults
	}
	merged := *cfg
	if merged.Window <= 0 {
		merged.Window = defaults.Window
	}
	if merged.MaxPerUser <= 0 {
		merged.MaxPerUser = defaults.MaxPerUser
	}
	if merged.MaxPerIP <= 0 {
		merged.MaxPerIP = defaults.MaxPerIP
	}
	if merged.CleanupPeriod <= 0 {
		merged.CleanupPeriod = defaults.CleanupPeriod
	}
	clock := merged.Clock
	if clock == nil {
		clock = realClock{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Limiter{
		config:        &merged,
		clock:         clock,
		byUser:        make(map[int64]*entry),
		byIP:          make(map[string]*entry),
		cleanupCtx:    ctx,
		cleanupCancel: cancel,
	}
}

// Close stops the cleanup goroutine and releases resources.
func (l *Limiter) Close() {
	l.cleanupCancel()
	l.cleanupWg.Wait()
}

// Allow checks and records one attempt. userID 0 means anonymous and only
// the IP bucket applies.
func (l *Limiter) Allow(userID int64, ip string) LimitResult {
	l.startCleanup()
	now := l.clock.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	var userEntry *entry
	if userID > 0 {
		userEntry = l.current(l.byUser[userID], now)
		if res := l.check(userEntry, now, l.config.MaxPerUser, "user_limit"); !res.Allowed {
			return res
		}
		if userEntry != nil && l.config.Cooldown > 0 {
			if elapsed := now.Sub(userEntry.lastAt); elapsed < l.config.Cooldown {
				return LimitResult{RetryAfter: l.config.Cooldown - elapsed, Reason: "cooldown"}
			}
		}
	}

	ipEntry := l.current(l.byIP[ip], now)
	if res := l.check(ipEntry, now, l.config.MaxPerIP, "ip_limit"); !res.Allowed {
		return res
	}

	if userID > 0 {
		l.byUser[userID] = bump(userEntry, now)
	}
	l.byIP[ip] = bump(ipEntry, now)
	return LimitResult{Allowed: true}
}

// current drops an entry whose window has elapsed.
func (l *Limiter) current(e *entry, now time.Time) *entry {
	if e == nil || now.Sub(e.firstAt) >= l.config.Window {
		return nil
	}
	return e
}

func (l *Limiter) check(e *entry, now time.Time, max int, reason string) LimitResult {
	if e != nil && e.count >= max {
		return LimitResult{RetryAfter: l.config.Window - now.Sub(e.firstAt), Reason: reason}
	}
	return LimitResult{Allowed: true}
}

func bump(e *entry, now time.Time) *entry {
	if e == nil {
		return &entry{count: 1, firstAt: now, lastAt: now}
	}
	e.count++
	e.lastAt = now
	return e
}

// Middleware rejects over-limit requests with 429 and a Retry-After header.
// It expects authz.ContextWithUser to have run when a user is known.
func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var userID int64
		if user := authz.UserFromContext(r.Context()); user != nil {
			userID = user.ID
		}
		ip := GetClientIP(r, l.config.TrustProxy)

		res := l.Allow(userID, ip)
		if !res.Allowed {
			log.Ctx(r.Context()).Warn().
				Str("event", "rate_limit_exceeded").
				Int64("user_id", userID).
				Str("ip", ip).
				Str("reason", res.Reason).
				Dur("retry_after", res.RetryAfter).
				Msg("Reservation rate limit exceeded")
			seconds := int((res.RetryAfter + time.Second - 1) / time.Second)
			w.Header().Set("Retry-After", strconv.Itoa(seconds))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":"Too many requests","kind":"rate_limited"}` + "\n"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (l *Limiter) startCleanup() {
	l.cleanupOnce.Do(func() {
		l.cleanupWg.Add(1)
		go func() {
			defer l.cleanupWg.Done()
			ticker := time.NewTicker(l.config.CleanupPeriod)
			defer ticker.Stop()
			for {
				select {
				case <-l.cleanupCtx.Done():
					return
				case <-ticker.C:
					l.cleanup()
				}
			}
		}()
	})
}

func (l *Limiter) cleanup() {
	now := l.clock.Now()
	l.mu.Lock()
	defer l.mu.Unlock()

	for k, e := range l.byUser {
		if now.Sub(e.firstAt) >= l.config.Window {
			delete(l.byUser, k)
		}
	}
	for k, e := range l.byIP {
		if now.Sub(e.firstAt) >= l.config.Window {
			delete(l.byIP, k)
		}
	}
}

// size reports tracked keys; used by tests.
func (l *Limiter) size() (users, ips int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.byUser), len(l.byIP)
}

// GetClientIP extracts the client IP from a request.
// When trustProxy is true, uses the rightmost public IP from X-Forwarded-For.
// When trustProxy is false, ignores forwarding headers entirely.
func GetClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			// Rightmost entries were added by our own proxies
			parts := strings.Split(xff, ",")
			for i := len(parts) - 1; i >= 0; i-- {
				ip := strings.TrimSpace(parts[i])
				if ip != "" && !isPrivateIP(ip) {
					return ip
				}
			}
			return strings.TrimSpace(parts[len(parts)-1])
		}
		if xri := r.Header.Get("X-Real-IP"); xri != "" {
			return strings.TrimSpace(xri)
		}
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

var privateNetworks []*net.IPNet

func init() {
	privateRanges := []string{
		"10.0.0.0/8",
		"172.16.0.0/12",
		"192.168.0.0/16",
		"127.0.0.0/8",
		"::1/128",
		"fc00::/7",
		"fe80::/10",
	}
	for _, cidr := range privateRanges {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			panic("invalid private CIDR: " + cidr)
		}
		privateNetworks = append(privateNetworks, network)
	}
}

// isPrivateIP handles IPv4-mapped IPv6 addresses as IPv4.
func isPrivateIP(ipStr string) bool {
	ip := net.ParseIP(ipStr)
	if ip == nil {
		return false
	}
	if ipv4 := ip.To4(); ipv4 != nil {
		ip = ipv4
	}
	for _, network := range privateNetworks {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}
