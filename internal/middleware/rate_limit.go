package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"
)

const defaultMaxEntries = 10000

type window struct {
	count int
	ends  time.Time
}

// IPRateLimiter is a fixed-window limiter keyed by client IP. The table is
// bounded: expired windows are pruned first, then the oldest are dropped.
type IPRateLimiter struct {
	mu         sync.Mutex
	limit      int
	window     time.Duration
	maxEntries int
	entries    map[string]window
	now        func() time.Time
}

func NewIPRateLimiter(limit int, period time.Duration) *IPRateLimiter {
	return NewIPRateLimiterWithMaxEntries(limit, period, defaultMaxEntries)
}

func NewIPRateLimiterWithMaxEntries(limit int, period time.Duration, maxEntries int) *IPRateLimiter {
	if limit <= 0 {
		limit = 1
	}
	if period <= 0 {
		period = time.Minute
	}
	if maxEntries <= 0 {
		maxEntries = defaultMaxEntries
	}
	return &IPRateLimiter{
		limit:      limit,
		window:     period,
		maxEntries: maxEntries,
		entries:    map[string]window{},
		now:        time.Now,
	}
}

func (rl *IPRateLimiter) Middleware(message string) func(http.Handler) http.Handler {
	if message == "" {
		message = "Rate limit exceeded"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !rl.allow(clientIP(r.RemoteAddr)) {
				writeError(w, r, http.StatusTooManyRequests, "RATE_LIMITED", message)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (rl *IPRateLimiter) allow(ip string) bool {
	if ip == "" {
		ip = "unknown"
	}
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	entry, ok := rl.entries[ip]
	if !ok || entry.ends.Before(now) {
		if !ok && len(rl.entries) >= rl.maxEntries {
			rl.evict(now)
		}
		entry = window{ends: now.Add(rl.window)}
	}
	entry.count++
	rl.entries[ip] = entry
	return entry.count <= rl.limit
}

func (rl *IPRateLimiter) evict(now time.Time) {
	var (
		oldestIP  string
		oldestEnd time.Time
	)
	for ip, entry := range rl.entries {
		if entry.ends.Before(now) {
			delete(rl.entries, ip)
			continue
		}
		if oldestIP == "" || entry.ends.Before(oldestEnd) {
			oldestIP, oldestEnd = ip, entry.ends
		}
	}
	if len(rl.entries) >= rl.maxEntries && oldestIP != "" {
		delete(rl.entries, oldestIP)
	}
}

func clientIP(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}
