// internal/app/system/ratelimit/ratelimit.go
package ratelimit

import (
	"net"
	"net/http"
	"sync"
	"time"
)

// Limiter counts attempts per key in fixed windows.
// It is safe for concurrent use.
type Limiter struct {
	mu       sync.Mutex
	windows  map[string]*window
	limit    int
	duration time.Duration
	now      func() time.Time

	stopOnce sync.Once
	stopCh   chan struct{}
}

type window struct {
	count     int
	expiresAt time.Time
}

// New creates a limiter allowing limit attempts per key per duration.
// Call Stop to end the background sweep.
func New(limit int, duration time.Duration) *Limiter {
	l := &Limiter{
		windows:  make(map[string]*window),
		limit:    limit,
		duration: duration,
		now:      time.Now,
		stopCh:   make(chan struct{}),
	}
	go l.cleanupLoop(duration * 2)
	return l
}

// Allow records an attempt for key and reports whether it is within the limit.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.windows[key]
	if !ok || now.After(w.expiresAt) {
		l.windows[key] = &window{count: 1, expiresAt: now.Add(l.duration)}
		return true
	}
	if w.count >= l.limit {
		return false
	}
	w.count++
	return true
}

// Remaining returns how many attempts are left for key in the current window.
func (l *Limiter) Remaining(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[key]
	if !ok || l.now().After(w.expiresAt) {
		return l.limit
	}
	if n := l.limit - w.count; n > 0 {
		return n
	}
	return 0
}

// Reset clears the window for key.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.windows, key)
}

// Stop ends the sweep goroutine. Safe to call more than once.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() { close(l.stopCh) })
}

func (l *Limiter) cleanupLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-l.stopCh:
			return
		case <-ticker.C:
			l.mu.Lock()
			now := l.now()
			for key, w := range l.windows {
				if now.After(w.expiresAt) {
					delete(l.windows, key)
				}
			}
			l.mu.Unlock()
		}
	}
}

// ClientIP returns the host part of r.RemoteAddr. Forwarding headers are
// ignored here; deployments behind a trusted proxy rewrite RemoteAddr with
// chi's RealIP middleware (trust_proxy_headers) before this runs.
func ClientIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// adminKey is the single key for the shared admin password window.
const adminKey = "admin"

// LoginLimiter throttles admin sign-in attempts. There is one admin password
// for the whole desk, so besides a per-IP window it keeps one global window
// for wrong-password guesses from anywhere.
type LoginLimiter struct {
	ipLimiter    *Limiter
	adminLimiter *Limiter
}

// NewLoginLimiter allows 10 attempts per IP per minute and 20 admin attempts
// per 5 minutes overall.
func NewLoginLimiter() *LoginLimiter {
	return NewLoginLimiterWithConfig(10, time.Minute, 20, 5*time.Minute)
}

// NewLoginLimiterWithConfig creates a login limiter with custom limits.
func NewLoginLimiterWithConfig(ipLimit int, ipDuration time.Duration, adminLimit int, adminDuration time.Duration) *LoginLimiter {
	return &LoginLimiter{
		ipLimiter:    New(ipLimit, ipDuration),
		adminLimiter: New(adminLimit, adminDuration),
	}
}

// Check records an admin sign-in attempt. It returns false and a message for
// the user when the attempt should be refused. A nil limiter allows everything.
func (ll *LoginLimiter) Check(r *http.Request) (bool, string) {
	if ll == nil {
		return true, ""
	}
	if !ll.ipLimiter.Allow(ClientIP(r)) {
		return false, "Too many sign-in attempts. Please wait a minute before trying again."
	}
	if !ll.adminLimiter.Allow(adminKey) {
		return false, "Too many admin sign-in attempts. Please wait a few minutes."
	}
	return true, ""
}

// Reset clears the windows touched by r after a successful admin sign-in.
func (ll *LoginLimiter) Reset(r *http.Request) {
	if ll == nil {
		return
	}
	ll.ipLimiter.Reset(ClientIP(r))
	ll.adminLimiter.Reset(adminKey)
}

// Stop ends both limiters' sweep goroutines.
func (ll *LoginLimiter) Stop() {
	if ll == nil {
		return
	}
	ll.ipLimiter.Stop()
	ll.adminLimiter.Stop()
}
