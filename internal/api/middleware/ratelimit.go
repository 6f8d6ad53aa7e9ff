package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// RateLimiter provides rate limiting functionality using a sliding window algorithm
type RateLimiter struct {
	requests int           // Maximum requests per window
	window   time.Duration // Window duration
	clients  map[string]*clientWindow
	mu       sync.RWMutex
	now      func() time.Time
	stop     chan struct{}
	stopOnce sync.Once
}

type clientWindow struct {
	timestamps []time.Time
	mu         sync.Mutex
}

// NewRateLimiter creates a new rate limiter. Call Stop to end its cleanup loop.
func NewRateLimiter(requests int, window time.Duration) *RateLimiter {
	if requests <= 0 {
		requests = 100
	}
	if window <= 0 {
		window = time.Minute
	}

	rl := &RateLimiter{
		requests: requests,
		window:   window,
		clients:  make(map[string]*clientWindow),
		now:      time.Now,
		stop:     make(chan struct{}),
	}

	go rl.cleanup(time.Minute)

	return rl
}

func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

// cleanup drops clients with no request in the last two windows
func (rl *RateLimiter) cleanup(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			rl.sweep()
		}
	}
}

func (rl *RateLimiter) sweep() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for key, client := range rl.clients {
		client.mu.Lock()
		if len(client.timestamps) == 0 || now.Sub(client.timestamps[len(client.timestamps)-1]) > rl.window*2 {
			delete(rl.clients, key)
		}
		client.mu.Unlock()
	}
}

// Allow records a request for key. It returns whether the request may
// proceed, how many remain in the window, and when the window frees up.
func (rl *RateLimiter) Allow(key string) (bool, int, time.Time) {
	rl.mu.RLock()
	client, exists := rl.clients[key]
	rl.mu.RUnlock()

	if !exists {
		rl.mu.Lock()
		// Double-check after acquiring write lock
		if client, exists = rl.clients[key]; !exists {
			client = &clientWindow{
				timestamps: make([]time.Time, 0, rl.requests),
			}
			rl.clients[key] = client
		}
		rl.mu.Unlock()
	}

	client.mu.Lock()
	defer client.mu.Unlock()

	now := rl.now()
	windowStart := now.Add(-rl.window)

	// Drop timestamps outside the window
	valid := len(client.timestamps)
	for i, ts := range client.timestamps {
		if ts.After(windowStart) {
			valid = i
			break
		}
	}
	client.timestamps = client.timestamps[valid:]

	if len(client.timestamps) >= rl.requests {
		return false, 0, client.timestamps[0].Add(rl.window)
	}

	client.timestamps = append(client.timestamps, now)
	return true, rl.requests - len(client.timestamps), now.Add(rl.window)
}

// RateLimit limits requests per client IP.
func RateLimit(limiter *RateLimiter) func(http.Handler) http.Handler {
	return limit(limiter, getClientIP)
}

// RateLimitByUser limits requests per authenticated user and falls back to
// the client IP. It belongs after Auth.
func RateLimitByUser(limiter *RateLimiter) func(http.Handler) http.Handler {
	return limit(limiter, func(r *http.Request) string {
		if user := GetUser(r.Context()); user != nil {
			return "user:" + user.ID.String()
		}
		return getClientIP(r)
	})
}

func limit(limiter *RateLimiter, keyOf func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			allowed, remaining, resetTime := limiter.Allow(keyOf(r))

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limiter.requests))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetTime.Unix(), 10))

			if !allowed {
				retry := int64(resetTime.Sub(limiter.now()).Seconds()) + 1
				w.Header().Set("Retry-After", strconv.FormatInt(retry, 10))
				writeError(w, http.StatusTooManyRequests, "Rate limit exceeded")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// getClientIP extracts the client IP from the request
func getClientIP(r *http.Request) string {
	// The first X-Forwarded-For entry is the original client
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
