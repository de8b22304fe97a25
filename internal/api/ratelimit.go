package api

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/xrs-network/xrsd/internal/log"
)

// Default admission limits. Registration gets a much tighter window to
// blunt name-squatting.
const (
	DefaultGeneralLimit    = 100
	DefaultGeneralWindow   = 15 * time.Minute
	DefaultRegisterLimit   = 10
	DefaultRegisterWindow  = time.Hour
	limiterCleanupInterval = 5 * time.Minute
)

// RateLimitConfig configures the per-IP sliding windows.
type RateLimitConfig struct {
	GeneralLimit   int
	GeneralWindow  time.Duration
	RegisterLimit  int
	RegisterWindow time.Duration
	Clock          func() time.Time
}

// RateLimiter admits or rejects requests per client IP using sliding
// windows. Request timestamps live in a TTL cache sized to the window, so
// idle clients age out without a sweeper.
type RateLimiter struct {
	mu       sync.Mutex
	general  *window
	register *window
	now      func() time.Time
}

type window struct {
	limit   int
	span    time.Duration
	entries *gocache.Cache
}

// NewRateLimiter creates a limiter; zero config fields fall back to the
// defaults above.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	if cfg.GeneralLimit <= 0 {
		cfg.GeneralLimit = DefaultGeneralLimit
	}
	if cfg.GeneralWindow <= 0 {
		cfg.GeneralWindow = DefaultGeneralWindow
	}
	if cfg.RegisterLimit <= 0 {
		cfg.RegisterLimit = DefaultRegisterLimit
	}
	if cfg.RegisterWindow <= 0 {
		cfg.RegisterWindow = DefaultRegisterWindow
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}

	return &RateLimiter{
		general: &window{
			limit:   cfg.GeneralLimit,
			span:    cfg.GeneralWindow,
			entries: gocache.New(cfg.GeneralWindow, limiterCleanupInterval),
		},
		register: &window{
			limit:   cfg.RegisterLimit,
			span:    cfg.RegisterWindow,
			entries: gocache.New(cfg.RegisterWindow, limiterCleanupInterval),
		},
		now: cfg.Clock,
	}
}

// Middleware enforces the limits in front of next. Registration requests
// are checked against both windows.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)

		if retry, ok := rl.admit(rl.general, ip); !ok {
			rl.reject(w, r, retry)
			return
		}
		if r.Method == http.MethodPost && r.URL.Path == "/api/register" {
			if retry, ok := rl.admit(rl.register, ip); !ok {
				rl.reject(w, r, retry)
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}

// admit records the request against a window and reports whether it fits.
// On rejection it returns how long until the oldest timestamp expires.
func (rl *RateLimiter) admit(win *window, ip string) (time.Duration, bool) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	cutoff := now.Add(-win.span)

	var stamps []time.Time
	if cached, ok := win.entries.Get(ip); ok {
		for _, t := range cached.([]time.Time) {
			if t.After(cutoff) {
				stamps = append(stamps, t)
			}
		}
	}

	if len(stamps) >= win.limit {
		retry := stamps[0].Add(win.span).Sub(now)
		win.entries.Set(ip, stamps, win.span)
		return retry, false
	}

	stamps = append(stamps, now)
	win.entries.Set(ip, stamps, win.span)
	return 0, true
}

func (rl *RateLimiter) reject(w http.ResponseWriter, r *http.Request, retry time.Duration) {
	seconds := int(retry.Seconds())
	if seconds < 1 {
		seconds = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(seconds))
	log.Warn(log.CatHTTP, "rate limit exceeded", "remote", clientIP(r), "path", r.URL.Path)
	writeError(w, http.StatusTooManyRequests, "too many requests")
}

// clientIP extracts the remote IP, preferring X-Forwarded-For when a proxy
// set it.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
