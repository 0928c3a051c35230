package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	"github.com/glimpse/storefront-api/internal/api/metrics"
)

const visitorIdle = 30 * time.Minute

// Limit is a request budget of N requests per Window for each client IP.
type Limit struct {
	Name    string
	N       int
	Window  time.Duration
	Message string
}

// Request budgets per client IP.
var (
	APILimit    = Limit{Name: "api", N: 100, Window: 15 * time.Minute, Message: "too many requests, please try again later"}
	LoginLimit  = Limit{Name: "login", N: 5, Window: 15 * time.Minute, Message: "too many login attempts, please try again after 15 minutes"}
	SignupLimit = Limit{Name: "signup", N: 3, Window: time.Hour, Message: "too many accounts created from this IP, please try again after an hour"}
	ResetLimit  = Limit{Name: "password_reset", N: 3, Window: time.Hour, Message: "too many password reset attempts, please try again after an hour"}
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type ipRateLimiter struct {
	mu        sync.Mutex
	visitors  map[string]*visitor
	every     rate.Limit
	burst     int
	lastSweep time.Time
	now       func() time.Time
}

func newIPRateLimiter(l Limit) *ipRateLimiter {
	return &ipRateLimiter{
		visitors:  make(map[string]*visitor),
		every:     rate.Every(l.Window / time.Duration(l.N)),
		burst:     l.N,
		lastSweep: time.Now(),
		now:       time.Now,
	}
}

func (rl *ipRateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if now.Sub(rl.lastSweep) > visitorIdle {
		for k, v := range rl.visitors {
			if now.Sub(v.lastSeen) > visitorIdle {
				delete(rl.visitors, k)
			}
		}
		rl.lastSweep = now
	}

	v, ok := rl.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.every, rl.burst)}
		rl.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

// RateLimit rejects requests from a client IP that exceeded l with 429.
// The budget is a token bucket holding l.N requests, refilled evenly over
// l.Window.
func RateLimit(l Limit) echo.MiddlewareFunc {
	limiter := newIPRateLimiter(l)
	return rateLimit(l, limiter)
}

func rateLimit(l Limit, limiter *ipRateLimiter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !limiter.allow(c.RealIP()) {
				metrics.RateLimitedTotal.WithLabelValues(l.Name).Inc()
				return echo.NewHTTPError(http.StatusTooManyRequests, l.Message)
			}
			return next(c)
		}
	}
}
