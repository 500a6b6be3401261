package middleware

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/slated-app/slated/internal/apierror"
	"github.com/slated-app/slated/internal/logger"
)

// RateLimiter provides request rate limiting per client IP.
type RateLimiter struct {
	requests map[string]*clientInfo
	mu       sync.Mutex
	rate     int
	window   time.Duration
	name     string
}

type clientInfo struct {
	count    int
	lastSeen time.Time
}

// NewRateLimiter creates a rate limiter allowing rate requests per window.
func NewRateLimiter(rate int, window time.Duration, name string) *RateLimiter {
	rl := &RateLimiter{
		requests: make(map[string]*clientInfo),
		rate:     rate,
		window:   window,
		name:     name,
	}

	go rl.cleanup()

	return rl
}

// cleanup removes stale entries periodically to bound memory.
func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(rl.window * 2)
	defer ticker.Stop()

	for range ticker.C {
		rl.mu.Lock()
		now := time.Now()
		for ip, info := range rl.requests {
			if now.Sub(info.lastSeen) > rl.window*2 {
				delete(rl.requests, ip)
			}
		}
		rl.mu.Unlock()
	}
}

func (rl *RateLimiter) isAllowed(ip string) (bool, int) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	info, exists := rl.requests[ip]

	if !exists || now.Sub(info.lastSeen) > rl.window {
		rl.requests[ip] = &clientInfo{count: 1, lastSeen: now}
		return true, 1
	}

	info.count++
	info.lastSeen = now

	return info.count <= rl.rate, info.count
}

// RateLimit is the general per-IP limiter: 300 requests per minute.
func RateLimit() gin.HandlerFunc {
	return rateLimitMiddleware(NewRateLimiter(300, time.Minute, "general"))
}

// RateLimitAI is a stricter limiter for generation-backed endpoints, which
// are slow and carry an external cost per call: 20 requests per minute.
func RateLimitAI() gin.HandlerFunc {
	return rateLimitMiddleware(NewRateLimiter(20, time.Minute, "ai"))
}

func rateLimitMiddleware(limiter *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()

		allowed, count := limiter.isAllowed(ip)
		if !allowed {
			logger.Ctx(c.Request.Context()).Warn("rate limit exceeded",
				logger.String("limiter", limiter.name),
				logger.String("client_ip", ip),
				logger.Int("request_count", count),
				logger.Int("limit", limiter.rate),
			)

			retryAfter := int(limiter.window.Seconds())
			apierror.WriteProblem(c, apierror.NewRateLimitError(apierror.GetRequestID(c), retryAfter))
			c.Abort()
			return
		}

		c.Next()
	}
}
