package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/Anirudh9794/container-service-extension/internal/errors"
	"github.com/Anirudh9794/container-service-extension/internal/logger"
)

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerMinute int           `yaml:"requests_per_minute"`
	BurstSize         int           `yaml:"burst_size"`
	CleanupInterval   time.Duration `yaml:"cleanup_interval"`
	WhitelistedIPs    []string      `yaml:"whitelisted_ips"`
}

// DefaultRateLimitConfig returns default rate limiting configuration
func DefaultRateLimitConfig() *RateLimitConfig {
	return &RateLimitConfig{
		RequestsPerMinute: 120,
		BurstSize:         20,
		CleanupInterval:   5 * time.Minute,
		WhitelistedIPs:    []string{"127.0.0.1", "::1"},
	}
}

// RateLimiter manages per-client request rates
type RateLimiter struct {
	config    *RateLimitConfig
	logger    logger.Interface
	limiters  map[string]*rate.Limiter
	mutex     sync.Mutex
	lastClean time.Time
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(config *RateLimitConfig, log logger.Interface) *RateLimiter {
	if config == nil {
		config = DefaultRateLimitConfig()
	}

	return &RateLimiter{
		config:    config,
		logger:    log.WithField("component", "ratelimit"),
		limiters:  make(map[string]*rate.Limiter),
		lastClean: time.Now(),
	}
}

// Middleware enforces the configured rate per client IP
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	whitelist := make(map[string]bool, len(rl.config.WhitelistedIPs))
	for _, ip := range rl.config.WhitelistedIPs {
		whitelist[ip] = true
	}

	return func(c *gin.Context) {
		ip := c.ClientIP()
		if whitelist[ip] {
			c.Next()
			return
		}

		if !rl.limiterFor(ip).Allow() {
			rl.logger.WithField("ip", ip).Warn("Rate limit exceeded")
			c.AbortWithStatusJSON(http.StatusTooManyRequests,
				errors.NewError(http.StatusTooManyRequests, "rate limit exceeded"))
			return
		}

		c.Next()
	}
}

func (rl *RateLimiter) limiterFor(ip string) *rate.Limiter {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	if time.Since(rl.lastClean) > rl.config.CleanupInterval {
		rl.limiters = make(map[string]*rate.Limiter)
		rl.lastClean = time.Now()
	}

	limiter, ok := rl.limiters[ip]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(float64(rl.config.RequestsPerMinute)/60.0), rl.config.BurstSize)
		rl.limiters[ip] = limiter
	}
	return limiter
}
