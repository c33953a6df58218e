package middlewares

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"PracticeManager/apperrors"
)

// RateLimiterConfig holds the configuration for the rate limiter
type RateLimiterConfig struct {
	RequestsPerSecond float64
	Burst             int
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// rateLimiterData holds one limiter per client IP
type rateLimiterData struct {
	config  RateLimiterConfig
	clients map[string]*client
	mu      sync.Mutex
	swept   time.Time
}

const clientIdleTimeout = 10 * time.Minute

func (d *rateLimiterData) allow(ip string, now time.Time) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if now.Sub(d.swept) > clientIdleTimeout {
		for key, cl := range d.clients {
			if now.Sub(cl.lastSeen) > clientIdleTimeout {
				delete(d.clients, key)
			}
		}
		d.swept = now
	}

	cl, ok := d.clients[ip]
	if !ok {
		cl = &client{limiter: rate.NewLimiter(rate.Limit(d.config.RequestsPerSecond), d.config.Burst)}
		d.clients[ip] = cl
	}
	cl.lastSeen = now
	return cl.limiter.AllowN(now, 1)
}

// NewRateLimiterMiddleware creates a new rate limiter middleware keyed by client IP
func NewRateLimiterMiddleware(config RateLimiterConfig) gin.HandlerFunc {
	data := &rateLimiterData{config: config, clients: map[string]*client{}, swept: time.Now()}

	return func(c *gin.Context) {
		if !data.allow(c.ClientIP(), time.Now()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": &apperrors.AppError{Status: http.StatusTooManyRequests, Code: "TOO_MANY_REQUESTS", Message: "rate limit exceeded"},
			})
			return
		}
		c.Next()
	}
}
