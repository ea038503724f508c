package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/diegoaa53-dot/bsale-api/internal/interfaces/http/dto"
)

// ErrCodeRateLimited is returned when a client exceeds its report budget
const ErrCodeRateLimited = "ERR_RATE_LIMITED"

// RateLimiter hands out one token bucket per client
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*clientLimiter
	limit   rate.Limit
	burst   int
	idleTTL time.Duration
	now     func() time.Time
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter allows requests per window with the given burst for each client
func NewRateLimiter(requests int, window time.Duration, burst int) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		clients: make(map[string]*clientLimiter),
		limit:   rate.Limit(float64(requests) / window.Seconds()),
		burst:   burst,
		idleTTL: 2 * window,
		now:     time.Now,
	}
}

// Allow reports whether key may make a request now
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rl.evict(now)

	cl, ok := rl.clients[key]
	if !ok {
		cl = &clientLimiter{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.clients[key] = cl
	}
	cl.lastSeen = now
	return cl.limiter.AllowN(now, 1)
}

// evict drops clients idle for longer than idleTTL. Caller holds mu.
func (rl *RateLimiter) evict(now time.Time) {
	for key, cl := range rl.clients {
		if now.Sub(cl.lastSeen) > rl.idleTTL {
			delete(rl.clients, key)
		}
	}
}

// RateLimit rejects clients over their budget with 429
func RateLimit(limiter *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow(c.ClientIP()) {
			c.Header("Retry-After", strconv.Itoa(int((1/float64(limiter.limit))+0.5)))
			c.AbortWithStatusJSON(http.StatusTooManyRequests,
				dto.NewErrorResponse(ErrCodeRateLimited, "too many report requests, try again later"))
			return
		}
		c.Next()
	}
}
