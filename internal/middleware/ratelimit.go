package middleware

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/formkit/pkg/errors"
	"github.com/jwalitptl/formkit/pkg/httputil"
)

type RateLimiterConfig struct {
	RPS   float64
	Burst int
	// ClientTTL is how long an idle client's bucket is kept.
	ClientTTL time.Duration
}

// RateLimiter keeps one token bucket per client IP. Idle buckets expire from
// the cache, so a returning client starts with a full bucket.
type RateLimiter struct {
	mu      sync.Mutex
	clients *cache.Cache
	limit   rate.Limit
	burst   int
	ttl     time.Duration
}

func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	ttl := config.ClientTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	burst := config.Burst
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		clients: cache.New(ttl, 2*ttl),
		limit:   rate.Limit(config.RPS),
		burst:   burst,
		ttl:     ttl,
	}
}

func (rl *RateLimiter) limiter(client string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if v, ok := rl.clients.Get(client); ok {
		l := v.(*rate.Limiter)
		rl.clients.Set(client, l, rl.ttl)
		return l
	}
	l := rate.NewLimiter(rl.limit, rl.burst)
	rl.clients.Set(client, l, rl.ttl)
	return l
}

// Allow reports whether client may make a request now.
func (rl *RateLimiter) Allow(client string) bool {
	return rl.limiter(client).Allow()
}

// Clients is the number of tracked clients.
func (rl *RateLimiter) Clients() int {
	return rl.clients.ItemCount()
}

func (rl *RateLimiter) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.Allow(c.ClientIP()) {
			httputil.RespondWithError(c, errors.RateLimited(nil))
			c.Abort()
			return
		}
		c.Next()
	}
}
