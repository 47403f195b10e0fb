package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// limiterIdleTTL 超过该时间未使用的限流器会被清理
const limiterIdleTTL = 10 * time.Minute

type keyedLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter 按公证处分别限流,没有身份时按客户端 IP
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*keyedLimiter
	rps      rate.Limit
	burst    int
	lastGC   time.Time
}

// NewRateLimiter 创建限流器
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		limiters: make(map[string]*keyedLimiter),
		rps:      rate.Limit(rps),
		burst:    burst,
		lastGC:   time.Now(),
	}
}

// Allow 判断 key 是否还有配额
func (r *RateLimiter) Allow(key string) bool {
	now := time.Now()
	r.mu.Lock()
	defer r.mu.Unlock()

	if now.Sub(r.lastGC) > limiterIdleTTL {
		for k, l := range r.limiters {
			if now.Sub(l.lastSeen) > limiterIdleTTL {
				delete(r.limiters, k)
			}
		}
		r.lastGC = now
	}

	l, ok := r.limiters[key]
	if !ok {
		l = &keyedLimiter{limiter: rate.NewLimiter(r.rps, r.burst)}
		r.limiters[key] = l
	}
	l.lastSeen = now
	return l.limiter.Allow()
}

// RateLimitMiddleware 限流中间件
func RateLimitMiddleware(rps float64, burst int) gin.HandlerFunc {
	limiter := NewRateLimiter(rps, burst)

	return func(c *gin.Context) {
		key := c.GetString("office_id")
		if key == "" {
			key = "ip:" + c.ClientIP()
		}
		if !limiter.Allow(key) {
			c.JSON(http.StatusTooManyRequests, ErrorResponse{
				Code:    http.StatusTooManyRequests,
				Message: T(c, "error.too_many_requests"),
			})
			c.Abort()
			return
		}
		c.Next()
	}
}
