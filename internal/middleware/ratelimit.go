package middleware

import (
	"log"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/measurement-map-go/pkg/response"
)

// RenderLimiter admits at most limit render requests per client inside a
// sliding window. Idle clients are swept lazily, once per window.
type RenderLimiter struct {
	mu        sync.Mutex
	limit     int
	window    time.Duration
	hits      map[string][]time.Time
	lastSweep time.Time
	now       func() time.Time
}

// NewRenderLimiter creates a limiter for limit requests per window
func NewRenderLimiter(limit int, window time.Duration) *RenderLimiter {
	return &RenderLimiter{
		limit:  limit,
		window: window,
		hits:   make(map[string][]time.Time),
		now:    time.Now,
	}
}

// Allow records a request for client. When the request is refused it also
// returns how long until the oldest counted request leaves the window.
func (l *RenderLimiter) Allow(client string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) >= l.window {
		l.sweep(now)
	}

	recent := l.inWindow(l.hits[client], now)
	if len(recent) >= l.limit {
		l.hits[client] = recent
		return false, recent[0].Add(l.window).Sub(now)
	}
	l.hits[client] = append(recent, now)
	return true, 0
}

// Clients returns the number of clients currently tracked
func (l *RenderLimiter) Clients() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.hits)
}

// inWindow drops timestamps that have aged out. Timestamps are appended in
// order, so the survivors are a suffix.
func (l *RenderLimiter) inWindow(times []time.Time, now time.Time) []time.Time {
	i := 0
	for i < len(times) && now.Sub(times[i]) >= l.window {
		i++
	}
	return times[i:]
}

func (l *RenderLimiter) sweep(now time.Time) {
	for client, times := range l.hits {
		if recent := l.inWindow(times, now); len(recent) == 0 {
			delete(l.hits, client)
		} else {
			l.hits[client] = recent
		}
	}
	l.lastSweep = now
}

// clientKey identifies the caller: the token subject when authenticated,
// otherwise the client IP.
func clientKey(c *gin.Context) string {
	if subject := c.GetString(ContextSubject); subject != "" {
		return "sub:" + subject
	}
	return "ip:" + c.ClientIP()
}

// RateLimit limits render requests per client. A non-positive limit or
// window disables it.
func RateLimit(limit int, window time.Duration) gin.HandlerFunc {
	if limit <= 0 || window <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	limiter := NewRenderLimiter(limit, window)
	return rateLimitWith(limiter)
}

func rateLimitWith(limiter *RenderLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		client := clientKey(c)
		ok, wait := limiter.Allow(client)
		if !ok {
			retry := int(math.Ceil(wait.Seconds()))
			if retry < 1 {
				retry = 1
			}
			log.Printf("[RateLimit] %s refused, retry in %ds", client, retry)
			c.Header("Retry-After", strconv.Itoa(retry))
			response.Error(c, http.StatusTooManyRequests, "Too many render requests. Please try again later.", nil)
			c.Abort()
			return
		}
		c.Next()
	}
}
