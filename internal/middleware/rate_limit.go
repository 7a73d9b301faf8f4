package middleware

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/impact-lab/backend/pkg/errorx"
	"github.com/impact-lab/backend/pkg/router"
	"github.com/impact-lab/backend/pkg/xcontext"
	"golang.org/x/time/rate"
)

const limiterIdleTimeout = 10 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps a token bucket per client address.
type RateLimiter struct {
	limit rate.Limit
	burst int

	mu       sync.Mutex
	visitors map[string]*visitor
}

func NewRateLimiter(limit float64, burst int) *RateLimiter {
	return &RateLimiter{
		limit:    rate.Limit(limit),
		burst:    burst,
		visitors: make(map[string]*visitor),
	}
}

func (l *RateLimiter) Middleware() router.MiddlewareFunc {
	return func(ctx context.Context) (context.Context, error) {
		req := xcontext.HTTPRequest(ctx)
		if req == nil || l.limit <= 0 {
			return nil, nil
		}

		if !l.get(clientIP(req.RemoteAddr)).Allow() {
			return nil, errorx.New(errorx.TooManyRequests, "Too many requests")
		}

		return nil, nil
	}
}

func (l *RateLimiter) get(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	v, ok := l.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[ip] = v
	}
	v.lastSeen = now

	return v.limiter
}

// Cleanup forgets the visitors which have been idle for a while, it blocks
// until ctx is done.
func (l *RateLimiter) Cleanup(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.mu.Lock()
			for ip, v := range l.visitors {
				if time.Since(v.lastSeen) > limiterIdleTimeout {
					delete(l.visitors, ip)
				}
			}
			l.mu.Unlock()
		}
	}
}

func clientIP(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}

	return host
}
