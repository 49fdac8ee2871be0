package middlewarectx

import (
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/render"
	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/license-portal/internal/http/response"
)

const (
	visitorIdle  = 3 * time.Minute
	sweepTrigger = 1024
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// limiters по одному token bucket на адрес клиента.
type limiters struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rps      rate.Limit
	burst    int
	now      func() time.Time
}

func newLimiters(rps float64, burst int) *limiters {
	return &limiters{
		visitors: make(map[string]*visitor),
		rps:      rate.Limit(rps),
		burst:    burst,
		now:      time.Now,
	}
}

func (l *limiters) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	v, ok := l.visitors[key]
	if !ok {
		if len(l.visitors) >= sweepTrigger {
			l.sweep(now)
		}
		v = &visitor{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.visitors[key] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

func (l *limiters) sweep(now time.Time) {
	for k, v := range l.visitors {
		if now.Sub(v.lastSeen) > visitorIdle {
			delete(l.visitors, k)
		}
	}
}

// RateLimit ограничивает частоту запросов с одного адреса. Сверх лимита: 429.
// Адрес берётся из RemoteAddr, поэтому за прокси нужен middleware.RealIP раньше в цепочке.
func RateLimit(log *slog.Logger, rps float64, burst int) func(http.Handler) http.Handler {
	set := newLimiters(rps, burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientIP(r)
			if !set.allow(key) {
				log.Warn("too many requests", slog.String("client", key), slog.String("path", r.URL.Path))
				render.Status(r, http.StatusTooManyRequests)
				render.JSON(w, r, response.Error("too many requests"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
