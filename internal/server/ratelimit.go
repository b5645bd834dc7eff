package server

import (
	"container/list"
	"context"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	limiterSweepInterval = 5 * time.Minute
	limiterIdleTimeout   = 10 * time.Minute
	evictionLogInterval  = 30 * time.Second
)

type ipEntry struct {
	ip       string
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ipLimiters is an LRU of per-IP token buckets. Front is most recently used.
type ipLimiters struct {
	rps   rate.Limit
	burst int
	max   int
	log   *zap.Logger

	mu      sync.Mutex
	entries map[string]*list.Element
	lru     *list.List

	evicted      int
	lastEvictLog time.Time
}

func newIPLimiters(rps float64, burst, max int, log *zap.Logger) *ipLimiters {
	if max <= 0 {
		max = 10000
	}
	return &ipLimiters{
		rps:     rate.Limit(rps),
		burst:   burst,
		max:     max,
		log:     log,
		entries: make(map[string]*list.Element),
		lru:     list.New(),
	}
}

// allow takes a token from ip's bucket, creating it (and evicting the
// least recently used bucket at capacity) on first sight.
func (l *ipLimiters) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if elem, ok := l.entries[ip]; ok {
		l.lru.MoveToFront(elem)
		e := elem.Value.(*ipEntry)
		e.lastSeen = now
		return e.limiter.Allow()
	}

	if l.lru.Len() >= l.max {
		l.evictOldest(now)
	}
	e := &ipEntry{ip: ip, limiter: rate.NewLimiter(l.rps, l.burst), lastSeen: now}
	l.entries[ip] = l.lru.PushFront(e)
	return e.limiter.Allow()
}

func (l *ipLimiters) evictOldest(now time.Time) {
	back := l.lru.Back()
	if back == nil {
		return
	}
	l.lru.Remove(back)
	delete(l.entries, back.Value.(*ipEntry).ip)

	l.evicted++
	if now.Sub(l.lastEvictLog) >= evictionLogInterval {
		l.log.Warn("rate limiter at capacity, evicted least recent clients",
			zap.Int("evicted", l.evicted), zap.Int("capacity", l.max))
		l.lastEvictLog = now
		l.evicted = 0
	}
}

// sweep drops buckets idle for longer than limiterIdleTimeout. Recency of
// access is not recency of lastSeen, so the whole list is scanned.
func (l *ipLimiters) sweep(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for elem := l.lru.Back(); elem != nil; {
		prev := elem.Prev()
		if e := elem.Value.(*ipEntry); now.Sub(e.lastSeen) > limiterIdleTimeout {
			l.lru.Remove(elem)
			delete(l.entries, e.ip)
		}
		elem = prev
	}
}

func (l *ipLimiters) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lru.Len()
}

// RateLimitMiddleware limits requests with a token bucket per client IP,
// tracking at most maxIPs clients. Idle buckets are swept until ctx is
// cancelled; the returned channel closes when the sweeper exits.
func RateLimitMiddleware(ctx context.Context, rps float64, burst int, maxIPs int, logger *zap.Logger) (func(http.Handler) http.Handler, <-chan struct{}) {
	limiters := newIPLimiters(rps, burst, maxIPs, logger)

	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(limiterSweepInterval)
		defer ticker.Stop()
		for {
			select {
			case now := <-ticker.C:
				limiters.sweep(now)
			case <-ctx.Done():
				return
			}
		}
	}()

	mw := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiters.allow(getClientIP(r)) {
				w.Header().Set("Retry-After", "1")
				writeJSONError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
	return mw, done
}
