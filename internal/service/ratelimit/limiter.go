package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type entry struct {
	lim  *rate.Limiter
	seen time.Time
}

// Limiter keeps one token bucket per key (client IP) and forgets idle keys.
type Limiter struct {
	mu    sync.Mutex
	m     map[string]*entry
	limit rate.Limit
	burst int
	idle  time.Duration
	now   func() time.Time
}

func New(rps float64, burst int, idle time.Duration) *Limiter {
	if burst < 1 {
		burst = 1
	}
	if idle <= 0 {
		idle = 10 * time.Minute
	}
	return &Limiter{
		m:     make(map[string]*entry),
		limit: rate.Limit(rps),
		burst: burst,
		idle:  idle,
		now:   time.Now,
	}
}

// Allow consumes one token for key.
func (l *Limiter) Allow(key string) bool {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.m[key]
	if !ok {
		e = &entry{lim: rate.NewLimiter(l.limit, l.burst)}
		l.m[key] = e
	}
	e.seen = now
	return e.lim.AllowN(now, 1)
}

// Sweep drops keys idle for longer than the configured window and returns how many were removed.
func (l *Limiter) Sweep() int {
	cutoff := l.now().Add(-l.idle)
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for k, e := range l.m {
		if e.seen.Before(cutoff) {
			delete(l.m, k)
			n++
		}
	}
	return n
}

func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.m)
}

// Run sweeps until stop is closed.
func (l *Limiter) Run(stop <-chan struct{}) {
	t := time.NewTicker(l.idle)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			l.Sweep()
		case <-stop:
			return
		}
	}
}
