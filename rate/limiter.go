// Package rate bounds how often a single client may trigger metered work.
// Each generation request costs an upstream billing unit, so the limiter
// sits in front of the outline and content endpoints.
package rate

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter keeps one token bucket per client key. Idle entries are dropped
// by a janitor goroutine after the configured expiry.
type Limiter struct {
	burst   int
	limit   rate.Limit
	expiry  time.Duration
	mu      sync.Mutex
	entries map[string]*entry
}

// NewLimiter allows burst requests at once and refills one token per
// interval. Entries idle longer than expiry are forgotten.
func NewLimiter(burst int, interval time.Duration, expiry time.Duration) *Limiter {
	l := &Limiter{
		burst:   burst,
		limit:   rate.Every(interval),
		expiry:  expiry,
		entries: make(map[string]*entry),
	}
	go l.janitor()
	return l
}

// Allow reports whether the client identified by key may proceed now.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[key]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.entries[key] = e
	}
	e.lastSeen = time.Now()

	return e.limiter.Allow()
}

func (l *Limiter) janitor() {
	for {
		time.Sleep(time.Minute)

		l.mu.Lock()
		for key, e := range l.entries {
			if time.Since(e.lastSeen) > l.expiry {
				delete(l.entries, key)
			}
		}
		l.mu.Unlock()
	}
}
