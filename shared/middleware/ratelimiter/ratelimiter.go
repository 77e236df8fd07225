package ratelimiter

import (
	"sync"
	"time"
)

// bucket is a token bucket for a single identity.
type bucket struct {
	mu         sync.Mutex
	tokens     float64
	lastRefill time.Time
	lastSeen   time.Time
}

// Limiter keeps one token bucket per identity (user id, IP). Buckets idle
// for longer than ttl are dropped on the next sweep.
type Limiter struct {
	mu       sync.Mutex
	buckets  map[string]*bucket
	rate     float64 // tokens per second
	capacity float64
	ttl      time.Duration
	stop     chan struct{}
	stopOnce sync.Once
	now      func() time.Time
}

// New creates a limiter refilling rate tokens per second up to capacity.
func New(rate, capacity float64, ttl time.Duration) *Limiter {
	l := &Limiter{
		buckets:  make(map[string]*bucket),
		rate:     rate,
		capacity: capacity,
		ttl:      ttl,
		stop:     make(chan struct{}),
		now:      time.Now,
	}
	go l.sweepLoop()
	return l
}

// PerMinute allows n requests a minute with a burst of n.
func PerMinute(n int) *Limiter {
	return New(float64(n)/60, float64(n), time.Hour)
}

// PerSecond allows n requests a second with a burst of n.
func PerSecond(n int) *Limiter {
	return New(float64(n), float64(n), time.Hour)
}

// Allow takes a token from identity's bucket.
func (l *Limiter) Allow(identity string) bool {
	now := l.now()

	l.mu.Lock()
	b, ok := l.buckets[identity]
	if !ok {
		b = &bucket{tokens: l.capacity, lastRefill: now}
		l.buckets[identity] = b
	}
	b.lastSeen = now
	l.mu.Unlock()

	b.mu.Lock()
	defer b.mu.Unlock()

	b.tokens = min(l.capacity, b.tokens+now.Sub(b.lastRefill).Seconds()*l.rate)
	b.lastRefill = now
	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

func (l *Limiter) sweepLoop() {
	interval := l.ttl
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.sweep()
		case <-l.stop:
			return
		}
	}
}

func (l *Limiter) sweep() {
	cutoff := l.now().Add(-l.ttl)
	l.mu.Lock()
	defer l.mu.Unlock()
	for id, b := range l.buckets {
		b.mu.Lock()
		idle := b.lastSeen.Before(cutoff)
		b.mu.Unlock()
		if idle {
			delete(l.buckets, id)
		}
	}
}

// Stop ends the background sweep.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}
