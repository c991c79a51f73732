package ratelimit

import (
	"sync"
	"time"
)

// memoryWindow counts requests per key in fixed windows. It backs the limiter
// when no redis address is configured and only limits a single process.
type memoryWindow struct {
	mu      sync.Mutex
	now     func() time.Time
	windows map[string]*window
	locks   map[string]heldLock
}

type window struct {
	start time.Time
	count int
}

type heldLock struct {
	token   string
	expires time.Time
}

func newMemoryWindow(now func() time.Time) *memoryWindow {
	if now == nil {
		now = time.Now
	}
	return &memoryWindow{
		now:     now,
		windows: make(map[string]*window),
		locks:   make(map[string]heldLock),
	}
}

// allow admits up to burst requests per window, where the window is the time
// needed to refill burst tokens at rate.
func (m *memoryWindow) allow(key string, p policy) *RateLimitResult {
	size := p.refillTime()
	burst := p.burst
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	m.sweep(now, size)

	w, ok := m.windows[key]
	if !ok || now.Sub(w.start) >= size {
		w = &window{start: now}
		m.windows[key] = w
	}

	reset := w.start.Add(size)
	if w.count >= burst {
		return &RateLimitResult{
			Allowed:    false,
			Limit:      burst,
			Remaining:  0,
			ResetTime:  reset,
			RetryAfter: reset.Sub(now),
		}
	}
	w.count++
	return &RateLimitResult{
		Allowed:   true,
		Limit:     burst,
		Remaining: burst - w.count,
		ResetTime: reset,
	}
}

func (m *memoryWindow) tryLock(key, token string, ttl time.Duration) bool {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	if held, ok := m.locks[key]; ok && now.Before(held.expires) {
		return false
	}
	m.locks[key] = heldLock{token: token, expires: now.Add(ttl)}
	return true
}

// release reports false when the lock is no longer held with token.
func (m *memoryWindow) release(key, token string) bool {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	held, ok := m.locks[key]
	if !ok || held.token != token {
		return false
	}
	delete(m.locks, key)
	return now.Before(held.expires)
}

// sweep drops windows that ended at least one full window ago.
func (m *memoryWindow) sweep(now time.Time, size time.Duration) {
	if len(m.windows) < 1024 {
		return
	}
	for key, w := range m.windows {
		if now.Sub(w.start) >= 2*size {
			delete(m.windows, key)
		}
	}
}
