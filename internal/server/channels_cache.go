package server

import (
	"sync"
	"time"

	"github.com/smallbiznis/narzo/internal/payment/adapters/tripay"
)

type channelsCache struct {
	ttl   time.Duration
	now   func() time.Time
	mu    sync.RWMutex
	items map[string]channelsCacheEntry
}

type channelsCacheEntry struct {
	expiresAt time.Time
	channels  []tripay.Channel
}

func newChannelsCache(ttl time.Duration, now func() time.Time) *channelsCache {
	if now == nil {
		now = time.Now
	}
	return &channelsCache{
		ttl:   ttl,
		now:   now,
		items: make(map[string]channelsCacheEntry),
	}
}

func (c *channelsCache) Get(key string) ([]tripay.Channel, bool) {
	if c == nil || key == "" || c.ttl <= 0 {
		return nil, false
	}
	c.mu.RLock()
	entry, ok := c.items[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if c.now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.items, key)
		c.mu.Unlock()
		return nil, false
	}
	return append([]tripay.Channel(nil), entry.channels...), true
}

func (c *channelsCache) Set(key string, channels []tripay.Channel) {
	if c == nil || key == "" || c.ttl <= 0 {
		return
	}
	cloned := append([]tripay.Channel(nil), channels...)
	c.mu.Lock()
	c.items[key] = channelsCacheEntry{
		expiresAt: c.now().Add(c.ttl),
		channels:  cloned,
	}
	c.mu.Unlock()
}
