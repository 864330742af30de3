package orchestrator

import (
	"crypto/md5" //nolint:gosec // Cache key fingerprint, not a security boundary.
	"encoding/hex"
	"strings"
	"sync"
	"time"
)

// cacheSkipKeywords mark inputs whose answers depend on mutable state; those
// never hit the cache.
var cacheSkipKeywords = []string{
	"cart", "order", "buy", "purchase", "add", "remove", "update", "apply", "coupon",
}

type cacheEntry struct {
	answer   string
	storedAt time.Time
}

// responseCache is a small TTL cache for answers to repeated stateless
// questions. Eviction drops the oldest entry when full.
type responseCache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	ttl     time.Duration
	maxSize int
	now     func() time.Time
}

func newResponseCache(ttl time.Duration, maxSize int) *responseCache {
	if maxSize <= 0 {
		maxSize = 50
	}
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &responseCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		maxSize: maxSize,
		now:     time.Now,
	}
}

// shouldSkip reports whether the input is state-dependent and must bypass
// the cache entirely.
func (c *responseCache) shouldSkip(input string) bool {
	lowered := strings.ToLower(input)
	for _, kw := range cacheSkipKeywords {
		if strings.Contains(lowered, kw) {
			return true
		}
	}
	return false
}

func cacheKey(input, contextSummary string) string {
	normalized := strings.ToLower(strings.TrimSpace(input)) + "|" + contextSummary
	sum := md5.Sum([]byte(normalized)) //nolint:gosec // Fingerprint only.
	return hex.EncodeToString(sum[:])
}

// get returns a cached answer for the input if one is fresh.
func (c *responseCache) get(input, contextSummary string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey(input, contextSummary)
	entry, ok := c.entries[key]
	if !ok {
		return "", false
	}
	if c.now().Sub(entry.storedAt) > c.ttl {
		delete(c.entries, key)
		return "", false
	}
	return entry.answer, true
}

// put stores an answer, evicting the oldest entry when at capacity.
func (c *responseCache) put(input, contextSummary, answer string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey(input, contextSummary)
	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxSize {
		var oldestKey string
		var oldestAt time.Time
		for k, e := range c.entries {
			if oldestKey == "" || e.storedAt.Before(oldestAt) {
				oldestKey = k
				oldestAt = e.storedAt
			}
		}
		delete(c.entries, oldestKey)
	}
	c.entries[key] = cacheEntry{answer: answer, storedAt: c.now()}
}

func (c *responseCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
