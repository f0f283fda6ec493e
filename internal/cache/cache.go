// Package cache keeps the issues of already analyzed files, keyed by file
// content and rule settings, so unchanged files skip parsing and scanning.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/chris-regnier/assay/internal/config"
	"github.com/chris-regnier/assay/internal/report"
)

var ErrCacheMiss = errors.New("cache miss")

// CacheKey identifies the issues of one file under one rule configuration.
type CacheKey struct {
	FileHash    string            `json:"file_hash"`
	FilePath    string            `json:"file_path"`
	ToolVersion string            `json:"tool_version"`
	Rules       map[string]string `json:"rules"` // rule key -> settings hash
}

// Hash computes deterministic cache key
func (k CacheKey) Hash() string {
	b, err := json.Marshal(k)
	if err != nil {
		// CacheKey is a simple struct that should always marshal successfully
		panic("failed to marshal CacheKey: " + err.Error())
	}
	h := sha256.Sum256(b)
	return hex.EncodeToString(h[:])
}

// CacheEntry is the cached outcome of scanning one file.
type CacheEntry struct {
	Key       CacheKey       `json:"key"`
	Issues    []report.Issue `json:"issues"`
	Nodes     int            `json:"nodes"`
	Timestamp int64          `json:"timestamp"`
}

// CacheManager stores and retrieves entries. Get returns ErrCacheMiss for
// unknown keys.
type CacheManager interface {
	Get(ctx context.Context, key CacheKey) (*CacheEntry, error)
	Put(ctx context.Context, entry *CacheEntry) error
	Delete(ctx context.Context, key CacheKey) error
}

// GenerateKey creates a cache key from multiple components
func GenerateKey(components ...string) string {
	h := sha256.New()
	for i, comp := range components {
		if i > 0 {
			h.Write([]byte{0}) // separator
		}
		h.Write([]byte(comp))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// ContentHash hashes file content.
func ContentHash(content []byte) string {
	h := sha256.Sum256(content)
	return hex.EncodeToString(h[:])
}

// RulesFingerprint hashes the params of every enabled rule. Severity is left
// out: it changes how issues are reported, not which issues are found.
func RulesFingerprint(settings map[string]config.RuleConfig) map[string]string {
	out := make(map[string]string, len(settings))
	for key, rc := range settings {
		if !rc.Enabled {
			continue
		}
		names := make([]string, 0, len(rc.Params))
		for name := range rc.Params {
			names = append(names, name)
		}
		sort.Strings(names)
		parts := []string{key}
		for _, name := range names {
			v, _ := json.Marshal(rc.Params[name])
			parts = append(parts, name, string(v))
		}
		out[key] = GenerateKey(parts...)
	}
	return out
}

// Ensure MemoryCache implements CacheManager interface
var _ CacheManager = (*MemoryCache)(nil)

type memoryEntry struct {
	entry     *CacheEntry
	createdAt time.Time
	expiresAt time.Time
	hitCount  int64
}

func (e *memoryEntry) isExpired() bool {
	if e.expiresAt.IsZero() {
		return false
	}
	return time.Now().After(e.expiresAt)
}

// MemoryCache is a thread-safe in-memory CacheManager with a size bound and
// TTL.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]*memoryEntry
	maxSize int
	ttl     time.Duration

	hits      int64
	misses    int64
	evictions int64
}

// Option configures a MemoryCache
type Option func(*MemoryCache)

// WithMaxSize sets the maximum number of entries
func WithMaxSize(n int) Option {
	return func(c *MemoryCache) {
		c.maxSize = n
	}
}

// WithTTL sets the time-to-live for entries; 0 keeps them until evicted.
func WithTTL(d time.Duration) Option {
	return func(c *MemoryCache) {
		c.ttl = d
	}
}

// NewMemoryCache creates a new cache with the given options
func NewMemoryCache(opts ...Option) *MemoryCache {
	c := &MemoryCache{
		entries: make(map[string]*memoryEntry),
		maxSize: 1000,
		ttl:     1 * time.Hour,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *MemoryCache) Get(ctx context.Context, key CacheKey) (*CacheEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	h := key.Hash()

	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[h]
	if !ok {
		c.misses++
		return nil, ErrCacheMiss
	}
	if e.isExpired() {
		delete(c.entries, h)
		c.misses++
		return nil, ErrCacheMiss
	}
	e.hitCount++
	c.hits++
	return e.entry, nil
}

func (c *MemoryCache) Put(ctx context.Context, entry *CacheEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	h := entry.Key.Hash()

	c.mu.Lock()
	defer c.mu.Unlock()

	// Evict if at capacity
	if _, ok := c.entries[h]; !ok && len(c.entries) >= c.maxSize {
		c.evictOldest()
	}

	now := time.Now()
	var expiresAt time.Time
	if c.ttl > 0 {
		expiresAt = now.Add(c.ttl)
	}
	c.entries[h] = &memoryEntry{entry: entry, createdAt: now, expiresAt: expiresAt}
	return nil
}

func (c *MemoryCache) Delete(ctx context.Context, key CacheKey) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key.Hash())
	return nil
}

// Size returns the current number of entries
func (c *MemoryCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats returns cache statistics
func (c *MemoryCache) Stats() CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	total := c.hits + c.misses
	hitRate := 0.0
	if total > 0 {
		hitRate = float64(c.hits) / float64(total)
	}

	return CacheStats{
		Hits:      c.hits,
		Misses:    c.misses,
		HitRate:   hitRate,
		Size:      len(c.entries),
		MaxSize:   c.maxSize,
		Evictions: c.evictions,
	}
}

// CacheStats holds cache statistics
type CacheStats struct {
	Hits      int64   `json:"hits"`
	Misses    int64   `json:"misses"`
	HitRate   float64 `json:"hit_rate"`
	Size      int     `json:"size"`
	MaxSize   int     `json:"max_size"`
	Evictions int64   `json:"evictions"`
}

// evictOldest removes the oldest entry (by creation time)
// Must be called with lock held
func (c *MemoryCache) evictOldest() {
	var oldestKey string
	var oldestTime time.Time

	for key, e := range c.entries {
		if oldestKey == "" || e.createdAt.Before(oldestTime) {
			oldestKey = key
			oldestTime = e.createdAt
		}
	}

	if oldestKey != "" {
		delete(c.entries, oldestKey)
		c.evictions++
	}
}

// Cleanup removes all expired entries
func (c *MemoryCache) Cleanup() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	count := 0
	for key, e := range c.entries {
		if e.isExpired() {
			delete(c.entries, key)
			count++
		}
	}
	return count
}
