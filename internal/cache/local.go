package cache

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var cacheTracer = otel.Tracer("github.com/chris-regnier/assay/internal/cache")

// Ensure LocalCache implements CacheManager interface
var _ CacheManager = (*LocalCache)(nil)

// LocalCache keeps one JSON file per entry under dir.
type LocalCache struct {
	dir string
}

func NewLocalCache(dir string) *LocalCache {
	return &LocalCache{dir: dir}
}

func (c *LocalCache) entryPath(key CacheKey) string {
	return filepath.Join(c.dir, key.Hash()+".json")
}

func (c *LocalCache) Get(ctx context.Context, key CacheKey) (*CacheEntry, error) {
	ctx, span := cacheTracer.Start(ctx, "cache lookup")
	defer span.End()

	cacheKeyHash := key.Hash()
	span.SetAttributes(attribute.String("assay.cache.key", cacheKeyHash))

	// Check context cancellation before I/O
	if err := ctx.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	path := c.entryPath(key)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			span.SetAttributes(attribute.Bool("assay.cache.hit", false))
			return nil, ErrCacheMiss
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	var entry CacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.Bool("assay.cache.hit", true))
	return &entry, nil
}

func (c *LocalCache) Put(ctx context.Context, entry *CacheEntry) error {
	_, span := cacheTracer.Start(ctx, "cache store")
	defer span.End()

	span.SetAttributes(attribute.String("assay.cache.key", entry.Key.Hash()))

	// Check context cancellation before I/O
	if err := ctx.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if err := os.MkdirAll(c.dir, 0755); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	entry.Timestamp = time.Now().Unix()
	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if err := os.WriteFile(c.entryPath(entry.Key), data, 0644); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

func (c *LocalCache) Delete(ctx context.Context, key CacheKey) error {
	// Check context cancellation before I/O
	if err := ctx.Err(); err != nil {
		return err
	}

	err := os.Remove(c.entryPath(key))
	if err != nil && os.IsNotExist(err) {
		return nil
	}
	return err
}

// Prune removes entries older than maxAge and returns how many were removed.
func (c *LocalCache) Prune(ctx context.Context, maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}
	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return removed, err
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(c.dir, e.Name())); err != nil && !os.IsNotExist(err) {
				return removed, err
			}
			removed++
		}
	}
	return removed, nil
}
