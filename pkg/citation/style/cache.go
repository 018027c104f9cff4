// Package style loads and memoizes CSL style definitions by key.
package style

import (
	"context"
	"sync"
	"time"

	"ai-writing-be/internal/pkg/logger"
	"ai-writing-be/pkg/citation"
	"ai-writing-be/pkg/citation/csl"

	"golang.org/x/sync/singleflight"
)

// Definition is a loaded style. It is never refetched for the life of the process.
type Definition struct {
	Key      string
	Raw      []byte
	Style    *csl.Style
	LoadedAt time.Time
}

// Cache owns the process-wide style definitions. Concurrent first loads of the
// same key share one fetch; a failed load stores nothing.
type Cache struct {
	fetcher Fetcher
	logger  logger.ILogger

	mu    sync.RWMutex
	defs  map[string]*Definition
	group singleflight.Group
}

func NewCache(fetcher Fetcher, logger logger.ILogger) *Cache {
	return &Cache{
		fetcher: fetcher,
		logger:  logger,
		defs:    make(map[string]*Definition),
	}
}

// EnsureLoaded returns the definition for key, fetching it on first use.
func (c *Cache) EnsureLoaded(ctx context.Context, key string) (*Definition, error) {
	k, err := Normalize(key)
	if err != nil {
		return nil, err
	}
	if def := c.lookup(k); def != nil {
		return def, nil
	}

	v, err, shared := c.group.Do(k, func() (interface{}, error) {
		// A flight that finished between lookup and Do already stored the key.
		if def := c.lookup(k); def != nil {
			return def, nil
		}
		return c.load(ctx, k)
	})
	if err != nil {
		c.logger.Error("STYLE", "Failed to load style definition", map[string]interface{}{
			"style":  k,
			"error":  err.Error(),
			"shared": shared,
		})
		return nil, err
	}
	return v.(*Definition), nil
}

func (c *Cache) load(ctx context.Context, key string) (*Definition, error) {
	raw, err := c.fetcher.Fetch(ctx, key)
	if err != nil {
		return nil, &citation.TemplateLoadError{StyleKey: key, Cause: err}
	}
	parsed, err := csl.ParseStyle(raw)
	if err != nil {
		return nil, &citation.TemplateLoadError{StyleKey: key, Cause: err}
	}

	def := &Definition{
		Key:      key,
		Raw:      raw,
		Style:    parsed,
		LoadedAt: time.Now(),
	}

	c.mu.Lock()
	c.defs[key] = def
	c.mu.Unlock()

	c.logger.Info("STYLE", "Style definition loaded", map[string]interface{}{
		"style": key,
		"title": parsed.Title,
		"bytes": len(raw),
	})
	return def, nil
}

func (c *Cache) lookup(key string) *Definition {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.defs[key]
}

// Loaded reports whether key is already cached.
func (c *Cache) Loaded(key string) bool {
	k, err := Normalize(key)
	if err != nil {
		return false
	}
	return c.lookup(k) != nil
}

// Len returns the number of cached definitions.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.defs)
}
