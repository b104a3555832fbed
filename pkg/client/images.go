package client

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/iziplay/rodb/pkg/artifacts"
	"golang.org/x/sync/singleflight"
)

// Placeholder is shown for any image that cannot be resolved
const Placeholder = "/placeholder.png"

type batchKey struct {
	prefix string
	batch  int
}

// imageCache lazily fetches image batches. Concurrent requests for the same
// uncached batch share a single fetch.
type imageCache struct {
	fetcher Fetcher
	group   singleflight.Group

	mu      sync.RWMutex
	batches map[batchKey]map[string]string
}

func newImageCache(fetcher Fetcher) *imageCache {
	return &imageCache{
		fetcher: fetcher,
		batches: map[batchKey]map[string]string{},
	}
}

func (c *imageCache) batch(ctx context.Context, prefix string, n int) (map[string]string, error) {
	key := batchKey{prefix: prefix, batch: n}

	c.mu.RLock()
	b, ok := c.batches[key]
	c.mu.RUnlock()
	if ok {
		return b, nil
	}

	v, err, _ := c.group.Do(fmt.Sprintf("%s/%d", prefix, n), func() (any, error) {
		c.mu.RLock()
		b, ok := c.batches[key]
		c.mu.RUnlock()
		if ok {
			return b, nil
		}

		data, err := c.fetcher.Fetch(ctx, artifacts.BatchFile(prefix, n))
		if err != nil {
			return nil, err
		}
		batch := map[string]string{}
		if err := json.Unmarshal(data, &batch); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", artifacts.BatchFile(prefix, n), err)
		}

		c.mu.Lock()
		c.batches[key] = batch
		c.mu.Unlock()
		return batch, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(map[string]string), nil
}

// resolve returns the data URL of id, or Placeholder when the descriptor has
// no entry for it or its batch cannot be loaded.
func (c *imageCache) resolve(ctx context.Context, prefix string, descriptor map[string]int, id string) string {
	n, ok := descriptor[id]
	if !ok {
		return Placeholder
	}

	batch, err := c.batch(ctx, prefix, n)
	if err != nil {
		slog.Warn("Cannot load image batch", "kind", prefix, "batch", n, "error", err)
		return Placeholder
	}
	if url, ok := batch[id]; ok && url != "" {
		return url
	}
	return Placeholder
}

// cached reports how many batches are held in memory
func (c *imageCache) cached() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.batches)
}
