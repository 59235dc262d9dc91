package feed

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/lysyi3m/quickwatch/app/domain"
)

// Cache holds the last successful live feed snapshot. Reads are served from
// memory; Refresh is the manual "fetch new videos" action and the scheduled
// refresh task.
type Cache struct {
	source    Source
	mu        sync.RWMutex
	records   []domain.VideoRecord
	fetchedAt time.Time
	loaded    bool
}

func NewCache(source Source) *Cache {
	return &Cache{source: source}
}

// Records returns the cached snapshot, fetching once on first use.
func (c *Cache) Records(ctx context.Context) ([]domain.VideoRecord, error) {
	c.mu.RLock()
	if c.loaded {
		records := slices.Clone(c.records)
		c.mu.RUnlock()
		return records, nil
	}
	c.mu.RUnlock()

	if err := c.Refresh(ctx); err != nil {
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.records), nil
}

// Refresh replaces the snapshot. On failure the previous snapshot stays.
func (c *Cache) Refresh(ctx context.Context) error {
	records, err := c.source.Records(ctx)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.records = records
	c.fetchedAt = time.Now()
	c.loaded = true
	c.mu.Unlock()

	slog.Debug("Live feed refreshed", "records", len(records))
	return nil
}

// FetchedAt is zero until the first successful refresh.
func (c *Cache) FetchedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.fetchedAt
}
