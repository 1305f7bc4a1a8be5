package sheets

import (
	"context"
	"sync"
	"time"
)

type cacheEntry struct {
	header  []string
	rows    []Row
	fetched time.Time
}

// Cache wraps a Store with a read cache so repeated reads of the same
// sheet within the TTL don't hit the backend. Writes pass through and
// drop the cached copy of the sheet they touch.
type Cache struct {
	store Store
	ttl   time.Duration
	now   func() time.Time

	mu      sync.Mutex
	entries map[string]*cacheEntry
}

// NewCache builds a read cache around store. now may be nil, in which
// case time.Now is used; tests inject their own clock.
func NewCache(store Store, ttl time.Duration, now func() time.Time) *Cache {
	if now == nil {
		now = time.Now
	}
	return &Cache{
		store:   store,
		ttl:     ttl,
		now:     now,
		entries: map[string]*cacheEntry{},
	}
}

func (c *Cache) get(sheet string) (*cacheEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[sheet]
	if !ok {
		return nil, false
	}
	if c.now().Sub(entry.fetched) > c.ttl {
		delete(c.entries, sheet)
		return nil, false
	}
	return entry, true
}

func (c *Cache) fill(ctx context.Context, sheet string) (*cacheEntry, error) {
	header, err := c.store.Header(ctx, sheet)
	if err != nil {
		return nil, err
	}
	rows, err := c.store.ReadAll(ctx, sheet)
	if err != nil {
		return nil, err
	}

	entry := &cacheEntry{
		header:  header,
		rows:    rows,
		fetched: c.now(),
	}
	c.mu.Lock()
	c.entries[sheet] = entry
	c.mu.Unlock()
	return entry, nil
}

func (c *Cache) invalidate(sheet string) {
	c.mu.Lock()
	delete(c.entries, sheet)
	c.mu.Unlock()
}

func (c *Cache) Header(ctx context.Context, sheet string) ([]string, error) {
	if entry, ok := c.get(sheet); ok {
		return entry.header, nil
	}
	entry, err := c.fill(ctx, sheet)
	if err != nil {
		return nil, err
	}
	return entry.header, nil
}

func (c *Cache) ReadAll(ctx context.Context, sheet string) ([]Row, error) {
	if entry, ok := c.get(sheet); ok {
		return entry.rows, nil
	}
	entry, err := c.fill(ctx, sheet)
	if err != nil {
		return nil, err
	}
	return entry.rows, nil
}

func (c *Cache) EnsureColumn(ctx context.Context, sheet string, column string) error {
	c.invalidate(sheet)
	return c.store.EnsureColumn(ctx, sheet, column)
}

func (c *Cache) WriteRange(ctx context.Context, sheet string, topLeft, bottomRight string, rows [][]string) error {
	c.invalidate(sheet)
	return c.store.WriteRange(ctx, sheet, topLeft, bottomRight, rows)
}
