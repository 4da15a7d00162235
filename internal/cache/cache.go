package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"runtime/debug"
	"sort"
	"sync"
	"time"

	prefaberrors "github.com/dpup/prefab/errors"
	"github.com/dpup/prefab/logging"
)

// Cache is a thread-safe in-memory store of JSON-encoded values with a TTL.
// Values are copied in and out through JSON so callers never share memory
// with the cache. Save and Load carry fresh entries across runs.
type Cache struct {
	entries map[string]*Entry
	mutex   sync.RWMutex
	now     func() time.Time

	hits   int64
	misses int64
}

// Entry is one cached value with its metadata
type Entry struct {
	Key       string        `json:"key"`
	Data      []byte        `json:"data"`
	CreatedAt time.Time     `json:"created_at"`
	ExpiresAt time.Time     `json:"expires_at"`
	TTL       time.Duration `json:"ttl"`
	Source    string        `json:"source"`
}

// Stats provides cache usage statistics
type Stats struct {
	TotalEntries int
	FreshEntries int
	StaleEntries int
	Hits         int64
	Misses       int64
	OldestEntry  time.Time
	NewestEntry  time.Time
}

// NewCache creates a new in-memory cache
func NewCache() *Cache {
	return &Cache{
		entries: make(map[string]*Entry),
		now:     time.Now,
	}
}

// Set stores data under key until ttl elapses
func (c *Cache) Set(key string, data interface{}, ttl time.Duration, source string) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal data for cache: %w", err)
	}

	now := c.now()
	entry := &Entry{
		Key:       key,
		Data:      jsonData,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
		TTL:       ttl,
		Source:    source,
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.entries[key] = entry
	return nil
}

// Get decodes a fresh entry into result. Stale and missing keys report false.
func (c *Cache) Get(key string, result interface{}) (bool, error) {
	c.mutex.Lock()
	entry, exists := c.entries[key]
	fresh := exists && !c.now().After(entry.ExpiresAt)
	if fresh {
		c.hits++
	} else {
		c.misses++
	}
	c.mutex.Unlock()

	if !fresh {
		return false, nil
	}

	if err := json.Unmarshal(entry.Data, result); err != nil {
		return false, fmt.Errorf("failed to unmarshal cached data: %w", err)
	}

	return true, nil
}

// Stats returns cache statistics
func (c *Cache) Stats() Stats {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	now := c.now()
	stats := Stats{
		TotalEntries: len(c.entries),
		Hits:         c.hits,
		Misses:       c.misses,
	}

	for _, entry := range c.entries {
		if now.After(entry.ExpiresAt) {
			stats.StaleEntries++
		} else {
			stats.FreshEntries++
		}

		if stats.OldestEntry.IsZero() || entry.CreatedAt.Before(stats.OldestEntry) {
			stats.OldestEntry = entry.CreatedAt
		}
		if entry.CreatedAt.After(stats.NewestEntry) {
			stats.NewestEntry = entry.CreatedAt
		}
	}

	return stats
}

// CleanupStale removes all stale entries from cache
func (c *Cache) CleanupStale() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	now := c.now()
	var removed int

	for key, entry := range c.entries {
		if now.After(entry.ExpiresAt) {
			delete(c.entries, key)
			removed++
		}
	}

	return removed
}

// StartPeriodicCleanup removes stale entries every interval until ctx is done
func (c *Cache) StartPeriodicCleanup(ctx context.Context, interval time.Duration) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				err, _ := prefaberrors.ParseStack(debug.Stack())
				skipFrames := 3
				numFrames := 5
				logging.Errorw(ctx, "Cache cleanup: recovered from panic",
					"error", r, "error.stack_trace", err.MinimalStack(skipFrames, numFrames))
			}
		}()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if removed := c.CleanupStale(); removed > 0 {
					logging.Debugw(ctx, "Cache cleanup: removed stale entries", "removed", removed)
				}
			}
		}
	}()
}

// snapshot is the on-disk form written by Save
type snapshot struct {
	SavedAt time.Time `json:"saved_at"`
	Entries []*Entry  `json:"entries"`
}

// Save writes every fresh entry to path, replacing any previous snapshot. The
// file is written next to path and renamed into place.
func (c *Cache) Save(path string) error {
	c.mutex.RLock()
	now := c.now()
	snap := snapshot{SavedAt: now, Entries: make([]*Entry, 0, len(c.entries))}
	for _, entry := range c.entries {
		if !now.After(entry.ExpiresAt) {
			snap.Entries = append(snap.Entries, entry)
		}
	}
	c.mutex.RUnlock()

	sort.Slice(snap.Entries, func(i, j int) bool {
		return snap.Entries[i].Key < snap.Entries[j].Key
	})

	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal cache snapshot: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write cache snapshot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace cache snapshot: %w", err)
	}
	return nil
}

// Load adds the fresh entries of a snapshot written by Save and returns how
// many were kept. A missing file is an empty cache, not an error.
func (c *Cache) Load(path string) (int, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read cache snapshot: %w", err)
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return 0, fmt.Errorf("failed to parse cache snapshot %s: %w", path, err)
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	now := c.now()
	loaded := 0
	for _, entry := range snap.Entries {
		if entry == nil || entry.Key == "" || now.After(entry.ExpiresAt) {
			continue
		}
		c.entries[entry.Key] = entry
		loaded++
	}
	return loaded, nil
}

// pageKey namespaces built pages by group, activity content and chart width
func pageKey(groupID, contentHash string, chartWidth int) string {
	return fmt.Sprintf("page:%s:%s:%d", groupID, contentHash, chartWidth)
}

// SetPage caches a built page. A new content hash for the same group misses.
func (c *Cache) SetPage(groupID, contentHash string, chartWidth int, page interface{}, ttl time.Duration) error {
	return c.Set(pageKey(groupID, contentHash, chartWidth), page, ttl, "page")
}

// GetPage decodes a cached page into result
func (c *Cache) GetPage(groupID, contentHash string, chartWidth int, result interface{}) (bool, error) {
	return c.Get(pageKey(groupID, contentHash, chartWidth), result)
}
