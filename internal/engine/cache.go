package engine

import (
	"context"
	"fmt"
	"sync"
)

// Cache keys shared between the read-through consumers and the bookmark
// coordinator's invalidation.

// ProjectBookmarksKey caches a project's bookmarked question ids
func ProjectBookmarksKey(projectID int) string {
	return fmt.Sprintf("project:%d:bookmarks", projectID)
}

// ProjectFoldersKey caches a project's folder list
func ProjectFoldersKey(projectID int) string {
	return fmt.Sprintf("project:%d:folders", projectID)
}

// FolderQuestionsKey caches one folder's question list
func FolderQuestionsKey(folderName string) string {
	return fmt.Sprintf("folder:%s:questions", folderName)
}

// Invalidator drops cached collections by key so views reading them observe
// fresh data after a mutation.
type Invalidator interface {
	Invalidate(ctx context.Context, keys ...string)
}

// MemoryCache is a process-local collection cache keyed by string. Handlers
// store derived collections (folder question lists, the folder list) in it;
// the bookmark coordinator invalidates the dependent keys after a confirmed
// mutation.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]interface{}
}

// NewMemoryCache creates an empty cache
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]interface{})}
}

// Get returns the cached value for a key, if present
func (c *MemoryCache) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.entries[key]
	return v, ok
}

// Set stores a value under a key, replacing any previous value
func (c *MemoryCache) Set(key string, value interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
}

// Invalidate drops the given keys
func (c *MemoryCache) Invalidate(_ context.Context, keys ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range keys {
		delete(c.entries, key)
	}
}

// Len returns the number of cached entries
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
