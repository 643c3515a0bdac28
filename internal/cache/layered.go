package cache

import "time"

// LayeredCache checks a fast layer before a slow one and promotes slow
// hits. Either layer may be nil.
type LayeredCache struct {
	memory Cache
	disk   Cache
}

// NewLayeredCache creates a memory cache, backed by a disk cache when
// diskDir is set
func NewLayeredCache(memoryTTL time.Duration, diskDir string, diskTTL time.Duration) *LayeredCache {
	var disk Cache
	if diskDir != "" {
		disk = NewDiskCache(diskDir, diskTTL)
	}
	return NewLayers(NewMemoryCache(memoryTTL, 10*time.Minute), disk)
}

// NewLayers composes two existing caches
func NewLayers(fast, slow Cache) *LayeredCache {
	return &LayeredCache{memory: fast, disk: slow}
}

// Get retrieves a value from the cache (checks memory first, then disk)
func (c *LayeredCache) Get(key string) ([]byte, bool) {
	if c.memory != nil {
		if val, found := c.memory.Get(key); found {
			return val, true
		}
	}
	if c.disk != nil {
		if val, found := c.disk.Get(key); found {
			if c.memory != nil {
				_ = c.memory.Set(key, val, 0)
			}
			return val, true
		}
	}
	return nil, false
}

// Set stores a value in every layer
func (c *LayeredCache) Set(key string, value []byte, ttl time.Duration) error {
	for _, layer := range []Cache{c.memory, c.disk} {
		if layer == nil {
			continue
		}
		if err := layer.Set(key, value, ttl); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes a value from every layer
func (c *LayeredCache) Delete(key string) error {
	for _, layer := range []Cache{c.memory, c.disk} {
		if layer != nil {
			if err := layer.Delete(key); err != nil {
				return err
			}
		}
	}
	return nil
}

// Clear empties every layer
func (c *LayeredCache) Clear() error {
	for _, layer := range []Cache{c.memory, c.disk} {
		if layer != nil {
			if err := layer.Clear(); err != nil {
				return err
			}
		}
	}
	return nil
}
