package cache

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lhl/realitycheck/internal/errors"
)

// DiskCache persists entries as files, sharded by the last two key
// characters. Each file is an 8-byte expiry (unix nanos, 0 = never)
// followed by the raw value.
type DiskCache struct {
	dir string
	ttl time.Duration
	now func() time.Time
}

// NewDiskCache creates a new disk cache
func NewDiskCache(dir string, ttl time.Duration) *DiskCache {
	return &DiskCache{
		dir: dir,
		ttl: ttl,
		now: time.Now,
	}
}

// Get retrieves a value from the disk cache
func (c *DiskCache) Get(key string) ([]byte, bool) {
	path := c.path(key)

	data, err := os.ReadFile(path)
	if err != nil || len(data) < 8 {
		return nil, false
	}

	expires := int64(binary.LittleEndian.Uint64(data[:8]))
	if expires != 0 && c.now().UnixNano() > expires {
		_ = os.Remove(path)
		return nil, false
	}

	return data[8:], true
}

// Set stores a value in the disk cache; ttl 0 uses the default, negative
// never expires
func (c *DiskCache) Set(key string, value []byte, ttl time.Duration) error {
	if ttl == 0 {
		ttl = c.ttl
	}
	var expires int64
	if ttl > 0 {
		expires = c.now().Add(ttl).UnixNano()
	}

	buf := make([]byte, 8+len(value))
	binary.LittleEndian.PutUint64(buf[:8], uint64(expires))
	copy(buf[8:], value)

	path := c.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(err, "create cache dir")
	}

	// Write then rename so readers never see a partial entry.
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return errors.Wrap(err, "create cache temp file")
	}
	if _, err := tmp.Write(buf); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return errors.Wrap(err, "write cache file")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrap(err, "close cache file")
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrap(err, "rename cache file")
	}
	return nil
}

// Delete removes a value from the disk cache
func (c *DiskCache) Delete(key string) error {
	err := os.Remove(c.path(key))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// Clear removes all cached files
func (c *DiskCache) Clear() error {
	return os.RemoveAll(c.dir)
}

func (c *DiskCache) path(key string) string {
	name := strings.NewReplacer(":", "_", "/", "_", `\`, "_").Replace(key)
	shard := "00"
	if len(name) >= 2 {
		shard = name[len(name)-2:]
	}
	return filepath.Join(c.dir, shard, name+".bin")
}
