package store

import (
	"time"

	"github.com/coocood/freecache"

	"github.com/alchemmist/canvas-snap/internal/snapshot"
)

// Cache holds rendered export payloads keyed by snapshot id. Snapshots never
// change, so an entry only goes stale through its TTL or a delete.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte) error
	Del(key string)
}

// freeCache keeps entries zstd-compressed. freecache refuses entries larger
// than 1/1024 of its size (8 KB for 8 MB), so Set reports
// freecache.ErrLargeEntry for exports that still do not fit.
type freeCache struct {
	cache *freecache.Cache
	ttl   int
}

// NewCache returns a freecache of sizeMB megabytes, or a noop cache when
// sizeMB is not positive. A zero ttl keeps entries until evicted.
func NewCache(sizeMB int, ttl time.Duration) Cache {
	if sizeMB <= 0 {
		return NoopCache()
	}
	return &freeCache{
		cache: freecache.NewCache(sizeMB * 1024 * 1024),
		ttl:   int(ttl.Seconds()),
	}
}

func (c *freeCache) Get(key string) ([]byte, bool) {
	val, err := c.cache.Get([]byte(key))
	if err != nil {
		return nil, false
	}
	b, err := snapshot.Decompress(val)
	if err != nil {
		return nil, false
	}
	return b, true
}

func (c *freeCache) Set(key string, value []byte) error {
	packed, err := snapshot.Compress(value)
	if err != nil {
		return err
	}
	return c.cache.Set([]byte(key), packed, c.ttl)
}

func (c *freeCache) Del(key string) {
	c.cache.Del([]byte(key))
}

type noopCache struct{}

func NoopCache() Cache { return noopCache{} }

func (noopCache) Get(string) ([]byte, bool) { return nil, false }
func (noopCache) Set(string, []byte) error  { return nil }
func (noopCache) Del(string)                {}
