// pkg/object/cached.go

package object

import (
	"fmt"
	"io"

	"AveIO/pkg/chunk"
)

// cached keeps whole objects in memory. Concurrent misses for one key load
// it once.
type cached struct {
	ObjectStorage
	cache *chunk.Cache
	group chunk.Controller
}

// NewCached puts a memory cache of capacity bytes in front of o.
func NewCached(o ObjectStorage, capacity int64) ObjectStorage {
	return &cached{ObjectStorage: o, cache: chunk.NewCache(capacity)}
}

func (c *cached) String() string {
	return fmt.Sprintf("%s(cached)", c.ObjectStorage)
}

func (c *cached) load(key string) (*chunk.Page, error) {
	if p, ok := c.cache.Get(key); ok {
		return p, nil
	}
	return c.group.Execute(key, func() (*chunk.Page, error) {
		r, err := c.ObjectStorage.Get(key, 0, -1)
		if err != nil {
			return nil, err
		}
		defer r.Close()
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, err
		}
		p := chunk.NewPage(data)
		c.cache.Put(key, p)
		logger.Debugf("cached %s (%d bytes)", key, len(data))
		return p, nil
	})
}

func (c *cached) Get(key string, off, limit int64) (io.ReadCloser, error) {
	p, err := c.load(key)
	if err != nil {
		return nil, err
	}
	defer p.Release()
	l := int64(len(p.Data))
	if off > l {
		off = l
	}
	if limit < 0 || off+limit > l {
		limit = l - off
	}
	s := p.Slice(int(off), int(limit))
	defer s.Release()
	return chunk.NewPageReader(s), nil
}

func (c *cached) Put(key string, in io.Reader) error {
	c.cache.Remove(key)
	return c.ObjectStorage.Put(key, in)
}

func (c *cached) Delete(key string) error {
	c.cache.Remove(key)
	return c.ObjectStorage.Delete(key)
}
