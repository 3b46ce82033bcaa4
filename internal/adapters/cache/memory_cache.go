package cache

import (
	"context"
	"sync"
)

// MemoryCache - Cache Tier в памяти процесса; живёт до перезапуска
type MemoryCache struct {
	mu   sync.RWMutex
	data []byte
	set  bool
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{}
}

func (c *MemoryCache) Get(_ context.Context) ([]byte, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.set {
		return nil, false, nil
	}
	return append([]byte(nil), c.data...), true, nil
}

func (c *MemoryCache) Set(_ context.Context, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = append([]byte(nil), data...)
	c.set = true
	return nil
}

func (c *MemoryCache) Clear(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data, c.set = nil, false
	return nil
}
