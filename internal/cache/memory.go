package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// Memory is a process-local Cache used by tests and by runs without a Redis
// backend. Values round-trip through JSON like the Redis implementation so
// both behave identically from the caller's side.
type Memory struct {
	mu      sync.RWMutex
	entries map[string][]byte
	tags    map[string]map[string]struct{}
}

func NewMemory() *Memory {
	return &Memory{
		entries: make(map[string][]byte),
		tags:    make(map[string]map[string]struct{}),
	}
}

func (c *Memory) Get(ctx context.Context, key string, dest any) (bool, error) {
	c.mu.RLock()
	data, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("failed to unmarshal cache entry: %w", err)
	}
	return true, nil
}

func (c *Memory) Set(ctx context.Context, key string, value any, tags ...string) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = data
	for _, tag := range tags {
		if c.tags[tag] == nil {
			c.tags[tag] = make(map[string]struct{})
		}
		c.tags[tag][key] = struct{}{}
	}
	return nil
}

func (c *Memory) Invalidate(ctx context.Context, tags ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, tag := range tags {
		for key := range c.tags[tag] {
			delete(c.entries, key)
		}
		delete(c.tags, tag)
	}
	return nil
}
