package directory

import (
	"context"
	"fmt"
	"sync"
)

// MemoryClient is an in-process directory for single-node runs and
// tests. It honors the same attach-before-use contract as the Redis
// client and can inject failures at either boundary.
type MemoryClient struct {
	// FailAttach and FailPublish, when set, are returned from the
	// corresponding call instead of performing it.
	FailAttach  error
	FailPublish error
	// Template is returned from LocalDescriptor after attach.
	Template NodeDescriptor

	mu        sync.Mutex
	attached  bool
	nextID    int64
	published map[NodeID]NodeDescriptor
}

var _ Client = (*MemoryClient)(nil)

func NewMemoryClient() *MemoryClient {
	return &MemoryClient{published: make(map[NodeID]NodeDescriptor)}
}

func (c *MemoryClient) Attach(ctx context.Context) error {
	if c.FailAttach != nil {
		return c.FailAttach
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.attached = true
	return nil
}

func (c *MemoryClient) LocalDescriptor(ctx context.Context) (NodeDescriptor, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.attached {
		return NodeDescriptor{}, ErrNotAttached
	}
	return c.Template, nil
}

func (c *MemoryClient) PublishDescriptor(ctx context.Context, d NodeDescriptor) (NodeID, error) {
	if c.FailPublish != nil {
		return "", c.FailPublish
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.attached {
		return "", ErrNotAttached
	}
	if err := d.Validate(); err != nil {
		return "", err
	}
	// Round-trip through the storage encoding so the memory client
	// exercises the same serialization path as the Redis client.
	blob, err := EncodeDescriptor(d)
	if err != nil {
		return "", err
	}
	stored, err := DecodeDescriptor(blob)
	if err != nil {
		return "", err
	}
	c.nextID++
	id := NodeID(fmt.Sprintf("node-%06d", c.nextID))
	c.published[id] = stored
	return id, nil
}

// Published returns a copy of the directory's client table.
func (c *MemoryClient) Published() map[NodeID]NodeDescriptor {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[NodeID]NodeDescriptor, len(c.published))
	for id, d := range c.published {
		out[id] = d
	}
	return out
}

func (c *MemoryClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.attached = false
	return nil
}
