package directory

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"
)

var (
	ErrNotAttached     = errors.New("directory: client not attached")
	ErrAddressRequired = errors.New("directory: address required")
)

// Client is the narrow capability surface the bootstrap core needs
// from the membership directory. The orchestrator owns the client;
// subsystems that need directory access receive this interface, never
// the concrete handle.
type Client interface {
	// Attach establishes the directory connection. Must succeed
	// before any other call.
	Attach(ctx context.Context) error
	// LocalDescriptor returns the directory's locally-known template
	// for this node; callers fill in addresses, ports, and resources.
	LocalDescriptor(ctx context.Context) (NodeDescriptor, error)
	// PublishDescriptor registers the node in the directory's client
	// table. This is the act of cluster join: the returned NodeID is
	// the node's durable identity.
	PublishDescriptor(ctx context.Context, d NodeDescriptor) (NodeID, error)
	Close() error
}

const (
	clientTableKey   = "nodelet:client_table"
	nodeIDCounterKey = "nodelet:client_table:next_id"
	templateKey      = "nodelet:descriptor:template"
)

// RedisConfig locates and authenticates the Redis-backed directory.
type RedisConfig struct {
	Address    string
	Port       int
	Credential string
}

// RedisClient is the production directory client. Node identities are
// allocated from a shared counter; descriptors live in one hash keyed
// by node id.
type RedisClient struct {
	cfg RedisConfig
	rdb *redis.Client
}

var _ Client = (*RedisClient)(nil)

func NewRedisClient(cfg RedisConfig) (*RedisClient, error) {
	if strings.TrimSpace(cfg.Address) == "" {
		return nil, ErrAddressRequired
	}
	return &RedisClient{cfg: cfg}, nil
}

func (c *RedisClient) Attach(ctx context.Context) error {
	rdb := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(c.cfg.Address, strconv.Itoa(c.cfg.Port)),
		Password: c.cfg.Credential,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return fmt.Errorf("directory: attach: %w", err)
	}
	c.rdb = rdb
	return nil
}

func (c *RedisClient) LocalDescriptor(ctx context.Context) (NodeDescriptor, error) {
	if c.rdb == nil {
		return NodeDescriptor{}, ErrNotAttached
	}
	raw, err := c.rdb.Get(ctx, templateKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return NodeDescriptor{}, nil
	}
	if err != nil {
		return NodeDescriptor{}, fmt.Errorf("directory: read descriptor template: %w", err)
	}
	return DecodeDescriptor(raw)
}

func (c *RedisClient) PublishDescriptor(ctx context.Context, d NodeDescriptor) (NodeID, error) {
	if c.rdb == nil {
		return "", ErrNotAttached
	}
	blob, err := EncodeDescriptor(d)
	if err != nil {
		return "", err
	}
	seq, err := c.rdb.Incr(ctx, nodeIDCounterKey).Result()
	if err != nil {
		return "", fmt.Errorf("directory: allocate node id: %w", err)
	}
	id := NodeID(fmt.Sprintf("node-%06d", seq))
	if err := c.rdb.HSet(ctx, clientTableKey, string(id), blob).Err(); err != nil {
		return "", fmt.Errorf("directory: publish descriptor: %w", err)
	}
	return id, nil
}

func (c *RedisClient) Close() error {
	if c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}
