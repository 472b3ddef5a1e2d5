package nodelet

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrSocketPathRequired  = errors.New("nodelet: socket path required")
	ErrNodeAddressRequired = errors.New("nodelet: node address required")
	ErrInvalidResource     = errors.New("nodelet: invalid resource entry")
)

// Resource is one name/capacity pair of the node's resource
// configuration. Order is preserved through to the published
// descriptor but carries no meaning.
type Resource struct {
	Label    string
	Capacity float64
}

// DirectoryConfig locates the cluster membership directory.
type DirectoryConfig struct {
	Address    string
	Port       int
	Credential string
}

// Config is the bootstrap configuration for one node agent.
type Config struct {
	// NodeAddress is this node's network address as peers reach it.
	NodeAddress string
	// SocketPath is the filesystem path of the local worker channel.
	SocketPath string
	// ObjectStoreSocketPath is the co-located object store's channel
	// path, published in the descriptor for workers to find.
	ObjectStoreSocketPath string
	// NodeManagerPort and ObjectManagerPort are the TCP listening
	// ports; 0 asks the OS to assign one.
	NodeManagerPort   int
	ObjectManagerPort int
	// Resources is the node's schedulable capacity, published at
	// registration.
	Resources []Resource

	Directory DirectoryConfig

	// AdminListenAddr serves /health, /ready, /status, /metrics when
	// set; empty disables the admin surface.
	AdminListenAddr  string
	AdminCorsOrigins []string

	// TickPeriod drives the periodic bookkeeping tick.
	TickPeriod time.Duration
}

func DefaultConfig() Config {
	return Config{
		NodeAddress: "127.0.0.1",
		TickPeriod:  100 * time.Millisecond,
	}
}

// WithDefaults fills unset fields from DefaultConfig.
func (c Config) WithDefaults() Config {
	def := DefaultConfig()
	if strings.TrimSpace(c.NodeAddress) == "" {
		c.NodeAddress = def.NodeAddress
	}
	if c.TickPeriod <= 0 {
		c.TickPeriod = def.TickPeriod
	}
	return c
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.SocketPath) == "" {
		return ErrSocketPathRequired
	}
	if strings.TrimSpace(c.NodeAddress) == "" {
		return ErrNodeAddressRequired
	}
	for i, r := range c.Resources {
		if strings.TrimSpace(r.Label) == "" {
			return fmt.Errorf("%w: resources[%d] missing label", ErrInvalidResource, i)
		}
		if r.Capacity < 0 {
			return fmt.Errorf("%w: resources[%d] negative capacity", ErrInvalidResource, i)
		}
	}
	return nil
}
