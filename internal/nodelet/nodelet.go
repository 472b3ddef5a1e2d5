package nodelet

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/danmuck/nodelet/internal/admin"
	"github.com/danmuck/nodelet/internal/directory"
	"github.com/danmuck/nodelet/internal/protocol"
	"github.com/danmuck/nodelet/internal/transport"
)

// Role labels for the three listening endpoints.
const (
	RoleWorker        = "worker"
	RoleNodeManager   = "node manager"
	RoleObjectManager = "object manager"
)

// Nodelet is the bootstrap orchestrator: it owns the three transport
// acceptors, the membership-directory client, and the references to
// the node-manager and object-manager subsystems. Construction binds
// every listening endpoint; Run starts the accept loops, performs the
// cluster-join registration, and blocks until shutdown.
type Nodelet struct {
	cfg Config
	nm  NodeManager
	om  ObjectManager
	dir directory.Client

	workerAcceptor *transport.Acceptor
	nodeAcceptor   *transport.Acceptor
	objectAcceptor *transport.Acceptor

	admin *admin.Server

	mu         sync.Mutex
	nodeID     directory.NodeID
	registered bool

	ticks atomic.Uint64
}

// New validates the protocol name tables and binds all three
// listening endpoints. A table mismatch or a bind failure is a fatal
// bootstrap defect: the process must not start.
func New(cfg Config, nm NodeManager, om ObjectManager, dir directory.Client) (*Nodelet, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	nodeTable, err := protocol.NodeManagerTable()
	if err != nil {
		return nil, err
	}
	objectTable, err := protocol.ObjectManagerTable()
	if err != nil {
		return nil, err
	}

	n := &Nodelet{cfg: cfg, nm: nm, om: om, dir: dir}

	n.workerAcceptor, err = transport.NewAcceptor(transport.AcceptorConfig{
		Network:       "unix",
		Address:       cfg.SocketPath,
		Role:          RoleWorker,
		Table:         nodeTable,
		DisconnectTag: protocol.NodeDisconnectClient,
		Handler:       workerHandler{nm: nm},
	})
	if err != nil {
		return nil, err
	}
	n.nodeAcceptor, err = transport.NewAcceptor(transport.AcceptorConfig{
		Network:       "tcp",
		Address:       fmt.Sprintf(":%d", cfg.NodeManagerPort),
		Role:          RoleNodeManager,
		Table:         nodeTable,
		DisconnectTag: protocol.NodeDisconnectClient,
		Handler:       peerHandler{nm: nm},
	})
	if err != nil {
		n.closeAcceptors()
		return nil, err
	}
	n.objectAcceptor, err = transport.NewAcceptor(transport.AcceptorConfig{
		Network:       "tcp",
		Address:       fmt.Sprintf(":%d", cfg.ObjectManagerPort),
		Role:          RoleObjectManager,
		Table:         objectTable,
		DisconnectTag: protocol.ObjectDisconnectClient,
		Handler:       objectHandler{om: om},
	})
	if err != nil {
		n.closeAcceptors()
		return nil, err
	}

	if addr := cfg.AdminListenAddr; addr != "" {
		n.admin = admin.New("nodelet", addr, cfg.AdminCorsOrigins, n.Status)
	}
	return n, nil
}

// NodeManagerPort returns the actual bound node-manager port.
func (n *Nodelet) NodeManagerPort() int {
	return n.nodeAcceptor.Port()
}

// ObjectManagerPort returns the actual bound object-manager port.
func (n *Nodelet) ObjectManagerPort() int {
	return n.objectAcceptor.Port()
}

// NodeID returns the directory-assigned identity, empty before join.
func (n *Nodelet) NodeID() directory.NodeID {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.nodeID
}

// Status snapshots agent state for the admin surface.
func (n *Nodelet) Status() admin.Status {
	n.mu.Lock()
	id := n.nodeID
	registered := n.registered
	n.mu.Unlock()
	return admin.Status{
		NodeID:            string(id),
		NodeAddress:       n.cfg.NodeAddress,
		SocketPath:        n.cfg.SocketPath,
		NodeManagerPort:   n.NodeManagerPort(),
		ObjectManagerPort: n.ObjectManagerPort(),
		Registered:        registered,
		Workers:           n.nm.WorkerCount(),
		Peers:             n.nm.PeerCount(),
		ObjectClients:     n.om.ClientCount(),
	}
}

// Run starts the three accept loops, joins the cluster, arms the
// periodic tick, and blocks until ctx is done or an accept loop
// fails. Registration failure is returned to the caller, which is
// expected to abort the process.
func (n *Nodelet) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer n.Close()

	serveErr := make(chan error, 4)
	go func() { serveErr <- n.workerAcceptor.Serve(ctx) }()
	go func() { serveErr <- n.nodeAcceptor.Serve(ctx) }()
	go func() { serveErr <- n.objectAcceptor.Serve(ctx) }()
	if n.admin != nil {
		go func() { serveErr <- n.admin.Run(ctx) }()
	}

	if err := n.RegisterWithCluster(ctx); err != nil {
		return err
	}

	go n.runTicker(ctx)

	select {
	case <-ctx.Done():
		return nil
	case err := <-serveErr:
		return err
	}
}

// RegisterWithCluster performs the one-time cluster-join handshake.
// Steps are strictly ordered and each short-circuits the rest on
// failure: attach the directory client, fill the node descriptor with
// the actual bound endpoints and resource capacities, publish it, and
// finally give the node-manager subsystem its post-registration hook.
func (n *Nodelet) RegisterWithCluster(ctx context.Context) error {
	if err := n.dir.Attach(ctx); err != nil {
		return fmt.Errorf("nodelet: directory attach: %w", err)
	}

	desc, err := n.dir.LocalDescriptor(ctx)
	if err != nil {
		return fmt.Errorf("nodelet: read descriptor template: %w", err)
	}
	desc.NodeAddress = n.cfg.NodeAddress
	desc.SocketPath = n.cfg.SocketPath
	desc.ObjectStoreSocketPath = n.cfg.ObjectStoreSocketPath
	desc.NodeManagerPort = n.NodeManagerPort()
	desc.ObjectManagerPort = n.ObjectManagerPort()
	// Fresh slices: the template's backing arrays belong to the
	// directory client and must not be overwritten in place.
	desc.ResourceLabels = make([]string, 0, len(n.cfg.Resources))
	desc.ResourceCapacities = make([]float64, 0, len(n.cfg.Resources))
	for _, r := range n.cfg.Resources {
		desc.ResourceLabels = append(desc.ResourceLabels, r.Label)
		desc.ResourceCapacities = append(desc.ResourceCapacities, r.Capacity)
	}

	id, err := n.dir.PublishDescriptor(ctx, desc)
	if err != nil {
		return fmt.Errorf("nodelet: descriptor publish: %w", err)
	}

	if err := n.nm.RegisterDirectory(ctx, id, n.dir); err != nil {
		return fmt.Errorf("nodelet: node manager registration hook: %w", err)
	}

	n.mu.Lock()
	n.nodeID = id
	n.registered = true
	n.mu.Unlock()

	log.Info().
		Str("node_id", string(id)).
		Str("node_manager", fmt.Sprintf("%s:%d", desc.NodeAddress, desc.NodeManagerPort)).
		Str("object_manager", fmt.Sprintf("%s:%d", desc.NodeAddress, desc.ObjectManagerPort)).
		Msg("nodelet: registered with cluster")
	return nil
}

// runTicker drives the periodic bookkeeping tick. Nothing is armed on
// it beyond a counter; it reserves the cadence future maintenance
// work will run on.
func (n *Nodelet) runTicker(ctx context.Context) {
	ticker := time.NewTicker(n.cfg.TickPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n.ticks.Add(1)
		}
	}
}

// TickCount reports periodic ticks observed since Run started.
func (n *Nodelet) TickCount() uint64 {
	return n.ticks.Load()
}

// Close releases the acceptors and the directory client. Safe after a
// partial New failure and after Run returns.
func (n *Nodelet) Close() error {
	n.closeAcceptors()
	if n.dir != nil {
		return n.dir.Close()
	}
	return nil
}

func (n *Nodelet) closeAcceptors() {
	for _, a := range []*transport.Acceptor{n.workerAcceptor, n.nodeAcceptor, n.objectAcceptor} {
		if a != nil {
			_ = a.Close()
		}
	}
}
