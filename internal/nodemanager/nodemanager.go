package nodemanager

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/danmuck/nodelet/internal/directory"
	"github.com/danmuck/nodelet/internal/protocol"
	"github.com/danmuck/nodelet/internal/transport"
)

// Manager is the node-manager subsystem boundary. The bootstrap core
// routes worker and peer connections here; task and worker lifecycle
// logic live behind these entry points and are not part of the
// bootstrap layer. What the core relies on is the connection
// bookkeeping: each establish callback registers the connection, each
// teardown is observed through the registered handle.
type Manager struct {
	mu      sync.Mutex
	workers map[*transport.ClientConnection]struct{}
	peers   map[*transport.ClientConnection]struct{}

	nodeID directory.NodeID
	dir    directory.Client
}

func NewManager() *Manager {
	return &Manager{
		workers: make(map[*transport.ClientConnection]struct{}),
		peers:   make(map[*transport.ClientConnection]struct{}),
	}
}

// ProcessNewClient registers a newly connected co-located worker. The
// registration is released once the connection tears down.
func (m *Manager) ProcessNewClient(c *transport.ClientConnection) {
	m.mu.Lock()
	m.workers[c] = struct{}{}
	m.mu.Unlock()
	go m.reapWorker(c)
	log.Debug().
		Str("role", c.Role()).
		Msg("nodemanager: worker connected")
}

func (m *Manager) reapWorker(c *transport.ClientConnection) {
	<-c.Done()
	m.mu.Lock()
	delete(m.workers, c)
	m.mu.Unlock()
	log.Debug().
		Str("role", c.Role()).
		Msg("nodemanager: worker released")
}

// ProcessClientMessage handles one framed message from a worker.
func (m *Manager) ProcessClientMessage(c *transport.ClientConnection, messageType int64, payload []byte) {
	switch messageType {
	case protocol.NodeRegisterClientRequest:
		if err := c.WriteMessage(protocol.NodeRegisterClientReply, nil); err != nil {
			log.Warn().Err(err).Msg("nodemanager: register reply failed")
		}
	default:
		log.Debug().
			Int64("message_type", messageType).
			Int("payload_bytes", len(payload)).
			Msg("nodemanager: worker message")
	}
}

// ProcessNewNodeManager registers a newly connected peer node manager.
// The registration is released once the connection tears down.
func (m *Manager) ProcessNewNodeManager(c *transport.ClientConnection) {
	m.mu.Lock()
	m.peers[c] = struct{}{}
	m.mu.Unlock()
	go m.reapPeer(c)
	log.Debug().
		Str("remote", c.RemoteAddr().String()).
		Msg("nodemanager: peer node manager connected")
}

func (m *Manager) reapPeer(c *transport.ClientConnection) {
	<-c.Done()
	m.mu.Lock()
	delete(m.peers, c)
	m.mu.Unlock()
	log.Debug().
		Str("remote", c.RemoteAddr().String()).
		Msg("nodemanager: peer node manager released")
}

// ProcessNodeManagerMessage handles one framed message from a peer
// node manager.
func (m *Manager) ProcessNodeManagerMessage(c *transport.ClientConnection, messageType int64, payload []byte) {
	log.Debug().
		Int64("message_type", messageType).
		Int("payload_bytes", len(payload)).
		Str("remote", c.RemoteAddr().String()).
		Msg("nodemanager: peer message")
}

// RegisterDirectory is the post-registration hook: it runs once the
// directory has assigned this node's cluster identity, and gives the
// subsystem its directory capability for later use.
func (m *Manager) RegisterDirectory(ctx context.Context, id directory.NodeID, dir directory.Client) error {
	m.mu.Lock()
	m.nodeID = id
	m.dir = dir
	m.mu.Unlock()
	log.Info().
		Str("node_id", string(id)).
		Msg("nodemanager: cluster identity assigned")
	return nil
}

// NodeID returns the identity assigned at registration, empty before.
func (m *Manager) NodeID() directory.NodeID {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.nodeID
}

// WorkerCount reports currently registered worker connections.
func (m *Manager) WorkerCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.workers)
}

// PeerCount reports currently registered peer node-manager connections.
func (m *Manager) PeerCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.peers)
}
