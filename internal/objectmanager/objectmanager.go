package objectmanager

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/danmuck/nodelet/internal/transport"
)

// Manager is the object-manager subsystem boundary. Object transfer
// logic lives behind these entry points; the bootstrap core only
// routes accepted object-transfer connections and their messages here.
type Manager struct {
	mu      sync.Mutex
	clients map[*transport.ClientConnection]struct{}
}

func NewManager() *Manager {
	return &Manager{clients: make(map[*transport.ClientConnection]struct{})}
}

// ProcessNewClient registers a newly connected object-transfer peer.
// The registration is released once the connection tears down.
func (m *Manager) ProcessNewClient(c *transport.ClientConnection) {
	m.mu.Lock()
	m.clients[c] = struct{}{}
	m.mu.Unlock()
	go m.reapClient(c)
	log.Debug().
		Str("remote", c.RemoteAddr().String()).
		Msg("objectmanager: client connected")
}

func (m *Manager) reapClient(c *transport.ClientConnection) {
	<-c.Done()
	m.mu.Lock()
	delete(m.clients, c)
	m.mu.Unlock()
	log.Debug().
		Str("remote", c.RemoteAddr().String()).
		Msg("objectmanager: client released")
}

// ProcessClientMessage handles one framed object-transfer message.
func (m *Manager) ProcessClientMessage(c *transport.ClientConnection, messageType int64, payload []byte) {
	log.Debug().
		Int64("message_type", messageType).
		Int("payload_bytes", len(payload)).
		Str("remote", c.RemoteAddr().String()).
		Msg("objectmanager: client message")
}

// ClientCount reports currently registered object-transfer connections.
func (m *Manager) ClientCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.clients)
}
