package nodelet

import (
	"context"

	"github.com/danmuck/nodelet/internal/directory"
	"github.com/danmuck/nodelet/internal/transport"
)

// NodeManager is the node-manager subsystem as the bootstrap core
// sees it: connection/message entry points plus the post-registration
// hook. Scheduling logic stays behind this boundary.
type NodeManager interface {
	ProcessNewClient(c *transport.ClientConnection)
	ProcessClientMessage(c *transport.ClientConnection, messageType int64, payload []byte)
	ProcessNewNodeManager(c *transport.ClientConnection)
	ProcessNodeManagerMessage(c *transport.ClientConnection, messageType int64, payload []byte)
	RegisterDirectory(ctx context.Context, id directory.NodeID, dir directory.Client) error
	WorkerCount() int
	PeerCount() int
}

// ObjectManager is the object-manager subsystem as the bootstrap core
// sees it. Object transfer logic stays behind this boundary.
type ObjectManager interface {
	ProcessNewClient(c *transport.ClientConnection)
	ProcessClientMessage(c *transport.ClientConnection, messageType int64, payload []byte)
	ClientCount() int
}

// Handler objects routing accepted connections to their owning
// subsystem. Each holds the subsystem reference it dispatches to, so
// connection lifetimes never couple to the orchestrator.

type workerHandler struct {
	nm NodeManager
}

func (h workerHandler) HandleConnect(c *transport.ClientConnection) {
	h.nm.ProcessNewClient(c)
}

func (h workerHandler) HandleMessage(c *transport.ClientConnection, messageType int64, payload []byte) {
	h.nm.ProcessClientMessage(c, messageType, payload)
}

type peerHandler struct {
	nm NodeManager
}

func (h peerHandler) HandleConnect(c *transport.ClientConnection) {
	h.nm.ProcessNewNodeManager(c)
}

func (h peerHandler) HandleMessage(c *transport.ClientConnection, messageType int64, payload []byte) {
	h.nm.ProcessNodeManagerMessage(c, messageType, payload)
}

type objectHandler struct {
	om ObjectManager
}

func (h objectHandler) HandleConnect(c *transport.ClientConnection) {
	h.om.ProcessNewClient(c)
}

func (h objectHandler) HandleMessage(c *transport.ClientConnection, messageType int64, payload []byte) {
	h.om.ProcessClientMessage(c, messageType, payload)
}
