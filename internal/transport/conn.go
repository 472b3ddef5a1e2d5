package transport

import (
	"bufio"
	"errors"
	"io"
	"net"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"github.com/danmuck/nodelet/internal/observability"
	"github.com/danmuck/nodelet/internal/protocol"
	"github.com/danmuck/nodelet/internal/protocol/frame"
)

var ErrConnClosed = errors.New("transport: connection closed")

// MessageHandler receives connection lifecycle and message callbacks
// for one owning subsystem. HandleConnect fires exactly once, before
// any HandleMessage, on the goroutine that accepted the connection.
// HandleMessage fires on the connection's read goroutine in strict
// wire order; it must not block on the connection's own read side.
type MessageHandler interface {
	HandleConnect(c *ClientConnection)
	HandleMessage(c *ClientConnection, messageType int64, payload []byte)
}

// ClientConnection owns one accepted transport connection and pumps
// its framed messages to the owning subsystem's handler. It works
// identically over unix-socket and TCP transports. The connection
// tears itself down on the family's disconnect sentinel or on any
// transport error; no callbacks fire after teardown.
type ClientConnection struct {
	conn          net.Conn
	role          string
	table         protocol.NameTable
	disconnectTag int64
	handler       MessageHandler
	limits        frame.Limits

	writeMu sync.Mutex
	closed  atomic.Bool
	done    chan struct{}
	onClose func(*ClientConnection)
}

// NewClientConnection takes ownership of an already-accepted conn,
// fires the handler's HandleConnect synchronously, and starts the
// asynchronous read loop. The caller keeps no obligation to drive or
// release the connection afterwards.
func NewClientConnection(handler MessageHandler, conn net.Conn, role string, table protocol.NameTable, disconnectTag int64) *ClientConnection {
	return newClientConnection(handler, conn, role, table, disconnectTag, frame.DefaultLimits(), nil, nil)
}

func newClientConnection(handler MessageHandler, conn net.Conn, role string, table protocol.NameTable, disconnectTag int64, limits frame.Limits, onOpen, onClose func(*ClientConnection)) *ClientConnection {
	c := &ClientConnection{
		conn:          conn,
		role:          role,
		table:         table,
		disconnectTag: disconnectTag,
		handler:       handler,
		limits:        limits,
		done:          make(chan struct{}),
		onClose:       onClose,
	}
	if onOpen != nil {
		onOpen(c)
	}
	observability.RecordConnectionAccepted(role)
	handler.HandleConnect(c)
	go c.readLoop()
	return c
}

// Role returns the diagnostic label of the owning subsystem.
func (c *ClientConnection) Role() string {
	return c.role
}

// RemoteAddr returns the peer address of the underlying transport.
func (c *ClientConnection) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

// Done is closed once the connection has fully torn down.
func (c *ClientConnection) Done() <-chan struct{} {
	return c.done
}

// WriteMessage frames and writes one message to the peer. Writes are
// serialized; concurrent callers do not interleave frames.
func (c *ClientConnection) WriteMessage(messageType int64, payload []byte) error {
	if c.closed.Load() {
		return ErrConnClosed
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return frame.WriteMessage(c.conn, frame.Message{Type: messageType, Payload: payload}, c.limits)
}

// Close tears the connection down and releases the transport. Safe to
// call from any goroutine; repeat calls are no-ops.
func (c *ClientConnection) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	err := c.conn.Close()
	if c.onClose != nil {
		c.onClose(c)
	}
	return err
}

func (c *ClientConnection) readLoop() {
	defer close(c.done)
	defer c.Close()
	reader := bufio.NewReader(c.conn)
	for {
		msg, err := frame.ReadMessage(reader, c.limits)
		if err != nil {
			if c.closed.Load() || errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
				return
			}
			log.Debug().
				Str("role", c.role).
				Err(err).
				Msg("transport: connection read failed")
			return
		}
		if msg.Type == c.disconnectTag {
			log.Debug().
				Str("role", c.role).
				Str("message", c.table.Name(msg.Type)).
				Msg("transport: peer disconnecting")
			return
		}
		observability.RecordMessageDispatched(c.role, c.table.Name(msg.Type))
		c.handler.HandleMessage(c, msg.Type, msg.Payload)
		if c.closed.Load() {
			return
		}
	}
}
