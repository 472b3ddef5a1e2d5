package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/danmuck/nodelet/internal/observability"
	"github.com/danmuck/nodelet/internal/protocol"
	"github.com/danmuck/nodelet/internal/protocol/frame"
)

var (
	ErrRoleRequired    = errors.New("transport: role required")
	ErrHandlerRequired = errors.New("transport: handler required")
	ErrAddressRequired = errors.New("transport: address required")
)

// AcceptorConfig configures one listening endpoint.
type AcceptorConfig struct {
	// Network is "unix" or "tcp".
	Network string
	// Address is a socket path for unix, host:port for tcp. Port 0
	// asks the OS to assign one; the bound port is readable via Port.
	Address string
	// Role labels connections accepted here for diagnostics.
	Role string
	// Table is the protocol family's name table.
	Table protocol.NameTable
	// DisconnectTag is the family's disconnect sentinel.
	DisconnectTag int64
	// Handler receives connect and message callbacks.
	Handler MessageHandler
	// Limits guards frame decode; zero value means frame.DefaultLimits.
	Limits frame.Limits
}

// Acceptor owns one bound listener and serves its accept loop. The
// listener is bound at construction so the actual endpoint (including
// an OS-assigned port) is known before the loop starts. An accept
// error never stops the loop: the failed attempt is skipped and the
// acceptor re-arms. All three endpoint kinds follow this one policy.
type Acceptor struct {
	cfg AcceptorConfig
	ln  net.Listener

	connsMu sync.Mutex
	conns   map[*ClientConnection]struct{}
}

// NewAcceptor validates cfg and binds the listening endpoint. For
// unix endpoints a stale socket file left by a previous process is
// removed before binding.
func NewAcceptor(cfg AcceptorConfig) (*Acceptor, error) {
	if strings.TrimSpace(cfg.Role) == "" {
		return nil, ErrRoleRequired
	}
	if cfg.Handler == nil {
		return nil, ErrHandlerRequired
	}
	if strings.TrimSpace(cfg.Address) == "" {
		return nil, ErrAddressRequired
	}
	if cfg.Limits.MaxPayloadBytes == 0 {
		cfg.Limits = frame.DefaultLimits()
	}
	if cfg.Network == "unix" {
		_ = os.Remove(cfg.Address)
	}
	ln, err := net.Listen(cfg.Network, cfg.Address)
	if err != nil {
		return nil, fmt.Errorf("transport: bind %s %s: %w", cfg.Network, cfg.Address, err)
	}
	return &Acceptor{
		cfg:   cfg,
		ln:    ln,
		conns: make(map[*ClientConnection]struct{}),
	}, nil
}

// Role returns the acceptor's diagnostic label.
func (a *Acceptor) Role() string {
	return a.cfg.Role
}

// Addr returns the bound listening endpoint.
func (a *Acceptor) Addr() net.Addr {
	return a.ln.Addr()
}

// Port returns the actual bound TCP port, or 0 for unix endpoints.
func (a *Acceptor) Port() int {
	if tcp, ok := a.ln.Addr().(*net.TCPAddr); ok {
		return tcp.Port
	}
	return 0
}

// Serve runs the accept loop until ctx is done or the listener is
// closed. Each accepted conn is wrapped in a ClientConnection wired
// to the configured handler; the loop immediately re-arms.
func (a *Acceptor) Serve(ctx context.Context) error {
	defer a.ln.Close()
	go func() {
		<-ctx.Done()
		a.closeAllConns()
		_ = a.ln.Close()
	}()

	log.Info().
		Str("role", a.cfg.Role).
		Str("network", a.cfg.Network).
		Str("addr", a.ln.Addr().String()).
		Msg("transport: acceptor listening")

	for {
		conn, err := a.ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			observability.RecordAcceptError(a.cfg.Role)
			log.Warn().
				Str("role", a.cfg.Role).
				Err(err).
				Msg("transport: accept failed")
			continue
		}
		newClientConnection(
			a.cfg.Handler, conn, a.cfg.Role, a.cfg.Table, a.cfg.DisconnectTag,
			a.cfg.Limits, a.trackConn, a.untrackConn,
		)
	}
}

// Close shuts the listener and every live connection.
func (a *Acceptor) Close() error {
	a.closeAllConns()
	return a.ln.Close()
}

func (a *Acceptor) trackConn(c *ClientConnection) {
	a.connsMu.Lock()
	defer a.connsMu.Unlock()
	a.conns[c] = struct{}{}
}

func (a *Acceptor) untrackConn(c *ClientConnection) {
	a.connsMu.Lock()
	defer a.connsMu.Unlock()
	delete(a.conns, c)
}

func (a *Acceptor) closeAllConns() {
	a.connsMu.Lock()
	conns := make([]*ClientConnection, 0, len(a.conns))
	for c := range a.conns {
		conns = append(conns, c)
	}
	a.connsMu.Unlock()
	for _, c := range conns {
		_ = c.Close()
	}
}
