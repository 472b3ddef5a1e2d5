package objectmanager

import (
	"net"
	"testing"
	"time"

	"github.com/danmuck/nodelet/internal/protocol"
	"github.com/danmuck/nodelet/internal/protocol/frame"
	"github.com/danmuck/nodelet/internal/testutil/testlog"
	"github.com/danmuck/nodelet/internal/transport"
)

type noopHandler struct{}

func (noopHandler) HandleConnect(*transport.ClientConnection)                {}
func (noopHandler) HandleMessage(*transport.ClientConnection, int64, []byte) {}

func TestClientBookkeeping(t *testing.T) {
	testlog.Start(t)
	table, err := protocol.ObjectManagerTable()
	if err != nil {
		t.Fatalf("table: %v", err)
	}
	server, peer := net.Pipe()
	c := transport.NewClientConnection(noopHandler{}, server, "object manager", table, protocol.ObjectDisconnectClient)
	t.Cleanup(func() {
		_ = c.Close()
		_ = peer.Close()
	})

	m := NewManager()
	if got := m.ClientCount(); got != 0 {
		t.Fatalf("initial count=%d", got)
	}
	m.ProcessNewClient(c)
	if got := m.ClientCount(); got != 1 {
		t.Fatalf("count after connect=%d", got)
	}
	m.ProcessClientMessage(c, protocol.ObjectPushRequest, []byte("chunk"))

	// Teardown must release the registration.
	if err := frame.WriteMessage(peer, frame.Message{Type: protocol.ObjectDisconnectClient}, frame.DefaultLimits()); err != nil {
		t.Fatalf("write sentinel: %v", err)
	}
	<-c.Done()
	deadline := time.Now().Add(3 * time.Second)
	for m.ClientCount() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("torn-down client still registered: count=%d", m.ClientCount())
		}
		time.Sleep(5 * time.Millisecond)
	}
}
