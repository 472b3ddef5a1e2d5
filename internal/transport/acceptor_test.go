package transport

import (
	"context"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/danmuck/nodelet/internal/protocol"
	"github.com/danmuck/nodelet/internal/testutil/testlog"
)

func TestNewAcceptorValidatesConfig(t *testing.T) {
	testlog.Start(t)
	table := nodeTable(t)
	cases := []struct {
		name string
		cfg  AcceptorConfig
		want error
	}{
		{
			name: "missing role",
			cfg:  AcceptorConfig{Network: "tcp", Address: "127.0.0.1:0", Handler: newRecordingHandler(), Table: table},
			want: ErrRoleRequired,
		},
		{
			name: "missing handler",
			cfg:  AcceptorConfig{Network: "tcp", Address: "127.0.0.1:0", Role: "worker", Table: table},
			want: ErrHandlerRequired,
		},
		{
			name: "missing address",
			cfg:  AcceptorConfig{Network: "tcp", Role: "worker", Handler: newRecordingHandler(), Table: table},
			want: ErrAddressRequired,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewAcceptor(tc.cfg); err != tc.want {
				t.Fatalf("got %v want %v", err, tc.want)
			}
		})
	}
}

func TestTCPAcceptorBindsAssignedPort(t *testing.T) {
	testlog.Start(t)
	a, err := NewAcceptor(AcceptorConfig{
		Network:       "tcp",
		Address:       "127.0.0.1:0",
		Role:          "node manager",
		Table:         nodeTable(t),
		DisconnectTag: protocol.NodeDisconnectClient,
		Handler:       newRecordingHandler(),
	})
	if err != nil {
		t.Fatalf("new acceptor: %v", err)
	}
	defer a.Close()
	if a.Port() == 0 {
		t.Fatalf("expected OS-assigned port, got 0")
	}
}

func TestAcceptorServesSequentialConnections(t *testing.T) {
	testlog.Start(t)
	handler := newRecordingHandler()
	a, err := NewAcceptor(AcceptorConfig{
		Network:       "tcp",
		Address:       "127.0.0.1:0",
		Role:          "node manager",
		Table:         nodeTable(t),
		DisconnectTag: protocol.NodeDisconnectClient,
		Handler:       handler,
	})
	if err != nil {
		t.Fatalf("new acceptor: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	served := make(chan error, 1)
	go func() { served <- a.Serve(ctx) }()

	addr := a.Addr().String()
	for i := 0; i < 3; i++ {
		conn, err := net.Dial("tcp", addr)
		if err != nil {
			t.Fatalf("dial %d: %v", i, err)
		}
		handler.waitEvents(t, 1) // connect
		writePeerMessage(t, conn, protocol.NodeSubmitTask, []byte("payload"))
		handler.waitEvents(t, 1) // message
		_ = conn.Close()
	}

	events := handler.snapshot()
	connects, messages := 0, 0
	for _, e := range events {
		switch e.kind {
		case "connect":
			connects++
		case "message":
			messages++
		}
	}
	if connects != 3 || messages != 3 {
		t.Fatalf("connects=%d messages=%d", connects, messages)
	}

	cancel()
	select {
	case err := <-served:
		if err != nil {
			t.Fatalf("serve returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("serve did not stop on ctx cancel")
	}
}

func TestUnixAcceptorServesChannelPath(t *testing.T) {
	testlog.Start(t)
	socketPath := filepath.Join(t.TempDir(), "nodelet.sock")
	handler := newRecordingHandler()
	a, err := NewAcceptor(AcceptorConfig{
		Network:       "unix",
		Address:       socketPath,
		Role:          "worker",
		Table:         nodeTable(t),
		DisconnectTag: protocol.NodeDisconnectClient,
		Handler:       handler,
	})
	if err != nil {
		t.Fatalf("new acceptor: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = a.Serve(ctx) }()

	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		t.Fatalf("dial unix: %v", err)
	}
	defer conn.Close()
	handler.waitEvents(t, 1) // connect

	writePeerMessage(t, conn, protocol.NodeGetTask, nil)
	handler.waitEvents(t, 1) // message

	events := handler.snapshot()
	if events[0].kind != "connect" {
		t.Fatalf("first event must be connect, got %+v", events[0])
	}
	if events[1].tag != protocol.NodeGetTask {
		t.Fatalf("unexpected tag %d", events[1].tag)
	}
}

func TestAcceptorClosesLiveConnsOnShutdown(t *testing.T) {
	testlog.Start(t)
	handler := newRecordingHandler()
	a, err := NewAcceptor(AcceptorConfig{
		Network:       "tcp",
		Address:       "127.0.0.1:0",
		Role:          "object manager",
		Table:         nodeTable(t),
		DisconnectTag: protocol.ObjectDisconnectClient,
		Handler:       handler,
	})
	if err != nil {
		t.Fatalf("new acceptor: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	served := make(chan error, 1)
	go func() { served <- a.Serve(ctx) }()

	conn, err := net.Dial("tcp", a.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	handler.waitEvents(t, 1) // connect

	cancel()
	<-served

	// The peer observes the close as EOF on its next read.
	buf := make([]byte, 1)
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, err := conn.Read(buf); err == nil {
		t.Fatalf("expected closed connection")
	}
}
