package nodelet

import (
	"errors"
	"testing"
	"time"

	"github.com/danmuck/nodelet/internal/testutil/testlog"
)

func TestConfigWithDefaults(t *testing.T) {
	testlog.Start(t)
	cfg := Config{SocketPath: "/tmp/x.sock"}.WithDefaults()
	if cfg.NodeAddress != "127.0.0.1" {
		t.Fatalf("node address default %q", cfg.NodeAddress)
	}
	if cfg.TickPeriod != 100*time.Millisecond {
		t.Fatalf("tick period default %v", cfg.TickPeriod)
	}

	cfg = Config{SocketPath: "/tmp/x.sock", NodeAddress: "10.0.0.5", TickPeriod: time.Second}.WithDefaults()
	if cfg.NodeAddress != "10.0.0.5" || cfg.TickPeriod != time.Second {
		t.Fatalf("defaults clobbered explicit values: %+v", cfg)
	}
}

func TestConfigValidate(t *testing.T) {
	testlog.Start(t)
	cases := []struct {
		name string
		cfg  Config
		want error
	}{
		{
			name: "missing socket path",
			cfg:  Config{NodeAddress: "127.0.0.1"},
			want: ErrSocketPathRequired,
		},
		{
			name: "missing node address",
			cfg:  Config{SocketPath: "/tmp/x.sock"},
			want: ErrNodeAddressRequired,
		},
		{
			name: "resource without label",
			cfg:  Config{SocketPath: "/tmp/x.sock", NodeAddress: "127.0.0.1", Resources: []Resource{{Capacity: 1}}},
			want: ErrInvalidResource,
		},
		{
			name: "negative capacity",
			cfg:  Config{SocketPath: "/tmp/x.sock", NodeAddress: "127.0.0.1", Resources: []Resource{{Label: "CPU", Capacity: -1}}},
			want: ErrInvalidResource,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.cfg.Validate(); !errors.Is(err, tc.want) {
				t.Fatalf("got %v want %v", err, tc.want)
			}
		})
	}

	good := Config{
		SocketPath:  "/tmp/x.sock",
		NodeAddress: "127.0.0.1",
		Resources:   []Resource{{Label: "CPU", Capacity: 4}, {Label: "GPU", Capacity: 0}},
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
}
