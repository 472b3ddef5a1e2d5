package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nodelet.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfigFullFile(t *testing.T) {
	path := writeConfig(t, `
node_address = "10.0.0.5"
socket_path = "/tmp/nodelet.sock"
object_store_socket_path = "/tmp/store.sock"
node_manager_port = 4100
object_manager_port = 4200
admin_listen_addr = ":8080"
admin_cors_origins = ["http://localhost:3000"]
tick_period = "250ms"

[directory]
address = "127.0.0.1"
port = 6379
credential = "secret"

[[resources]]
label = "CPU"
capacity = 4

[[resources]]
label = "GPU"
capacity = 1
`)
	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.NodeAddress != "10.0.0.5" {
		t.Fatalf("node address %q", cfg.NodeAddress)
	}
	if cfg.SocketPath != "/tmp/nodelet.sock" {
		t.Fatalf("socket path %q", cfg.SocketPath)
	}
	if cfg.NodeManagerPort != 4100 || cfg.ObjectManagerPort != 4200 {
		t.Fatalf("ports %d/%d", cfg.NodeManagerPort, cfg.ObjectManagerPort)
	}
	if cfg.TickPeriod != 250*time.Millisecond {
		t.Fatalf("tick period %v", cfg.TickPeriod)
	}
	if cfg.Directory.Address != "127.0.0.1" || cfg.Directory.Port != 6379 || cfg.Directory.Credential != "secret" {
		t.Fatalf("directory %+v", cfg.Directory)
	}
	if len(cfg.Resources) != 2 {
		t.Fatalf("resources %+v", cfg.Resources)
	}
	if cfg.Resources[0].Label != "CPU" || cfg.Resources[0].Capacity != 4 {
		t.Fatalf("resources[0] %+v", cfg.Resources[0])
	}
	if cfg.Resources[1].Label != "GPU" || cfg.Resources[1].Capacity != 1 {
		t.Fatalf("resources[1] %+v", cfg.Resources[1])
	}
}

func TestLoadConfigKeepsDefaultsForUnsetKeys(t *testing.T) {
	path := writeConfig(t, `
socket_path = "/tmp/nodelet.sock"
`)
	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.NodeAddress != "127.0.0.1" {
		t.Fatalf("node address default lost: %q", cfg.NodeAddress)
	}
	if cfg.TickPeriod != 100*time.Millisecond {
		t.Fatalf("tick period default lost: %v", cfg.TickPeriod)
	}
	if cfg.NodeManagerPort != 0 || cfg.ObjectManagerPort != 0 {
		t.Fatalf("ports should default to 0: %d/%d", cfg.NodeManagerPort, cfg.ObjectManagerPort)
	}
}

func TestLoadConfigRejectsBadTickPeriod(t *testing.T) {
	path := writeConfig(t, `
socket_path = "/tmp/nodelet.sock"
tick_period = "not-a-duration"
`)
	if _, err := loadConfig(path); err == nil {
		t.Fatalf("expected parse failure for bad tick_period")
	}
}

// A file may leave required keys to the CLI flags; loading it must not
// fail just because the file alone is incomplete.
func TestLoadConfigAcceptsPartialFile(t *testing.T) {
	path := writeConfig(t, `
node_address = "10.0.0.5"
`)
	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.SocketPath != "" {
		t.Fatalf("socket path %q", cfg.SocketPath)
	}

	cfg.SocketPath = "/tmp/nodelet.sock"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate after override: %v", err)
	}
}
