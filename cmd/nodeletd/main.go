package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/danmuck/nodelet/internal/directory"
	"github.com/danmuck/nodelet/internal/logging"
	"github.com/danmuck/nodelet/internal/nodelet"
	"github.com/danmuck/nodelet/internal/nodemanager"
	"github.com/danmuck/nodelet/internal/objectmanager"
	"github.com/danmuck/nodelet/internal/observability"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "nodeletd: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	flags := pflag.NewFlagSet("nodeletd", pflag.ContinueOnError)
	configPath := flags.String("config", "", "path to nodelet TOML config")
	socketPath := flags.String("socket-path", "", "local worker channel path")
	nodeAddress := flags.String("node-address", "", "this node's network address")
	nodeManagerPort := flags.Int("node-manager-port", 0, "node-manager TCP port (0 = assign)")
	objectManagerPort := flags.Int("object-manager-port", 0, "object-manager TCP port (0 = assign)")
	adminAddr := flags.String("admin-addr", "", "admin HTTP listen address")
	if err := flags.Parse(os.Args[1:]); err != nil {
		return err
	}

	logging.ConfigureRuntime()
	observability.InitLogger("nodeletd")

	cfg := nodelet.DefaultConfig()
	if *configPath != "" {
		loaded, err := loadConfig(*configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if flags.Changed("socket-path") {
		cfg.SocketPath = *socketPath
	}
	if flags.Changed("node-address") {
		cfg.NodeAddress = *nodeAddress
	}
	if flags.Changed("node-manager-port") {
		cfg.NodeManagerPort = *nodeManagerPort
	}
	if flags.Changed("object-manager-port") {
		cfg.ObjectManagerPort = *objectManagerPort
	}
	if flags.Changed("admin-addr") {
		cfg.AdminListenAddr = *adminAddr
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	dir, err := buildDirectoryClient(cfg.Directory)
	if err != nil {
		return err
	}

	n, err := nodelet.New(cfg, nodemanager.NewManager(), objectmanager.NewManager(), dir)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return n.Run(ctx)
}

// buildDirectoryClient selects the directory backend: Redis when an
// address is configured, in-process otherwise (single-node runs).
func buildDirectoryClient(cfg nodelet.DirectoryConfig) (directory.Client, error) {
	if cfg.Address == "" {
		return directory.NewMemoryClient(), nil
	}
	return directory.NewRedisClient(directory.RedisConfig{
		Address:    cfg.Address,
		Port:       cfg.Port,
		Credential: cfg.Credential,
	})
}
