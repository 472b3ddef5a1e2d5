package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/danmuck/nodelet/internal/nodelet"
)

type fileConfig struct {
	NodeAddress           string         `toml:"node_address"`
	SocketPath            string         `toml:"socket_path"`
	ObjectStoreSocketPath string         `toml:"object_store_socket_path"`
	NodeManagerPort       int            `toml:"node_manager_port"`
	ObjectManagerPort     int            `toml:"object_manager_port"`
	AdminListenAddr       string         `toml:"admin_listen_addr"`
	AdminCorsOrigins      []string       `toml:"admin_cors_origins"`
	TickPeriod            string         `toml:"tick_period"`
	Directory             fileDirectory  `toml:"directory"`
	Resources             []fileResource `toml:"resources"`
}

type fileDirectory struct {
	Address    string `toml:"address"`
	Port       int    `toml:"port"`
	Credential string `toml:"credential"`
}

type fileResource struct {
	Label    string  `toml:"label"`
	Capacity float64 `toml:"capacity"`
}

func loadConfig(path string) (nodelet.Config, error) {
	cfg := nodelet.DefaultConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return nodelet.Config{}, fmt.Errorf("load nodelet config: %w", err)
	}

	if meta.IsDefined("node_address") {
		if addr := strings.TrimSpace(raw.NodeAddress); addr != "" {
			cfg.NodeAddress = addr
		}
	}
	if meta.IsDefined("socket_path") {
		cfg.SocketPath = strings.TrimSpace(raw.SocketPath)
	}
	if meta.IsDefined("object_store_socket_path") {
		cfg.ObjectStoreSocketPath = strings.TrimSpace(raw.ObjectStoreSocketPath)
	}
	if meta.IsDefined("node_manager_port") {
		cfg.NodeManagerPort = raw.NodeManagerPort
	}
	if meta.IsDefined("object_manager_port") {
		cfg.ObjectManagerPort = raw.ObjectManagerPort
	}
	if meta.IsDefined("admin_listen_addr") {
		cfg.AdminListenAddr = strings.TrimSpace(raw.AdminListenAddr)
	}
	if meta.IsDefined("admin_cors_origins") {
		cfg.AdminCorsOrigins = raw.AdminCorsOrigins
	}
	if meta.IsDefined("tick_period") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.TickPeriod))
		if err != nil {
			return nodelet.Config{}, fmt.Errorf("parse tick_period: %w", err)
		}
		cfg.TickPeriod = d
	}
	if meta.IsDefined("directory") {
		cfg.Directory = nodelet.DirectoryConfig{
			Address:    strings.TrimSpace(raw.Directory.Address),
			Port:       raw.Directory.Port,
			Credential: raw.Directory.Credential,
		}
	}
	if meta.IsDefined("resources") {
		resources := make([]nodelet.Resource, 0, len(raw.Resources))
		for _, r := range raw.Resources {
			resources = append(resources, nodelet.Resource{
				Label:    strings.TrimSpace(r.Label),
				Capacity: r.Capacity,
			})
		}
		cfg.Resources = resources
	}

	// Not validated here: CLI flags may still fill in missing keys.
	// The combined configuration is validated once overrides apply.
	return cfg, nil
}
