// Package config loads a node's deployment configuration: its address,
// registered links, static routes, and logging setup, from YAML.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/dogukanarat/danp/log"
)

// LinkConfig describes one link driver to bring up at startup.
type LinkConfig struct {
	Name string `yaml:"name"`
	Kind string `yaml:"kind"` // "loopback", "websocket", "quic"
	Addr string `yaml:"addr,omitempty"`
}

// Config is a single node's static deployment description.
type Config struct {
	// Node is this node's address in the flat 0-255 address space.
	Node uint16 `yaml:"node"`
	// LogLevel names a level accepted by log.ParseLevel ("trace".."fatal").
	LogLevel string `yaml:"log_level"`
	// Links lists the interfaces to register at startup.
	Links []LinkConfig `yaml:"links"`
	// Routes is fed verbatim to route.Table.Load: "<node>:<iface>" entries.
	Routes string `yaml:"routes"`
}

// Load reads and parses a YAML deployment config from path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("danp: read config %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("danp: parse config %s: %w", path, err)
	}
	if cfg.Node == 0 {
		return nil, fmt.Errorf("danp: config %s: node address 0 is reserved", path)
	}
	return &cfg, nil
}

// ApplyLogLevel sets the default logger's level from cfg.LogLevel, leaving
// it unchanged if the field is empty or unrecognized.
func (c *Config) ApplyLogLevel() {
	if c.LogLevel == "" {
		return
	}
	lvl, err := log.ParseLevel(strings.ToUpper(c.LogLevel))
	if err != nil {
		log.Warn("unrecognized log level in config, keeping default", "level", c.LogLevel)
		return
	}
	log.Default().SetLevel(lvl)
}
