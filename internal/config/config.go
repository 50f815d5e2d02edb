// Package config holds the environment-sourced daemon configuration.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// NetworkName is the managed internal bridge network.
	NetworkName = "dragonify-apps"

	// ProjectPrefix marks compose projects whose containers we manage.
	ProjectPrefix = "ix-"

	// DNSZone is the suffix appended to every derived container DNS name.
	DNSZone = "svc.cluster.local"

	// DefaultHostGatewayAlias is used when no alias list is configured.
	DefaultHostGatewayAlias = "host-gateway." + DNSZone
)

// HostGatewayConfig controls /etc/hosts alias injection into containers.
type HostGatewayConfig struct {
	Enabled bool     `yaml:"enabled"`
	Aliases []string `yaml:"aliases"`

	// GatewayIP is resolved from the managed network once at startup and
	// stays constant for the process lifetime. Empty means unresolved.
	GatewayIP string `yaml:"-"`
}

// Config is the full daemon configuration.
type Config struct {
	NetworkName string            `yaml:"network_name"`
	HostGateway HostGatewayConfig `yaml:"host_gateway"`
	LogLevel    string            `yaml:"log_level"`
}

// fileConfig mirrors Config for the optional YAML overlay. Pointer fields
// distinguish "absent" from zero values so the environment keeps precedence.
type fileConfig struct {
	NetworkName *string `yaml:"network_name"`
	HostGateway struct {
		Enabled *bool    `yaml:"enabled"`
		Aliases []string `yaml:"aliases"`
	} `yaml:"host_gateway"`
	LogLevel *string `yaml:"log_level"`
}

// Load builds the configuration from the optional YAML overlay plus the
// environment. Environment variables always win over the file.
func Load() (*Config, error) {
	cfg := &Config{
		NetworkName: NetworkName,
		HostGateway: HostGatewayConfig{
			Enabled: true,
			Aliases: []string{DefaultHostGatewayAlias},
		},
	}

	if path := configFilePath(); path != "" {
		if err := applyFile(cfg, path); err != nil {
			return nil, err
		}
	}

	// Only the literal "false" disables the feature; anything else,
	// including absence, leaves it enabled.
	if v, ok := os.LookupEnv("DRAGONIFY_HOST_GATEWAY"); ok {
		cfg.HostGateway.Enabled = v != "false"
	}
	if v, ok := os.LookupEnv("DRAGONIFY_HOST_GATEWAY_ALIASES"); ok {
		cfg.HostGateway.Aliases = ParseHostGatewayAliases(v)
	}
	if v, ok := os.LookupEnv("DRAGONIFY_LOG_LEVEL"); ok {
		cfg.LogLevel = v
	}

	return cfg, nil
}

func configFilePath() string {
	if path := os.Getenv("DRAGONIFY_CONFIG"); path != "" {
		return path
	}
	if _, err := os.Stat("dragonify.yaml"); err == nil {
		return "dragonify.yaml"
	}
	return ""
}

func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if fc.NetworkName != nil && *fc.NetworkName != "" {
		cfg.NetworkName = *fc.NetworkName
	}
	if fc.HostGateway.Enabled != nil {
		cfg.HostGateway.Enabled = *fc.HostGateway.Enabled
	}
	if len(fc.HostGateway.Aliases) > 0 {
		cfg.HostGateway.Aliases = fc.HostGateway.Aliases
	}
	if fc.LogLevel != nil {
		cfg.LogLevel = *fc.LogLevel
	}

	return nil
}

// ParseHostGatewayAliases splits a comma or whitespace delimited alias list.
// An empty input yields the single built-in default alias.
func ParseHostGatewayAliases(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
	if len(fields) == 0 {
		return []string{DefaultHostGatewayAlias}
	}
	return fields
}
