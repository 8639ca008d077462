// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package config provides YAML-based configuration loading for bankrpc
// clients.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the root client configuration.
type Config struct {
	// Endpoint is the base URL of the RPC gateway, e.g. http://localhost:8080
	Endpoint string `mapstructure:"endpoint"`

	// Transport: grpcweb, grpc or json
	Transport string `mapstructure:"transport"`

	// Format: binary or text (grpc-web only)
	Format string `mapstructure:"format"`

	// Timeout bounds each unary call
	Timeout time.Duration `mapstructure:"timeout"`

	// Metadata is attached to every call
	Metadata map[string]string `mapstructure:"metadata"`

	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Discovery DiscoveryConfig `mapstructure:"discovery"`
	Log       LogConfig       `mapstructure:"log"`
}

// RateLimitConfig enables the client-side limiter when RPS > 0.
type RateLimitConfig struct {
	RPS   float64 `mapstructure:"rps"`
	Burst int     `mapstructure:"burst"`
}

// DiscoveryConfig resolves Endpoint from etcd when Etcd is non-empty.
type DiscoveryConfig struct {
	Etcd    []string `mapstructure:"etcd"`
	Service string   `mapstructure:"service"`
}

// LogConfig defines logger settings.
type LogConfig struct {
	// Level: debug, info, warn, error
	Level string `mapstructure:"level"`
	// Format: console or json
	Format string `mapstructure:"format"`
	// Outputs: list of outputs: stdout, stderr, or file paths
	Outputs []string `mapstructure:"outputs"`
	// Development toggles development-friendly logging options
	Development bool `mapstructure:"development"`

	Rotation RotationConfig `mapstructure:"rotation"`
}

// RotationConfig controls log file rotation for file outputs.
type RotationConfig struct {
	Enable     bool `mapstructure:"enable"`
	MaxSizeMB  int  `mapstructure:"max_size_mb"`
	MaxBackups int  `mapstructure:"max_backups"`
	MaxAgeDays int  `mapstructure:"max_age_days"`
	Compress   bool `mapstructure:"compress"`
}

// Default returns a Config populated with sensible defaults.
func Default() *Config {
	return &Config{
		Endpoint:  "http://localhost:8080",
		Transport: "grpcweb",
		Format:    "binary",
		Timeout:   30 * time.Second,
		RateLimit: RateLimitConfig{Burst: 1},
		Discovery: DiscoveryConfig{Service: "bank-gateway"},
		Log: LogConfig{
			Level:   "info",
			Format:  "console",
			Outputs: []string{"stderr"},
			Rotation: RotationConfig{
				MaxSizeMB:  50,
				MaxBackups: 3,
				MaxAgeDays: 28,
			},
		},
	}
}

// Load reads configuration from path (if non-empty), otherwise from
// bankrpc.yaml in the usual locations. Environment variables use the prefix
// BANKRPC with `.` replaced by `_`, e.g. BANKRPC_LOG_LEVEL=debug.
func Load(path string) (*Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("BANKRPC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// seed defaults so env-only configs work
	v.SetDefault("endpoint", cfg.Endpoint)
	v.SetDefault("transport", cfg.Transport)
	v.SetDefault("format", cfg.Format)
	v.SetDefault("timeout", cfg.Timeout)
	v.SetDefault("rate_limit.rps", cfg.RateLimit.RPS)
	v.SetDefault("rate_limit.burst", cfg.RateLimit.Burst)
	v.SetDefault("discovery.etcd", cfg.Discovery.Etcd)
	v.SetDefault("discovery.service", cfg.Discovery.Service)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)
	v.SetDefault("log.outputs", cfg.Log.Outputs)
	v.SetDefault("log.development", cfg.Log.Development)
	v.SetDefault("log.rotation.enable", cfg.Log.Rotation.Enable)
	v.SetDefault("log.rotation.max_size_mb", cfg.Log.Rotation.MaxSizeMB)
	v.SetDefault("log.rotation.max_backups", cfg.Log.Rotation.MaxBackups)
	v.SetDefault("log.rotation.max_age_days", cfg.Log.Rotation.MaxAgeDays)
	v.SetDefault("log.rotation.compress", cfg.Log.Rotation.Compress)

	if path == "" {
		path = os.Getenv("BANKRPC_CONFIG")
	}
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("bankrpc")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".bankrpc"))
		}
	}

	// Read config file if present; if not found, continue with defaults/env
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate normalizes the config and rejects invalid values.
func (c *Config) Validate() error {
	c.Transport = strings.ToLower(strings.TrimSpace(c.Transport))
	switch c.Transport {
	case "grpcweb", "grpc", "json":
	default:
		return fmt.Errorf("invalid transport: %q", c.Transport)
	}

	c.Format = strings.ToLower(strings.TrimSpace(c.Format))
	switch c.Format {
	case "", "binary":
		c.Format = "binary"
	case "text":
		if c.Transport != "grpcweb" {
			return fmt.Errorf("format %q needs transport grpcweb", c.Format)
		}
	default:
		return fmt.Errorf("invalid format: %q", c.Format)
	}

	if len(c.Discovery.Etcd) == 0 {
		u, err := url.Parse(c.Endpoint)
		if err != nil || u.Host == "" {
			return fmt.Errorf("invalid endpoint: %q", c.Endpoint)
		}
	}
	if c.Timeout < 0 {
		return fmt.Errorf("invalid timeout: %s", c.Timeout)
	}
	if c.RateLimit.RPS < 0 {
		return fmt.Errorf("invalid rate_limit.rps: %v", c.RateLimit.RPS)
	}
	if c.RateLimit.RPS > 0 && c.RateLimit.Burst < 1 {
		c.RateLimit.Burst = 1
	}

	switch strings.ToLower(strings.TrimSpace(c.Log.Level)) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid log.level: %q", c.Log.Level)
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
	if len(c.Log.Outputs) == 0 {
		c.Log.Outputs = []string{"stderr"}
	}
	return nil
}
