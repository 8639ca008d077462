// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bankrpc.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
endpoint: https://gw.bank.example
transport: GRPCWEB
format: text
timeout: 5s
metadata:
  x-client: bankctl
rate_limit:
  rps: 10
  burst: 0
log:
  level: debug
  format: json
  outputs: [stdout]
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Endpoint != "https://gw.bank.example" {
		t.Errorf("Endpoint = %q", cfg.Endpoint)
	}
	if cfg.Transport != "grpcweb" || cfg.Format != "text" {
		t.Errorf("Transport = %q, Format = %q", cfg.Transport, cfg.Format)
	}
	if cfg.Timeout != 5*time.Second {
		t.Errorf("Timeout = %s", cfg.Timeout)
	}
	if cfg.Metadata["x-client"] != "bankctl" {
		t.Errorf("Metadata = %v", cfg.Metadata)
	}
	if cfg.RateLimit.RPS != 10 || cfg.RateLimit.Burst != 1 {
		t.Errorf("RateLimit = %+v", cfg.RateLimit)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" || len(cfg.Log.Outputs) != 1 || cfg.Log.Outputs[0] != "stdout" {
		t.Errorf("Log = %+v", cfg.Log)
	}
	if cfg.Discovery.Service != "bank-gateway" {
		t.Errorf("default discovery service lost: %q", cfg.Discovery.Service)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())
	t.Setenv("BANKRPC_CONFIG", "")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	def := Default()
	if cfg.Endpoint != def.Endpoint || cfg.Transport != def.Transport || cfg.Timeout != def.Timeout {
		t.Fatalf("cfg = %+v", cfg)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	path := writeConfig(t, "transport: grpcweb\nlog:\n  level: info\n")
	t.Setenv("BANKRPC_TRANSPORT", "json")
	t.Setenv("BANKRPC_LOG_LEVEL", "warn")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Transport != "json" || cfg.Log.Level != "warn" {
		t.Fatalf("Transport = %q, Log.Level = %q", cfg.Transport, cfg.Log.Level)
	}
}

func TestLoadConfigEnvPath(t *testing.T) {
	path := writeConfig(t, "endpoint: http://from-env:9000\n")
	t.Setenv("BANKRPC_CONFIG", path)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Endpoint != "http://from-env:9000" {
		t.Fatalf("Endpoint = %q", cfg.Endpoint)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := map[string]string{
		"transport":       "transport: zap\n",
		"text over grpc":  "transport: grpc\nformat: text\n",
		"format":          "format: xml\n",
		"endpoint":        "endpoint: not a url\n",
		"negative rps":    "rate_limit:\n  rps: -1\n",
		"log level":       "log:\n  level: loud\n",
		"negative period": "timeout: -1s\n",
		"malformed yaml":  "endpoint: [\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, body)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestValidateDiscoveryWithoutEndpoint(t *testing.T) {
	cfg := Default()
	cfg.Endpoint = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error without endpoint or discovery")
	}
	cfg.Discovery.Etcd = []string{"127.0.0.1:2379"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate with discovery: %v", err)
	}
}
