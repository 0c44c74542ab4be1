package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/muurk/printlink/internal/discovery"
)

func TestGetConfigDir(t *testing.T) {
	configDir, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() error = %v", err)
	}

	if !strings.Contains(configDir, "printlink") {
		t.Errorf("GetConfigDir() = %v, should contain 'printlink'", configDir)
	}
}

func TestGetConfigDir_XDG(t *testing.T) {
	if runtime.GOOS == "windows" || runtime.GOOS == "darwin" {
		t.Skip("XDG_CONFIG_HOME only applies on Linux and other Unix systems")
	}

	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	got, err := GetConfigDir()
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(dir, "printlink"); got != want {
		t.Errorf("GetConfigDir() = %s, want %s", got, want)
	}
}

func TestGetConfigPath(t *testing.T) {
	configPath, err := GetConfigPath()
	if err != nil {
		t.Fatalf("GetConfigPath() error = %v", err)
	}

	if filepath.Base(configPath) != "config.yaml" {
		t.Errorf("GetConfigPath() should end with 'config.yaml', got: %v", configPath)
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() error = %v", err)
	}
	if cfg.Discovery.Prefix != "192.168.1." || cfg.Discovery.FirstHost != 1 || cfg.Discovery.LastHost != 254 {
		t.Errorf("unexpected default range %s%d..%d", cfg.Discovery.Prefix, cfg.Discovery.FirstHost, cfg.Discovery.LastHost)
	}
	if cfg.Discovery.ScanInterval != time.Second {
		t.Errorf("ScanInterval = %v, want 1s", cfg.Discovery.ScanInterval)
	}
	if !cfg.TLS.InsecureSkipVerify {
		t.Error("self-signed printer certificates should be accepted by default")
	}
	if cfg.Transports[0] != TransportLAN {
		t.Errorf("first transport = %s, want lan", cfg.Transports[0])
	}
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Version != CurrentVersion {
		t.Errorf("Version = %d", cfg.Version)
	}
}

func TestLoad_PartialOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `version: 1
transports: [relay, lan]
discovery:
  cidr: 10.0.0.0/23
  scan_interval: 2s
  tie_break: highest-address
relay:
  url: wss://relay.example.net/relay
`
	if err := os.WriteFile(path, []byte(data), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if len(cfg.Transports) != 2 || cfg.Transports[0] != TransportRelay {
		t.Errorf("Transports = %v", cfg.Transports)
	}
	if cfg.Discovery.ScanInterval != 2*time.Second {
		t.Errorf("ScanInterval = %v, want 2s", cfg.Discovery.ScanInterval)
	}
	// Untouched keys keep their defaults
	if cfg.Discovery.PollInterval != discovery.DefaultPollInterval {
		t.Errorf("PollInterval = %v, want default", cfg.Discovery.PollInterval)
	}

	probe := cfg.ProbeConfig()
	if probe.CIDR != "10.0.0.0/23" || probe.TieBreak != discovery.TieBreakHighestAddress {
		t.Errorf("ProbeConfig() = %+v", probe)
	}
	if cfg.RelayOptions().URL != "wss://relay.example.net/relay" {
		t.Errorf("RelayOptions().URL = %s", cfg.RelayOptions().URL)
	}
}

func TestLoad_Rejects(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"bad yaml", "version: [1"},
		{"wrong version", "version: 2"},
		{"unknown transport", "version: 1\ntransports: [bluetooth]"},
		{"duplicate transport", "version: 1\ntransports: [lan, lan]"},
		{"bad tie-break", "version: 1\ndiscovery:\n  tie_break: coin-flip"},
		{"bad duration", "version: 1\ndiscovery:\n  scan_interval: soon"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tt.data), 0600); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(path); err == nil {
				t.Error("Load() should fail")
			}
		})
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.Discovery.CIDR = "172.16.4.0/24"
	cfg.Discovery.ProbeTimeout = 750 * time.Millisecond
	seen := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	cfg.RememberPrinter("172.16.4.20", "lan", seen)

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temporary file left behind")
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(raw), "probe_timeout: 750ms") {
		t.Errorf("durations should be written in Go syntax:\n%s", raw)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Discovery.CIDR != "172.16.4.0/24" {
		t.Errorf("CIDR = %s", loaded.Discovery.CIDR)
	}
	if loaded.Printer == nil || loaded.Printer.LastAddr != "172.16.4.20" || !loaded.Printer.LastSeen.Equal(seen) {
		t.Errorf("Printer = %+v", loaded.Printer)
	}
}

func TestTLSOptions(t *testing.T) {
	cfg := Default()
	cfg.TLS.CAFile = "/etc/printlink/ca.pem"

	opts := cfg.TLSOptions()
	if opts.CAFile != "/etc/printlink/ca.pem" || !opts.InsecureSkipVerify {
		t.Errorf("TLSOptions() = %+v", opts)
	}
}
