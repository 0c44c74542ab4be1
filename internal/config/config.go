package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/muurk/printlink/internal/discovery"
	"github.com/muurk/printlink/internal/relay"
	"github.com/muurk/printlink/internal/transport"
	"gopkg.in/yaml.v3"
)

const (
	appName    = "printlink"
	configFile = "config.yaml"
)

// Transport names accepted in Config.Transports.
const (
	TransportLAN   = "lan"
	TransportMDNS  = "mdns"
	TransportRelay = "relay"
)

// Mutex for thread-safe file operations
var fileMutex sync.Mutex

// GetConfigDir returns the OS-appropriate configuration directory for the application.
// This follows platform conventions:
//   - Linux: $XDG_CONFIG_HOME/printlink or $HOME/.config/printlink
//   - macOS: $HOME/.config/printlink (following XDG convention on macOS)
//   - Windows: %LOCALAPPDATA%\printlink
func GetConfigDir() (string, error) {
	var baseDir string

	switch runtime.GOOS {
	case "windows":
		localAppData := os.Getenv("LOCALAPPDATA")
		if localAppData == "" {
			userProfile := os.Getenv("USERPROFILE")
			if userProfile == "" {
				return "", fmt.Errorf("cannot determine user profile directory (LOCALAPPDATA and USERPROFILE not set)")
			}
			baseDir = filepath.Join(userProfile, "AppData", "Local", appName)
		} else {
			baseDir = filepath.Join(localAppData, appName)
		}

	case "darwin":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		baseDir = filepath.Join(homeDir, ".config", appName)

	default:
		xdgConfigHome := os.Getenv("XDG_CONFIG_HOME")
		if xdgConfigHome != "" {
			baseDir = filepath.Join(xdgConfigHome, appName)
		} else {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("cannot determine home directory: %w", err)
			}
			baseDir = filepath.Join(homeDir, ".config", appName)
		}
	}

	return baseDir, nil
}

// GetConfigPath returns the full path to the configuration file.
func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, configFile), nil
}

// Default returns the built-in configuration.
func Default() *Config {
	probe := discovery.DefaultConfig()
	mdns := discovery.DefaultMDNSConfig()

	return &Config{
		Version:        CurrentVersion,
		Transports:     []string{TransportLAN, TransportMDNS, TransportRelay},
		RequestTimeout: transport.DefaultTimeout,
		Discovery: DiscoveryConfig{
			Enabled:          true,
			Prefix:           probe.Prefix,
			FirstHost:        probe.FirstHost,
			LastHost:         probe.LastHost,
			Port:             probe.Port,
			ProbePath:        probe.ProbePath,
			ScanInterval:     probe.ScanInterval,
			PollInterval:     probe.PollInterval,
			TieBreak:         string(probe.TieBreak),
			FailureThreshold: probe.FailureThreshold,
		},
		MDNS: MDNSConfig{
			Enabled:        false,
			Service:        mdns.Service,
			Domain:         mdns.Domain,
			NamePattern:    mdns.NamePattern,
			BrowseInterval: mdns.BrowseInterval,
			BrowseTimeout:  mdns.BrowseTimeout,
		},
		Relay: RelayConfig{
			Listen:        relay.DefaultListen,
			Path:          relay.DefaultPath,
			RetryDelay:    relay.DefaultRetryDelay,
			MaxRetryDelay: relay.DefaultMaxRetryDelay,
		},
		TLS: TLSConfig{
			InsecureSkipVerify: true,
		},
		Monitor: MonitorConfig{
			Refresh: 2 * time.Second,
		},
	}
}

// Load reads the configuration at path, or at GetConfigPath when path is
// empty. A missing file yields Default. Fields absent from the file keep
// their defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := GetConfigPath()
		if err != nil {
			return nil, fmt.Errorf("failed to get config path: %w", err)
		}
		path = p
	}

	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if cfg.Version != CurrentVersion {
		return nil, fmt.Errorf("unsupported config version: %d (expected %d)", cfg.Version, CurrentVersion)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

// Save writes the configuration to path (GetConfigPath when empty).
// Performs an atomic write to prevent corruption on crash.
func (c *Config) Save(path string) error {
	fileMutex.Lock()
	defer fileMutex.Unlock()

	if path == "" {
		p, err := GetConfigPath()
		if err != nil {
			return fmt.Errorf("failed to get config path: %w", err)
		}
		path = p
	}

	// Create directory with user-only permissions (0700)
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# printlink configuration file
#
# Durations use Go syntax (500ms, 1s, 2m). Transports are tried in the
# order listed under "transports".
#
# Location: ` + path + `

`)
	data = append(header, data...)

	// Write to temporary file first (atomic write)
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temporary config file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to save config file: %w", err)
	}

	return nil
}

// Validate checks the configuration for values no component can run with.
func (c *Config) Validate() error {
	if len(c.Transports) == 0 {
		return fmt.Errorf("transports: at least one transport is required")
	}
	seen := make(map[string]bool)
	for _, name := range c.Transports {
		switch name {
		case TransportLAN, TransportMDNS, TransportRelay:
		default:
			return fmt.Errorf("transports: unknown transport %q", name)
		}
		if seen[name] {
			return fmt.Errorf("transports: %q listed twice", name)
		}
		seen[name] = true
	}

	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive")
	}

	probe := c.ProbeConfig()
	if err := probe.Validate(); err != nil {
		return fmt.Errorf("discovery: %w", err)
	}

	if c.Relay.RetryDelay <= 0 || c.Relay.MaxRetryDelay < c.Relay.RetryDelay {
		return fmt.Errorf("relay: retry_delay must be positive and not exceed max_retry_delay")
	}

	if c.Monitor.Refresh <= 0 {
		return fmt.Errorf("monitor: refresh must be positive")
	}

	return nil
}

// ProbeConfig converts the discovery section for discovery.NewProbe.
func (c *Config) ProbeConfig() discovery.Config {
	d := c.Discovery
	return discovery.Config{
		Prefix:           d.Prefix,
		FirstHost:        d.FirstHost,
		LastHost:         d.LastHost,
		CIDR:             d.CIDR,
		Port:             d.Port,
		ProbePath:        d.ProbePath,
		ScanInterval:     d.ScanInterval,
		ProbeTimeout:     d.ProbeTimeout,
		PollInterval:     d.PollInterval,
		RateLimit:        d.RateLimit,
		TieBreak:         discovery.TieBreak(d.TieBreak),
		FailureThreshold: d.FailureThreshold,
	}
}

// MDNSTransportConfig converts the mdns section for discovery.NewMDNSTransport.
func (c *Config) MDNSTransportConfig() discovery.MDNSConfig {
	m := c.MDNS
	return discovery.MDNSConfig{
		Service:          m.Service,
		Domain:           m.Domain,
		NamePattern:      m.NamePattern,
		BrowseInterval:   m.BrowseInterval,
		BrowseTimeout:    m.BrowseTimeout,
		FailureThreshold: c.Discovery.FailureThreshold,
	}
}

// TLSOptions converts the tls section for transport.NewTLSConfig.
func (c *Config) TLSOptions() transport.TLSOptions {
	return transport.TLSOptions{
		InsecureSkipVerify: c.TLS.InsecureSkipVerify,
		CAFile:             c.TLS.CAFile,
		ServerName:         c.TLS.ServerName,
	}
}

// RelayOptions converts the relay section for relay.NewTransport.
func (c *Config) RelayOptions() relay.Options {
	return relay.Options{
		URL:           c.Relay.URL,
		RetryDelay:    c.Relay.RetryDelay,
		MaxRetryDelay: c.Relay.MaxRetryDelay,
	}
}
