package config

import "time"

// CurrentVersion is the config file format version.
const CurrentVersion = 1

// Config is the printlink configuration file.
type Config struct {
	Version int `yaml:"version"`

	// Transports lists transport names in priority order: lan, mdns, relay.
	Transports []string `yaml:"transports"`

	// RequestTimeout bounds each routed HTTP request.
	RequestTimeout time.Duration `yaml:"request_timeout"`

	Discovery DiscoveryConfig `yaml:"discovery"`
	MDNS      MDNSConfig      `yaml:"mdns"`
	Relay     RelayConfig     `yaml:"relay"`
	TLS       TLSConfig       `yaml:"tls"`
	Monitor   MonitorConfig   `yaml:"monitor"`

	// Printer remembers the last printer found. It is informational only.
	Printer *PrinterMeta `yaml:"printer,omitempty"`
}

// DiscoveryConfig configures the LAN probe.
type DiscoveryConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Prefix    string `yaml:"prefix"`               // e.g. "192.168.1."
	FirstHost int    `yaml:"first_host"`           // first host octet
	LastHost  int    `yaml:"last_host"`            // last host octet
	CIDR      string `yaml:"cidr,omitempty"`       // IPv4, /20 or narrower; replaces prefix/first/last
	Port      int    `yaml:"port"`                 // printer HTTPS port
	ProbePath string `yaml:"probe_path,omitempty"` // endpoint answered by every printer

	ScanInterval time.Duration `yaml:"scan_interval"`
	ProbeTimeout time.Duration `yaml:"probe_timeout,omitempty"` // 0 = scan_interval
	PollInterval time.Duration `yaml:"poll_interval"`

	RateLimit        float64 `yaml:"rate_limit,omitempty"` // probe launches per second, 0 = unlimited
	TieBreak         string  `yaml:"tie_break"`            // first-completed | highest-address
	FailureThreshold int     `yaml:"failure_threshold"`    // 0 = never drop the locked address
}

// MDNSConfig configures mDNS discovery.
type MDNSConfig struct {
	Enabled        bool          `yaml:"enabled"`
	Service        string        `yaml:"service"`
	Domain         string        `yaml:"domain"`
	NamePattern    string        `yaml:"name_pattern"`
	BrowseInterval time.Duration `yaml:"browse_interval"`
	BrowseTimeout  time.Duration `yaml:"browse_timeout"`
}

// RelayConfig configures the websocket relay, both the client transport
// and the "relay serve" side.
type RelayConfig struct {
	URL           string        `yaml:"url,omitempty"` // client: ws(s)://host/relay
	Listen        string        `yaml:"listen"`        // server: listen address
	Path          string        `yaml:"path"`          // server: upgrade path
	RetryDelay    time.Duration `yaml:"retry_delay"`
	MaxRetryDelay time.Duration `yaml:"max_retry_delay"`
}

// TLSConfig controls printer certificate checking.
type TLSConfig struct {
	InsecureSkipVerify bool   `yaml:"insecure_skip_verify"`
	CAFile             string `yaml:"ca_file,omitempty"`
	ServerName         string `yaml:"server_name,omitempty"`
}

// MonitorConfig configures the monitor TUI.
type MonitorConfig struct {
	Refresh time.Duration `yaml:"refresh"`
}

// PrinterMeta is what printlink last learned about the printer.
type PrinterMeta struct {
	Nickname string    `yaml:"nickname,omitempty"`
	LastAddr string    `yaml:"last_addr,omitempty"`
	LastVia  string    `yaml:"last_via,omitempty"` // transport that found it
	LastSeen time.Time `yaml:"last_seen,omitempty"`
}

// RememberPrinter records where the printer was last reached.
func (c *Config) RememberPrinter(addr, via string, at time.Time) {
	if c.Printer == nil {
		c.Printer = &PrinterMeta{}
	}
	c.Printer.LastAddr = addr
	c.Printer.LastVia = via
	c.Printer.LastSeen = at
}
