package discovery

import (
	"fmt"
	"math"
	"net/netip"
	"time"
)

const (
	// DefaultPrefix is the /24 prefix scanned when no CIDR is configured
	DefaultPrefix = "192.168.1."

	// DefaultFirstHost and DefaultLastHost bound the scanned host octet
	DefaultFirstHost = 1
	DefaultLastHost  = 254

	// DefaultPort is the HTTPS port the printer listens on
	DefaultPort = 443

	// DefaultScanInterval is how often a new campaign may start
	DefaultScanInterval = time.Second

	// DefaultPollInterval is how often pending probes are resolved
	DefaultPollInterval = 50 * time.Millisecond

	// DefaultProbePath is the endpoint every printer answers
	DefaultProbePath = "find_printer"

	// DefaultFailureThreshold is how many consecutive link failures unlock an address
	DefaultFailureThreshold = 3

	// MinCIDRBits is the widest IPv4 CIDR a campaign may scan (4094 hosts)
	MinCIDRBits = 20
)

// TieBreak decides which successful probe wins when several complete
// before the same poll.
type TieBreak string

const (
	// TieBreakFirstCompleted picks the probe that completed earliest.
	TieBreakFirstCompleted TieBreak = "first-completed"
	// TieBreakHighestAddress picks the highest completed address.
	TieBreakHighestAddress TieBreak = "highest-address"
)

// ParseTieBreak validates a tie-break policy name. Empty selects the default.
func ParseTieBreak(s string) (TieBreak, error) {
	switch TieBreak(s) {
	case "":
		return TieBreakFirstCompleted, nil
	case TieBreakFirstCompleted, TieBreakHighestAddress:
		return TieBreak(s), nil
	default:
		return "", fmt.Errorf("unknown tie-break policy %q (use %s or %s)",
			s, TieBreakFirstCompleted, TieBreakHighestAddress)
	}
}

// Config controls the LAN probe.
type Config struct {
	// Prefix, FirstHost and LastHost describe the candidate range
	// Prefix+FirstHost .. Prefix+LastHost. Ignored when CIDR is set.
	Prefix    string
	FirstHost int
	LastHost  int

	// CIDR replaces the prefix range, e.g. "10.0.0.0/23".
	CIDR string

	Port      int
	ProbePath string

	ScanInterval time.Duration
	// ProbeTimeout bounds each probe. Zero means ScanInterval.
	ProbeTimeout time.Duration
	PollInterval time.Duration

	// RateLimit caps probe launches per second. Zero is unlimited.
	RateLimit float64

	TieBreak TieBreak

	// FailureThreshold is the number of consecutive link failures after
	// which the locked address is dropped. Zero disables the check.
	FailureThreshold int
}

// DefaultConfig returns the configuration matching the printer firmware defaults.
func DefaultConfig() Config {
	return Config{
		Prefix:           DefaultPrefix,
		FirstHost:        DefaultFirstHost,
		LastHost:         DefaultLastHost,
		Port:             DefaultPort,
		ProbePath:        DefaultProbePath,
		ScanInterval:     DefaultScanInterval,
		PollInterval:     DefaultPollInterval,
		TieBreak:         TieBreakFirstCompleted,
		FailureThreshold: DefaultFailureThreshold,
	}
}

// Validate checks the configuration and fills derived defaults.
func (c *Config) Validate() error {
	if c.ScanInterval <= 0 {
		return fmt.Errorf("scan interval must be positive, got %s", c.ScanInterval)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %s", c.PollInterval)
	}
	if c.ProbeTimeout < 0 {
		return fmt.Errorf("probe timeout must not be negative, got %s", c.ProbeTimeout)
	}
	if c.ProbeTimeout == 0 {
		c.ProbeTimeout = c.ScanInterval
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if c.RateLimit < 0 || math.IsNaN(c.RateLimit) {
		return fmt.Errorf("rate limit must not be negative, got %v", c.RateLimit)
	}
	if c.FailureThreshold < 0 {
		return fmt.Errorf("failure threshold must not be negative, got %d", c.FailureThreshold)
	}

	tb, err := ParseTieBreak(string(c.TieBreak))
	if err != nil {
		return err
	}
	c.TieBreak = tb

	if c.CIDR != "" {
		_, err := parseCIDR(c.CIDR)
		return err
	}

	if c.FirstHost < 0 || c.LastHost > 255 || c.FirstHost > c.LastHost {
		return fmt.Errorf("host range %d..%d is invalid", c.FirstHost, c.LastHost)
	}
	if _, err := netip.ParseAddr(fmt.Sprintf("%s%d", c.Prefix, c.FirstHost)); err != nil {
		return fmt.Errorf("invalid prefix %q: %w", c.Prefix, err)
	}
	return nil
}

// parseCIDR accepts IPv4 prefixes no wider than MinCIDRBits. Every address
// in the prefix gets its own probe per campaign.
func parseCIDR(cidr string) (netip.Prefix, error) {
	prefix, err := netip.ParsePrefix(cidr)
	if err != nil {
		return netip.Prefix{}, fmt.Errorf("invalid CIDR %q: %w", cidr, err)
	}
	if !prefix.Addr().Is4() {
		return netip.Prefix{}, fmt.Errorf("CIDR %q: only IPv4 ranges can be scanned", cidr)
	}
	if prefix.Bits() < MinCIDRBits {
		return netip.Prefix{}, fmt.Errorf("CIDR %q is too wide, use /%d or narrower", cidr, MinCIDRBits)
	}
	return prefix.Masked(), nil
}
