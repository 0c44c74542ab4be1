package discovery

import (
	"math"
	"net/netip"
	"testing"
	"time"
)

func TestCandidates_Prefix(t *testing.T) {
	addrs, err := Candidates(DefaultConfig())
	if err != nil {
		t.Fatalf("Candidates() error = %v", err)
	}

	if len(addrs) != 254 {
		t.Fatalf("len = %d, want 254", len(addrs))
	}
	if addrs[0] != netip.MustParseAddr("192.168.1.1") {
		t.Errorf("first = %v, want 192.168.1.1", addrs[0])
	}
	if addrs[253] != netip.MustParseAddr("192.168.1.254") {
		t.Errorf("last = %v, want 192.168.1.254", addrs[253])
	}
}

func TestCandidates_CIDR(t *testing.T) {
	tests := []struct {
		cidr      string
		wantLen   int
		wantFirst string
		wantLast  string
	}{
		{"10.0.0.0/24", 254, "10.0.0.1", "10.0.0.254"},
		{"10.0.0.0/23", 510, "10.0.0.1", "10.0.1.254"},
		{"10.0.0.77/30", 2, "10.0.0.77", "10.0.0.78"},
	}

	for _, tt := range tests {
		t.Run(tt.cidr, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.CIDR = tt.cidr

			addrs, err := Candidates(cfg)
			if err != nil {
				t.Fatalf("Candidates() error = %v", err)
			}
			if len(addrs) != tt.wantLen {
				t.Fatalf("len = %d, want %d", len(addrs), tt.wantLen)
			}

			seen := make(map[netip.Addr]bool)
			for _, a := range addrs {
				seen[a] = true
			}
			if !seen[netip.MustParseAddr(tt.wantFirst)] || !seen[netip.MustParseAddr(tt.wantLast)] {
				t.Errorf("range misses %s or %s", tt.wantFirst, tt.wantLast)
			}
		})
	}
}

func TestCandidates_RejectsWideCIDR(t *testing.T) {
	for _, cidr := range []string{"10.0.0.0/8", "10.0.0.0/12", "fd00::/64"} {
		t.Run(cidr, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.CIDR = cidr

			addrs, err := Candidates(cfg)
			if err == nil {
				t.Fatalf("Candidates() = %d addresses, want error", len(addrs))
			}
			if _, err := NewProbe(cfg, failingProber{}, nil); err == nil {
				t.Error("NewProbe() should reject the range")
			}
		})
	}
}

func TestLastAddr(t *testing.T) {
	tests := []struct {
		prefix string
		want   string
	}{
		{"192.168.1.0/24", "192.168.1.255"},
		{"10.0.0.0/23", "10.0.1.255"},
		{"10.1.2.3/32", "10.1.2.3"},
	}
	for _, tt := range tests {
		if got := lastAddr(netip.MustParsePrefix(tt.prefix)); got.String() != tt.want {
			t.Errorf("lastAddr(%s) = %v, want %s", tt.prefix, got, tt.want)
		}
	}
}

func TestHostPort(t *testing.T) {
	addr := netip.MustParseAddr("192.168.1.20")

	if got := hostPort(addr, DefaultPort); got != "192.168.1.20" {
		t.Errorf("hostPort(443) = %s", got)
	}
	if got := hostPort(addr, 8443); got != "192.168.1.20:8443" {
		t.Errorf("hostPort(8443) = %s", got)
	}
	if got := hostPort(netip.MustParseAddr("fe80::1"), DefaultPort); got != "[fe80::1]" {
		t.Errorf("hostPort(v6) = %s", got)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"zero scan interval", func(c *Config) { c.ScanInterval = 0 }, true},
		{"zero poll interval", func(c *Config) { c.PollInterval = 0 }, true},
		{"negative timeout", func(c *Config) { c.ProbeTimeout = -time.Second }, true},
		{"bad port", func(c *Config) { c.Port = 70000 }, true},
		{"bad tie-break", func(c *Config) { c.TieBreak = "random" }, true},
		{"bad prefix", func(c *Config) { c.Prefix = "printer." }, true},
		{"bad cidr", func(c *Config) { c.CIDR = "10.0.0.0/99" }, true},
		{"cidr ignores prefix", func(c *Config) { c.CIDR = "10.0.0.0/24"; c.Prefix = "x" }, false},
		{"negative rate", func(c *Config) { c.RateLimit = -1 }, true},
		{"NaN rate", func(c *Config) { c.RateLimit = math.NaN() }, true},
		{"cidr /20", func(c *Config) { c.CIDR = "10.0.0.0/20" }, false},
		{"cidr /8 too wide", func(c *Config) { c.CIDR = "10.0.0.0/8" }, true},
		{"cidr /19 too wide", func(c *Config) { c.CIDR = "10.0.0.0/19" }, true},
		{"ipv6 cidr", func(c *Config) { c.CIDR = "fd00::/64" }, true},
		{"ipv6 /120", func(c *Config) { c.CIDR = "fd00::/120" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_ProbeTimeoutDefaultsToScanInterval(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ScanInterval = 3 * time.Second

	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	if cfg.ProbeTimeout != 3*time.Second {
		t.Errorf("ProbeTimeout = %v, want 3s", cfg.ProbeTimeout)
	}
}

func TestParseTieBreak(t *testing.T) {
	if tb, err := ParseTieBreak(""); err != nil || tb != TieBreakFirstCompleted {
		t.Errorf("ParseTieBreak(\"\") = %v, %v", tb, err)
	}
	if tb, err := ParseTieBreak("highest-address"); err != nil || tb != TieBreakHighestAddress {
		t.Errorf("ParseTieBreak(highest-address) = %v, %v", tb, err)
	}
	if _, err := ParseTieBreak("lowest"); err == nil {
		t.Error("ParseTieBreak(lowest) should fail")
	}
}
