package discovery

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/grandcat/zeroconf"
	"github.com/muurk/printlink/internal/logging"
	"github.com/muurk/printlink/internal/transport"
	"go.uber.org/zap"
)

const (
	// ServiceType is the mDNS service type printers advertise
	ServiceType = "_https._tcp"

	// ServiceDomain is the mDNS domain (typically "local.")
	ServiceDomain = "local."

	// DefaultScanTimeout is the default timeout for one browse
	DefaultScanTimeout = 5 * time.Second

	// DefaultBrowseInterval is how often MDNSTransport browses while unlocked
	DefaultBrowseInterval = 10 * time.Second

	// DefaultNamePattern matches printer instance names and hostnames
	DefaultNamePattern = `(?i)printer`
)

// Scanner handles mDNS printer discovery
type Scanner struct {
	// Timeout is the maximum time to wait for device discovery
	Timeout time.Duration

	Service string
	Domain  string

	// Pattern filters entries by instance name or hostname
	Pattern *regexp.Regexp
}

// NewScanner creates a new mDNS scanner with default settings
func NewScanner() *Scanner {
	return &Scanner{
		Timeout: DefaultScanTimeout,
		Service: ServiceType,
		Domain:  ServiceDomain,
		Pattern: regexp.MustCompile(DefaultNamePattern),
	}
}

// ScanForDevices discovers all matching printers until the timeout expires
func (s *Scanner) ScanForDevices(ctx context.Context) ([]*Device, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	collected := make(chan []*Device, 1)

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	go func() {
		var devices []*Device
		seen := make(map[string]bool)
		for {
			select {
			case entry, ok := <-entries:
				if !ok {
					collected <- devices
					return
				}
				device := s.parseServiceEntry(entry)
				if device != nil && !seen[device.Host()] {
					seen[device.Host()] = true
					devices = append(devices, device)
				}
			case <-ctx.Done():
				collected <- devices
				return
			}
		}
	}()

	if err := resolver.Browse(ctx, s.Service, s.Domain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	<-ctx.Done()
	return <-collected, nil
}

// WaitForDevice returns the first matching printer, or an error if none
// appears within the timeout
func (s *Scanner) WaitForDevice(ctx context.Context) (*Device, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	deviceChan := make(chan *Device, 1)

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	go func() {
		for {
			select {
			case entry, ok := <-entries:
				if !ok {
					return
				}
				if device := s.parseServiceEntry(entry); device != nil {
					deviceChan <- device
					cancel()
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	if err := resolver.Browse(ctx, s.Service, s.Domain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	select {
	case device := <-deviceChan:
		return device, nil
	case <-ctx.Done():
		// The finder may have won the race with cancel
		select {
		case device := <-deviceChan:
			return device, nil
		default:
		}
		return nil, fmt.Errorf("no printer advertised %s within %s", s.Service, s.Timeout)
	}
}

// parseServiceEntry converts a zeroconf service entry to a Device
// Returns nil if the entry does not look like a printer
func (s *Scanner) parseServiceEntry(entry *zeroconf.ServiceEntry) *Device {
	if entry == nil {
		return nil
	}

	hostname := entry.HostName
	if hostname == "" && entry.Instance == "" {
		return nil
	}

	if s.Pattern != nil && !s.Pattern.MatchString(entry.Instance) && !s.Pattern.MatchString(hostname) {
		return nil
	}

	// Get IP address (prefer IPv4)
	var ip string
	if len(entry.AddrIPv4) > 0 {
		ip = entry.AddrIPv4[0].String()
	}

	// Fallback to IPv6 if no IPv4
	if ip == "" && len(entry.AddrIPv6) > 0 {
		ip = entry.AddrIPv6[0].String()
	}

	if ip == "" {
		return nil
	}

	port := entry.Port
	if port == 0 {
		port = DefaultPort
	}

	// TXT records are in "key=value" format
	metadata := make(map[string]string)
	for _, txt := range entry.Text {
		parts := strings.SplitN(txt, "=", 2)
		if len(parts) == 2 {
			metadata[parts[0]] = parts[1]
		} else {
			metadata[parts[0]] = ""
		}
	}

	return &Device{
		Instance:     entry.Instance,
		Hostname:     hostname,
		IP:           ip,
		Port:         port,
		Metadata:     metadata,
		DiscoveredAt: time.Now(),
	}
}

// MDNSConfig controls the mDNS transport.
type MDNSConfig struct {
	Service          string
	Domain           string
	NamePattern      string
	BrowseInterval   time.Duration
	BrowseTimeout    time.Duration
	FailureThreshold int
}

// DefaultMDNSConfig returns the default mDNS settings.
func DefaultMDNSConfig() MDNSConfig {
	return MDNSConfig{
		Service:          ServiceType,
		Domain:           ServiceDomain,
		NamePattern:      DefaultNamePattern,
		BrowseInterval:   DefaultBrowseInterval,
		BrowseTimeout:    DefaultScanTimeout,
		FailureThreshold: DefaultFailureThreshold,
	}
}

// MDNSTransport is a transport that finds the printer through its mDNS
// advertisement instead of scanning.
type MDNSTransport struct {
	cfg     MDNSConfig
	scanner *Scanner
	sender  *transport.Sender

	// find is the browse step; tests replace it
	find func(ctx context.Context) (*Device, error)

	mu       sync.Mutex
	device   *Device
	failures int
}

// NewMDNSTransport creates an mDNS transport sending through sender.
func NewMDNSTransport(cfg MDNSConfig, sender *transport.Sender) (*MDNSTransport, error) {
	defaults := DefaultMDNSConfig()
	if cfg.Service == "" {
		cfg.Service = defaults.Service
	}
	if cfg.Domain == "" {
		cfg.Domain = defaults.Domain
	}
	if cfg.NamePattern == "" {
		cfg.NamePattern = defaults.NamePattern
	}
	if cfg.BrowseInterval <= 0 {
		cfg.BrowseInterval = defaults.BrowseInterval
	}
	if cfg.BrowseTimeout <= 0 {
		cfg.BrowseTimeout = defaults.BrowseTimeout
	}

	pattern, err := regexp.Compile(cfg.NamePattern)
	if err != nil {
		return nil, fmt.Errorf("invalid mDNS name pattern: %w", err)
	}

	scanner := &Scanner{
		Timeout: cfg.BrowseTimeout,
		Service: cfg.Service,
		Domain:  cfg.Domain,
		Pattern: pattern,
	}

	return &MDNSTransport{
		cfg:     cfg,
		scanner: scanner,
		sender:  sender,
		find:    scanner.WaitForDevice,
	}, nil
}

// Name implements transport.Transport.
func (m *MDNSTransport) Name() string {
	return "mdns"
}

// Reachable implements transport.Transport.
func (m *MDNSTransport) Reachable() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.device != nil
}

// Device returns the printer currently in use.
func (m *MDNSTransport) Device() (*Device, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.device, m.device != nil
}

// Invalidate forgets the current printer so the next browse looks again.
func (m *MDNSTransport) Invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.device != nil {
		logging.Info("mDNS printer invalidated", zap.String("host", m.device.Host()))
	}
	m.device = nil
	m.failures = 0
}

// Browse runs one browse and adopts the first match.
func (m *MDNSTransport) Browse(ctx context.Context) bool {
	device, err := m.find(ctx)
	if err != nil {
		logging.Debug("mDNS browse found nothing", zap.Error(err))
		return false
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.device = device
	m.failures = 0
	logging.Info("mDNS printer found",
		zap.String("instance", device.Instance),
		zap.String("host", device.Host()),
	)
	return true
}

// Run browses every BrowseInterval while no printer is known, until ctx is done.
func (m *MDNSTransport) Run(ctx context.Context) {
	ticker := time.NewTicker(m.cfg.BrowseInterval)
	defer ticker.Stop()

	if !m.Reachable() {
		m.Browse(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !m.Reachable() {
				m.Browse(ctx)
			}
		}
	}
}

// Send implements transport.Transport.
func (m *MDNSTransport) Send(ctx context.Context, req *transport.Request) (*transport.Response, error) {
	device, ok := m.Device()
	if !ok {
		return nil, transport.ErrUnreachable
	}

	resp, err := m.sender.Send(ctx, device.Host(), req)

	m.mu.Lock()
	if m.device == device {
		switch {
		case err == nil || !transport.CountsAsLinkFailure(err):
			m.failures = 0
		default:
			m.failures++
			if m.cfg.FailureThreshold > 0 && m.failures >= m.cfg.FailureThreshold {
				logging.Info("mDNS printer invalidated",
					zap.String("host", device.Host()),
					zap.Int("failures", m.failures),
				)
				m.device = nil
				m.failures = 0
			}
		}
	}
	m.mu.Unlock()

	if err != nil {
		return nil, err
	}
	resp.Transport = m.Name()
	return resp, nil
}
