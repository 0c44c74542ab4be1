package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"net/netip"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/printlink/internal/config"
	"github.com/muurk/printlink/internal/discovery"
	"github.com/muurk/printlink/internal/logging"
	"github.com/muurk/printlink/internal/printer"
	"github.com/muurk/printlink/internal/relay"
	"github.com/muurk/printlink/internal/transport"
	"github.com/muurk/printlink/internal/version"
)

// waitPoll is how often readiness is checked while waiting for a transport.
const waitPoll = 50 * time.Millisecond

// stackOptions adjusts which transports buildStack creates.
type stackOptions struct {
	// Device pins the LAN probe to a fixed address.
	Device string
	// NoRelay leaves the relay client out, as "relay serve" must.
	NoRelay bool
	// Only restricts the stack to the named transports when non-empty.
	Only []string
}

// stack is every transport built from the configuration, routed in the
// configured order.
type stack struct {
	router *transport.Router
	client *printer.Client

	probe *discovery.Probe
	mdns  *discovery.MDNSTransport
	relay *relay.Transport

	runners []func(ctx context.Context)
}

func buildStack(cfg *config.Config, opts stackOptions) (*stack, error) {
	tlsCfg, err := transport.NewTLSConfig(cfg.TLSOptions())
	if err != nil {
		return nil, err
	}
	sender := transport.NewSender(transport.NewHTTPClient(tlsCfg, cfg.RequestTimeout))

	s := &stack{router: transport.NewRouter()}

	for _, name := range cfg.Transports {
		if !wanted(name, opts.Only) {
			continue
		}

		switch name {
		case config.TransportLAN:
			if !cfg.Discovery.Enabled && opts.Device == "" {
				continue
			}
			if err := s.addProbe(cfg, tlsCfg, sender, opts.Device); err != nil {
				return nil, err
			}

		case config.TransportMDNS:
			if !cfg.MDNS.Enabled {
				continue
			}
			m, err := discovery.NewMDNSTransport(cfg.MDNSTransportConfig(), sender)
			if err != nil {
				return nil, fmt.Errorf("mdns: %w", err)
			}
			s.mdns = m
			s.router.Register(m)
			s.runners = append(s.runners, m.Run)

		case config.TransportRelay:
			if opts.NoRelay || cfg.Relay.URL == "" {
				continue
			}
			relayOpts := cfg.RelayOptions()
			relayOpts.Header = http.Header{"User-Agent": []string{version.UserAgent()}}
			r, err := relay.NewTransport(relayOpts)
			if err != nil {
				return nil, fmt.Errorf("relay: %w", err)
			}
			s.relay = r
			s.router.Register(r)
			s.runners = append(s.runners, r.Run)
		}
	}

	if len(s.router.Transports()) == 0 {
		return nil, fmt.Errorf("no transport enabled: enable discovery, mdns or set relay.url in the config")
	}

	names := make([]string, 0, len(s.router.Transports()))
	for _, t := range s.router.Transports() {
		names = append(names, t.Name())
	}
	logging.Debug("Transports registered", zap.Strings("order", names))

	s.client = printer.NewClient(s.router)
	return s, nil
}

// addProbe creates the LAN probe. Probes get their own client bounded by
// the probe timeout so a silent address never outlives its campaign.
func (s *stack) addProbe(cfg *config.Config, tlsCfg *tls.Config, sender *transport.Sender, device string) error {
	probeCfg := cfg.ProbeConfig()
	if err := probeCfg.Validate(); err != nil {
		return fmt.Errorf("discovery: %w", err)
	}

	probeSender := transport.NewSender(transport.NewHTTPClient(tlsCfg, probeCfg.ProbeTimeout))
	prober := discovery.NewHTTPProber(probeSender, probeCfg.Port, probeCfg.ProbePath)

	p, err := discovery.NewProbe(probeCfg, prober, sender)
	if err != nil {
		return fmt.Errorf("discovery: %w", err)
	}

	if device != "" {
		addr, err := parseDevice(device)
		if err != nil {
			return err
		}
		p.Pin(addr)
	}

	s.probe = p
	s.router.Register(p)
	s.runners = append(s.runners, p.Run)
	return nil
}

func wanted(name string, only []string) bool {
	if len(only) == 0 {
		return true
	}
	for _, o := range only {
		if o == name {
			return true
		}
	}
	return false
}

// start launches every transport's background loop. The returned function
// cancels them and waits for them to stop.
func (s *stack) start(ctx context.Context) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	for _, run := range s.runners {
		wg.Add(1)
		go func(run func(context.Context)) {
			defer wg.Done()
			run(ctx)
		}(run)
	}
	return func() {
		cancel()
		wg.Wait()
	}
}

// waitReady blocks until a transport can reach the printer or timeout passes.
func (s *stack) waitReady(ctx context.Context, timeout time.Duration) (transport.Transport, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return s.router.WaitActive(ctx, waitPoll)
}

// lockedAddr describes where the active transport reaches the printer.
func (s *stack) lockedAddr(active transport.Transport) string {
	switch active.Name() {
	case config.TransportLAN:
		if s.probe != nil {
			if st := s.probe.Status(); st.Addr.IsValid() {
				return st.Addr.String()
			}
		}
	case config.TransportMDNS:
		if s.mdns != nil {
			if d, ok := s.mdns.Device(); ok {
				return d.Host()
			}
		}
	}
	return ""
}

func parseDevice(device string) (netip.Addr, error) {
	addr, err := netip.ParseAddr(device)
	if err != nil {
		return netip.Addr{}, fmt.Errorf("invalid --device %q: expected an IP address", device)
	}
	return addr, nil
}
