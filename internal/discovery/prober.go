package discovery

import (
	"context"
	"net/netip"

	"github.com/muurk/printlink/internal/transport"
)

// Prober checks whether a printer answers at addr. A nil error means an
// HTTP response arrived, whatever its status.
type Prober interface {
	Probe(ctx context.Context, addr netip.Addr) error
}

// HTTPProber probes with HEAD https://addr/find_printer.
type HTTPProber struct {
	sender *transport.Sender
	port   int
	path   string
}

// NewHTTPProber creates a prober that sends through sender.
func NewHTTPProber(sender *transport.Sender, port int, path string) *HTTPProber {
	if path == "" {
		path = DefaultProbePath
	}
	return &HTTPProber{sender: sender, port: port, path: path}
}

// Probe implements Prober.
func (p *HTTPProber) Probe(ctx context.Context, addr netip.Addr) error {
	return p.sender.Head(ctx, hostPort(addr, p.port), p.path)
}
