package discovery

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// Device is a printer found through mDNS.
type Device struct {
	// Instance is the advertised service instance name (e.g., "Printer 3F2A")
	Instance string

	// Hostname is the mDNS hostname (e.g., "printer-3f2a.local.")
	Hostname string

	// IP is the IPv4 address when advertised, otherwise IPv6
	IP string

	// Port is the HTTPS port
	Port int

	// Metadata contains the mDNS TXT record data
	Metadata map[string]string

	// DiscoveredAt is when the device was discovered
	DiscoveredAt time.Time
}

// String returns a human-readable string representation of the device
func (d *Device) String() string {
	return fmt.Sprintf("%s (%s) at %s", d.Instance, d.Hostname, d.Host())
}

// Host returns the host[:port] used in request URLs. The default HTTPS
// port is omitted.
func (d *Device) Host() string {
	if d.Port == 0 || d.Port == DefaultPort {
		if ip := net.ParseIP(d.IP); ip != nil && ip.To4() == nil {
			return "[" + d.IP + "]"
		}
		return d.IP
	}
	return net.JoinHostPort(d.IP, strconv.Itoa(d.Port))
}

// BaseURL returns the HTTPS base URL for the device
func (d *Device) BaseURL() string {
	return "https://" + d.Host()
}

// GetMetadata retrieves a metadata value by key, or returns empty string if not found
func (d *Device) GetMetadata(key string) string {
	if d.Metadata == nil {
		return ""
	}
	return d.Metadata[key]
}
