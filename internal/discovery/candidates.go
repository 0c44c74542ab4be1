package discovery

import (
	"fmt"
	"net/netip"

	"github.com/projectdiscovery/mapcidr"
)

// Candidates lists the addresses a campaign probes.
func Candidates(cfg Config) ([]netip.Addr, error) {
	if cfg.CIDR != "" {
		return cidrCandidates(cfg.CIDR)
	}

	addrs := make([]netip.Addr, 0, cfg.LastHost-cfg.FirstHost+1)
	for host := cfg.FirstHost; host <= cfg.LastHost; host++ {
		addr, err := netip.ParseAddr(fmt.Sprintf("%s%d", cfg.Prefix, host))
		if err != nil {
			return nil, fmt.Errorf("invalid candidate address: %w", err)
		}
		addrs = append(addrs, addr)
	}
	return addrs, nil
}

// cidrCandidates expands cidr, leaving out the IPv4 network and broadcast
// addresses.
func cidrCandidates(cidr string) ([]netip.Addr, error) {
	prefix, err := parseCIDR(cidr)
	if err != nil {
		return nil, err
	}

	ips, err := mapcidr.IPAddresses(prefix.String())
	if err != nil {
		return nil, fmt.Errorf("failed to expand %s: %w", cidr, err)
	}

	network, broadcast := prefix.Addr(), lastAddr(prefix)
	skipEdges := prefix.Bits() < 31

	addrs := make([]netip.Addr, 0, len(ips))
	for _, ip := range ips {
		addr, err := netip.ParseAddr(ip)
		if err != nil {
			continue
		}
		if skipEdges && (addr == network || addr == broadcast) {
			continue
		}
		addrs = append(addrs, addr)
	}
	return addrs, nil
}

func lastAddr(prefix netip.Prefix) netip.Addr {
	if !prefix.Addr().Is4() {
		return netip.Addr{}
	}
	b := prefix.Addr().As4()
	hostBits := 32 - prefix.Bits()
	v := uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
	if hostBits > 0 {
		v |= (1 << hostBits) - 1
	}
	return netip.AddrFrom4([4]byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)})
}

// hostPort formats addr for a URL, omitting the default HTTPS port.
func hostPort(addr netip.Addr, port int) string {
	if port == 0 || port == DefaultPort {
		if addr.Is6() {
			return "[" + addr.String() + "]"
		}
		return addr.String()
	}
	return netip.AddrPortFrom(addr, uint16(port)).String()
}
