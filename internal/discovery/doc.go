// Package discovery finds the printer on the local network.
//
// Two transports live here. Probe scans a range of LAN addresses and locks
// onto the first one that answers; MDNSTransport waits for the printer's
// mDNS advertisement. Both implement transport.Transport and forward
// requests to the address they found.
//
// # Probe Campaigns
//
// A campaign launches one goroutine per candidate address (by default
// 192.168.1.1 through 192.168.1.254), each sending
//
//	HEAD https://<addr>/find_printer
//
// with its own timeout. Any HTTP response counts as found. Run drives two
// tickers: the scan tick starts a campaign when nothing is locked and no
// campaign is in flight, and the poll tick resolves completed probes.
//
//	probe, err := discovery.NewProbe(discovery.DefaultConfig(), prober, sender)
//	if err != nil {
//	    return err
//	}
//	go probe.Run(ctx)
//
// When several probes succeed before the same poll, the TieBreak policy
// picks the winner: first-completed (default) or highest-address. Locking
// cancels the remaining probes. A campaign where every probe fails returns
// the probe to idle and the next scan tick starts over.
//
// # Losing the Printer
//
// After FailureThreshold consecutive link failures (timeouts or connection
// errors) on the locked address, the probe forgets it and scanning resumes.
// Invalidate does the same on demand.
//
// # Network Requirements
//
//   - The scanned range must contain the printer's address
//   - mDNS needs multicast (UDP port 5353) on the local segment
//
// # Thread Safety
//
// Probe and MDNSTransport are safe for concurrent use. Reachable, Send and
// Status may be called from any goroutine while Run is active.
package discovery
