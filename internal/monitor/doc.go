// Package monitor is a live terminal dashboard for the printer.
//
// Every refresh interval the model asks the router which transport is
// active and, when one is, fetches print status and temperatures through the
// printer client. While the LAN probe is scanning a spinner shows how many
// probes are still pending. Keys: p pauses or resumes the print, r drops
// the locked address and starts a new scan, q quits.
package monitor
