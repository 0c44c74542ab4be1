// Package transport defines how printlink talks to the printer.
//
// A Transport is anything that can currently reach the printer: the LAN
// discovery probe, the mDNS browser or the websocket relay. The Router holds
// transports in priority order and hands each request to the first one that
// reports itself reachable.
//
// # Basic Usage
//
//	router := transport.NewRouter(probe, relayClient)
//
//	status, ok := transport.RouteJSON[printer.PrintStatus](ctx, router,
//	    transport.NewRequest(request.GetPrintStatus))
//	if !ok {
//	    // nobody reachable, or the printer answered with garbage
//	}
//
// When no transport is reachable, Route returns ErrUnreachable. Callers treat
// that as "no response" and try again on the next refresh.
//
// # Errors
//
// Failures are reported as *Error values carrying an ErrorType:
//
//   - ErrTypeUnreachable: no transport could take the request
//   - ErrTypeTimeout: the printer did not answer in time
//   - ErrTypeNetwork: connection refused, reset, host unreachable
//   - ErrTypeDecode: the response body did not match the expected JSON
//   - ErrTypeHTTP: the printer answered with a non-2xx status
//
// Classify turns errors from net/http into *Error values, and
// CountsAsLinkFailure tells a transport whether a failure should count
// against the address it is locked to.
//
// # Wire Format
//
// Sender performs the actual HTTPS exchange against "https://host/path" where
// path comes from request.PathFor. Printers use self-signed certificates, so
// NewTLSConfig skips verification unless a CA file is configured.
package transport
