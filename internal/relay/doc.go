// Package relay carries printer requests over a websocket.
//
// "printlink relay serve" runs next to the printer and exposes its local
// transports at ws://host:8765/relay. A remote printlink registers a relay
// Transport pointing at that URL and routes through it like any other
// transport.
//
// Each request travels as a JSON text message:
//
//	{"id": "6f1c...", "path": "print-status", "method": "GET"}
//
// and is answered by a message with the same id carrying either the
// printer's status, headers and body, or an error and its kind. Bodies are
// base64 encoded by encoding/json.
//
// The client reconnects with exponential backoff and is reachable only
// while connected. Requests in flight when the connection drops fail with
// a network error.
package relay
