package transport

import (
	"context"
	"net/http"

	"github.com/muurk/printlink/internal/request"
)

// Transport is a route to the printer.
type Transport interface {
	// Name identifies the transport in logs and status output.
	Name() string

	// Reachable reports whether Send can be attempted right now. It must not
	// block or perform I/O.
	Reachable() bool

	// Send performs one request and returns the printer's response. It fails
	// fast with ErrUnreachable when the transport is not reachable.
	Send(ctx context.Context, req *Request) (*Response, error)
}

// Request is a semantic printer request.
type Request struct {
	Kind request.Kind

	// Method overrides the method registered for Kind when non-empty.
	Method string

	Body   []byte
	Header http.Header
}

// NewRequest creates a bodiless request for kind.
func NewRequest(kind request.Kind) *Request {
	return &Request{Kind: kind, Header: make(http.Header)}
}

// NewRequestWithBody creates a request carrying body.
func NewRequestWithBody(kind request.Kind, body []byte) *Request {
	return &Request{Kind: kind, Body: body, Header: make(http.Header)}
}

// EffectiveMethod returns Method, falling back to the method registered for Kind.
func (r *Request) EffectiveMethod() string {
	if r.Method != "" {
		return r.Method
	}
	return request.MethodFor(r.Kind)
}

// Path returns the endpoint path for the request, without a leading slash.
func (r *Request) Path() string {
	return request.PathFor(r.Kind)
}

// Response is what the printer answered.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte

	// Transport is the name of the transport that carried the exchange.
	Transport string
}

// OK reports whether the status code is 2xx.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// CheckStatus returns an HTTP error for a non-2xx response.
func CheckStatus(resp *Response) error {
	if resp.OK() {
		return nil
	}
	msg := http.StatusText(resp.StatusCode)
	if len(resp.Body) > 0 && len(resp.Body) <= 256 {
		msg = string(resp.Body)
	}
	return NewHTTPError(resp.StatusCode, msg)
}
