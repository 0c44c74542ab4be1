package relay

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/muurk/printlink/internal/request"
	"github.com/muurk/printlink/internal/transport"
)

// Error kinds carried in ResponseFrame.ErrorKind.
const (
	errKindUnreachable = "unreachable"
	errKindTimeout     = "timeout"
	errKindNetwork     = "network"
	errKindBadRequest  = "bad-request"
)

// RequestFrame is a routed request travelling over the relay.
type RequestFrame struct {
	ID     string      `json:"id"`
	Path   string      `json:"path"`
	Method string      `json:"method,omitempty"`
	Header http.Header `json:"header,omitempty"`
	Body   []byte      `json:"body,omitempty"`
}

// ResponseFrame answers the RequestFrame with the same ID. Either Status
// is set or Error describes why the relay could not get a response.
type ResponseFrame struct {
	ID        string      `json:"id"`
	Status    int         `json:"status,omitempty"`
	Header    http.Header `json:"header,omitempty"`
	Body      []byte      `json:"body,omitempty"`
	Error     string      `json:"error,omitempty"`
	ErrorKind string      `json:"error_kind,omitempty"`
}

// NewRequestFrame wraps req in a frame with a fresh correlation ID.
func NewRequestFrame(req *transport.Request) *RequestFrame {
	return &RequestFrame{
		ID:     uuid.NewString(),
		Path:   req.Path(),
		Method: req.Method,
		Header: req.Header,
		Body:   req.Body,
	}
}

// Request converts the frame back into a routed request.
func (f *RequestFrame) Request() (*transport.Request, error) {
	kind, err := request.ParseKind(f.Path)
	if err != nil {
		return nil, err
	}
	header := f.Header
	if header == nil {
		header = make(http.Header)
	}
	return &transport.Request{
		Kind:   kind,
		Method: f.Method,
		Header: header,
		Body:   f.Body,
	}, nil
}

// responseFrame builds the answer to id from a Route outcome.
func responseFrame(id string, resp *transport.Response, err error) *ResponseFrame {
	if err != nil {
		kind := errKindNetwork
		switch {
		case transport.IsUnreachable(err):
			kind = errKindUnreachable
		case transport.IsTimeout(err):
			kind = errKindTimeout
		}
		return &ResponseFrame{ID: id, Error: err.Error(), ErrorKind: kind}
	}
	return &ResponseFrame{
		ID:     id,
		Status: resp.StatusCode,
		Header: resp.Header,
		Body:   resp.Body,
	}
}

func badRequestFrame(id string, err error) *ResponseFrame {
	return &ResponseFrame{ID: id, Error: err.Error(), ErrorKind: errKindBadRequest}
}

// err turns a failed frame into a transport error.
func (f *ResponseFrame) err() error {
	if f.Error == "" && f.ErrorKind == "" {
		return nil
	}
	msg := fmt.Sprintf("relay: %s", f.Error)
	switch f.ErrorKind {
	case errKindUnreachable:
		return &transport.Error{Type: transport.ErrTypeUnreachable, Message: msg, Err: transport.ErrUnreachable}
	case errKindTimeout:
		return &transport.Error{Type: transport.ErrTypeTimeout, Message: msg}
	case errKindBadRequest:
		return transport.NewHTTPError(http.StatusBadRequest, msg)
	default:
		return &transport.Error{Type: transport.ErrTypeNetwork, Message: msg, Err: errors.New(f.Error)}
	}
}

// Response converts a successful frame.
func (f *ResponseFrame) Response() (*transport.Response, error) {
	if err := f.err(); err != nil {
		return nil, err
	}
	header := f.Header
	if header == nil {
		header = make(http.Header)
	}
	return &transport.Response{
		StatusCode: f.Status,
		Header:     header,
		Body:       f.Body,
	}, nil
}
