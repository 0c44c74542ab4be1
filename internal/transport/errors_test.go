package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"syscall"
	"testing"
)

type timeoutError struct{}

func (e *timeoutError) Error() string   { return "i/o timeout" }
func (e *timeoutError) Timeout() bool   { return true }
func (e *timeoutError) Temporary() bool { return true }

func TestClassify(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantType    ErrorType
		wantSubtype NetworkErrorSubtype
	}{
		{
			name: "timeout inside url error",
			err: &url.Error{Op: "Head", URL: "https://192.168.1.5/find_printer", Err: &net.OpError{
				Op: "dial", Net: "tcp", Err: &timeoutError{},
			}},
			wantType:    ErrTypeTimeout,
			wantSubtype: NetworkErrorTimeout,
		},
		{
			name:        "context deadline",
			err:         fmt.Errorf("probe: %w", context.DeadlineExceeded),
			wantType:    ErrTypeTimeout,
			wantSubtype: NetworkErrorTimeout,
		},
		{
			name:        "context canceled",
			err:         context.Canceled,
			wantType:    ErrTypeNetwork,
			wantSubtype: NetworkErrorCanceled,
		},
		{
			name: "connection refused",
			err: &url.Error{Op: "Get", URL: "https://192.168.1.5/", Err: &net.OpError{
				Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED,
			}},
			wantType:    ErrTypeNetwork,
			wantSubtype: NetworkErrorConnectionRefused,
		},
		{
			name:        "host unreachable",
			err:         &net.OpError{Op: "dial", Net: "tcp", Err: syscall.EHOSTUNREACH},
			wantType:    ErrTypeNetwork,
			wantSubtype: NetworkErrorHostUnreachable,
		},
		{
			name:        "dns",
			err:         &net.DNSError{Err: "no such host", Name: "printer.local", IsNotFound: true},
			wantType:    ErrTypeNetwork,
			wantSubtype: NetworkErrorDNS,
		},
		{
			name:        "generic",
			err:         errors.New("tls: bad record MAC"),
			wantType:    ErrTypeNetwork,
			wantSubtype: NetworkErrorGeneral,
		},
		{
			name:     "unreachable sentinel",
			err:      ErrUnreachable,
			wantType: ErrTypeUnreachable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.err, "192.168.1.5")
			if got == nil {
				t.Fatal("Classify() = nil")
			}
			if got.Type != tt.wantType {
				t.Errorf("Type = %v, want %v", got.Type, tt.wantType)
			}
			if got.Subtype != tt.wantSubtype {
				t.Errorf("Subtype = %v, want %v", got.Subtype, tt.wantSubtype)
			}
			if got.Addr != "192.168.1.5" {
				t.Errorf("Addr = %q, want 192.168.1.5", got.Addr)
			}
		})
	}
}

func TestClassify_Nil(t *testing.T) {
	if got := Classify(nil, ""); got != nil {
		t.Errorf("Classify(nil) = %v, want nil", got)
	}
}

func TestClassify_KeepsClassified(t *testing.T) {
	orig := NewHTTPError(404, "not found")
	if got := Classify(fmt.Errorf("wrap: %w", orig), "x"); got != orig {
		t.Errorf("Classify() = %v, want original error", got)
	}
}

func TestPredicates(t *testing.T) {
	timeout := &Error{Type: ErrTypeTimeout}
	network := &Error{Type: ErrTypeNetwork}
	canceled := &Error{Type: ErrTypeNetwork, Subtype: NetworkErrorCanceled}
	decode := NewDecodeError("bad", errors.New("eof"))
	httpErr := NewHTTPError(500, "boom")

	tests := []struct {
		name string
		fn   func(error) bool
		err  error
		want bool
	}{
		{"unreachable sentinel", IsUnreachable, ErrUnreachable, true},
		{"unreachable wrapped", IsUnreachable, fmt.Errorf("route: %w", ErrUnreachable), true},
		{"unreachable plain", IsUnreachable, errors.New("x"), false},
		{"timeout", IsTimeout, timeout, true},
		{"timeout is not network", IsNetwork, timeout, false},
		{"network", IsNetwork, network, true},
		{"decode", IsDecode, decode, true},
		{"http", IsHTTP, httpErr, true},
		{"link failure timeout", CountsAsLinkFailure, timeout, true},
		{"link failure network", CountsAsLinkFailure, network, true},
		{"link failure canceled", CountsAsLinkFailure, canceled, false},
		{"link failure http", CountsAsLinkFailure, httpErr, false},
		{"link failure decode", CountsAsLinkFailure, decode, false},
		{"link failure plain", CountsAsLinkFailure, errors.New("x"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.fn(tt.err); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestError_Message(t *testing.T) {
	err := &Error{Type: ErrTypeTimeout, Message: "Request timed out", Err: context.DeadlineExceeded}

	msg := err.Error()
	if !strings.Contains(msg, "Timeout") || !strings.Contains(msg, "deadline exceeded") {
		t.Errorf("Error() = %q", msg)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Error("errors.Is should see the wrapped error")
	}
}

func TestShortMessageAndHint(t *testing.T) {
	errs := []error{
		ErrUnreachable,
		&Error{Type: ErrTypeTimeout},
		&Error{Type: ErrTypeNetwork, Subtype: NetworkErrorConnectionRefused},
		NewHTTPError(503, "busy"),
		NewDecodeError("bad", nil),
	}

	for _, err := range errs {
		if ShortMessage(err) == "" {
			t.Errorf("ShortMessage(%v) is empty", err)
		}
		if Hint(err) == "" {
			t.Errorf("Hint(%v) is empty", err)
		}
	}

	if got := ShortMessage(NewHTTPError(503, "busy")); !strings.Contains(got, "503") {
		t.Errorf("ShortMessage() = %q, want status code", got)
	}
}
