package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"
	"syscall"
)

// ErrUnreachable is returned when no transport can take a request.
var ErrUnreachable = errors.New("printer unreachable")

// ErrResponseTooLarge is wrapped by the decode error returned for an
// oversized response body.
var ErrResponseTooLarge = errors.New("response too large")

// ErrorType represents the category of error that occurred
type ErrorType int

const (
	// ErrTypeUnreachable indicates no transport was reachable
	ErrTypeUnreachable ErrorType = iota
	// ErrTypeTimeout indicates the printer did not answer in time
	ErrTypeTimeout
	// ErrTypeNetwork indicates a connection-level failure
	ErrTypeNetwork
	// ErrTypeDecode indicates a malformed response body
	ErrTypeDecode
	// ErrTypeHTTP indicates a non-2xx status code
	ErrTypeHTTP
)

// NetworkErrorSubtype provides more specific network error classification
type NetworkErrorSubtype int

const (
	NetworkErrorGeneral NetworkErrorSubtype = iota
	NetworkErrorTimeout
	NetworkErrorConnectionRefused
	NetworkErrorDNS
	NetworkErrorHostUnreachable
	NetworkErrorNetworkUnreachable
	NetworkErrorCanceled
)

// String returns a human-readable name for the error type
func (et ErrorType) String() string {
	switch et {
	case ErrTypeUnreachable:
		return "Unreachable"
	case ErrTypeTimeout:
		return "Timeout"
	case ErrTypeNetwork:
		return "Network Error"
	case ErrTypeDecode:
		return "Decode Error"
	case ErrTypeHTTP:
		return "HTTP Error"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// Error is a classified transport failure.
type Error struct {
	Type       ErrorType           // Category of error
	Message    string              // Human-readable error message
	StatusCode int                 // HTTP status code (if applicable)
	Err        error               // Underlying error (if any)
	Subtype    NetworkErrorSubtype // More specific network error type
	Addr       string              // Printer address (for context)
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for error chain inspection
func (e *Error) Unwrap() error {
	return e.Err
}

// Classify analyzes an error returned by net/http and returns a typed error.
// Errors that are already classified are returned unchanged.
func Classify(err error, addr string) *Error {
	if err == nil {
		return nil
	}

	var already *Error
	if errors.As(err, &already) {
		return already
	}

	if errors.Is(err, ErrUnreachable) {
		return &Error{Type: ErrTypeUnreachable, Message: "no reachable transport", Err: err, Addr: addr}
	}

	if errors.Is(err, context.Canceled) {
		return &Error{
			Type:    ErrTypeNetwork,
			Message: "Request canceled",
			Err:     err,
			Subtype: NetworkErrorCanceled,
			Addr:    addr,
		}
	}

	if os.IsTimeout(err) || errors.Is(err, context.DeadlineExceeded) {
		return &Error{
			Type:    ErrTypeTimeout,
			Message: "Request timed out",
			Err:     err,
			Subtype: NetworkErrorTimeout,
			Addr:    addr,
		}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return &Error{
			Type:    ErrTypeNetwork,
			Message: fmt.Sprintf("DNS resolution failed for %s", dnsErr.Name),
			Err:     err,
			Subtype: NetworkErrorDNS,
			Addr:    addr,
		}
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		switch {
		case errors.Is(opErr.Err, syscall.ECONNREFUSED):
			return &Error{
				Type:    ErrTypeNetwork,
				Message: "Printer refused connection",
				Err:     err,
				Subtype: NetworkErrorConnectionRefused,
				Addr:    addr,
			}
		case errors.Is(opErr.Err, syscall.EHOSTUNREACH):
			return &Error{
				Type:    ErrTypeNetwork,
				Message: "Host unreachable",
				Err:     err,
				Subtype: NetworkErrorHostUnreachable,
				Addr:    addr,
			}
		case errors.Is(opErr.Err, syscall.ENETUNREACH):
			return &Error{
				Type:    ErrTypeNetwork,
				Message: "Network unreachable",
				Err:     err,
				Subtype: NetworkErrorNetworkUnreachable,
				Addr:    addr,
			}
		}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		// Recursively classify the underlying error
		return Classify(urlErr.Err, addr)
	}

	return &Error{
		Type:    ErrTypeNetwork,
		Message: "Network error occurred",
		Err:     err,
		Subtype: NetworkErrorGeneral,
		Addr:    addr,
	}
}

// NewHTTPError creates an HTTP-level error
func NewHTTPError(statusCode int, message string) *Error {
	return &Error{
		Type:       ErrTypeHTTP,
		Message:    message,
		StatusCode: statusCode,
	}
}

// NewDecodeError creates a decode error
func NewDecodeError(message string, err error) *Error {
	return &Error{
		Type:    ErrTypeDecode,
		Message: message,
		Err:     err,
	}
}

func typeOf(err error) (ErrorType, bool) {
	if errors.Is(err, ErrUnreachable) {
		return ErrTypeUnreachable, true
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Type, true
	}
	return 0, false
}

// IsUnreachable checks if an error means no transport could take the request
func IsUnreachable(err error) bool {
	t, ok := typeOf(err)
	return ok && t == ErrTypeUnreachable
}

// IsTimeout checks if an error is a timeout
func IsTimeout(err error) bool {
	t, ok := typeOf(err)
	return ok && t == ErrTypeTimeout
}

// IsNetwork checks if an error is a connection-level error (timeouts excluded)
func IsNetwork(err error) bool {
	t, ok := typeOf(err)
	return ok && t == ErrTypeNetwork
}

// IsDecode checks if an error is a decode error
func IsDecode(err error) bool {
	t, ok := typeOf(err)
	return ok && t == ErrTypeDecode
}

// IsHTTP checks if an error is an HTTP status error
func IsHTTP(err error) bool {
	t, ok := typeOf(err)
	return ok && t == ErrTypeHTTP
}

// CountsAsLinkFailure reports whether err says the link itself is broken.
// Caller cancellation does not count.
func CountsAsLinkFailure(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	if e.Type == ErrTypeTimeout {
		return true
	}
	return e.Type == ErrTypeNetwork && e.Subtype != NetworkErrorCanceled
}

// ShortMessage returns a concise, user-friendly error message
func ShortMessage(err error) string {
	if IsUnreachable(err) {
		return "Printer not found - is it powered on and on this network?"
	}

	var e *Error
	if !errors.As(err, &e) {
		return err.Error()
	}

	switch e.Type {
	case ErrTypeTimeout:
		return "Printer not responding (timeout)"
	case ErrTypeNetwork:
		switch e.Subtype {
		case NetworkErrorConnectionRefused:
			return "Printer refused connection"
		case NetworkErrorHostUnreachable:
			return "Printer unreachable - check network connection"
		case NetworkErrorNetworkUnreachable:
			return "Network unreachable - check WiFi connection"
		case NetworkErrorDNS:
			return "Cannot resolve printer hostname"
		case NetworkErrorCanceled:
			return "Request canceled"
		default:
			return "Network error - check connection"
		}
	case ErrTypeHTTP:
		return fmt.Sprintf("Printer error (HTTP %d)", e.StatusCode)
	case ErrTypeDecode:
		return "Failed to parse printer response"
	default:
		return e.Message
	}
}

// Hint returns troubleshooting advice for an error
func Hint(err error) string {
	if IsUnreachable(err) {
		return strings.Join([]string{
			"No transport could reach the printer.",
			"Troubleshooting:",
			"  • Check that the printer is powered on and joined to WiFi",
			"  • Verify the scan subnet in your config matches your LAN",
			"  • Pass --device <ip> to skip discovery",
		}, "\n")
	}

	var e *Error
	if !errors.As(err, &e) {
		return "An unexpected error occurred. Please try again."
	}

	switch e.Type {
	case ErrTypeTimeout:
		return strings.Join([]string{
			"The printer did not respond in time.",
			"Troubleshooting:",
			"  • Try increasing --timeout",
			"  • Move the printer closer to the access point",
		}, "\n")
	case ErrTypeNetwork:
		return strings.Join([]string{
			"Network communication failed.",
			"Troubleshooting:",
			"  • Check your network connection",
			"  • The printer may have changed address; run 'printlink scan'",
		}, "\n")
	case ErrTypeHTTP:
		if e.StatusCode >= 500 {
			return fmt.Sprintf("The printer firmware returned HTTP %d. Try rebooting the printer.", e.StatusCode)
		}
		return fmt.Sprintf("The printer rejected the request (HTTP %d). Check the request parameters.", e.StatusCode)
	case ErrTypeDecode:
		return "The printer answered with an unexpected body. The firmware may be incompatible."
	default:
		return "An error occurred. Please check the error message for details."
	}
}
