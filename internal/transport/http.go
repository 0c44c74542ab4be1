package transport

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	// DefaultTimeout is the default HTTP request timeout
	DefaultTimeout = 10 * time.Second

	// MaxResponseSize caps how much of a response body is read
	MaxResponseSize = 16 << 20
)

// NewHTTPClient returns an HTTP client for talking to the printer.
func NewHTTPClient(tlsConfig *tls.Config, timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			TLSClientConfig:     tlsConfig,
			MaxIdleConnsPerHost: 2,
			IdleConnTimeout:     30 * time.Second,
			TLSHandshakeTimeout: timeout,
		},
		// The printer never redirects; a redirect means something else answered
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// Sender performs HTTP exchanges against a printer host.
type Sender struct {
	Client *http.Client

	// Scheme is "https" unless overridden.
	Scheme string

	// MaxBody caps the response body. Zero means MaxResponseSize.
	MaxBody int64
}

// NewSender creates a Sender using client.
func NewSender(client *http.Client) *Sender {
	return &Sender{Client: client, Scheme: "https"}
}

// URL returns the URL for path on host. host may carry a port.
func (s *Sender) URL(host, path string) string {
	scheme := s.Scheme
	if scheme == "" {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s", scheme, host, path)
}

// Send performs req against host. A response with any status code is a
// success at this level; callers use CheckStatus to reject non-2xx.
func (s *Sender) Send(ctx context.Context, host string, req *Request) (*Response, error) {
	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.EffectiveMethod(), s.URL(host, req.Path()), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for key, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(key, v)
		}
	}
	if len(req.Body) > 0 && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.Client.Do(httpReq)
	if err != nil {
		return nil, Classify(err, host)
	}
	defer func() { _ = resp.Body.Close() }()

	limit := s.MaxBody
	if limit <= 0 {
		limit = MaxResponseSize
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, Classify(err, host)
	}
	if int64(len(data)) > limit {
		tooLarge := NewDecodeError(fmt.Sprintf("response body exceeds %d bytes", limit), ErrResponseTooLarge)
		tooLarge.StatusCode = resp.StatusCode
		tooLarge.Addr = host
		return nil, tooLarge
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       data,
	}, nil
}

// Head sends a HEAD request for path and reports whether any HTTP response
// came back. The status code is not inspected.
func (s *Sender) Head(ctx context.Context, host, path string) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodHead, s.URL(host, path), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.Client.Do(httpReq)
	if err != nil {
		return Classify(err, host)
	}
	_ = resp.Body.Close()
	return nil
}
