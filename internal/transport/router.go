package transport

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/muurk/printlink/internal/logging"
	"go.uber.org/zap"
)

// Router delegates requests to the first reachable transport in
// registration order.
type Router struct {
	mu         sync.RWMutex
	transports []Transport
}

// NewRouter creates a router with transports in priority order.
func NewRouter(transports ...Transport) *Router {
	r := &Router{}
	for _, t := range transports {
		r.Register(t)
	}
	return r
}

// Register appends t. Earlier registrations take priority.
func (r *Router) Register(t Transport) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transports = append(r.transports, t)
}

// Transports returns the registered transports in priority order.
func (r *Router) Transports() []Transport {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Transport, len(r.transports))
	copy(out, r.transports)
	return out
}

// Active returns the transport Route would use right now.
func (r *Router) Active() (Transport, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, t := range r.transports {
		if t.Reachable() {
			return t, true
		}
	}
	return nil, false
}

// WaitActive blocks until a transport is reachable, checking every
// interval, or until ctx is done.
func (r *Router) WaitActive(ctx context.Context, interval time.Duration) (Transport, error) {
	if t, ok := r.Active(); ok {
		return t, nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ErrUnreachable
		case <-ticker.C:
			if t, ok := r.Active(); ok {
				return t, nil
			}
		}
	}
}

// Route sends req through the active transport. It returns ErrUnreachable
// when no transport is reachable. A failure on the active transport is
// returned as is; the next transport is not tried.
func (r *Router) Route(ctx context.Context, req *Request) (*Response, error) {
	t, ok := r.Active()
	if !ok {
		logging.Debug("No reachable transport",
			zap.String("kind", req.Kind.String()),
		)
		return nil, ErrUnreachable
	}

	start := time.Now()
	resp, err := t.Send(ctx, req)
	if err != nil {
		logging.LogRoutedRequest(t.Name(), req.EffectiveMethod(), req.Path(), 0, time.Since(start), err)
		return nil, err
	}

	resp.Transport = t.Name()
	logging.LogRoutedRequest(t.Name(), req.EffectiveMethod(), req.Path(), resp.StatusCode, time.Since(start), nil)
	return resp, nil
}

// RouteJSON routes req and decodes a 2xx JSON body into T. ok is false when
// there was no usable response: nothing reachable, a transport failure, a
// non-2xx status or a body that does not decode.
func RouteJSON[T any](ctx context.Context, r *Router, req *Request) (T, bool) {
	var out T

	resp, err := r.Route(ctx, req)
	if err != nil {
		return out, false
	}

	if err := CheckStatus(resp); err != nil {
		logging.Debug("Non-2xx response",
			zap.String("path", req.Path()),
			zap.Int("status_code", resp.StatusCode),
		)
		return out, false
	}

	if err := json.Unmarshal(resp.Body, &out); err != nil {
		decodeErr := NewDecodeError("response body does not match "+req.Kind.String(), err)
		logging.Warn("Failed to decode response",
			zap.String("transport", resp.Transport),
			zap.String("path", req.Path()),
			zap.Error(decodeErr),
		)
		var zero T
		return zero, false
	}

	return out, true
}
