package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/gorilla/websocket"
	"github.com/muurk/printlink/internal/logging"
	"github.com/muurk/printlink/internal/transport"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultRetryDelay is the first reconnect delay
	DefaultRetryDelay = time.Second

	// DefaultMaxRetryDelay caps the exponential reconnect delay
	DefaultMaxRetryDelay = 30 * time.Second

	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum frame size accepted from the peer
	maxMessageSize = 32 << 20
)

var errConnClosed = errors.New("relay connection closed")

// Options configures the relay client transport.
type Options struct {
	// URL is the relay endpoint, ws:// or wss://.
	URL string

	RetryDelay    time.Duration
	MaxRetryDelay time.Duration

	// Header is sent with the websocket handshake.
	Header http.Header

	// Dialer defaults to websocket.DefaultDialer.
	Dialer *websocket.Dialer
}

// Transport reaches the printer through a remote "printlink relay serve".
// It is reachable while the websocket is connected.
type Transport struct {
	opts Options

	// stableAfter is how long a connection must last before the reconnect
	// delay starts over.
	stableAfter time.Duration

	mu      sync.Mutex
	conn    *websocket.Conn
	pending map[string]chan *ResponseFrame

	writeMu sync.Mutex
}

// NewTransport validates opts and creates a disconnected transport. Call
// Run to connect.
func NewTransport(opts Options) (*Transport, error) {
	u, err := url.Parse(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid relay URL: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return nil, fmt.Errorf("relay URL must use ws or wss, got %q", opts.URL)
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = DefaultRetryDelay
	}
	if opts.MaxRetryDelay < opts.RetryDelay {
		opts.MaxRetryDelay = DefaultMaxRetryDelay
	}
	if opts.Dialer == nil {
		opts.Dialer = websocket.DefaultDialer
	}

	return &Transport{
		opts:        opts,
		stableAfter: pingPeriod,
		pending:     make(map[string]chan *ResponseFrame),
	}, nil
}

// Name implements transport.Transport.
func (t *Transport) Name() string {
	return "relay"
}

// Reachable implements transport.Transport.
func (t *Transport) Reachable() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.conn != nil
}

// Run keeps the relay connected until ctx is done, reconnecting with
// exponential backoff. A connection that drops before stableAfter does not
// reset the delay.
func (t *Transport) Run(ctx context.Context) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = t.opts.RetryDelay
	b.MaxInterval = t.opts.MaxRetryDelay
	b.MaxElapsedTime = 0
	b.Reset()

	for {
		conn, _, err := t.opts.Dialer.DialContext(ctx, t.opts.URL, t.opts.Header)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			delay := b.NextBackOff()
			logging.Debug("Relay dial failed",
				zap.String("url", t.opts.URL),
				zap.Duration("retry_in", delay),
				zap.Error(err),
			)
			if !sleep(ctx, delay) {
				return
			}
			continue
		}

		logging.Info("Relay connected", zap.String("url", t.opts.URL))

		connectedAt := time.Now()
		err = t.serve(ctx, conn)
		if ctx.Err() != nil {
			return
		}

		if time.Since(connectedAt) >= t.stableAfter {
			b.Reset()
		}
		delay := b.NextBackOff()
		logging.Warn("Relay disconnected",
			zap.String("url", t.opts.URL),
			zap.Duration("retry_in", delay),
			zap.Error(err),
		)
		if !sleep(ctx, delay) {
			return
		}
	}
}

// sleep waits for d and reports false if ctx ended first.
func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// serve owns conn until it fails or ctx ends.
func (t *Transport) serve(ctx context.Context, conn *websocket.Conn) error {
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	t.mu.Lock()
	t.conn = conn
	t.mu.Unlock()

	defer t.drop(conn)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return err
			}
			var frame ResponseFrame
			if err := json.Unmarshal(data, &frame); err != nil {
				logging.Warn("Dropping malformed relay frame", zap.Error(err))
				continue
			}
			t.deliver(&frame)
		}
	})

	g.Go(func() error {
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				t.writeMu.Lock()
				err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
				t.writeMu.Unlock()
				if err != nil {
					return err
				}
			}
		}
	})

	g.Go(func() error {
		<-gctx.Done()
		t.writeMu.Lock()
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		t.writeMu.Unlock()
		return conn.Close()
	})

	return g.Wait()
}

// drop detaches conn and fails every request waiting on it.
func (t *Transport) drop(conn *websocket.Conn) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn == conn {
		t.conn = nil
	}
	for id, ch := range t.pending {
		close(ch)
		delete(t.pending, id)
	}
}

func (t *Transport) deliver(frame *ResponseFrame) {
	t.mu.Lock()
	ch, ok := t.pending[frame.ID]
	if ok {
		delete(t.pending, frame.ID)
	}
	t.mu.Unlock()

	if !ok {
		logging.Debug("Relay response for unknown request", zap.String("id", frame.ID))
		return
	}
	ch <- frame
}

// Send implements transport.Transport.
func (t *Transport) Send(ctx context.Context, req *transport.Request) (*transport.Response, error) {
	frame := NewRequestFrame(req)
	ch := make(chan *ResponseFrame, 1)

	t.mu.Lock()
	conn := t.conn
	if conn == nil {
		t.mu.Unlock()
		return nil, transport.ErrUnreachable
	}
	t.pending[frame.ID] = ch
	t.mu.Unlock()

	defer func() {
		t.mu.Lock()
		delete(t.pending, frame.ID)
		t.mu.Unlock()
	}()

	t.writeMu.Lock()
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	err := conn.WriteJSON(frame)
	t.writeMu.Unlock()
	if err != nil {
		return nil, transport.Classify(err, t.opts.URL)
	}

	select {
	case resp, ok := <-ch:
		if !ok {
			return nil, transport.Classify(errConnClosed, t.opts.URL)
		}
		out, err := resp.Response()
		if err != nil {
			return nil, err
		}
		out.Transport = t.Name()
		return out, nil
	case <-ctx.Done():
		return nil, transport.Classify(ctx.Err(), t.opts.URL)
	}
}
