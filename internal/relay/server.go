package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/muurk/printlink/internal/logging"
	"github.com/muurk/printlink/internal/transport"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultListen is the "relay serve" listen address
	DefaultListen = ":8765"

	// DefaultPath is the websocket upgrade path
	DefaultPath = "/relay"

	// DefaultRequestTimeout bounds each relayed request
	DefaultRequestTimeout = 30 * time.Second

	// maxInFlight bounds concurrent requests per relay connection
	maxInFlight = 8
)

// Server exposes a local Router to remote relay clients.
type Server struct {
	router   *transport.Router
	path     string
	upgrader websocket.Upgrader

	// RequestTimeout bounds each relayed request.
	RequestTimeout time.Duration

	mu    sync.Mutex
	conns map[*websocket.Conn]string
	wg    sync.WaitGroup
}

// NewServer creates a relay server routing through router.
func NewServer(router *transport.Router, path string) *Server {
	if path == "" {
		path = DefaultPath
	}
	return &Server{
		router: router,
		path:   path,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// Relay clients are CLIs, not browsers
				return true
			},
		},
		RequestTimeout: DefaultRequestTimeout,
		conns:          make(map[*websocket.Conn]string),
	}
}

// Handler returns the HTTP handler serving the relay path and /healthz.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(s.path, s.handleRelay)
	mux.HandleFunc("/healthz", s.handleHealth)
	return mux
}

// ListenAndServe serves on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		logging.Info("Relay server listening",
			zap.String("addr", addr),
			zap.String("path", s.path),
		)
		errChan <- srv.ListenAndServe()
	}()

	select {
	case err := <-errChan:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("relay server failed: %w", err)
	case <-ctx.Done():
	}

	logging.Info("Shutting down relay server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Hijacked websocket connections are not closed by Shutdown
	s.closeAll()
	err := srv.Shutdown(shutdownCtx)
	s.wg.Wait()
	return err
}

// ActiveConnections returns the number of connected relay clients.
func (s *Server) ActiveConnections() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

func (s *Server) closeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn, addr := range s.conns {
		logging.Info("Closing relay connection", zap.String("remote_addr", addr))
		_ = conn.Close()
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	active, ok := s.router.Active()
	body := map[string]any{"reachable": ok}
	if ok {
		body["transport"] = active.Name()
	}
	_ = json.NewEncoder(w).Encode(body)
}

func (s *Server) handleRelay(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Warn("Relay upgrade failed",
			zap.String("remote_addr", r.RemoteAddr),
			zap.Error(err),
		)
		return
	}

	remoteAddr := r.RemoteAddr
	s.wg.Add(1)
	s.mu.Lock()
	s.conns[conn] = remoteAddr
	s.mu.Unlock()

	defer func() {
		_ = conn.Close()
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
		s.wg.Done()
		logging.Info("Relay client disconnected", zap.String("remote_addr", remoteAddr))
	}()

	logging.Info("Relay client connected", zap.String("remote_addr", remoteAddr))

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPingHandler(func(data string) error {
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		return conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(writeWait))
	})

	var writeMu sync.Mutex
	reply := func(frame *ResponseFrame) {
		writeMu.Lock()
		defer writeMu.Unlock()
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(frame); err != nil {
			logging.Warn("Failed to write relay response",
				zap.String("remote_addr", remoteAddr),
				zap.Error(err),
			)
		}
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxInFlight)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))

		var frame RequestFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			logging.Warn("Dropping malformed relay frame",
				zap.String("remote_addr", remoteAddr),
				zap.Error(err),
			)
			continue
		}

		g.Go(func() error {
			reply(s.handleFrame(gctx, &frame))
			return nil
		})
	}

	cancel()
	_ = g.Wait()
}

func (s *Server) handleFrame(ctx context.Context, frame *RequestFrame) *ResponseFrame {
	req, err := frame.Request()
	if err != nil {
		return badRequestFrame(frame.ID, err)
	}

	if s.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.RequestTimeout)
		defer cancel()
	}

	resp, err := s.router.Route(ctx, req)
	return responseFrame(frame.ID, resp, err)
}
