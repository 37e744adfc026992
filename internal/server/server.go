// Package server provides the headsync dev server: an HTTP endpoint that
// upgrades browser connections to websocket sessions, each owning its own
// serialized queue, bridge, and head coordinator.
package server

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"

	"github.com/conneroisu/headsync/internal/config"
	"github.com/conneroisu/headsync/internal/errors"
	"github.com/conneroisu/headsync/internal/logging"
)

// Server hosts websocket sessions for connected browsers.
type Server struct {
	cfg    *config.Config
	logger logging.Logger

	// title options are swapped atomically by config hot reload
	title atomic.Value // config.TitleConfig

	httpServer *http.Server
	mux        *http.ServeMux

	// sessionCtx is the parent of every session's lifetime; shutdown
	// cancels it so read loops on hijacked connections unblock.
	sessionCtx     context.Context
	cancelSessions context.CancelFunc
	sessions       sync.WaitGroup
}

// New creates a server from cfg.
func New(cfg *config.Config, logger logging.Logger) *Server {
	if logger == nil {
		logger = logging.NopLogger{}
	}

	s := &Server{
		cfg:    cfg,
		logger: logger.WithComponent("server"),
		mux:    http.NewServeMux(),
	}
	s.sessionCtx, s.cancelSessions = context.WithCancel(context.Background())
	s.title.Store(cfg.Title)

	s.mux.HandleFunc("/", s.handleIndex)
	s.mux.HandleFunc("/ws", s.handleWebSocket)
	s.mux.HandleFunc("/healthz", s.handleHealth)

	return s
}

// UpdateTitleConfig swaps the title derivation options. Running sessions
// pick up the new suffix on their next derivation; casing applies to
// sessions created afterwards.
func (s *Server) UpdateTitleConfig(title config.TitleConfig) {
	s.title.Store(title)
}

func (s *Server) titleConfig() config.TitleConfig {
	return s.title.Load().(config.TitleConfig)
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)
}

// Handler exposes the HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:              s.Addr(),
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpServer.ListenAndServe()
	}()

	s.logger.Info(ctx, "server listening", "addr", s.Addr())

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		// Shutdown does not touch hijacked websocket connections, so the
		// sessions are stopped separately.
		err := s.httpServer.Shutdown(shutdownCtx)
		if stopErr := s.stopSessions(shutdownCtx); err == nil {
			err = stopErr
		}
		return err
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

// stopSessions cancels every running session and waits for their teardown,
// bounded by ctx.
func (s *Server) stopSessions(ctx context.Context) error {
	s.cancelSessions()

	done := make(chan struct{})
	go func() {
		s.sessions.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleWebSocket upgrades the request and runs a session until the client
// disconnects.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	origin := r.Header.Get("Origin")
	if !s.isAllowedOrigin(origin) {
		s.logger.Warn(r.Context(), errors.ErrInvalidOrigin(origin), "websocket connection rejected")
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		// Origins are validated separately above.
		OriginPatterns:  []string{"*"},
		CompressionMode: websocket.CompressionDisabled,
	})
	if err != nil {
		s.logger.Warn(r.Context(), err, "websocket upgrade failed", "remote", r.RemoteAddr)
		return
	}

	location := r.URL.Query().Get("location")
	if location == "" {
		location = fmt.Sprintf("http://%s/", r.Host)
	}

	sess := s.newSession(conn, location)
	s.logger.Info(r.Context(), "session connected", "remote", r.RemoteAddr, "location", location)

	s.sessions.Add(1)
	go func() {
		defer s.sessions.Done()
		sess.run(s.sessionCtx)
	}()
}

// isAllowedOrigin validates a websocket upgrade origin. Requests without an
// Origin header (non-browser clients) and requests from the configured host
// or loopback are always allowed; anything else must appear in
// server.allowed_origins.
func (s *Server) isAllowedOrigin(origin string) bool {
	if origin == "" {
		return true
	}

	u, err := url.Parse(origin)
	if err != nil || u.Hostname() == "" {
		return false
	}

	host := u.Hostname()
	if strings.EqualFold(host, s.cfg.Server.Host) ||
		host == "localhost" || host == "127.0.0.1" || host == "::1" {
		return true
	}

	for _, allowed := range s.cfg.Server.AllowedOrigins {
		if strings.EqualFold(strings.TrimRight(origin, "/"), strings.TrimRight(allowed, "/")) {
			return true
		}
	}

	return false
}
