package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/spf13/afero"

	"github.com/Kush-Singh-26/kula-serve/internal/config"
	"github.com/Kush-Singh-26/kula-serve/internal/metrics"
)

// Server ties the responder, header decoration, logging and live reload
// together behind one http.Handler.
type Server struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *metrics.ServeMetrics
	hub     *Hub // nil unless cfg.Watch
	handler http.Handler
}

// New builds a server for cfg serving fsys.
func New(cfg *config.Config, fsys afero.Fs, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:     cfg,
		logger:  logger,
		metrics: metrics.NewServeMetrics(),
	}
	if cfg.Watch {
		s.hub = NewHub()
	}

	responder := NewResponder(fsys, logger)
	var router http.Handler = responder
	if s.hub != nil {
		router = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == ReloadPath {
				s.hub.ServeHTTP(w, r)
				return
			}
			responder.ServeHTTP(w, r)
		})
	}

	s.handler = Decorate(accessLog(router, logger, s.metrics), DefaultPolicy())
	return s
}

// Handler returns the fully decorated request handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Metrics returns the live request counters.
func (s *Server) Metrics() *metrics.ServeMetrics {
	return s.metrics
}

// Run binds the configured address and serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Addr(), err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down
// gracefully. A clean shutdown returns nil.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	if err := RegisterTypes(s.cfg.MimeTypes); err != nil {
		_ = ln.Close()
		return fmt.Errorf("failed to register mime types: %w", err)
	}

	// Cancelled on shutdown so long-lived reload streams let go
	baseCtx, cancelBase := context.WithCancel(context.Background())
	defer cancelBase()

	httpServer := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return baseCtx },
		ErrorLog:          slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
	}
	httpServer.RegisterOnShutdown(cancelBase)

	watchCtx, stopWatch := context.WithCancel(ctx)
	var watcherDone *sync.WaitGroup
	defer func() {
		stopWatch()
		if watcherDone != nil {
			watcherDone.Wait()
		}
	}()
	if s.hub != nil {
		wg, err := s.startWatcher(watchCtx, s.cfg.Root, s.cfg.Debounce)
		if err != nil {
			s.logger.Warn("Live reload disabled", "error", err)
		} else {
			watcherDone = wg
		}
	}

	port := s.cfg.Port
	if addr, ok := ln.Addr().(*net.TCPAddr); ok {
		port = addr.Port
	}
	fmt.Printf("Starting server at http://localhost:%d\n", port)
	if s.hub != nil {
		fmt.Printf("   (Live reload on %s)\n", ReloadPath)
	}
	fmt.Println("Press Ctrl+C to stop the server")

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- httpServer.Serve(ln)
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	stopWatch()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("HTTP server shutdown error", "error", err)
		_ = httpServer.Close()
	}
	<-serveErr

	fmt.Println("\nServer stopped.")
	s.metrics.Print()
	return nil
}
