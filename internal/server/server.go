// Package server implements the remote board store as an HTTP service: the
// snapshot pull/push endpoints the sync engine consumes, plus a websocket
// feed of accepted changes.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

// Server is the trello-sync HTTP server.
type Server struct {
	config Config
	http   *http.Server
	db     *BoardDB
	hub    *Hub
}

// NewServer creates a server over the given board database.
func NewServer(cfg Config, db *BoardDB) *Server {
	s := &Server{
		config: cfg,
		db:     db,
		hub:    NewHub(),
	}
	s.http = &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      s.routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealth).Methods("GET")
	r.HandleFunc("/v1/board/snapshot", s.handleGetSnapshot).Methods("GET")
	r.HandleFunc("/v1/board/snapshot", s.handlePutSnapshot).Methods("PUT")
	r.HandleFunc("/v1/board/changes", s.handlePushChanges).Methods("POST")
	r.HandleFunc("/v1/board/watch", s.handleWatch).Methods("GET")
	r.Use(requestLogger)

	c := cors.New(cors.Options{
		AllowedOrigins: s.config.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	})
	return c.Handler(r)
}

// requestLogger logs each request at debug level with method, path and timing.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		slog.Debug("http request", "method", r.Method, "path", r.URL.Path, "dur", time.Since(start))
	})
}

// Start begins listening (non-blocking).
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.config.ListenAddr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	go func() {
		if err := s.http.Serve(ln); err != nil && err != http.ErrServerClosed {
			slog.Error("http server", "err", err)
		}
	}()
	return nil
}

// Shutdown gracefully stops the server and disconnects watchers.
func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.Close()
	return s.http.Shutdown(ctx)
}

// Handler exposes the routed handler for tests.
func (s *Server) Handler() http.Handler {
	return s.routes()
}
