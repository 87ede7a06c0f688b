// Package server exposes the retrieval flow over HTTP.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"chatbot/internal/config"
	"chatbot/internal/service"
)

// Answerer is the server-facing subset of the retrieval service.
type Answerer interface {
	Answer(ctx context.Context, question string) (service.Answer, error)
	Chunks() int
}

// Server is the HTTP server for the retrieval endpoint.
type Server struct {
	rag    Answerer
	config *config.ServerConfig
	logger *zap.Logger
	server *http.Server
}

// NewServer builds the server; the listener is only opened by Start.
func NewServer(rag Answerer, cfg *config.ServerConfig, logger *zap.Logger) *Server {
	s := &Server{rag: rag, config: cfg, logger: logger}
	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	timeout := time.Duration(s.config.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 300 * time.Second
	}
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(timeout))

	r.Post("/chat", s.handleChat)
	r.Get("/health", s.handleHealth)
	return r
}

// Start listens and serves until Stop is called.
// It returns http.ErrServerClosed after a graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("Starting server", zap.String("addr", s.server.Addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server. A Stop before Start makes Start return at once.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())))
	})
}
