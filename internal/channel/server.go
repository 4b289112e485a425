package channel

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"mentionbot/internal/metrics"
)

// Server is the bot's HTTP surface: events webhook, OAuth callback, health,
// and metrics.
type Server struct {
	host      string
	port      int
	events    *EventsHandler
	oauth     *OAuthHandler
	collector *metrics.Collector
	logger    *slog.Logger
	server    *http.Server
}

// ServerConfig wires the Server.
type ServerConfig struct {
	Host      string
	Port      int
	Events    *EventsHandler
	OAuth     *OAuthHandler
	Collector *metrics.Collector
	Logger    *slog.Logger
}

// NewServer creates the HTTP server. Routes are fixed:
// POST /api/slack/events, GET /api/slack/oauth, GET /api/health,
// GET /metrics.
func NewServer(cfg ServerConfig) *Server {
	return &Server{
		host:      cfg.Host,
		port:      cfg.Port,
		events:    cfg.Events,
		oauth:     cfg.OAuth,
		collector: cfg.Collector,
		logger:    cfg.Logger,
	}
}

// Handler builds the route mux.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/api/slack/events", s.events)
	mux.Handle("/api/slack/oauth", s.oauth)
	mux.HandleFunc("/api/health", handleHealth)
	if s.collector != nil {
		mux.HandleFunc("/metrics", s.collector.Handler())
	}
	return mux
}

// Start serves until ctx is done, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.host, s.port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	s.logger.Info("http server starting", "addr", s.server.Addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("http server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "Method not allowed"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
