package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vectoria-labs/vectoria-core/internal/core/ports/driven"
	"github.com/vectoria-labs/vectoria-core/internal/core/ports/driving"
)

// Rate limited endpoint names. Each name keys its own global and
// per-client buckets.
const (
	EndpointSearch = "search"
	EndpointRAG    = "rag"
)

// Pinger is a simple health check interface
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	router     *http.ServeMux
	version    string
	logger     *slog.Logger

	// Services
	searchService   driving.SearchService
	docService      driving.DocumentService
	chatService     driving.ChatService
	settingsService driving.SettingsService
	rateLimiter     driving.RateLimiter

	// Infrastructure
	tokenVerifier driven.TokenVerifier
	db            Pinger // PostgreSQL health check
	redisClient   Pinger // Redis health check (optional)
}

// Config holds server configuration
type Config struct {
	Host    string
	Port    int
	Version string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Host:    "0.0.0.0",
		Port:    8080,
		Version: "dev",
	}
}

// NewServer creates a new HTTP server
func NewServer(
	cfg Config,
	searchService driving.SearchService,
	docService driving.DocumentService,
	chatService driving.ChatService,
	settingsService driving.SettingsService,
	rateLimiter driving.RateLimiter,
	tokenVerifier driven.TokenVerifier,
	db Pinger,
	redisClient Pinger, // can be nil
) *Server {
	s := &Server{
		router:          http.NewServeMux(),
		version:         cfg.Version,
		logger:          slog.Default(),
		searchService:   searchService,
		docService:      docService,
		chatService:     chatService,
		settingsService: settingsService,
		rateLimiter:     rateLimiter,
		tokenVerifier:   tokenVerifier,
		db:              db,
		redisClient:     redisClient,
	}

	logging := NewLoggingMiddleware(s.logger)
	recovery := NewRecoveryMiddleware(s.logger)
	cors := NewCORSMiddleware([]string{"*"})

	s.httpServer = &http.Server{
		Addr:        fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:     recovery.Handler(cors.Handler(logging.Handler(s.router))),
		ReadTimeout: 30 * time.Second,
		// Streaming RAG responses can outlive a request-scoped write
		// timeout, so generation time is bounded by the LLM client, not
		// the server.
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	// Create middleware
	authMiddleware := NewAuthMiddleware(s.tokenVerifier)
	rateLimit := NewRateLimitMiddleware(s.rateLimiter)

	// Health endpoints (no auth)
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /ready", s.handleReady)
	s.router.HandleFunc("GET /version", s.handleVersion)

	// Search endpoints (authenticated, rate limited)
	s.router.Handle("POST /api/v1/search",
		authMiddleware.Authenticate(
			rateLimit.Limit(EndpointSearch, http.HandlerFunc(s.handleSearch))))

	// Document endpoints (authenticated)
	s.router.Handle("POST /api/v1/documents",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleAddDocument)))
	s.router.Handle("GET /api/v1/documents",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleListDocuments)))
	s.router.Handle("GET /api/v1/documents/{id}",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleGetDocument)))
	s.router.Handle("PUT /api/v1/documents/{id}",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleUpdateDocument)))
	s.router.Handle("DELETE /api/v1/documents/{id}",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleDeleteDocument)))
	s.router.Handle("POST /api/v1/documents/batch-delete",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleBatchDeleteDocuments)))

	// Group endpoints (authenticated)
	s.router.Handle("GET /api/v1/groups",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleListGroups)))
	s.router.Handle("POST /api/v1/groups",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleCreateGroup)))
	s.router.Handle("PUT /api/v1/groups/{id}",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleRenameGroup)))
	s.router.Handle("DELETE /api/v1/groups/{id}",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleDeleteGroup)))
	s.router.Handle("POST /api/v1/groups/assign",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleAssignToGroup)))
	s.router.Handle("GET /api/v1/groups/{id}/export",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleExportGroup)))
	s.router.Handle("POST /api/v1/groups/import",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleImportGroup)))

	// RAG endpoints (authenticated, rate limited)
	s.router.Handle("POST /api/v1/rag",
		authMiddleware.Authenticate(
			rateLimit.Limit(EndpointRAG, http.HandlerFunc(s.handleRAGQuery))))
	s.router.Handle("POST /api/v1/rag/stream",
		authMiddleware.Authenticate(
			rateLimit.Limit(EndpointRAG, http.HandlerFunc(s.handleRAGStream))))

	// Settings endpoints (admin-only)
	s.router.Handle("GET /api/v1/settings",
		authMiddleware.Authenticate(
			authMiddleware.RequireAdmin(http.HandlerFunc(s.handleGetSettings))))
	s.router.Handle("PUT /api/v1/settings",
		authMiddleware.Authenticate(
			authMiddleware.RequireAdmin(http.HandlerFunc(s.handleUpdateSettings))))
}

// Start starts the HTTP server with graceful shutdown
func (s *Server) Start() error {
	// Channel to listen for OS signals
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Wait for shutdown signal or server failure
	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-stop:
	}
	s.logger.Info("shutting down server")

	// Create shutdown context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Attempt graceful shutdown
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.logger.Info("server stopped")
	return nil
}

// Stop stops the server
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
