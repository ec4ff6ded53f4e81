// Package httpserver provides the HTTP REST API server for the journal service.
package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"slices"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/rs/cors"
	"github.com/rs/zerolog"

	"github.com/helixir/journal-service/internal/content"
	"github.com/helixir/journal-service/internal/database"
	"github.com/helixir/journal-service/internal/domain"
	"github.com/helixir/journal-service/internal/observability"
	"github.com/helixir/journal-service/internal/repository"
)

// HealthChecker reports database health. Satisfied by *database.DB.
type HealthChecker interface {
	Health(ctx context.Context) database.HealthStatus
}

// Server is the HTTP REST API server.
type Server struct {
	router      chi.Router
	handler     http.Handler
	httpServer  *http.Server
	manuscripts repository.ManuscriptRepository
	people      repository.PersonRepository
	texts       repository.TextRepository
	renderer    *content.Renderer
	health      HealthChecker
	validate    *validator.Validate
	limiter     *clientLimiters
	metrics     *observability.Metrics
	config      Config
	logger      zerolog.Logger
}

// Config holds HTTP server configuration.
type Config struct {
	Address            string
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	IdleTimeout        time.Duration
	CORSAllowedOrigins []string
	// RateLimitRPS is applied per client IP. <= 0 disables rate limiting.
	RateLimitRPS   float64
	RateLimitBurst int
	JournalTitle   string
	MastheadRoles  []domain.Role
}

// Dependencies are the collaborators the handlers call.
type Dependencies struct {
	Manuscripts repository.ManuscriptRepository
	People      repository.PersonRepository
	Texts       repository.TextRepository
	Renderer    *content.Renderer
	Health      HealthChecker
	Metrics     *observability.Metrics
}

// NewServer creates a new HTTP server with all dependencies.
func NewServer(cfg Config, deps Dependencies, logger zerolog.Logger) *Server {
	if len(cfg.MastheadRoles) == 0 {
		cfg.MastheadRoles = domain.MastheadRoles
	}
	if deps.Renderer == nil {
		deps.Renderer = content.NewRenderer()
	}

	s := &Server{
		manuscripts: deps.Manuscripts,
		people:      deps.People,
		texts:       deps.Texts,
		renderer:    deps.Renderer,
		health:      deps.Health,
		validate:    newValidator(),
		metrics:     deps.Metrics,
		config:      cfg,
		logger:      logger.With().Str("component", "http-server").Logger(),
	}
	if cfg.RateLimitRPS > 0 {
		s.limiter = newClientLimiters(cfg.RateLimitRPS, cfg.RateLimitBurst)
	}

	s.router = s.buildRouter()
	s.handler = cors.New(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{
			http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut, http.MethodDelete,
		},
		AllowedHeaders: []string{"Content-Type", "X-Correlation-ID", "X-Request-ID"},
		ExposedHeaders: []string{"X-Correlation-ID"},
	}).Handler(s.router)

	s.httpServer = &http.Server{
		Addr:         cfg.Address,
		Handler:      s.handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s
}

// Handler returns the root handler including CORS.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// buildRouter creates the chi router with all middleware and routes.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(accessLogMiddleware(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(correlationIDMiddleware)
	r.Use(metricsMiddleware(s.metrics))
	r.Use(jsonContentTypeMiddleware)

	// Health endpoints are never rate limited.
	r.Get("/healthz", s.healthHandler)
	r.Get("/readyz", s.readinessHandler)

	r.Group(func(r chi.Router) {
		r.Use(rateLimitMiddleware(s.limiter))

		r.Get("/hello", s.hello)
		r.Get("/endpoints", s.endpoints)
		r.Get("/title", s.journalTitle)

		r.Route("/manuscripts", func(r chi.Router) {
			r.Get("/", s.listManuscripts)
			r.Post("/", s.createManuscript)
			r.Get("/{title}", s.getManuscript)
			r.Head("/{title}", s.manuscriptExists)
			r.Put("/{title}", s.updateManuscript)
			r.Delete("/{title}", s.deleteManuscript)
			r.Post("/{title}/actions", s.applyAction)
		})

		r.Route("/workflow", func(r chi.Router) {
			r.Get("/states", s.listStates)
			r.Get("/actions", s.listActions)
			r.Get("/states/{state}/actions", s.listStateActions)
		})

		r.Route("/people", func(r chi.Router) {
			r.Get("/", s.listPeople)
			r.Post("/", s.createPerson)
			r.Get("/masthead", s.masthead)
			r.Get("/{email}", s.getPerson)
			r.Put("/{email}", s.updatePerson)
			r.Delete("/{email}", s.deletePerson)
		})

		r.Route("/texts", func(r chi.Router) {
			r.Get("/", s.listTexts)
			r.Post("/", s.createText)
			r.Get("/{key}", s.getText)
			r.Get("/{key}/html", s.getTextHTML)
			r.Put("/{key}", s.updateText)
			r.Delete("/{key}", s.deleteText)
		})
	})

	return r
}

// Routes lists every registered route as "METHOD /pattern", sorted.
func (s *Server) Routes() []string {
	var routes []string
	_ = chi.Walk(s.router, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		if len(route) > 1 && route[len(route)-1] == '/' {
			route = route[:len(route)-1]
		}
		routes = append(routes, method+" "+route)
		return nil
	})
	slices.Sort(routes)
	return slices.Compact(routes)
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info().Str("address", s.httpServer.Addr).Msg("HTTP server starting")
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen on HTTP address: %w", err)
	}
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// healthHandler returns basic liveness status.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	health := s.health.Health(r.Context())
	if health.Status == "healthy" {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "database": health.Status})
		return
	}
	writeJSON(w, http.StatusServiceUnavailable, map[string]string{
		"status":   "unhealthy",
		"database": health.Status,
		"error":    health.Error,
	})
}

// readinessHandler returns readiness status.
func (s *Server) readinessHandler(w http.ResponseWriter, r *http.Request) {
	health := s.health.Health(r.Context())
	if health.Status != "healthy" {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status":   "not_ready",
			"database": health.Status,
			"error":    health.Error,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":   "ready",
		"database": "healthy",
	})
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Best-effort log; headers already sent.
		_ = err
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{
		"error": message,
	})
}
