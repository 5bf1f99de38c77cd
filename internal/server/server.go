// Package server provides the HTTP handlers and routing for the RAG backend.
package server

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"rag-backend/internal/admission"
	"rag-backend/internal/cache"
	"rag-backend/internal/ratelimit"
)

// Server holds the router and the admission-layer collaborators it exposes
// over HTTP. All state is injected by the composition root; the package
// keeps no globals.
type Server struct {
	router    *chi.Mux
	cache     *cache.Cache
	limiter   *ratelimit.Limiter
	admission *admission.Controller
}

// New constructs a Server with middleware and routes configured.
func New(c *cache.Cache, l *ratelimit.Limiter, ctrl *admission.Controller) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		cache:     c,
		limiter:   l,
		admission: ctrl,
	}
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(60 * time.Second))
	// Wildcard origin matches the dev deployment; lock down behind a
	// reverse proxy in production.
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	}))

	s.router.Get("/", s.handleRoot)
	s.router.Get("/stats", s.handleStats)
	s.router.Post("/query", s.handleQuery)

	return s
}

// Router exposes the root HTTP handler for the server.
func (s *Server) Router() http.Handler { return s.router }

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Welcome to the RAG Backend!"})
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, statsResponse{
		Cache: s.cache.Stats(),
		RateLimiter: rateLimiterStats{
			RequestsPerMinute: s.limiter.Limit(),
			ActiveClients:     s.limiter.ActiveClients(),
		},
	})
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "No query text provided"})
		return
	}

	resp, err := s.admission.Handle(r.Context(), req.Text, clientID(r))
	if err != nil {
		var admErr *admission.Error
		if !errors.As(err, &admErr) {
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "An error occurred while processing your query."})
			return
		}
		body := errorResponse{Error: admErr.Message}
		if admErr.Kind == admission.KindRateLimited {
			body.RetryAfter = admErr.RetryAfter
			w.Header().Set("Retry-After", strconv.Itoa(admErr.RetryAfter))
		}
		writeJSON(w, admErr.HTTPStatus(), body)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// clientID extracts the caller identity used for rate limiting. RealIP
// middleware has already folded X-Forwarded-For into RemoteAddr.
func clientID(r *http.Request) string {
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil && host != "" {
		return host
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return "unknown"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
