package http_api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"github.com/cinescope/cinescope/src/internal/config"
	"github.com/cinescope/cinescope/src/internal/domain"
	"github.com/cinescope/cinescope/src/internal/ports"
	"github.com/cinescope/cinescope/src/internal/services"
)

const stateCookieName = "cinescope.oauth_state"

// Deps are the services the API is built on. Provider is nil when no OIDC
// client is configured; Catalog is nil when no metadata token is configured.
type Deps struct {
	Accounts   *services.AccountService
	Sessions   *services.SessionService
	Collection *services.CollectionService
	Catalog    *services.CatalogService
	Provider   ports.IdentityProvider
	State      *services.StateSigner
}

type Server struct {
	Deps
	cfg     *config.ServerConfig
	limiter *IPRateLimiter
	started time.Time
}

type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func NewServer(cfg *config.ServerConfig, deps Deps) *Server {
	perMinute := cfg.RateLimit.PerMinute
	if perMinute <= 0 {
		perMinute = 120
	}
	return &Server{
		Deps:    deps,
		cfg:     cfg,
		limiter: NewIPRateLimiter(rate.Every(time.Minute/time.Duration(perMinute)), cfg.RateLimit.Burst),
		started: time.Now(),
	}
}

func (s *Server) Close() {
	s.limiter.Stop()
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(s.corsMiddleware)
	r.Use(s.bodyLimit)

	r.Get("/health", s.handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(s.limiter.Middleware)

		r.Route("/auth", func(r chi.Router) {
			r.Get("/google", s.handleLogin)
			r.Get("/google/callback", s.handleCallback)
			r.Get("/user", s.handleCurrentUser)
			r.With(s.RequireSession).Post("/logout", s.handleLogout)
		})

		r.Route("/api", func(r chi.Router) {
			r.Get("/test", s.handleTest)

			r.Route("/movies", func(r chi.Router) {
				r.Use(s.RequireSession)
				r.Get("/saved", s.handleListSaved)
				r.Post("/save", s.handleSave)
				r.Post("/toggle", s.handleToggle)
				r.Delete("/{movieId}", s.handleRemove)
			})

			r.Route("/meta", func(r chi.Router) {
				r.Use(s.requireCatalog)
				r.Get("/bootstrap", s.handleBootstrap)
				r.Get("/search", s.handleSearch)
				r.Get("/trending/{kind}/{window}", s.handleTrending)
				r.Get("/discover/{kind}", s.handleDiscover)
				r.Get("/{kind}/list/{category}", s.handleList)
				r.Get("/{kind}/{id}", s.handleDetails)
				r.Get("/{kind}/{id}/similar", s.handleSimilar)
				r.Get("/{kind}/{id}/recommendations", s.handleRecommendations)
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.respondError(w, http.StatusNotFound, "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]any{
		"status":    "OK",
		"uptime":    time.Since(s.started).Seconds(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleTest(w http.ResponseWriter, r *http.Request) {
	_, err := s.credential(r)
	s.respondJSON(w, http.StatusOK, map[string]any{
		"message":       "Server is running with authentication!",
		"timestamp":     time.Now().UTC().Format(time.RFC3339),
		"environment":   s.cfg.Env,
		"authenticated": err == nil,
	})
}

// corsMiddleware allows the configured client origin to call the API with
// its session cookie.
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && origin == s.cfg.ClientURL {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE")
			w.Header().Add("Vary", "Origin")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) bodyLimit(next http.Handler) http.Handler {
	limit := int64(s.cfg.BodyLimitMB) << 20
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if limit > 0 && r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, limit)
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) respondJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, statusCode int, message string) {
	s.respondJSON(w, statusCode, Response{Success: false, Message: message})
}

// respondErr maps service errors onto status codes. Unclassified errors are
// 500s and their text is hidden in production.
func (s *Server) respondErr(w http.ResponseWriter, r *http.Request, err error) {
	var verr *domain.ValidationError
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &verr):
		s.respondError(w, http.StatusBadRequest, verr.Error())
	case errors.As(err, &maxErr):
		s.respondError(w, http.StatusRequestEntityTooLarge, "Request body too large")
	case errors.Is(err, domain.ErrAlreadySaved):
		s.respondError(w, http.StatusBadRequest, "Movie already saved")
	case errors.Is(err, domain.ErrNotFound):
		s.respondError(w, http.StatusNotFound, "Movie not found in collection")
	case errors.Is(err, domain.ErrUserNotFound):
		s.respondError(w, http.StatusNotFound, "User not found")
	case errors.Is(err, domain.ErrUnauthenticated), errors.Is(err, domain.ErrSessionNotFound):
		s.respondError(w, http.StatusUnauthorized, "Authentication required")
	default:
		log.Printf("[API] %s %s failed: %v", r.Method, r.URL.Path, err)
		msg := err.Error()
		if s.cfg.IsProduction() {
			msg = "Something went wrong!"
		}
		s.respondError(w, http.StatusInternalServerError, msg)
	}
}
