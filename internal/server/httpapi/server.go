// Package httpapi exposes the portal over HTTP: the JSON auth/media/admin
// API, the page-access gate, and static page serving.
package httpapi

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/google/uuid"

	"github.com/nwnlabs/portal/internal/logging"
	"github.com/nwnlabs/portal/internal/server/config"
	"github.com/nwnlabs/portal/internal/server/repositories/repomanager"
	"github.com/nwnlabs/portal/internal/server/services"
)

type Server struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	repos  repomanager.RepositoryManager
	users  *services.UserService
	media  *services.MediaService
	admin  *services.AdminService
}

func NewServer(cfg *config.Config, l logging.Logger, db *sql.DB, repos repomanager.RepositoryManager,
	us *services.UserService, ms *services.MediaService, as *services.AdminService) *Server {
	return &Server{
		config: cfg,
		logger: l.With("module", "http_server"),
		db:     db,
		repos:  repos,
		users:  us,
		media:  ms,
		admin:  as,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.config.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Get("/health", s.handleHealth)

	r.Get("/audio-url", s.handleMediaURLQuery)
	r.Post("/audio-url", s.handleMediaURLBody)

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", s.handleRegister)
		r.Post("/login", s.handleLogin)
		r.With(s.authMiddleware).Get("/me", s.handleMe)
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(s.authMiddleware, s.requireAdmin)
		r.Get("/users", s.handleListUsers)
		r.Put("/users/{id}/role", s.handleChangeRole)
		r.Put("/users/{id}/toggle", s.handleToggleActive)
		r.Delete("/users/{id}", s.handleDeleteUser)
		r.Get("/roles", s.handleListRoles)
		r.Get("/access", s.handleAccessMatrix)
		r.Put("/access", s.handleSetAccess)
	})

	// every remaining path is static content behind the gate
	r.With(s.pageGate).Handle("/*", http.FileServer(http.Dir(s.config.StaticDir)))

	return r
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.config.EndpointAddrHTTP,
		Handler: s.Router(),
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.config.EndpointAddrHTTP)

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	return nil
}

// requestLogger tags every request with an id and logs it on completion.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.NewString()
		w.Header().Set("X-Request-Id", reqID)

		start := time.Now()
		next.ServeHTTP(w, r)

		s.logger.Debug(r.Context(), "request",
			"req_id", reqID,
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start).String(),
		)
	})
}
