package httpapi

import (
	"errors"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/nwnlabs/portal/internal/common"
)

const loginPath = "/login.html"

// publicPrefixes are served without any policy check. API paths guard
// themselves; login and registration must stay reachable for anonymous
// visitors, and the denial page must not itself be denied.
var publicPrefixes = []string{
	"/api/",
	"/audio-url",
	"/health",
	loginPath,
	"/register.html",
	"/access-denied.html",
}

func isPublicPath(p string) bool {
	for _, prefix := range publicPrefixes {
		if strings.HasPrefix(p, prefix) {
			return true
		}
	}
	return false
}

// pageGate authorizes page requests before the static file server sees them.
// Outcomes: pass-through, redirect to the login page (no usable identity),
// or the denial page (identity fine, policy says no). Paths without a
// registered policy slug pass through: the matrix governs whole pages, not
// CSS or images.
func (s *Server) pageGate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		filePath := strings.TrimPrefix(path.Clean(r.URL.Path), "/")
		if filePath == "" || filePath == "." {
			filePath = "index.html"
		}

		slug, err := s.repos.Pages(s.db).SlugForPath(r.Context(), filePath)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				next.ServeHTTP(w, r)
				return
			}
			s.policyFailure(w, r, next, err)
			return
		}

		token := tokenFromRequest(r)
		if token == "" {
			http.Redirect(w, r, loginPath, http.StatusFound)
			return
		}

		user, err := s.users.Authenticate(r.Context(), token)
		if err != nil {
			if errors.Is(err, common.ErrorUnauthorized) {
				http.Redirect(w, r, loginPath, http.StatusFound)
				return
			}
			s.policyFailure(w, r, next, err)
			return
		}

		allowed, err := s.repos.Grants(s.db).HasAccess(r.Context(), user.RoleID, slug)
		if err != nil {
			s.policyFailure(w, r, next, err)
			return
		}
		if !allowed {
			s.renderDenied(w, r)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// policyFailure decides what happens when authorization cannot be
// determined. The default denies; GateFailOpen restores the legacy
// pass-through. Either way the store error is logged.
func (s *Server) policyFailure(w http.ResponseWriter, r *http.Request, next http.Handler, err error) {
	if s.config.GateFailOpen {
		s.logger.Error(r.Context(), "policy lookup failed, passing through", "path", r.URL.Path, "error", err.Error())
		next.ServeHTTP(w, r)
		return
	}

	s.logger.Error(r.Context(), "policy lookup failed, denying", "path", r.URL.Path, "error", err.Error())
	s.renderDenied(w, r)
}

// renderDenied serves the access-denied page with a 403. The page in the
// static directory carries the localized copy; a plain fallback is used
// when it is absent.
func (s *Server) renderDenied(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusForbidden)

	denied := filepath.Join(s.config.StaticDir, "access-denied.html")
	if body, err := os.ReadFile(denied); err == nil {
		_, _ = w.Write(body)
		return
	}

	_, _ = w.Write([]byte("<!DOCTYPE html><html><head><title>Access denied</title></head>" +
		"<body><h1>Access denied</h1><p>Your role does not have access to this page. " +
		"Ask an administrator to grant it.</p></body></html>"))
}
