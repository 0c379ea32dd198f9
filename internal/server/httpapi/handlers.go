package httpapi

import (
	"net/http"
	"time"

	"github.com/nwnlabs/portal/internal/server/models"
	"github.com/nwnlabs/portal/internal/server/services"
)

type userPayload struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	RoleID      int    `json:"role_id"`
	IsActive    bool   `json:"is_active"`
}

type pagePayload struct {
	ID       int    `json:"id"`
	Slug     string `json:"slug"`
	FilePath string `json:"file_path"`
}

func toUserPayload(u *models.User) userPayload {
	return userPayload{
		ID:          u.ID,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		RoleID:      u.RoleID,
		IsActive:    u.IsActive,
	}
}

func toPagePayloads(pages []*models.Page) []pagePayload {
	out := make([]pagePayload, 0, len(pages))
	for _, p := range pages {
		out = append(out, pagePayload{ID: p.ID, Slug: p.Slug, FilePath: p.FilePath})
	}
	return out
}

type authResponse struct {
	Success bool        `json:"success"`
	Token   string      `json:"token"`
	User    userPayload `json:"user"`
}

func (s *Server) writeAuthResult(w http.ResponseWriter, res *services.AuthResult) {
	http.SetCookie(w, &http.Cookie{
		Name:     TokenCookieName,
		Value:    res.Token,
		Path:     "/",
		Expires:  time.Now().Add(s.config.TokenValidityDuration),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, authResponse{Success: true, Token: res.Token, User: toUserPayload(res.User)})
}

type registerRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "")
		return
	}

	res, err := s.users.Register(r.Context(), req.Username, req.Password, req.DisplayName)
	if err != nil {
		s.logger.Warn(r.Context(), "registration failed", "username", req.Username, "error", err.Error())
		writeServiceError(w, err)
		return
	}

	s.logger.Info(r.Context(), "registered", "username", res.User.Username)
	s.writeAuthResult(w, res)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "")
		return
	}

	res, err := s.users.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	s.writeAuthResult(w, res)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())

	pages, err := s.users.AccessiblePages(r.Context(), user.RoleID)
	if err != nil {
		s.logger.Error(r.Context(), "page list failed", "error", err.Error())
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user":  toUserPayload(user),
		"pages": toPagePayloads(pages),
	})
}

type mediaURLResponse struct {
	Success   bool   `json:"success"`
	URL       string `json:"url"`
	ExpiresIn int    `json:"expiresIn"`
	Filename  string `json:"filename"`
}

func (s *Server) handleMediaURLQuery(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	s.serveMediaURL(w, r, q.Get("filename"), q.Get("bucket"))
}

type mediaURLRequest struct {
	Filename string `json:"filename"`
	Bucket   string `json:"bucket"`
}

func (s *Server) handleMediaURLBody(w http.ResponseWriter, r *http.Request) {
	var req mediaURLRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "")
		return
	}
	s.serveMediaURL(w, r, req.Filename, req.Bucket)
}

func (s *Server) serveMediaURL(w http.ResponseWriter, r *http.Request, filename, bucket string) {
	signed, err := s.media.MediaURL(r.Context(), filename, bucket)
	if err != nil {
		s.logger.Warn(r.Context(), "media url refused", "filename", filename, "error", err.Error())
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, mediaURLResponse{
		Success:   true,
		URL:       signed.URL,
		ExpiresIn: signed.ExpiresIn,
		Filename:  signed.Filename,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":               "ok",
		"r2Configured":         s.config.StorageConfigured(),
		"dbConfigured":         s.db != nil,
		"bucket":               s.config.S3Bucket,
		"urlExpirationSeconds": int(s.config.URLExpiration.Seconds()),
	})
}
