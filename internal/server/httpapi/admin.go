package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.admin.ListUsers(r.Context())
	if err != nil {
		s.logger.Error(r.Context(), "list users failed", "error", err.Error())
		writeServiceError(w, err)
		return
	}

	out := make([]userPayload, 0, len(users))
	for _, u := range users {
		out = append(out, toUserPayload(u))
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": out})
}

type changeRoleRequest struct {
	RoleID int `json:"role_id"`
}

func (s *Server) handleChangeRole(w http.ResponseWriter, r *http.Request) {
	var req changeRoleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "")
		return
	}

	if err := s.admin.ChangeRole(r.Context(), chi.URLParam(r, "id"), req.RoleID); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleToggleActive(w http.ResponseWriter, r *http.Request) {
	user, err := s.admin.ToggleActive(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "user": toUserPayload(user)})
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := s.admin.DeleteUser(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

type rolePayload struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Label string `json:"label"`
}

func (s *Server) handleListRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := s.admin.ListRoles(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	out := make([]rolePayload, 0, len(roles))
	for _, role := range roles {
		out = append(out, rolePayload{ID: role.ID, Name: role.Name, Label: role.Label})
	}
	writeJSON(w, http.StatusOK, map[string]any{"roles": out})
}

type accessCellPayload struct {
	RoleID    int  `json:"role_id"`
	PageID    int  `json:"page_id"`
	HasAccess bool `json:"has_access"`
}

func (s *Server) handleAccessMatrix(w http.ResponseWriter, r *http.Request) {
	pages, err := s.admin.ListPages(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	matrix, err := s.admin.AccessMatrix(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	cells := make([]accessCellPayload, 0, len(matrix))
	for _, c := range matrix {
		cells = append(cells, accessCellPayload{RoleID: c.RoleID, PageID: c.PageID, HasAccess: c.HasAccess})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"pages":  toPagePayloads(pages),
		"access": cells,
	})
}

func (s *Server) handleSetAccess(w http.ResponseWriter, r *http.Request) {
	var req accessCellPayload
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "")
		return
	}

	if err := s.admin.SetAccess(r.Context(), req.RoleID, req.PageID, req.HasAccess); err != nil {
		writeServiceError(w, err)
		return
	}

	admin := userFromContext(r.Context())
	s.logger.Info(r.Context(), "access matrix updated",
		"by", admin.Username, "role_id", req.RoleID, "page_id", req.PageID, "has_access", req.HasAccess)

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}
