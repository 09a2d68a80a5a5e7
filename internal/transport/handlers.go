package transport

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/devroom/devroom/internal/auth"
	"github.com/devroom/devroom/internal/domain/filetree"
	"github.com/devroom/devroom/internal/domain/message"
	"github.com/devroom/devroom/internal/domain/project"
	"github.com/devroom/devroom/internal/domain/user"
)

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	u, err := s.svc.Users.Create(r.Context(), user.CreateRequest{Email: req.Email, Name: req.Name})
	if err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.svc.Users.List(r.Context())
	if err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": users})
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}
	var req struct {
		Name string `json:"name"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	proj, err := s.svc.Projects.Create(r.Context(), claims.UserID, req.Name)
	if err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, proj)
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	projects, err := s.svc.Projects.ListForUser(r.Context(), claims.UserID)
	if err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"projects": projects})
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	detail, err := s.svc.Projects.GetDetail(r.Context(), chi.URLParam(r, "projectID"))
	if err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"project": detail})
}

func (s *Server) handleAddUsers(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}
	var req struct {
		ProjectID string   `json:"projectId"`
		Users     []string `json:"users"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	proj, err := s.svc.Projects.AddMembers(r.Context(), claims.UserID, req.ProjectID, req.Users)
	if err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"project": proj})
}

func (s *Server) handleRemoveUser(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}
	var req struct {
		ProjectID string `json:"projectId"`
		UserID    string `json:"userId"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	proj, err := s.svc.Projects.RemoveMember(r.Context(), claims.UserID, req.ProjectID, req.UserID)
	if err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"project": proj})
}

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	msgs, err := s.svc.Messages.List(r.Context(), chi.URLParam(r, "projectID"))
	if err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": msgs})
}

func (s *Server) handleAppendMessage(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}
	var req struct {
		Sender  *struct {
			ID      string `json:"id"`
			Contact string `json:"contact"`
		} `json:"sender"`
		Message string `json:"message"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	sender := message.HumanSender(claims.UserID, claims.Email)
	if req.Sender != nil && req.Sender.ID != "" {
		sender = message.HumanSender(req.Sender.ID, req.Sender.Contact)
	}

	msg, err := s.svc.Messages.Append(r.Context(), chi.URLParam(r, "projectID"), sender, req.Message)
	if err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"message": msg})
}

func (s *Server) handleGetFileTree(w http.ResponseWriter, r *http.Request) {
	tree, err := s.svc.Trees.Get(r.Context(), chi.URLParam(r, "projectID"))
	if err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"fileTree": tree})
}

func (s *Server) handleReplaceFileTree(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FileTree filetree.Tree `json:"fileTree"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.FileTree == nil {
		writeError(w, http.StatusBadRequest, "file tree is required")
		return
	}

	projectID := chi.URLParam(r, "projectID")
	if err := s.svc.Trees.Replace(r.Context(), projectID, req.FileTree); err != nil {
		s.respondError(w, err)
		return
	}
	tree, err := s.svc.Trees.Get(r.Context(), projectID)
	if err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"fileTree": tree})
}

// respondError maps domain errors onto the structured {error} body. Internal
// detail never leaves the process.
func (s *Server) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, project.ErrInvalidID),
		errors.Is(err, project.ErrInvalidInput),
		errors.Is(err, user.ErrInvalidInput),
		errors.Is(err, message.ErrInvalidInput),
		errors.Is(err, message.ErrInvalidSender),
		errors.Is(err, filetree.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, project.ErrNotMember):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, project.ErrProjectNotFound),
		errors.Is(err, project.ErrUnknownUser),
		errors.Is(err, user.ErrUserNotFound),
		errors.Is(err, message.ErrProjectNotFound),
		errors.Is(err, filetree.ErrProjectNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, project.ErrNameTaken),
		errors.Is(err, user.ErrEmailTaken):
		writeError(w, http.StatusConflict, err.Error())
	default:
		s.logger.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := decodeJSON(r, v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func requireClaims(w http.ResponseWriter, r *http.Request) (*auth.Claims, bool) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing-token")
		return nil, false
	}
	return claims, true
}
