// Package transport wires the HTTP surface: REST CRUD for projects, users,
// messages, and file trees, plus health and metrics endpoints.
package transport

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/devroom/devroom/internal/domain/filetree"
	"github.com/devroom/devroom/internal/domain/message"
	"github.com/devroom/devroom/internal/domain/project"
	"github.com/devroom/devroom/internal/domain/user"
	"github.com/devroom/devroom/internal/telemetry"
)

// Services bundles the domain services the HTTP layer exposes.
type Services struct {
	Users    *user.Service
	Projects *project.Service
	Messages *message.Service
	Trees    *filetree.Service
}

// Server holds HTTP handler state.
type Server struct {
	svc    Services
	logger *slog.Logger
}

// NewRouter creates the HTTP router. The websocket handler is mounted
// outside the REST auth middleware because its admission reads the token
// itself (header or query parameter).
func NewRouter(svc Services, authMiddleware func(http.Handler) http.Handler, wsHandler http.HandlerFunc, logger *slog.Logger) *chi.Mux {
	r := chi.NewRouter()

	srv := &Server{svc: svc, logger: logger}

	r.Get("/health", srv.handleHealth)
	r.Handle("/metrics", telemetry.Handler())
	r.Get("/ws", wsHandler)

	r.Group(func(r chi.Router) {
		if authMiddleware != nil {
			r.Use(authMiddleware)
		}

		r.Route("/users", func(r chi.Router) {
			r.Post("/", srv.handleCreateUser)
			r.Get("/", srv.handleListUsers)
		})

		r.Route("/projects", func(r chi.Router) {
			r.Post("/", srv.handleCreateProject)
			r.Get("/", srv.handleListProjects)
			r.Put("/add-user", srv.handleAddUsers)
			r.Put("/remove-user", srv.handleRemoveUser)
			r.Get("/{projectID}", srv.handleGetProject)
			r.Get("/{projectID}/messages", srv.handleListMessages)
			r.Post("/{projectID}/messages", srv.handleAppendMessage)
			r.Get("/{projectID}/file-tree", srv.handleGetFileTree)
			r.Put("/{projectID}/file-tree", srv.handleReplaceFileTree)
		})
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, reason string) {
	writeJSON(w, status, map[string]string{"error": reason})
}
