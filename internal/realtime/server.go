// Package realtime carries the room-scoped session transport: connection
// admission, the websocket read/write loops, and the chat orchestrator.
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"nhooyr.io/websocket"

	"github.com/devroom/devroom/internal/auth"
	"github.com/devroom/devroom/internal/domain/message"
	"github.com/devroom/devroom/internal/domain/project"
	"github.com/devroom/devroom/internal/room"
	"github.com/devroom/devroom/internal/telemetry"
)

// EventProjectMessage is the chat event name on both directions of the wire.
const EventProjectMessage = "project-message"

// EventError carries an error back to the origin connection only.
const EventError = "error"

const maxWSReadBytes = 1 << 20

// Admission rejection reasons.
const (
	reasonInvalidProjectID = "invalid-project-id"
	reasonProjectNotFound  = "project-not-found"
	reasonMissingToken     = "missing-token"
	reasonAuthFailed       = "auth-failed"
)

// envelope frames every websocket message.
type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// chatPayload is the client->server project-message body.
type chatPayload struct {
	Sender  senderPayload `json:"sender"`
	Message string        `json:"message"`
}

type senderPayload struct {
	ID      string `json:"id"`
	Contact string `json:"contact"`
}

// ProjectResolver checks that a project identifier resolves.
type ProjectResolver interface {
	Get(ctx context.Context, id string) (*project.Project, error)
}

// Server admits websocket connections into project rooms and feeds their
// chat events to the orchestrator.
type Server struct {
	projects       ProjectResolver
	tokens         auth.Verifier
	hub            *room.Hub
	orch           *Orchestrator
	logger         *slog.Logger
	originPatterns []string
}

// NewServer creates the realtime session server.
func NewServer(projects ProjectResolver, tokens auth.Verifier, hub *room.Hub, orch *Orchestrator, logger *slog.Logger, originPatterns []string) *Server {
	return &Server{
		projects:       projects,
		tokens:         tokens,
		hub:            hub,
		orch:           orch,
		logger:         logger,
		originPatterns: originPatterns,
	}
}

// HandleWS is the connection handshake. Admission runs before the upgrade:
// a rejected attempt never joins a room and never gets to send traffic.
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	projectID := r.URL.Query().Get("projectId")
	if err := project.ValidateID(projectID); err != nil {
		rejectHandshake(w, http.StatusBadRequest, reasonInvalidProjectID)
		return
	}
	if _, err := s.projects.Get(r.Context(), projectID); err != nil {
		if errors.Is(err, project.ErrProjectNotFound) {
			rejectHandshake(w, http.StatusNotFound, reasonProjectNotFound)
			return
		}
		s.logger.Error("admission: project lookup failed", "project", projectID, "error", err)
		rejectHandshake(w, http.StatusInternalServerError, "internal")
		return
	}

	token := auth.BearerToken(r)
	if token == "" {
		token = r.URL.Query().Get("token")
	}
	if token == "" {
		rejectHandshake(w, http.StatusUnauthorized, reasonMissingToken)
		return
	}
	claims, err := s.tokens.Verify(token)
	if err != nil {
		rejectHandshake(w, http.StatusUnauthorized, reasonAuthFailed)
		return
	}

	opts := &websocket.AcceptOptions{}
	if len(s.originPatterns) > 0 {
		opts.OriginPatterns = s.originPatterns
	} else {
		opts.InsecureSkipVerify = true
	}

	conn, err := websocket.Accept(w, r, opts)
	if err != nil {
		s.logger.Warn("websocket accept failed", "error", err)
		return
	}
	conn.SetReadLimit(maxWSReadBytes)

	s.serveConn(r.Context(), conn, projectID, claims)
}

// serveConn owns the connection lifecycle after admission: join the room,
// pump the write queue, consume inbound events until the peer goes away.
func (s *Server) serveConn(parent context.Context, conn *websocket.Conn, projectID string, claims *auth.Claims) {
	client := s.hub.Join(projectID, conn)
	telemetry.ConnectionsOpen.Inc()
	defer telemetry.ConnectionsOpen.Dec()

	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	go func() {
		defer cancel()
		s.readLoop(ctx, client, projectID, claims)
	}()

	go func() {
		if err := client.WriteLoop(ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Debug("websocket write error", "project", projectID, "error", err)
		}
		cancel()
	}()

	<-ctx.Done()
	s.hub.Leave(client)
	client.Close(websocket.StatusNormalClosure, "closing")
}

func (s *Server) readLoop(ctx context.Context, client *room.Client, projectID string, claims *auth.Claims) {
	for {
		data, err := client.Read(ctx)
		if err != nil {
			return
		}

		var env envelope
		if err := json.Unmarshal(data, &env); err != nil {
			s.sendError(client, "invalid-frame")
			continue
		}

		switch env.Event {
		case EventProjectMessage:
			s.handleChatEvent(ctx, client, projectID, claims, env.Data)
		default:
			s.sendError(client, "unknown-event")
		}
	}
}

func (s *Server) handleChatEvent(ctx context.Context, client *room.Client, projectID string, claims *auth.Claims, data json.RawMessage) {
	var payload chatPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		s.sendError(client, "invalid-frame")
		return
	}

	sender := message.HumanSender(payload.Sender.ID, payload.Sender.Contact)
	if payload.Sender.ID == "" {
		sender = message.HumanSender(claims.UserID, claims.Email)
	}

	if err := s.orch.HandleChat(ctx, client, projectID, sender, payload.Message); err != nil {
		// The event was abandoned before any broadcast; only the origin
		// hears about it.
		s.sendError(client, chatErrorReason(err))
	}
}

func (s *Server) sendError(client *room.Client, reason string) {
	client.SendJSON(envelope{
		Event: EventError,
		Data:  mustRaw(map[string]string{"error": reason}),
	})
}

func chatErrorReason(err error) string {
	switch {
	case errors.Is(err, message.ErrProjectNotFound):
		return reasonProjectNotFound
	case errors.Is(err, message.ErrInvalidInput), errors.Is(err, message.ErrInvalidSender):
		return "invalid-message"
	default:
		return "persist-failed"
	}
}

func rejectHandshake(w http.ResponseWriter, status int, reason string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": reason})
}
