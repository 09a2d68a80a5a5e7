package message

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/devroom/devroom/internal/repository"
	"github.com/google/uuid"
)

// Service is the message store: append-only, ordered persistence of chat
// events scoped to a project.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService creates a new message service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Append persists msg as the new last element of the project's sequence and
// returns the persisted record with its server-assigned timestamp. The
// relative order of appends issued by the caller for one project is the
// persisted order; callers serialize per project.
func (s *Service) Append(ctx context.Context, projectID string, sender Sender, body string) (*Message, error) {
	if _, err := uuid.Parse(projectID); err != nil {
		return nil, ErrInvalidInput
	}
	if body == "" {
		return nil, ErrInvalidInput
	}
	if err := sender.Validate(); err != nil {
		return nil, err
	}

	msg := &Message{
		ID:        uuid.NewString(),
		ProjectID: projectID,
		Sender:    sender,
		Body:      body,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.repo.Append(ctx, msg); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("appending message: %w", err)
	}

	return msg, nil
}

// List returns the full ordered sequence for a project; an empty sequence if
// the project has no messages yet.
func (s *Service) List(ctx context.Context, projectID string) ([]Message, error) {
	if _, err := uuid.Parse(projectID); err != nil {
		return nil, ErrInvalidInput
	}
	msgs, err := s.repo.List(ctx, projectID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("listing messages: %w", err)
	}
	return msgs, nil
}
