package project

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/devroom/devroom/internal/repository"
	"github.com/google/uuid"
)

// Service handles project operations.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService creates a new project service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// NormalizeName lowercases and trims a project name.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// ValidateID checks that id is a syntactically valid project identifier.
func ValidateID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrInvalidID
	}
	return nil
}

// Create creates a new project owned by ownerID. Names are case-normalized,
// trimmed, and unique.
func (s *Service) Create(ctx context.Context, ownerID, name string) (*Project, error) {
	name = NormalizeName(name)
	if name == "" || ownerID == "" {
		return nil, ErrInvalidInput
	}

	proj := &Project{
		ID:        uuid.NewString(),
		Name:      name,
		Members:   []string{ownerID},
		CreatedAt: time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, proj); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrNameTaken
		}
		if errors.Is(err, repository.ErrForeignKeyViolation) {
			return nil, ErrUnknownUser
		}
		return nil, fmt.Errorf("creating project: %w", err)
	}

	return proj, nil
}

// Get fetches a project by ID.
func (s *Service) Get(ctx context.Context, id string) (*Project, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}
	proj, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("getting project: %w", err)
	}
	return proj, nil
}

// GetDetail fetches a project with member identities resolved to user records.
func (s *Service) GetDetail(ctx context.Context, id string) (*Detail, error) {
	proj, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	members, err := s.repo.GetMembers(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("resolving members: %w", err)
	}
	return &Detail{Project: *proj, MemberDetails: members}, nil
}

// ListForUser returns every project the user is a member of.
func (s *Service) ListForUser(ctx context.Context, userID string) ([]Project, error) {
	return s.repo.ListForUser(ctx, userID)
}

// AddMembers adds collaborators to a project. Only an existing member may
// add others.
func (s *Service) AddMembers(ctx context.Context, actorID, projectID string, userIDs []string) (*Project, error) {
	if len(userIDs) == 0 {
		return nil, ErrInvalidInput
	}
	proj, err := s.Get(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !slices.Contains(proj.Members, actorID) {
		return nil, ErrNotMember
	}

	if err := s.repo.AddMembers(ctx, projectID, userIDs); err != nil {
		if errors.Is(err, repository.ErrForeignKeyViolation) {
			return nil, ErrUnknownUser
		}
		return nil, fmt.Errorf("adding members: %w", err)
	}
	return s.Get(ctx, projectID)
}

// RemoveMember removes a collaborator from a project. Only an existing
// member may remove others.
func (s *Service) RemoveMember(ctx context.Context, actorID, projectID, userID string) (*Project, error) {
	if userID == "" {
		return nil, ErrInvalidInput
	}
	proj, err := s.Get(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !slices.Contains(proj.Members, actorID) {
		return nil, ErrNotMember
	}

	if err := s.repo.RemoveMember(ctx, projectID, userID); err != nil {
		return nil, fmt.Errorf("removing member: %w", err)
	}
	return s.Get(ctx, projectID)
}
