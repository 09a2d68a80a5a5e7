package filetree

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/devroom/devroom/internal/repository"
	"github.com/google/uuid"
)

// Service is the file tree store. Replacement is wholesale: the entire
// previous tree is discarded, no path-level merge.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService creates a new file tree service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Replace atomically overwrites the stored tree for the project.
func (s *Service) Replace(ctx context.Context, projectID string, tree Tree) error {
	if _, err := uuid.Parse(projectID); err != nil {
		return ErrInvalidInput
	}
	if tree == nil {
		tree = Tree{}
	}
	if err := s.repo.Replace(ctx, projectID, tree); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrProjectNotFound
		}
		return fmt.Errorf("replacing file tree: %w", err)
	}
	return nil
}

// Get returns the current tree for the project.
func (s *Service) Get(ctx context.Context, projectID string) (Tree, error) {
	if _, err := uuid.Parse(projectID); err != nil {
		return nil, ErrInvalidInput
	}
	tree, err := s.repo.Get(ctx, projectID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("getting file tree: %w", err)
	}
	return tree, nil
}
