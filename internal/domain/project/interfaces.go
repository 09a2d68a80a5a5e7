package project

import (
	"context"

	"github.com/devroom/devroom/internal/domain/user"
)

// Repository provides persistence for projects and their membership.
type Repository interface {
	Create(ctx context.Context, proj *Project) error
	Get(ctx context.Context, id string) (*Project, error)
	ListForUser(ctx context.Context, userID string) ([]Project, error)
	GetMembers(ctx context.Context, projectID string) ([]user.User, error)
	AddMembers(ctx context.Context, projectID string, userIDs []string) error
	RemoveMember(ctx context.Context, projectID, userID string) error
}
