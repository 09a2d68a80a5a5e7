package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/devroom/devroom/internal/domain/filetree"
	"github.com/devroom/devroom/internal/domain/message"
	"github.com/devroom/devroom/internal/domain/project"
	"github.com/devroom/devroom/internal/domain/user"
)

// UserRepository is a mock for repository.UserRepository.
type UserRepository struct {
	mock.Mock
}

func (m *UserRepository) Create(ctx context.Context, u *user.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *UserRepository) Get(ctx context.Context, id string) (*user.User, error) {
	args := m.Called(ctx, id)
	if u, ok := args.Get(0).(*user.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *UserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	args := m.Called(ctx, email)
	if u, ok := args.Get(0).(*user.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *UserRepository) List(ctx context.Context) ([]user.User, error) {
	args := m.Called(ctx)
	if list, ok := args.Get(0).([]user.User); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// ProjectRepository is a mock for repository.ProjectRepository.
type ProjectRepository struct {
	mock.Mock
}

func (m *ProjectRepository) Create(ctx context.Context, proj *project.Project) error {
	args := m.Called(ctx, proj)
	return args.Error(0)
}

func (m *ProjectRepository) Get(ctx context.Context, id string) (*project.Project, error) {
	args := m.Called(ctx, id)
	if proj, ok := args.Get(0).(*project.Project); ok {
		return proj, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProjectRepository) ListForUser(ctx context.Context, userID string) ([]project.Project, error) {
	args := m.Called(ctx, userID)
	if list, ok := args.Get(0).([]project.Project); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProjectRepository) GetMembers(ctx context.Context, projectID string) ([]user.User, error) {
	args := m.Called(ctx, projectID)
	if list, ok := args.Get(0).([]user.User); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProjectRepository) AddMembers(ctx context.Context, projectID string, userIDs []string) error {
	args := m.Called(ctx, projectID, userIDs)
	return args.Error(0)
}

func (m *ProjectRepository) RemoveMember(ctx context.Context, projectID, userID string) error {
	args := m.Called(ctx, projectID, userID)
	return args.Error(0)
}

// MessageRepository is a mock for repository.MessageRepository.
type MessageRepository struct {
	mock.Mock
}

func (m *MessageRepository) Append(ctx context.Context, msg *message.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *MessageRepository) List(ctx context.Context, projectID string) ([]message.Message, error) {
	args := m.Called(ctx, projectID)
	if list, ok := args.Get(0).([]message.Message); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// FileTreeRepository is a mock for repository.FileTreeRepository.
type FileTreeRepository struct {
	mock.Mock
}

func (m *FileTreeRepository) Replace(ctx context.Context, projectID string, tree filetree.Tree) error {
	args := m.Called(ctx, projectID, tree)
	return args.Error(0)
}

func (m *FileTreeRepository) Get(ctx context.Context, projectID string) (filetree.Tree, error) {
	args := m.Called(ctx, projectID)
	if tree, ok := args.Get(0).(filetree.Tree); ok {
		return tree, args.Error(1)
	}
	return nil, args.Error(1)
}
