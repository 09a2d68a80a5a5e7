package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/devroom/devroom/internal/domain/filetree"
	"github.com/devroom/devroom/internal/repository"
)

// FileTreeRepository implements repository.FileTreeRepository for SQLite.
// The tree lives as one serialized column on the project row, so every
// replacement is a single atomic document update (last write wins).
type FileTreeRepository struct {
	db *DB
}

// NewFileTreeRepository creates a new FileTreeRepository
func NewFileTreeRepository(db *DB) *FileTreeRepository {
	return &FileTreeRepository{db: db}
}

// Replace overwrites the stored tree wholesale.
func (r *FileTreeRepository) Replace(ctx context.Context, projectID string, tree filetree.Tree) error {
	data, err := json.Marshal(tree)
	if err != nil {
		return fmt.Errorf("failed to marshal file tree: %w", err)
	}

	result, err := r.db.ExecContext(ctx,
		`UPDATE projects SET file_tree = ? WHERE id = ?`,
		string(data), projectID,
	)
	if err != nil {
		return fmt.Errorf("failed to replace file tree: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// Get returns the current tree for the project.
func (r *FileTreeRepository) Get(ctx context.Context, projectID string) (filetree.Tree, error) {
	var data string
	err := r.db.QueryRowContext(ctx,
		`SELECT file_tree FROM projects WHERE id = ?`, projectID,
	).Scan(&data)

	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get file tree: %w", err)
	}

	tree := filetree.Tree{}
	if err := json.Unmarshal([]byte(data), &tree); err != nil {
		return nil, fmt.Errorf("failed to unmarshal file tree: %w", err)
	}

	return tree, nil
}
