package filetree

import "context"

// Repository provides whole-tree persistence for project file trees.
type Repository interface {
	Replace(ctx context.Context, projectID string, tree Tree) error
	Get(ctx context.Context, projectID string) (Tree, error)
}
