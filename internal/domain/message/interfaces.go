package message

import "context"

// Repository provides append-only ordered persistence for messages.
type Repository interface {
	Append(ctx context.Context, msg *Message) error
	List(ctx context.Context, projectID string) ([]Message, error)
}
