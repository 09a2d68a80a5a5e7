package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/devroom/devroom/internal/domain/message"
	"github.com/devroom/devroom/internal/repository"
)

// MessageRepository implements repository.MessageRepository for SQLite.
// Appends are atomic: either the full row is visible or nothing is.
type MessageRepository struct {
	db *DB
}

// NewMessageRepository creates a new MessageRepository
func NewMessageRepository(db *DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// Append persists the message as the new last element of the project's
// sequence. Returns repository.ErrNotFound if the project doesn't exist.
func (r *MessageRepository) Append(ctx context.Context, msg *message.Message) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := projectExistsTx(ctx, tx, msg.ProjectID); err != nil {
		return err
	}

	query := `
		INSERT INTO messages (id, project_id, sender_kind, sender_id, sender_contact, body, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err = tx.ExecContext(ctx, query,
		msg.ID,
		msg.ProjectID,
		string(msg.Sender.Kind),
		msg.Sender.ID,
		msg.Sender.Contact,
		msg.Body,
		msg.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append message: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// List returns the project's full message sequence in append order.
// Returns repository.ErrNotFound if the project doesn't exist.
func (r *MessageRepository) List(ctx context.Context, projectID string) ([]message.Message, error) {
	var one int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM projects WHERE id = ?`, projectID).Scan(&one)
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to check project: %w", err)
	}

	query := `
		SELECT id, project_id, sender_kind, sender_id, sender_contact, body, created_at
		FROM messages
		WHERE project_id = ?
		ORDER BY seq ASC
	`

	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	msgs := []message.Message{}
	for rows.Next() {
		var msg message.Message
		var kind string
		err := rows.Scan(
			&msg.ID,
			&msg.ProjectID,
			&kind,
			&msg.Sender.ID,
			&msg.Sender.Contact,
			&msg.Body,
			&msg.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		msg.Sender.Kind = message.SenderKind(kind)
		msgs = append(msgs, msg)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating message rows: %w", err)
	}

	return msgs, nil
}
