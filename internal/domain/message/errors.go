package message

import "errors"

var (
	// ErrProjectNotFound indicates the target project doesn't exist.
	ErrProjectNotFound = errors.New("project not found")
	// ErrInvalidInput indicates invalid message input.
	ErrInvalidInput = errors.New("invalid message input")
	// ErrInvalidSender indicates a sender outside the {human, ai} variants.
	ErrInvalidSender = errors.New("invalid sender")
)
