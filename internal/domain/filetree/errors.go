package filetree

import "errors"

var (
	// ErrProjectNotFound indicates the target project doesn't exist.
	ErrProjectNotFound = errors.New("project not found")
	// ErrInvalidInput indicates invalid file tree input.
	ErrInvalidInput = errors.New("invalid file tree input")
)
