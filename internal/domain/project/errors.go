package project

import "errors"

var (
	// ErrProjectNotFound indicates the project doesn't exist.
	ErrProjectNotFound = errors.New("project not found")
	// ErrInvalidID indicates a malformed project identifier.
	ErrInvalidID = errors.New("invalid project id")
	// ErrInvalidInput indicates invalid project input.
	ErrInvalidInput = errors.New("invalid project input")
	// ErrNameTaken indicates the project name is already in use.
	ErrNameTaken = errors.New("project name already in use")
	// ErrNotMember indicates the acting user is not a project member.
	ErrNotMember = errors.New("not a project member")
	// ErrUnknownUser indicates a member id that resolves to no registered user.
	ErrUnknownUser = errors.New("unknown user")
)
