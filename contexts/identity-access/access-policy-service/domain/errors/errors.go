package errors

import "errors"

var (
	ErrInvalidIdentity    = errors.New("invalid identity")
	ErrInvalidRole        = errors.New("invalid role")
	ErrInvalidActor       = errors.New("invalid acting identity")
	ErrUnauthorized       = errors.New("actor lacks required role")
	ErrRoleAlreadyGranted = errors.New("role already granted")
	ErrRoleNotGranted     = errors.New("role not granted")
	ErrConflict           = errors.New("conflicting policy write")
	ErrNotFound           = errors.New("policy record not found")
)
