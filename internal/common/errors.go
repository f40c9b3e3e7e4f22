// Package common defines shared constants and sentinel errors used across
// client and server layers of SafeCircle. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal      = errors.New("internal error")
	ErrorUnauthorized  = errors.New("unauthorized")
	ErrInvalidArgument = errors.New("invalid argument")

	// Retryable store failures (timeouts, dropped connections).
	ErrTransient = errors.New("store temporarily unavailable")

	// Conflicts.
	ErrAlreadyExists   = errors.New("already exists")
	ErrNameConflict    = errors.New("group name already taken")
	ErrSessionConflict = errors.New("account has an active session on another device")

	// Membership errors.
	ErrNotMember = errors.New("not a member of the group")

	// Auth errors.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token expired")
)
