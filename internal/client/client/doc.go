// Package client contains the gRPC client used by the SafeCircle CLI.
//
// # Overview
//
// GRPCClient manages a connection to the backend, injects the session token
// and device id into every call through an interceptor, and keeps the state
// a polling client needs between calls: the last reported position, the
// current group and the sync cursors.
//
// # Error Handling
//
// gRPC status codes are mapped to sentinel errors that callers can match
// with errors.Is: ErrUnavailable, ErrUnauthorized, ErrNotLoggedIn,
// ErrSessionConflict, ErrNotMember, ErrNotFound, ErrAlreadyExists and
// ErrInvalidInput.
//
// Concurrency & Contexts
//
// GRPCClient is safe for concurrent use; the CLI polls Sync from a
// background goroutine while commands run. All operations accept
// context.Context and honor cancellation.
package client
