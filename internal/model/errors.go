package model

import "errors"

// Domain error taxonomy. Services return these sentinels (usually
// wrapped); transports map them to their own status or event codes.
var (
	// ErrNotFound covers both "does not exist" and "exists in another
	// tenant". Callers cannot tell the two apart, so a task id can never
	// be used to probe for existence across tenants.
	ErrNotFound = errors.New("not found")

	// ErrForbidden means the access evaluator denied the operation.
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidState covers invariant violations: both or neither
	// assignee set, non-positive sub-task weight, a message with
	// neither content nor attachment.
	ErrInvalidState = errors.New("invalid state")

	// ErrUnauthenticated means the credential presented at handshake
	// was missing or invalid.
	ErrUnauthenticated = errors.New("unauthenticated")
)
