package membership

import "errors"

var (
	ErrUnknownPrincipal = errors.New("unknown principal")

	// ErrConflictingIdentity marks a record whose identity fields collide
	// with a different stored user, such as a reused email address.
	ErrConflictingIdentity = errors.New("conflicting identity")
)
