package store

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when no entity with the given id exists.
	ErrNotFound = errors.New("roamdb: entity not found")

	// ErrAlreadyExists is returned when inserting an entity whose id is
	// already present. The stored entity is never overwritten.
	ErrAlreadyExists = errors.New("roamdb: entity already exists")

	// ErrInvalid is the sentinel all validation failures unwrap to. The
	// concrete error is a *ValidationError naming the offending field.
	ErrInvalid = errors.New("roamdb: invalid entity")

	// ErrInconsistent is returned when an index bucket references an entity
	// the corresponding table does not contain. It can only arise from a
	// store bug and is never mapped to a client validation message.
	ErrInconsistent = errors.New("roamdb: index out of sync with entity tables")

	// ErrStoreFailed is returned once a mutation has panicked inside the
	// critical section. The store is unusable; retrying cannot help.
	ErrStoreFailed = errors.New("roamdb: store failed mid-mutation")
)

// ValidationError reports a field-level constraint violation or a foreign
// key that does not resolve. It rejects the whole operation with no partial
// effect.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("roamdb: invalid %s: %s", e.Field, e.Reason)
}

// Unwrap makes errors.Is(err, ErrInvalid) hold for every validation failure.
func (e *ValidationError) Unwrap() error {
	return ErrInvalid
}
