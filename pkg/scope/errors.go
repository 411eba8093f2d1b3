package scope

import "errors"

var (
	// ErrNotFound is returned when an entity does not exist or belongs to
	// another tenant. The two cases are deliberately indistinguishable.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicateID is returned when inserting an entity whose ID is
	// already taken.
	ErrDuplicateID = errors.New("duplicate entity id")

	// ErrInvalidConfig is returned when a collection is constructed with
	// incomplete mapping configuration.
	ErrInvalidConfig = errors.New("invalid collection config")
)
