package customfields

import "errors"

var (
	// ErrInvalidTypeConfiguration is a configuration error: an unknown data
	// type, an unregistered validator or an uncoercible default. Fails at
	// definition time, never at write time.
	ErrInvalidTypeConfiguration = errors.New("invalid field type configuration")

	// ErrDuplicateField is returned when the tenant already has a field of
	// that name against the same target. User-correctable.
	ErrDuplicateField = errors.New("field already defined")

	// ErrFieldNotFound is returned when a definition does not exist or
	// belongs to another tenant.
	ErrFieldNotFound = errors.New("field definition not found")

	// ErrDuplicateTable is returned when the tenant already has a custom
	// table of that name.
	ErrDuplicateTable = errors.New("table already exists")

	// ErrTableNotFound is returned when a custom table does not exist or
	// belongs to another tenant.
	ErrTableNotFound = errors.New("table not found")

	// ErrRowNotFound is returned when a row does not exist in the table.
	ErrRowNotFound = errors.New("row not found")

	// ErrInvalidFilter is returned when a query references an unknown field
	// or applies an operator the field's type does not support.
	ErrInvalidFilter = errors.New("invalid filter")
)
