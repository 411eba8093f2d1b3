package customfields

import (
	"context"
	"regexp"
	"time"

	"github.com/google/uuid"
)

// Definition is one tenant's custom field against a target. Unique on
// (tenant, target, name). Default is stored as text and coerced to the
// field's type at read time; nil means no default.
type Definition struct {
	ID         uuid.UUID
	TenantSlug string
	Target     Target
	Name       string
	Label      string
	Type       DataType
	Required   bool
	Default    *string
	Validators []string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// DefaultValue returns the coerced default, or (nil, false) when the
// definition has none.
func (d *Definition) DefaultValue() (any, bool) {
	if d.Default == nil {
		return nil, false
	}
	v, err := CoerceDefault(d.Type, *d.Default)
	if err != nil {
		return nil, false
	}
	return v, true
}

var fieldNameRe = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// ValidFieldName reports whether name is usable as a dynamic column:
// lowercase identifier, no leading digit or underscore.
func ValidFieldName(name string) bool {
	return name != "" && len(name) <= 63 && fieldNameRe.MatchString(name)
}

// DefinitionStore persists field definitions. Implementations map their
// storage-level duplicate errors to ErrDuplicateField and missing rows to
// ErrFieldNotFound.
type DefinitionStore interface {
	Insert(ctx context.Context, def *Definition) error
	Get(ctx context.Context, id uuid.UUID) (*Definition, error)
	// ListFor returns the tenant's definitions against target in creation
	// order, name as tiebreak.
	ListFor(ctx context.Context, tenantSlug string, target Target) ([]*Definition, error)
	Update(ctx context.Context, def *Definition) error
	// DeleteCascade removes the definition and every stored value for it in
	// one transaction.
	DeleteCascade(ctx context.Context, id uuid.UUID) error
	// HasValues reports whether any entity stores a value for the
	// definition.
	HasValues(ctx context.Context, id uuid.UUID) (bool, error)
}
