package customfields

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/google/uuid"

	"github.com/sharedschema/tenantkit/pkg/tenant"
	"github.com/sharedschema/tenantkit/pkg/validator"
)

// FieldValidator checks a coerced value. The value is already of the
// field's canonical Go type when the validator runs.
type FieldValidator func(value any) error

// Registry manages field definitions for the ambient tenant and validates
// payloads against them. All operations fail closed without an ambient
// tenant.
type Registry struct {
	store      DefinitionStore
	validators map[string]FieldValidator
	log        *slog.Logger
}

// RegistryOption configures the registry.
type RegistryOption func(*Registry)

// WithFieldValidator registers a named validator that definitions can
// reference.
func WithFieldValidator(name string, fn FieldValidator) RegistryOption {
	return func(r *Registry) { r.validators[name] = fn }
}

// WithRegistryLogger sets the logger.
func WithRegistryLogger(log *slog.Logger) RegistryOption {
	return func(r *Registry) {
		if log != nil {
			r.log = log
		}
	}
}

func NewRegistry(store DefinitionStore, opts ...RegistryOption) *Registry {
	r := &Registry{
		store:      store,
		validators: make(map[string]FieldValidator),
		log:        slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// DefineInput describes a new field.
type DefineInput struct {
	Target     Target
	Name       string
	Label      string
	Type       DataType
	Required   bool
	Default    any // raw; coerced and stored as text
	Validators []string
}

// Define creates a field for the ambient tenant. Configuration problems
// (unknown type, unregistered validator, uncoercible default) fail here
// with ErrInvalidTypeConfiguration so they can never surface on a write.
func (r *Registry) Define(ctx context.Context, in DefineInput) (*Definition, error) {
	slug, ok := tenant.SlugFromContext(ctx)
	if !ok {
		return nil, tenant.ErrNoTenantInContext
	}

	if err := r.checkConfig(in.Type, in.Validators); err != nil {
		return nil, err
	}
	if !ValidFieldName(in.Name) {
		return nil, fmt.Errorf("%w: invalid field name %q", ErrInvalidTypeConfiguration, in.Name)
	}

	def := &Definition{
		ID:         uuid.New(),
		TenantSlug: slug,
		Target:     in.Target,
		Name:       in.Name,
		Label:      in.Label,
		Type:       in.Type,
		Required:   in.Required,
		Validators: slices.Clone(in.Validators),
	}
	if in.Default != nil {
		text, err := FormatDefault(in.Type, in.Default)
		if err != nil {
			return nil, fmt.Errorf("%w: default: %s", ErrInvalidTypeConfiguration, err)
		}
		def.Default = &text
	}

	if err := r.store.Insert(ctx, def); err != nil {
		return nil, err
	}
	r.log.InfoContext(ctx, "field defined",
		slog.String("tenant", slug),
		slog.String("field", def.Name),
		slog.String("type", string(def.Type)))
	return def, nil
}

// UpdateInput carries the mutable parts of a definition. Nil means keep
// the current value; ClearDefault drops the default explicitly.
type UpdateInput struct {
	Label        *string
	Required     *bool
	Default      any
	ClearDefault bool
	Validators   []string
}

// Update mutates a definition owned by the ambient tenant. Making a field
// required while leaving it defaultless is rejected once values exist,
// because entities written before the change could no longer be read back
// consistently.
func (r *Registry) Update(ctx context.Context, id uuid.UUID, in UpdateInput) (*Definition, error) {
	def, err := r.get(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Label != nil {
		def.Label = *in.Label
	}
	if in.Required != nil {
		def.Required = *in.Required
	}
	if in.ClearDefault {
		def.Default = nil
	} else if in.Default != nil {
		text, err := FormatDefault(def.Type, in.Default)
		if err != nil {
			return nil, fmt.Errorf("%w: default: %s", ErrInvalidTypeConfiguration, err)
		}
		def.Default = &text
	}
	if in.Validators != nil {
		if err := r.checkConfig(def.Type, in.Validators); err != nil {
			return nil, err
		}
		def.Validators = slices.Clone(in.Validators)
	}

	if def.Required && def.Default == nil {
		populated, err := r.store.HasValues(ctx, def.ID)
		if err != nil {
			return nil, err
		}
		if populated {
			return nil, validator.ValidationErrors{{
				Field:   "required",
				Message: "cannot require a field without a default once values exist",
			}}
		}
	}

	if err := r.store.Update(ctx, def); err != nil {
		return nil, err
	}
	return def, nil
}

// Delete removes a definition and cascades its stored values in the same
// transaction, so a half-deleted field can never be observed.
func (r *Registry) Delete(ctx context.Context, id uuid.UUID) error {
	def, err := r.get(ctx, id)
	if err != nil {
		return err
	}
	if err := r.store.DeleteCascade(ctx, def.ID); err != nil {
		return err
	}
	r.log.InfoContext(ctx, "field deleted",
		slog.String("tenant", def.TenantSlug),
		slog.String("field", def.Name))
	return nil
}

// Get returns a definition owned by the ambient tenant.
func (r *Registry) Get(ctx context.Context, id uuid.UUID) (*Definition, error) {
	return r.get(ctx, id)
}

// ListFor returns the ambient tenant's definitions against target, in
// creation order.
func (r *Registry) ListFor(ctx context.Context, target Target) ([]*Definition, error) {
	slug, ok := tenant.SlugFromContext(ctx)
	if !ok {
		return nil, tenant.ErrNoTenantInContext
	}
	return r.store.ListFor(ctx, slug, target)
}

// Validate coerces payload against defs and runs each field's validator
// chain. The chain stops at the field's first failure; failures accumulate
// across fields. On success the returned map holds canonical values with
// defaults filled in for absent fields on full writes.
func (r *Registry) Validate(defs []*Definition, payload map[string]any, partial bool) (map[string]any, error) {
	byName := make(map[string]*Definition, len(defs))
	for _, def := range defs {
		byName[def.Name] = def
	}

	var errs validator.ValidationErrors
	out := make(map[string]any, len(payload))

	for name := range payload {
		if _, ok := byName[name]; !ok {
			errs.Add(name, "unknown field")
		}
	}

	for _, def := range defs {
		raw, present := payload[def.Name]
		if !present {
			if partial {
				continue
			}
			if dv, ok := def.DefaultValue(); ok {
				out[def.Name] = dv
				continue
			}
			if def.Required {
				errs.Add(def.Name, "field is required")
			}
			continue
		}

		value, err := Coerce(def.Type, raw)
		if err != nil {
			errs.Add(def.Name, err.Error())
			continue
		}

		failed := false
		for _, vname := range def.Validators {
			fn, ok := r.validators[vname]
			if !ok {
				// Unreachable for definitions created through Define; a
				// registry restarted without the validator is config drift.
				errs.Add(def.Name, fmt.Sprintf("validator %q is not registered", vname))
				failed = true
				break
			}
			if verr := fn(value); verr != nil {
				errs.Add(def.Name, verr.Error())
				failed = true
				break
			}
		}
		if !failed {
			out[def.Name] = value
		}
	}

	if !errs.IsEmpty() {
		return nil, errs
	}
	return out, nil
}

func (r *Registry) get(ctx context.Context, id uuid.UUID) (*Definition, error) {
	slug, ok := tenant.SlugFromContext(ctx)
	if !ok {
		return nil, tenant.ErrNoTenantInContext
	}
	def, err := r.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if def.TenantSlug != slug {
		return nil, ErrFieldNotFound
	}
	return def, nil
}

func (r *Registry) checkConfig(d DataType, validators []string) error {
	if !d.Valid() {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidTypeConfiguration, d)
	}
	for _, name := range validators {
		if _, ok := r.validators[name]; !ok {
			return fmt.Errorf("%w: validator %q is not registered", ErrInvalidTypeConfiguration, name)
		}
	}
	return nil
}
