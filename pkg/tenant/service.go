package tenant

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/sharedschema/tenantkit/pkg/slug"
	"github.com/sharedschema/tenantkit/pkg/validator"
)

// Service is the application-facing surface for tenant lifecycle and
// attribute updates. All writes go through the schema validation pipeline.
type Service struct {
	store     Store
	extraData *Schema
	settings  *Schema
	log       *slog.Logger
}

// ServiceOption configures the Service.
type ServiceOption func(*Service)

// WithExtraDataSchema installs the schema validating tenant extra_data writes.
func WithExtraDataSchema(s *Schema) ServiceOption {
	return func(svc *Service) { svc.extraData = s }
}

// WithSettingsSchema installs the schema validating tenant settings writes.
func WithSettingsSchema(s *Schema) ServiceOption {
	return func(svc *Service) { svc.settings = s }
}

// WithServiceLogger sets the service logger.
func WithServiceLogger(log *slog.Logger) ServiceOption {
	return func(svc *Service) {
		if log != nil {
			svc.log = log
		}
	}
}

// NewService builds a Service over the given store. Without schema options,
// attribute writes are rejected as unknown fields.
func NewService(store Store, opts ...ServiceOption) *Service {
	emptyExtra, _ := NewSchema(nil)
	emptySettings, _ := NewSchema(nil)

	svc := &Service{
		store:     store,
		extraData: emptyExtra,
		settings:  emptySettings,
		log:       slog.Default(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// CreateTenantInput carries everything needed to provision a tenant.
type CreateTenantInput struct {
	Name    string
	Slug    string // defaults to a slugified Name
	Domain  string
	OwnerID uuid.UUID
}

// CreateTenant provisions a tenant: the tenant row with schema defaults,
// its site, the creator's relationship and the idempotent owner group, all
// in one transaction. A taken slug surfaces as ErrDuplicateTenantSlug.
func (s *Service) CreateTenant(ctx context.Context, in CreateTenantInput) (*Tenant, error) {
	if in.Slug == "" {
		in.Slug = slug.Make(in.Name)
	}

	if err := validator.Apply(
		validator.RequiredString("name", in.Name),
		slugRule("slug", in.Slug),
		validator.ValidHostname("domain", in.Domain),
	); err != nil {
		return nil, err
	}

	t := &Tenant{
		Slug:      in.Slug,
		Name:      in.Name,
		ExtraData: s.extraData.Defaults(),
		Settings:  s.settings.Defaults(),
		Active:    true,
	}

	if err := s.store.Create(ctx, t, in.Domain, in.OwnerID); err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "tenant created",
		"slug", t.Slug, "domain", in.Domain, "owner", in.OwnerID)
	return t, nil
}

// UpdateExtraData validates and applies an extra_data write. Partial mode
// patches over the existing map; full mode replaces it and enforces
// required fields.
func (s *Service) UpdateExtraData(ctx context.Context, tenantSlug string, data map[string]any, partial bool) (*Tenant, error) {
	return s.updateAttrs(ctx, tenantSlug, data, partial, s.extraData,
		func(t *Tenant) map[string]any { return t.ExtraData },
		func(t *Tenant, m map[string]any) { t.ExtraData = m },
		s.store.UpdateExtraData)
}

// UpdateSettings validates and applies a settings write.
func (s *Service) UpdateSettings(ctx context.Context, tenantSlug string, data map[string]any, partial bool) (*Tenant, error) {
	return s.updateAttrs(ctx, tenantSlug, data, partial, s.settings,
		func(t *Tenant) map[string]any { return t.Settings },
		func(t *Tenant, m map[string]any) { t.Settings = m },
		s.store.UpdateSettings)
}

func (s *Service) updateAttrs(
	ctx context.Context,
	tenantSlug string,
	data map[string]any,
	partial bool,
	schema *Schema,
	get func(*Tenant) map[string]any,
	set func(*Tenant, map[string]any),
	persist func(context.Context, string, map[string]any) error,
) (*Tenant, error) {
	t, err := s.store.GetBySlug(ctx, tenantSlug)
	if err != nil {
		return nil, err
	}

	if err := schema.Validate(data, partial); err != nil {
		return nil, err
	}

	merged := schema.Apply(get(t), data, partial)
	if err := persist(ctx, tenantSlug, merged); err != nil {
		return nil, err
	}

	set(t, merged)
	return t, nil
}

func slugRule(field, value string) validator.Rule {
	return validator.Rule{
		Check: func() bool { return slug.IsValid(value) },
		Error: validator.ValidationError{
			Field:   field,
			Message: "must be a URL-safe slug (lowercase letters, digits, dashes)",
		},
	}
}
