package tenant

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store used by tests and single-process
// embedding. Semantics mirror PGStore, including the transactional
// all-or-nothing behavior of Create.
type MemoryStore struct {
	mu            sync.RWMutex
	tenants       map[string]*Tenant
	sites         map[uuid.UUID]*Site
	groups        map[string]*Group
	relationships map[uuid.UUID]*Relationship
	ownerPerms    []string
}

// MemoryStoreOption configures the store.
type MemoryStoreOption func(*MemoryStore)

// WithMemoryOwnerPermissions sets the owner group's permission codes.
func WithMemoryOwnerPermissions(perms []string) MemoryStoreOption {
	return func(s *MemoryStore) {
		if len(perms) > 0 {
			s.ownerPerms = perms
		}
	}
}

func NewMemoryStore(opts ...MemoryStoreOption) *MemoryStore {
	s := &MemoryStore{
		tenants:       make(map[string]*Tenant),
		sites:         make(map[uuid.UUID]*Site),
		groups:        make(map[string]*Group),
		relationships: make(map[uuid.UUID]*Relationship),
		ownerPerms:    DefaultOwnerPermissions,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStore) GetBySlug(ctx context.Context, slug string) (*Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tenants[slug]
	if !ok {
		return nil, ErrTenantNotFound
	}
	cp := *t
	return &cp, nil
}

func (s *MemoryStore) GetByDomain(ctx context.Context, domain string) (*Site, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, site := range s.sites {
		if site.Domain == domain {
			cp := *site
			return &cp, nil
		}
	}
	return nil, ErrSiteNotFound
}

func (s *MemoryStore) Create(ctx context.Context, t *Tenant, domain string, ownerID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tenants[t.Slug]; ok {
		return ErrDuplicateTenantSlug
	}
	for _, site := range s.sites {
		if site.Domain == domain {
			return ErrDuplicateDomain
		}
	}

	now := time.Now()
	t.CreatedAt = now
	t.UpdatedAt = now
	cp := *t
	s.tenants[t.Slug] = &cp

	site := &Site{ID: uuid.New(), TenantSlug: t.Slug, Domain: domain, CreatedAt: now}
	s.sites[site.ID] = site

	if _, ok := s.groups[OwnerGroupName]; !ok {
		s.groups[OwnerGroupName] = &Group{Name: OwnerGroupName, Permissions: s.ownerPerms}
	}

	rel := &Relationship{
		ID:          uuid.New(),
		UserID:      ownerID,
		TenantSlug:  t.Slug,
		Groups:      []string{OwnerGroupName},
		Permissions: []string{},
		CreatedAt:   now,
	}
	s.relationships[rel.ID] = rel

	return nil
}

func (s *MemoryStore) UpdateExtraData(ctx context.Context, slug string, data map[string]any) error {
	return s.update(slug, func(t *Tenant) { t.ExtraData = data })
}

func (s *MemoryStore) UpdateSettings(ctx context.Context, slug string, data map[string]any) error {
	return s.update(slug, func(t *Tenant) { t.Settings = data })
}

func (s *MemoryStore) update(slug string, apply func(*Tenant)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tenants[slug]
	if !ok {
		return ErrTenantNotFound
	}
	apply(t)
	t.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryStore) DeleteSite(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sites[id]; !ok {
		return ErrSiteNotFound
	}
	delete(s.sites, id)
	return nil
}

func (s *MemoryStore) GetRelationship(ctx context.Context, userID uuid.UUID, slug string) (*Relationship, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, rel := range s.relationships {
		if rel.UserID == userID && rel.TenantSlug == slug {
			cp := *rel
			return &cp, nil
		}
	}
	return nil, ErrRelationshipNotFound
}

// EnsureGroup creates the group if missing and returns the stored
// definition.
func (s *MemoryStore) EnsureGroup(ctx context.Context, name string, permissions []string) (*Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.groups[name]; !ok {
		s.groups[name] = &Group{Name: name, Permissions: permissions}
	}
	cp := *s.groups[name]
	return &cp, nil
}

func (s *MemoryStore) GetGroup(ctx context.Context, name string) (*Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.groups[name]
	if !ok {
		return nil, ErrRelationshipNotFound
	}
	cp := *g
	return &cp, nil
}

// Put inserts or replaces a tenant directly, bypassing provisioning.
// Test helper.
func (s *MemoryStore) Put(t *Tenant) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *t
	s.tenants[t.Slug] = &cp
}

// PutSite registers a domain mapping directly. Test helper.
func (s *MemoryStore) PutSite(site *Site) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if site.ID == uuid.Nil {
		site.ID = uuid.New()
	}
	cp := *site
	s.sites[site.ID] = &cp
}
