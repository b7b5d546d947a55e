package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"juzbuild-api/internal/domain"
	"juzbuild-api/internal/repository"

	"go.uber.org/zap"
)

// defaultPropertyTypes are seeded into the shared partition at bootstrap and
// are visible to every tenant alongside the tenant's own types.
var defaultPropertyTypes = []domain.PropertyType{
	{Name: "House", Description: "Standalone residential homes"},
	{Name: "Apartment", Description: "Units in residential buildings"},
	{Name: "Villa", Description: "Luxury detached residences"},
	{Name: "Office", Description: "Commercial office space"},
	{Name: "Land", Description: "Plots and undeveloped land"},
	{Name: "Commercial", Description: "Retail and other commercial property"},
}

type PropertyTypeService struct {
	*EntityService[domain.PropertyType, *domain.PropertyType]
	logger *zap.Logger
}

func NewPropertyTypeService(collections repository.CollectionAccessor, logger *zap.Logger) *PropertyTypeService {
	return &PropertyTypeService{
		EntityService: NewEntityService[domain.PropertyType, *domain.PropertyType](
			collections,
			repository.PropertyTypesCollection,
			[]string{"name", "description"},
			logger,
		),
		logger: logger,
	}
}

// EnsureDefaults seeds the platform default types. Idempotent: existing
// slugs are left untouched.
func (s *PropertyTypeService) EnsureDefaults(ctx context.Context) error {
	for _, def := range defaultPropertyTypes {
		t := def
		t.PrepareCreate()
		_, err := s.FindBySlug(ctx, domain.SharedPartition, t.Slug)
		if err == nil {
			continue
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("failed to check default property type %q: %w", t.Name, err)
		}
		if _, err := s.Create(ctx, domain.SharedPartition, &t); err != nil {
			if errors.Is(err, domain.ErrConflict) {
				continue
			}
			return fmt.Errorf("failed to seed default property type %q: %w", t.Name, err)
		}
		s.logger.Info("seeded default property type", zap.String("name", t.Name))
	}
	return nil
}

// VisibleTo returns the types a tenant can reference: shared defaults plus
// the tenant's own, shared first.
func (s *PropertyTypeService) VisibleTo(ctx context.Context, partition string) ([]*domain.PropertyType, error) {
	all := []*domain.PropertyType{}
	for _, p := range []string{domain.SharedPartition, partition} {
		if p == "" {
			continue
		}
		items, _, err := s.FindAll(ctx, p, ListFilter{Limit: maxPageSize, SortBy: "name"})
		if err != nil {
			return nil, err
		}
		all = append(all, items...)
		if partition == domain.SharedPartition {
			break
		}
	}
	return all, nil
}

// FindVisibleByID resolves a type id the way the merged catalog presents
// them: the tenant's own types first, then the shared defaults. Writes stay
// tenant-scoped; shared types are read-only to tenants.
func (s *PropertyTypeService) FindVisibleByID(ctx context.Context, partition, id string) (*domain.PropertyType, error) {
	t, err := s.FindByID(ctx, partition, id)
	if err == nil || !errors.Is(err, domain.ErrNotFound) || partition == domain.SharedPartition {
		return t, err
	}
	return s.FindByID(ctx, domain.SharedPartition, id)
}

// LookupForTenant builds the bulk-import resolution index: every visible
// type keyed by lower-cased name and lower-cased slug.
func (s *PropertyTypeService) LookupForTenant(ctx context.Context, partition string) (map[string]*domain.PropertyType, error) {
	types, err := s.VisibleTo(ctx, partition)
	if err != nil {
		return nil, err
	}
	lookup := make(map[string]*domain.PropertyType, len(types)*2)
	for _, t := range types {
		lookup[strings.ToLower(t.Name)] = t
		lookup[strings.ToLower(t.Slug)] = t
	}
	return lookup, nil
}
