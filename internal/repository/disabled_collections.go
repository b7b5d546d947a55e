package repository

import (
	"context"

	"juzbuild-api/internal/domain"
)

// DisabledCollections is the CollectionAccessor used when the process is
// composed without database access. Handles are still handed out so wiring
// stays uniform; every operation fails with ErrConfiguration.
type DisabledCollections struct{}

func NewDisabledCollections() *DisabledCollections { return &DisabledCollections{} }

var _ CollectionAccessor = (*DisabledCollections)(nil)

func (c *DisabledCollections) Collection(spec CollectionSpec, partition string) (Collection, error) {
	return disabledCollection{}, nil
}

type disabledCollection struct{}

func (disabledCollection) Insert(ctx context.Context, row Row) error {
	return domain.ErrConfiguration
}

func (disabledCollection) Get(ctx context.Context, id string, activeOnly bool) (*Row, error) {
	return nil, domain.ErrConfiguration
}

func (disabledCollection) FindBySlug(ctx context.Context, slug, excludeID string) (*Row, error) {
	return nil, domain.ErrConfiguration
}

func (disabledCollection) Update(ctx context.Context, row Row) error {
	return domain.ErrConfiguration
}

func (disabledCollection) Delete(ctx context.Context, id string) error {
	return domain.ErrConfiguration
}

func (disabledCollection) List(ctx context.Context, q Query) ([]Row, int, error) {
	return nil, 0, domain.ErrConfiguration
}

// DisabledWebsitesRepo / DisabledUsersRepo complete the no-database
// composition: tenant resolution fails the same way entity operations do.

type DisabledWebsitesRepo struct{}

func NewDisabledWebsitesRepo() *DisabledWebsitesRepo { return &DisabledWebsitesRepo{} }

var _ WebsitesRepo = (*DisabledWebsitesRepo)(nil)

func (*DisabledWebsitesRepo) GetOwned(ctx context.Context, websiteID, userID string) (*domain.Website, error) {
	return nil, domain.ErrConfiguration
}

type DisabledUsersRepo struct{}

func NewDisabledUsersRepo() *DisabledUsersRepo { return &DisabledUsersRepo{} }

var _ UsersRepo = (*DisabledUsersRepo)(nil)

func (*DisabledUsersRepo) Get(ctx context.Context, userID string) (*domain.User, error) {
	return nil, domain.ErrConfiguration
}
