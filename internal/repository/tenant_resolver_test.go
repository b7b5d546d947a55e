package repository

import (
	"context"
	"testing"

	"juzbuild-api/internal/domain"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestResolver() (*TenantResolver, *MemoryWebsitesRepo, *MemoryUsersRepo) {
	websites := NewMemoryWebsitesRepo()
	users := NewMemoryUsersRepo()
	return NewTenantResolver(websites, users, zap.NewNop()), websites, users
}

func TestResolveWebsiteIDUsesDBName(t *testing.T) {
	resolver, websites, _ := newTestResolver()
	websites.Put(domain.Website{
		WebsiteID: "w-1",
		UserID:    "u-1",
		Domain:    "acme.juzbuild.com",
		DBName:    "juzbuild_acme",
	})

	tenant, err := resolver.Resolve(context.Background(), "w-1", "", "u-1")
	require.NoError(t, err)
	require.Equal(t, "juzbuild_acme", tenant.PartitionName)
	require.Equal(t, "acme.juzbuild.com", tenant.Domain)
}

func TestResolveWebsiteIDDerivesPartitionFromDomain(t *testing.T) {
	resolver, websites, _ := newTestResolver()
	websites.Put(domain.Website{
		WebsiteID: "w-2",
		UserID:    "u-1",
		Domain:    "My Realty",
	})

	tenant, err := resolver.Resolve(context.Background(), "w-2", "", "u-1")
	require.NoError(t, err)
	require.Equal(t, "juzbuild_my-realty", tenant.PartitionName)
}

func TestResolveOwnershipMismatchFallsBackToProfile(t *testing.T) {
	resolver, websites, users := newTestResolver()
	websites.Put(domain.Website{
		WebsiteID: "w-1",
		UserID:    "someone-else",
		DBName:    "juzbuild_theirs",
	})
	users.Put(domain.User{UserID: "u-1", Email: "pat@example.com", DomainName: "patrealty"})

	// The website exists but belongs to another user; the caller lands in
	// their own partition, not an error.
	tenant, err := resolver.Resolve(context.Background(), "w-1", "", "u-1")
	require.NoError(t, err)
	require.Equal(t, "juzbuild_patrealty", tenant.PartitionName)
	require.Equal(t, "patrealty.juzbuild.com", tenant.Domain)
}

func TestResolveProfileFallsBackToEmailLocalPart(t *testing.T) {
	resolver, _, users := newTestResolver()
	users.Put(domain.User{UserID: "u-2", Email: "Jamie.Smith@example.com"})

	tenant, err := resolver.Resolve(context.Background(), "", "", "u-2")
	require.NoError(t, err)
	require.Equal(t, "juzbuild_jamiesmith", tenant.PartitionName)
	require.Equal(t, "Jamie.Smith.juzbuild.com", tenant.Domain)
}

func TestResolveExplicitDomainOverridesPublicDomain(t *testing.T) {
	resolver, _, users := newTestResolver()
	users.Put(domain.User{UserID: "u-1", DomainName: "patrealty"})

	tenant, err := resolver.Resolve(context.Background(), "", "www.patrealty.com", "u-1")
	require.NoError(t, err)
	require.Equal(t, "juzbuild_patrealty", tenant.PartitionName)
	require.Equal(t, "www.patrealty.com", tenant.Domain)
}

func TestResolveDeterministic(t *testing.T) {
	resolver, _, users := newTestResolver()
	users.Put(domain.User{UserID: "u-1", DomainName: "patrealty"})

	first, err := resolver.Resolve(context.Background(), "", "", "u-1")
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := resolver.Resolve(context.Background(), "", "", "u-1")
		require.NoError(t, err)
		require.Equal(t, first, again)
	}
}

func TestResolveUnknownUser(t *testing.T) {
	resolver, _, _ := newTestResolver()

	_, err := resolver.Resolve(context.Background(), "", "", "nobody")
	require.Error(t, err)
	require.ErrorIs(t, err, domain.ErrNotFound)
}
