package service

import (
	"context"
	"fmt"
	"testing"

	"juzbuild-api/internal/domain"
	"juzbuild-api/internal/repository"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testPartition = "juzbuild_test"

func newTestServices() (*repository.MemoryCollections, *PropertyService, *LeadService) {
	collections := repository.NewMemoryCollections()
	properties := NewPropertyService(collections, zap.NewNop())
	properties.retryBackoff = 0
	leads := NewLeadService(collections, zap.NewNop())
	return collections, properties, leads
}

func TestCreatePropertyFillsDefaults(t *testing.T) {
	_, properties, _ := newTestServices()

	created, err := properties.Create(context.Background(), testPartition, &domain.Property{
		Name:         "My House!! 2024",
		PropertyType: "type-1",
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.PropertyID)
	require.Equal(t, "my-house-2024", created.Slug)
	require.Equal(t, "for-sale", created.Status)
	require.Equal(t, "USD", created.Currency)
	require.True(t, created.IsActive)
	require.False(t, created.CreatedAt.IsZero())
	require.Equal(t, created.CreatedAt, created.UpdatedAt)
}

func TestCreatePropertyValidation(t *testing.T) {
	_, properties, _ := newTestServices()

	_, err := properties.Create(context.Background(), testPartition, &domain.Property{
		PropertyType: "type-1",
		Price:        -5,
	})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Contains(t, verr.Messages(), "name: is required")
	require.Contains(t, verr.Messages(), "price: must not be negative")
}

func TestCreateDuplicateSlugUpdatesInPlace(t *testing.T) {
	_, properties, _ := newTestServices()
	ctx := context.Background()

	first, err := properties.Create(ctx, testPartition, &domain.Property{
		Name: "Sunset Villa", PropertyType: "type-1", Price: 100,
	})
	require.NoError(t, err)

	second, err := properties.Create(ctx, testPartition, &domain.Property{
		Name: "Sunset Villa", PropertyType: "type-1", Price: 200,
	})
	require.NoError(t, err)

	// the duplicate resolves onto the existing record, keeping its identity
	// and creation time
	require.Equal(t, first.PropertyID, second.PropertyID)
	require.True(t, first.CreatedAt.Equal(second.CreatedAt))
	require.Equal(t, float64(200), second.Price)

	_, total, err := properties.FindAll(ctx, testPartition, ListFilter{})
	require.NoError(t, err)
	require.Equal(t, 1, total)
}

func TestFindAllPaginationInvariant(t *testing.T) {
	_, _, leads := newTestServices()
	ctx := context.Background()

	const n = 25
	for i := 0; i < n; i++ {
		_, err := leads.Create(ctx, testPartition, &domain.Lead{
			Name:  fmt.Sprintf("Lead %02d", i),
			Email: fmt.Sprintf("lead%02d@example.com", i),
		})
		require.NoError(t, err)
	}

	seen := map[string]bool{}
	fetched := 0
	for page := 1; page <= 3; page++ {
		items, total, err := leads.FindAll(ctx, testPartition, ListFilter{Page: page, Limit: 10})
		require.NoError(t, err)
		require.Equal(t, n, total, "total must not vary with the page")
		for _, l := range items {
			require.False(t, seen[l.LeadID], "pages must be disjoint")
			seen[l.LeadID] = true
		}
		fetched += len(items)
	}
	require.Equal(t, n, fetched)

	// beyond the last page: empty items, same total
	items, total, err := leads.FindAll(ctx, testPartition, ListFilter{Page: 4, Limit: 10})
	require.NoError(t, err)
	require.Equal(t, n, total)
	require.Empty(t, items)
}

func TestFindAllEqualsAndSearch(t *testing.T) {
	_, _, leads := newTestServices()
	ctx := context.Background()

	_, err := leads.Create(ctx, testPartition, &domain.Lead{
		Name: "Alice Buyer", Email: "alice@example.com", Status: "contacted",
	})
	require.NoError(t, err)
	_, err = leads.Create(ctx, testPartition, &domain.Lead{
		Name: "Bob Seller", Email: "bob@example.com",
	})
	require.NoError(t, err)

	items, total, err := leads.FindAll(ctx, testPartition, ListFilter{
		Equals: map[string]string{"status": "contacted"},
	})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Equal(t, "Alice Buyer", items[0].Name)

	items, total, err = leads.FindAll(ctx, testPartition, ListFilter{Search: "bob@"})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Equal(t, "Bob Seller", items[0].Name)
}

func TestSoftDeleteHidesButKeepsRecord(t *testing.T) {
	collections, properties, _ := newTestServices()
	ctx := context.Background()

	created, err := properties.Create(ctx, testPartition, &domain.Property{
		Name: "Hidden Cottage", PropertyType: "type-1",
	})
	require.NoError(t, err)

	require.NoError(t, properties.Delete(ctx, testPartition, created.PropertyID))

	_, err = properties.FindByID(ctx, testPartition, created.PropertyID)
	require.ErrorIs(t, err, domain.ErrNotFound)

	_, total, err := properties.FindAll(ctx, testPartition, ListFilter{})
	require.NoError(t, err)
	require.Zero(t, total)

	// the row survives in the store, flagged inactive
	coll, err := collections.Collection(repository.PropertiesCollection, testPartition)
	require.NoError(t, err)
	row, err := coll.Get(ctx, created.PropertyID, false)
	require.NoError(t, err)
	require.False(t, row.Active)

	// and its slug is reusable by a new record
	again, err := properties.Create(ctx, testPartition, &domain.Property{
		Name: "Hidden Cottage", PropertyType: "type-1",
	})
	require.NoError(t, err)
	require.NotEqual(t, created.PropertyID, again.PropertyID)
}

func TestLeadDeleteIsHard(t *testing.T) {
	collections, _, leads := newTestServices()
	ctx := context.Background()

	created, err := leads.Create(ctx, testPartition, &domain.Lead{
		Name: "Gone", Email: "gone@example.com",
	})
	require.NoError(t, err)

	require.NoError(t, leads.Delete(ctx, testPartition, created.LeadID))

	coll, err := collections.Collection(repository.LeadsCollection, testPartition)
	require.NoError(t, err)
	_, err = coll.Get(ctx, created.LeadID, false)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdateMergesOnlySuppliedFields(t *testing.T) {
	_, properties, _ := newTestServices()
	ctx := context.Background()

	created, err := properties.Create(ctx, testPartition, &domain.Property{
		Name: "Merge Manor", PropertyType: "type-1",
		Description: "original description", Price: 100,
	})
	require.NoError(t, err)

	patch := []byte(`{"price": 250, "description": null, "id": "forged-id"}`)
	updated, err := properties.Update(ctx, testPartition, created.PropertyID, patch)
	require.NoError(t, err)

	require.Equal(t, created.PropertyID, updated.PropertyID, "id is immutable")
	require.Equal(t, float64(250), updated.Price)
	require.Empty(t, updated.Description, "null removes the field")
	require.Equal(t, "Merge Manor", updated.Name, "untouched fields survive")
	require.True(t, created.CreatedAt.Equal(updated.CreatedAt))
	require.True(t, updated.UpdatedAt.After(created.UpdatedAt) || updated.UpdatedAt.Equal(created.UpdatedAt))
}

func TestUpdateSlugConflictLeavesOriginalUnchanged(t *testing.T) {
	_, properties, _ := newTestServices()
	ctx := context.Background()

	_, err := properties.Create(ctx, testPartition, &domain.Property{
		Name: "First Home", PropertyType: "type-1",
	})
	require.NoError(t, err)
	second, err := properties.Create(ctx, testPartition, &domain.Property{
		Name: "Second Home", PropertyType: "type-1",
	})
	require.NoError(t, err)

	_, err = properties.Update(ctx, testPartition, second.PropertyID, []byte(`{"slug":"first-home"}`))
	require.ErrorIs(t, err, domain.ErrConflict)

	unchanged, err := properties.FindByID(ctx, testPartition, second.PropertyID)
	require.NoError(t, err)
	require.Equal(t, "second-home", unchanged.Slug)
	require.True(t, second.UpdatedAt.Equal(unchanged.UpdatedAt))
}

func TestUpdateInvalidPatchBody(t *testing.T) {
	_, properties, _ := newTestServices()
	ctx := context.Background()

	created, err := properties.Create(ctx, testPartition, &domain.Property{
		Name: "Typed Terrace", PropertyType: "type-1",
	})
	require.NoError(t, err)

	var verr *domain.ValidationError
	_, err = properties.Update(ctx, testPartition, created.PropertyID, []byte(`[1,2,3]`))
	require.ErrorAs(t, err, &verr)

	_, err = properties.Update(ctx, testPartition, created.PropertyID, []byte(`{"price":"lots"}`))
	require.ErrorAs(t, err, &verr)
}

func TestDisabledCollectionsSurfaceConfigurationError(t *testing.T) {
	properties := NewPropertyService(repository.NewDisabledCollections(), zap.NewNop())
	ctx := context.Background()

	_, err := properties.Create(ctx, testPartition, &domain.Property{
		Name: "Nope", PropertyType: "type-1",
	})
	require.ErrorIs(t, err, domain.ErrConfiguration)

	_, _, err = properties.FindAll(ctx, testPartition, ListFilter{})
	require.ErrorIs(t, err, domain.ErrConfiguration)

	_, err = properties.FindByID(ctx, testPartition, "any")
	require.ErrorIs(t, err, domain.ErrConfiguration)
}
