package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"juzbuild-api/internal/domain"

	"github.com/stretchr/testify/require"
)

func TestMemoryCollectionsConcurrentReadsOnFreshPartitions(t *testing.T) {
	collections := NewMemoryCollections()
	ctx := context.Background()

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			partition := fmt.Sprintf("juzbuild_race_%d", g%4)
			coll, err := collections.Collection(PropertiesCollection, partition)
			if err != nil {
				t.Error(err)
				return
			}
			for i := 0; i < 50; i++ {
				if _, err := coll.Get(ctx, "missing-id", false); err != domain.ErrNotFound {
					t.Errorf("expected ErrNotFound, got %v", err)
					return
				}
				if _, err := coll.FindBySlug(ctx, "missing-slug", ""); err != domain.ErrNotFound {
					t.Errorf("expected ErrNotFound, got %v", err)
					return
				}
				rows, total, err := coll.List(ctx, Query{Limit: 10})
				if err != nil || total != 0 || len(rows) != 0 {
					t.Errorf("expected empty list, got rows=%d total=%d err=%v", len(rows), total, err)
					return
				}
			}
		}(g)
	}
	wg.Wait()
}

func TestMemoryCollectionsConcurrentReadersAndWriters(t *testing.T) {
	collections := NewMemoryCollections()
	ctx := context.Background()

	doc, err := json.Marshal(map[string]any{"name": "Race House"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for g := 0; g < 4; g++ {
		wg.Add(2)
		partition := fmt.Sprintf("juzbuild_mixed_%d", g)
		go func(g int) {
			defer wg.Done()
			coll, err := collections.Collection(PropertiesCollection, partition)
			if err != nil {
				t.Error(err)
				return
			}
			for i := 0; i < 25; i++ {
				err := coll.Insert(ctx, Row{
					ID:        fmt.Sprintf("id-%d-%d", g, i),
					Slug:      fmt.Sprintf("race-house-%d-%d", g, i),
					Active:    true,
					Doc:       doc,
					CreatedAt: time.Now().UTC(),
					UpdatedAt: time.Now().UTC(),
				})
				if err != nil {
					t.Errorf("insert failed: %v", err)
					return
				}
			}
		}(g)
		go func() {
			defer wg.Done()
			coll, err := collections.Collection(PropertiesCollection, partition)
			if err != nil {
				t.Error(err)
				return
			}
			for i := 0; i < 25; i++ {
				if _, _, err := coll.List(ctx, Query{Limit: 100}); err != nil {
					t.Errorf("list failed: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()

	for g := 0; g < 4; g++ {
		coll, err := collections.Collection(PropertiesCollection, fmt.Sprintf("juzbuild_mixed_%d", g))
		require.NoError(t, err)
		_, total, err := coll.List(ctx, Query{Limit: 100})
		require.NoError(t, err)
		require.Equal(t, 25, total)
	}
}
