package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"juzbuild-api/internal/domain"
)

// MemoryCollections supports tests and DB-disabled local runs. Semantics
// mirror PostgresCollections, including the active-slug uniqueness rule.
type MemoryCollections struct {
	mu   sync.RWMutex
	data map[string]map[string]map[string]Row // partition -> table -> id -> row
}

func NewMemoryCollections() *MemoryCollections {
	return &MemoryCollections{data: map[string]map[string]map[string]Row{}}
}

var _ CollectionAccessor = (*MemoryCollections)(nil)

func (c *MemoryCollections) Collection(spec CollectionSpec, partition string) (Collection, error) {
	if !ValidPartitionName(partition) {
		return nil, fmt.Errorf("invalid partition name %q", partition)
	}
	return &memoryCollection{parent: c, spec: spec, partition: partition}, nil
}

// table materializes the partition/table maps; callers must hold the write
// lock.
func (c *MemoryCollections) table(partition, table string) map[string]Row {
	part, ok := c.data[partition]
	if !ok {
		part = map[string]map[string]Row{}
		c.data[partition] = part
	}
	t, ok := part[table]
	if !ok {
		t = map[string]Row{}
		part[table] = t
	}
	return t
}

// lookup never writes, so read paths can call it under the read lock; an
// unmaterialized partition or table reads as empty.
func (c *MemoryCollections) lookup(partition, table string) map[string]Row {
	part, ok := c.data[partition]
	if !ok {
		return nil
	}
	return part[table]
}

type memoryCollection struct {
	parent    *MemoryCollections
	spec      CollectionSpec
	partition string
}

func (c *memoryCollection) slugTaken(t map[string]Row, slug, excludeID string) bool {
	if !c.spec.HasSlug || slug == "" {
		return false
	}
	for id, row := range t {
		if id != excludeID && row.Active && row.Slug == slug {
			return true
		}
	}
	return false
}

func (c *memoryCollection) Insert(_ context.Context, row Row) error {
	c.parent.mu.Lock()
	defer c.parent.mu.Unlock()

	t := c.parent.table(c.partition, c.spec.Table)
	if _, exists := t[row.ID]; exists {
		return ErrDuplicate
	}
	if row.Active && c.slugTaken(t, row.Slug, row.ID) {
		return ErrDuplicate
	}
	t[row.ID] = cloneRow(row)
	return nil
}

func (c *memoryCollection) Get(_ context.Context, id string, activeOnly bool) (*Row, error) {
	c.parent.mu.RLock()
	defer c.parent.mu.RUnlock()

	t := c.parent.lookup(c.partition, c.spec.Table)
	row, ok := t[id]
	if !ok || (activeOnly && !row.Active) {
		return nil, domain.ErrNotFound
	}
	out := cloneRow(row)
	return &out, nil
}

func (c *memoryCollection) FindBySlug(_ context.Context, slug, excludeID string) (*Row, error) {
	c.parent.mu.RLock()
	defer c.parent.mu.RUnlock()

	t := c.parent.lookup(c.partition, c.spec.Table)
	for id, row := range t {
		if id != excludeID && row.Active && row.Slug == slug {
			out := cloneRow(row)
			return &out, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (c *memoryCollection) Update(_ context.Context, row Row) error {
	c.parent.mu.Lock()
	defer c.parent.mu.Unlock()

	t := c.parent.table(c.partition, c.spec.Table)
	existing, ok := t[row.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if row.Active && c.slugTaken(t, row.Slug, row.ID) {
		return ErrDuplicate
	}
	row.CreatedAt = existing.CreatedAt
	t[row.ID] = cloneRow(row)
	return nil
}

func (c *memoryCollection) Delete(_ context.Context, id string) error {
	c.parent.mu.Lock()
	defer c.parent.mu.Unlock()

	t := c.parent.table(c.partition, c.spec.Table)
	if _, ok := t[id]; !ok {
		return domain.ErrNotFound
	}
	delete(t, id)
	return nil
}

func (c *memoryCollection) List(_ context.Context, q Query) ([]Row, int, error) {
	c.parent.mu.RLock()
	defer c.parent.mu.RUnlock()

	t := c.parent.lookup(c.partition, c.spec.Table)
	matched := []Row{}
	for _, row := range t {
		if c.matches(row, q) {
			matched = append(matched, cloneRow(row))
		}
	}

	sortRows(matched, q.SortBy, q.SortDesc)

	total := len(matched)
	start := q.Offset
	if start > total {
		start = total
	}
	end := start + q.Limit
	if q.Limit <= 0 || end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (c *memoryCollection) matches(row Row, q Query) bool {
	if q.ActiveOnly && !row.Active {
		return false
	}
	if q.CreatedAfter != nil && row.CreatedAt.Before(*q.CreatedAfter) {
		return false
	}
	if q.CreatedBefore != nil && row.CreatedAt.After(*q.CreatedBefore) {
		return false
	}

	if len(q.Equals) == 0 && q.Search == "" {
		return true
	}

	var doc map[string]any
	if err := json.Unmarshal(row.Doc, &doc); err != nil {
		return false
	}
	for field, want := range q.Equals {
		v, ok := doc[field]
		if !ok || docValueString(v) != want {
			return false
		}
	}
	if q.Search != "" {
		needle := strings.ToLower(q.Search)
		found := false
		for _, field := range q.SearchFields {
			if s, ok := doc[field].(string); ok && strings.Contains(strings.ToLower(s), needle) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// docValueString renders a document value the way doc->>'field' would.
func docValueString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case bool:
		if val {
			return "true"
		}
		return "false"
	case float64:
		// integers without trailing zeros, like jsonb text extraction
		if val == float64(int64(val)) {
			return fmt.Sprintf("%d", int64(val))
		}
		return fmt.Sprintf("%g", val)
	default:
		return fmt.Sprint(val)
	}
}

func sortRows(rows []Row, sortBy string, desc bool) {
	less := func(a, b Row) bool {
		switch sortBy {
		case "", "createdAt":
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.Before(b.CreatedAt)
			}
		case "updatedAt":
			if !a.UpdatedAt.Equal(b.UpdatedAt) {
				return a.UpdatedAt.Before(b.UpdatedAt)
			}
		default:
			av, aNum := docField(a, sortBy)
			bv, bNum := docField(b, sortBy)
			if aNum != nil && bNum != nil {
				if *aNum != *bNum {
					return *aNum < *bNum
				}
			} else if av != bv {
				return av < bv
			}
		}
		return a.ID < b.ID // stable tiebreak, same as the SQL ORDER BY
	}
	sort.Slice(rows, func(i, j int) bool {
		if desc {
			return less(rows[j], rows[i])
		}
		return less(rows[i], rows[j])
	})
}

func docField(row Row, field string) (string, *float64) {
	var doc map[string]any
	if err := json.Unmarshal(row.Doc, &doc); err != nil {
		return "", nil
	}
	switch v := doc[field].(type) {
	case float64:
		return "", &v
	case string:
		return v, nil
	default:
		return fmt.Sprint(v), nil
	}
}

func cloneRow(row Row) Row {
	out := row
	out.Doc = append(json.RawMessage(nil), row.Doc...)
	return out
}
