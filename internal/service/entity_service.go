package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"juzbuild-api/internal/domain"
	"juzbuild-api/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ListFilter is the service-level filter for FindAll. Equals keys are the
// recognized document fields for the entity; handlers build them from the
// whitelisted query params only.
type ListFilter struct {
	Equals        map[string]string
	Search        string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
	Page          int
	Limit         int
	SortBy        string
	SortDesc      bool
}

const (
	defaultPageSize = 10
	maxPageSize     = 100

	// single fixed-backoff retry for duplicate-key races
	duplicateRetryBackoff = 200 * time.Millisecond
)

type record[T any] interface {
	*T
	domain.Record
}

// EntityService is the generic CRUD core shared by leads, properties,
// property types and authors. All operations run against the collection for
// the partition passed per call; nothing is cached across requests.
type EntityService[T any, P record[T]] struct {
	collections  repository.CollectionAccessor
	spec         repository.CollectionSpec
	searchFields []string
	retryBackoff time.Duration
	logger       *zap.Logger
}

func NewEntityService[T any, P record[T]](
	collections repository.CollectionAccessor,
	spec repository.CollectionSpec,
	searchFields []string,
	logger *zap.Logger,
) *EntityService[T, P] {
	return &EntityService[T, P]{
		collections:  collections,
		spec:         spec,
		searchFields: searchFields,
		retryBackoff: duplicateRetryBackoff,
		logger:       logger,
	}
}

// Create assigns identity and timestamps, derives the slug when absent and
// persists the record. A duplicate-key hit (two concurrent creates passing
// the uniqueness check) is retried exactly once after a fixed backoff by
// re-reading the conflicting record and updating it in place; if the re-read
// finds nothing the conflict is terminal.
func (s *EntityService[T, P]) Create(ctx context.Context, partition string, rec P) (P, error) {
	var zero P

	rec.SetRecordID(uuid.NewString())
	rec.PrepareCreate()
	now := time.Now().UTC()
	rec.StampCreate(now)

	if errs := rec.Validate(); len(errs) > 0 {
		return zero, &domain.ValidationError{Fields: errs}
	}

	coll, err := s.collections.Collection(s.spec, partition)
	if err != nil {
		return zero, err
	}

	doc, err := json.Marshal(rec)
	if err != nil {
		return zero, fmt.Errorf("failed to encode %s record: %w", s.spec.Table, err)
	}

	err = coll.Insert(ctx, repository.Row{
		ID:        rec.RecordID(),
		Slug:      rec.RecordSlug(),
		Active:    rec.RecordActive(),
		Doc:       doc,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err == nil {
		return rec, nil
	}
	if !repository.IsUniqueViolation(err) {
		return zero, err
	}
	if !s.spec.HasSlug || rec.RecordSlug() == "" {
		return zero, fmt.Errorf("insert %s: %w", s.spec.Table, domain.ErrTransient)
	}

	s.logger.Warn("duplicate key on create, retrying as update-in-place",
		zap.String("table", s.spec.Table),
		zap.String("slug", rec.RecordSlug()))
	time.Sleep(s.retryBackoff)

	existing, ferr := coll.FindBySlug(ctx, rec.RecordSlug(), "")
	if errors.Is(ferr, domain.ErrNotFound) {
		// the competing record vanished between the violation and the
		// re-read; fatal conflict, not re-retried
		return zero, fmt.Errorf("slug %q: %w", rec.RecordSlug(), domain.ErrConflict)
	}
	if ferr != nil {
		return zero, ferr
	}

	rec.SetRecordID(existing.ID)
	rec.StampUpdate(now)
	doc, err = marshalWithCreatedAt(rec, existing.CreatedAt)
	if err != nil {
		return zero, err
	}
	err = coll.Update(ctx, repository.Row{
		ID:        existing.ID,
		Slug:      rec.RecordSlug(),
		Active:    rec.RecordActive(),
		Doc:       doc,
		CreatedAt: existing.CreatedAt,
		UpdatedAt: now,
	})
	if err != nil {
		if repository.IsUniqueViolation(err) {
			return zero, fmt.Errorf("update %s after duplicate: %w", s.spec.Table, domain.ErrTransient)
		}
		return zero, err
	}
	if err := json.Unmarshal(doc, rec); err != nil {
		return zero, fmt.Errorf("failed to decode %s record: %w", s.spec.Table, err)
	}
	return rec, nil
}

// FindAll returns the matching page plus the total match count before
// pagination. Soft-deleted records are never included.
func (s *EntityService[T, P]) FindAll(ctx context.Context, partition string, f ListFilter) ([]P, int, error) {
	coll, err := s.collections.Collection(s.spec, partition)
	if err != nil {
		return nil, 0, err
	}

	page := f.Page
	if page < 1 {
		page = 1
	}
	limit := f.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	rows, total, err := coll.List(ctx, repository.Query{
		Equals:        f.Equals,
		Search:        f.Search,
		SearchFields:  s.searchFields,
		CreatedAfter:  f.CreatedAfter,
		CreatedBefore: f.CreatedBefore,
		ActiveOnly:    s.spec.SoftDelete,
		SortBy:        f.SortBy,
		SortDesc:      f.SortDesc,
		Offset:        (page - 1) * limit,
		Limit:         limit,
	})
	if err != nil {
		return nil, 0, err
	}

	items := make([]P, 0, len(rows))
	for _, row := range rows {
		var item P = new(T)
		if err := json.Unmarshal(row.Doc, item); err != nil {
			return nil, 0, fmt.Errorf("failed to decode %s record %s: %w", s.spec.Table, row.ID, err)
		}
		items = append(items, item)
	}
	return items, total, nil
}

func (s *EntityService[T, P]) FindByID(ctx context.Context, partition, id string) (P, error) {
	var zero P
	coll, err := s.collections.Collection(s.spec, partition)
	if err != nil {
		return zero, err
	}
	row, err := coll.Get(ctx, id, s.spec.SoftDelete)
	if err != nil {
		return zero, err
	}
	var item P = new(T)
	if err := json.Unmarshal(row.Doc, item); err != nil {
		return zero, fmt.Errorf("failed to decode %s record %s: %w", s.spec.Table, id, err)
	}
	return item, nil
}

// FindBySlug resolves an active record by its slug.
func (s *EntityService[T, P]) FindBySlug(ctx context.Context, partition, slugValue string) (P, error) {
	var zero P
	coll, err := s.collections.Collection(s.spec, partition)
	if err != nil {
		return zero, err
	}
	row, err := coll.FindBySlug(ctx, slugValue, "")
	if err != nil {
		return zero, err
	}
	var item P = new(T)
	if err := json.Unmarshal(row.Doc, item); err != nil {
		return zero, fmt.Errorf("failed to decode %s record %s: %w", s.spec.Table, row.ID, err)
	}
	return item, nil
}

// immutable fields are stripped from every patch; identity and audit fields
// never come from client input.
var immutableFields = []string{"id", "createdAt", "updatedAt", "userId"}

// Update merges only the supplied fields into the stored document. The
// merged record is re-validated as a whole, and a slug change is checked
// against conflicting records (excluding the record itself) before anything
// is written: a conflicting update leaves the original unmodified.
func (s *EntityService[T, P]) Update(ctx context.Context, partition, id string, patch []byte) (P, error) {
	var zero P
	coll, err := s.collections.Collection(s.spec, partition)
	if err != nil {
		return zero, err
	}

	row, err := coll.Get(ctx, id, s.spec.SoftDelete)
	if err != nil {
		return zero, err
	}

	var current map[string]any
	if err := json.Unmarshal(row.Doc, &current); err != nil {
		return zero, fmt.Errorf("failed to decode stored %s record %s: %w", s.spec.Table, id, err)
	}
	var patchMap map[string]any
	if err := json.Unmarshal(patch, &patchMap); err != nil {
		return zero, &domain.ValidationError{Fields: []domain.FieldError{
			{Field: "body", Message: "must be a JSON object"},
		}}
	}
	for _, f := range immutableFields {
		delete(patchMap, f)
	}
	for k, v := range patchMap {
		if v == nil {
			delete(current, k)
		} else {
			current[k] = v
		}
	}

	merged, err := json.Marshal(current)
	if err != nil {
		return zero, fmt.Errorf("failed to encode %s record: %w", s.spec.Table, err)
	}
	var updated P = new(T)
	if err := json.Unmarshal(merged, updated); err != nil {
		// a supplied field failed to parse into its typed shape
		// (wrong type, unrecognized date string)
		return zero, &domain.ValidationError{Fields: []domain.FieldError{
			{Field: "body", Message: err.Error()},
		}}
	}

	updated.SetRecordID(id)
	now := time.Now().UTC()
	updated.StampUpdate(now)

	if errs := updated.Validate(); len(errs) > 0 {
		return zero, &domain.ValidationError{Fields: errs}
	}

	newSlug := updated.RecordSlug()
	if s.spec.HasSlug && newSlug != row.Slug {
		_, ferr := coll.FindBySlug(ctx, newSlug, id)
		if ferr == nil {
			return zero, fmt.Errorf("slug %q already in use: %w", newSlug, domain.ErrConflict)
		}
		if !errors.Is(ferr, domain.ErrNotFound) {
			return zero, ferr
		}
	}

	doc, err := marshalWithCreatedAt(updated, row.CreatedAt)
	if err != nil {
		return zero, err
	}
	err = coll.Update(ctx, repository.Row{
		ID:        id,
		Slug:      newSlug,
		Active:    updated.RecordActive(),
		Doc:       doc,
		CreatedAt: row.CreatedAt,
		UpdatedAt: now,
	})
	if err != nil {
		if repository.IsUniqueViolation(err) {
			return zero, fmt.Errorf("slug %q already in use: %w", newSlug, domain.ErrConflict)
		}
		return zero, err
	}
	if err := json.Unmarshal(doc, updated); err != nil {
		return zero, fmt.Errorf("failed to decode %s record: %w", s.spec.Table, err)
	}
	return updated, nil
}

// Delete removes a record: hard delete for collections without a soft-delete
// flag, otherwise the record is marked inactive and disappears from reads
// while staying in the store.
func (s *EntityService[T, P]) Delete(ctx context.Context, partition, id string) error {
	coll, err := s.collections.Collection(s.spec, partition)
	if err != nil {
		return err
	}

	if !s.spec.SoftDelete {
		return coll.Delete(ctx, id)
	}

	row, err := coll.Get(ctx, id, true)
	if err != nil {
		return err
	}

	var doc map[string]any
	if err := json.Unmarshal(row.Doc, &doc); err != nil {
		return fmt.Errorf("failed to decode stored %s record %s: %w", s.spec.Table, id, err)
	}
	now := time.Now().UTC()
	doc["isActive"] = false
	doc["updatedAt"] = now.Format(time.RFC3339Nano)
	updated, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode %s record: %w", s.spec.Table, err)
	}

	return coll.Update(ctx, repository.Row{
		ID:        id,
		Slug:      row.Slug,
		Active:    false,
		Doc:       updated,
		CreatedAt: row.CreatedAt,
		UpdatedAt: now,
	})
}

// marshalWithCreatedAt rewrites the document's createdAt to the stored
// creation time so update paths never move it.
func marshalWithCreatedAt(rec any, createdAt time.Time) (json.RawMessage, error) {
	raw, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to encode record: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("failed to decode record: %w", err)
	}
	m["createdAt"] = createdAt.UTC().Format(time.RFC3339Nano)
	return json.Marshal(m)
}
