package repository

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"time"

	"github.com/lib/pq"
)

// CollectionSpec describes one entity collection inside a tenant partition.
type CollectionSpec struct {
	Table      string
	HasSlug    bool
	SoftDelete bool
}

var (
	LeadsCollection         = CollectionSpec{Table: "leads"}
	PropertiesCollection    = CollectionSpec{Table: "properties", HasSlug: true, SoftDelete: true}
	PropertyTypesCollection = CollectionSpec{Table: "property_types", HasSlug: true, SoftDelete: true}
	AuthorsCollection       = CollectionSpec{Table: "authors", SoftDelete: true}
)

// Row is the stored shape of an entity: identity plus the JSON document.
// Slug and Active are only meaningful where the spec declares them.
type Row struct {
	ID        string
	Slug      string
	Active    bool
	Doc       json.RawMessage
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Query is a conjunctive filter over one collection. Equals keys and
// SearchFields are document field names chosen by the service layer, never
// raw client input.
type Query struct {
	Equals        map[string]string
	Search        string
	SearchFields  []string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
	ActiveOnly    bool
	SortBy        string
	SortDesc      bool
	Offset        int
	Limit         int
}

// Collection is a handle scoped to one partition and one entity table.
type Collection interface {
	Insert(ctx context.Context, row Row) error
	// Get returns ErrNotFound for absent ids; with activeOnly it also hides
	// soft-deleted rows.
	Get(ctx context.Context, id string, activeOnly bool) (*Row, error)
	// FindBySlug looks up an active row by slug, skipping excludeID ("" for
	// no exclusion). Returns ErrNotFound on miss.
	FindBySlug(ctx context.Context, slug, excludeID string) (*Row, error)
	Update(ctx context.Context, row Row) error
	Delete(ctx context.Context, id string) error
	// List returns the matching page and the total match count before
	// pagination.
	List(ctx context.Context, q Query) ([]Row, int, error)
}

// CollectionAccessor opens partition-scoped collection handles. All handles
// share one long-lived connection pool; implementations must not open a
// connection per request.
type CollectionAccessor interface {
	Collection(spec CollectionSpec, partition string) (Collection, error)
}

// ErrDuplicate marks a unique-constraint hit on insert/update. The memory
// implementation returns it directly; IsUniqueViolation also recognizes the
// PostgreSQL unique_violation code.
var ErrDuplicate = errors.New("duplicate key")

func IsUniqueViolation(err error) bool {
	if errors.Is(err, ErrDuplicate) {
		return true
	}
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// Partition names are slug-derived; reject anything else before it reaches
// schema DDL.
var partitionNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

func ValidPartitionName(name string) bool {
	return partitionNamePattern.MatchString(name)
}
