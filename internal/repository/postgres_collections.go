package repository

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"juzbuild-api/internal/domain"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// PostgresCollections maps tenant partitions onto PostgreSQL schemas and
// entity collections onto JSONB document tables inside them. One shared
// *sql.DB pool serves every partition; schema/table DDL runs once per
// process per partition (CREATE ... IF NOT EXISTS, cached).
type PostgresCollections struct {
	db      *sql.DB
	mu      sync.Mutex
	ensured map[string]bool // partition + "/" + table
}

func NewPostgresCollections(db *sql.DB) *PostgresCollections {
	return &PostgresCollections{db: db, ensured: map[string]bool{}}
}

var _ CollectionAccessor = (*PostgresCollections)(nil)

func (c *PostgresCollections) Collection(spec CollectionSpec, partition string) (Collection, error) {
	if !ValidPartitionName(partition) {
		return nil, fmt.Errorf("invalid partition name %q", partition)
	}
	return &postgresCollection{
		parent:    c,
		spec:      spec,
		partition: partition,
		qualified: pq.QuoteIdentifier(partition) + "." + pq.QuoteIdentifier(spec.Table),
	}, nil
}

// ensure creates the partition schema and the collection table on first use.
// All collection tables carry the same meta columns; the slug uniqueness
// index is only created where the collection declares a slug, scoped to
// active rows so a soft-deleted listing frees its slug.
func (c *PostgresCollections) ensure(ctx context.Context, spec CollectionSpec, partition string) error {
	key := partition + "/" + spec.Table
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ensured[key] {
		return nil
	}

	schema := pq.QuoteIdentifier(partition)
	qualified := schema + "." + pq.QuoteIdentifier(spec.Table)

	stmts := []string{
		fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS %s`, schema),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id uuid PRIMARY KEY,
			slug text NOT NULL DEFAULT '',
			is_active boolean NOT NULL DEFAULT TRUE,
			doc jsonb NOT NULL,
			created_at timestamptz NOT NULL,
			updated_at timestamptz NOT NULL
		)`, qualified),
	}
	if spec.HasSlug {
		stmts = append(stmts, fmt.Sprintf(
			`CREATE UNIQUE INDEX IF NOT EXISTS %s ON %s (slug) WHERE is_active`,
			pq.QuoteIdentifier(spec.Table+"_slug_active_key"), qualified,
		))
	}

	for _, stmt := range stmts {
		if _, err := c.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure collection %s: %w", key, err)
		}
	}

	c.ensured[key] = true
	return nil
}

type postgresCollection struct {
	parent    *PostgresCollections
	spec      CollectionSpec
	partition string
	qualified string
}

func (c *postgresCollection) Insert(ctx context.Context, row Row) error {
	if err := c.parent.ensure(ctx, c.spec, c.partition); err != nil {
		return err
	}
	_, err := c.parent.db.ExecContext(ctx, fmt.Sprintf(
		`INSERT INTO %s (id, slug, is_active, doc, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`, c.qualified),
		row.ID, row.Slug, row.Active, []byte(row.Doc), row.CreatedAt, row.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return fmt.Errorf("insert into %s: %w", c.spec.Table, ErrDuplicate)
		}
		return fmt.Errorf("failed to insert into %s: %w", c.spec.Table, err)
	}
	return nil
}

func (c *postgresCollection) Get(ctx context.Context, id string, activeOnly bool) (*Row, error) {
	if err := c.parent.ensure(ctx, c.spec, c.partition); err != nil {
		return nil, err
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrNotFound
	}

	query := fmt.Sprintf(
		`SELECT id::text, slug, is_active, doc, created_at, updated_at FROM %s WHERE id = $1`,
		c.qualified,
	)
	if activeOnly {
		query += ` AND is_active`
	}

	var row Row
	err := c.parent.db.QueryRowContext(ctx, query, id).Scan(
		&row.ID, &row.Slug, &row.Active, (*[]byte)(&row.Doc), &row.CreatedAt, &row.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get from %s: %w", c.spec.Table, err)
	}
	return &row, nil
}

func (c *postgresCollection) FindBySlug(ctx context.Context, slugValue, excludeID string) (*Row, error) {
	if err := c.parent.ensure(ctx, c.spec, c.partition); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(
		`SELECT id::text, slug, is_active, doc, created_at, updated_at
		 FROM %s WHERE slug = $1 AND is_active`, c.qualified)
	args := []any{slugValue}
	if excludeID != "" {
		query += ` AND id <> $2`
		args = append(args, excludeID)
	}
	query += ` LIMIT 1`

	var row Row
	err := c.parent.db.QueryRowContext(ctx, query, args...).Scan(
		&row.ID, &row.Slug, &row.Active, (*[]byte)(&row.Doc), &row.CreatedAt, &row.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find slug in %s: %w", c.spec.Table, err)
	}
	return &row, nil
}

func (c *postgresCollection) Update(ctx context.Context, row Row) error {
	if err := c.parent.ensure(ctx, c.spec, c.partition); err != nil {
		return err
	}

	result, err := c.parent.db.ExecContext(ctx, fmt.Sprintf(
		`UPDATE %s SET slug = $2, is_active = $3, doc = $4, updated_at = $5 WHERE id = $1`,
		c.qualified),
		row.ID, row.Slug, row.Active, []byte(row.Doc), row.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return fmt.Errorf("update %s: %w", c.spec.Table, ErrDuplicate)
		}
		return fmt.Errorf("failed to update %s: %w", c.spec.Table, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (c *postgresCollection) Delete(ctx context.Context, id string) error {
	if err := c.parent.ensure(ctx, c.spec, c.partition); err != nil {
		return err
	}
	if _, err := uuid.Parse(id); err != nil {
		return domain.ErrNotFound
	}

	result, err := c.parent.db.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, c.qualified), id)
	if err != nil {
		return fmt.Errorf("failed to delete from %s: %w", c.spec.Table, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

var docFieldPattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)

func (c *postgresCollection) List(ctx context.Context, q Query) ([]Row, int, error) {
	if err := c.parent.ensure(ctx, c.spec, c.partition); err != nil {
		return nil, 0, err
	}

	where := []string{"TRUE"}
	args := []any{}
	argIdx := 1

	if q.ActiveOnly {
		where = append(where, "is_active")
	}

	// deterministic SQL: iterate filter fields in sorted order
	fields := make([]string, 0, len(q.Equals))
	for f := range q.Equals {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	for _, f := range fields {
		if !docFieldPattern.MatchString(f) {
			return nil, 0, fmt.Errorf("invalid filter field %q", f)
		}
		where = append(where, fmt.Sprintf("doc->>'%s' = $%d", f, argIdx))
		args = append(args, q.Equals[f])
		argIdx++
	}

	if q.Search != "" && len(q.SearchFields) > 0 {
		ors := make([]string, 0, len(q.SearchFields))
		for _, f := range q.SearchFields {
			if !docFieldPattern.MatchString(f) {
				return nil, 0, fmt.Errorf("invalid search field %q", f)
			}
			ors = append(ors, fmt.Sprintf("doc->>'%s' ILIKE $%d", f, argIdx))
		}
		where = append(where, "("+strings.Join(ors, " OR ")+")")
		args = append(args, "%"+q.Search+"%")
		argIdx++
	}

	if q.CreatedAfter != nil {
		where = append(where, fmt.Sprintf("created_at >= $%d", argIdx))
		args = append(args, *q.CreatedAfter)
		argIdx++
	}
	if q.CreatedBefore != nil {
		where = append(where, fmt.Sprintf("created_at <= $%d", argIdx))
		args = append(args, *q.CreatedBefore)
		argIdx++
	}

	whereClause := strings.Join(where, " AND ")

	// total reflects the filter before pagination
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE %s`, c.qualified, whereClause)
	var total int
	if err := c.parent.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count %s: %w", c.spec.Table, err)
	}

	orderExpr, err := sortExpr(q.SortBy)
	if err != nil {
		return nil, 0, err
	}
	direction := "ASC"
	if q.SortDesc {
		direction = "DESC"
	}

	query := fmt.Sprintf(
		`SELECT id::text, slug, is_active, doc, created_at, updated_at
		 FROM %s WHERE %s
		 ORDER BY %s %s, id
		 LIMIT $%d OFFSET $%d`,
		c.qualified, whereClause, orderExpr, direction, argIdx, argIdx+1,
	)
	args = append(args, q.Limit, q.Offset)

	rows, err := c.parent.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list %s: %w", c.spec.Table, err)
	}
	defer rows.Close()

	out := []Row{}
	for rows.Next() {
		var row Row
		if err := rows.Scan(&row.ID, &row.Slug, &row.Active, (*[]byte)(&row.Doc), &row.CreatedAt, &row.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("failed to scan %s row: %w", c.spec.Table, err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate %s: %w", c.spec.Table, err)
	}

	return out, total, nil
}

// sortExpr maps a logical sort field onto a SQL expression. Timestamp sorts
// use the meta columns, known numeric document fields get a cast so ordering
// is numeric rather than lexicographic.
func sortExpr(sortBy string) (string, error) {
	switch sortBy {
	case "", "createdAt":
		return "created_at", nil
	case "updatedAt":
		return "updated_at", nil
	case "price", "beds", "baths", "area":
		return fmt.Sprintf("(doc->>'%s')::numeric", sortBy), nil
	default:
		if !docFieldPattern.MatchString(sortBy) {
			return "", fmt.Errorf("invalid sort field %q", sortBy)
		}
		return fmt.Sprintf("doc->>'%s'", sortBy), nil
	}
}
