package repository

import (
	"context"
	"database/sql"
	"fmt"

	"juzbuild-api/internal/domain"
)

// WebsitesRepo reads provisioning records. Website rows are owned by the
// onboarding flow; this service never writes them.
type WebsitesRepo interface {
	// GetOwned returns ErrNotFound both for absent ids and for websites
	// owned by a different user.
	GetOwned(ctx context.Context, websiteID, userID string) (*domain.Website, error)
}

// UsersRepo reads auth-owned user profiles.
type UsersRepo interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
}

type PostgresWebsitesRepo struct {
	db *sql.DB
}

func NewPostgresWebsitesRepo(db *sql.DB) *PostgresWebsitesRepo {
	return &PostgresWebsitesRepo{db: db}
}

var _ WebsitesRepo = (*PostgresWebsitesRepo)(nil)

func (r *PostgresWebsitesRepo) GetOwned(ctx context.Context, websiteID, userID string) (*domain.Website, error) {
	var w domain.Website
	err := r.db.QueryRowContext(ctx,
		`SELECT website_id::text, user_id::text, domain, COALESCE(db_name, ''), status
		 FROM websites
		 WHERE website_id = $1 AND user_id = $2`,
		websiteID, userID,
	).Scan(&w.WebsiteID, &w.UserID, &w.Domain, &w.DBName, &w.Status)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get website: %w", err)
	}
	return &w, nil
}

type PostgresUsersRepo struct {
	db *sql.DB
}

func NewPostgresUsersRepo(db *sql.DB) *PostgresUsersRepo {
	return &PostgresUsersRepo{db: db}
}

var _ UsersRepo = (*PostgresUsersRepo)(nil)

func (r *PostgresUsersRepo) Get(ctx context.Context, userID string) (*domain.User, error) {
	var u domain.User
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id::text, email, COALESCE(domain_name, '') FROM users WHERE user_id = $1`,
		userID,
	).Scan(&u.UserID, &u.Email, &u.DomainName)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}
