package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"juzbuild-api/internal/domain"
	"juzbuild-api/internal/slug"

	"go.uber.org/zap"
)

// TenantResolver turns a request's tenant hints plus the authenticated user
// into a concrete partition reference. The fallback chain is compatibility
// critical: already-provisioned partitions were named by exactly these
// rules, so the order and the derivation must not change.
//
//  1. explicit websiteId, looked up scoped to the caller; the website's
//     db_name is authoritative (derived from its domain when blank)
//  2. explicit domain, used verbatim as the public domain
//  3. the user profile's chosen subdomain
//  4. the local part of the user's email
type TenantResolver struct {
	websites WebsitesRepo
	users    UsersRepo
	logger   *zap.Logger
}

func NewTenantResolver(websites WebsitesRepo, users UsersRepo, logger *zap.Logger) *TenantResolver {
	return &TenantResolver{websites: websites, users: users, logger: logger}
}

// Resolve is idempotent for a stable profile and performs at most one
// website lookup plus one profile read. No caching across requests.
func (r *TenantResolver) Resolve(ctx context.Context, websiteID, explicitDomain, userID string) (domain.Tenant, error) {
	if websiteID != "" {
		w, err := r.websites.GetOwned(ctx, websiteID, userID)
		switch {
		case err == nil:
			partition := w.DBName
			if partition == "" {
				partition = domain.PartitionPrefix + slug.Normalize(w.Domain)
			}
			return domain.Tenant{PartitionName: partition, Domain: w.Domain}, nil
		case errors.Is(err, domain.ErrNotFound):
			// An ownership mismatch deliberately looks identical to a stale
			// id: the caller falls through to their own profile-derived
			// partition instead of getting an authorization error. Logged so
			// product can measure how often it happens.
			r.logger.Warn("websiteId not resolvable for caller, falling back to profile",
				zap.String("website_id", websiteID))
		default:
			return domain.Tenant{}, fmt.Errorf("failed to look up website: %w", err)
		}
	}

	u, err := r.users.Get(ctx, userID)
	if err != nil {
		return domain.Tenant{}, fmt.Errorf("failed to load user profile: %w", err)
	}

	base := u.DomainName
	if base == "" {
		base = emailLocalPart(u.Email)
	}
	if base == "" {
		return domain.Tenant{}, fmt.Errorf("user %s has neither a domain name nor an email", userID)
	}

	t := domain.Tenant{
		PartitionName: domain.PartitionPrefix + slug.Normalize(base),
		Domain:        base + domain.PublicDomainSuffix,
	}
	if explicitDomain != "" {
		t.Domain = explicitDomain
	}
	return t, nil
}

func emailLocalPart(email string) string {
	if i := strings.Index(email, "@"); i >= 0 {
		return email[:i]
	}
	return email
}
