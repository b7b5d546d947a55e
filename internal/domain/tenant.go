package domain

const (
	// PartitionPrefix prefixes every generated partition name. Changing it
	// would orphan existing tenant partitions.
	PartitionPrefix = "juzbuild_"

	// PublicDomainSuffix is appended to a tenant's chosen subdomain.
	PublicDomainSuffix = ".juzbuild.com"

	// SharedPartition holds platform-global records (default property types)
	// visible to every tenant.
	SharedPartition = "juzbuild_shared"
)

// Tenant is the resolved data partition for a request. It is derived per
// request and never persisted; the originating website record is.
type Tenant struct {
	PartitionName string
	Domain        string
}

// User is owned by the auth subsystem; this service only reads it.
type User struct {
	UserID     string `db:"user_id"`
	Email      string `db:"email"`
	DomainName string `db:"domain_name"` // chosen subdomain, may be empty
}

// Website is the provisioning record for a generated site (read-only here).
// DBName is the authoritative partition name when present.
type Website struct {
	WebsiteID string `db:"website_id"`
	UserID    string `db:"user_id"`
	Domain    string `db:"domain"`
	DBName    string `db:"db_name"`
	Status    string `db:"status"`
}
