package repositories

import (
	"context"
	"time"

	"insurecow/internal/models"
)

// CredentialRepository defines the credential-related database operations
type CredentialRepository interface {
	// Create inserts a credential; the hierarchy hook runs first.
	Create(ctx context.Context, c *models.Credential) error

	// GetByID retrieves a credential with its role, consulting the cache outside transactions.
	GetByID(ctx context.Context, id uint) (*models.Credential, error)

	// GetByMobile retrieves a credential with its role by mobile number.
	GetByMobile(ctx context.Context, mobile string) (*models.Credential, error)

	// ExistsByMobile reports whether a credential uses mobile.
	ExistsByMobile(ctx context.Context, mobile string) (bool, error)

	// Save persists every column of c without touching associations and drops
	// its cached projection once the surrounding transaction commits.
	Save(ctx context.Context, c *models.Credential) error

	// UpdatePassword stores a new password hash.
	UpdatePassword(ctx context.Context, id uint, hash string) error

	// TouchLastLogin records a successful login.
	TouchLastLogin(ctx context.Context, id uint, at time.Time) error

	// ListManagedBy returns the credentials whose managed_by is managerID.
	ListManagedBy(ctx context.Context, managerID uint) ([]models.Credential, error)

	// List returns a page of credentials and the total count.
	List(ctx context.Context, offset, limit int) ([]models.Credential, int64, error)

	// EvictRole drops the cached projections of every credential holding roleID.
	// Call it before the role changes so that the members can still be found.
	EvictRole(ctx context.Context, roleID uint) error
}
