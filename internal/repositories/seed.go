package repositories

import (
	"context"

	"insurecow/internal/models"
)

// SeedRoles inserts the well-known roles, leaving existing rows untouched.
func (r *Repositories) SeedRoles(ctx context.Context) error {
	for _, role := range models.DefaultRoles() {
		role := role
		if err := r.Roles.Seed(ctx, &role); err != nil {
			return err
		}
	}
	return nil
}

// SeedOTPLimits inserts the default per-category OTP limits.
func (r *Repositories) SeedOTPLimits(ctx context.Context) error {
	for _, limit := range models.DefaultOTPLimits() {
		limit := limit
		if err := r.OTP.SeedLimit(ctx, &limit); err != nil {
			return err
		}
	}
	return nil
}
