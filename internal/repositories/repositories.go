package repositories

import (
	"context"
	"sync"

	"insurecow/internal/models"
	"insurecow/internal/repositories/cache"

	"gorm.io/gorm"
)

// Repositories bundles every repository over one *gorm.DB, which is either the
// root connection or an open transaction.
type Repositories struct {
	db    *gorm.DB
	cache *cache.CacheService
	hooks *commitHooks

	Credentials CredentialRepository
	Roles       RoleRepository
	Pending     PendingRegistrationRepository
	OTP         OTPRepository
	Sessions    SessionRepository
	Profiles    ProfileRepository
	Audit       AuditRepository
	Assets      AssetRepository
	Insurance   InsuranceRepository

	AssetTypes          ReferenceRepository[models.AssetType]
	Breeds              ReferenceRepository[models.Breed]
	Colors              ReferenceRepository[models.Color]
	VaccinationStatuses ReferenceRepository[models.VaccinationStatus]
	DewormingStatuses   ReferenceRepository[models.DewormingStatus]
}

// New builds the bundle. cacheSvc may be nil.
func New(db *gorm.DB, cacheSvc *cache.CacheService) *Repositories {
	return build(db, cacheSvc, nil)
}

func build(db *gorm.DB, cacheSvc *cache.CacheService, hooks *commitHooks) *Repositories {
	return &Repositories{
		db:          db,
		cache:       cacheSvc,
		hooks:       hooks,
		Credentials: NewCredentialRepository(db, cacheSvc, hooks),
		Roles:       NewRoleRepository(db),
		Pending:     NewPendingRegistrationRepository(db),
		OTP:         NewOTPRepository(db),
		Sessions:    NewSessionRepository(db),
		Profiles:    NewProfileRepository(db),
		Audit:       NewAuditRepository(db),
		Assets:      NewAssetRepository(db),
		Insurance:   NewInsuranceRepository(db),

		AssetTypes:          NewReferenceRepository[models.AssetType](db),
		Breeds:              NewReferenceRepository[models.Breed](db),
		Colors:              NewReferenceRepository[models.Color](db),
		VaccinationStatuses: NewReferenceRepository[models.VaccinationStatus](db),
		DewormingStatuses:   NewReferenceRepository[models.DewormingStatus](db),
	}
}

// DB exposes the underlying handle.
func (r *Repositories) DB() *gorm.DB {
	return r.db
}

// Transaction runs fn against a bundle bound to a single transaction.
// Nested calls reuse the surrounding transaction through a savepoint. Work
// registered with the commit hooks, such as cache invalidation, runs once the
// outermost transaction has committed.
func (r *Repositories) Transaction(ctx context.Context, fn func(tx *Repositories) error) error {
	if r.hooks != nil {
		return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return fn(build(tx, r.cache, r.hooks))
		})
	}

	hooks := &commitHooks{}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(build(tx, r.cache, hooks))
	})
	if err != nil {
		return err
	}
	hooks.run(ctx)
	return nil
}

// commitHooks collects work deferred until a transaction commits. A nil
// *commitHooks runs everything immediately.
type commitHooks struct {
	mu  sync.Mutex
	fns []func(ctx context.Context)
}

func (h *commitHooks) after(ctx context.Context, fn func(ctx context.Context)) {
	if h == nil {
		fn(ctx)
		return
	}
	h.mu.Lock()
	h.fns = append(h.fns, fn)
	h.mu.Unlock()
}

func (h *commitHooks) run(ctx context.Context) {
	h.mu.Lock()
	fns := h.fns
	h.fns = nil
	h.mu.Unlock()
	for _, fn := range fns {
		fn(ctx)
	}
}
