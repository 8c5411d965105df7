// Package asset registers animals against their owners. Every write leaves an
// audit row in the same transaction.
package asset

import (
	"context"
	"time"

	apperrors "insurecow/internal/errors"
	"insurecow/internal/models"
	"insurecow/internal/policy"
	"insurecow/internal/repositories"
	"insurecow/internal/validation"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const auditModel = "Asset"

var errNotSubUser = apperrors.ErrForbidden.WithMessage("assets can only be created on behalf of your own sub-users")

type Input struct {
	// OwnerID creates the asset on behalf of another credential.
	OwnerID             *uint
	AssetTypeID         *uint
	BreedID             *uint
	ColorID             *uint
	VaccinationStatusID *uint
	LastVaccinationDate *time.Time
	DewormingStatusID   *uint
	LastDewormingDate   *time.Time
	AgeInMonths         int
	WeightKg            float64
	SpecialMark         string
	HealthIssues        string
	Remarks             string
	IsActive            *bool
}

type Service interface {
	List(ctx context.Context, actor *models.Credential) ([]models.Asset, error)
	Create(ctx context.Context, actor *models.Credential, in Input) (*models.Asset, error)
	Get(ctx context.Context, actor *models.Credential, id uint) (*models.Asset, error)
	Update(ctx context.Context, actor *models.Credential, id uint, in Input) (*models.Asset, error)
	Delete(ctx context.Context, actor *models.Credential, id uint) error
	History(ctx context.Context, actor *models.Credential, id uint) ([]models.AuditLog, error)
}

type service struct {
	repos  *repositories.Repositories
	policy *policy.Policy
}

func NewService(repos *repositories.Repositories, pol *policy.Policy) Service {
	return &service{repos: repos, policy: pol}
}

func (s *service) List(ctx context.Context, actor *models.Credential) ([]models.Asset, error) {
	if actor == nil {
		return nil, apperrors.ErrUnauthenticated
	}
	var owner *uint
	if !actor.IsSuperuser {
		owner = &actor.ID
	}
	assets, err := s.repos.Assets.List(ctx, owner)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return assets, nil
}

func validate(in Input) error {
	now := time.Now()
	v := validation.New()
	v.Check(in.AssetTypeID != nil, "asset_type_id", "this field is required")
	v.Check(in.AgeInMonths >= 0, "age_in_months", "must not be negative")
	v.Check(in.WeightKg >= 0, "weight_kg", "must not be negative")
	v.Check(in.LastVaccinationDate == nil || !in.LastVaccinationDate.After(now), "last_vaccination_date", "must not be in the future")
	v.Check(in.LastDewormingDate == nil || !in.LastDewormingDate.After(now), "last_deworming_date", "must not be in the future")
	return v.Err()
}

// checkReferences reports every lookup id in the input that names no row.
func checkReferences(ctx context.Context, tx *repositories.Repositories, in Input) error {
	checks := []struct {
		field string
		found func() (bool, error)
	}{
		{"asset_type_id", func() (bool, error) { return exists(ctx, tx.AssetTypes, in.AssetTypeID) }},
		{"breed_id", func() (bool, error) { return exists(ctx, tx.Breeds, in.BreedID) }},
		{"color_id", func() (bool, error) { return exists(ctx, tx.Colors, in.ColorID) }},
		{"vaccination_status_id", func() (bool, error) { return exists(ctx, tx.VaccinationStatuses, in.VaccinationStatusID) }},
		{"deworming_status_id", func() (bool, error) { return exists(ctx, tx.DewormingStatuses, in.DewormingStatusID) }},
	}

	v := validation.New()
	for _, c := range checks {
		ok, err := c.found()
		if err != nil {
			return err
		}
		v.Check(ok, c.field, "object does not exist")
	}
	return v.Err()
}

func exists[T any](ctx context.Context, repo repositories.ReferenceRepository[T], id *uint) (bool, error) {
	if id == nil {
		return true, nil
	}
	_, err := repo.GetByID(ctx, *id)
	switch {
	case err == nil:
		return true, nil
	case apperrors.KindOf(err) == apperrors.KindNotFound:
		return false, nil
	}
	return false, apperrors.Internal(err)
}

// owner resolves who the new asset belongs to.
func (s *service) owner(ctx context.Context, tx *repositories.Repositories, actor *models.Credential, ownerID *uint) (uint, error) {
	if ownerID == nil || *ownerID == actor.ID {
		return actor.ID, nil
	}
	if err := s.policy.Enforce(actor, policy.Any(policy.Staff(), policy.Role(models.RoleOrganization))); err != nil {
		return 0, err
	}

	target, err := tx.Credentials.GetByID(ctx, *ownerID)
	if err != nil {
		if apperrors.KindOf(err) == apperrors.KindNotFound {
			return 0, apperrors.FieldError("owner_id", "user not found")
		}
		return 0, apperrors.Internal(err)
	}
	if !actor.IsStaff && !actor.IsSuperuser {
		if target.ManagedByID == nil || *target.ManagedByID != actor.ID {
			return 0, errNotSubUser
		}
	}
	return target.ID, nil
}

func (s *service) Create(ctx context.Context, actor *models.Credential, in Input) (*models.Asset, error) {
	if actor == nil {
		return nil, apperrors.ErrUnauthenticated
	}
	if err := validate(in); err != nil {
		return nil, err
	}

	var asset *models.Asset
	err := s.repos.Transaction(ctx, func(tx *repositories.Repositories) error {
		ownerID, err := s.owner(ctx, tx, actor, in.OwnerID)
		if err != nil {
			return err
		}
		if err := checkReferences(ctx, tx, in); err != nil {
			return err
		}

		asset = &models.Asset{
			OwnerID:     ownerID,
			CreatedByID: &actor.ID,
			UpdatedByID: &actor.ID,
			ReferenceID: uuid.NewString(),
			IsActive:    true,
		}
		apply(asset, in)
		if err := tx.Assets.Create(ctx, asset); err != nil {
			return apperrors.Internal(err)
		}
		// a false bool is skipped by the column default on insert
		if in.IsActive != nil && !*in.IsActive {
			asset.IsActive = false
			if err := tx.Assets.Save(ctx, asset); err != nil {
				return apperrors.Internal(err)
			}
		}
		if asset, err = reload(ctx, tx, asset.ID); err != nil {
			return err
		}
		return record(ctx, tx, actor, asset.ID, models.AuditActionCreate, asset)
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"asset_id": asset.ID,
		"owner_id": asset.OwnerID,
		"actor_id": actor.ID,
	}).Info("asset created")
	return asset, nil
}

// load fetches an asset the actor may see. Assets of other owners are reported
// as missing.
func (s *service) load(ctx context.Context, repos *repositories.Repositories, actor *models.Credential, id uint) (*models.Asset, error) {
	if actor == nil {
		return nil, apperrors.ErrUnauthenticated
	}
	asset, err := repos.Assets.GetByID(ctx, id)
	if err != nil {
		if apperrors.KindOf(err) == apperrors.KindNotFound {
			return nil, err
		}
		return nil, apperrors.Internal(err)
	}
	if !s.policy.Check(actor, policy.Owner(asset.OwnerID)).Allowed {
		return nil, apperrors.ErrAssetNotFound
	}
	return asset, nil
}

func (s *service) Get(ctx context.Context, actor *models.Credential, id uint) (*models.Asset, error) {
	return s.load(ctx, s.repos, actor, id)
}

func (s *service) Update(ctx context.Context, actor *models.Credential, id uint, in Input) (*models.Asset, error) {
	if err := validate(in); err != nil {
		return nil, err
	}

	var asset *models.Asset
	err := s.repos.Transaction(ctx, func(tx *repositories.Repositories) error {
		var err error
		asset, err = s.load(ctx, tx, actor, id)
		if err != nil {
			return err
		}

		if err := checkReferences(ctx, tx, in); err != nil {
			return err
		}

		before := *asset
		apply(asset, in)
		asset.UpdatedByID = &actor.ID
		if err := tx.Assets.Save(ctx, asset); err != nil {
			return apperrors.Internal(err)
		}
		if asset, err = reload(ctx, tx, asset.ID); err != nil {
			return err
		}
		return record(ctx, tx, actor, asset.ID, models.AuditActionUpdate, diff(&before, asset))
	})
	if err != nil {
		return nil, err
	}
	return asset, nil
}

func (s *service) Delete(ctx context.Context, actor *models.Credential, id uint) error {
	return s.repos.Transaction(ctx, func(tx *repositories.Repositories) error {
		asset, err := s.load(ctx, tx, actor, id)
		if err != nil {
			return err
		}
		if err := tx.Assets.Delete(ctx, asset.ID); err != nil {
			if apperrors.KindOf(err) == apperrors.KindNotFound {
				return err
			}
			return apperrors.Internal(err)
		}
		return record(ctx, tx, actor, asset.ID, models.AuditActionDelete, asset)
	})
}

func (s *service) History(ctx context.Context, actor *models.Credential, id uint) ([]models.AuditLog, error) {
	if _, err := s.load(ctx, s.repos, actor, id); err != nil {
		return nil, err
	}
	logs, err := s.repos.Audit.ListForInstance(ctx, auditModel, id)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return logs, nil
}

func record(ctx context.Context, tx *repositories.Repositories, actor *models.Credential, assetID uint, action string, changes interface{}) error {
	if err := tx.Audit.Record(ctx, &actor.ID, auditModel, assetID, action, changes); err != nil {
		return apperrors.Internal(err)
	}
	return nil
}

// reload picks up the lookup entries the saved ids point at.
func reload(ctx context.Context, tx *repositories.Repositories, id uint) (*models.Asset, error) {
	asset, err := tx.Assets.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return asset, nil
}

// apply copies the input onto a. Loaded lookup entries are dropped so that
// only the ids are written.
func apply(a *models.Asset, in Input) {
	a.AssetTypeID, a.AssetType = in.AssetTypeID, nil
	a.BreedID, a.Breed = in.BreedID, nil
	a.ColorID, a.Color = in.ColorID, nil
	a.VaccinationStatusID, a.VaccinationStatus = in.VaccinationStatusID, nil
	a.LastVaccinationDate = in.LastVaccinationDate
	a.DewormingStatusID, a.DewormingStatus = in.DewormingStatusID, nil
	a.LastDewormingDate = in.LastDewormingDate
	a.AgeInMonths = in.AgeInMonths
	a.WeightKg = in.WeightKg
	a.SpecialMark = in.SpecialMark
	a.HealthIssues = in.HealthIssues
	a.Remarks = in.Remarks
	if in.IsActive != nil {
		a.IsActive = *in.IsActive
	}
}

type change struct {
	Old interface{} `json:"old"`
	New interface{} `json:"new"`
}

// diff lists the business fields that differ between before and after, keyed by json name.
func diff(before, after *models.Asset) map[string]change {
	out := map[string]change{}
	add := func(field string, from, to interface{}) {
		if from != to {
			out[field] = change{Old: from, New: to}
		}
	}
	add("asset_type_id", refID(before.AssetTypeID), refID(after.AssetTypeID))
	add("breed_id", refID(before.BreedID), refID(after.BreedID))
	add("color_id", refID(before.ColorID), refID(after.ColorID))
	add("vaccination_status_id", refID(before.VaccinationStatusID), refID(after.VaccinationStatusID))
	add("last_vaccination_date", dayOf(before.LastVaccinationDate), dayOf(after.LastVaccinationDate))
	add("deworming_status_id", refID(before.DewormingStatusID), refID(after.DewormingStatusID))
	add("last_deworming_date", dayOf(before.LastDewormingDate), dayOf(after.LastDewormingDate))
	add("age_in_months", before.AgeInMonths, after.AgeInMonths)
	add("weight_kg", before.WeightKg, after.WeightKg)
	add("special_mark", before.SpecialMark, after.SpecialMark)
	add("health_issues", before.HealthIssues, after.HealthIssues)
	add("remarks", before.Remarks, after.Remarks)
	add("is_active", before.IsActive, after.IsActive)
	return out
}

func refID(p *uint) interface{} {
	if p == nil {
		return nil
	}
	return *p
}

func dayOf(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.Format("2006-01-02")
}
