// Package profile reads and fills in the profile sub-records of a credential.
// Each record is scaffolded empty and may be filled in exactly once by its owner.
package profile

import (
	"context"
	"errors"

	apperrors "insurecow/internal/errors"
	"insurecow/internal/models"
	"insurecow/internal/repositories"

	log "github.com/sirupsen/logrus"
)

var errOrganizationNotNeeded = apperrors.ErrProfileNotFound.WithMessage("organization info is not needed for this user")

type Service interface {
	GetPersonal(ctx context.Context, actor *models.Credential) (*models.PersonalInfo, error)
	SetPersonal(ctx context.Context, actor *models.Credential, in models.PersonalInfo) (*models.PersonalInfo, error)
	GetFinancial(ctx context.Context, actor *models.Credential) (*models.FinancialInfo, error)
	SetFinancial(ctx context.Context, actor *models.Credential, in models.FinancialInfo) (*models.FinancialInfo, error)
	GetNominee(ctx context.Context, actor *models.Credential) (*models.NomineeInfo, error)
	SetNominee(ctx context.Context, actor *models.Credential, in models.NomineeInfo) (*models.NomineeInfo, error)
	GetOrganization(ctx context.Context, actor *models.Credential) (*models.OrganizationInfo, error)
	SetOrganization(ctx context.Context, actor *models.Credential, in models.OrganizationInfo) (*models.OrganizationInfo, error)
	// Fill writes the given records of a freshly provisioned credential without
	// consuming their single update. Nil records are skipped.
	Fill(ctx context.Context, tx *repositories.Repositories, credentialID uint, records ...models.ProfileRecord) error
}

type service struct {
	repos *repositories.Repositories
}

func NewService(repos *repositories.Repositories) Service {
	return &service{repos: repos}
}

func get[T any](ctx context.Context, repos *repositories.Repositories, actor *models.Credential) (*T, error) {
	if actor == nil {
		return nil, apperrors.ErrUnauthenticated
	}
	var rec T
	if err := repos.Profiles.Get(ctx, actor.ID, &rec); err != nil {
		if errors.Is(err, apperrors.ErrProfileNotFound) {
			return nil, err
		}
		return nil, apperrors.Internal(err)
	}
	return &rec, nil
}

// set loads the actor's record of type T, applies the new values once and saves it.
func set[T any, PT interface {
	*T
	models.ProfileRecord
}](ctx context.Context, repos *repositories.Repositories, actor *models.Credential, apply func(PT)) (PT, error) {
	if actor == nil {
		return nil, apperrors.ErrUnauthenticated
	}
	if !actor.IsActive {
		return nil, apperrors.ErrAccountInactive
	}

	var rec T
	p := PT(&rec)
	err := repos.Profiles.Get(ctx, actor.ID, p)
	switch {
	case errors.Is(err, apperrors.ErrProfileNotFound):
		// records created before scaffolding existed are created on first write
	case err != nil:
		return nil, apperrors.Internal(err)
	case *p.UpdateCounter() >= 1:
		return nil, apperrors.ErrProfileLocked
	default:
		*p.UpdateCounter()++
	}

	apply(p)
	if err := repos.Profiles.Save(ctx, withOwner(p, actor.ID)); err != nil {
		return nil, apperrors.Internal(err)
	}

	log.WithField("credential_id", actor.ID).Infof("%T updated", rec)
	return p, nil
}

// withOwner stamps the credential id on records created by set.
func withOwner(rec models.ProfileRecord, credentialID uint) models.ProfileRecord {
	switch r := rec.(type) {
	case *models.PersonalInfo:
		r.CredentialID = credentialID
	case *models.FinancialInfo:
		r.CredentialID = credentialID
	case *models.NomineeInfo:
		r.CredentialID = credentialID
	case *models.OrganizationInfo:
		r.CredentialID = credentialID
	}
	return rec
}

func (s *service) GetPersonal(ctx context.Context, actor *models.Credential) (*models.PersonalInfo, error) {
	return get[models.PersonalInfo](ctx, s.repos, actor)
}

func (s *service) SetPersonal(ctx context.Context, actor *models.Credential, in models.PersonalInfo) (*models.PersonalInfo, error) {
	return set[models.PersonalInfo](ctx, s.repos, actor, func(p *models.PersonalInfo) {
		copyPersonal(p, &in)
	})
}

func (s *service) GetFinancial(ctx context.Context, actor *models.Credential) (*models.FinancialInfo, error) {
	return get[models.FinancialInfo](ctx, s.repos, actor)
}

func (s *service) SetFinancial(ctx context.Context, actor *models.Credential, in models.FinancialInfo) (*models.FinancialInfo, error) {
	return set[models.FinancialInfo](ctx, s.repos, actor, func(p *models.FinancialInfo) {
		copyFinancial(p, &in)
	})
}

func (s *service) GetNominee(ctx context.Context, actor *models.Credential) (*models.NomineeInfo, error) {
	return get[models.NomineeInfo](ctx, s.repos, actor)
}

func (s *service) SetNominee(ctx context.Context, actor *models.Credential, in models.NomineeInfo) (*models.NomineeInfo, error) {
	return set[models.NomineeInfo](ctx, s.repos, actor, func(p *models.NomineeInfo) {
		copyNominee(p, &in)
	})
}

func (s *service) GetOrganization(ctx context.Context, actor *models.Credential) (*models.OrganizationInfo, error) {
	if actor != nil && !models.NeedsOrganizationInfo(actor.RoleID) {
		return nil, errOrganizationNotNeeded
	}
	return get[models.OrganizationInfo](ctx, s.repos, actor)
}

func (s *service) SetOrganization(ctx context.Context, actor *models.Credential, in models.OrganizationInfo) (*models.OrganizationInfo, error) {
	if actor != nil && !models.NeedsOrganizationInfo(actor.RoleID) {
		return nil, errOrganizationNotNeeded
	}
	var rec *models.OrganizationInfo
	err := s.repos.Transaction(ctx, func(tx *repositories.Repositories) error {
		var err error
		rec, err = set[models.OrganizationInfo](ctx, tx, actor, func(p *models.OrganizationInfo) {
			copyOrganization(p, &in)
		})
		if err != nil {
			return err
		}
		return renameCompany(ctx, tx, actor.ID, rec.Name)
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// renameCompany keeps an insurer's company name in step with its organization info.
func renameCompany(ctx context.Context, tx *repositories.Repositories, credentialID uint, name string) error {
	if err := tx.Insurance.RenameCompany(ctx, credentialID, name); err != nil {
		return apperrors.Internal(err)
	}
	return nil
}

func (s *service) Fill(ctx context.Context, tx *repositories.Repositories, credentialID uint, records ...models.ProfileRecord) error {
	for _, in := range records {
		var err error
		switch r := in.(type) {
		case *models.PersonalInfo:
			err = fill(ctx, tx, credentialID, func(p *models.PersonalInfo) { copyPersonal(p, r) }, r == nil)
		case *models.FinancialInfo:
			err = fill(ctx, tx, credentialID, func(p *models.FinancialInfo) { copyFinancial(p, r) }, r == nil)
		case *models.NomineeInfo:
			err = fill(ctx, tx, credentialID, func(p *models.NomineeInfo) { copyNominee(p, r) }, r == nil)
		case *models.OrganizationInfo:
			err = fill(ctx, tx, credentialID, func(p *models.OrganizationInfo) { copyOrganization(p, r) }, r == nil)
			if err == nil && r != nil {
				err = renameCompany(ctx, tx, credentialID, r.Name)
			}
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func fill[T any, PT interface {
	*T
	models.ProfileRecord
}](ctx context.Context, tx *repositories.Repositories, credentialID uint, apply func(PT), skip bool) error {
	if skip {
		return nil
	}
	var rec T
	p := PT(&rec)
	if err := tx.Profiles.Get(ctx, credentialID, p); err != nil {
		return err
	}
	apply(p)
	if err := tx.Profiles.Save(ctx, p); err != nil {
		return apperrors.Internal(err)
	}
	return nil
}

func copyPersonal(dst, src *models.PersonalInfo) {
	dst.FirstName = src.FirstName
	dst.LastName = src.LastName
	dst.NID = src.NID
	dst.DateOfBirth = src.DateOfBirth
	dst.Gender = src.Gender
	dst.TIN = src.TIN
}

func copyFinancial(dst, src *models.FinancialInfo) {
	dst.BankName = src.BankName
	dst.BranchName = src.BranchName
	dst.AccountName = src.AccountName
	dst.AccountNumber = src.AccountNumber
}

func copyNominee(dst, src *models.NomineeInfo) {
	dst.NomineeName = src.NomineeName
	dst.Phone = src.Phone
	dst.Email = src.Email
	dst.NID = src.NID
}

func copyOrganization(dst, src *models.OrganizationInfo) {
	dst.Name = src.Name
	dst.Established = src.Established
	dst.TIN = src.TIN
	dst.BIN = src.BIN
}
