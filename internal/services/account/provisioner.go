// Package account creates credentials together with everything a new account owns.
package account

import (
	"context"

	apperrors "insurecow/internal/errors"
	"insurecow/internal/models"
	"insurecow/internal/repositories"
	"insurecow/internal/services/session"
	"insurecow/internal/utils"

	log "github.com/sirupsen/logrus"
)

type Input struct {
	Mobile        string
	Password      string
	RoleID        *uint
	ManagedByID   *uint
	OnboardedByID *uint
	IsStaff       bool
	IsSuperuser   bool
}

// Provisioner inserts a credential, generates its session tokens and scaffolds
// its profile records. Insurance company accounts also get their company row. Callers run it inside their own transaction.
type Provisioner struct {
	hasher   *utils.PasswordHasher
	sessions session.Service
}

func NewProvisioner(hasher *utils.PasswordHasher, sessions session.Service) *Provisioner {
	return &Provisioner{hasher: hasher, sessions: sessions}
}

func (p *Provisioner) Provision(ctx context.Context, tx *repositories.Repositories, in Input) (*models.Credential, error) {
	hash, err := p.hasher.Hash(in.Password)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	cred := &models.Credential{
		MobileNumber:  in.Mobile,
		Password:      hash,
		RoleID:        in.RoleID,
		ManagedByID:   in.ManagedByID,
		OnboardedByID: in.OnboardedByID,
		IsActive:      true,
		IsStaff:       in.IsStaff,
		IsSuperuser:   in.IsSuperuser,
	}
	if err := tx.Credentials.Create(ctx, cred); err != nil {
		if apperrors.KindOf(err) == apperrors.KindInternal {
			return nil, apperrors.Internal(err)
		}
		return nil, err
	}

	if cred.RoleID != nil {
		role, err := tx.Roles.GetByID(ctx, *cred.RoleID)
		if err != nil {
			return nil, err
		}
		cred.Role = role
	}

	sessions := p.sessions.WithTx(tx)
	sess, err := sessions.Ensure(ctx, cred)
	if err != nil {
		return nil, err
	}
	if _, err := sessions.Generate(ctx, cred, sess, false); err != nil {
		return nil, err
	}

	if err := tx.Profiles.Scaffold(ctx, cred.ID, models.NeedsOrganizationInfo(cred.RoleID)); err != nil {
		return nil, apperrors.Internal(err)
	}

	if cred.HasRole(models.RoleInsuranceCompany) {
		if err := tx.Insurance.CreateCompany(ctx, &models.InsuranceCompany{CredentialID: cred.ID}); err != nil {
			return nil, apperrors.Internal(err)
		}
	}

	log.WithFields(log.Fields{
		"credential_id": cred.ID,
		"mobile":        cred.MobileNumber,
	}).Info("account provisioned")
	return cred, nil
}
