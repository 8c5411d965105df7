// Package user covers what a signed-in credential does with its own account and
// the admin operations over other accounts.
package user

import (
	"context"

	apperrors "insurecow/internal/errors"
	"insurecow/internal/models"
	"insurecow/internal/policy"
	"insurecow/internal/repositories"
	"insurecow/internal/services/account"
	"insurecow/internal/services/profile"
	"insurecow/internal/services/session"
	"insurecow/internal/utils"
	"insurecow/internal/validation"

	log "github.com/sirupsen/logrus"
)

// CreateInput describes an account created by another user. The profile
// records are optional and written on top of the scaffolded ones.
type CreateInput struct {
	Mobile       string
	Password     string
	RoleID       *uint
	ManagedByID  *uint
	Personal     *models.PersonalInfo
	Financial    *models.FinancialInfo
	Nominee      *models.NomineeInfo
	Organization *models.OrganizationInfo
}

type ChangePasswordInput struct {
	OldPassword     string
	NewPassword     string
	ConfirmPassword string
}

type Service interface {
	// SubUsers lists the credentials directly managed by actor.
	SubUsers(ctx context.Context, actor *models.Credential) ([]models.Credential, error)
	// ChangePassword replaces the actor's password and revokes its current tokens.
	ChangePassword(ctx context.Context, actor *models.Credential, in ChangePasswordInput) (*session.TokenPair, error)
	CreateUser(ctx context.Context, actor *models.Credential, in CreateInput) (*models.Credential, error)
	CreateSubUser(ctx context.Context, actor *models.Credential, in CreateInput) (*models.Credential, error)
	// SetManagedBy assigns (or clears, with a nil managerID) the manager of userID.
	SetManagedBy(ctx context.Context, actor *models.Credential, userID uint, managerID *uint) (*models.Credential, error)
	ListUsers(ctx context.Context, actor *models.Credential, page *utils.Pagination) ([]models.Credential, error)
}

type service struct {
	repos       *repositories.Repositories
	hasher      *utils.PasswordHasher
	sessions    session.Service
	profiles    profile.Service
	provisioner *account.Provisioner
	policy      *policy.Policy
}

func NewService(
	repos *repositories.Repositories,
	hasher *utils.PasswordHasher,
	sessions session.Service,
	profiles profile.Service,
	provisioner *account.Provisioner,
	pol *policy.Policy,
) Service {
	return &service{
		repos:       repos,
		hasher:      hasher,
		sessions:    sessions,
		profiles:    profiles,
		provisioner: provisioner,
		policy:      pol,
	}
}

func (s *service) SubUsers(ctx context.Context, actor *models.Credential) ([]models.Credential, error) {
	if err := s.policy.Enforce(actor, policy.Organization()); err != nil {
		return nil, err
	}
	subs, err := s.repos.Credentials.ListManagedBy(ctx, actor.ID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return subs, nil
}

func (s *service) ChangePassword(ctx context.Context, actor *models.Credential, in ChangePasswordInput) (*session.TokenPair, error) {
	if actor == nil {
		return nil, apperrors.ErrUnauthenticated
	}

	v := validation.New()
	v.Required("old_password", in.OldPassword)
	v.Required("new_password", in.NewPassword)
	v.Password("new_password", in.NewPassword)
	v.Check(in.NewPassword == in.ConfirmPassword, "confirm_password", "passwords do not match")
	if err := v.Err(); err != nil {
		return nil, err
	}

	var tokens *session.TokenPair
	err := s.repos.Transaction(ctx, func(tx *repositories.Repositories) error {
		// read inside the transaction so the password hash comes from the database
		cred, err := tx.Credentials.GetByID(ctx, actor.ID)
		if err != nil {
			return err
		}
		if !s.hasher.Verify(in.OldPassword, cred.Password) {
			return apperrors.FieldError("old_password", "old password is incorrect")
		}

		hash, err := s.hasher.Hash(in.NewPassword)
		if err != nil {
			return apperrors.Internal(err)
		}
		if err := tx.Credentials.UpdatePassword(ctx, cred.ID, hash); err != nil {
			return apperrors.Internal(err)
		}

		sessions := s.sessions.WithTx(tx)
		sess, err := sessions.Ensure(ctx, cred)
		if err != nil {
			return err
		}
		sess, err = sessions.Generate(ctx, cred, sess, true)
		if err != nil {
			return err
		}
		tokens = &session.TokenPair{Access: sess.AccessToken, Refresh: sess.RefreshToken}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.WithField("credential_id", actor.ID).Info("password changed")
	return tokens, nil
}

func (s *service) CreateUser(ctx context.Context, actor *models.Credential, in CreateInput) (*models.Credential, error) {
	if err := s.policy.Enforce(actor, policy.Staff()); err != nil {
		return nil, err
	}
	if in.ManagedByID != nil && !actor.IsSuperuser {
		return nil, apperrors.ErrForbidden.WithMessage("only superusers can assign managed_by")
	}
	return s.create(ctx, in, account.Input{
		Mobile:        in.Mobile,
		Password:      in.Password,
		RoleID:        in.RoleID,
		ManagedByID:   in.ManagedByID,
		OnboardedByID: &actor.ID,
	})
}

func (s *service) CreateSubUser(ctx context.Context, actor *models.Credential, in CreateInput) (*models.Credential, error) {
	if err := s.policy.Enforce(actor, policy.Role(models.RoleOrganization)); err != nil {
		return nil, err
	}
	return s.create(ctx, in, account.Input{
		Mobile:      in.Mobile,
		Password:    in.Password,
		RoleID:      in.RoleID,
		ManagedByID: &actor.ID,
	})
}

func (s *service) create(ctx context.Context, in CreateInput, acc account.Input) (*models.Credential, error) {
	v := validation.New()
	v.Mobile("mobile_number", in.Mobile)
	v.Password("password", in.Password)
	if in.Organization != nil && !models.NeedsOrganizationInfo(in.RoleID) {
		v.AddError("organization_info", "organization info is not needed for this user")
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	var cred *models.Credential
	err := s.repos.Transaction(ctx, func(tx *repositories.Repositories) error {
		if in.RoleID != nil {
			role, err := tx.Roles.GetByID(ctx, *in.RoleID)
			switch {
			case apperrors.KindOf(err) == apperrors.KindNotFound, err == nil && !role.IsActive:
				return apperrors.FieldError("role_id", "invalid role")
			case err != nil:
				return apperrors.Internal(err)
			}
		}

		var err error
		cred, err = s.provisioner.Provision(ctx, tx, acc)
		if err != nil {
			return err
		}
		return s.profiles.Fill(ctx, tx, cred.ID, in.Personal, in.Financial, in.Nominee, in.Organization)
	})
	if err != nil {
		return nil, err
	}
	return cred, nil
}

func (s *service) SetManagedBy(ctx context.Context, actor *models.Credential, userID uint, managerID *uint) (*models.Credential, error) {
	if err := s.policy.Enforce(actor, policy.Superuser()); err != nil {
		return nil, err
	}

	var cred *models.Credential
	err := s.repos.Transaction(ctx, func(tx *repositories.Repositories) error {
		var err error
		cred, err = tx.Credentials.GetByID(ctx, userID)
		if err != nil {
			return err
		}
		cred.ManagedByID = managerID
		return tx.Credentials.Save(ctx, cred)
	})
	if err != nil {
		if apperrors.KindOf(err) == apperrors.KindInternal {
			return nil, apperrors.Internal(err)
		}
		return nil, err
	}

	log.WithFields(log.Fields{
		"credential_id": cred.ID,
		"actor_id":      actor.ID,
	}).Info("manager assigned")
	return cred, nil
}

func (s *service) ListUsers(ctx context.Context, actor *models.Credential, page *utils.Pagination) ([]models.Credential, error) {
	if err := s.policy.Enforce(actor, policy.Superuser()); err != nil {
		return nil, err
	}
	users, total, err := s.repos.Credentials.List(ctx, page.Offset, page.Limit)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	page.SetTotal(total)
	return users, nil
}
