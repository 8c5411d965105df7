// Package role manages the role catalogue. Listing active roles is public;
// everything else is reserved to superusers.
package role

import (
	"context"
	"strings"

	apperrors "insurecow/internal/errors"
	"insurecow/internal/models"
	"insurecow/internal/policy"
	"insurecow/internal/repositories"
	"insurecow/internal/validation"

	log "github.com/sirupsen/logrus"
)

type Input struct {
	Name string
	// IsActive defaults to true on create and is left unchanged on update when nil.
	IsActive *bool
}

type Service interface {
	ListActive(ctx context.Context) ([]models.Role, error)
	Create(ctx context.Context, actor *models.Credential, in Input) (*models.Role, error)
	Get(ctx context.Context, actor *models.Credential, id uint) (*models.Role, error)
	Update(ctx context.Context, actor *models.Credential, id uint, in Input) (*models.Role, error)
	Delete(ctx context.Context, actor *models.Credential, id uint) error
}

type service struct {
	repos  *repositories.Repositories
	policy *policy.Policy
}

func NewService(repos *repositories.Repositories, pol *policy.Policy) Service {
	return &service{repos: repos, policy: pol}
}

func (s *service) ListActive(ctx context.Context) ([]models.Role, error) {
	roles, err := s.repos.Roles.List(ctx, true)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return roles, nil
}

func validateName(name string) error {
	v := validation.New()
	v.Required("name", name)
	v.MaxLength("name", name, validation.MaxRoleNameLength)
	return v.Err()
}

func (s *service) Create(ctx context.Context, actor *models.Credential, in Input) (*models.Role, error) {
	if err := s.policy.Enforce(actor, policy.Superuser()); err != nil {
		return nil, err
	}
	in.Name = strings.TrimSpace(in.Name)
	if err := validateName(in.Name); err != nil {
		return nil, err
	}

	role := &models.Role{Name: in.Name, IsActive: true}
	err := s.repos.Transaction(ctx, func(tx *repositories.Repositories) error {
		if err := tx.Roles.Create(ctx, role); err != nil {
			return err
		}
		// a false bool is skipped by the column default on insert
		if in.IsActive != nil && !*in.IsActive {
			role.IsActive = false
			return tx.Roles.Save(ctx, role)
		}
		return nil
	})
	if err != nil {
		return nil, classify(err)
	}

	log.WithFields(log.Fields{"role_id": role.ID, "name": role.Name}).Info("role created")
	return role, nil
}

func (s *service) Get(ctx context.Context, actor *models.Credential, id uint) (*models.Role, error) {
	if err := s.policy.Enforce(actor, policy.Superuser()); err != nil {
		return nil, err
	}
	role, err := s.repos.Roles.GetByID(ctx, id)
	if err != nil {
		return nil, classify(err)
	}
	return role, nil
}

func (s *service) Update(ctx context.Context, actor *models.Credential, id uint, in Input) (*models.Role, error) {
	if err := s.policy.Enforce(actor, policy.Superuser()); err != nil {
		return nil, err
	}
	in.Name = strings.TrimSpace(in.Name)
	if err := validateName(in.Name); err != nil {
		return nil, err
	}

	var role *models.Role
	err := s.repos.Transaction(ctx, func(tx *repositories.Repositories) error {
		var err error
		role, err = tx.Roles.GetByID(ctx, id)
		if err != nil {
			return err
		}
		role.Name = in.Name
		if in.IsActive != nil {
			role.IsActive = *in.IsActive
		}
		if err := tx.Credentials.EvictRole(ctx, id); err != nil {
			return err
		}
		return tx.Roles.Save(ctx, role)
	})
	if err != nil {
		return nil, classify(err)
	}
	return role, nil
}

// Delete removes a role. Credentials holding it keep their account with no role.
func (s *service) Delete(ctx context.Context, actor *models.Credential, id uint) error {
	if err := s.policy.Enforce(actor, policy.Superuser()); err != nil {
		return err
	}
	err := s.repos.Transaction(ctx, func(tx *repositories.Repositories) error {
		// members are looked up before the foreign key clears their role_id
		if err := tx.Credentials.EvictRole(ctx, id); err != nil {
			return err
		}
		return tx.Roles.Delete(ctx, id)
	})
	if err != nil {
		return classify(err)
	}
	log.WithField("role_id", id).Info("role deleted")
	return nil
}

func classify(err error) error {
	if apperrors.KindOf(err) == apperrors.KindInternal {
		return apperrors.Internal(err)
	}
	return err
}
