// Package catalog manages the lookup tables assets point at. Any signed-in
// credential may read them; only superusers change them.
package catalog

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

// Kind describes one lookup table.
type Kind struct {
	Label   string
	MaxName int
}

var (
	AssetTypes          = Kind{Label: "asset type", MaxName: 100}
	Breeds              = Kind{Label: "breed", MaxName: 255}
	Colors              = Kind{Label: "color", MaxName: 255}
	VaccinationStatuses = Kind{Label: "vaccination status", MaxName: 50}
	DewormingStatuses   = Kind{Label: "deworming status", MaxName: 50}
)

type Input struct {
	Name        string
	Description string
}

type Service[T any] interface {
	List(ctx context.Context, actor *models.Credential) ([]T, error)
	Get(ctx context.Context, actor *models.Credential, id uint) (*T, error)
	Create(ctx context.Context, actor *models.Credential, in Input) (*T, error)
	Update(ctx context.Context, actor *models.Credential, id uint, in Input) (*T, error)
	Delete(ctx context.Context, actor *models.Credential, id uint) error
}

type service[T any, PT interface {
	*T
	models.ReferenceRecord
}] struct {
	repo   repositories.ReferenceRepository[T]
	policy *policy.Policy
	kind   Kind
}

func NewService[T any, PT interface {
	*T
	models.ReferenceRecord
}](repo repositories.ReferenceRepository[T], pol *policy.Policy, kind Kind) Service[T] {
	return &service[T, PT]{repo: repo, policy: pol, kind: kind}
}

func (s *service[T, PT]) List(ctx context.Context, actor *models.Credential) ([]T, error) {
	if actor == nil {
		return nil, apperrors.ErrUnauthenticated
	}
	out, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return out, nil
}

func (s *service[T, PT]) Get(ctx context.Context, actor *models.Credential, id uint) (*T, error) {
	if actor == nil {
		return nil, apperrors.ErrUnauthenticated
	}
	entry, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.fail(err)
	}
	return entry, nil
}

func (s *service[T, PT]) validate(in *Input) error {
	in.Name = strings.TrimSpace(in.Name)
	v := validation.New()
	v.Required("name", in.Name)
	v.MaxLength("name", in.Name, s.kind.MaxName)
	return v.Err()
}

func (s *service[T, PT]) Create(ctx context.Context, actor *models.Credential, in Input) (*T, error) {
	if err := s.policy.Enforce(actor, policy.Superuser()); err != nil {
		return nil, err
	}
	if err := s.validate(&in); err != nil {
		return nil, err
	}

	var entry T
	ref := PT(&entry).Entry()
	ref.Name = in.Name
	ref.Description = in.Description
	if err := s.repo.Create(ctx, &entry); err != nil {
		return nil, s.fail(err)
	}

	log.WithFields(log.Fields{"id": ref.ID, "actor_id": actor.ID}).Infof("%s created", s.kind.Label)
	return &entry, nil
}

func (s *service[T, PT]) Update(ctx context.Context, actor *models.Credential, id uint, in Input) (*T, error) {
	if err := s.policy.Enforce(actor, policy.Superuser()); err != nil {
		return nil, err
	}
	if err := s.validate(&in); err != nil {
		return nil, err
	}

	entry, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.fail(err)
	}
	ref := PT(entry).Entry()
	ref.Name = in.Name
	ref.Description = in.Description
	if err := s.repo.Save(ctx, entry); err != nil {
		return nil, s.fail(err)
	}
	return entry, nil
}

// Delete removes an entry. Assets pointing at it keep their row with the reference cleared.
func (s *service[T, PT]) Delete(ctx context.Context, actor *models.Credential, id uint) error {
	if err := s.policy.Enforce(actor, policy.Superuser()); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return s.fail(err)
	}
	log.WithFields(log.Fields{"id": id, "actor_id": actor.ID}).Infof("%s deleted", s.kind.Label)
	return nil
}

func (s *service[T, PT]) fail(err error) error {
	switch apperrors.KindOf(err) {
	case apperrors.KindNotFound:
		return apperrors.As(err).WithMessage(s.kind.Label + " not found")
	case apperrors.KindConflict:
		return apperrors.As(err).WithMessage(s.kind.Label + " with this name already exists")
	}
	return apperrors.Internal(err)
}
