package repositories

import (
	"context"
	"fmt"

	apperrors "insurecow/internal/errors"
	"insurecow/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RoleRepository interface {
	List(ctx context.Context, activeOnly bool) ([]models.Role, error)
	GetByID(ctx context.Context, id uint) (*models.Role, error)
	Create(ctx context.Context, role *models.Role) error
	Save(ctx context.Context, role *models.Role) error
	Delete(ctx context.Context, id uint) error
	// Seed inserts role when its id is free and leaves existing rows untouched.
	Seed(ctx context.Context, role *models.Role) error
}

type roleRepository struct {
	db *gorm.DB
}

func NewRoleRepository(db *gorm.DB) RoleRepository {
	return &roleRepository{db: db}
}

func (r *roleRepository) List(ctx context.Context, activeOnly bool) ([]models.Role, error) {
	var roles []models.Role
	q := r.db.WithContext(ctx).Order("id")
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	if err := q.Find(&roles).Error; err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}
	return roles, nil
}

func (r *roleRepository) GetByID(ctx context.Context, id uint) (*models.Role, error) {
	var role models.Role
	if err := r.db.WithContext(ctx).First(&role, id).Error; err != nil {
		if isNotFound(err) {
			return nil, apperrors.ErrRoleNotFound
		}
		return nil, fmt.Errorf("failed to get role: %w", err)
	}
	return &role, nil
}

func (r *roleRepository) Create(ctx context.Context, role *models.Role) error {
	if err := r.db.WithContext(ctx).Create(role).Error; err != nil {
		if IsUniqueViolation(err) {
			return apperrors.ErrRoleTaken.Wrap(err)
		}
		return fmt.Errorf("failed to create role: %w", err)
	}
	return nil
}

func (r *roleRepository) Save(ctx context.Context, role *models.Role) error {
	if err := r.db.WithContext(ctx).Save(role).Error; err != nil {
		if IsUniqueViolation(err) {
			return apperrors.ErrRoleTaken.Wrap(err)
		}
		return fmt.Errorf("failed to save role: %w", err)
	}
	return nil
}

func (r *roleRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Role{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete role: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrRoleNotFound
	}
	return nil
}

func (r *roleRepository) Seed(ctx context.Context, role *models.Role) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(role).Error
	if err != nil {
		return fmt.Errorf("failed to seed role %q: %w", role.Name, err)
	}
	return nil
}
