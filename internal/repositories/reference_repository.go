package repositories

import (
	"context"
	"fmt"

	apperrors "insurecow/internal/errors"

	"gorm.io/gorm"
)

// ReferenceRepository serves one asset lookup table.
type ReferenceRepository[T any] interface {
	// List returns every entry ordered by name.
	List(ctx context.Context) ([]T, error)
	GetByID(ctx context.Context, id uint) (*T, error)
	Create(ctx context.Context, entry *T) error
	Save(ctx context.Context, entry *T) error
	Delete(ctx context.Context, id uint) error
}

type referenceRepository[T any] struct {
	db *gorm.DB
}

func NewReferenceRepository[T any](db *gorm.DB) ReferenceRepository[T] {
	return &referenceRepository[T]{db: db}
}

func (r *referenceRepository[T]) List(ctx context.Context) ([]T, error) {
	var out []T
	if err := r.db.WithContext(ctx).Order("name").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list %T: %w", out, err)
	}
	return out, nil
}

func (r *referenceRepository[T]) GetByID(ctx context.Context, id uint) (*T, error) {
	var entry T
	if err := r.db.WithContext(ctx).First(&entry, id).Error; err != nil {
		if isNotFound(err) {
			return nil, apperrors.ErrReferenceNotFound
		}
		return nil, fmt.Errorf("failed to get %T: %w", entry, err)
	}
	return &entry, nil
}

func (r *referenceRepository[T]) Create(ctx context.Context, entry *T) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		if IsUniqueViolation(err) {
			return apperrors.ErrReferenceTaken.Wrap(err)
		}
		return fmt.Errorf("failed to create %T: %w", entry, err)
	}
	return nil
}

func (r *referenceRepository[T]) Save(ctx context.Context, entry *T) error {
	if err := r.db.WithContext(ctx).Save(entry).Error; err != nil {
		if IsUniqueViolation(err) {
			return apperrors.ErrReferenceTaken.Wrap(err)
		}
		return fmt.Errorf("failed to save %T: %w", entry, err)
	}
	return nil
}

func (r *referenceRepository[T]) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(new(T), id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete %T: %w", new(T), result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrReferenceNotFound
	}
	return nil
}
