package catalog

import (
	"context"
	"errors"
	"strings"
	"testing"

	apperrors "insurecow/internal/errors"
	"insurecow/internal/models"
	"insurecow/internal/policy"
	"insurecow/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLifecycle(t *testing.T) {
	ctx := context.Background()
	repos := testutil.NewRepositories(t)
	svc := NewService[models.Breed](repos.Breeds, policy.New(), Breeds)
	admin := testutil.CreateCredential(t, repos, &models.Credential{MobileNumber: "01700000001", IsSuperuser: true})
	user := testutil.CreateCredential(t, repos, &models.Credential{MobileNumber: "01700000002", RoleID: testutil.UintPtr(models.RoleIndividual)})

	sahiwal, err := svc.Create(ctx, admin, Input{Name: "  Sahiwal ", Description: "dairy"})
	require.NoError(t, err)
	assert.Equal(t, "Sahiwal", sahiwal.Name)
	_, err = svc.Create(ctx, admin, Input{Name: "Holstein"})
	require.NoError(t, err)

	list, err := svc.List(ctx, user)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Holstein", list[0].Name, "ordered by name")

	got, err := svc.Get(ctx, user, sahiwal.ID)
	require.NoError(t, err)
	assert.Equal(t, "dairy", got.Description)

	updated, err := svc.Update(ctx, admin, sahiwal.ID, Input{Name: "Red Sahiwal"})
	require.NoError(t, err)
	assert.Equal(t, "Red Sahiwal", updated.Name)
	assert.Empty(t, updated.Description)

	require.NoError(t, svc.Delete(ctx, admin, sahiwal.ID))
	_, err = svc.Get(ctx, user, sahiwal.ID)
	assert.True(t, errors.Is(err, apperrors.ErrReferenceNotFound))
	assert.Equal(t, "breed not found", apperrors.As(err).Message)
}

func TestWritesNeedSuperuser(t *testing.T) {
	ctx := context.Background()
	repos := testutil.NewRepositories(t)
	svc := NewService[models.Color](repos.Colors, policy.New(), Colors)
	staff := testutil.CreateCredential(t, repos, &models.Credential{MobileNumber: "01700000001", IsStaff: true})

	_, err := svc.Create(ctx, staff, Input{Name: "black"})
	assert.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err))
	assert.Equal(t, apperrors.KindForbidden, apperrors.KindOf(svc.Delete(ctx, staff, 1)))

	_, err = svc.List(ctx, nil)
	assert.Equal(t, apperrors.KindUnauthorized, apperrors.KindOf(err))
}

func TestValidationAndConflicts(t *testing.T) {
	ctx := context.Background()
	repos := testutil.NewRepositories(t)
	svc := NewService[models.VaccinationStatus](repos.VaccinationStatuses, policy.New(), VaccinationStatuses)
	admin := testutil.CreateCredential(t, repos, &models.Credential{MobileNumber: "01700000001", IsSuperuser: true})

	tests := []struct {
		name string
		in   Input
	}{
		{"blank", Input{Name: "   "}},
		{"too long", Input{Name: strings.Repeat("x", 51)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, admin, tt.in)
			require.Error(t, err)
			assert.Contains(t, apperrors.As(err).Fields, "name")
		})
	}

	_, err := svc.Create(ctx, admin, Input{Name: "vaccinated"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, admin, Input{Name: "vaccinated"})
	assert.True(t, errors.Is(err, apperrors.ErrReferenceTaken), "got %v", err)
	assert.Equal(t, "vaccination status with this name already exists", apperrors.As(err).Message)

	_, err = svc.Update(ctx, admin, 999, Input{Name: "due"})
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}

func TestDeleteClearsAssetReference(t *testing.T) {
	ctx := context.Background()
	repos := testutil.NewRepositories(t)
	svc := NewService[models.AssetType](repos.AssetTypes, policy.New(), AssetTypes)
	admin := testutil.CreateCredential(t, repos, &models.Credential{MobileNumber: "01700000001", IsSuperuser: true})

	goat, err := svc.Create(ctx, admin, Input{Name: "goat"})
	require.NoError(t, err)
	asset := &models.Asset{OwnerID: admin.ID, ReferenceID: "ref-1", AssetTypeID: &goat.ID, IsActive: true}
	require.NoError(t, repos.Assets.Create(ctx, asset))

	require.NoError(t, svc.Delete(ctx, admin, goat.ID))
	got, err := repos.Assets.GetByID(ctx, asset.ID)
	require.NoError(t, err)
	assert.Nil(t, got.AssetTypeID)
}
