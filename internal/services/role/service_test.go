package role

import (
	"context"
	"errors"
	"strings"
	"testing"

	apperrors "insurecow/internal/errors"
	"insurecow/internal/models"
	"insurecow/internal/policy"
	"insurecow/internal/repositories"
	"insurecow/internal/repositories/cache"
	"insurecow/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boolPtr(v bool) *bool { return &v }

func TestRoleLifecycle(t *testing.T) {
	ctx := context.Background()
	repos := testutil.NewRepositories(t)
	svc := NewService(repos, policy.New())
	admin := testutil.CreateCredential(t, repos, &models.Credential{MobileNumber: "01700000001", IsSuperuser: true})

	roles, err := svc.ListActive(ctx)
	require.NoError(t, err)
	assert.Len(t, roles, 3)

	vet, err := svc.Create(ctx, admin, Input{Name: " veterinarian "})
	require.NoError(t, err)
	assert.Equal(t, "veterinarian", vet.Name)
	assert.True(t, vet.IsActive)

	hidden, err := svc.Create(ctx, admin, Input{Name: "auditor", IsActive: boolPtr(false)})
	require.NoError(t, err)
	assert.False(t, hidden.IsActive)

	roles, err = svc.ListActive(ctx)
	require.NoError(t, err)
	assert.Len(t, roles, 4, "inactive roles are not listed")

	_, err = svc.Create(ctx, admin, Input{Name: "veterinarian"})
	assert.True(t, errors.Is(err, apperrors.ErrRoleTaken), "got %v", err)

	updated, err := svc.Update(ctx, admin, vet.ID, Input{Name: "vet", IsActive: boolPtr(false)})
	require.NoError(t, err)
	assert.Equal(t, "vet", updated.Name)
	assert.False(t, updated.IsActive)

	got, err := svc.Get(ctx, admin, vet.ID)
	require.NoError(t, err)
	assert.Equal(t, "vet", got.Name)

	require.NoError(t, svc.Delete(ctx, admin, vet.ID))
	_, err = svc.Get(ctx, admin, vet.ID)
	assert.True(t, errors.Is(err, apperrors.ErrRoleNotFound))
	assert.True(t, errors.Is(svc.Delete(ctx, admin, vet.ID), apperrors.ErrRoleNotFound))
}

func TestRoleValidationAndAccess(t *testing.T) {
	ctx := context.Background()
	repos := testutil.NewRepositories(t)
	svc := NewService(repos, policy.New())
	admin := testutil.CreateCredential(t, repos, &models.Credential{MobileNumber: "01700000001", IsSuperuser: true})
	staff := testutil.CreateCredential(t, repos, &models.Credential{MobileNumber: "01700000002", IsStaff: true})

	_, err := svc.Create(ctx, admin, Input{Name: "  "})
	require.Error(t, err)
	assert.Contains(t, apperrors.As(err).Fields, "name")

	_, err = svc.Create(ctx, admin, Input{Name: strings.Repeat("r", 51)})
	require.Error(t, err)
	assert.Contains(t, apperrors.As(err).Fields, "name")

	_, err = svc.Create(ctx, staff, Input{Name: "vet"})
	assert.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err))

	_, err = svc.Get(ctx, nil, models.RoleIndividual)
	assert.Equal(t, apperrors.KindUnauthorized, apperrors.KindOf(err))
}

func TestRoleChangesReachCachedCredentials(t *testing.T) {
	ctx := context.Background()
	cacheSvc, mr := testutil.NewCache(t)
	repos := repositories.New(testutil.NewDB(t), cacheSvc)
	testutil.SeedRoles(t, repos)
	pol := policy.New()
	svc := NewService(repos, pol)

	admin := testutil.CreateCredential(t, repos, &models.Credential{MobileNumber: "01700000001", IsSuperuser: true})
	org := testutil.CreateCredential(t, repos, &models.Credential{MobileNumber: "01700000002", RoleID: testutil.UintPtr(models.RoleOrganization)})
	insurer := testutil.CreateCredential(t, repos, &models.Credential{MobileNumber: "01700000003", RoleID: testutil.UintPtr(models.RoleInsuranceCompany)})

	warm := func(id uint) *models.Credential {
		t.Helper()
		c, err := repos.Credentials.GetByID(ctx, id)
		require.NoError(t, err)
		return c
	}
	key := func(id uint) string { return cache.GenerateKey(cache.EntityCredential, cache.KeyID, id) }

	cached := warm(org.ID)
	require.True(t, mr.Exists(key(org.ID)))
	assert.True(t, pol.Check(cached, policy.Organization()).Allowed)
	warm(insurer.ID)

	_, err := svc.Update(ctx, admin, models.RoleInsuranceCompany, Input{Name: "insurer"})
	require.NoError(t, err)
	assert.False(t, mr.Exists(key(insurer.ID)))
	assert.True(t, mr.Exists(key(org.ID)), "members of other roles stay cached")
	got := warm(insurer.ID)
	require.NotNil(t, got.RoleName())
	assert.Equal(t, "insurer", *got.RoleName())

	require.NoError(t, svc.Delete(ctx, admin, models.RoleOrganization))
	assert.False(t, mr.Exists(key(org.ID)))

	got = warm(org.ID)
	assert.Nil(t, got.RoleID)
	d := pol.Check(got, policy.Organization())
	assert.False(t, d.Allowed)
	assert.Equal(t, apperrors.KindForbidden, apperrors.KindOf(d.Err))
}
