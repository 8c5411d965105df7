package account

import (
	"context"
	"errors"
	"testing"
	"time"

	apperrors "insurecow/internal/errors"
	"insurecow/internal/models"
	"insurecow/internal/repositories"
	"insurecow/internal/services/session"
	"insurecow/internal/testutil"
	"insurecow/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProvisioner(repos *repositories.Repositories) *Provisioner {
	hasher := utils.NewPasswordHasher(4)
	sessions := session.NewService(repos, hasher, session.Config{
		Secret:     "test-secret",
		AccessTTL:  time.Minute,
		RefreshTTL: time.Hour,
	})
	return NewProvisioner(hasher, sessions)
}

func TestProvision(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name        string
		roleID      *uint
		withOrg     bool
		withCompany bool
	}{
		{"individual", testutil.UintPtr(models.RoleIndividual), false, false},
		{"organization", testutil.UintPtr(models.RoleOrganization), true, false},
		{"insurance company", testutil.UintPtr(models.RoleInsuranceCompany), true, true},
		{"no role", nil, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repos := testutil.NewRepositories(t)
			p := newProvisioner(repos)

			var cred *models.Credential
			err := repos.Transaction(ctx, func(tx *repositories.Repositories) error {
				var err error
				cred, err = p.Provision(ctx, tx, Input{Mobile: "01700000001", Password: "Secret123!", RoleID: tt.roleID})
				return err
			})
			require.NoError(t, err)
			assert.True(t, cred.IsActive)
			assert.NotEqual(t, "Secret123!", cred.Password)

			sess, err := repos.Sessions.GetByCredential(ctx, cred.ID)
			require.NoError(t, err)
			require.NotNil(t, sess)
			assert.NotEmpty(t, sess.AccessToken)
			assert.NotEmpty(t, sess.RefreshToken)

			var personal models.PersonalInfo
			require.NoError(t, repos.Profiles.Get(ctx, cred.ID, &personal))
			var financial models.FinancialInfo
			require.NoError(t, repos.Profiles.Get(ctx, cred.ID, &financial))
			var nominee models.NomineeInfo
			require.NoError(t, repos.Profiles.Get(ctx, cred.ID, &nominee))

			var org models.OrganizationInfo
			err = repos.Profiles.Get(ctx, cred.ID, &org)
			if tt.withOrg {
				assert.NoError(t, err)
			} else {
				assert.True(t, errors.Is(err, apperrors.ErrProfileNotFound))
			}

			company, err := repos.Insurance.GetCompanyByCredential(ctx, cred.ID)
			if tt.withCompany {
				require.NoError(t, err)
				assert.Equal(t, cred.ID, company.CredentialID)
			} else {
				assert.True(t, errors.Is(err, apperrors.ErrInsuranceCompanyNotFound))
			}
		})
	}
}

func TestProvisionRollsBackOnHierarchyViolation(t *testing.T) {
	ctx := context.Background()
	repos := testutil.NewRepositories(t)
	p := newProvisioner(repos)
	individual := testutil.CreateCredential(t, repos, &models.Credential{MobileNumber: "01700000009", RoleID: testutil.UintPtr(models.RoleIndividual)})

	err := repos.Transaction(ctx, func(tx *repositories.Repositories) error {
		_, err := p.Provision(ctx, tx, Input{Mobile: "01700000001", Password: "Secret123!", ManagedByID: &individual.ID})
		return err
	})
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))

	exists, err := repos.Credentials.ExistsByMobile(ctx, "01700000001")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestProvisionDuplicateMobile(t *testing.T) {
	ctx := context.Background()
	repos := testutil.NewRepositories(t)
	p := newProvisioner(repos)
	testutil.CreateCredential(t, repos, &models.Credential{MobileNumber: "01700000001"})

	err := repos.Transaction(ctx, func(tx *repositories.Repositories) error {
		_, err := p.Provision(ctx, tx, Input{Mobile: "01700000001", Password: "Secret123!"})
		return err
	})
	assert.True(t, errors.Is(err, apperrors.ErrMobileTaken), "got %v", err)
}
