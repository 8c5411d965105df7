package repositories_test

import (
	"context"
	"errors"
	"testing"
	"time"

	apperrors "insurecow/internal/errors"
	"insurecow/internal/models"
	"insurecow/internal/repositories"
	"insurecow/internal/repositories/cache"
	"insurecow/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCredentialHierarchyHook(t *testing.T) {
	ctx := context.Background()
	repos := testutil.NewRepositories(t)

	org := testutil.CreateCredential(t, repos, &models.Credential{MobileNumber: "01700000001", RoleID: testutil.UintPtr(models.RoleOrganization)})
	individual := testutil.CreateCredential(t, repos, &models.Credential{MobileNumber: "01700000002", RoleID: testutil.UintPtr(models.RoleIndividual)})
	staff := testutil.CreateCredential(t, repos, &models.Credential{MobileNumber: "01700000003", IsStaff: true})

	tests := []struct {
		name   string
		cred   models.Credential
		fields []string
	}{
		{
			name: "managed by organization",
			cred: models.Credential{MobileNumber: "01700000010", ManagedByID: &org.ID},
		},
		{
			name:   "managed by individual",
			cred:   models.Credential{MobileNumber: "01700000011", ManagedByID: &individual.ID},
			fields: []string{"managed_by"},
		},
		{
			name:   "manager missing",
			cred:   models.Credential{MobileNumber: "01700000012", ManagedByID: testutil.UintPtr(9999)},
			fields: []string{"managed_by"},
		},
		{
			name: "onboarded by staff",
			cred: models.Credential{MobileNumber: "01700000013", OnboardedByID: &staff.ID},
		},
		{
			name:   "onboarded by regular user",
			cred:   models.Credential{MobileNumber: "01700000014", OnboardedByID: &individual.ID},
			fields: []string{"onboarded_by"},
		},
		{
			name:   "both invalid",
			cred:   models.Credential{MobileNumber: "01700000015", ManagedByID: &individual.ID, OnboardedByID: &individual.ID},
			fields: []string{"managed_by", "onboarded_by"},
		},
		{
			name: "superuser exempt",
			cred: models.Credential{MobileNumber: "01700000016", IsSuperuser: true, ManagedByID: &individual.ID},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := tt.cred
			c.Password = "x"
			err := repos.Credentials.Create(ctx, &c)
			if len(tt.fields) == 0 {
				require.NoError(t, err)
				return
			}

			require.Error(t, err)
			assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
			de := apperrors.As(err)
			for _, f := range tt.fields {
				assert.Contains(t, de.Fields, f)
			}

			exists, err := repos.Credentials.ExistsByMobile(ctx, tt.cred.MobileNumber)
			require.NoError(t, err)
			assert.False(t, exists, "nothing is written on a hierarchy violation")
		})
	}
}

func TestCredentialCannotManageItself(t *testing.T) {
	ctx := context.Background()
	repos := testutil.NewRepositories(t)

	org := testutil.CreateCredential(t, repos, &models.Credential{MobileNumber: "01700000001", RoleID: testutil.UintPtr(models.RoleOrganization)})
	org.ManagedByID = &org.ID

	err := repos.Credentials.Save(ctx, org)
	require.Error(t, err)
	assert.Equal(t, "a user cannot manage itself", apperrors.As(err).Fields["managed_by"])
}

func TestCredentialDuplicateMobile(t *testing.T) {
	ctx := context.Background()
	repos := testutil.NewRepositories(t)

	testutil.CreateCredential(t, repos, &models.Credential{MobileNumber: "01700000001"})
	err := repos.Credentials.Create(ctx, &models.Credential{MobileNumber: "01700000001", Password: "x"})
	assert.True(t, errors.Is(err, apperrors.ErrMobileTaken), "got %v", err)
	assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))
}

func TestCredentialLookups(t *testing.T) {
	ctx := context.Background()
	repos := testutil.NewRepositories(t)

	org := testutil.CreateCredential(t, repos, &models.Credential{MobileNumber: "01700000001", RoleID: testutil.UintPtr(models.RoleOrganization)})
	testutil.CreateCredential(t, repos, &models.Credential{MobileNumber: "01700000002", ManagedByID: &org.ID})
	testutil.CreateCredential(t, repos, &models.Credential{MobileNumber: "01700000003", ManagedByID: &org.ID})
	testutil.CreateCredential(t, repos, &models.Credential{MobileNumber: "01700000004"})

	got, err := repos.Credentials.GetByMobile(ctx, "01700000001")
	require.NoError(t, err)
	require.NotNil(t, got.RoleName())
	assert.Equal(t, "organization", *got.RoleName())

	_, err = repos.Credentials.GetByID(ctx, 9999)
	assert.True(t, errors.Is(err, apperrors.ErrCredentialNotFound))

	subs, err := repos.Credentials.ListManagedBy(ctx, org.ID)
	require.NoError(t, err)
	require.Len(t, subs, 2)
	assert.Equal(t, "01700000002", subs[0].MobileNumber)
	assert.Equal(t, "01700000003", subs[1].MobileNumber)

	page, total, err := repos.Credentials.List(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
	assert.Len(t, page, 2)
}

func TestTransactionRollsBack(t *testing.T) {
	ctx := context.Background()
	repos := testutil.NewRepositories(t)

	boom := errors.New("boom")
	err := repos.Transaction(ctx, func(tx *repositories.Repositories) error {
		require.NoError(t, tx.Credentials.Create(ctx, &models.Credential{MobileNumber: "01700000001", Password: "x"}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	exists, err := repos.Credentials.ExistsByMobile(ctx, "01700000001")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestSessionTokens(t *testing.T) {
	ctx := context.Background()
	repos := testutil.NewRepositories(t)
	cred := testutil.CreateCredential(t, repos, &models.Credential{MobileNumber: "01700000001"})

	first, err := repos.Sessions.GetOrCreate(ctx, cred.ID)
	require.NoError(t, err)
	second, err := repos.Sessions.GetOrCreate(ctx, cred.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Empty(t, second.AccessToken)

	require.NoError(t, repos.Sessions.SaveTokens(ctx, first.ID, "access", "refresh"))
	got, err := repos.Sessions.GetByCredential(ctx, cred.ID)
	require.NoError(t, err)
	assert.Equal(t, "access", got.AccessToken)
	assert.Equal(t, "refresh", got.RefreshToken)

	none, err := repos.Sessions.GetByCredential(ctx, 9999)
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestOTPRequests(t *testing.T) {
	ctx := context.Background()
	repos := testutil.NewRepositories(t)
	now := time.Now()

	older := &models.OTPRequestLog{MobileNumber: "01700000001", OTPCode: "111111", Category: models.OTPCategoryRegistration, CreatedAt: now.Add(-time.Hour)}
	newer := &models.OTPRequestLog{MobileNumber: "01700000001", OTPCode: "222222", Category: models.OTPCategoryRegistration, CreatedAt: now}
	for _, e := range []*models.OTPRequestLog{older, newer} {
		v, err := repos.OTP.CreateRequest(ctx, e)
		require.NoError(t, err)
		assert.False(t, v.IsVerified)
		assert.Equal(t, e.ID, v.OTPRequestLogID)
	}

	count, err := repos.OTP.CountRequestsSince(ctx, "01700000001", models.OTPCategoryRegistration, now.Add(-5*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	latest, err := repos.OTP.LatestRequest(ctx, "01700000001")
	require.NoError(t, err)
	assert.Equal(t, "222222", latest.OTPCode)

	v, err := repos.OTP.OutstandingVerification(ctx, latest.ID)
	require.NoError(t, err)
	require.NotNil(t, v)
	require.NoError(t, repos.OTP.MarkVerified(ctx, v.ID, now))

	v, err = repos.OTP.OutstandingVerification(ctx, latest.ID)
	require.NoError(t, err)
	assert.Nil(t, v)

	limit, err := repos.OTP.GetLimit(ctx, models.OTPCategoryRegistration)
	require.NoError(t, err)
	assert.Nil(t, limit)

	require.NoError(t, repos.OTP.SeedLimit(ctx, &models.OTPLimit{Category: models.OTPCategoryRegistration, MaxAttempts: 3, TimeWindow: 10}))
	require.NoError(t, repos.OTP.SeedLimit(ctx, &models.OTPLimit{Category: models.OTPCategoryRegistration, MaxAttempts: 9, TimeWindow: 1}))
	limit, err = repos.OTP.GetLimit(ctx, models.OTPCategoryRegistration)
	require.NoError(t, err)
	assert.Equal(t, 3, limit.MaxAttempts)
	assert.Equal(t, 10*time.Minute, limit.Window())
}

func TestProfileScaffold(t *testing.T) {
	ctx := context.Background()
	repos := testutil.NewRepositories(t)
	individual := testutil.CreateCredential(t, repos, &models.Credential{MobileNumber: "01700000001", RoleID: testutil.UintPtr(models.RoleIndividual)})
	org := testutil.CreateCredential(t, repos, &models.Credential{MobileNumber: "01700000002", RoleID: testutil.UintPtr(models.RoleOrganization)})

	require.NoError(t, repos.Profiles.Scaffold(ctx, individual.ID, false))
	require.NoError(t, repos.Profiles.Scaffold(ctx, org.ID, true))
	require.NoError(t, repos.Profiles.Scaffold(ctx, org.ID, true), "scaffolding twice is a no-op")

	var personal models.PersonalInfo
	require.NoError(t, repos.Profiles.Get(ctx, individual.ID, &personal))
	assert.Equal(t, 0, personal.UpdateCount)

	var orgInfo models.OrganizationInfo
	err := repos.Profiles.Get(ctx, individual.ID, &orgInfo)
	assert.True(t, errors.Is(err, apperrors.ErrProfileNotFound))
	require.NoError(t, repos.Profiles.Get(ctx, org.ID, &orgInfo))
}

func TestAuditRecord(t *testing.T) {
	ctx := context.Background()
	repos := testutil.NewRepositories(t)
	actor := testutil.CreateCredential(t, repos, &models.Credential{MobileNumber: "01700000001"})

	require.NoError(t, repos.Audit.Record(ctx, &actor.ID, "Asset", 7, models.AuditActionUpdate, map[string]interface{}{"breed": "Holstein"}))

	logs, err := repos.Audit.ListForInstance(ctx, "Asset", 7)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, models.AuditActionUpdate, logs[0].Action)
	assert.JSONEq(t, `{"breed":"Holstein"}`, string(logs[0].Changes))
}

func TestSeedDefaults(t *testing.T) {
	ctx := context.Background()
	repos := repositories.New(testutil.NewDB(t), nil)

	require.NoError(t, repos.SeedRoles(ctx))
	require.NoError(t, repos.SeedRoles(ctx))
	roles, err := repos.Roles.List(ctx, false)
	require.NoError(t, err)
	assert.Len(t, roles, 3)

	require.NoError(t, repos.SeedOTPLimits(ctx))
	limit, err := repos.OTP.GetLimit(ctx, models.OTPCategoryPasswordReset)
	require.NoError(t, err)
	require.NotNil(t, limit)
	assert.Equal(t, models.DefaultOTPMaxAttempts, limit.MaxAttempts)
}

func TestOTPLimitColumnDefaults(t *testing.T) {
	ctx := context.Background()
	repos := testutil.NewRepositories(t)

	require.NoError(t, repos.OTP.SeedLimit(ctx, &models.OTPLimit{Category: models.OTPCategoryLogin}))
	limit, err := repos.OTP.GetLimit(ctx, models.OTPCategoryLogin)
	require.NoError(t, err)
	require.NotNil(t, limit)
	assert.Equal(t, models.DefaultOTPMaxAttempts, limit.MaxAttempts)
	assert.Equal(t, models.DefaultOTPTimeWindow, limit.TimeWindow)
}

func TestCredentialCacheInvalidatesAfterCommit(t *testing.T) {
	ctx := context.Background()
	cacheSvc, mr := testutil.NewCache(t)
	repos := repositories.New(testutil.NewDB(t), cacheSvc)
	testutil.SeedRoles(t, repos)

	org := testutil.CreateCredential(t, repos, &models.Credential{MobileNumber: "01700000001", RoleID: testutil.UintPtr(models.RoleOrganization)})
	member := testutil.CreateCredential(t, repos, &models.Credential{MobileNumber: "01700000002"})
	key := cache.GenerateKey(cache.EntityCredential, cache.KeyID, member.ID)

	_, err := repos.Credentials.GetByID(ctx, member.ID)
	require.NoError(t, err)
	require.True(t, mr.Exists(key))

	err = repos.Transaction(ctx, func(tx *repositories.Repositories) error {
		c, err := tx.Credentials.GetByID(ctx, member.ID)
		require.NoError(t, err)
		c.ManagedByID = &org.ID
		require.NoError(t, tx.Credentials.Save(ctx, c))
		assert.True(t, mr.Exists(key), "the projection survives until the commit")
		return nil
	})
	require.NoError(t, err)
	assert.False(t, mr.Exists(key))

	got, err := repos.Credentials.GetByID(ctx, member.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ManagedByID)
	assert.Equal(t, org.ID, *got.ManagedByID)

	boom := errors.New("boom")
	err = repos.Transaction(ctx, func(tx *repositories.Repositories) error {
		c, err := tx.Credentials.GetByID(ctx, member.ID)
		require.NoError(t, err)
		c.ManagedByID = nil
		require.NoError(t, tx.Credentials.Save(ctx, c))
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.True(t, mr.Exists(key), "a rolled back save keeps the projection")
}
