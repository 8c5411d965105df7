package registration

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	apperrors "insurecow/internal/errors"
	"insurecow/internal/models"
	"insurecow/internal/repositories"
	"insurecow/internal/services/account"
	"insurecow/internal/services/otp"
	"insurecow/internal/services/session"
	"insurecow/internal/testutil"
	"insurecow/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockSender struct {
	mock.Mock
}

func (m *MockSender) Send(ctx context.Context, mobile, code string) error {
	args := m.Called(ctx, mobile, code)
	return args.Error(0)
}

type fixture struct {
	svc      Service
	repos    *repositories.Repositories
	sessions session.Service
	sender   *MockSender
	code     string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		repos:  testutil.NewRepositories(t),
		sender: new(MockSender),
		code:   "482913",
	}
	f.sender.On("Send", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	hasher := utils.NewPasswordHasher(4)
	f.sessions = session.NewService(f.repos, hasher, session.Config{
		Secret:     "test-secret",
		AccessTTL:  time.Minute,
		RefreshTTL: time.Hour,
	})
	otpSvc := otp.NewService(f.repos,
		otp.WithSender(f.sender),
		otp.WithGenerator(func() (string, error) { return f.code, nil }),
	)

	svc := NewService(f.repos, otpSvc, account.NewProvisioner(hasher, f.sessions)).(*service)
	svc.async = false
	f.svc = svc
	return f
}

func (f *fixture) start(t *testing.T, mobile string) *models.PendingRegistration {
	t.Helper()
	p, err := f.svc.StartRegistration(context.Background(), StartInput{Mobile: mobile, RoleID: models.RoleIndividual, IP: "10.0.0.1"})
	require.NoError(t, err)
	return p
}

func TestFullRegistration(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	pending := f.start(t, "01712345678")
	assert.False(t, pending.IsVerified)
	assert.Equal(t, 1, pending.OTPRequestCount)
	f.sender.AssertCalled(t, "Send", mock.Anything, "01712345678", f.code)

	verified, err := f.svc.VerifyOTP(ctx, "01712345678", f.code)
	require.NoError(t, err)
	assert.True(t, verified.IsVerified)

	cred, err := f.svc.SetPassword(ctx, "01712345678", "Secret123!")
	require.NoError(t, err)
	assert.Equal(t, "01712345678", cred.MobileNumber)
	require.NotNil(t, cred.RoleID)
	assert.Equal(t, models.RoleIndividual, *cred.RoleID)

	leftover, err := f.repos.Pending.GetByMobile(ctx, "01712345678")
	require.NoError(t, err)
	assert.Nil(t, leftover, "the pending row is promoted")

	login, err := f.sessions.Login(ctx, "01712345678", "Secret123!")
	require.NoError(t, err)
	require.NotNil(t, login.Role)
	assert.Equal(t, "individual", *login.Role)

	_, err = f.svc.StartRegistration(ctx, StartInput{Mobile: "01712345678", RoleID: models.RoleIndividual})
	assert.True(t, errors.Is(err, apperrors.ErrMobileTaken))
	assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))
}

func TestStartRegistrationUpserts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	first := f.start(t, "01712345678")
	f.code = "111222"
	second := f.start(t, "01712345678")

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 2, second.OTPRequestCount)
	assert.Equal(t, "111222", second.OTP)

	var count int64
	require.NoError(t, f.repos.DB().Model(&models.PendingRegistration{}).Where("mobile_number = ?", "01712345678").Count(&count).Error)
	assert.Equal(t, int64(1), count)

	// the counter restarts once the row is older than a day
	stale := time.Now().Add(-25 * time.Hour)
	require.NoError(t, f.repos.DB().Model(&models.PendingRegistration{}).Where("id = ?", first.ID).UpdateColumn("updated_at", stale).Error)
	third, err := f.svc.StartRegistration(ctx, StartInput{Mobile: "01712345678", RoleID: models.RoleIndividual})
	require.NoError(t, err)
	assert.Equal(t, 1, third.OTPRequestCount)
}

func TestStartRegistrationResetsVerification(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.start(t, "01712345678")
	f.code = "222333"
	f.start(t, "01712345678")

	_, err := f.svc.VerifyOTP(ctx, "01712345678", "482913")
	assert.True(t, errors.Is(err, apperrors.ErrOTPInvalid), "only the latest code is accepted")

	_, err = f.svc.VerifyOTP(ctx, "01712345678", "222333")
	require.NoError(t, err)

	_, err = f.svc.StartRegistration(ctx, StartInput{Mobile: "01712345678", RoleID: models.RoleIndividual})
	assert.True(t, errors.Is(err, apperrors.ErrMobileTaken), "a verified registration cannot restart")
}

func TestStartRegistrationRateLimit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.repos.OTP.SeedLimit(ctx, &models.OTPLimit{Category: models.OTPCategoryRegistration, MaxAttempts: 3, TimeWindow: 5}))

	for i := 0; i < 3; i++ {
		f.start(t, "01712345678")
	}

	_, err := f.svc.StartRegistration(ctx, StartInput{Mobile: "01712345678", RoleID: models.RoleIndividual})
	assert.True(t, errors.Is(err, apperrors.ErrOTPRateLimited))
	assert.Equal(t, apperrors.KindRateLimited, apperrors.KindOf(err))

	p, err := f.repos.Pending.GetByMobile(ctx, "01712345678")
	require.NoError(t, err)
	assert.Equal(t, 3, p.OTPRequestCount, "a rejected request writes nothing")
}

func TestStartRegistrationValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	inactive := models.Role{ID: 9, Name: "retired"}
	require.NoError(t, f.repos.Roles.Create(ctx, &inactive))
	inactive.IsActive = false
	require.NoError(t, f.repos.Roles.Save(ctx, &inactive))

	tests := []struct {
		name  string
		in    StartInput
		field string
	}{
		{"bad mobile", StartInput{Mobile: "12ab", RoleID: models.RoleIndividual}, "mobile_number"},
		{"missing role", StartInput{Mobile: "01712345678"}, "role_id"},
		{"unknown role", StartInput{Mobile: "01712345678", RoleID: 99}, "role_id"},
		{"inactive role", StartInput{Mobile: "01712345678", RoleID: 9}, "role_id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.StartRegistration(ctx, tt.in)
			require.Error(t, err)
			assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
			assert.Contains(t, apperrors.As(err).Fields, tt.field)
		})
	}
	f.sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
}

func TestSetPassword(t *testing.T) {
	ctx := context.Background()

	t.Run("unverified", func(t *testing.T) {
		f := newFixture(t)
		f.start(t, "01712345678")

		_, err := f.svc.SetPassword(ctx, "01712345678", "Secret123!")
		assert.True(t, errors.Is(err, apperrors.ErrOTPNotVerified))
		assert.Equal(t, apperrors.KindInvalidState, apperrors.KindOf(err))
	})

	t.Run("weak password", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.SetPassword(ctx, "01712345678", "short")
		assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
	})

	t.Run("credential already exists", func(t *testing.T) {
		f := newFixture(t)
		f.start(t, "01712345678")
		_, err := f.svc.VerifyOTP(ctx, "01712345678", f.code)
		require.NoError(t, err)
		testutil.CreateCredential(t, f.repos, &models.Credential{MobileNumber: "01712345678"})

		_, err = f.svc.SetPassword(ctx, "01712345678", "Secret123!")
		assert.True(t, errors.Is(err, apperrors.ErrMobileTaken))
		assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))
	})
}

func TestSetPasswordConcurrent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.start(t, "01712345678")
	_, err := f.svc.VerifyOTP(ctx, "01712345678", f.code)
	require.NoError(t, err)

	const callers = 2
	var (
		wg    sync.WaitGroup
		start = make(chan struct{})
		errs  = make([]error, callers)
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, errs[i] = f.svc.SetPassword(ctx, "01712345678", "Secret123!")
		}(i)
	}
	close(start)
	wg.Wait()

	var succeeded, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case apperrors.KindOf(err) == apperrors.KindConflict:
			conflicts++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, conflicts)

	page, total, err := f.repos.Credentials.List(ctx, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, page, 1)
	assert.Equal(t, "01712345678", page[0].MobileNumber)
}
