// Package registration drives the OTP-gated signup flow:
// start, verify the code, then set a password to become a registered user.
package registration

import (
	"context"
	"errors"
	"time"

	apperrors "insurecow/internal/errors"
	"insurecow/internal/models"
	"insurecow/internal/repositories"
	"insurecow/internal/services/account"
	"insurecow/internal/services/otp"
	"insurecow/internal/validation"

	log "github.com/sirupsen/logrus"
)

// requestCountWindow is how long OTPRequestCount keeps accumulating before it resets.
const requestCountWindow = 24 * time.Hour

type StartInput struct {
	Mobile    string
	RoleID    uint
	Latitude  *float64
	Longitude *float64
	IP        string
	UserAgent string
}

type Service interface {
	StartRegistration(ctx context.Context, in StartInput) (*models.PendingRegistration, error)
	VerifyOTP(ctx context.Context, mobile, code string) (*models.PendingRegistration, error)
	SetPassword(ctx context.Context, mobile, password string) (*models.Credential, error)
}

type service struct {
	repos       *repositories.Repositories
	otp         otp.Service
	provisioner *account.Provisioner
	now         func() time.Time
	// async controls whether delivery runs on its own goroutine.
	async bool
}

func NewService(repos *repositories.Repositories, otpSvc otp.Service, provisioner *account.Provisioner) Service {
	return &service{
		repos:       repos,
		otp:         otpSvc,
		provisioner: provisioner,
		now:         time.Now,
		async:       true,
	}
}

func (s *service) StartRegistration(ctx context.Context, in StartInput) (*models.PendingRegistration, error) {
	v := validation.New()
	v.Mobile("mobile_number", in.Mobile)
	v.Check(in.RoleID != 0, "role_id", "this field is required")
	if err := v.Err(); err != nil {
		return nil, err
	}

	role, err := s.repos.Roles.GetByID(ctx, in.RoleID)
	if err != nil && apperrors.KindOf(err) != apperrors.KindNotFound {
		return nil, apperrors.Internal(err)
	}
	if role == nil || !role.IsActive {
		return nil, apperrors.FieldError("role_id", "invalid or inactive role")
	}

	if err := s.ensureNotRegistered(ctx, in.Mobile); err != nil {
		return nil, err
	}

	exceeded, err := s.otp.RequestLimitExceeded(ctx, in.Mobile, models.OTPCategoryRegistration)
	if err != nil {
		return nil, err
	}
	if exceeded {
		log.WithField("mobile", in.Mobile).Warn("otp request limit exceeded")
		return nil, apperrors.ErrOTPRateLimited
	}

	var (
		pending *models.PendingRegistration
		code    string
	)
	err = s.repos.Transaction(ctx, func(tx *repositories.Repositories) error {
		var err error
		code, err = s.otp.WithTx(tx).Issue(ctx, otp.IssueRequest{
			Mobile:    in.Mobile,
			Category:  models.OTPCategoryRegistration,
			IP:        in.IP,
			UserAgent: in.UserAgent,
		})
		if err != nil {
			return err
		}

		pending, err = tx.Pending.GetByMobile(ctx, in.Mobile)
		if err != nil {
			return err
		}

		now := s.now()
		switch {
		case pending == nil:
			pending = &models.PendingRegistration{MobileNumber: in.Mobile, OTPRequestCount: 1}
		case pending.UpdatedAt.Before(now.Add(-requestCountWindow)):
			pending.OTPRequestCount = 1
		default:
			pending.OTPRequestCount++
		}
		pending.RoleID = &role.ID
		pending.OTP = code
		pending.IsVerified = false
		pending.Latitude = in.Latitude
		pending.Longitude = in.Longitude

		return tx.Pending.Save(ctx, pending)
	})
	if err != nil {
		if apperrors.KindOf(err) == apperrors.KindInternal {
			return nil, apperrors.Internal(err)
		}
		return nil, err
	}

	s.deliver(ctx, in.Mobile, code)
	return pending, nil
}

func (s *service) deliver(ctx context.Context, mobile, code string) {
	if !s.async {
		s.otp.Send(ctx, mobile, code)
		return
	}
	go s.otp.Send(context.WithoutCancel(ctx), mobile, code)
}

// ensureNotRegistered fails with Conflict when mobile already has a credential
// or a verified pending registration.
func (s *service) ensureNotRegistered(ctx context.Context, mobile string) error {
	exists, err := s.repos.Credentials.ExistsByMobile(ctx, mobile)
	if err != nil {
		return apperrors.Internal(err)
	}
	if exists {
		return apperrors.ErrMobileTaken
	}

	verified, err := s.repos.Pending.ExistsVerified(ctx, mobile)
	if err != nil {
		return apperrors.Internal(err)
	}
	if verified {
		return apperrors.ErrMobileTaken.WithMessage("mobile number already verified, please set a password")
	}
	return nil
}

func (s *service) VerifyOTP(ctx context.Context, mobile, code string) (*models.PendingRegistration, error) {
	v := validation.New()
	v.Required("mobile_number", mobile)
	v.Required("otp", code)
	if err := v.Err(); err != nil {
		return nil, err
	}
	return s.otp.Verify(ctx, mobile, code)
}

func (s *service) SetPassword(ctx context.Context, mobile, password string) (*models.Credential, error) {
	v := validation.New()
	v.Required("mobile_number", mobile)
	v.Password("password", password)
	if err := v.Err(); err != nil {
		return nil, err
	}

	pending, err := s.repos.Pending.GetVerified(ctx, mobile)
	if err != nil {
		// a concurrent set-password may have consumed the pending row already
		if errors.Is(err, apperrors.ErrOTPNotVerified) {
			if taken := s.mobileTaken(ctx, mobile); taken != nil {
				return nil, taken
			}
		}
		return nil, err
	}
	if taken := s.mobileTaken(ctx, mobile); taken != nil {
		return nil, taken
	}

	var cred *models.Credential
	err = s.repos.Transaction(ctx, func(tx *repositories.Repositories) error {
		var err error
		cred, err = s.provisioner.Provision(ctx, tx, account.Input{
			Mobile:   pending.MobileNumber,
			Password: password,
			RoleID:   pending.RoleID,
		})
		if err != nil {
			return err
		}
		return tx.Pending.Delete(ctx, pending.ID)
	})
	if err != nil {
		if apperrors.KindOf(err) == apperrors.KindInternal {
			return nil, apperrors.Internal(err)
		}
		return nil, err
	}

	log.WithFields(log.Fields{"credential_id": cred.ID, "mobile": mobile}).Info("registration completed")
	return cred, nil
}

// mobileTaken returns a Conflict when a credential already uses mobile.
func (s *service) mobileTaken(ctx context.Context, mobile string) error {
	exists, err := s.repos.Credentials.ExistsByMobile(ctx, mobile)
	if err != nil {
		return apperrors.Internal(err)
	}
	if exists {
		return apperrors.ErrMobileTaken.WithMessage("user already exists, please login instead")
	}
	return nil
}
