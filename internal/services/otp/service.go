// Package otp issues, rate-limits and verifies one-time codes.
package otp

import (
	"context"
	"strconv"
	"time"

	apperrors "insurecow/internal/errors"
	"insurecow/internal/models"
	"insurecow/internal/repositories"
	"insurecow/internal/utils"

	log "github.com/sirupsen/logrus"
)

const (
	codeMin = 100000
	codeMax = 999999
)

type IssueRequest struct {
	Mobile    string
	Category  models.OTPCategory
	IP        string
	UserAgent string
}

type Service interface {
	// RequestLimitExceeded reports whether mobile has used up its quota for category.
	RequestLimitExceeded(ctx context.Context, mobile string, category models.OTPCategory) (bool, error)
	// Issue generates a code and records it with an unverified verification record.
	Issue(ctx context.Context, req IssueRequest) (string, error)
	// Verify consumes the outstanding code of a pending registration.
	Verify(ctx context.Context, mobile, code string) (*models.PendingRegistration, error)
	// Send delivers code; failures are logged only.
	Send(ctx context.Context, mobile, code string)
	// WithTx returns a Service bound to the caller's transaction.
	WithTx(tx *repositories.Repositories) Service
}

// CodeGenerator produces a 6-digit code.
type CodeGenerator func() (string, error)

type Option func(*service)

func WithSender(s Sender) Option {
	return func(svc *service) { svc.sender = s }
}

func WithGenerator(g CodeGenerator) Option {
	return func(svc *service) { svc.generate = g }
}

func WithClock(now func() time.Time) Option {
	return func(svc *service) { svc.now = now }
}

type service struct {
	repos    *repositories.Repositories
	sender   Sender
	generate CodeGenerator
	now      func() time.Time
}

func NewService(repos *repositories.Repositories, opts ...Option) Service {
	s := &service{
		repos:    repos,
		sender:   LogSender{},
		generate: RandomCode,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RandomCode returns a crypto-random code in [100000, 999999].
func RandomCode() (string, error) {
	n, err := utils.RandomInt(codeMin, codeMax)
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n, 10), nil
}

func (s *service) WithTx(tx *repositories.Repositories) Service {
	cp := *s
	cp.repos = tx
	return &cp
}

func (s *service) RequestLimitExceeded(ctx context.Context, mobile string, category models.OTPCategory) (bool, error) {
	if !category.Valid() {
		return false, apperrors.FieldError("category", "unknown otp category")
	}
	limit, err := s.repos.OTP.GetLimit(ctx, category)
	if err != nil {
		return false, apperrors.Internal(err)
	}
	if limit == nil {
		limit = &models.OTPLimit{
			Category:    category,
			MaxAttempts: models.DefaultOTPMaxAttempts,
			TimeWindow:  models.DefaultOTPTimeWindow,
		}
	}

	since := s.now().Add(-limit.Window())
	count, err := s.repos.OTP.CountRequestsSince(ctx, mobile, category, since)
	if err != nil {
		return false, apperrors.Internal(err)
	}
	return count >= int64(limit.MaxAttempts), nil
}

func (s *service) Issue(ctx context.Context, req IssueRequest) (string, error) {
	if !req.Category.Valid() {
		return "", apperrors.FieldError("category", "unknown otp category")
	}
	code, err := s.generate()
	if err != nil {
		return "", apperrors.Internal(err)
	}

	entry := &models.OTPRequestLog{
		MobileNumber: req.Mobile,
		OTPCode:      code,
		Category:     req.Category,
		IPAddress:    req.IP,
		UserAgent:    req.UserAgent,
		CreatedAt:    s.now(),
	}
	if _, err := s.repos.OTP.CreateRequest(ctx, entry); err != nil {
		return "", apperrors.Internal(err)
	}

	log.WithFields(log.Fields{
		"mobile":   req.Mobile,
		"category": req.Category,
	}).Info("otp issued")
	return code, nil
}

func (s *service) Verify(ctx context.Context, mobile, code string) (*models.PendingRegistration, error) {
	var pending *models.PendingRegistration
	err := s.repos.Transaction(ctx, func(tx *repositories.Repositories) error {
		p, err := tx.Pending.GetByMobileAndCode(ctx, mobile, code)
		if err != nil {
			return err
		}

		p.IsVerified = true
		if err := tx.Pending.Save(ctx, p); err != nil {
			return err
		}

		latest, err := tx.OTP.LatestRequest(ctx, mobile)
		if err != nil {
			return err
		}
		if latest == nil {
			return apperrors.ErrOTPNotOutstanding
		}

		v, err := tx.OTP.OutstandingVerification(ctx, latest.ID)
		if err != nil {
			return err
		}
		if v == nil {
			return apperrors.ErrOTPNotOutstanding
		}

		if err := tx.OTP.MarkVerified(ctx, v.ID, s.now()); err != nil {
			return err
		}
		pending = p
		return nil
	})
	if err != nil {
		if apperrors.KindOf(err) == apperrors.KindInternal {
			return nil, apperrors.Internal(err)
		}
		return nil, err
	}

	log.WithField("mobile", mobile).Info("otp verified")
	return pending, nil
}

func (s *service) Send(ctx context.Context, mobile, code string) {
	if err := s.sender.Send(ctx, mobile, code); err != nil {
		log.WithError(err).WithField("mobile", mobile).Warn("otp delivery failed")
	}
}
