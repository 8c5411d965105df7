// Package session issues and validates the access/refresh token pair of a credential.
package session

import (
	"context"
	"strconv"
	"time"

	apperrors "insurecow/internal/errors"
	"insurecow/internal/models"
	"insurecow/internal/repositories"
	"insurecow/internal/utils"

	"github.com/golang-jwt/jwt/v5"
	log "github.com/sirupsen/logrus"
)

type Config struct {
	Secret     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

type LoginResult struct {
	Credential *models.Credential `json:"-"`
	// Role is nil when the credential has no role.
	Role   *string   `json:"role"`
	Tokens TokenPair `json:"tokens"`
}

type Service interface {
	// Ensure returns the credential's session, creating it when missing.
	Ensure(ctx context.Context, cred *models.Credential) (*models.Session, error)
	// Generate regenerates both tokens when forced, when either is blank or when
	// the access token no longer validates. Otherwise sess is returned untouched.
	Generate(ctx context.Context, cred *models.Credential, sess *models.Session, force bool) (*models.Session, error)
	Login(ctx context.Context, mobile, password string) (*LoginResult, error)
	VerifyToken(token string) (*models.SessionClaims, error)
	Refresh(ctx context.Context, refreshToken string) (*LoginResult, error)
	// Authenticate resolves a bearer access token to its active credential.
	Authenticate(ctx context.Context, accessToken string) (*models.Credential, *models.SessionClaims, error)
	WithTx(tx *repositories.Repositories) Service
}

type service struct {
	repos  *repositories.Repositories
	hasher *utils.PasswordHasher
	cfg    Config
	now    func() time.Time
}

func NewService(repos *repositories.Repositories, hasher *utils.PasswordHasher, cfg Config) Service {
	return &service{
		repos:  repos,
		hasher: hasher,
		cfg:    cfg,
		now:    time.Now,
	}
}

func (s *service) WithTx(tx *repositories.Repositories) Service {
	cp := *s
	cp.repos = tx
	return &cp
}

func (s *service) Ensure(ctx context.Context, cred *models.Credential) (*models.Session, error) {
	sess, err := s.repos.Sessions.GetOrCreate(ctx, cred.ID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return sess, nil
}

func (s *service) Generate(ctx context.Context, cred *models.Credential, sess *models.Session, force bool) (*models.Session, error) {
	if !force && sess.AccessToken != "" && sess.RefreshToken != "" {
		if _, err := utils.ParseToken(sess.AccessToken, s.cfg.Secret); err == nil {
			return sess, nil
		}
	}

	access, err := s.sign(cred, models.TokenTypeAccess, s.cfg.AccessTTL)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	refresh, err := s.sign(cred, models.TokenTypeRefresh, s.cfg.RefreshTTL)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	if err := s.repos.Sessions.SaveTokens(ctx, sess.ID, access, refresh); err != nil {
		return nil, apperrors.Internal(err)
	}
	sess.AccessToken = access
	sess.RefreshToken = refresh

	log.WithField("credential_id", cred.ID).Debug("session tokens generated")
	return sess, nil
}

func (s *service) sign(cred *models.Credential, tokenType string, ttl time.Duration) (string, error) {
	claims := models.SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: strconv.FormatUint(uint64(cred.ID), 10)},
		UserID:           cred.ID,
		Mobile:           cred.MobileNumber,
		TokenType:        tokenType,
	}
	if name := cred.RoleName(); name != nil {
		claims.Role = *name
	}
	return utils.SignToken(claims, s.cfg.Secret, ttl)
}

func (s *service) Login(ctx context.Context, mobile, password string) (*LoginResult, error) {
	cred, err := s.repos.Credentials.GetByMobile(ctx, mobile)
	if err != nil {
		if apperrors.KindOf(err) == apperrors.KindNotFound {
			log.WithField("mobile", mobile).Info("login failed: unknown mobile")
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, apperrors.Internal(err)
	}

	if !s.hasher.Verify(password, cred.Password) {
		log.WithField("credential_id", cred.ID).Info("login failed: wrong password")
		return nil, apperrors.ErrInvalidCredentials
	}
	if !cred.IsActive {
		return nil, apperrors.ErrAccountDisabled
	}

	result, err := s.issue(ctx, cred, false)
	if err != nil {
		return nil, err
	}

	if err := s.repos.Credentials.TouchLastLogin(ctx, cred.ID, s.now()); err != nil {
		log.WithError(err).WithField("credential_id", cred.ID).Warn("failed to record last login")
	}
	return result, nil
}

func (s *service) issue(ctx context.Context, cred *models.Credential, force bool) (*LoginResult, error) {
	sess, err := s.Ensure(ctx, cred)
	if err != nil {
		return nil, err
	}
	sess, err = s.Generate(ctx, cred, sess, force)
	if err != nil {
		return nil, err
	}
	return &LoginResult{
		Credential: cred,
		Role:       cred.RoleName(),
		Tokens:     TokenPair{Access: sess.AccessToken, Refresh: sess.RefreshToken},
	}, nil
}

func (s *service) VerifyToken(token string) (*models.SessionClaims, error) {
	return utils.ParseToken(token, s.cfg.Secret)
}

func (s *service) Refresh(ctx context.Context, refreshToken string) (*LoginResult, error) {
	claims, err := s.VerifyToken(refreshToken)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != models.TokenTypeRefresh {
		return nil, apperrors.ErrTokenInvalid.WithMessage("not a refresh token")
	}

	cred, sess, err := s.lookup(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	if sess.RefreshToken != refreshToken {
		return nil, apperrors.ErrTokenInvalid.WithMessage("refresh token has been superseded")
	}

	sess, err = s.Generate(ctx, cred, sess, true)
	if err != nil {
		return nil, err
	}
	return &LoginResult{
		Credential: cred,
		Role:       cred.RoleName(),
		Tokens:     TokenPair{Access: sess.AccessToken, Refresh: sess.RefreshToken},
	}, nil
}

func (s *service) Authenticate(ctx context.Context, accessToken string) (*models.Credential, *models.SessionClaims, error) {
	claims, err := s.VerifyToken(accessToken)
	if err != nil {
		return nil, nil, err
	}
	if claims.TokenType != models.TokenTypeAccess {
		return nil, nil, apperrors.ErrTokenInvalid.WithMessage("not an access token")
	}

	cred, sess, err := s.lookup(ctx, claims.UserID)
	if err != nil {
		return nil, nil, err
	}
	if sess.AccessToken != accessToken {
		return nil, nil, apperrors.ErrTokenInvalid.WithMessage("session expired")
	}
	return cred, claims, nil
}

// lookup loads the active credential and session a token was issued for.
func (s *service) lookup(ctx context.Context, credentialID uint) (*models.Credential, *models.Session, error) {
	cred, err := s.repos.Credentials.GetByID(ctx, credentialID)
	if err != nil {
		if apperrors.KindOf(err) == apperrors.KindNotFound {
			return nil, nil, apperrors.ErrTokenInvalid.WithMessage("user not found")
		}
		return nil, nil, apperrors.Internal(err)
	}
	if !cred.IsActive {
		return nil, nil, apperrors.ErrAccountDisabled
	}

	sess, err := s.repos.Sessions.GetByCredential(ctx, cred.ID)
	if err != nil {
		return nil, nil, apperrors.Internal(err)
	}
	if sess == nil {
		return nil, nil, apperrors.ErrTokenInvalid.WithMessage("session expired")
	}
	return cred, sess, nil
}
