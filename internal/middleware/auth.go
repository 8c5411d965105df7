// Package middleware provides HTTP middleware components for the application.
// It includes authentication and authorization middleware for the fiber web
// framework.
package middleware

import (
	"strings"

	apperrors "insurecow/internal/errors"
	"insurecow/internal/policy"
	"insurecow/internal/services/session"
	"insurecow/internal/utils"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
)

// AuthMiddleware validates bearer access tokens.
type AuthMiddleware struct {
	sessions session.Service
	policy   *policy.Policy
}

func NewAuthMiddleware(sessions session.Service, pol *policy.Policy) *AuthMiddleware {
	return &AuthMiddleware{
		sessions: sessions,
		policy:   pol,
	}
}

// Handler validates the bearer token and stores the credential and claims in
// the request context. It checks for:
// - Presence of Authorization header with Bearer token
// - Valid signature and expiry
// - Token still being the session's current access token
// - An active credential
func (m *AuthMiddleware) Handler(c *fiber.Ctx) error {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return utils.Error(c, apperrors.ErrUnauthenticated.WithMessage("missing authorization header"))
	}
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return utils.Error(c, apperrors.ErrUnauthenticated.WithMessage("invalid authorization format"))
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))

	cred, claims, err := m.sessions.Authenticate(c.UserContext(), token)
	if err != nil {
		log.WithError(err).WithField("path", c.Path()).Debug("bearer authentication failed")
		return utils.Error(c, err)
	}

	c.Locals(utils.LocalsCredential, cred)
	c.Locals(utils.LocalsClaims, claims)
	return c.Next()
}

// Require returns a middleware that lets the request through only when the
// authenticated credential satisfies req.
func (m *AuthMiddleware) Require(req policy.Requirement) fiber.Handler {
	return func(c *fiber.Ctx) error {
		cred, err := utils.CurrentCredential(c)
		if err != nil {
			return utils.Error(c, err)
		}
		if err := m.policy.Enforce(cred, req); err != nil {
			log.WithFields(log.Fields{
				"credential_id": cred.ID,
				"requires":      req.String(),
				"path":          c.Path(),
			}).Info("access denied")
			return utils.Error(c, err)
		}
		return c.Next()
	}
}

func (m *AuthMiddleware) RequireSuperuser() fiber.Handler {
	return m.Require(policy.Superuser())
}

func (m *AuthMiddleware) RequireStaff() fiber.Handler {
	return m.Require(policy.Staff())
}

func (m *AuthMiddleware) RequireRole(id uint) fiber.Handler {
	return m.Require(policy.Role(id))
}
