package utils

import (
	apperrors "insurecow/internal/errors"
	"insurecow/internal/models"

	"github.com/gofiber/fiber/v2"
)

// Keys under which the bearer middleware stores request state.
const (
	LocalsCredential = "credential"
	LocalsClaims     = "claims"
)

// CurrentCredential returns the authenticated credential stored by the bearer middleware.
func CurrentCredential(c *fiber.Ctx) (*models.Credential, error) {
	cred, ok := c.Locals(LocalsCredential).(*models.Credential)
	if !ok || cred == nil {
		return nil, apperrors.ErrUnauthenticated
	}
	return cred, nil
}

// GetSessionClaims extracts the verified token claims from the Fiber context.
func GetSessionClaims(c *fiber.Ctx) (*models.SessionClaims, error) {
	claims, ok := c.Locals(LocalsClaims).(*models.SessionClaims)
	if !ok || claims == nil {
		return nil, apperrors.ErrUnauthenticated
	}
	return claims, nil
}
