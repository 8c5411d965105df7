package handlers

import (
	apperrors "insurecow/internal/errors"

	"github.com/gofiber/fiber/v2"
)

var errInvalidBody = apperrors.New(apperrors.KindValidation, "BAD_REQUEST", "invalid request body")

// paramID reads a positive numeric path parameter.
func paramID(c *fiber.Ctx, name string) (uint, error) {
	id, err := c.ParamsInt(name)
	if err != nil || id <= 0 {
		return 0, apperrors.FieldError(name, "must be a positive integer")
	}
	return uint(id), nil
}
