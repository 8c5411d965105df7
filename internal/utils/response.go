package utils

import (
	"strconv"

	apperrors "insurecow/internal/errors"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
)

// Envelope is the body of every API response.
type Envelope struct {
	StatusCode    string      `json:"statusCode"`
	StatusMessage string      `json:"statusMessage"`
	Data          interface{} `json:"data"`
}

// ErrorBody is the data of a failed response.
type ErrorBody struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(kind apperrors.Kind) int {
	switch kind {
	case apperrors.KindValidation, apperrors.KindInvalidState:
		return fiber.StatusBadRequest
	case apperrors.KindUnauthorized, apperrors.KindExpired:
		return fiber.StatusUnauthorized
	case apperrors.KindForbidden:
		return fiber.StatusForbidden
	case apperrors.KindNotFound:
		return fiber.StatusNotFound
	case apperrors.KindConflict:
		return fiber.StatusConflict
	case apperrors.KindRateLimited:
		return fiber.StatusTooManyRequests
	default:
		return fiber.StatusInternalServerError
	}
}

// Success sends a successful envelope. Map payloads are merged next to the
// message; anything else is placed under "results".
func Success(c *fiber.Ctx, status int, message string, data interface{}) error {
	body := fiber.Map{"message": message}
	switch d := data.(type) {
	case fiber.Map:
		for k, v := range d {
			body[k] = v
		}
	case nil:
	default:
		body["results"] = d
	}

	return c.Status(status).JSON(Envelope{
		StatusCode:    strconv.Itoa(status),
		StatusMessage: "Success",
		Data:          body,
	})
}

// Error converts err into a failed envelope. Internal errors are logged and
// their text is never exposed.
func Error(c *fiber.Ctx, err error) error {
	de := apperrors.As(err)
	status := StatusFor(de.Kind)

	if de.Kind == apperrors.KindInternal {
		log.WithError(err).WithFields(log.Fields{
			"method": c.Method(),
			"path":   c.Path(),
		}).Error("request failed")
	}

	statusMessage := "Failed"
	if de.Kind == apperrors.KindValidation {
		statusMessage = "Validation Error"
	}

	message := de.Message
	if de.Kind == apperrors.KindValidation && len(de.Fields) > 0 {
		message = firstFieldMessage(de.Fields)
	}

	return c.Status(status).JSON(Envelope{
		StatusCode:    strconv.Itoa(status),
		StatusMessage: statusMessage,
		Data: ErrorBody{
			Code:    de.Code,
			Message: message,
			Details: de.Fields,
		},
	})
}

// BadRequest reports a malformed request body.
func BadRequest(c *fiber.Ctx, message string) error {
	return Error(c, apperrors.New(apperrors.KindValidation, "BAD_REQUEST", message))
}

// ErrorHandler is the fiber.Config ErrorHandler; it renders fiber errors and
// anything a handler returned with the same envelope.
func ErrorHandler(c *fiber.Ctx, err error) error {
	if fe, ok := err.(*fiber.Error); ok {
		return c.Status(fe.Code).JSON(Envelope{
			StatusCode:    strconv.Itoa(fe.Code),
			StatusMessage: "Failed",
			Data:          ErrorBody{Code: "HTTP_" + strconv.Itoa(fe.Code), Message: fe.Message},
		})
	}
	return Error(c, err)
}

func firstFieldMessage(fields map[string]string) string {
	var first string
	for k := range fields {
		if first == "" || k < first {
			first = k
		}
	}
	return first + ": " + fields[first]
}
