package utils

import (
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	apperrors "insurecow/internal/errors"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeEnvelope(t *testing.T, body io.Reader) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(body).Decode(&out))
	return out
}

func TestErrorEnvelope(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"conflict", apperrors.ErrMobileTaken, fiber.StatusConflict, "MOBILE_TAKEN"},
		{"rate limited", apperrors.ErrOTPRateLimited, fiber.StatusTooManyRequests, "OTP_RATE_LIMITED"},
		{"not found", apperrors.ErrOTPInvalid, fiber.StatusNotFound, "OTP_INVALID"},
		{"invalid state", apperrors.ErrOTPNotVerified, fiber.StatusBadRequest, "OTP_NOT_VERIFIED"},
		{"expired", apperrors.ErrTokenExpired, fiber.StatusUnauthorized, "TOKEN_EXPIRED"},
		{"forbidden", apperrors.ErrUseAdminAPI, fiber.StatusForbidden, "USE_ADMIN_API"},
		{"unknown", errors.New("db exploded"), fiber.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/", func(c *fiber.Ctx) error { return Error(c, tt.err) })

			resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			body := decodeEnvelope(t, resp.Body)
			data := body["data"].(map[string]interface{})
			assert.Equal(t, tt.wantCode, data["code"])
			assert.NotContains(t, data["message"], "db exploded")
		})
	}
}

func TestValidationEnvelope(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return Error(c, apperrors.Validation(map[string]string{"password": "too short"}))
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	body := decodeEnvelope(t, resp.Body)
	assert.Equal(t, "400", body["statusCode"])
	assert.Equal(t, "Validation Error", body["statusMessage"])
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "password: too short", data["message"])
	assert.Equal(t, map[string]interface{}{"password": "too short"}, data["details"])
}

func TestBadRequest(t *testing.T) {
	app := fiber.New()
	app.Post("/", func(c *fiber.Ctx) error { return BadRequest(c, "invalid request body") })

	resp, err := app.Test(httptest.NewRequest("POST", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	body := decodeEnvelope(t, resp.Body)
	assert.Equal(t, "Validation Error", body["statusMessage"])
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "BAD_REQUEST", data["code"])
	assert.Equal(t, "invalid request body", data["message"])
}

func TestSuccessEnvelope(t *testing.T) {
	app := fiber.New()
	app.Get("/map", func(c *fiber.Ctx) error {
		return Success(c, fiber.StatusOK, "Login successful", fiber.Map{"role": "individual"})
	})
	app.Get("/list", func(c *fiber.Ctx) error {
		return Success(c, fiber.StatusCreated, "Roles retrieved", []string{"a", "b"})
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/map", nil))
	require.NoError(t, err)
	data := decodeEnvelope(t, resp.Body)["data"].(map[string]interface{})
	assert.Equal(t, "Login successful", data["message"])
	assert.Equal(t, "individual", data["role"])

	resp, err = app.Test(httptest.NewRequest("GET", "/list", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
	body := decodeEnvelope(t, resp.Body)
	assert.Equal(t, "201", body["statusCode"])
	data = body["data"].(map[string]interface{})
	assert.Equal(t, []interface{}{"a", "b"}, data["results"])
}

func TestNewPagination(t *testing.T) {
	p := NewPagination("3", "20", 1, 10)
	assert.Equal(t, 3, p.Page)
	assert.Equal(t, 40, p.Offset)

	p = NewPagination("x", "-1", 1, 10)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 10, p.Limit)

	p = NewPagination("1", "1000", 1, 10)
	assert.Equal(t, MaxPageLimit, p.Limit)

	p.SetTotal(250)
	assert.Equal(t, 3, p.LastPage)
}

func TestRandomInt(t *testing.T) {
	for i := 0; i < 200; i++ {
		n, err := RandomInt(100000, 999999)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n, int64(100000))
		assert.LessOrEqual(t, n, int64(999999))
	}
	_, err := RandomInt(5, 1)
	assert.Error(t, err)
}
