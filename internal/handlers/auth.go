package handlers

import (
	"insurecow/internal/services/registration"
	"insurecow/internal/services/role"
	"insurecow/internal/services/session"
	"insurecow/internal/utils"

	"github.com/gofiber/fiber/v2"
)

// AuthHandler serves the public registration, login and token endpoints.
type AuthHandler struct {
	registration registration.Service
	sessions     session.Service
	roles        role.Service
}

func NewAuthHandler(reg registration.Service, sessions session.Service, roles role.Service) *AuthHandler {
	return &AuthHandler{
		registration: reg,
		sessions:     sessions,
		roles:        roles,
	}
}

// RegisterStep1 records a pending registration and sends an OTP.
func (h *AuthHandler) RegisterStep1(c *fiber.Ctx) error {
	var req registerStep1Request
	if err := bind(c, &req); err != nil {
		return utils.Error(c, err)
	}

	_, err := h.registration.StartRegistration(c.UserContext(), registration.StartInput{
		Mobile:    req.MobileNumber,
		RoleID:    req.RoleID,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		IP:        c.IP(),
		UserAgent: c.Get(fiber.HeaderUserAgent),
	})
	if err != nil {
		return utils.Error(c, err)
	}
	return utils.Success(c, fiber.StatusOK, "OTP sent successfully.", nil)
}

func (h *AuthHandler) VerifyOTP(c *fiber.Ctx) error {
	var req verifyOTPRequest
	if err := bind(c, &req); err != nil {
		return utils.Error(c, err)
	}
	if _, err := h.registration.VerifyOTP(c.UserContext(), req.MobileNumber, req.OTP); err != nil {
		return utils.Error(c, err)
	}
	return utils.Success(c, fiber.StatusOK, "OTP verified successfully.", nil)
}

func (h *AuthHandler) SetPassword(c *fiber.Ctx) error {
	var req setPasswordRequest
	if err := bind(c, &req); err != nil {
		return utils.Error(c, err)
	}
	if _, err := h.registration.SetPassword(c.UserContext(), req.MobileNumber, req.Password); err != nil {
		return utils.Error(c, err)
	}
	return utils.Success(c, fiber.StatusCreated, "User registered successfully.", nil)
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := bind(c, &req); err != nil {
		return utils.Error(c, err)
	}

	result, err := h.sessions.Login(c.UserContext(), req.MobileNumber, req.Password)
	if err != nil {
		return utils.Error(c, err)
	}
	return utils.Success(c, fiber.StatusOK, "User logged in successfully.", fiber.Map{
		"role":   result.Role,
		"tokens": result.Tokens,
	})
}

// VerifyToken returns the claims of a valid token.
func (h *AuthHandler) VerifyToken(c *fiber.Ctx) error {
	var req tokenRequest
	if err := bind(c, &req); err != nil {
		return utils.Error(c, err)
	}

	claims, err := h.sessions.VerifyToken(req.Token)
	if err != nil {
		return utils.Error(c, err)
	}
	return utils.Success(c, fiber.StatusOK, "Token is valid.", fiber.Map{"payload": claims})
}

func (h *AuthHandler) RefreshToken(c *fiber.Ctx) error {
	var req refreshRequest
	if err := bind(c, &req); err != nil {
		return utils.Error(c, err)
	}

	result, err := h.sessions.Refresh(c.UserContext(), req.Refresh)
	if err != nil {
		return utils.Error(c, err)
	}
	return utils.Success(c, fiber.StatusOK, "Token refreshed successfully.", fiber.Map{
		"role":   result.Role,
		"tokens": result.Tokens,
	})
}

// RoleList lists the active roles offered at registration.
func (h *AuthHandler) RoleList(c *fiber.Ctx) error {
	roles, err := h.roles.ListActive(c.UserContext())
	if err != nil {
		return utils.Error(c, err)
	}
	return utils.Success(c, fiber.StatusOK, "Roles Retrieved successfully.", roles)
}
