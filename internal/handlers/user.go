package handlers

import (
	"insurecow/internal/services/profile"
	"insurecow/internal/services/user"
	"insurecow/internal/utils"

	"github.com/gofiber/fiber/v2"
)

// UserHandler serves the authenticated user's own account.
type UserHandler struct {
	profiles profile.Service
	users    user.Service
}

func NewUserHandler(profiles profile.Service, users user.Service) *UserHandler {
	return &UserHandler{
		profiles: profiles,
		users:    users,
	}
}

func (h *UserHandler) GetPersonalInfo(c *fiber.Ctx) error {
	actor, err := utils.CurrentCredential(c)
	if err != nil {
		return utils.Error(c, err)
	}
	info, err := h.profiles.GetPersonal(c.UserContext(), actor)
	if err != nil {
		return utils.Error(c, err)
	}
	return utils.Success(c, fiber.StatusOK, "", info)
}

func (h *UserHandler) SetPersonalInfo(c *fiber.Ctx) error {
	actor, err := utils.CurrentCredential(c)
	if err != nil {
		return utils.Error(c, err)
	}
	var req personalInfoRequest
	if err := bind(c, &req); err != nil {
		return utils.Error(c, err)
	}
	if _, err := h.profiles.SetPersonal(c.UserContext(), actor, req.model()); err != nil {
		return utils.Error(c, err)
	}
	return utils.Success(c, fiber.StatusOK, "User's Personal Info Saved Successfully.", nil)
}

func (h *UserHandler) GetFinancialInfo(c *fiber.Ctx) error {
	actor, err := utils.CurrentCredential(c)
	if err != nil {
		return utils.Error(c, err)
	}
	info, err := h.profiles.GetFinancial(c.UserContext(), actor)
	if err != nil {
		return utils.Error(c, err)
	}
	return utils.Success(c, fiber.StatusOK, "", info)
}

func (h *UserHandler) SetFinancialInfo(c *fiber.Ctx) error {
	actor, err := utils.CurrentCredential(c)
	if err != nil {
		return utils.Error(c, err)
	}
	var req financialInfoRequest
	if err := bind(c, &req); err != nil {
		return utils.Error(c, err)
	}
	if _, err := h.profiles.SetFinancial(c.UserContext(), actor, req.model()); err != nil {
		return utils.Error(c, err)
	}
	return utils.Success(c, fiber.StatusOK, "User's Financial Info Saved Successfully.", nil)
}

func (h *UserHandler) GetNomineeInfo(c *fiber.Ctx) error {
	actor, err := utils.CurrentCredential(c)
	if err != nil {
		return utils.Error(c, err)
	}
	info, err := h.profiles.GetNominee(c.UserContext(), actor)
	if err != nil {
		return utils.Error(c, err)
	}
	return utils.Success(c, fiber.StatusOK, "", info)
}

func (h *UserHandler) SetNomineeInfo(c *fiber.Ctx) error {
	actor, err := utils.CurrentCredential(c)
	if err != nil {
		return utils.Error(c, err)
	}
	var req nomineeInfoRequest
	if err := bind(c, &req); err != nil {
		return utils.Error(c, err)
	}
	if _, err := h.profiles.SetNominee(c.UserContext(), actor, req.model()); err != nil {
		return utils.Error(c, err)
	}
	return utils.Success(c, fiber.StatusOK, "User's Nominee Info Saved Successfully.", nil)
}

func (h *UserHandler) GetOrganizationInfo(c *fiber.Ctx) error {
	actor, err := utils.CurrentCredential(c)
	if err != nil {
		return utils.Error(c, err)
	}
	info, err := h.profiles.GetOrganization(c.UserContext(), actor)
	if err != nil {
		return utils.Error(c, err)
	}
	return utils.Success(c, fiber.StatusOK, "", info)
}

func (h *UserHandler) SetOrganizationInfo(c *fiber.Ctx) error {
	actor, err := utils.CurrentCredential(c)
	if err != nil {
		return utils.Error(c, err)
	}
	var req organizationInfoRequest
	if err := bind(c, &req); err != nil {
		return utils.Error(c, err)
	}
	if _, err := h.profiles.SetOrganization(c.UserContext(), actor, req.model()); err != nil {
		return utils.Error(c, err)
	}
	return utils.Success(c, fiber.StatusOK, "User's Organization Info Saved Successfully.", nil)
}

// SubUsers lists the accounts managed by the caller.
func (h *UserHandler) SubUsers(c *fiber.Ctx) error {
	actor, err := utils.CurrentCredential(c)
	if err != nil {
		return utils.Error(c, err)
	}
	subs, err := h.users.SubUsers(c.UserContext(), actor)
	if err != nil {
		return utils.Error(c, err)
	}
	return utils.Success(c, fiber.StatusOK, "User List retrieved successfully.", subs)
}

// CreateSubUser creates an account managed by the calling organization.
func (h *UserHandler) CreateSubUser(c *fiber.Ctx) error {
	actor, err := utils.CurrentCredential(c)
	if err != nil {
		return utils.Error(c, err)
	}
	var req createUserRequest
	if err := bind(c, &req); err != nil {
		return utils.Error(c, err)
	}
	created, err := h.users.CreateSubUser(c.UserContext(), actor, req.input())
	if err != nil {
		return utils.Error(c, err)
	}
	return utils.Success(c, fiber.StatusCreated, "User created successfully.", fiber.Map{"user": created})
}

func (h *UserHandler) ChangePassword(c *fiber.Ctx) error {
	actor, err := utils.CurrentCredential(c)
	if err != nil {
		return utils.Error(c, err)
	}
	var req changePasswordRequest
	if err := bind(c, &req); err != nil {
		return utils.Error(c, err)
	}

	tokens, err := h.users.ChangePassword(c.UserContext(), actor, user.ChangePasswordInput{
		OldPassword:     req.OldPassword,
		NewPassword:     req.NewPassword,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		return utils.Error(c, err)
	}
	return utils.Success(c, fiber.StatusOK, "Password changed successfully.", fiber.Map{"tokens": tokens})
}
