package handlers

import (
	"insurecow/internal/services/role"
	"insurecow/internal/services/user"
	"insurecow/internal/utils"

	"github.com/gofiber/fiber/v2"
)

const (
	defaultPage  = 1
	defaultLimit = 20
)

// AdminHandler serves the staff and superuser endpoints.
type AdminHandler struct {
	users user.Service
	roles role.Service
}

func NewAdminHandler(users user.Service, roles role.Service) *AdminHandler {
	return &AdminHandler{
		users: users,
		roles: roles,
	}
}

func (h *AdminHandler) CreateUser(c *fiber.Ctx) error {
	actor, err := utils.CurrentCredential(c)
	if err != nil {
		return utils.Error(c, err)
	}
	var req createUserRequest
	if err := bind(c, &req); err != nil {
		return utils.Error(c, err)
	}
	created, err := h.users.CreateUser(c.UserContext(), actor, req.input())
	if err != nil {
		return utils.Error(c, err)
	}
	return utils.Success(c, fiber.StatusCreated, "User created successfully.", fiber.Map{"user": created})
}

func (h *AdminHandler) SetManagedBy(c *fiber.Ctx) error {
	actor, err := utils.CurrentCredential(c)
	if err != nil {
		return utils.Error(c, err)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return utils.Error(c, err)
	}
	var req setManagedByRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.BadRequest(c, "invalid request body")
	}

	updated, err := h.users.SetManagedBy(c.UserContext(), actor, id, req.ManagedBy)
	if err != nil {
		return utils.Error(c, err)
	}
	return utils.Success(c, fiber.StatusOK, "Managed by updated successfully.", fiber.Map{"user": updated})
}

// ListUsers returns a page of every account.
func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	actor, err := utils.CurrentCredential(c)
	if err != nil {
		return utils.Error(c, err)
	}
	page := utils.GetPagination(c, defaultPage, defaultLimit)
	users, err := h.users.ListUsers(c.UserContext(), actor, &page)
	if err != nil {
		return utils.Error(c, err)
	}
	return utils.Success(c, fiber.StatusOK, "User List retrieved successfully.", fiber.Map{
		"results":    users,
		"pagination": page,
	})
}

func (h *AdminHandler) CreateRole(c *fiber.Ctx) error {
	actor, err := utils.CurrentCredential(c)
	if err != nil {
		return utils.Error(c, err)
	}
	var req roleRequest
	if err := bind(c, &req); err != nil {
		return utils.Error(c, err)
	}
	created, err := h.roles.Create(c.UserContext(), actor, role.Input{Name: req.Name, IsActive: req.IsActive})
	if err != nil {
		return utils.Error(c, err)
	}
	return utils.Success(c, fiber.StatusCreated, "Roles Created successfully.", fiber.Map{"role": created})
}

func (h *AdminHandler) GetRole(c *fiber.Ctx) error {
	actor, err := utils.CurrentCredential(c)
	if err != nil {
		return utils.Error(c, err)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return utils.Error(c, err)
	}
	r, err := h.roles.Get(c.UserContext(), actor, id)
	if err != nil {
		return utils.Error(c, err)
	}
	return utils.Success(c, fiber.StatusOK, "Roles Retrieved successfully.", fiber.Map{"role": r})
}

func (h *AdminHandler) UpdateRole(c *fiber.Ctx) error {
	actor, err := utils.CurrentCredential(c)
	if err != nil {
		return utils.Error(c, err)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return utils.Error(c, err)
	}
	var req roleRequest
	if err := bind(c, &req); err != nil {
		return utils.Error(c, err)
	}
	updated, err := h.roles.Update(c.UserContext(), actor, id, role.Input{Name: req.Name, IsActive: req.IsActive})
	if err != nil {
		return utils.Error(c, err)
	}
	return utils.Success(c, fiber.StatusOK, "Roles Updated successfully.", fiber.Map{"role": updated})
}

func (h *AdminHandler) DeleteRole(c *fiber.Ctx) error {
	actor, err := utils.CurrentCredential(c)
	if err != nil {
		return utils.Error(c, err)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return utils.Error(c, err)
	}
	if err := h.roles.Delete(c.UserContext(), actor, id); err != nil {
		return utils.Error(c, err)
	}
	return utils.Success(c, fiber.StatusOK, "Roles Deleted successfully.", nil)
}
