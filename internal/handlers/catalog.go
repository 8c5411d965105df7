package handlers

import (
	"insurecow/internal/services/catalog"
	"insurecow/internal/utils"

	"github.com/gofiber/fiber/v2"
)

// CatalogHandler serves one asset lookup table.
type CatalogHandler[T any] struct {
	entries catalog.Service[T]
}

func NewCatalogHandler[T any](entries catalog.Service[T]) *CatalogHandler[T] {
	return &CatalogHandler[T]{entries: entries}
}

func (h *CatalogHandler[T]) List(c *fiber.Ctx) error {
	actor, err := utils.CurrentCredential(c)
	if err != nil {
		return utils.Error(c, err)
	}
	list, err := h.entries.List(c.UserContext(), actor)
	if err != nil {
		return utils.Error(c, err)
	}
	return utils.Success(c, fiber.StatusOK, "List retrieved successfully", list)
}

func (h *CatalogHandler[T]) Create(c *fiber.Ctx) error {
	actor, err := utils.CurrentCredential(c)
	if err != nil {
		return utils.Error(c, err)
	}
	var req catalogRequest
	if err := bind(c, &req); err != nil {
		return utils.Error(c, err)
	}
	created, err := h.entries.Create(c.UserContext(), actor, req.input())
	if err != nil {
		return utils.Error(c, err)
	}
	return utils.Success(c, fiber.StatusCreated, "Created successfully", fiber.Map{"result": created})
}

func (h *CatalogHandler[T]) Get(c *fiber.Ctx) error {
	actor, err := utils.CurrentCredential(c)
	if err != nil {
		return utils.Error(c, err)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return utils.Error(c, err)
	}
	entry, err := h.entries.Get(c.UserContext(), actor, id)
	if err != nil {
		return utils.Error(c, err)
	}
	return utils.Success(c, fiber.StatusOK, "Details retrieved successfully", fiber.Map{"result": entry})
}

func (h *CatalogHandler[T]) Update(c *fiber.Ctx) error {
	actor, err := utils.CurrentCredential(c)
	if err != nil {
		return utils.Error(c, err)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return utils.Error(c, err)
	}
	var req catalogRequest
	if err := bind(c, &req); err != nil {
		return utils.Error(c, err)
	}
	updated, err := h.entries.Update(c.UserContext(), actor, id, req.input())
	if err != nil {
		return utils.Error(c, err)
	}
	return utils.Success(c, fiber.StatusOK, "Updated successfully", fiber.Map{"result": updated})
}

func (h *CatalogHandler[T]) Delete(c *fiber.Ctx) error {
	actor, err := utils.CurrentCredential(c)
	if err != nil {
		return utils.Error(c, err)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return utils.Error(c, err)
	}
	if err := h.entries.Delete(c.UserContext(), actor, id); err != nil {
		return utils.Error(c, err)
	}
	return utils.Success(c, fiber.StatusOK, "Deleted successfully.", nil)
}
