package handlers

import (
	"insurecow/internal/services/asset"
	"insurecow/internal/utils"

	"github.com/gofiber/fiber/v2"
)

type AssetHandler struct {
	assets asset.Service
}

func NewAssetHandler(assets asset.Service) *AssetHandler {
	return &AssetHandler{assets: assets}
}

func (h *AssetHandler) List(c *fiber.Ctx) error {
	actor, err := utils.CurrentCredential(c)
	if err != nil {
		return utils.Error(c, err)
	}
	assets, err := h.assets.List(c.UserContext(), actor)
	if err != nil {
		return utils.Error(c, err)
	}
	return utils.Success(c, fiber.StatusOK, "Asset List Retrieved successfully", assets)
}

func (h *AssetHandler) Create(c *fiber.Ctx) error {
	actor, err := utils.CurrentCredential(c)
	if err != nil {
		return utils.Error(c, err)
	}
	var req assetRequest
	if err := bind(c, &req); err != nil {
		return utils.Error(c, err)
	}
	created, err := h.assets.Create(c.UserContext(), actor, req.input())
	if err != nil {
		return utils.Error(c, err)
	}
	return utils.Success(c, fiber.StatusCreated, "Asset Created successfully.", fiber.Map{"asset": created})
}

func (h *AssetHandler) Get(c *fiber.Ctx) error {
	actor, err := utils.CurrentCredential(c)
	if err != nil {
		return utils.Error(c, err)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return utils.Error(c, err)
	}
	a, err := h.assets.Get(c.UserContext(), actor, id)
	if err != nil {
		return utils.Error(c, err)
	}
	return utils.Success(c, fiber.StatusOK, "Asset Details Retrieved successfully", fiber.Map{"asset": a})
}

func (h *AssetHandler) Update(c *fiber.Ctx) error {
	actor, err := utils.CurrentCredential(c)
	if err != nil {
		return utils.Error(c, err)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return utils.Error(c, err)
	}
	var req assetRequest
	if err := bind(c, &req); err != nil {
		return utils.Error(c, err)
	}
	updated, err := h.assets.Update(c.UserContext(), actor, id, req.input())
	if err != nil {
		return utils.Error(c, err)
	}
	return utils.Success(c, fiber.StatusOK, "Asset Updated successfully", fiber.Map{"asset": updated})
}

func (h *AssetHandler) Delete(c *fiber.Ctx) error {
	actor, err := utils.CurrentCredential(c)
	if err != nil {
		return utils.Error(c, err)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return utils.Error(c, err)
	}
	if err := h.assets.Delete(c.UserContext(), actor, id); err != nil {
		return utils.Error(c, err)
	}
	return utils.Success(c, fiber.StatusOK, "Deleted successfully.", nil)
}

// History lists the audit trail of one asset.
func (h *AssetHandler) History(c *fiber.Ctx) error {
	actor, err := utils.CurrentCredential(c)
	if err != nil {
		return utils.Error(c, err)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return utils.Error(c, err)
	}
	logs, err := h.assets.History(c.UserContext(), actor, id)
	if err != nil {
		return utils.Error(c, err)
	}
	return utils.Success(c, fiber.StatusOK, "Asset History Retrieved successfully", logs)
}
