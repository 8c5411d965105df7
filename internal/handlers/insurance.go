package handlers

import (
	"insurecow/internal/services/insurance"
	"insurecow/internal/utils"

	"github.com/gofiber/fiber/v2"
)

type InsuranceHandler struct {
	insurance insurance.Service
}

func NewInsuranceHandler(svc insurance.Service) *InsuranceHandler {
	return &InsuranceHandler{insurance: svc}
}

// Products lists every insurer with its types, periods and premiums. No login required.
func (h *InsuranceHandler) Products(c *fiber.Ctx) error {
	companies, err := h.insurance.Catalogue(c.UserContext())
	if err != nil {
		return utils.Error(c, err)
	}
	return utils.Success(c, fiber.StatusOK, "Insurance Products Retrieved successfully", companies)
}

func (h *InsuranceHandler) CreateProduct(c *fiber.Ctx) error {
	actor, err := utils.CurrentCredential(c)
	if err != nil {
		return utils.Error(c, err)
	}
	var req productRequest
	if err := bind(c, &req); err != nil {
		return utils.Error(c, err)
	}
	product, err := h.insurance.CreateProduct(c.UserContext(), actor, req.input())
	if err != nil {
		return utils.Error(c, err)
	}
	return utils.Success(c, fiber.StatusCreated, "Insurance Product Saved successfully.", fiber.Map{"insurance_product": product})
}

func (h *InsuranceHandler) Apply(c *fiber.Ctx) error {
	actor, err := utils.CurrentCredential(c)
	if err != nil {
		return utils.Error(c, err)
	}
	var req applyRequest
	if err := bind(c, &req); err != nil {
		return utils.Error(c, err)
	}
	ins, err := h.insurance.Apply(c.UserContext(), actor, req.input())
	if err != nil {
		return utils.Error(c, err)
	}
	return utils.Success(c, fiber.StatusCreated, "Insurance Applied successfully.", fiber.Map{"asset_insurance": ins})
}

func (h *InsuranceHandler) ListForAsset(c *fiber.Ctx) error {
	actor, err := utils.CurrentCredential(c)
	if err != nil {
		return utils.Error(c, err)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return utils.Error(c, err)
	}
	list, err := h.insurance.ListForAsset(c.UserContext(), actor, id)
	if err != nil {
		return utils.Error(c, err)
	}
	return utils.Success(c, fiber.StatusOK, "Asset Insurances Retrieved successfully", list)
}

func (h *InsuranceHandler) Claim(c *fiber.Ctx) error {
	actor, err := utils.CurrentCredential(c)
	if err != nil {
		return utils.Error(c, err)
	}
	var req claimRequest
	if err := bind(c, &req); err != nil {
		return utils.Error(c, err)
	}
	claim, err := h.insurance.Claim(c.UserContext(), actor, req.input())
	if err != nil {
		return utils.Error(c, err)
	}
	return utils.Success(c, fiber.StatusCreated, "Insurance Claim Submitted successfully.", fiber.Map{"insurance_claim": claim})
}

func (h *InsuranceHandler) ListClaims(c *fiber.Ctx) error {
	actor, err := utils.CurrentCredential(c)
	if err != nil {
		return utils.Error(c, err)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return utils.Error(c, err)
	}
	claims, err := h.insurance.ListClaims(c.UserContext(), actor, id)
	if err != nil {
		return utils.Error(c, err)
	}
	return utils.Success(c, fiber.StatusOK, "Insurance Claims Retrieved successfully", claims)
}

func (h *InsuranceHandler) ProcessClaim(c *fiber.Ctx) error {
	actor, err := utils.CurrentCredential(c)
	if err != nil {
		return utils.Error(c, err)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return utils.Error(c, err)
	}
	var req claimDecisionRequest
	if err := bind(c, &req); err != nil {
		return utils.Error(c, err)
	}
	claim, err := h.insurance.ProcessClaim(c.UserContext(), actor, id, req.input())
	if err != nil {
		return utils.Error(c, err)
	}
	return utils.Success(c, fiber.StatusOK, "Insurance Claim Updated successfully.", fiber.Map{"insurance_claim": claim})
}
