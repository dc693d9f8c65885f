package handler

import (
	"hlg-fitness/internal/middleware"
	"hlg-fitness/internal/service"

	"github.com/gofiber/fiber/v2"
)

type SaleHandler struct {
	service service.SaleService
}

func NewSaleHandler(s service.SaleService) *SaleHandler {
	return &SaleHandler{service: s}
}

// CreateSale
// POST /api/sales
func (h *SaleHandler) CreateSale(c *fiber.Ctx) error {
	var req service.CreateSaleRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	sale, err := h.service.CreateSale(c.UserContext(), &req, middleware.Username(c))
	if err != nil {
		return respondError(c, err, "Error creating sale")
	}
	return c.Status(fiber.StatusCreated).JSON(sale)
}

type updateSaleRequest struct {
	Status string `json:"status"`
}

// UpdateSale changes only the status.
// PUT /api/sales/:id
func (h *SaleHandler) UpdateSale(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "Invalid sale ID")
	}
	var req updateSaleRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	sale, err := h.service.UpdateStatus(c.UserContext(), id, req.Status, middleware.Username(c))
	if err != nil {
		return respondError(c, err, "Error updating sale")
	}
	return c.JSON(sale)
}

// DeleteSale
// DELETE /api/sales/:id
func (h *SaleHandler) DeleteSale(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "Invalid sale ID")
	}
	if err := h.service.DeleteSale(c.UserContext(), id, middleware.Username(c)); err != nil {
		return respondError(c, err, "Error deleting sale")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *SaleHandler) GetSales(c *fiber.Ctx) error {
	sales, err := h.service.GetAll(c.UserContext())
	if err != nil {
		return respondError(c, err, "Error fetching sales")
	}
	return c.JSON(sales)
}

func (h *SaleHandler) GetSale(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "Invalid sale ID")
	}
	sale, err := h.service.GetByID(c.UserContext(), id)
	if err != nil {
		return respondError(c, err, "Error fetching sale")
	}
	return c.JSON(sale)
}

// GetSalesByDateRange
// GET /api/sales/by-date-range?startDate=2024-05-01&endDate=2024-05-31
func (h *SaleHandler) GetSalesByDateRange(c *fiber.Ctx) error {
	sales, err := h.service.GetByDateRange(c.UserContext(), c.Query("startDate"), c.Query("endDate"))
	if err != nil {
		return respondError(c, err, "Error fetching sales by date range")
	}
	return c.JSON(sales)
}

func (h *SaleHandler) GetCustomerSales(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "Invalid customer ID")
	}
	sales, err := h.service.GetByCustomer(c.UserContext(), id)
	if err != nil {
		return respondError(c, err, "Error fetching customer sales")
	}
	return c.JSON(sales)
}
