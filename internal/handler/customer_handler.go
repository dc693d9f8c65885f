package handler

import (
	"hlg-fitness/internal/middleware"
	"hlg-fitness/internal/service"

	"github.com/gofiber/fiber/v2"
)

type CustomerHandler struct {
	service service.CustomerService
}

func NewCustomerHandler(s service.CustomerService) *CustomerHandler {
	return &CustomerHandler{service: s}
}

// GetCustomers
// GET /api/customers?q=ana
func (h *CustomerHandler) GetCustomers(c *fiber.Ctx) error {
	customers, err := h.service.GetAll(c.Query("q"))
	if err != nil {
		return respondError(c, err, "Error fetching customers")
	}
	return c.JSON(customers)
}

func (h *CustomerHandler) GetCustomer(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "Invalid customer ID")
	}
	customer, err := h.service.GetByID(id)
	if err != nil {
		return respondError(c, err, "Error fetching customer")
	}
	return c.JSON(customer)
}

func (h *CustomerHandler) CreateCustomer(c *fiber.Ctx) error {
	var req service.CustomerInput
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}
	customer, err := h.service.Create(&req, middleware.Username(c))
	if err != nil {
		return respondError(c, err, "Error creating customer")
	}
	return c.Status(fiber.StatusCreated).JSON(customer)
}

func (h *CustomerHandler) UpdateCustomer(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "Invalid customer ID")
	}
	var req service.CustomerInput
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}
	customer, err := h.service.Update(id, &req, middleware.Username(c))
	if err != nil {
		return respondError(c, err, "Error updating customer")
	}
	return c.JSON(customer)
}

func (h *CustomerHandler) DeleteCustomer(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "Invalid customer ID")
	}
	if err := h.service.Delete(id); err != nil {
		return respondError(c, err, "Error deleting customer")
	}
	return c.SendStatus(fiber.StatusNoContent)
}
