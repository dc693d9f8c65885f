package handler

import (
	"hlg-fitness/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cast"
)

type DashboardHandler struct {
	service service.DashboardService
}

func NewDashboardHandler(s service.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: s}
}

// GetSalesTrend returns daily revenue and units for charts
// Query params: days (default 7)
func (h *DashboardHandler) GetSalesTrend(c *fiber.Ctx) error {
	days := cast.ToInt(c.Query("days", "7"))

	data, err := h.service.GetSalesTrend(c.UserContext(), days)
	if err != nil {
		return respondError(c, err, "Error fetching sales trend")
	}

	return c.JSON(fiber.Map{
		"period": len(data),
		"data":   data,
	})
}

// GetDashboardStats returns today's overview
func (h *DashboardHandler) GetDashboardStats(c *fiber.Ctx) error {
	stats, err := h.service.GetStats(c.UserContext())
	if err != nil {
		return respondError(c, err, "Error fetching dashboard stats")
	}
	return c.JSON(stats)
}

func (h *DashboardHandler) GetLowStock(c *fiber.Ctx) error {
	products, err := h.service.GetLowStock()
	if err != nil {
		return respondError(c, err, "Error fetching low stock products")
	}
	return c.JSON(products)
}
