package handler

import (
	"bytes"
	"fmt"
	"time"

	"hlg-fitness/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ReportHandler struct {
	service service.ReportService
}

func NewReportHandler(s service.ReportService) *ReportHandler {
	return &ReportHandler{service: s}
}

func sendCSV(c *fiber.Ctx, name string, buf *bytes.Buffer) error {
	filename := fmt.Sprintf("%s_%s.csv", name, time.Now().Format("20060102"))
	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, filename))
	return c.Send(buf.Bytes())
}

// GetSalesReport
// GET /api/reports/sales?startDate=...&endDate=...
func (h *ReportHandler) GetSalesReport(c *fiber.Ctx) error {
	report, err := h.service.SalesReport(c.UserContext(), c.Query("startDate"), c.Query("endDate"))
	if err != nil {
		return respondError(c, err, "Error generating sales report")
	}
	return c.JSON(report)
}

// GetSalesCSV
// GET /api/reports/sales.csv?startDate=...&endDate=...
func (h *ReportHandler) GetSalesCSV(c *fiber.Ctx) error {
	var buf bytes.Buffer
	if err := h.service.WriteSalesCSV(c.UserContext(), &buf, c.Query("startDate"), c.Query("endDate")); err != nil {
		return respondError(c, err, "Error generating sales report")
	}
	return sendCSV(c, "sales_report", &buf)
}

func (h *ReportHandler) GetInventoryReport(c *fiber.Ctx) error {
	report, err := h.service.InventoryReport()
	if err != nil {
		return respondError(c, err, "Error generating inventory report")
	}
	return c.JSON(report)
}

// GetInventoryCSV
// GET /api/reports/inventory.csv
func (h *ReportHandler) GetInventoryCSV(c *fiber.Ctx) error {
	var buf bytes.Buffer
	if err := h.service.WriteInventoryCSV(&buf); err != nil {
		return respondError(c, err, "Error generating inventory report")
	}
	return sendCSV(c, "inventory_report", &buf)
}
