package handler

import (
	"mime/multipart"
	"strings"

	"hlg-fitness/internal/middleware"
	"hlg-fitness/internal/repository"
	"hlg-fitness/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
)

type ProductHandler struct {
	service service.ProductService
}

func NewProductHandler(s service.ProductService) *ProductHandler {
	return &ProductHandler{service: s}
}

func isMultipart(c *fiber.Ctx) bool {
	return strings.HasPrefix(string(c.Request().Header.ContentType()), fiber.MIMEMultipartForm)
}

// parseProduct accepts either a JSON body or a multipart form with an optional "image" file.
func parseProduct(c *fiber.Ctx) (*service.ProductInput, error) {
	if !isMultipart(c) {
		var req service.ProductInput
		if err := c.BodyParser(&req); err != nil {
			return nil, err
		}
		return &req, nil
	}

	req := &service.ProductInput{
		Name:        c.FormValue("name"),
		Description: c.FormValue("description"),
		Category:    c.FormValue("category"),
		Size:        c.FormValue("size"),
		Color:       c.FormValue("color"),
	}
	if v := c.FormValue("price"); v != "" {
		price, err := decimal.NewFromString(v)
		if err != nil {
			return nil, err
		}
		req.Price = price
	}
	if v := c.FormValue("stock"); v != "" {
		stock, err := cast.ToIntE(v)
		if err != nil {
			return nil, err
		}
		req.Stock = &stock
	}
	if v := c.FormValue("minStock"); v != "" {
		minStock, err := cast.ToIntE(v)
		if err != nil {
			return nil, err
		}
		req.MinStock = &minStock
	}
	return req, nil
}

func formFile(c *fiber.Ctx, field string) *multipart.FileHeader {
	if !isMultipart(c) {
		return nil
	}
	file, err := c.FormFile(field)
	if err != nil {
		return nil
	}
	return file
}

// GetProducts
// GET /api/products?q=legging&category=tops&sort=price&order=desc
func (h *ProductHandler) GetProducts(c *fiber.Ctx) error {
	products, err := h.service.GetAllProducts(repository.ProductFilter{
		Query:    c.Query("q"),
		Category: c.Query("category"),
		Sort:     c.Query("sort"),
		Order:    c.Query("order"),
	})
	if err != nil {
		return respondError(c, err, "Error fetching products")
	}
	return c.JSON(products)
}

func (h *ProductHandler) GetProduct(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "Invalid product ID")
	}
	product, err := h.service.GetProductByID(id)
	if err != nil {
		return respondError(c, err, "Error fetching product")
	}
	return c.JSON(product)
}

func (h *ProductHandler) GetLowStock(c *fiber.Ctx) error {
	products, err := h.service.GetLowStock()
	if err != nil {
		return respondError(c, err, "Error fetching low stock products")
	}
	return c.JSON(products)
}

// CreateProduct
// POST /api/products (JSON or multipart/form-data)
func (h *ProductHandler) CreateProduct(c *fiber.Ctx) error {
	req, err := parseProduct(c)
	if err != nil {
		return badRequest(c, "Invalid product data")
	}

	product, err := h.service.CreateProduct(c.UserContext(), req, formFile(c, "image"), middleware.Username(c))
	if err != nil {
		return respondError(c, err, "Error creating product")
	}
	return c.Status(fiber.StatusCreated).JSON(product)
}

// UpdateProduct
// PUT /api/products/:id
func (h *ProductHandler) UpdateProduct(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "Invalid product ID")
	}
	req, err := parseProduct(c)
	if err != nil {
		return badRequest(c, "Invalid product data")
	}

	product, err := h.service.UpdateProduct(c.UserContext(), id, req, formFile(c, "image"), middleware.Username(c))
	if err != nil {
		return respondError(c, err, "Error updating product")
	}
	return c.JSON(product)
}

func (h *ProductHandler) DeleteProduct(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "Invalid product ID")
	}
	if err := h.service.DeleteProduct(c.UserContext(), id, middleware.Username(c)); err != nil {
		return respondError(c, err, "Error deleting product")
	}
	return c.SendStatus(fiber.StatusNoContent)
}
