package handler

import (
	"bill-mart/internal/middleware"
	"bill-mart/internal/service"

	"github.com/gofiber/fiber/v2"
)

type CatalogHandler struct {
	service service.CatalogService
}

func NewCatalogHandler(s service.CatalogService) *CatalogHandler {
	return &CatalogHandler{service: s}
}

func (h *CatalogHandler) GetCategories(c *fiber.Ctx) error {
	categories, err := h.service.GetCategories()
	if err != nil {
		return respondError(c, "catalog", err)
	}
	return success(c, 200, "Categories", categories)
}

func (h *CatalogHandler) CreateCategory(c *fiber.Ctx) error {
	var req service.CategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, 400, "Invalid JSON")
	}
	category, err := h.service.CreateCategory(&req, middleware.CurrentActor(c))
	if err != nil {
		return respondError(c, "catalog", err)
	}
	return success(c, 201, "Category created", category)
}

func (h *CatalogHandler) UpdateCategory(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return fail(c, 400, "Invalid category ID")
	}
	var req service.CategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, 400, "Invalid JSON")
	}
	category, err := h.service.UpdateCategory(id, &req, middleware.CurrentActor(c))
	if err != nil {
		return respondError(c, "catalog", err)
	}
	return success(c, 200, "Category updated", category)
}

func (h *CatalogHandler) DeleteCategory(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return fail(c, 400, "Invalid category ID")
	}
	if err := h.service.DeleteCategory(id, middleware.CurrentActor(c)); err != nil {
		return respondError(c, "catalog", err)
	}
	return success(c, 200, "Category deleted", nil)
}

func (h *CatalogHandler) GetProducts(c *fiber.Ctx) error {
	products, err := h.service.GetProducts(c.UserContext(), listOptions(c))
	if err != nil {
		return respondError(c, "catalog", err)
	}
	return success(c, 200, "Products", products)
}

func (h *CatalogHandler) GetProduct(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return fail(c, 400, "Invalid product ID")
	}
	product, err := h.service.GetProduct(c.UserContext(), id)
	if err != nil {
		return respondError(c, "catalog", err)
	}
	return success(c, 200, "Product", product)
}

func (h *CatalogHandler) CreateProduct(c *fiber.Ctx) error {
	var req service.CreateProductRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, 400, "Invalid JSON")
	}
	product, err := h.service.CreateProduct(c.UserContext(), &req, middleware.CurrentActor(c))
	if err != nil {
		return respondError(c, "catalog", err)
	}
	return success(c, 201, "Product created", product)
}

func (h *CatalogHandler) UpdateProduct(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return fail(c, 400, "Invalid product ID")
	}
	var req service.UpdateProductRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, 400, "Invalid JSON")
	}
	product, err := h.service.UpdateProduct(c.UserContext(), id, &req, middleware.CurrentActor(c))
	if err != nil {
		return respondError(c, "catalog", err)
	}
	return success(c, 200, "Product updated", product)
}

func (h *CatalogHandler) DeleteProduct(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return fail(c, 400, "Invalid product ID")
	}
	if err := h.service.DeleteProduct(c.UserContext(), id, middleware.CurrentActor(c)); err != nil {
		return respondError(c, "catalog", err)
	}
	return success(c, 200, "Product deleted", nil)
}
