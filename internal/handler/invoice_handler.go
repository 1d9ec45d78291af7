package handler

import (
	"bill-mart/internal/middleware"
	"bill-mart/internal/service"

	"github.com/gofiber/fiber/v2"
)

type InvoiceHandler struct {
	service service.InvoiceService
}

func NewInvoiceHandler(s service.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{service: s}
}

func (h *InvoiceHandler) GetInvoices(c *fiber.Ctx) error {
	invoices, err := h.service.GetAll(listOptions(c))
	if err != nil {
		return respondError(c, "invoice", err)
	}
	return success(c, 200, "Invoices", invoices)
}

func (h *InvoiceHandler) GetInvoice(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return fail(c, 400, "Invalid invoice ID")
	}
	invoice, err := h.service.Get(id)
	if err != nil {
		return respondError(c, "invoice", err)
	}
	return success(c, 200, "Invoice", invoice)
}

// CreateInvoice writes the invoice and its stock movements, or nothing
// POST /api/v1/invoices
func (h *InvoiceHandler) CreateInvoice(c *fiber.Ctx) error {
	var req service.InvoiceRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, 400, "Invalid JSON")
	}
	result, err := h.service.Create(c.UserContext(), &req, middleware.CurrentActor(c))
	if err != nil {
		return respondError(c, "invoice", err)
	}
	return success(c, 201, "Invoice created", result)
}

func (h *InvoiceHandler) UpdateInvoice(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return fail(c, 400, "Invalid invoice ID")
	}
	var req service.InvoiceRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, 400, "Invalid JSON")
	}
	result, err := h.service.Update(c.UserContext(), id, &req, middleware.CurrentActor(c))
	if err != nil {
		return respondError(c, "invoice", err)
	}
	return success(c, 200, "Invoice updated", result)
}

// DeleteInvoice removes an invoice; ?restock=true returns its items to stock
// DELETE /api/v1/invoices/:id
func (h *InvoiceHandler) DeleteInvoice(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return fail(c, 400, "Invalid invoice ID")
	}
	restock := c.QueryBool("restock", false)
	if err := h.service.Delete(c.UserContext(), id, restock, middleware.CurrentActor(c)); err != nil {
		return respondError(c, "invoice", err)
	}
	return success(c, 200, "Invoice deleted", fiber.Map{"restocked": restock})
}
