package handler

import (
	"bill-mart/internal/middleware"
	"bill-mart/internal/service"

	"github.com/gofiber/fiber/v2"
)

type CustomerHandler struct {
	service service.CustomerService
}

func NewCustomerHandler(s service.CustomerService) *CustomerHandler {
	return &CustomerHandler{service: s}
}

func (h *CustomerHandler) GetCustomers(c *fiber.Ctx) error {
	customers, err := h.service.GetAll(listOptions(c))
	if err != nil {
		return respondError(c, "customer", err)
	}
	return success(c, 200, "Customers", customers)
}

func (h *CustomerHandler) GetCustomer(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return fail(c, 400, "Invalid customer ID")
	}
	customer, err := h.service.Get(id)
	if err != nil {
		return respondError(c, "customer", err)
	}
	return success(c, 200, "Customer", customer)
}

func (h *CustomerHandler) CreateCustomer(c *fiber.Ctx) error {
	var req service.CustomerRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, 400, "Invalid JSON")
	}
	customer, err := h.service.Create(&req, middleware.CurrentActor(c))
	if err != nil {
		return respondError(c, "customer", err)
	}
	return success(c, 201, "Customer created", customer)
}

func (h *CustomerHandler) UpdateCustomer(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return fail(c, 400, "Invalid customer ID")
	}
	var req service.CustomerRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, 400, "Invalid JSON")
	}
	customer, err := h.service.Update(id, &req, middleware.CurrentActor(c))
	if err != nil {
		return respondError(c, "customer", err)
	}
	return success(c, 200, "Customer updated", customer)
}

func (h *CustomerHandler) DeleteCustomer(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return fail(c, 400, "Invalid customer ID")
	}
	if err := h.service.Delete(id, middleware.CurrentActor(c)); err != nil {
		return respondError(c, "customer", err)
	}
	return success(c, 200, "Customer deleted", nil)
}
