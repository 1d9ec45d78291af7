package handler

import (
	"errors"
	"strconv"

	"bill-mart/internal/repository"
	"bill-mart/internal/service"
	"bill-mart/internal/stock"
	"bill-mart/pkg/logger"
	"bill-mart/pkg/validator"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

func success(c *fiber.Ctx, status int, message string, data any) error {
	body := fiber.Map{"success": true, "message": message}
	if data != nil {
		body["data"] = data
	}
	return c.Status(status).JSON(body)
}

func fail(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"success": false, "error": message})
}

// respondError maps service errors to status codes. Unknown errors are logged
// and answered with a generic message.
func respondError(c *fiber.Ctx, module string, err error) error {
	var verr *validator.ValidationError
	var rejected *service.StockRejectedError
	var insufficient *stock.InsufficientStockError

	switch {
	case errors.As(err, &verr):
		return c.Status(400).JSON(fiber.Map{"success": false, "error": verr.Error(), "fields": verr.Fields})
	case errors.As(err, &rejected):
		return c.Status(422).JSON(fiber.Map{"success": false, "error": rejected.Error(), "lines": rejected.Lines})
	case errors.As(err, &insufficient):
		return c.Status(422).JSON(fiber.Map{"success": false, "error": insufficient.Error(), "available": insufficient.Available})
	case service.IsBadInput(err):
		return fail(c, 400, err.Error())
	case service.IsNotFound(err):
		return fail(c, 404, err.Error())
	case service.IsConflict(err):
		return fail(c, 409, err.Error())
	}

	logger.LogError(module, c.Route().Path, "Unhandled error", c.Method(), err)
	return fail(c, 500, "Internal Server Error")
}

func paramID(c *fiber.Ctx, name string) (uuid.UUID, error) {
	return uuid.Parse(c.Params(name))
}

// listOptions reads limit/offset query params. Ordering is never taken from the client.
func listOptions(c *fiber.Ctx) repository.ListOptions {
	opts := repository.ListOptions{}
	if limit, err := strconv.Atoi(c.Query("limit")); err == nil && limit > 0 {
		opts.Limit = limit
	}
	if offset, err := strconv.Atoi(c.Query("offset")); err == nil && offset > 0 {
		opts.Offset = offset
	}
	return opts
}
