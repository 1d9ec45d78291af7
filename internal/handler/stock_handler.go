package handler

import (
	"fmt"

	"bill-mart/internal/middleware"
	"bill-mart/internal/service"
	"bill-mart/internal/stock"
	"bill-mart/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type StockHandler struct {
	service service.StockService
}

func NewStockHandler(s service.StockService) *StockHandler {
	return &StockHandler{service: s}
}

// CreateTransaction records a manual IN or OUT movement
// POST /api/v1/transactions
func (h *StockHandler) CreateTransaction(c *fiber.Ctx) error {
	var req service.RecordStockRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, 400, "Invalid JSON")
	}
	result, err := h.service.Record(c.UserContext(), &req, middleware.CurrentActor(c))
	if err != nil {
		return respondError(c, "stock", err)
	}
	return success(c, 201, "Transaction recorded", result)
}

func (h *StockHandler) GetTransaction(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return fail(c, 400, "Invalid transaction ID")
	}
	txn, err := h.service.Get(id)
	if err != nil {
		return respondError(c, "stock", err)
	}
	return success(c, 200, "Transaction", txn)
}

func (h *StockHandler) DeleteTransaction(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return fail(c, 400, "Invalid transaction ID")
	}
	if err := h.service.Delete(c.UserContext(), id, middleware.CurrentActor(c)); err != nil {
		return respondError(c, "stock", err)
	}
	return success(c, 200, "Transaction deleted", nil)
}

// GetLevels returns the per-variant stock of one product
// GET /api/v1/products/:id/stock
func (h *StockHandler) GetLevels(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return fail(c, 400, "Invalid product ID")
	}
	levels, err := h.service.Levels(c.UserContext(), id)
	if err != nil {
		return respondError(c, "stock", err)
	}
	return success(c, 200, "Stock levels", levels)
}

// reportQuery reads product_id, type (all, in, out) and search.
func reportQuery(c *fiber.Ctx) (stock.ReportQuery, error) {
	q := stock.ReportQuery{Search: c.Query("search")}
	if raw := c.Query("product_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return q, fmt.Errorf("invalid product_id")
		}
		q.ProductID = &id
	}
	dir, err := stock.ParseDirectionFilter(c.Query("type"))
	if err != nil {
		return q, err
	}
	q.Direction = dir
	return q, nil
}

// GetReport returns the reconciliation report
// GET /api/v1/stock/report
func (h *StockHandler) GetReport(c *fiber.Ctx) error {
	q, err := reportQuery(c)
	if err != nil {
		return fail(c, 400, err.Error())
	}
	report, err := h.service.Report(c.UserContext(), q)
	if err != nil {
		return respondError(c, "stock", err)
	}
	return success(c, 200, "Stock report", report)
}

// ExportReport streams the report as an XLSX workbook
// GET /api/v1/stock/report/export
func (h *StockHandler) ExportReport(c *fiber.Ctx) error {
	q, err := reportQuery(c)
	if err != nil {
		return fail(c, 400, err.Error())
	}
	wb, err := h.service.Export(c.UserContext(), q)
	if err != nil {
		return respondError(c, "stock", err)
	}
	defer func() {
		if err := wb.Close(); err != nil {
			logger.LogError("stock", "ExportReport", "Error closing workbook", nil, err)
		}
	}()

	buf, err := wb.WriteToBuffer()
	if err != nil {
		return respondError(c, "stock", err)
	}
	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Attachment("stock-report.xlsx")
	return c.Send(buf.Bytes())
}
