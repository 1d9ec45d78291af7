package handler

import (
	"bill-mart/internal/middleware"
	"bill-mart/internal/model"

	"github.com/gofiber/fiber/v2"
)

// Handlers groups every HTTP handler mounted by Register.
type Handlers struct {
	Auth      *AuthHandler
	Catalog   *CatalogHandler
	Customer  *CustomerHandler
	Stock     *StockHandler
	Invoice   *InvoiceHandler
	OTP       *OTPHandler
	Dashboard *DashboardHandler
	Role      *RoleHandler
	Webhook   *WebhookHandler
}

// Register mounts the REST API under /api/v1 and the bot webhook under /api/telegram.
// requireAuth guards everything except login, token validation and the webhook.
func Register(app *fiber.App, h Handlers, requireAuth fiber.Handler) {
	app.Post("/api/telegram", h.Webhook.Telegram)

	api := app.Group("/api/v1")

	// ============ PUBLIC ROUTES ============
	auth := api.Group("/auth")
	auth.Post("/login", h.Auth.Login)
	auth.Post("/reset-password", h.Auth.ResetPassword)
	auth.Post("/validate-token", h.Auth.ValidateToken)
	auth.Post("/logout", requireAuth, h.Auth.Logout)

	// ============ PROTECTED ROUTES ============
	protected := api.Group("", requireAuth)

	protected.Get("/dashboard/stats", middleware.RequirePrivilege(model.PrivDashboardView), h.Dashboard.GetDashboardStats)
	protected.Get("/dashboard/stock-movement", middleware.RequirePrivilege(model.PrivDashboardView), h.Dashboard.GetStockMovement)

	protected.Get("/categories", h.Catalog.GetCategories)
	protected.Post("/categories", middleware.RequirePrivilege(model.PrivCategoryManage), h.Catalog.CreateCategory)
	protected.Put("/categories/:id", middleware.RequirePrivilege(model.PrivCategoryManage), h.Catalog.UpdateCategory)
	protected.Delete("/categories/:id", middleware.RequirePrivilege(model.PrivCategoryManage), h.Catalog.DeleteCategory)

	protected.Get("/products", h.Catalog.GetProducts)
	protected.Get("/products/:id", h.Catalog.GetProduct)
	protected.Get("/products/:id/stock", middleware.RequirePrivilege(model.PrivStockView), h.Stock.GetLevels)
	protected.Post("/products", middleware.RequirePrivilege(model.PrivProductCreate), h.Catalog.CreateProduct)
	protected.Put("/products/:id", middleware.RequirePrivilege(model.PrivProductUpdate), h.Catalog.UpdateProduct)
	protected.Delete("/products/:id", middleware.RequirePrivilege(model.PrivProductDelete), h.Catalog.DeleteProduct)

	customerManage := middleware.RequirePrivilege(model.PrivCustomerManage)
	protected.Get("/customers", customerManage, h.Customer.GetCustomers)
	protected.Get("/customers/:id", customerManage, h.Customer.GetCustomer)
	protected.Post("/customers", customerManage, h.Customer.CreateCustomer)
	protected.Put("/customers/:id", customerManage, h.Customer.UpdateCustomer)
	protected.Delete("/customers/:id", customerManage, h.Customer.DeleteCustomer)

	invoiceView := middleware.RequireAnyPrivilege(model.PrivInvoiceCreate, model.PrivInvoiceUpdate, model.PrivInvoiceDelete)
	protected.Get("/invoices", invoiceView, h.Invoice.GetInvoices)
	protected.Get("/invoices/:id", invoiceView, h.Invoice.GetInvoice)
	protected.Post("/invoices", middleware.RequirePrivilege(model.PrivInvoiceCreate), h.Invoice.CreateInvoice)
	protected.Put("/invoices/:id", middleware.RequirePrivilege(model.PrivInvoiceUpdate), h.Invoice.UpdateInvoice)
	protected.Delete("/invoices/:id", middleware.RequirePrivilege(model.PrivInvoiceDelete), h.Invoice.DeleteInvoice)

	protected.Post("/otp/send", middleware.RequirePrivilege(model.PrivInvoiceCreate), h.OTP.SendOTP)
	protected.Post("/otp/verify", middleware.RequirePrivilege(model.PrivInvoiceCreate), h.OTP.VerifyOTP)

	protected.Get("/stock/report", middleware.RequirePrivilege(model.PrivStockView), h.Stock.GetReport)
	protected.Get("/stock/report/export", middleware.RequirePrivilege(model.PrivStockView), h.Stock.ExportReport)
	protected.Get("/transactions/:id", middleware.RequirePrivilege(model.PrivStockView), h.Stock.GetTransaction)
	protected.Post("/transactions", middleware.RequirePrivilege(model.PrivStockCreate), h.Stock.CreateTransaction)
	protected.Delete("/transactions/:id", middleware.RequirePrivilege(model.PrivStockDelete), h.Stock.DeleteTransaction)

	protected.Get("/roles", h.Role.GetRoles)
	protected.Get("/privileges", h.Role.GetPrivileges)
}
