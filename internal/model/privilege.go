package model

// Privilege represents a permission that can be assigned to users
type Privilege struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Code string `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"` // e.g., "invoice:create"
	Name string `gorm:"type:varchar(100)" json:"name"`
}

const (
	PrivCategoryManage = "category:manage"
	PrivProductCreate  = "product:create"
	PrivProductUpdate  = "product:update"
	PrivProductDelete  = "product:delete"
	PrivCustomerManage = "customer:manage"
	PrivInvoiceCreate  = "invoice:create"
	PrivInvoiceUpdate  = "invoice:update"
	PrivInvoiceDelete  = "invoice:delete"
	PrivStockView      = "stock:view"
	PrivStockCreate    = "stock:create"
	PrivStockDelete    = "stock:delete"
	PrivDashboardView  = "dashboard:view"
)

var DefaultPrivileges = []Privilege{
	{Code: PrivCategoryManage, Name: "Manage Categories"},
	{Code: PrivProductCreate, Name: "Create Product"},
	{Code: PrivProductUpdate, Name: "Update Product"},
	{Code: PrivProductDelete, Name: "Delete Product"},
	{Code: PrivCustomerManage, Name: "Manage Customers"},
	{Code: PrivInvoiceCreate, Name: "Create Invoice"},
	{Code: PrivInvoiceUpdate, Name: "Update Invoice"},
	{Code: PrivInvoiceDelete, Name: "Delete Invoice"},
	{Code: PrivStockView, Name: "View Stock Report"},
	{Code: PrivStockCreate, Name: "Record Stock Transaction"},
	{Code: PrivStockDelete, Name: "Delete Stock Transaction"},
	{Code: PrivDashboardView, Name: "View Dashboard"},
}
