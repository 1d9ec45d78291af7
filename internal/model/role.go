package model

type Role struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	Code        string      `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"`
	Name        string      `gorm:"type:varchar(100)" json:"name"`
	Description string      `gorm:"type:text" json:"description"`
	Privileges  []Privilege `gorm:"many2many:role_privileges;" json:"privileges,omitempty"`
}

const (
	RoleOwner   = "OWNER"
	RoleCashier = "CASHIER"
)

var DefaultRoles = []Role{
	{Code: RoleOwner, Name: "Store Owner", Description: "Full access to catalog, billing and stock"},
	{Code: RoleCashier, Name: "Cashier", Description: "Billing and customers, read-only stock"},
}

// CashierPrivileges is the subset granted to RoleCashier.
var CashierPrivileges = []string{
	PrivCustomerManage,
	PrivInvoiceCreate,
	PrivStockView,
	PrivDashboardView,
}
