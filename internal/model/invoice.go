package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	PaymentCash PaymentMethod = "CASH"
	PaymentCard PaymentMethod = "CARD"
	PaymentUPI  PaymentMethod = "UPI"
)

type Customer struct {
	BaseModel
	Name  string `gorm:"type:varchar(255);not null" json:"name"`
	Email string `gorm:"type:varchar(255);index" json:"email"`
	Phone string `gorm:"type:varchar(20)" json:"phone"`
}

type Invoice struct {
	BaseModel
	CustomerID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"customer_id"`
	Customer      *Customer       `json:"customer,omitempty"`
	Items         []InvoiceItem   `gorm:"constraint:OnDelete:CASCADE" json:"items"`
	Total         decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"total"`
	PaymentMethod PaymentMethod   `gorm:"type:varchar(10);not null" json:"payment_method"`
}

// InvoiceItem keeps the unit amount at the time of sale.
type InvoiceItem struct {
	BaseModel
	InvoiceID uuid.UUID       `gorm:"type:uuid;not null;index" json:"invoice_id"`
	Position  int             `gorm:"not null" json:"position"`
	ProductID uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	Product   *Product        `json:"product,omitempty"`
	Variant   VariantKey      `gorm:"type:text" json:"custom_fields"`
	Quantity  int             `gorm:"not null" json:"quantity"`
	Amount    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
}

func (i *InvoiceItem) Subtotal() decimal.Decimal {
	return i.Amount.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// ComputeTotal sums the line subtotals.
func ComputeTotal(items []InvoiceItem) decimal.Decimal {
	total := decimal.Zero
	for i := range items {
		total = total.Add(items[i].Subtotal())
	}
	return total
}
