package model

import (
	"time"

	"github.com/google/uuid"
)

type Direction string

const (
	DirectionIn  Direction = "IN"
	DirectionOut Direction = "OUT"
)

// StockTransaction is one ledger entry. Entries are never updated after creation.
type StockTransaction struct {
	BaseModel
	ProductID       uuid.UUID  `gorm:"type:uuid;not null;index" json:"product_id"`
	Product         *Product   `json:"product,omitempty"`
	Direction       Direction  `gorm:"type:varchar(10);not null" json:"type"`
	Quantity        int        `gorm:"not null" json:"quantity"`
	TransactionDate time.Time  `gorm:"not null;index" json:"transaction_date"`
	Remarks         string     `gorm:"type:varchar(500)" json:"remarks"`
	Variant         VariantKey `gorm:"type:text" json:"custom_fields"`

	// InvoiceID is set for entries written by the billing flow
	InvoiceID *uuid.UUID `gorm:"type:uuid;index" json:"invoice_id,omitempty"`
}

// Signed returns +Quantity for IN and -Quantity for OUT.
func (t *StockTransaction) Signed() int {
	if t.Direction == DirectionOut {
		return -t.Quantity
	}
	return t.Quantity
}
