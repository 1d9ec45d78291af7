package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Category struct {
	BaseModel
	Name string `gorm:"type:varchar(255);not null" json:"name" validate:"required,max=255"`
}

// Product has no stock column: stock is always derived from the StockTransaction ledger.
type Product struct {
	BaseModel
	Name       string          `gorm:"type:varchar(255);not null" json:"name" validate:"required,max=255"`
	Price      decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"price"`
	CategoryID uuid.UUID       `gorm:"type:uuid;not null;index" json:"category_id" validate:"uuid_required"`
	Category   *Category       `json:"category,omitempty" validate:"-"`

	// CustomLabels are the variant dimensions (e.g. Size, Color). Fixed at creation.
	CustomLabels Labels `gorm:"type:text" json:"custom_labels"`
}

// TracksVariants reports whether stock is bucketed per variant.
func (p *Product) TracksVariants() bool {
	return len(p.CustomLabels) > 0
}
