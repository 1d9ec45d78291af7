package repository

import (
	"bill-mart/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type InvoiceRepository interface {
	Create(invoice *model.Invoice) error
	FindAll(opts ListOptions) ([]model.Invoice, error)
	FindByID(id uuid.UUID) (*model.Invoice, error)
	// ReplaceItems swaps the line items and header columns of an existing invoice.
	ReplaceItems(invoice *model.Invoice) error
	Delete(id uuid.UUID, deletedBy string) error
	CountItemsForProduct(productID uuid.UUID) (int64, error)
	WithTx(tx *gorm.DB) InvoiceRepository
}

type invoiceRepo struct {
	db *gorm.DB
}

func NewInvoiceRepo(db *gorm.DB) InvoiceRepository {
	return &invoiceRepo{db}
}

func (r *invoiceRepo) WithTx(tx *gorm.DB) InvoiceRepository {
	return &invoiceRepo{tx}
}

// Create inserts the invoice and its items. Item.Product must be left nil.
func (r *invoiceRepo) Create(invoice *model.Invoice) error {
	return r.db.Omit("Customer").Create(invoice).Error
}

func (r *invoiceRepo) FindAll(opts ListOptions) ([]model.Invoice, error) {
	var invoices []model.Invoice
	err := opts.apply(r.db.Preload("Customer").Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	}), "created_at DESC").Find(&invoices).Error
	return invoices, err
}

func (r *invoiceRepo) FindByID(id uuid.UUID) (*model.Invoice, error) {
	var invoice model.Invoice
	err := r.db.
		Preload("Customer").
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Items.Product").
		First(&invoice, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *invoiceRepo) ReplaceItems(invoice *model.Invoice) error {
	if err := r.db.Where("invoice_id = ?", invoice.ID).Delete(&model.InvoiceItem{}).Error; err != nil {
		return err
	}
	for i := range invoice.Items {
		invoice.Items[i].ID = uuid.Nil
		invoice.Items[i].InvoiceID = invoice.ID
	}
	if len(invoice.Items) > 0 {
		if err := r.db.Create(&invoice.Items).Error; err != nil {
			return err
		}
	}
	return r.db.Model(invoice).
		Select("customer_id", "total", "payment_method", "updated_by", "updated_at").
		Updates(invoice).Error
}

func (r *invoiceRepo) Delete(id uuid.UUID, deletedBy string) error {
	if err := softDelete(r.db.Model(&model.InvoiceItem{}).Where("invoice_id = ?", id), deletedBy).Error; err != nil {
		return err
	}
	return softDelete(r.db.Model(&model.Invoice{}).Where("id = ?", id), deletedBy).Error
}

// CountItemsForProduct counts live invoice lines that reference productID.
func (r *invoiceRepo) CountItemsForProduct(productID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.Model(&model.InvoiceItem{}).Where("product_id = ?", productID).Count(&count).Error
	return count, err
}
