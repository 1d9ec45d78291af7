package repository

import (
	"context"
	"time"

	"bill-mart/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type StockRepository interface {
	Create(txn *model.StockTransaction) error
	CreateBatch(txns []model.StockTransaction) error
	FindByID(id uuid.UUID) (*model.StockTransaction, error)
	// FindAll reads the ledger to exhaustion in pages of PageSize.
	FindAll(ctx context.Context, filter LedgerFilter) ([]model.StockTransaction, error)
	Delete(id uuid.UUID, deletedBy string) error
	DeleteByProduct(productID uuid.UUID, deletedBy string) error
	GetStockMovement(startDate, endDate time.Time) ([]StockMovementData, error)
	WithTx(tx *gorm.DB) StockRepository
}

// LedgerFilter narrows a ledger read. Nil fields match everything.
type LedgerFilter struct {
	ProductID  *uuid.UUID
	ProductIDs []uuid.UUID
	InvoiceID  *uuid.UUID
}

// StockMovementData is one day of the dashboard chart.
type StockMovementData struct {
	Date     string `json:"date"`
	Inbound  int    `json:"inbound"`
	Outbound int    `json:"outbound"`
}

type stockRepo struct {
	db *gorm.DB
}

func NewStockRepo(db *gorm.DB) StockRepository {
	return &stockRepo{db}
}

func (r *stockRepo) WithTx(tx *gorm.DB) StockRepository {
	return &stockRepo{tx}
}

func (r *stockRepo) Create(txn *model.StockTransaction) error {
	return r.db.Omit("Product").Create(txn).Error
}

func (r *stockRepo) CreateBatch(txns []model.StockTransaction) error {
	if len(txns) == 0 {
		return nil
	}
	return r.db.Omit("Product").Create(&txns).Error
}

func (r *stockRepo) FindByID(id uuid.UUID) (*model.StockTransaction, error) {
	var txn model.StockTransaction
	if err := r.db.Preload("Product").First(&txn, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &txn, nil
}

func (r *stockRepo) FindAll(ctx context.Context, filter LedgerFilter) ([]model.StockTransaction, error) {
	all := make([]model.StockTransaction, 0, PageSize)
	for offset := 0; ; offset += PageSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		q := r.db.WithContext(ctx).Model(&model.StockTransaction{})
		if filter.ProductID != nil {
			q = q.Where("product_id = ?", *filter.ProductID)
		}
		if len(filter.ProductIDs) > 0 {
			q = q.Where("product_id IN ?", filter.ProductIDs)
		}
		if filter.InvoiceID != nil {
			q = q.Where("invoice_id = ?", *filter.InvoiceID)
		}

		var page []model.StockTransaction
		if err := q.Order("created_at ASC, id ASC").Limit(PageSize).Offset(offset).Find(&page).Error; err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < PageSize {
			return all, nil
		}
	}
}

func (r *stockRepo) Delete(id uuid.UUID, deletedBy string) error {
	return softDelete(r.db.Model(&model.StockTransaction{}).Where("id = ?", id), deletedBy).Error
}

func (r *stockRepo) DeleteByProduct(productID uuid.UUID, deletedBy string) error {
	return softDelete(r.db.Model(&model.StockTransaction{}).Where("product_id = ?", productID), deletedBy).Error
}

func (r *stockRepo) GetStockMovement(startDate, endDate time.Time) ([]StockMovementData, error) {
	results := []StockMovementData{}

	rows, err := r.db.Model(&model.StockTransaction{}).
		Select(`
			DATE(transaction_date) as date,
			COALESCE(SUM(CASE WHEN direction = 'IN' THEN quantity ELSE 0 END), 0) as inbound,
			COALESCE(SUM(CASE WHEN direction = 'OUT' THEN quantity ELSE 0 END), 0) as outbound
		`).
		Where("transaction_date BETWEEN ? AND ?", startDate, endDate).
		Group("DATE(transaction_date)").
		Order("date ASC").
		Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var data StockMovementData
		if err := rows.Scan(&data.Date, &data.Inbound, &data.Outbound); err != nil {
			return nil, err
		}
		results = append(results, data)
	}
	return results, rows.Err()
}
