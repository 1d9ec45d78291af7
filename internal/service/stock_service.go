package service

import (
	"context"
	"fmt"
	"time"

	"bill-mart/internal/lock"
	"bill-mart/internal/model"
	"bill-mart/internal/repository"
	"bill-mart/internal/stock"
	"bill-mart/internal/ws"
	"bill-mart/pkg/cache"
	"bill-mart/pkg/logger"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"golang.org/x/sync/singleflight"
)

type RecordStockRequest struct {
	ProductID       uuid.UUID        `json:"product_id" validate:"uuid_required"`
	Direction       model.Direction  `json:"type" validate:"required,oneof=IN OUT"`
	Quantity        int              `json:"quantity" validate:"required,gt=0"`
	TransactionDate *time.Time       `json:"transaction_date"`
	Remarks         string           `json:"remarks" validate:"max=500"`
	Variant         model.VariantKey `json:"custom_fields" validate:"dive"`
}

// ProductStock is the derived stock of one product.
type ProductStock struct {
	ProductID    uuid.UUID      `json:"product_id"`
	ProductName  string         `json:"product_name"`
	CustomLabels model.Labels   `json:"custom_labels"`
	Variants     []stock.Bucket `json:"variants"`
	Total        int            `json:"total"`
}

// RecordResult is a stored ledger entry plus the level of its bucket afterwards.
type RecordResult struct {
	Transaction *model.StockTransaction `json:"transaction"`
	Level       int                     `json:"level"`
	Alert       string                  `json:"alert,omitempty"`
}

type StockService interface {
	Record(ctx context.Context, req *RecordStockRequest, actor Actor) (*RecordResult, error)
	Delete(ctx context.Context, id uuid.UUID, actor Actor) error
	Get(id uuid.UUID) (*model.StockTransaction, error)
	Levels(ctx context.Context, productID uuid.UUID) (*ProductStock, error)
	Report(ctx context.Context, q stock.ReportQuery) (*stock.Report, error)
	Export(ctx context.Context, q stock.ReportQuery) (*excelize.File, error)
	// Invalidate drops cached levels after a ledger change made elsewhere.
	Invalidate(ctx context.Context, productIDs ...uuid.UUID)
}

type stockService struct {
	stockRepo   repository.StockRepository
	productRepo repository.ProductRepository
	locker      lock.Locker
	cache       *cache.Cache
	alerts      AlertService
	wsHub       *ws.Hub
	now         Clock
	sfGroup     singleflight.Group
}

func NewStockService(stockRepo repository.StockRepository, productRepo repository.ProductRepository, locker lock.Locker,
	c *cache.Cache, alerts AlertService, hub *ws.Hub, clock Clock) StockService {
	return &stockService{
		stockRepo:   stockRepo,
		productRepo: productRepo,
		locker:      locker,
		cache:       c,
		alerts:      alerts,
		wsHub:       hub,
		now:         defaultClock(clock),
	}
}

func levelsCacheKey(productID uuid.UUID) string {
	return "levels:" + productID.String()
}

func (s *stockService) Record(ctx context.Context, req *RecordStockRequest, actor Actor) (*RecordResult, error) {
	// 1. Validate request and product
	if err := validate(req); err != nil {
		return nil, err
	}
	product, err := s.productRepo.FindByID(req.ProductID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	key, err := resolveVariant(product, req.Variant)
	if err != nil {
		return nil, err
	}

	// 2. Serialize with invoices and other entries of this product
	unlock, err := lockProducts(ctx, s.locker, []uuid.UUID{product.ID})
	if err != nil {
		return nil, err
	}
	defer unlock()

	ledger, err := s.stockRepo.FindAll(ctx, repository.LedgerFilter{ProductID: &product.ID})
	if err != nil {
		return nil, err
	}
	buckets := stock.Fold(ledger)

	// 3. Guard removals
	if req.Direction == model.DirectionOut {
		if err := stock.Check(buckets, key, req.Quantity); err != nil {
			return nil, err
		}
	}

	txn := &model.StockTransaction{
		ProductID:       product.ID,
		Direction:       req.Direction,
		Quantity:        req.Quantity,
		TransactionDate: s.now(),
		Remarks:         req.Remarks,
		Variant:         key,
	}
	if req.TransactionDate != nil {
		txn.TransactionDate = *req.TransactionDate
	}
	txn.CreatedBy = actor.ID
	txn.UpdatedBy = actor.ID

	// 4. Append
	if err := s.stockRepo.Create(txn); err != nil {
		return nil, err
	}
	level := buckets.Apply(txn.Direction, key, txn.Quantity)
	s.Invalidate(ctx, product.ID)

	result := &RecordResult{Transaction: txn, Level: level}
	if txn.Direction == model.DirectionOut {
		if kind := s.alerts.StockLevel(ctx, product, key, level); kind != stock.AlertNone {
			result.Alert = kind.String()
		}
	}

	// 5. Broadcast
	s.wsHub.Publish(ws.Event{
		Type:   ws.TypeStockUpdate,
		Action: "transaction_created",
		Data: map[string]any{
			"transaction": txn,
			"product_id":  product.ID,
			"level":       level,
		},
		User:    actor.ws(),
		Message: fmt.Sprintf("%s recorded %s %d of '%s'", actor.Name, txn.Direction, txn.Quantity, product.Name),
	})

	return result, nil
}

// Delete removes a ledger entry. Entries written by an invoice are removed the
// same way; the invoice itself is left untouched.
func (s *stockService) Delete(ctx context.Context, id uuid.UUID, actor Actor) error {
	txn, err := s.stockRepo.FindByID(id)
	if err != nil {
		if repository.IsNotFound(err) {
			return ErrTransactionNotFound
		}
		return err
	}

	unlock, err := lockProducts(ctx, s.locker, []uuid.UUID{txn.ProductID})
	if err != nil {
		return err
	}
	defer unlock()

	if err := s.stockRepo.Delete(id, actor.ID); err != nil {
		return err
	}
	s.Invalidate(ctx, txn.ProductID)

	s.wsHub.Publish(ws.Event{
		Type:   ws.TypeStockUpdate,
		Action: "transaction_deleted",
		Data:   map[string]any{"id": id, "product_id": txn.ProductID},
		User:   actor.ws(),
	})
	return nil
}

func (s *stockService) Get(id uuid.UUID) (*model.StockTransaction, error) {
	txn, err := s.stockRepo.FindByID(id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	return txn, nil
}

// Levels returns the folded stock of a product using cache-aside. A miss folds and
// fills the cache under the product lock, so a writer's later invalidation always
// lands after the fill.
func (s *stockService) Levels(ctx context.Context, productID uuid.UUID) (*ProductStock, error) {
	cacheKey := levelsCacheKey(productID)

	// 1. Check cache first
	var cached ProductStock
	found, err := s.cache.Get(ctx, cacheKey, &cached)
	if err != nil {
		logger.LogError("stock", "Levels", "Cache error", productID, err)
	}
	if found {
		return &cached, nil
	}

	// 2. Cache miss, fold the ledger once for concurrent callers
	val, err, _ := s.sfGroup.Do(productID.String(), func() (any, error) {
		product, err := s.productRepo.FindByID(productID)
		if err != nil {
			if repository.IsNotFound(err) {
				return nil, ErrProductNotFound
			}
			return nil, err
		}

		unlock, err := lockProducts(ctx, s.locker, []uuid.UUID{productID})
		if err != nil {
			return nil, err
		}
		defer unlock()

		ledger, err := s.stockRepo.FindAll(ctx, repository.LedgerFilter{ProductID: &productID})
		if err != nil {
			return nil, err
		}
		ps := newProductStock(product, stock.Fold(ledger))

		// 3. Populate cache
		if err := s.cache.Set(ctx, cacheKey, ps); err != nil {
			logger.LogError("stock", "Levels", "Failed to cache levels", productID, err)
		}
		return ps, nil
	})
	if err != nil {
		return nil, err
	}
	return val.(*ProductStock), nil
}

func newProductStock(p *model.Product, b stock.Buckets) *ProductStock {
	labels := p.CustomLabels
	if labels == nil {
		labels = model.Labels{}
	}
	return &ProductStock{
		ProductID:    p.ID,
		ProductName:  p.Name,
		CustomLabels: labels,
		Variants:     b.Sorted(),
		Total:        b.Total(),
	}
}

func (s *stockService) Invalidate(ctx context.Context, productIDs ...uuid.UUID) {
	keys := make([]string, len(productIDs))
	for i, id := range productIDs {
		keys[i] = levelsCacheKey(id)
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		logger.LogError("stock", "Invalidate", "Failed to invalidate cache", productIDs, err)
	}
}

func (s *stockService) Report(ctx context.Context, q stock.ReportQuery) (*stock.Report, error) {
	ledger, err := s.stockRepo.FindAll(ctx, repository.LedgerFilter{ProductID: q.ProductID})
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0)
	seen := map[uuid.UUID]bool{}
	for i := range ledger {
		if !seen[ledger[i].ProductID] {
			seen[ledger[i].ProductID] = true
			ids = append(ids, ledger[i].ProductID)
		}
	}
	products, err := s.productRepo.FindByIDs(ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]model.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	return stock.BuildReport(ledger, byID, q), nil
}

const (
	reportSheet  = "Stock Report"
	summarySheet = "Summary"
)

// Export renders the report as a workbook with the row listing and a per-variant summary.
func (s *stockService) Export(ctx context.Context, q stock.ReportQuery) (*excelize.File, error) {
	report, err := s.Report(ctx, q)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", reportSheet); err != nil {
		return nil, err
	}

	headers := report.Headers()
	if err := writeRow(f, reportSheet, 1, toAny(headers)); err != nil {
		return nil, err
	}
	qtyCol := len(report.Columns) + 1
	for i, row := range report.Rows {
		cells := toAny(row.Cells(report.Columns))
		cells[qtyCol] = row.Quantity
		if err := writeRow(f, reportSheet, i+2, cells); err != nil {
			return nil, err
		}
	}

	if _, err := f.NewSheet(summarySheet); err != nil {
		return nil, err
	}
	if err := writeRow(f, summarySheet, 1, []any{"Product", "Variant", "In", "Out", "Total"}); err != nil {
		return nil, err
	}
	line := 2
	for _, g := range report.Groups {
		for _, b := range g.Buckets {
			if err := writeRow(f, summarySheet, line, []any{g.ProductName, b.Key.Describe(), b.In, b.Out, b.Net}); err != nil {
				return nil, err
			}
			line++
		}
	}
	if err := writeRow(f, summarySheet, line+1, []any{"Total In", report.TotalIn}); err != nil {
		return nil, err
	}
	if err := writeRow(f, summarySheet, line+2, []any{"Total Out", report.TotalOut}); err != nil {
		return nil, err
	}
	return f, nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
