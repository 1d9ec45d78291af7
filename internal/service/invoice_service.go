package service

import (
	"context"
	"fmt"

	"bill-mart/internal/lock"
	"bill-mart/internal/model"
	"bill-mart/internal/repository"
	"bill-mart/internal/stock"
	"bill-mart/internal/ws"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type InvoiceItemRequest struct {
	ProductID uuid.UUID        `json:"product_id" validate:"uuid_required"`
	Variant   model.VariantKey `json:"custom_fields" validate:"dive"`
	Quantity  int              `json:"quantity" validate:"required,gt=0"`
	// Amount is the unit price; the product price is used when omitted
	Amount *decimal.Decimal `json:"amount"`
}

type InvoiceRequest struct {
	CustomerID    uuid.UUID            `json:"customer_id" validate:"uuid_required"`
	PaymentMethod model.PaymentMethod  `json:"payment_method" validate:"required,oneof=CASH CARD UPI"`
	Items         []InvoiceItemRequest `json:"items" validate:"required,min=1,dive"`
	// Total is optional; when sent it must equal the computed total
	Total *decimal.Decimal `json:"total"`
	OTP   string           `json:"otp"`
}

// ItemResult is the outcome of one line's stock decrement.
type ItemResult struct {
	Line        int              `json:"line"`
	ProductID   uuid.UUID        `json:"product_id"`
	ProductName string           `json:"product_name"`
	Variant     model.VariantKey `json:"custom_fields"`
	Requested   int              `json:"requested"`
	Remaining   int              `json:"remaining"`
	Alert       string           `json:"alert,omitempty"`
}

type InvoiceResult struct {
	Invoice *model.Invoice `json:"invoice"`
	Items   []ItemResult   `json:"items"`
}

type InvoiceService interface {
	Create(ctx context.Context, req *InvoiceRequest, actor Actor) (*InvoiceResult, error)
	Update(ctx context.Context, id uuid.UUID, req *InvoiceRequest, actor Actor) (*InvoiceResult, error)
	// Delete removes the invoice. Its stock comes back only when restock is set.
	Delete(ctx context.Context, id uuid.UUID, restock bool, actor Actor) error
	GetAll(opts repository.ListOptions) ([]model.Invoice, error)
	Get(id uuid.UUID) (*model.Invoice, error)
}

type InvoiceOptions struct {
	RequireOTP bool
	Clock      Clock
}

type invoiceService struct {
	db           *gorm.DB
	invoiceRepo  repository.InvoiceRepository
	productRepo  repository.ProductRepository
	customerRepo repository.CustomerRepository
	stockRepo    repository.StockRepository
	stock        StockService
	otp          OTPService
	alerts       AlertService
	locker       lock.Locker
	wsHub        *ws.Hub
	requireOTP   bool
	now          Clock
}

func NewInvoiceService(db *gorm.DB, invoiceRepo repository.InvoiceRepository, productRepo repository.ProductRepository,
	customerRepo repository.CustomerRepository, stockRepo repository.StockRepository, stockService StockService,
	otp OTPService, alerts AlertService, locker lock.Locker, hub *ws.Hub, opts InvoiceOptions) InvoiceService {
	return &invoiceService{
		db:           db,
		invoiceRepo:  invoiceRepo,
		productRepo:  productRepo,
		customerRepo: customerRepo,
		stockRepo:    stockRepo,
		stock:        stockService,
		otp:          otp,
		alerts:       alerts,
		locker:       locker,
		wsHub:        hub,
		requireOTP:   opts.RequireOTP,
		now:          defaultClock(opts.Clock),
	}
}

// draft is a validated request ready to be guarded and written.
type draft struct {
	customer *model.Customer
	products map[uuid.UUID]*model.Product
	items    []model.InvoiceItem
	total    decimal.Decimal
}

func (s *invoiceService) prepare(req *InvoiceRequest) (*draft, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	customer, err := s.customerRepo.FindByID(req.CustomerID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrCustomerNotFound
		}
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(req.Items))
	for _, it := range req.Items {
		ids = append(ids, it.ProductID)
	}
	found, err := s.productRepo.FindByIDs(uniqueIDs(ids))
	if err != nil {
		return nil, err
	}
	products := make(map[uuid.UUID]*model.Product, len(found))
	for i := range found {
		products[found[i].ID] = &found[i]
	}

	d := &draft{customer: customer, products: products, items: make([]model.InvoiceItem, 0, len(req.Items))}
	for i, it := range req.Items {
		p, ok := products[it.ProductID]
		if !ok {
			return nil, fmt.Errorf("line %d: %w", i+1, ErrProductNotFound)
		}
		key, err := resolveVariant(p, it.Variant)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		amount := p.Price
		if it.Amount != nil {
			amount = *it.Amount
		}
		if amount.IsNegative() {
			return nil, fmt.Errorf("line %d: %w", i+1, ErrNegativeAmount)
		}
		d.items = append(d.items, model.InvoiceItem{
			Position:  i + 1,
			ProductID: p.ID,
			Variant:   key,
			Quantity:  it.Quantity,
			Amount:    amount,
		})
	}

	d.total = model.ComputeTotal(d.items)
	if req.Total != nil && !req.Total.Equal(d.total) {
		return nil, ErrTotalMismatch
	}
	return d, nil
}

// guard runs the stock guard over every line on a copy of levels; levels is not changed.
// Lines hitting the same bucket accumulate. All failing lines are reported.
func (d *draft) guard(levels map[uuid.UUID]stock.Buckets) ([]ItemResult, error) {
	results := make([]ItemResult, 0, len(d.items))
	var rejected []LineRejection

	work := make(map[uuid.UUID]stock.Buckets, len(levels))
	for _, it := range d.items {
		p := d.products[it.ProductID]
		b, ok := work[it.ProductID]
		if !ok {
			b = levels[it.ProductID].Clone()
			work[it.ProductID] = b
		}
		remaining, err := stock.Reserve(b, it.Variant, it.Quantity)
		if err != nil {
			rejected = append(rejected, LineRejection{
				Line:        it.Position,
				ProductID:   p.ID,
				ProductName: p.Name,
				Variant:     it.Variant,
				Requested:   it.Quantity,
				Available:   remaining,
			})
			continue
		}
		results = append(results, ItemResult{
			Line:        it.Position,
			ProductID:   p.ID,
			ProductName: p.Name,
			Variant:     it.Variant,
			Requested:   it.Quantity,
			Remaining:   remaining,
		})
	}

	if len(rejected) > 0 {
		return nil, &StockRejectedError{Lines: rejected}
	}
	return results, nil
}

func (s *invoiceService) foldLedger(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]stock.Buckets, error) {
	ledger, err := s.stockRepo.FindAll(ctx, repository.LedgerFilter{ProductIDs: ids})
	if err != nil {
		return nil, err
	}
	return stock.FoldByProduct(ledger), nil
}

func (s *invoiceService) movements(invoiceID uuid.UUID, items []model.InvoiceItem, dir model.Direction, remarks string, actor Actor) []model.StockTransaction {
	now := s.now()
	out := make([]model.StockTransaction, 0, len(items))
	for _, it := range items {
		id := invoiceID
		txn := model.StockTransaction{
			ProductID:       it.ProductID,
			Direction:       dir,
			Quantity:        it.Quantity,
			TransactionDate: now,
			Remarks:         remarks,
			Variant:         it.Variant,
			InvoiceID:       &id,
		}
		txn.CreatedBy = actor.ID
		txn.UpdatedBy = actor.ID
		out = append(out, txn)
	}
	return out
}

func (s *invoiceService) Create(ctx context.Context, req *InvoiceRequest, actor Actor) (*InvoiceResult, error) {
	// 1. Validate request, customer, products and variants
	d, err := s.prepare(req)
	if err != nil {
		return nil, err
	}
	ids := d.productIDs()

	// 2. Lock every product on the invoice
	unlock, err := lockProducts(ctx, s.locker, ids)
	if err != nil {
		return nil, err
	}
	defer unlock()

	// 3. Guard against the current ledger
	levels, err := s.foldLedger(ctx, ids)
	if err != nil {
		return nil, err
	}
	results, err := d.guard(levels)
	if err != nil {
		return nil, err
	}

	// 4. OTP gate
	if s.requireOTP {
		if d.customer.Email == "" || req.OTP == "" {
			return nil, ErrOTPRequired
		}
		if err := s.otp.Redeem(ctx, d.customer.Email, req.OTP); err != nil {
			return nil, err
		}
	}

	// 5. Invoice and ledger entries are written together or not at all
	invoice := &model.Invoice{
		CustomerID:    d.customer.ID,
		Items:         d.items,
		Total:         d.total,
		PaymentMethod: req.PaymentMethod,
	}
	invoice.ID = uuid.New()
	invoice.CreatedBy = actor.ID
	invoice.UpdatedBy = actor.ID
	for i := range invoice.Items {
		invoice.Items[i].CreatedBy = actor.ID
		invoice.Items[i].UpdatedBy = actor.ID
	}
	outs := s.movements(invoice.ID, d.items, model.DirectionOut, "Invoice "+invoice.ID.String(), actor)

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.invoiceRepo.WithTx(tx).Create(invoice); err != nil {
			return err
		}
		return s.stockRepo.WithTx(tx).CreateBatch(outs)
	})
	if err != nil {
		return nil, err
	}
	unlock()

	// 6. Side effects after commit
	invoice.Customer = d.customer
	s.afterWrite(ctx, d, results, invoice, "invoice_created", actor)
	s.alerts.InvoiceCreated(ctx, invoice, d.customer)

	return &InvoiceResult{Invoice: invoice, Items: results}, nil
}

// Update reverses what the invoice still holds out of stock with compensating IN
// entries, then guards and writes the new lines. The invoice lock serializes it with
// other updates and deletes of the same invoice; product locks cover the stock.
func (s *invoiceService) Update(ctx context.Context, id uuid.UUID, req *InvoiceRequest, actor Actor) (*InvoiceResult, error) {
	// 1. Validate the new lines
	d, err := s.prepare(req)
	if err != nil {
		return nil, err
	}

	// 2. Read the invoice under its own lock
	unlockInvoice, err := lockInvoice(ctx, s.locker, id)
	if err != nil {
		return nil, err
	}
	defer unlockInvoice()

	existing, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	oldIDs, err := s.heldProducts(ctx, existing)
	if err != nil {
		return nil, err
	}
	ids := uniqueIDs(append(d.productIDs(), oldIDs...))

	// 3. Lock every product, old and new
	unlock, err := lockProducts(ctx, s.locker, ids)
	if err != nil {
		return nil, err
	}
	defer unlock()

	// 4. Reverse the linked entries, then guard the new lines
	reversal, err := s.reversal(ctx, id, "Invoice "+id.String()+" reversal", actor)
	if err != nil {
		return nil, err
	}
	levels, err := s.foldLedger(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range reversal {
		r := &reversal[i]
		b, ok := levels[r.ProductID]
		if !ok {
			b = stock.Buckets{}
			levels[r.ProductID] = b
		}
		b.Apply(r.Direction, r.Variant, r.Quantity)
	}
	results, err := d.guard(levels)
	if err != nil {
		return nil, err
	}

	outs := s.movements(id, d.items, model.DirectionOut, "Invoice "+id.String(), actor)
	invoice := &model.Invoice{
		CustomerID:    d.customer.ID,
		Items:         d.items,
		Total:         d.total,
		PaymentMethod: req.PaymentMethod,
	}
	invoice.BaseModel = existing.BaseModel
	invoice.UpdatedBy = actor.ID
	for i := range invoice.Items {
		invoice.Items[i].CreatedBy = actor.ID
		invoice.Items[i].UpdatedBy = actor.ID
	}

	// 5. Write
	err = s.db.Transaction(func(tx *gorm.DB) error {
		stockRepo := s.stockRepo.WithTx(tx)
		if err := stockRepo.CreateBatch(reversal); err != nil {
			return err
		}
		if err := s.invoiceRepo.WithTx(tx).ReplaceItems(invoice); err != nil {
			return err
		}
		return stockRepo.CreateBatch(outs)
	})
	if err != nil {
		return nil, err
	}
	unlock()
	unlockInvoice()

	invoice.Customer = d.customer
	s.stock.Invalidate(ctx, oldIDs...)
	s.afterWrite(ctx, d, results, invoice, "invoice_updated", actor)
	s.alerts.InvoiceUpdated(ctx, invoice, d.customer)
	return &InvoiceResult{Invoice: invoice, Items: results}, nil
}

func (s *invoiceService) Delete(ctx context.Context, id uuid.UUID, restock bool, actor Actor) error {
	unlockInvoice, err := lockInvoice(ctx, s.locker, id)
	if err != nil {
		return err
	}
	defer unlockInvoice()

	existing, err := s.Get(id)
	if err != nil {
		return err
	}

	var ids []uuid.UUID
	var reversal []model.StockTransaction
	if restock {
		if ids, err = s.heldProducts(ctx, existing); err != nil {
			return err
		}
		unlock, err := lockProducts(ctx, s.locker, ids)
		if err != nil {
			return err
		}
		defer unlock()

		if reversal, err = s.reversal(ctx, id, "Invoice "+id.String()+" deleted", actor); err != nil {
			return err
		}
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.stockRepo.WithTx(tx).CreateBatch(reversal); err != nil {
			return err
		}
		return s.invoiceRepo.WithTx(tx).Delete(id, actor.ID)
	})
	if err != nil {
		return err
	}

	if restock {
		s.stock.Invalidate(ctx, ids...)
	}
	s.wsHub.Publish(ws.Event{
		Type:   ws.TypeStockUpdate,
		Action: "invoice_deleted",
		Data:   map[string]any{"id": id, "restock": restock},
		User:   actor.ws(),
	})
	return nil
}

// heldProducts lists the products of the invoice lines and of its linked ledger entries.
func (s *invoiceService) heldProducts(ctx context.Context, inv *model.Invoice) ([]uuid.UUID, error) {
	linked, err := s.stockRepo.FindAll(ctx, repository.LedgerFilter{InvoiceID: &inv.ID})
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(inv.Items)+len(linked))
	for _, it := range inv.Items {
		ids = append(ids, it.ProductID)
	}
	for i := range linked {
		ids = append(ids, linked[i].ProductID)
	}
	return uniqueIDs(ids), nil
}

// reversal builds the IN entries returning what the invoice's linked ledger entries
// still hold out, per product and variant. Callers hold the product locks.
func (s *invoiceService) reversal(ctx context.Context, invoiceID uuid.UUID, remarks string, actor Actor) ([]model.StockTransaction, error) {
	linked, err := s.stockRepo.FindAll(ctx, repository.LedgerFilter{InvoiceID: &invoiceID})
	if err != nil {
		return nil, err
	}

	held := make(map[string]*model.InvoiceItem)
	order := make([]string, 0, len(linked))
	for i := range linked {
		t := &linked[i]
		k := t.ProductID.String() + t.Variant.String()
		it, ok := held[k]
		if !ok {
			it = &model.InvoiceItem{ProductID: t.ProductID, Variant: t.Variant}
			held[k] = it
			order = append(order, k)
		}
		it.Quantity -= t.Signed()
	}

	items := make([]model.InvoiceItem, 0, len(order))
	for _, k := range order {
		if held[k].Quantity > 0 {
			items = append(items, *held[k])
		}
	}
	return s.movements(invoiceID, items, model.DirectionIn, remarks, actor), nil
}

func (s *invoiceService) GetAll(opts repository.ListOptions) ([]model.Invoice, error) {
	return s.invoiceRepo.FindAll(opts)
}

func (s *invoiceService) Get(id uuid.UUID) (*model.Invoice, error) {
	invoice, err := s.invoiceRepo.FindByID(id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrInvoiceNotFound
		}
		return nil, err
	}
	return invoice, nil
}

// afterWrite invalidates cached levels, raises stock alerts and broadcasts the change.
// Only the last line of each bucket alerts, with the bucket's final level.
func (s *invoiceService) afterWrite(ctx context.Context, d *draft, results []ItemResult, invoice *model.Invoice, action string, actor Actor) {
	s.stock.Invalidate(ctx, d.productIDs()...)

	last := make(map[string]int, len(results))
	for i, r := range results {
		last[r.ProductID.String()+r.Variant.String()] = i
	}
	for i := range results {
		r := &results[i]
		if last[r.ProductID.String()+r.Variant.String()] != i {
			continue
		}
		if kind := s.alerts.StockLevel(ctx, d.products[r.ProductID], r.Variant, r.Remaining); kind != stock.AlertNone {
			r.Alert = kind.String()
		}
	}

	s.wsHub.Publish(ws.Event{
		Type:   ws.TypeStockUpdate,
		Action: action,
		Data: map[string]any{
			"invoice_id": invoice.ID,
			"total":      invoice.Total,
			"items":      results,
		},
		User:    actor.ws(),
		Message: fmt.Sprintf("%s saved an invoice of %s for %s", actor.Name, invoice.Total.StringFixed(2), d.customer.Name),
	})
}

func (d *draft) productIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(d.items))
	for _, it := range d.items {
		ids = append(ids, it.ProductID)
	}
	return uniqueIDs(ids)
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
