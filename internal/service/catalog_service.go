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

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CategoryRequest struct {
	Name string `json:"name" validate:"required,max=255"`
}

type CreateProductRequest struct {
	Name         string          `json:"name" validate:"required,max=255"`
	Price        decimal.Decimal `json:"price"`
	CategoryID   uuid.UUID       `json:"category_id" validate:"uuid_required"`
	CustomLabels []string        `json:"custom_labels" validate:"max=10,unique,dive,required,max=50"`
	// OpeningStock is recorded as the first IN entry of a product without labels
	OpeningStock int `json:"stock" validate:"gte=0"`
}

type UpdateProductRequest struct {
	Name       string          `json:"name" validate:"required,max=255"`
	Price      decimal.Decimal `json:"price"`
	CategoryID uuid.UUID       `json:"category_id" validate:"uuid_required"`
	// CustomLabels, when sent, must equal the stored labels
	CustomLabels []string `json:"custom_labels"`
}

// ProductView is a product with its derived stock.
type ProductView struct {
	model.Product
	Stock    int            `json:"stock"`
	Variants []stock.Bucket `json:"variants"`
}

type CatalogService interface {
	CreateCategory(req *CategoryRequest, actor Actor) (*model.Category, error)
	UpdateCategory(id uuid.UUID, req *CategoryRequest, actor Actor) (*model.Category, error)
	DeleteCategory(id uuid.UUID, actor Actor) error
	GetCategories() ([]model.Category, error)

	CreateProduct(ctx context.Context, req *CreateProductRequest, actor Actor) (*ProductView, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, req *UpdateProductRequest, actor Actor) (*ProductView, error)
	DeleteProduct(ctx context.Context, id uuid.UUID, actor Actor) error
	GetProducts(ctx context.Context, opts repository.ListOptions) ([]ProductView, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*ProductView, error)
}

type catalogService struct {
	db           *gorm.DB
	categoryRepo repository.CategoryRepository
	productRepo  repository.ProductRepository
	stockRepo    repository.StockRepository
	invoiceRepo  repository.InvoiceRepository
	stock        StockService
	locker       lock.Locker
	wsHub        *ws.Hub
	now          Clock
}

func NewCatalogService(db *gorm.DB, categoryRepo repository.CategoryRepository, productRepo repository.ProductRepository,
	stockRepo repository.StockRepository, invoiceRepo repository.InvoiceRepository, stockService StockService,
	locker lock.Locker, hub *ws.Hub, clock Clock) CatalogService {
	return &catalogService{
		db:           db,
		categoryRepo: categoryRepo,
		productRepo:  productRepo,
		stockRepo:    stockRepo,
		invoiceRepo:  invoiceRepo,
		stock:        stockService,
		locker:       locker,
		wsHub:        hub,
		now:          defaultClock(clock),
	}
}

func (s *catalogService) CreateCategory(req *CategoryRequest, actor Actor) (*model.Category, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	category := &model.Category{Name: req.Name}
	category.CreatedBy = actor.ID
	category.UpdatedBy = actor.ID
	if err := s.categoryRepo.Create(category); err != nil {
		return nil, err
	}
	return category, nil
}

func (s *catalogService) UpdateCategory(id uuid.UUID, req *CategoryRequest, actor Actor) (*model.Category, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	category, err := s.findCategory(id)
	if err != nil {
		return nil, err
	}
	category.Name = req.Name
	category.UpdatedBy = actor.ID
	if err := s.categoryRepo.Update(category); err != nil {
		return nil, err
	}
	return category, nil
}

func (s *catalogService) DeleteCategory(id uuid.UUID, actor Actor) error {
	if _, err := s.findCategory(id); err != nil {
		return err
	}
	count, err := s.categoryRepo.CountProducts(id)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrCategoryInUse
	}
	return s.categoryRepo.Delete(id, actor.ID)
}

func (s *catalogService) GetCategories() ([]model.Category, error) {
	return s.categoryRepo.FindAll()
}

func (s *catalogService) findCategory(id uuid.UUID) (*model.Category, error) {
	category, err := s.categoryRepo.FindByID(id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}
	return category, nil
}

func (s *catalogService) CreateProduct(ctx context.Context, req *CreateProductRequest, actor Actor) (*ProductView, error) {
	// 1. Validate
	if err := validate(req); err != nil {
		return nil, err
	}
	if req.Price.IsNegative() {
		return nil, ErrNegativeAmount
	}
	if _, err := s.findCategory(req.CategoryID); err != nil {
		return nil, err
	}
	labels := model.Labels(req.CustomLabels).Normalize()
	if len(labels) > 0 && req.OpeningStock > 0 {
		return nil, ErrOpeningStockLabels
	}

	product := &model.Product{
		Name:         req.Name,
		Price:        req.Price,
		CategoryID:   req.CategoryID,
		CustomLabels: labels,
	}
	product.CreatedBy = actor.ID
	product.UpdatedBy = actor.ID

	// 2. Product and opening stock land together
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.productRepo.WithTx(tx).Create(product); err != nil {
			return err
		}
		if req.OpeningStock == 0 {
			return nil
		}
		opening := &model.StockTransaction{
			ProductID:       product.ID,
			Direction:       model.DirectionIn,
			Quantity:        req.OpeningStock,
			TransactionDate: s.now(),
			Remarks:         "Opening stock",
			Variant:         model.VariantKey{},
		}
		opening.CreatedBy = actor.ID
		opening.UpdatedBy = actor.ID
		return s.stockRepo.WithTx(tx).Create(opening)
	})
	if err != nil {
		return nil, err
	}

	view, err := s.GetProduct(ctx, product.ID)
	if err != nil {
		return nil, err
	}

	// 3. Broadcast
	s.wsHub.Publish(ws.Event{
		Type:    ws.TypeStockUpdate,
		Action:  "product_created",
		Data:    map[string]any{"product": view},
		User:    actor.ws(),
		Message: fmt.Sprintf("%s created product '%s'", actor.Name, product.Name),
	})
	return view, nil
}

func (s *catalogService) UpdateProduct(ctx context.Context, id uuid.UUID, req *UpdateProductRequest, actor Actor) (*ProductView, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	if req.Price.IsNegative() {
		return nil, ErrNegativeAmount
	}
	product, err := s.findProduct(id)
	if err != nil {
		return nil, err
	}
	if req.CustomLabels != nil && !product.CustomLabels.Equal(model.Labels(req.CustomLabels).Normalize()) {
		return nil, ErrLabelsImmutable
	}
	if _, err := s.findCategory(req.CategoryID); err != nil {
		return nil, err
	}

	product.Name = req.Name
	product.Price = req.Price
	product.CategoryID = req.CategoryID
	product.UpdatedBy = actor.ID
	if err := s.saveProduct(ctx, product); err != nil {
		return nil, err
	}

	view, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	s.wsHub.Publish(ws.Event{
		Type:    ws.TypeStockUpdate,
		Action:  "product_updated",
		Data:    map[string]any{"product": view},
		User:    actor.ws(),
		Message: fmt.Sprintf("%s updated product '%s'", actor.Name, product.Name),
	})
	return view, nil
}

// saveProduct writes product and drops its cached levels under the product lock.
func (s *catalogService) saveProduct(ctx context.Context, product *model.Product) error {
	unlock, err := lockProducts(ctx, s.locker, []uuid.UUID{product.ID})
	if err != nil {
		return err
	}
	defer unlock()

	if err := s.productRepo.Update(product); err != nil {
		return err
	}
	s.stock.Invalidate(ctx, product.ID)
	return nil
}

// DeleteProduct soft-deletes the product together with its ledger entries.
// Products sold on a live invoice cannot be deleted. The check and the delete run
// under the product lock, so no invoice can sell it in between.
func (s *catalogService) DeleteProduct(ctx context.Context, id uuid.UUID, actor Actor) error {
	if _, err := s.findProduct(id); err != nil {
		return err
	}

	unlock, err := lockProducts(ctx, s.locker, []uuid.UUID{id})
	if err != nil {
		return err
	}
	defer unlock()

	count, err := s.invoiceRepo.CountItemsForProduct(id)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrProductInUse
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.stockRepo.WithTx(tx).DeleteByProduct(id, actor.ID); err != nil {
			return err
		}
		return s.productRepo.WithTx(tx).Delete(id, actor.ID)
	})
	if err != nil {
		return err
	}
	s.stock.Invalidate(ctx, id)
	unlock()

	s.wsHub.Publish(ws.Event{
		Type:   ws.TypeStockUpdate,
		Action: "product_deleted",
		Data:   map[string]any{"id": id, "deleted_at": s.now().Format(time.RFC3339)},
		User:   actor.ws(),
	})
	return nil
}

func (s *catalogService) GetProducts(ctx context.Context, opts repository.ListOptions) ([]ProductView, error) {
	products, err := s.productRepo.FindAll(opts)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, len(products))
	for i := range products {
		ids[i] = products[i].ID
	}

	views := make([]ProductView, 0, len(products))
	if len(ids) == 0 {
		return views, nil
	}
	ledger, err := s.stockRepo.FindAll(ctx, repository.LedgerFilter{ProductIDs: ids})
	if err != nil {
		return nil, err
	}
	byProduct := stock.FoldByProduct(ledger)
	for _, p := range products {
		views = append(views, newProductView(p, byProduct[p.ID]))
	}
	return views, nil
}

func (s *catalogService) GetProduct(ctx context.Context, id uuid.UUID) (*ProductView, error) {
	product, err := s.findProduct(id)
	if err != nil {
		return nil, err
	}
	levels, err := s.stock.Levels(ctx, id)
	if err != nil {
		return nil, err
	}
	return &ProductView{Product: *product, Stock: levels.Total, Variants: levels.Variants}, nil
}

func (s *catalogService) findProduct(id uuid.UUID) (*model.Product, error) {
	product, err := s.productRepo.FindByID(id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return product, nil
}

func newProductView(p model.Product, b stock.Buckets) ProductView {
	if b == nil {
		b = stock.Buckets{}
	}
	if p.CustomLabels == nil {
		p.CustomLabels = model.Labels{}
	}
	return ProductView{Product: p, Stock: b.Total(), Variants: b.Sorted()}
}
