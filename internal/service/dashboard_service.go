package service

import (
	"context"
	"sort"

	"bill-mart/internal/model"
	"bill-mart/internal/repository"
	"bill-mart/internal/stock"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StockAlertRow is one bucket at or below the low stock threshold.
type StockAlertRow struct {
	ProductID   uuid.UUID        `json:"product_id"`
	ProductName string           `json:"product_name"`
	Variant     model.VariantKey `json:"custom_fields"`
	Level       int              `json:"level"`
	Alert       string           `json:"alert"`
}

type DashboardStats struct {
	TotalProducts   int             `json:"total_products"`
	TotalUnits      int             `json:"total_units"`
	StockValue      decimal.Decimal `json:"stock_value"`
	LowStockCount   int             `json:"low_stock_count"`
	OutOfStockCount int             `json:"out_of_stock_count"`
	Alerts          []StockAlertRow `json:"alerts"`
}

type DashboardService interface {
	GetStockMovement(days int) ([]repository.StockMovementData, error)
	GetDashboardStats(ctx context.Context) (*DashboardStats, error)
}

type dashboardService struct {
	stockRepo   repository.StockRepository
	productRepo repository.ProductRepository
	now         Clock
}

func NewDashboardService(stockRepo repository.StockRepository, productRepo repository.ProductRepository, clock Clock) DashboardService {
	return &dashboardService{stockRepo: stockRepo, productRepo: productRepo, now: defaultClock(clock)}
}

func (s *dashboardService) GetStockMovement(days int) ([]repository.StockMovementData, error) {
	if days <= 0 {
		days = 7
	}
	endDate := s.now()
	startDate := endDate.AddDate(0, 0, -days)

	return s.stockRepo.GetStockMovement(startDate, endDate)
}

// GetDashboardStats folds the whole ledger. Products that never had a movement
// count as out of stock.
func (s *dashboardService) GetDashboardStats(ctx context.Context) (*DashboardStats, error) {
	products, err := s.productRepo.FindAll(repository.ListOptions{})
	if err != nil {
		return nil, err
	}
	ledger, err := s.stockRepo.FindAll(ctx, repository.LedgerFilter{})
	if err != nil {
		return nil, err
	}
	byProduct := stock.FoldByProduct(ledger)

	stats := &DashboardStats{TotalProducts: len(products), StockValue: decimal.Zero, Alerts: []StockAlertRow{}}
	for _, p := range products {
		buckets, ok := byProduct[p.ID]
		if !ok || len(buckets) == 0 {
			buckets = stock.Buckets{}
			buckets.Apply(model.DirectionIn, model.VariantKey{}, 0)
		}

		total := buckets.Total()
		stats.TotalUnits += total
		if total > 0 {
			stats.StockValue = stats.StockValue.Add(p.Price.Mul(decimal.NewFromInt(int64(total))))
		}

		for _, b := range buckets.Sorted() {
			kind := stock.Classify(b.Net)
			switch kind {
			case stock.AlertOutOfStock:
				stats.OutOfStockCount++
			case stock.AlertLowStock:
				stats.LowStockCount++
			default:
				continue
			}
			stats.Alerts = append(stats.Alerts, StockAlertRow{
				ProductID:   p.ID,
				ProductName: p.Name,
				Variant:     b.Key,
				Level:       b.Net,
				Alert:       kind.String(),
			})
		}
	}

	sort.SliceStable(stats.Alerts, func(i, j int) bool {
		return stats.Alerts[i].Level < stats.Alerts[j].Level
	})
	return stats, nil
}
