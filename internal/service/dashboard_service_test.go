package service

import (
	"context"
	"testing"
	"time"

	"bill-mart/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboardStats(t *testing.T) {
	f := newFixture(t, false)
	f.product(t, "Rice", 50, 10)
	f.product(t, "Dal", 80, 3)
	shirt := f.product(t, "Shirt", 400, 0, "Size")
	f.record(t, shirt, model.DirectionIn, 2, size("M"))
	f.record(t, shirt, model.DirectionOut, 2, size("M"))
	f.product(t, "Salt", 20, 0)
	f.alerts.Wait()

	stats, err := f.dashboard.GetDashboardStats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 4, stats.TotalProducts)
	assert.Equal(t, 13, stats.TotalUnits)
	assert.True(t, decimal.NewFromInt(10*50+3*80).Equal(stats.StockValue))
	assert.Equal(t, 1, stats.LowStockCount)
	assert.Equal(t, 2, stats.OutOfStockCount)
	require.Len(t, stats.Alerts, 3)
	assert.Equal(t, "low_stock", stats.Alerts[2].Alert)
	assert.Equal(t, "Dal", stats.Alerts[2].ProductName)
}

func TestDashboardStockMovement(t *testing.T) {
	f := newFixture(t, false)
	p := f.product(t, "Rice", 50, 10)
	f.record(t, p, model.DirectionOut, 4, nil)
	f.alerts.Wait()
	f.clock.Advance(time.Hour)

	rows, err := f.dashboard.GetStockMovement(7)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 10, rows[0].Inbound)
	assert.Equal(t, 4, rows[0].Outbound)
}
