package service

import (
	"context"
	"testing"
	"time"

	"bill-mart/internal/lock"
	"bill-mart/internal/model"
	"bill-mart/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateProduct_OpeningStock(t *testing.T) {
	f := newFixture(t, false)
	p := f.product(t, "Rice", 50, 10)

	assert.Equal(t, 10, p.Stock)
	require.Len(t, p.Variants, 1)
	assert.Empty(t, p.Variants[0].Key)

	ledger, err := f.stockRepo.FindAll(context.Background(), repository.LedgerFilter{ProductID: &p.ID})
	require.NoError(t, err)
	require.Len(t, ledger, 1)
	assert.Equal(t, "Opening stock", ledger[0].Remarks)
}

func TestCreateProduct_OpeningStockNeedsFlatProduct(t *testing.T) {
	f := newFixture(t, false)
	_, err := f.catalog.CreateProduct(context.Background(), &CreateProductRequest{
		Name:         "Shirt",
		Price:        decimal.NewFromInt(400),
		CategoryID:   f.category(t).ID,
		CustomLabels: []string{"Size"},
		OpeningStock: 3,
	}, f.actor)
	assert.ErrorIs(t, err, ErrOpeningStockLabels)
}

func TestUpdateProduct_LabelsImmutable(t *testing.T) {
	f := newFixture(t, false)
	p := f.product(t, "Shirt", 400, 0, "Size")

	_, err := f.catalog.UpdateProduct(context.Background(), p.ID, &UpdateProductRequest{
		Name:         "Shirt",
		Price:        decimal.NewFromInt(450),
		CategoryID:   p.CategoryID,
		CustomLabels: []string{"Size", "Color"},
	}, f.actor)
	assert.ErrorIs(t, err, ErrLabelsImmutable)

	updated, err := f.catalog.UpdateProduct(context.Background(), p.ID, &UpdateProductRequest{
		Name:       "Linen Shirt",
		Price:      decimal.NewFromInt(450),
		CategoryID: p.CategoryID,
	}, f.actor)
	require.NoError(t, err)
	assert.Equal(t, "Linen Shirt", updated.Name)
	assert.Equal(t, []string{"Size"}, []string(updated.CustomLabels))
}

func TestDeleteProduct_RefusedWhenInvoiced(t *testing.T) {
	f := newFixture(t, false)
	p := f.product(t, "Rice", 50, 10)
	c := f.customer(t, "")
	_, err := f.invoices.Create(context.Background(), &InvoiceRequest{
		CustomerID:    c.ID,
		PaymentMethod: model.PaymentCash,
		Items:         []InvoiceItemRequest{line(p, 1, nil)},
	}, f.actor)
	require.NoError(t, err)
	f.alerts.Wait()

	err = f.catalog.DeleteProduct(context.Background(), p.ID, f.actor)
	assert.ErrorIs(t, err, ErrProductInUse)
}

func TestDeleteProduct_DropsLedger(t *testing.T) {
	f := newFixture(t, false)
	p := f.product(t, "Rice", 50, 10)

	require.NoError(t, f.catalog.DeleteProduct(context.Background(), p.ID, f.actor))

	_, err := f.catalog.GetProduct(context.Background(), p.ID)
	assert.ErrorIs(t, err, ErrProductNotFound)
	ledger, err := f.stockRepo.FindAll(context.Background(), repository.LedgerFilter{ProductID: &p.ID})
	require.NoError(t, err)
	assert.Empty(t, ledger)
}

func TestDeleteCategory_RefusedWithProducts(t *testing.T) {
	f := newFixture(t, false)
	p := f.product(t, "Rice", 50, 0)

	err := f.catalog.DeleteCategory(p.CategoryID, f.actor)
	assert.ErrorIs(t, err, ErrCategoryInUse)
}

func TestGetProducts_FoldsEachProduct(t *testing.T) {
	f := newFixture(t, false)
	shirt := f.product(t, "Shirt", 400, 0, "Size")
	f.record(t, shirt, model.DirectionIn, 10, size("M"))
	f.record(t, shirt, model.DirectionIn, 5, size("L"))
	f.product(t, "Rice", 50, 3)

	views, err := f.catalog.GetProducts(context.Background(), repository.ListOptions{})
	require.NoError(t, err)
	require.Len(t, views, 2)

	byName := map[string]ProductView{}
	for _, v := range views {
		byName[v.Name] = v
	}
	assert.Equal(t, 3, byName["Rice"].Stock)
	assert.Equal(t, 15, byName["Shirt"].Stock)
	assert.Len(t, byName["Shirt"].Variants, 2)
}

func TestDeleteProduct_WaitsForStockLock(t *testing.T) {
	locker := lock.NewLocal()
	f := newFixtureWithLocker(t, false, locker)
	p := f.product(t, "Rice", 50, 10)

	unlock, err := locker.Lock(context.Background(), lock.ProductKey(p.ID.String()))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, f.catalog.DeleteProduct(ctx, p.ID, f.actor), ErrStockBusy)
	unlock()

	_, err = f.catalog.GetProduct(context.Background(), p.ID)
	require.NoError(t, err)
	require.NoError(t, f.catalog.DeleteProduct(context.Background(), p.ID, f.actor))
	_, err = f.catalog.GetProduct(context.Background(), p.ID)
	assert.ErrorIs(t, err, ErrProductNotFound)
}
