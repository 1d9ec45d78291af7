package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"bill-mart/internal/lock"
	"bill-mart/internal/model"
	"bill-mart/internal/notify"
	"bill-mart/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func alertsWithPrefix(msgs []notify.Message, prefix string) []notify.Message {
	var out []notify.Message
	for _, m := range msgs {
		if strings.HasPrefix(m.Text, prefix) {
			out = append(out, m)
		}
	}
	return out
}

func TestInvoiceCreate_DecrementsStock(t *testing.T) {
	f := newFixture(t, false)
	p := f.product(t, "Rice", 50, 10)
	c := f.customer(t, "")

	res, err := f.invoices.Create(context.Background(), &InvoiceRequest{
		CustomerID:    c.ID,
		PaymentMethod: model.PaymentCash,
		Items:         []InvoiceItemRequest{line(p, 3, nil)},
	}, f.actor)
	require.NoError(t, err)
	f.alerts.Wait()

	assert.Equal(t, 7, f.level(t, p, nil))
	require.Len(t, res.Items, 1)
	assert.Equal(t, 7, res.Items[0].Remaining)
	assert.Empty(t, res.Items[0].Alert)
	assert.True(t, decimal.NewFromInt(150).Equal(res.Invoice.Total))

	msgs := f.notifier.messages()
	assert.Empty(t, alertsWithPrefix(msgs, "⚠️"))
	summary := alertsWithPrefix(msgs, "🧾New Invoice Generated")
	require.Len(t, summary, 1)
	assert.Contains(t, summary[0].Text, "**Total Amount:** 150.00")
	assert.Equal(t, "https://shop.example/invoices/receipt/"+res.Invoice.ID.String(), summary[0].Buttons[0].URL)

	ledger, err := f.stockRepo.FindAll(context.Background(), repository.LedgerFilter{InvoiceID: &res.Invoice.ID})
	require.NoError(t, err)
	require.Len(t, ledger, 1)
	assert.Equal(t, model.DirectionOut, ledger[0].Direction)
	assert.Equal(t, 3, ledger[0].Quantity)
}

func TestInvoiceCreate_RejectsOversell(t *testing.T) {
	f := newFixture(t, false)
	p := f.product(t, "Rice", 50, 4)
	c := f.customer(t, "")

	_, err := f.invoices.Create(context.Background(), &InvoiceRequest{
		CustomerID:    c.ID,
		PaymentMethod: model.PaymentCash,
		Items:         []InvoiceItemRequest{line(p, 6, nil)},
	}, f.actor)

	var rejected *StockRejectedError
	require.True(t, errors.As(err, &rejected))
	require.Len(t, rejected.Lines, 1)
	assert.Equal(t, 4, rejected.Lines[0].Available)
	assert.Contains(t, err.Error(), "max available: 4")

	invoices, err := f.invoices.GetAll(repository.ListOptions{})
	require.NoError(t, err)
	assert.Empty(t, invoices)
	assert.Equal(t, 4, f.level(t, p, nil))
}

func TestInvoiceCreate_ReportsEveryFailingLine(t *testing.T) {
	f := newFixture(t, false)
	shirt := f.product(t, "Shirt", 400, 0, "Size")
	f.record(t, shirt, model.DirectionIn, 2, size("M"))
	f.record(t, shirt, model.DirectionIn, 9, size("L"))
	rice := f.product(t, "Rice", 50, 1)
	c := f.customer(t, "")

	_, err := f.invoices.Create(context.Background(), &InvoiceRequest{
		CustomerID:    c.ID,
		PaymentMethod: model.PaymentCard,
		Items: []InvoiceItemRequest{
			line(shirt, 3, size("M")),
			line(shirt, 1, size("L")),
			line(rice, 2, nil),
		},
	}, f.actor)

	var rejected *StockRejectedError
	require.True(t, errors.As(err, &rejected))
	require.Len(t, rejected.Lines, 2)
	assert.Equal(t, 1, rejected.Lines[0].Line)
	assert.Equal(t, "Shirt (Size: M): max available: 2", rejected.Lines[0].String())
	assert.Equal(t, 3, rejected.Lines[1].Line)
	assert.Equal(t, 9, f.level(t, shirt, size("L")))
}

func TestInvoiceCreate_LinesOnSameBucketAccumulate(t *testing.T) {
	f := newFixture(t, false)
	p := f.product(t, "Rice", 50, 5)
	c := f.customer(t, "")

	_, err := f.invoices.Create(context.Background(), &InvoiceRequest{
		CustomerID:    c.ID,
		PaymentMethod: model.PaymentCash,
		Items:         []InvoiceItemRequest{line(p, 3, nil), line(p, 3, nil)},
	}, f.actor)

	var rejected *StockRejectedError
	require.True(t, errors.As(err, &rejected))
	require.Len(t, rejected.Lines, 1)
	assert.Equal(t, 2, rejected.Lines[0].Line)
	assert.Equal(t, 2, rejected.Lines[0].Available)
}

func TestInvoiceCreate_OutOfStockAlert(t *testing.T) {
	f := newFixture(t, false)
	p := f.product(t, "Rice", 50, 5)
	c := f.customer(t, "")

	res, err := f.invoices.Create(context.Background(), &InvoiceRequest{
		CustomerID:    c.ID,
		PaymentMethod: model.PaymentUPI,
		Items:         []InvoiceItemRequest{line(p, 5, nil)},
	}, f.actor)
	require.NoError(t, err)
	f.alerts.Wait()

	assert.Equal(t, 0, f.level(t, p, nil))
	assert.Equal(t, "out_of_stock", res.Items[0].Alert)

	out := alertsWithPrefix(f.notifier.messages(), "⚠️ Out of Stock Alert")
	require.Len(t, out, 1)
	assert.Equal(t, "⚠️ Out of Stock Alert\n\n**Product:** Rice\n\n**Stock Left:** 0", out[0].Text)
	assert.Equal(t, "https://shop.example/products/edit/"+p.ID.String(), out[0].Buttons[0].URL)
}

func TestInvoiceCreate_TotalMustMatch(t *testing.T) {
	f := newFixture(t, false)
	p := f.product(t, "Rice", 50, 5)
	c := f.customer(t, "")
	wrong := decimal.NewFromInt(10)

	_, err := f.invoices.Create(context.Background(), &InvoiceRequest{
		CustomerID:    c.ID,
		PaymentMethod: model.PaymentCash,
		Items:         []InvoiceItemRequest{line(p, 1, nil)},
		Total:         &wrong,
	}, f.actor)
	assert.ErrorIs(t, err, ErrTotalMismatch)
}

func TestInvoiceCreate_ConcurrentSalesNeverOversell(t *testing.T) {
	f := newFixture(t, false)
	p := f.product(t, "Rice", 50, 5)
	c := f.customer(t, "")

	const workers = 4
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.invoices.Create(context.Background(), &InvoiceRequest{
				CustomerID:    c.ID,
				PaymentMethod: model.PaymentCash,
				Items:         []InvoiceItemRequest{line(p, 5, nil)},
			}, f.actor)
		}(i)
	}
	wg.Wait()
	f.alerts.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		var rejected *StockRejectedError
		assert.True(t, errors.As(err, &rejected), "unexpected error: %v", err)
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 0, f.level(t, p, nil))
}

func TestInvoiceCreate_RequiresOTP(t *testing.T) {
	f := newFixture(t, true)
	p := f.product(t, "Rice", 50, 5)
	c := f.customer(t, "ravi@example.com")
	req := func(otp string) *InvoiceRequest {
		return &InvoiceRequest{
			CustomerID:    c.ID,
			PaymentMethod: model.PaymentCash,
			Items:         []InvoiceItemRequest{line(p, 1, nil)},
			OTP:           otp,
		}
	}

	_, err := f.invoices.Create(context.Background(), req(""), f.actor)
	assert.ErrorIs(t, err, ErrOTPRequired)

	_, err = f.otp.Send(context.Background(), c.Email)
	require.NoError(t, err)
	_, err = f.invoices.Create(context.Background(), req("000000x"), f.actor)
	assert.ErrorIs(t, err, ErrOTPInvalid)

	_, err = f.invoices.Create(context.Background(), req(f.mailer.code(c.Email)), f.actor)
	require.NoError(t, err)
	f.alerts.Wait()
	assert.Equal(t, 4, f.level(t, p, nil))
}

func TestInvoiceCreate_AfterVerifiedOTP(t *testing.T) {
	f := newFixture(t, true)
	p := f.product(t, "Rice", 50, 5)
	c := f.customer(t, "ravi@example.com")

	_, err := f.otp.Send(context.Background(), c.Email)
	require.NoError(t, err)
	code := f.mailer.code(c.Email)
	require.NoError(t, f.otp.Verify(context.Background(), c.Email, code))

	req := &InvoiceRequest{
		CustomerID:    c.ID,
		PaymentMethod: model.PaymentUPI,
		Items:         []InvoiceItemRequest{line(p, 2, nil)},
		OTP:           code,
	}
	_, err = f.invoices.Create(context.Background(), req, f.actor)
	require.NoError(t, err)
	f.alerts.Wait()
	assert.Equal(t, 3, f.level(t, p, nil))

	// the code confirms one invoice only
	_, err = f.invoices.Create(context.Background(), req, f.actor)
	assert.ErrorIs(t, err, ErrOTPNotFound)
	assert.Equal(t, 3, f.level(t, p, nil))
}

func TestInvoiceCreate_NotifierFailureDoesNotBlock(t *testing.T) {
	f := newFixture(t, false)
	p := f.product(t, "Rice", 50, 3)
	c := f.customer(t, "")
	f.notifier.failWith(errors.New("telegram unavailable"))

	res, err := f.invoices.Create(context.Background(), &InvoiceRequest{
		CustomerID:    c.ID,
		PaymentMethod: model.PaymentCash,
		Items:         []InvoiceItemRequest{line(p, 3, nil)},
	}, f.actor)
	require.NoError(t, err)
	f.alerts.Wait()

	assert.Equal(t, "out_of_stock", res.Items[0].Alert)
	stored, err := f.invoices.Get(res.Invoice.ID)
	require.NoError(t, err)
	require.Len(t, stored.Items, 1)
	assert.Equal(t, 0, f.level(t, p, nil))
	// the alert and the summary were both attempted
	assert.Len(t, f.notifier.messages(), 2)
}

func TestInvoiceUpdate_ReversesPreviousLines(t *testing.T) {
	f := newFixture(t, false)
	rice := f.product(t, "Rice", 50, 10)
	dal := f.product(t, "Dal", 80, 10)
	c := f.customer(t, "")

	created, err := f.invoices.Create(context.Background(), &InvoiceRequest{
		CustomerID:    c.ID,
		PaymentMethod: model.PaymentCash,
		Items:         []InvoiceItemRequest{line(rice, 8, nil)},
	}, f.actor)
	require.NoError(t, err)
	assert.Equal(t, 2, f.level(t, rice, nil))

	// 9 only fits because the 8 sold before are returned first
	updated, err := f.invoices.Update(context.Background(), created.Invoice.ID, &InvoiceRequest{
		CustomerID:    c.ID,
		PaymentMethod: model.PaymentCard,
		Items:         []InvoiceItemRequest{line(rice, 9, nil), line(dal, 2, nil)},
	}, f.actor)
	require.NoError(t, err)
	f.alerts.Wait()

	assert.Equal(t, 1, f.level(t, rice, nil))
	assert.Equal(t, 8, f.level(t, dal, nil))
	assert.True(t, decimal.NewFromInt(9*50+2*80).Equal(updated.Invoice.Total))

	stored, err := f.invoices.Get(created.Invoice.ID)
	require.NoError(t, err)
	require.Len(t, stored.Items, 2)
	assert.Equal(t, model.PaymentCard, stored.PaymentMethod)

	assert.Len(t, alertsWithPrefix(f.notifier.messages(), "🧾Invoice Updated"), 1)
}

func TestInvoiceUpdate_RejectionKeepsInvoice(t *testing.T) {
	f := newFixture(t, false)
	rice := f.product(t, "Rice", 50, 10)
	c := f.customer(t, "")

	created, err := f.invoices.Create(context.Background(), &InvoiceRequest{
		CustomerID:    c.ID,
		PaymentMethod: model.PaymentCash,
		Items:         []InvoiceItemRequest{line(rice, 4, nil)},
	}, f.actor)
	require.NoError(t, err)

	_, err = f.invoices.Update(context.Background(), created.Invoice.ID, &InvoiceRequest{
		CustomerID:    c.ID,
		PaymentMethod: model.PaymentCash,
		Items:         []InvoiceItemRequest{line(rice, 11, nil)},
	}, f.actor)
	var rejected *StockRejectedError
	require.True(t, errors.As(err, &rejected))
	assert.Equal(t, 10, rejected.Lines[0].Available)

	f.alerts.Wait()
	assert.Equal(t, 6, f.level(t, rice, nil))
	stored, err := f.invoices.Get(created.Invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, stored.Items[0].Quantity)
}

func TestInvoiceDelete(t *testing.T) {
	tests := []struct {
		name    string
		restock bool
		want    int
	}{
		{name: "keeps stock out", restock: false, want: 7},
		{name: "restocks", restock: true, want: 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, false)
			p := f.product(t, "Rice", 50, 10)
			c := f.customer(t, "")
			created, err := f.invoices.Create(context.Background(), &InvoiceRequest{
				CustomerID:    c.ID,
				PaymentMethod: model.PaymentCash,
				Items:         []InvoiceItemRequest{line(p, 3, nil)},
			}, f.actor)
			require.NoError(t, err)
			f.alerts.Wait()

			require.NoError(t, f.invoices.Delete(context.Background(), created.Invoice.ID, tt.restock, f.actor))
			assert.Equal(t, tt.want, f.level(t, p, nil))

			_, err = f.invoices.Get(created.Invoice.ID)
			assert.ErrorIs(t, err, ErrInvoiceNotFound)
		})
	}
}

func TestInvoiceCreate_UnknownCustomer(t *testing.T) {
	f := newFixture(t, false)
	p := f.product(t, "Rice", 50, 10)

	_, err := f.invoices.Create(context.Background(), &InvoiceRequest{
		CustomerID:    p.ID,
		PaymentMethod: model.PaymentCash,
		Items:         []InvoiceItemRequest{line(p, 1, nil)},
	}, f.actor)
	assert.ErrorIs(t, err, ErrCustomerNotFound)
}

func heldOut(t *testing.T, f *fixture, invoiceID uuid.UUID) int {
	t.Helper()
	linked, err := f.stockRepo.FindAll(context.Background(), repository.LedgerFilter{InvoiceID: &invoiceID})
	require.NoError(t, err)
	held := 0
	for i := range linked {
		held -= linked[i].Signed()
	}
	return held
}

func TestInvoiceUpdate_ConcurrentUpdatesReverseOnce(t *testing.T) {
	gate := &gateLocker{Locker: lock.NewLocal()}
	f := newFixtureWithLocker(t, false, gate)
	p := f.product(t, "Rice", 50, 10)
	c := f.customer(t, "")

	created, err := f.invoices.Create(context.Background(), &InvoiceRequest{
		CustomerID:    c.ID,
		PaymentMethod: model.PaymentCash,
		Items:         []InvoiceItemRequest{line(p, 8, nil)},
	}, f.actor)
	require.NoError(t, err)

	const workers = 2
	gate.arm(workers)
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.invoices.Update(context.Background(), created.Invoice.ID, &InvoiceRequest{
				CustomerID:    c.ID,
				PaymentMethod: model.PaymentCash,
				Items:         []InvoiceItemRequest{line(p, 1, nil)},
			}, f.actor)
		}(i)
	}
	wg.Wait()
	f.alerts.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, 9, f.level(t, p, nil))
	assert.Equal(t, 1, heldOut(t, f, created.Invoice.ID))
}

func TestInvoiceDelete_ConcurrentRestockReturnsOnce(t *testing.T) {
	gate := &gateLocker{Locker: lock.NewLocal()}
	f := newFixtureWithLocker(t, false, gate)
	p := f.product(t, "Rice", 50, 10)
	c := f.customer(t, "")

	created, err := f.invoices.Create(context.Background(), &InvoiceRequest{
		CustomerID:    c.ID,
		PaymentMethod: model.PaymentCash,
		Items:         []InvoiceItemRequest{line(p, 6, nil)},
	}, f.actor)
	require.NoError(t, err)
	f.alerts.Wait()

	const workers = 2
	gate.arm(workers)
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = f.invoices.Delete(context.Background(), created.Invoice.ID, true, f.actor)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, ErrInvoiceNotFound)
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 10, f.level(t, p, nil))
}

func TestInvoiceUpdate_ReversesLinkedEntriesOnly(t *testing.T) {
	f := newFixture(t, false)
	p := f.product(t, "Rice", 50, 10)
	c := f.customer(t, "")

	created, err := f.invoices.Create(context.Background(), &InvoiceRequest{
		CustomerID:    c.ID,
		PaymentMethod: model.PaymentCash,
		Items:         []InvoiceItemRequest{line(p, 4, nil)},
	}, f.actor)
	require.NoError(t, err)

	// an operator removed the sale entry by hand; nothing is held out any more
	linked, err := f.stockRepo.FindAll(context.Background(), repository.LedgerFilter{InvoiceID: &created.Invoice.ID})
	require.NoError(t, err)
	require.Len(t, linked, 1)
	require.NoError(t, f.stock.Delete(context.Background(), linked[0].ID, f.actor))
	assert.Equal(t, 10, f.level(t, p, nil))

	_, err = f.invoices.Update(context.Background(), created.Invoice.ID, &InvoiceRequest{
		CustomerID:    c.ID,
		PaymentMethod: model.PaymentCash,
		Items:         []InvoiceItemRequest{line(p, 2, nil)},
	}, f.actor)
	require.NoError(t, err)
	f.alerts.Wait()

	assert.Equal(t, 8, f.level(t, p, nil))
	assert.Equal(t, 2, heldOut(t, f, created.Invoice.ID))
}
