package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"bill-mart/internal/lock"
	"bill-mart/internal/model"
	"bill-mart/internal/notify"
	"bill-mart/internal/repository"
	"bill-mart/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type recordingNotifier struct {
	mu   sync.Mutex
	msgs []notify.Message
	err  error
}

func (n *recordingNotifier) Notify(_ context.Context, msg notify.Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.msgs = append(n.msgs, msg)
	return n.err
}

func (n *recordingNotifier) failWith(err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.err = err
}

func (n *recordingNotifier) messages() []notify.Message {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notify.Message(nil), n.msgs...)
}

type recordingMailer struct {
	mu    sync.Mutex
	codes map[string]string
}

func (m *recordingMailer) SendOTP(_ context.Context, to, code string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.codes == nil {
		m.codes = map[string]string{}
	}
	m.codes[to] = code
	return nil
}

func (m *recordingMailer) code(to string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.codes[to]
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// fixture wires every service against a fresh in-memory database.
type fixture struct {
	db       *gorm.DB
	clock    *fakeClock
	notifier *recordingNotifier
	mailer   *recordingMailer
	alerts   AlertService

	stockRepo repository.StockRepository

	catalog   CatalogService
	customers CustomerService
	stock     StockService
	otp       OTPService
	invoices  InvoiceService
	dashboard DashboardService

	actor Actor
}

// gateLocker holds the first n Lock calls after arm until all n have arrived.
type gateLocker struct {
	lock.Locker
	mu      sync.Mutex
	pending int
	open    chan struct{}
}

func (g *gateLocker) arm(n int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pending = n
	g.open = make(chan struct{})
}

func (g *gateLocker) Lock(ctx context.Context, key string) (lock.Unlock, error) {
	g.mu.Lock()
	var wait chan struct{}
	if g.pending > 0 {
		wait = g.open
		g.pending--
		if g.pending == 0 {
			close(g.open)
		}
	}
	g.mu.Unlock()

	if wait != nil {
		select {
		case <-wait:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return g.Locker.Lock(ctx, key)
}

func newFixture(t *testing.T, requireOTP bool) *fixture {
	t.Helper()
	return newFixtureWithLocker(t, requireOTP, lock.NewLocal())
}

func newFixtureWithLocker(t *testing.T, requireOTP bool, locker lock.Locker) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	f := &fixture{
		db:       db,
		clock:    &fakeClock{now: time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)},
		notifier: &recordingNotifier{},
		mailer:   &recordingMailer{},
		actor:    Actor{ID: "user-1", Name: "Asha", Email: "asha@example.com"},
	}
	clock := f.clock.Now

	categoryRepo := repository.NewCategoryRepo(db)
	productRepo := repository.NewProductRepo(db)
	customerRepo := repository.NewCustomerRepo(db)
	invoiceRepo := repository.NewInvoiceRepo(db)
	f.stockRepo = repository.NewStockRepo(db)
	otpRepo := repository.NewOTPRepo(db)

	f.alerts = NewAlertService(f.notifier, "https://shop.example")
	f.stock = NewStockService(f.stockRepo, productRepo, locker, nil, f.alerts, nil, clock)
	f.catalog = NewCatalogService(db, categoryRepo, productRepo, f.stockRepo, invoiceRepo, f.stock, locker, nil, clock)
	f.customers = NewCustomerService(customerRepo, "IN")
	f.otp = NewOTPService(otpRepo, f.mailer, 5*time.Minute, clock)
	f.invoices = NewInvoiceService(db, invoiceRepo, productRepo, customerRepo, f.stockRepo, f.stock, f.otp, f.alerts, locker, nil,
		InvoiceOptions{RequireOTP: requireOTP, Clock: clock})
	f.dashboard = NewDashboardService(f.stockRepo, productRepo, clock)
	return f
}

func (f *fixture) category(t *testing.T) *model.Category {
	t.Helper()
	c, err := f.catalog.CreateCategory(&CategoryRequest{Name: "General"}, f.actor)
	require.NoError(t, err)
	return c
}

func (f *fixture) product(t *testing.T, name string, price int64, opening int, labels ...string) *ProductView {
	t.Helper()
	p, err := f.catalog.CreateProduct(context.Background(), &CreateProductRequest{
		Name:         name,
		Price:        decimal.NewFromInt(price),
		CategoryID:   f.category(t).ID,
		CustomLabels: labels,
		OpeningStock: opening,
	}, f.actor)
	require.NoError(t, err)
	return p
}

func (f *fixture) customer(t *testing.T, email string) *model.Customer {
	t.Helper()
	c, err := f.customers.Create(&CustomerRequest{Name: "Ravi", Email: email}, f.actor)
	require.NoError(t, err)
	return c
}

func (f *fixture) record(t *testing.T, p *ProductView, dir model.Direction, qty int, key model.VariantKey) *RecordResult {
	t.Helper()
	res, err := f.stock.Record(context.Background(), &RecordStockRequest{
		ProductID: p.ID,
		Direction: dir,
		Quantity:  qty,
		Variant:   key,
	}, f.actor)
	require.NoError(t, err)
	return res
}

func (f *fixture) level(t *testing.T, p *ProductView, key model.VariantKey) int {
	t.Helper()
	levels, err := f.stock.Levels(context.Background(), p.ID)
	require.NoError(t, err)
	for _, b := range levels.Variants {
		if b.Key.String() == key.String() {
			return b.Net
		}
	}
	return 0
}

func size(v string) model.VariantKey {
	return model.VariantKey{{Label: "Size", Value: v}}
}

func line(p *ProductView, qty int, key model.VariantKey) InvoiceItemRequest {
	return InvoiceItemRequest{ProductID: p.ID, Quantity: qty, Variant: key}
}
