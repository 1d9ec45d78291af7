package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"bill-mart/internal/model"
	"bill-mart/internal/notify"
	"bill-mart/internal/stock"
	"bill-mart/pkg/logger"

	"github.com/sirupsen/logrus"
)

// AlertService turns stock levels and invoices into owner notifications.
// Sends happen in the background and failures are only logged.
type AlertService interface {
	StockLevel(ctx context.Context, product *model.Product, key model.VariantKey, level int) stock.AlertKind
	InvoiceCreated(ctx context.Context, invoice *model.Invoice, customer *model.Customer)
	InvoiceUpdated(ctx context.Context, invoice *model.Invoice, customer *model.Customer)
	// Wait blocks until every pending send has finished.
	Wait()
}

type alertService struct {
	notifier notify.Notifier
	baseURL  string
	timeout  time.Duration
	wg       sync.WaitGroup
}

func NewAlertService(notifier notify.Notifier, baseURL string) AlertService {
	return &alertService{notifier: notifier, baseURL: baseURL, timeout: 15 * time.Second}
}

// AlertMessage formats the low/out of stock message, or returns false for AlertNone.
func AlertMessage(baseURL string, product *model.Product, key model.VariantKey, level int) (notify.Message, bool) {
	var heading string
	switch stock.Classify(level) {
	case stock.AlertOutOfStock:
		heading = "⚠️ Out of Stock Alert"
	case stock.AlertLowStock:
		heading = "⚠️ Low Stock Alert"
	default:
		return notify.Message{}, false
	}

	name := product.Name
	if len(key) > 0 {
		name = fmt.Sprintf("%s (%s)", name, key.Describe())
	}
	return notify.Message{
		Text: fmt.Sprintf("%s\n\n**Product:** %s\n\n**Stock Left:** %d", heading, name, level),
		Buttons: []notify.Button{{
			Text: "Update Stock",
			URL:  fmt.Sprintf("%s/products/edit/%s", baseURL, product.ID),
		}},
	}, true
}

const (
	invoiceCreatedHeading = "🧾New Invoice Generated"
	invoiceUpdatedHeading = "🧾Invoice Updated"
)

// InvoiceMessage formats the new invoice summary.
func InvoiceMessage(baseURL string, invoice *model.Invoice, customer *model.Customer) notify.Message {
	return invoiceMessage(invoiceCreatedHeading, baseURL, invoice, customer)
}

func invoiceMessage(heading, baseURL string, invoice *model.Invoice, customer *model.Customer) notify.Message {
	name := ""
	if customer != nil {
		name = customer.Name
	}
	return notify.Message{
		Text: fmt.Sprintf("%s\n\n**Total Amount:** %s\n\n**Payment Method:** %s\n\n**Customer Name:** %s\n",
			heading, invoice.Total.StringFixed(2), invoice.PaymentMethod, name),
		Buttons: []notify.Button{{
			Text: "View Receipt",
			URL:  fmt.Sprintf("%s/invoices/receipt/%s", baseURL, invoice.ID),
		}},
	}
}

func (s *alertService) StockLevel(ctx context.Context, product *model.Product, key model.VariantKey, level int) stock.AlertKind {
	msg, ok := AlertMessage(s.baseURL, product, key, level)
	if !ok {
		return stock.AlertNone
	}
	kind := stock.Classify(level)
	s.send(ctx, msg, logrus.Fields{"product_id": product.ID, "level": level, "alert": kind.String()})
	return kind
}

func (s *alertService) InvoiceCreated(ctx context.Context, invoice *model.Invoice, customer *model.Customer) {
	s.send(ctx, InvoiceMessage(s.baseURL, invoice, customer), logrus.Fields{"invoice_id": invoice.ID})
}

func (s *alertService) InvoiceUpdated(ctx context.Context, invoice *model.Invoice, customer *model.Customer) {
	s.send(ctx, invoiceMessage(invoiceUpdatedHeading, s.baseURL, invoice, customer), logrus.Fields{"invoice_id": invoice.ID})
}

func (s *alertService) send(ctx context.Context, msg notify.Message, fields logrus.Fields) {
	// the request may finish before the send does
	ctx = context.WithoutCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()
		if err := s.notifier.Notify(ctx, msg); err != nil {
			logger.LogError("alert", "send", "Error sending notification", fields, err)
			return
		}
		logger.Get().WithFields(fields).Debug("notification sent")
	}()
}

func (s *alertService) Wait() {
	s.wg.Wait()
}
