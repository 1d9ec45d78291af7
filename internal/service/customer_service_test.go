package service

import (
	"context"
	"testing"

	"bill-mart/internal/model"
	"bill-mart/pkg/validator"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCustomerCreate_NormalizesContact(t *testing.T) {
	f := newFixture(t, false)

	c, err := f.customers.Create(&CustomerRequest{Name: " Ravi ", Email: "Ravi@Example.com", Phone: "098765 43210"}, f.actor)
	require.NoError(t, err)
	assert.Equal(t, "Ravi", c.Name)
	assert.Equal(t, "ravi@example.com", c.Email)
	assert.Equal(t, "+919876543210", c.Phone)
}

func TestCustomerCreate_RejectsBadPhone(t *testing.T) {
	f := newFixture(t, false)

	_, err := f.customers.Create(&CustomerRequest{Name: "Ravi", Phone: "12"}, f.actor)
	var verr *validator.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestCustomerDelete_RefusedWithInvoices(t *testing.T) {
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

	assert.ErrorIs(t, f.customers.Delete(c.ID, f.actor), ErrCustomerInUse)

	other := f.customer(t, "")
	require.NoError(t, f.customers.Delete(other.ID, f.actor))
	_, err = f.customers.Get(other.ID)
	assert.ErrorIs(t, err, ErrCustomerNotFound)
}
