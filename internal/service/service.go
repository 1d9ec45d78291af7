// Package service holds the shop's business rules on top of the repositories.
package service

import (
	"context"
	"errors"
	"time"

	"bill-mart/internal/lock"
	"bill-mart/internal/model"
	"bill-mart/internal/ws"
	"bill-mart/pkg/validator"

	"github.com/google/uuid"
)

// Actor is the signed-in user performing a change, taken from the JWT claims.
type Actor struct {
	ID    string
	Name  string
	Email string
}

func (a Actor) ws() *ws.Actor {
	return &ws.Actor{ID: a.ID, Name: a.Name, Email: a.Email}
}

// Clock returns the current time. Tests replace it.
type Clock func() time.Time

func defaultClock(c Clock) Clock {
	if c == nil {
		return time.Now
	}
	return c
}

// resolveVariant checks key against the product's labels and returns its normalized form.
// Variant-tracked products need every label, in order, with a value. Other products take no key.
func resolveVariant(p *model.Product, key model.VariantKey) (model.VariantKey, error) {
	key = key.Normalize()
	if !p.TracksVariants() {
		if !key.IsEmpty() {
			return nil, ErrInvalidVariant
		}
		return key, nil
	}
	if !p.CustomLabels.Equal(key.Labels()) {
		return nil, ErrInvalidVariant
	}
	for _, a := range key {
		if a.Value == "" {
			return nil, ErrInvalidVariant
		}
	}
	return key, nil
}

func productLockKeys(ids []uuid.UUID) []string {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = lock.ProductKey(id.String())
	}
	return keys
}

// lockProducts takes the per-product stock locks; a timeout is reported as ErrStockBusy.
func lockProducts(ctx context.Context, l lock.Locker, ids []uuid.UUID) (lock.Unlock, error) {
	unlock, err := lock.LockAll(ctx, l, productLockKeys(ids))
	if errors.Is(err, lock.ErrNotObtained) {
		return nil, ErrStockBusy
	}
	return unlock, err
}

// lockInvoice serializes changes to one invoice. It is always taken before product locks.
func lockInvoice(ctx context.Context, l lock.Locker, id uuid.UUID) (lock.Unlock, error) {
	unlock, err := l.Lock(ctx, lock.InvoiceKey(id.String()))
	if errors.Is(err, lock.ErrNotObtained) {
		return nil, ErrStockBusy
	}
	return unlock, err
}

func validate(req interface{}) error {
	return validator.Validate(req)
}
