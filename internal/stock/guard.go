package stock

import (
	"errors"
	"fmt"

	"bill-mart/internal/model"
)

var ErrInvalidQuantity = errors.New("quantity must be greater than 0")

// InsufficientStockError is returned when a removal exceeds its bucket.
type InsufficientStockError struct {
	Key       model.VariantKey
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("max available: %d", e.Available)
}

// Check accepts removing qty from the exact bucket of key.
// Stock of another variant is never borrowed.
func Check(b Buckets, key model.VariantKey, qty int) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	available := b.Available(key)
	if qty > available {
		return &InsufficientStockError{Key: key, Available: available, Requested: qty}
	}
	return nil
}

// Reserve checks qty and, when accepted, applies it to b.
// It returns the remaining level of the bucket.
func Reserve(b Buckets, key model.VariantKey, qty int) (int, error) {
	if err := Check(b, key, qty); err != nil {
		return b.Available(key), err
	}
	return b.Apply(model.DirectionOut, key, qty), nil
}
