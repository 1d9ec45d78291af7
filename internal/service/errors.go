package service

import (
	"errors"
	"fmt"
	"strings"

	"bill-mart/internal/model"

	"github.com/google/uuid"
)

var (
	ErrCategoryNotFound    = errors.New("category not found")
	ErrProductNotFound     = errors.New("product not found")
	ErrCustomerNotFound    = errors.New("customer not found")
	ErrInvoiceNotFound     = errors.New("invoice not found")
	ErrTransactionNotFound = errors.New("stock transaction not found")

	ErrCategoryInUse = errors.New("category still has products")
	ErrProductInUse  = errors.New("product is referenced by invoices")
	ErrCustomerInUse = errors.New("customer has invoices")

	ErrLabelsImmutable    = errors.New("custom labels cannot be changed after creation")
	ErrInvalidVariant     = errors.New("custom fields must match the product's custom labels in order")
	ErrOpeningStockLabels = errors.New("opening stock is only supported for products without custom labels")
	ErrTotalMismatch      = errors.New("total does not match the sum of line items")
	ErrNegativeAmount     = errors.New("amount cannot be negative")
	ErrStockBusy          = errors.New("stock is being updated, please retry")

	ErrOTPRequired = errors.New("OTP verification required")
	ErrOTPNotFound = errors.New("OTP not found")
	ErrOTPInvalid  = errors.New("Invalid OTP")
	ErrOTPExpired  = errors.New("OTP expired")
)

// LineRejection describes one invoice line the stock guard refused.
type LineRejection struct {
	Line        int              `json:"line"`
	ProductID   uuid.UUID        `json:"product_id"`
	ProductName string           `json:"product_name"`
	Variant     model.VariantKey `json:"custom_fields"`
	Requested   int              `json:"requested"`
	Available   int              `json:"available"`
}

func (r LineRejection) String() string {
	name := r.ProductName
	if len(r.Variant) > 0 {
		name += " (" + r.Variant.Describe() + ")"
	}
	return fmt.Sprintf("%s: max available: %d", name, r.Available)
}

// StockRejectedError lists every line that failed the stock guard. Nothing was written.
type StockRejectedError struct {
	Lines []LineRejection
}

func (e *StockRejectedError) Error() string {
	parts := make([]string, len(e.Lines))
	for i, l := range e.Lines {
		parts[i] = l.String()
	}
	return strings.Join(parts, "; ")
}

// IsNotFound reports whether err is one of the service not-found errors.
func IsNotFound(err error) bool {
	for _, target := range []error{ErrCategoryNotFound, ErrProductNotFound, ErrCustomerNotFound, ErrInvoiceNotFound, ErrTransactionNotFound, ErrUserNotFound} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsConflict reports errors caused by the current state of stored data.
func IsConflict(err error) bool {
	for _, target := range []error{ErrCategoryInUse, ErrProductInUse, ErrCustomerInUse, ErrLabelsImmutable, ErrStockBusy} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsBadInput reports request errors that are not struct validation failures.
func IsBadInput(err error) bool {
	for _, target := range []error{ErrInvalidVariant, ErrOpeningStockLabels, ErrTotalMismatch, ErrNegativeAmount,
		ErrOTPRequired, ErrOTPNotFound, ErrOTPInvalid, ErrOTPExpired} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
