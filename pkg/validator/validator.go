package validator

import (
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/ttacon/libphonenumber"
)

type ErrorResponse struct {
	FailedField string `json:"field"`
	Tag         string `json:"tag"`
	Value       string `json:"value,omitempty"`
}

// ValidationError carries every failed field of one struct.
type ValidationError struct {
	Fields []*ErrorResponse
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	first := e.Fields[0]
	return fmt.Sprintf("Validation failed: Field '%s' failed on tag '%s'", first.FailedField, first.Tag)
}

// NewValidationError builds a single-field ValidationError for checks done outside struct tags.
func NewValidationError(field, tag string) *ValidationError {
	return &ValidationError{Fields: []*ErrorResponse{{FailedField: field, Tag: tag}}}
}

var (
	validate = validator.New()

	regionMu    sync.RWMutex
	phoneRegion = "IN"
)

func init() {
	// Register custom validation for UUID
	validate.RegisterValidation("uuid_required", func(fl validator.FieldLevel) bool {
		if id, ok := fl.Field().Interface().(uuid.UUID); ok {
			return id != uuid.Nil
		}
		return false
	})

	validate.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return ValidatePhoneNumber(fl.Field().String(), PhoneRegion()) == nil
	})
}

// SetPhoneRegion sets the default region (ISO 3166 alpha-2) for numbers without a country code.
func SetPhoneRegion(region string) {
	regionMu.Lock()
	defer regionMu.Unlock()
	phoneRegion = strings.ToUpper(region)
}

func PhoneRegion() string {
	regionMu.RLock()
	defer regionMu.RUnlock()
	return phoneRegion
}

func ValidatePhoneNumber(phoneNumber, region string) error {
	p, err := libphonenumber.Parse(phoneNumber, region)
	if err != nil {
		return err
	}
	if !libphonenumber.IsValidNumber(p) {
		return fmt.Errorf("phone number is not valid")
	}
	return nil
}

// NormalizePhone returns the E.164 form of a valid number.
func NormalizePhone(phoneNumber, region string) (string, error) {
	p, err := libphonenumber.Parse(phoneNumber, region)
	if err != nil {
		return "", err
	}
	if !libphonenumber.IsValidNumber(p) {
		return "", fmt.Errorf("phone number is not valid")
	}
	return libphonenumber.Format(p, libphonenumber.E164), nil
}

func ValidateStruct(data interface{}) []*ErrorResponse {
	var errors []*ErrorResponse
	err := validate.Struct(data)
	if err != nil {
		verrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return []*ErrorResponse{{FailedField: "", Tag: err.Error()}}
		}
		for _, err := range verrs {
			var element ErrorResponse
			element.FailedField = err.StructNamespace()
			element.Tag = err.Tag()
			element.Value = err.Param()
			errors = append(errors, &element)
		}
	}
	return errors
}

// Validate is ValidateStruct returning a *ValidationError, or nil.
func Validate(data interface{}) error {
	if errs := ValidateStruct(data); len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}
