package validator

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name       string    `validate:"required,max=5"`
	CategoryID uuid.UUID `validate:"uuid_required"`
	Phone      string    `validate:"omitempty,phone"`
}

func TestValidate(t *testing.T) {
	ok := sample{Name: "Rice", CategoryID: uuid.New(), Phone: "9876543210"}
	assert.NoError(t, Validate(&ok))

	err := Validate(&sample{Name: "Basmati", Phone: "12"})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))

	tags := map[string]string{}
	for _, f := range verr.Fields {
		tags[f.FailedField] = f.Tag
	}
	assert.Equal(t, "max", tags["sample.Name"])
	assert.Equal(t, "uuid_required", tags["sample.CategoryID"])
	assert.Equal(t, "phone", tags["sample.Phone"])
}

func TestNormalizePhone(t *testing.T) {
	got, err := NormalizePhone("098765 43210", "IN")
	require.NoError(t, err)
	assert.Equal(t, "+919876543210", got)

	got, err = NormalizePhone("+1 650-253-0000", "IN")
	require.NoError(t, err)
	assert.Equal(t, "+16502530000", got)

	_, err = NormalizePhone("abc", "IN")
	assert.Error(t, err)
}
