package jwt

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidate(t *testing.T) {
	Configure("test-secret", "bill-mart-test", 0)
	id := uuid.New()

	token, err := GenerateToken(id, "owner@example.com", "Owner", "OWNER", []string{"invoice:create"}, "v1")
	require.NoError(t, err)

	claims, err := ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, id, claims.UserID)
	assert.Equal(t, "OWNER", claims.RoleCode)
	assert.Equal(t, []string{"invoice:create"}, claims.Privileges)
	assert.Equal(t, "v1", claims.TokenVersion)
}

func TestValidateToken_Rejects(t *testing.T) {
	Configure("test-secret", "bill-mart-test", 0)
	token, err := GenerateToken(uuid.New(), "a@b.c", "A", "CASHIER", nil, "v1")
	require.NoError(t, err)

	Configure("other-secret", "", 0)
	_, err = ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = ValidateToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
