package service

import (
	"testing"

	"bill-mart/internal/model"
	"bill-mart/internal/repository"
	"bill-mart/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuth(t *testing.T) (AuthService, repository.UserRepository) {
	t.Helper()
	db := testutil.NewDB(t)
	userRepo := repository.NewUserRepo(db)
	require.NoError(t, Seed(repository.NewPrivilegeRepo(db), repository.NewRoleRepo(db), userRepo, "Owner@Shop.test", "secret123"))
	return NewAuthService(userRepo), userRepo
}

func TestSeed_IsIdempotent(t *testing.T) {
	db := testutil.NewDB(t)
	privRepo := repository.NewPrivilegeRepo(db)
	roleRepo := repository.NewRoleRepo(db)
	userRepo := repository.NewUserRepo(db)

	for i := 0; i < 2; i++ {
		require.NoError(t, Seed(privRepo, roleRepo, userRepo, "owner@shop.test", "secret123"))
	}

	privileges, err := privRepo.FindAll()
	require.NoError(t, err)
	assert.Len(t, privileges, len(model.DefaultPrivileges))

	cashier, err := roleRepo.FindByCode(model.RoleCashier)
	require.NoError(t, err)
	assert.Len(t, cashier.Privileges, len(model.CashierPrivileges))

	owner, err := userRepo.FindByEmail("owner@shop.test")
	require.NoError(t, err)
	assert.Equal(t, model.RoleOwner, owner.Role.Code)
	assert.Len(t, owner.Privileges, len(model.DefaultPrivileges))
}

func TestLogin(t *testing.T) {
	auth, _ := newAuth(t)

	_, err := auth.Login(&LoginRequest{Email: "owner@shop.test", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = auth.Login(&LoginRequest{Email: "nobody@shop.test", Password: "secret123"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	res, err := auth.Login(&LoginRequest{Email: "owner@shop.test", Password: "secret123"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Contains(t, res.Privileges, model.PrivInvoiceCreate)

	validated, err := auth.ValidateToken(res.Token)
	require.NoError(t, err)
	assert.Equal(t, "owner@shop.test", validated.User.Email)
}

func TestLogin_NewSessionReplacesOld(t *testing.T) {
	auth, _ := newAuth(t)

	first, err := auth.Login(&LoginRequest{Email: "owner@shop.test", Password: "secret123"})
	require.NoError(t, err)
	_, err = auth.Login(&LoginRequest{Email: "owner@shop.test", Password: "secret123"})
	require.NoError(t, err)

	_, err = auth.ValidateToken(first.Token)
	assert.ErrorIs(t, err, ErrSessionReplaced)
}

func TestResetPassword(t *testing.T) {
	auth, _ := newAuth(t)

	err := auth.ResetPassword(&ResetPasswordRequest{Email: "owner@shop.test", OldPassword: "nope", NewPassword: "another1"})
	assert.ErrorIs(t, err, ErrWrongPassword)

	require.NoError(t, auth.ResetPassword(&ResetPasswordRequest{Email: "owner@shop.test", OldPassword: "secret123", NewPassword: "another1"}))

	_, err = auth.Login(&LoginRequest{Email: "owner@shop.test", Password: "secret123"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = auth.Login(&LoginRequest{Email: "owner@shop.test", Password: "another1"})
	assert.NoError(t, err)
}

func TestLogout_RevokesToken(t *testing.T) {
	auth, userRepo := newAuth(t)

	res, err := auth.Login(&LoginRequest{Email: "owner@shop.test", Password: "secret123"})
	require.NoError(t, err)
	user, err := userRepo.FindByEmail("owner@shop.test")
	require.NoError(t, err)

	require.NoError(t, auth.Logout(user.ID))
	_, err = auth.ValidateToken(res.Token)
	assert.ErrorIs(t, err, ErrSessionReplaced)
}
