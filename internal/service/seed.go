package service

import (
	"errors"

	"bill-mart/internal/model"
	"bill-mart/internal/repository"
	"bill-mart/pkg/logger"
)

// Seed creates the default privileges and roles, then an owner account when
// email is not registered yet. It is safe to run on every start.
func Seed(privRepo repository.PrivilegeRepository, roleRepo repository.RoleRepository, userRepo repository.UserRepository, email, password string) error {
	// 1. Privileges, then roles that reference them
	if err := privRepo.SeedDefaults(); err != nil {
		return err
	}
	if err := roleRepo.SeedDefaults(); err != nil {
		return err
	}

	if email == "" || password == "" {
		return nil
	}
	email = normalizeEmail(email)

	// 2. Owner account
	_, err := userRepo.FindByEmail(email)
	if err == nil {
		return nil
	}
	if !repository.IsNotFound(err) {
		return err
	}

	owner, err := roleRepo.FindByCode(model.RoleOwner)
	if err != nil {
		return err
	}
	if len(owner.Privileges) == 0 {
		return errors.New("owner role has no privileges")
	}

	user := &model.User{
		Email:      email,
		FullName:   "Store Owner",
		RoleID:     &owner.ID,
		IsActive:   true,
		Privileges: owner.Privileges,
	}
	if err := user.SetPassword(password); err != nil {
		return err
	}
	if err := userRepo.Create(user); err != nil {
		return err
	}
	logger.Get().WithField("email", email).Info("owner account created")
	return nil
}
