package repository

import (
	"strings"

	"bill-mart/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserRepository interface {
	// FindByEmail matches case-insensitively.
	FindByEmail(email string) (*model.User, error)
	FindByID(id uuid.UUID) (*model.User, error)
	Create(user *model.User) error
	// SetCredentials stores a new password hash and session token together.
	SetCredentials(userID uuid.UUID, hashedPassword, tokenVersion string) error
	// UpdateTokenVersion rotates the session token; older JWTs stop validating.
	UpdateTokenVersion(userID uuid.UUID, version string) error
}

type userRepo struct {
	db *gorm.DB
}

func NewUserRepo(db *gorm.DB) UserRepository {
	return &userRepo{db}
}

func withAccess(db *gorm.DB) *gorm.DB {
	return db.Preload("Role").Preload("Privileges")
}

func (r *userRepo) FindByEmail(email string) (*model.User, error) {
	var user model.User
	err := r.db.Scopes(withAccess).
		Where("LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) FindByID(id uuid.UUID) (*model.User, error) {
	var user model.User
	if err := r.db.Scopes(withAccess).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) Create(user *model.User) error {
	return r.db.Create(user).Error
}

func (r *userRepo) SetCredentials(userID uuid.UUID, hashedPassword, tokenVersion string) error {
	res := r.db.Model(&model.User{}).Where("id = ?", userID).Updates(map[string]any{
		"password":      hashedPassword,
		"token_version": tokenVersion,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *userRepo) UpdateTokenVersion(userID uuid.UUID, version string) error {
	return r.db.Model(&model.User{}).Where("id = ?", userID).Update("token_version", version).Error
}
