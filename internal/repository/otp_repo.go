package repository

import (
	"time"

	"bill-mart/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OTPRepository interface {
	Create(challenge *model.OTPChallenge) error
	// FindLatest returns the newest unconsumed challenge for email.
	FindLatest(email string) (*model.OTPChallenge, error)
	MarkVerified(id uuid.UUID, at time.Time) error
	// Consume marks the challenge used. A challenge consumed before is reported as not found.
	Consume(id uuid.UUID, at time.Time) error
	WithTx(tx *gorm.DB) OTPRepository
}

type otpRepo struct {
	db *gorm.DB
}

func NewOTPRepo(db *gorm.DB) OTPRepository {
	return &otpRepo{db}
}

func (r *otpRepo) WithTx(tx *gorm.DB) OTPRepository {
	return &otpRepo{tx}
}

func (r *otpRepo) Create(challenge *model.OTPChallenge) error {
	return r.db.Create(challenge).Error
}

func (r *otpRepo) FindLatest(email string) (*model.OTPChallenge, error) {
	var challenge model.OTPChallenge
	err := r.db.
		Where("email = ? AND consumed_at IS NULL", email).
		Order("created_at DESC").
		First(&challenge).Error
	if err != nil {
		return nil, err
	}
	return &challenge, nil
}

func (r *otpRepo) MarkVerified(id uuid.UUID, at time.Time) error {
	return r.db.Model(&model.OTPChallenge{}).Where("id = ?", id).Update("verified_at", at).Error
}

func (r *otpRepo) Consume(id uuid.UUID, at time.Time) error {
	res := r.db.Model(&model.OTPChallenge{}).
		Where("id = ? AND consumed_at IS NULL", id).
		Update("consumed_at", at)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
