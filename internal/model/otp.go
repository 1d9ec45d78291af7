package model

import "time"

// OTPChallenge is a short-lived numeric code mailed to a customer before billing.
type OTPChallenge struct {
	BaseModel
	Email      string     `gorm:"type:varchar(255);not null;index" json:"email"`
	Code       string     `gorm:"type:varchar(6);not null" json:"-"`
	ExpiresAt  time.Time  `gorm:"not null" json:"expires_at"`
	VerifiedAt *time.Time `json:"verified_at,omitempty"`
	ConsumedAt *time.Time `json:"consumed_at,omitempty"`
}

func (o *OTPChallenge) Expired(now time.Time) bool {
	return !now.Before(o.ExpiresAt)
}
