package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"bill-mart/internal/mail"
	"bill-mart/internal/model"
	"bill-mart/internal/repository"
	"bill-mart/pkg/logger"
)

type SendOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type VerifyOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"otp" validate:"required,len=6,numeric"`
}

type OTPService interface {
	// Send stores a fresh code for email and mails it. Earlier codes stay valid until they expire.
	Send(ctx context.Context, email string) (*model.OTPChallenge, error)
	// Verify checks code against the newest unused challenge and marks it verified.
	// The code stays usable for Redeem until it expires.
	Verify(ctx context.Context, email, code string) error
	// Redeem checks code the same way and consumes it on success.
	Redeem(ctx context.Context, email, code string) error
}

type otpService struct {
	otpRepo repository.OTPRepository
	mailer  mail.Mailer
	ttl     time.Duration
	now     Clock
}

func NewOTPService(otpRepo repository.OTPRepository, mailer mail.Mailer, ttl time.Duration, clock Clock) OTPService {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &otpService{otpRepo: otpRepo, mailer: mailer, ttl: ttl, now: defaultClock(clock)}
}

// GenerateCode returns a uniformly random 6 digit code.
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *otpService) Send(ctx context.Context, email string) (*model.OTPChallenge, error) {
	email = normalizeEmail(email)
	if err := validate(&SendOTPRequest{Email: email}); err != nil {
		return nil, err
	}

	code, err := GenerateCode()
	if err != nil {
		return nil, err
	}
	challenge := &model.OTPChallenge{Email: email, Code: code, ExpiresAt: s.now().Add(s.ttl)}
	challenge.CreatedAt = s.now()
	if err := s.otpRepo.Create(challenge); err != nil {
		return nil, err
	}

	if err := s.mailer.SendOTP(ctx, email, code, s.ttl); err != nil {
		logger.LogError("otp", "Send", "Error sending OTP email", email, err)
		return nil, err
	}
	return challenge, nil
}

func (s *otpService) Verify(ctx context.Context, email, code string) error {
	challenge, err := s.check(ctx, email, code)
	if err != nil {
		return err
	}
	if challenge.VerifiedAt != nil {
		return nil
	}
	return s.otpRepo.MarkVerified(challenge.ID, s.now())
}

func (s *otpService) Redeem(ctx context.Context, email, code string) error {
	challenge, err := s.check(ctx, email, code)
	if err != nil {
		return err
	}
	if err := s.otpRepo.Consume(challenge.ID, s.now()); err != nil {
		if repository.IsNotFound(err) {
			return ErrOTPNotFound
		}
		return err
	}
	return nil
}

func (s *otpService) check(ctx context.Context, email, code string) (*model.OTPChallenge, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	challenge, err := s.otpRepo.FindLatest(normalizeEmail(email))
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrOTPNotFound
		}
		return nil, err
	}

	if challenge.Code != strings.TrimSpace(code) {
		return nil, ErrOTPInvalid
	}
	if challenge.Expired(s.now()) {
		return nil, ErrOTPExpired
	}
	return challenge, nil
}
