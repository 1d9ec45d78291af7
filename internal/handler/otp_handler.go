package handler

import (
	"bill-mart/internal/service"

	"github.com/gofiber/fiber/v2"
)

type OTPHandler struct {
	service service.OTPService
}

func NewOTPHandler(s service.OTPService) *OTPHandler {
	return &OTPHandler{service: s}
}

// SendOTP mails a fresh code to the customer
// POST /api/v1/otp/send
func (h *OTPHandler) SendOTP(c *fiber.Ctx) error {
	var req service.SendOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, 400, "Invalid JSON")
	}
	challenge, err := h.service.Send(c.UserContext(), req.Email)
	if err != nil {
		return respondError(c, "otp", err)
	}
	return success(c, 200, "OTP sent", fiber.Map{"email": challenge.Email, "expires_at": challenge.ExpiresAt})
}

// VerifyOTP checks a code; it stays valid for the invoice it confirms
// POST /api/v1/otp/verify
func (h *OTPHandler) VerifyOTP(c *fiber.Ctx) error {
	var req service.VerifyOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, 400, "Invalid JSON")
	}
	if err := h.service.Verify(c.UserContext(), req.Email, req.Code); err != nil {
		return respondError(c, "otp", err)
	}
	return success(c, 200, "OTP verified", nil)
}
