package handler

import (
	"errors"

	"bill-mart/internal/middleware"
	"bill-mart/internal/service"
	"bill-mart/pkg/jwt"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type AuthHandler struct {
	authService service.AuthService
}

func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// ValidateTokenRequest represents the validate token request body
type ValidateTokenRequest struct {
	Token string `json:"token"`
}

func (h *AuthHandler) authError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrSessionReplaced),
		errors.Is(err, jwt.ErrInvalidToken):
		return fail(c, 401, err.Error())
	case errors.Is(err, service.ErrUserInactive):
		return fail(c, 403, err.Error())
	case errors.Is(err, service.ErrWrongPassword):
		return fail(c, 400, err.Error())
	}
	return respondError(c, "auth", err)
}

// Login handles user authentication
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req service.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, 400, "Invalid JSON")
	}

	response, err := h.authService.Login(&req)
	if err != nil {
		return h.authError(c, err)
	}
	return success(c, 200, "Login successful", response)
}

// ResetPassword handles password change
// POST /api/v1/auth/reset-password
func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var req service.ResetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, 400, "Invalid JSON")
	}

	if err := h.authService.ResetPassword(&req); err != nil {
		return h.authError(c, err)
	}
	return success(c, 200, "Password updated successfully", nil)
}

// ValidateToken handles JWT token validation
// POST /api/v1/auth/validate-token
func (h *AuthHandler) ValidateToken(c *fiber.Ctx) error {
	var req ValidateTokenRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, 400, "Invalid JSON")
	}
	if req.Token == "" {
		return fail(c, 400, "Token is required")
	}

	response, err := h.authService.ValidateToken(req.Token)
	if err != nil {
		return h.authError(c, err)
	}
	return success(c, 200, "Token is valid", response)
}

// Logout revokes every token of the signed-in user
// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	id, err := uuid.Parse(middleware.CurrentActor(c).ID)
	if err != nil {
		return fail(c, 401, "Unauthorized")
	}
	if err := h.authService.Logout(id); err != nil {
		return h.authError(c, err)
	}
	return success(c, 200, "Logged out", nil)
}
