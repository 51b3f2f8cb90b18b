package http

import (
	"errors"

	"lungscreen/internal/auth/adapter/policy"
	"lungscreen/internal/auth/usecase"
	"lungscreen/internal/shared/utils"

	"github.com/gofiber/fiber/v2"
)

// AuthHTTPHandler handles HTTP requests for authentication
type AuthHTTPHandler struct {
	usecase usecase.AuthUsecaseInterface
}

// NewAuthHTTPHandler creates a new authentication HTTP handler
func NewAuthHTTPHandler(uc usecase.AuthUsecaseInterface) *AuthHTTPHandler {
	return &AuthHTTPHandler{usecase: uc}
}

// SetupAuthRoutesWithMiddleware sets up authentication routes with middleware
func (h *AuthHTTPHandler) SetupAuthRoutesWithMiddleware(router fiber.Router, middleware *AuthMiddleware) {
	router.Post("/api/signup", h.Signup)
	router.Post("/api/login", h.Login)

	protected := router.Group("/", middleware.Protect())
	protected.Get("/api/verify", h.Verify)
}

// Signup handles doctor registration. Returns 201 without a token; clients
// follow up with a login using the same credentials.
func (h *AuthHTTPHandler) Signup(c *fiber.Ctx) error {
	var req usecase.SignupRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
		})
	}

	doctor, err := h.usecase.Signup(c.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrEmailTaken):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "User already exists",
			})
		case errors.Is(err, usecase.ErrMissingFields):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "Missing required fields",
			})
		case errors.Is(err, policy.ErrPolicyRejected):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "Credentials do not meet the registration requirements",
			})
		default:
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": err.Error(),
			})
		}
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "User created successfully",
		"user_id": doctor.ID,
	})
}

// Login handles doctor login. Token and profile are returned together.
func (h *AuthHTTPHandler) Login(c *fiber.Ctx) error {
	var req usecase.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
		})
	}

	doctor, token, err := h.usecase.Login(c.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrInvalidCredentials),
			errors.Is(err, usecase.ErrUserNotFound):
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Invalid email or password",
			})
		case errors.Is(err, usecase.ErrMissingFields),
			errors.Is(err, usecase.ErrInvalidEmailFormat):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "Missing email or password",
			})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"message": "Error during login",
			})
		}
	}

	return c.JSON(fiber.Map{
		"token": token,
		"user":  doctor.Profile(),
	})
}

// Verify returns the profile attached to a valid bearer token. Used by
// clients to restore a persisted session at startup.
func (h *AuthHTTPHandler) Verify(c *fiber.Ctx) error {
	email, err := utils.GetUserEmailFromContext(c.UserContext())
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "Token is invalid!",
		})
	}

	token, _ := extractBearer(c)
	doctor, err := h.usecase.GetUserFromToken(c.Context(), token)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "User not found!",
		})
	}

	if doctor.Email != email {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "Token is invalid!",
		})
	}

	return c.JSON(fiber.Map{
		"user": doctor.Profile(),
	})
}

func extractBearer(c *fiber.Ctx) (string, bool) {
	authHeader := c.Get("Authorization")
	const prefix = "Bearer "
	if len(authHeader) > len(prefix) && authHeader[:len(prefix)] == prefix {
		return authHeader[len(prefix):], true
	}
	return "", false
}
