package handler

import (
	"time"

	"hlg-fitness/internal/middleware"
	"hlg-fitness/internal/service"

	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	authService service.AuthService
	cookieName  string
	cookieTTL   time.Duration
	secure      bool
}

func NewAuthHandler(authService service.AuthService, cookieName string, cookieTTL time.Duration, secure bool) *AuthHandler {
	return &AuthHandler{authService: authService, cookieName: cookieName, cookieTTL: cookieTTL, secure: secure}
}

// LoginRequest represents the login request body. Login accepts a username or an email.
type LoginRequest struct {
	Login    string `json:"login"`
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *AuthHandler) setSession(c *fiber.Ctx, token string) {
	c.Cookie(&fiber.Cookie{
		Name:     h.cookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(h.cookieTTL),
		HTTPOnly: true,
		Secure:   h.secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// Register creates an account and opens a session
// POST /api/auth/register
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req service.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	response, err := h.authService.Register(&req)
	if err != nil {
		return respondError(c, err, "Error registering user")
	}

	h.setSession(c, response.Token)
	return c.Status(fiber.StatusCreated).JSON(response)
}

// Login handles user authentication
// POST /api/auth/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	login := req.Login
	if login == "" {
		login = req.Username
	}
	if login == "" || req.Password == "" {
		return badRequest(c, "Username and password are required")
	}

	response, err := h.authService.Login(login, req.Password)
	if err != nil {
		return respondError(c, err, "Error logging in")
	}

	h.setSession(c, response.Token)
	return c.JSON(response)
}

// Logout invalidates every token issued to the user
// POST /api/auth/logout
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if err := h.authService.Logout(middleware.UserID(c)); err != nil {
		return respondError(c, err, "Error logging out")
	}
	c.ClearCookie(h.cookieName)
	return c.JSON(fiber.Map{"message": "Logged out successfully"})
}

// Me
// GET /api/auth/me
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	user, err := h.authService.Me(middleware.UserID(c))
	if err != nil {
		return respondError(c, err, "Error fetching profile")
	}
	return c.JSON(user)
}

// UpdateMe accepts JSON or a multipart form with an optional "avatar" file.
// PUT /api/auth/me
func (h *AuthHandler) UpdateMe(c *fiber.Ctx) error {
	var req service.UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid profile data")
	}

	user, err := h.authService.UpdateMe(c.UserContext(), middleware.UserID(c), &req, formFile(c, "avatar"))
	if err != nil {
		return respondError(c, err, "Error updating profile")
	}
	return c.JSON(user)
}
