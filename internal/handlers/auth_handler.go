package handlers

import (
	"event-ticketing-backend/internal/middleware"
	"event-ticketing-backend/internal/utils"

	"github.com/gofiber/fiber/v2"
)

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type CreateUserRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role" validate:"required,oneof=admin operator"`
}

// Login authenticates an administrator and returns a session token
// @Summary Admin login
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Credentials"
// @Success 200 {object} utils.Response
// @Failure 401 {object} utils.Response
// @Router /auth/login [post]
func (h *Handler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := middleware.ValidateBody(&req)(c); err != nil {
		return err
	}

	result, err := h.authSvc.Authenticate(req.Email, req.Password)
	if err != nil {
		return utils.Error(c, "Invalid credentials", fiber.StatusUnauthorized)
	}

	return utils.Success(c, result, "Login successful")
}

// CreateUser registers a new administrative user
// @Summary Create user
// @Tags Auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateUserRequest true "User data"
// @Success 201 {object} utils.Response
// @Router /admin/users [post]
func (h *Handler) CreateUser(c *fiber.Ctx) error {
	var req CreateUserRequest
	if err := middleware.ValidateBody(&req)(c); err != nil {
		return err
	}

	user, err := h.authSvc.CreateUser(req.Email, req.Password, req.Role)
	if err != nil {
		return utils.Error(c, err.Error(), fiber.StatusBadRequest)
	}

	return utils.Success(c, user, "User created successfully", fiber.StatusCreated)
}

// GetProfile returns the authenticated administrator's profile
func (h *Handler) GetProfile(c *fiber.Ctx) error {
	cred, err := middleware.CredentialFromContext(c)
	if err != nil {
		return err
	}

	user, err := h.authSvc.GetUserProfile(cred.UserID)
	if err != nil {
		return utils.Error(c, "User not found", fiber.StatusNotFound)
	}

	return utils.Success(c, user, "Profile retrieved successfully")
}

// WhoAmI resolves whichever bearer credential the request carries and echoes
// the event scope and capability set attached to it.
// @Summary Resolve credential
// @Tags Auth
// @Produce json
// @Success 200 {object} utils.Response
// @Failure 401 {object} utils.Response
// @Router /auth/whoami [get]
func (h *Handler) WhoAmI(c *fiber.Ctx) error {
	cred, err := middleware.CredentialFromContext(c)
	if err != nil {
		return err
	}

	return utils.Success(c, cred, "Credential resolved")
}
