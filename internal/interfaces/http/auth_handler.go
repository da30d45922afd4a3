package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/storelink/transfer-api/internal/application/auth"
	"github.com/storelink/transfer-api/internal/application/dto"
)

// AuthHandler handles registration and login.
type AuthHandler struct {
	uc *auth.UseCase
}

// NewAuthHandler builds the auth handler.
func NewAuthHandler(uc *auth.UseCase) *AuthHandler {
	return &AuthHandler{uc: uc}
}

// Register godoc
// @Summary      Register user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RegisterRequest  true  "email, password, name"
// @Success      201   {object}  dto.UserResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/auth/register [post]
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var in dto.RegisterRequest
	if !parseAndValidate(c, &in) {
		return nil
	}
	user, err := h.uc.Register(c.Context(), in)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(user)
}

// Login godoc
// @Summary      Log in
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body  dto.LoginRequest  true  "email, password"
// @Success      200   {object}  dto.LoginResponse
// @Failure      401   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Router       /api/auth/login [post]
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var in dto.LoginRequest
	if !parseAndValidate(c, &in) {
		return nil
	}
	out, err := h.uc.Login(c.Context(), in)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(out)
}

// GrantStore godoc
// @Summary      Grant a user a role on a store
// @Tags         auth
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.GrantStoreRequest  true  "user_id, store_id, role"
// @Success      201   {object}  map[string]string
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/auth/grants [post]
func (h *AuthHandler) GrantStore(c *fiber.Ctx) error {
	var in dto.GrantStoreRequest
	if !parseAndValidate(c, &in) {
		return nil
	}
	if err := h.uc.GrantStore(c.Context(), in); err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "grant created"})
}
