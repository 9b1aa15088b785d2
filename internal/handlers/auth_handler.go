package handlers

import (
	"github.com/arzan03/storefront/internal/apperror"
	"github.com/arzan03/storefront/internal/middleware"
	"github.com/arzan03/storefront/internal/services"
	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	auth *services.AuthService
}

func NewAuthHandler(auth *services.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var request services.RegisterInput
	if err := c.BodyParser(&request); err != nil {
		return apperror.BadRequest("invalid request body")
	}

	session, err := h.auth.Register(c.UserContext(), request)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusCreated, session)
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var request services.LoginInput
	if err := c.BodyParser(&request); err != nil {
		return apperror.BadRequest("invalid request body")
	}

	session, err := h.auth.Login(c.UserContext(), request)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, session)
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	actor, _ := middleware.ActorFrom(c)
	user, err := h.auth.Me(c.UserContext(), actor)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, user)
}

func (h *AuthHandler) MakeAdmin(c *fiber.Ctx) error {
	var request struct {
		Email string `json:"email"`
	}
	if err := c.BodyParser(&request); err != nil {
		return apperror.BadRequest("invalid request body")
	}

	user, err := h.auth.MakeAdmin(c.UserContext(), request.Email)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, user)
}

func (h *AuthHandler) ForgotPassword(c *fiber.Ctx) error {
	var request struct {
		Email string `json:"email"`
	}
	if err := c.BodyParser(&request); err != nil {
		return apperror.BadRequest("invalid request body")
	}

	h.auth.ForgotPassword(c.UserContext(), request.Email)
	return respondMessage(c, fiber.StatusOK, "If the email is registered, a reset link has been sent")
}

func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var request services.ResetPasswordInput
	if err := c.BodyParser(&request); err != nil {
		return apperror.BadRequest("invalid request body")
	}

	if err := h.auth.ResetPassword(c.UserContext(), request); err != nil {
		return err
	}
	return respondMessage(c, fiber.StatusOK, "Password updated")
}
