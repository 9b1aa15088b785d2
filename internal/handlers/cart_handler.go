package handlers

import (
	"github.com/arzan03/storefront/internal/apperror"
	"github.com/arzan03/storefront/internal/services"
	"github.com/gofiber/fiber/v2"
)

type CartHandler struct {
	carts *services.CartService
}

func NewCartHandler(carts *services.CartService) *CartHandler {
	return &CartHandler{carts: carts}
}

func (h *CartHandler) CaptureAbandoned(c *fiber.Ctx) error {
	var request services.AbandonedCartInput
	if err := c.BodyParser(&request); err != nil {
		return apperror.BadRequest("invalid request body")
	}

	cart, err := h.carts.CaptureAbandoned(c.UserContext(), request)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusCreated, cart)
}
