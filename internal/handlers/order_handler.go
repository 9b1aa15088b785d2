package handlers

import (
	"github.com/arzan03/storefront/internal/apperror"
	"github.com/arzan03/storefront/internal/middleware"
	"github.com/arzan03/storefront/internal/services"
	"github.com/gofiber/fiber/v2"
)

type OrderHandler struct {
	orders *services.OrderService
}

func NewOrderHandler(orders *services.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

// Create is open to guests; a valid token links the order to the account.
func (h *OrderHandler) Create(c *fiber.Ctx) error {
	var request services.CreateOrderInput
	if err := c.BodyParser(&request); err != nil {
		return apperror.BadRequest("invalid request body")
	}

	var buyer *services.Actor
	if actor, ok := middleware.ActorFrom(c); ok {
		buyer = &actor
	}

	order, err := h.orders.Create(c.UserContext(), buyer, request)
	if err != nil {
		return err
	}

	status := fiber.StatusCreated
	if order.Duplicated {
		status = fiber.StatusOK
	}
	return respond(c, status, order)
}

func (h *OrderHandler) Mine(c *fiber.Ctx) error {
	actor, _ := middleware.ActorFrom(c)
	orders, err := h.orders.ListMine(c.UserContext(), actor)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, orders)
}
