package handlers

import (
	"github.com/arzan03/storefront/internal/apperror"
	"github.com/arzan03/storefront/internal/middleware"
	"github.com/arzan03/storefront/internal/models"
	"github.com/arzan03/storefront/internal/services"
	"github.com/gofiber/fiber/v2"
)

// AdminHandler serves the back-office order endpoints.
type AdminHandler struct {
	orders   *services.OrderService
	payments *services.PaymentService
}

func NewAdminHandler(orders *services.OrderService, payments *services.PaymentService) *AdminHandler {
	return &AdminHandler{orders: orders, payments: payments}
}

// ListOrders lists all orders, newest first.
func (h *AdminHandler) ListOrders(c *fiber.Ctx) error {
	page, err := h.orders.List(c.UserContext(), models.OrderFilter{
		PaymentStatus:  c.Query("paymentStatus"),
		ShippingStatus: c.Query("shippingStatus"),
		Page:           c.QueryInt("page", 1),
		Limit:          c.QueryInt("limit", 0),
	})
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, page)
}

func (h *AdminHandler) UpdateStatus(c *fiber.Ctx) error {
	var request services.UpdateStatusInput
	if err := c.BodyParser(&request); err != nil {
		return apperror.BadRequest("invalid request body")
	}

	order, err := h.orders.UpdateStatus(c.UserContext(), c.Params("id"), request)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, order)
}

func (h *AdminHandler) VerifyPayment(c *fiber.Ctx) error {
	admin, _ := middleware.ActorFrom(c)
	order, err := h.payments.Verify(c.UserContext(), admin, c.Params("id"))
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, order)
}

func (h *AdminHandler) RejectPayment(c *fiber.Ctx) error {
	var request services.RejectInput
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&request); err != nil {
			return apperror.BadRequest("invalid request body")
		}
	}

	admin, _ := middleware.ActorFrom(c)
	order, err := h.payments.Reject(c.UserContext(), admin, c.Params("id"), request)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, order)
}
