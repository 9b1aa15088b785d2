package handlers

import (
	"context"
	"time"

	"github.com/arzan03/storefront/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type WebhookHandler struct {
	webhooks *services.WebhookService
	log      logrus.FieldLogger
}

func NewWebhookHandler(webhooks *services.WebhookService, log logrus.FieldLogger) *WebhookHandler {
	return &WebhookHandler{webhooks: webhooks, log: log}
}

// MercadoPago always answers 200 so the provider does not retry; failures are only logged.
func (h *WebhookHandler) MercadoPago(c *fiber.Ctx) error {
	query := map[string]string{}
	c.Context().QueryArgs().VisitAll(func(key, value []byte) {
		query[string(key)] = string(value)
	})
	body := append([]byte(nil), c.Body()...)

	ctx, cancel := context.WithTimeout(c.UserContext(), 15*time.Second)
	defer cancel()

	if _, err := h.webhooks.HandleMercadoPago(ctx, services.Notification{Body: body, Query: query}); err != nil {
		h.log.WithError(err).WithField("query", query).Warn("mercado pago webhook not applied")
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true})
}
