package middleware

import (
	"net/http"

	"github.com/arzan03/storefront/internal/apperror"
	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// ErrorHandler writes every failed request as {ok:false, message}. 5xx details
// are logged and never sent to the client.
func ErrorHandler(log logrus.FieldLogger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := http.StatusInternalServerError
		message := "Internal server error"

		var appErr *apperror.AppError
		var fiberErr *fiber.Error
		switch {
		case errors.As(err, &appErr):
			status = appErr.Status
			message = appErr.Message
		case errors.As(err, &fiberErr):
			status = fiberErr.Code
			message = fiberErr.Message
		}

		if status >= http.StatusInternalServerError {
			log.WithError(err).WithFields(logrus.Fields{
				"method": c.Method(),
				"path":   c.Path(),
				"status": status,
			}).Error("request failed")
			message = "Internal server error"
		}

		return c.Status(status).JSON(fiber.Map{"ok": false, "message": message})
	}
}
