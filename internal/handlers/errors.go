package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/bagswap/internal/logger"
	"github.com/example/bagswap/internal/services"
)

// ErrorHandler renders service and fiber errors as JSON bodies of the form {"error": msg}.
// Extra data carried by a service error is merged into the body. Every rejected request
// is also appended to appLog.
func ErrorHandler(log logger.Logger, appLog *services.AppLog) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		entry := map[string]any{"method": c.Method(), "path": c.Path()}

		var svcErr *services.Error
		if errors.As(err, &svcErr) {
			status := svcErr.Status()
			if status >= fiber.StatusInternalServerError {
				log.Error("request failed", "method", c.Method(), "path", c.Path(), "error", err)
			}
			body := fiber.Map{"success": false, "error": svcErr.Message}
			for k, v := range svcErr.Data {
				body[k] = v
				entry[k] = v
			}
			entry["status"] = status
			entry["kind"] = string(svcErr.Kind)
			if svcErr.Err != nil {
				entry["cause"] = svcErr.Err.Error()
			}
			appLog.Error(c.UserContext(), svcErr.Message, entry)
			return c.Status(status).JSON(body)
		}

		code := fiber.StatusInternalServerError
		message := "internal server error"
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			code = fiberErr.Code
			message = fiberErr.Message
		} else {
			log.Error("unhandled error", "method", c.Method(), "path", c.Path(), "error", err)
			entry["cause"] = err.Error()
		}
		entry["status"] = code
		appLog.Error(c.UserContext(), message, entry)

		return c.Status(code).JSON(fiber.Map{"success": false, "error": message})
	}
}

func parseID(c *fiber.Ctx, param string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(param))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "invalid "+param)
	}
	return id, nil
}
