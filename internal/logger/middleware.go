package logger

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// APILogger returns a fiber middleware that logs every request with its
// status, latency and route name. Server errors are logged at the error level.
func APILogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}

		fields := map[string]interface{}{
			"status":  status,
			"latency": time.Since(start).String(),
			"ip":      c.IP(),
			"method":  c.Method(),
			"path":    c.Path(),
			"route":   c.Route().Name,
		}
		if err != nil {
			fields["error"] = err.Error()
		}

		if status >= fiber.StatusInternalServerError {
			ErrorWithFields("Request", fields)
		} else {
			InfoWithFields("Request", fields)
		}
		return err
	}
}
