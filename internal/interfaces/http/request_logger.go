package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

// RequestLogger registra cada petición con zerolog. Usa el X-Request-ID que deja el middleware requestid.
func RequestLogger(log zerolog.Logger) fiber.Handler {
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
		ev := log.Info()
		switch {
		case status >= fiber.StatusInternalServerError:
			ev = log.Error().Err(err)
		case status >= fiber.StatusBadRequest:
			ev = log.Warn()
		}
		ev.Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("request_id", c.GetRespHeader(fiber.HeaderXRequestID)).
			Str("user_id", GetUserID(c)).
			Msg("http request")
		return err
	}
}
