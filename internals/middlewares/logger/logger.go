package logger

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/utils"
	"github.com/rs/zerolog/log"
)

// LoggerMiddleware: plain access log line per request.
func LoggerMiddleware(timeZone string) fiber.Handler {
	return logger.New(logger.Config{
		TimeFormat: "2006-01-02 15:04:05",
		TimeZone:   timeZone,
		Format:     "[${time}] ${ip} - ${method} ${path} - ${status} - ${latency} - ${locals:reqid}\n",
	})
}

// RequestContext assigns X-Request-ID, bounds the request with a timeout and
// attaches a request-scoped zerolog logger to the user context.
func RequestContext(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get("X-Request-ID")
		if id == "" {
			id = utils.UUID()
		}
		c.Set("X-Request-ID", id)
		c.Locals("reqid", id)

		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()

		reqLogger := log.With().Str("request_id", id).Logger()
		c.SetUserContext(reqLogger.WithContext(ctx))

		start := time.Now()
		err := c.Next()
		if dur := time.Since(start); dur > time.Second {
			reqLogger.Warn().
				Str("method", c.Method()).
				Str("path", c.OriginalURL()).
				Int("status", c.Response().StatusCode()).
				Dur("duration", dur).
				Msg("slow request")
		}
		return err
	}
}
