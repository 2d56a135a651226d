package helper

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// ErrorHandler is installed as fiber.Config.ErrorHandler so middlewares that
// return fiber errors (auth, limiter) share the json envelope.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return JsonError(c, fe.Code, fe.Message)
	}
	log.Ctx(c.UserContext()).Error().Err(err).Str("path", c.Path()).Msg("unhandled error")
	return JsonError(c, fiber.StatusInternalServerError, "internal server error")
}
