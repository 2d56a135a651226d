package middlewares

import (
	"github.com/gofiber/fiber/v2"

	"studioku_backend/internals/configs"
	"studioku_backend/internals/middlewares/logger"
)

// SetupMiddlewares mounts the global chain shared by every route.
func SetupMiddlewares(app *fiber.App) {
	app.Use(RecoveryMiddleware())
	app.Use(CorsMiddleware())
	app.Use(logger.LoggerMiddleware(configs.Policy.Timezone))
	app.Use(GlobalRateLimiter())
}
