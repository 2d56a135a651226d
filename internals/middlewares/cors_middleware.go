// middlewares/cors_middleware.go

package middlewares

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"studioku_backend/internals/configs"
)

var defaultOrigins = []string{
	"http://localhost:5173",
	"http://localhost:3001",
	"http://127.0.0.1:5500",
}

// CorsMiddleware: origins from CORS_ORIGINS (comma separated) or the dev defaults.
func CorsMiddleware() fiber.Handler {
	origins := configs.GetEnvList("CORS_ORIGINS")
	if len(origins) == 0 {
		origins = defaultOrigins
	}
	return cors.New(cors.Config{
		AllowOrigins:     strings.Join(origins, ", "),
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Request-ID, X-Sede-ID",
		ExposeHeaders:    "X-Request-ID",
		AllowCredentials: true,
	})
}
