// file: internals/features/users/auth/route/auth_route.go
package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"studioku_backend/internals/configs"
	controller "studioku_backend/internals/features/users/auth/controller"
	helperAuth "studioku_backend/internals/helpers/auth"
	rateLimiter "studioku_backend/internals/middlewares"
	authMiddleware "studioku_backend/internals/middlewares/auth"
)

// AuthRoutes: /api/auth
func AuthRoutes(app *fiber.App, db *gorm.DB) {
	ctl := controller.NewAuthController(db)

	base := app.Group("/api/auth")
	base.Post("/register", rateLimiter.RegisterRateLimiter(), ctl.Register)
	base.Post("/login", rateLimiter.LoginRateLimiter(), ctl.Login)
	base.Post("/login-google", rateLimiter.LoginRateLimiter(), ctl.LoginGoogle)
	base.Post("/refresh-token", ctl.RefreshToken)

	// per-route: a Group middleware would also cover login/register.
	jwt := authMiddleware.AuthJWT(authMiddleware.AuthJWTOpts{
		Secret:              configs.JWTSecret,
		BlacklistChecker:    helperAuth.BlacklistChecker(db, configs.JWTSecret),
		AllowCookieFallback: true,
	})
	base.Post("/logout", jwt, ctl.Logout)
	base.Get("/me", jwt, ctl.Me)
	base.Post("/change-password", jwt, ctl.ChangePassword)
}
