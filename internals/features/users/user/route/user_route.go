package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	userController "studioku_backend/internals/features/users/user/controller"
	featuresMiddleware "studioku_backend/internals/middlewares/features"
)

// UserAdminRoutes: /api/a/users, admin only.
func UserAdminRoutes(r fiber.Router, db *gorm.DB) {
	ctl := userController.NewUserController(db)
	g := r.Group("/users", featuresMiddleware.IsAdmin())
	g.Get("/", ctl.ListUsers)
	g.Post("/", ctl.CreateStaff)
	g.Patch("/:id", ctl.UpdateUser)
}
