package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	sedeController "studioku_backend/internals/features/studio/sedes/controller"
	featuresMiddleware "studioku_backend/internals/middlewares/features"
)

// SedePublicRoutes: /api/public/sedes
func SedePublicRoutes(r fiber.Router, db *gorm.DB) {
	ctl := sedeController.NewSedeController(db)
	g := r.Group("/sedes")
	g.Get("/", ctl.ListSedes)
	g.Get("/:id", ctl.GetSede)
}

// SedeAdminRoutes: /api/a/sedes, writes are admin only.
func SedeAdminRoutes(r fiber.Router, db *gorm.DB) {
	ctl := sedeController.NewSedeController(db)
	g := r.Group("/sedes", featuresMiddleware.IsAdmin())
	g.Post("/", ctl.CreateSede)
	g.Patch("/:id", ctl.UpdateSede)
	g.Delete("/:id", ctl.DeleteSede)
}
