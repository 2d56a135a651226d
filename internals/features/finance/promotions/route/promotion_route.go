package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	promotionController "studioku_backend/internals/features/finance/promotions/controller"
	featuresMiddleware "studioku_backend/internals/middlewares/features"
)

// PromotionAdminRoutes: staff can read, writes are admin only.
func PromotionAdminRoutes(r fiber.Router, db *gorm.DB) {
	ctl := promotionController.NewPromotionController(db)
	admin := featuresMiddleware.IsAdmin()

	p := r.Group("/promotions")
	p.Get("/", ctl.ListPromotions)
	p.Get("/:id", ctl.GetPromotion)
	p.Get("/:id/instances", ctl.ListInstances)
	p.Post("/", admin, ctl.CreatePromotion)
	p.Patch("/:id", admin, ctl.UpdatePromotion)
	p.Delete("/:id", admin, ctl.DeletePromotion)
	p.Post("/:id/instances", admin, ctl.CreateInstance)

	i := r.Group("/promotion-instances")
	i.Get("/:id", ctl.GetInstance)
	i.Patch("/:id", admin, ctl.UpdateInstance)
	i.Delete("/:id", admin, ctl.DeleteInstance)
	i.Post("/:id/clients", admin, ctl.AddInstanceClients)
	i.Delete("/:id/clients/:client_id", admin, ctl.RemoveInstanceClient)
}
