package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	membershipController "studioku_backend/internals/features/finance/memberships/controller"
	featuresMiddleware "studioku_backend/internals/middlewares/features"
)

// MembershipPublicRoutes: /api/public/memberships
func MembershipPublicRoutes(r fiber.Router, db *gorm.DB) {
	ctl := membershipController.NewMembershipController(db)
	g := r.Group("/memberships")
	g.Get("/", ctl.ListMemberships)
	g.Get("/:id", ctl.GetMembership)
}

// MembershipAdminRoutes: /api/a/memberships, admin only.
func MembershipAdminRoutes(r fiber.Router, db *gorm.DB) {
	ctl := membershipController.NewMembershipController(db)
	g := r.Group("/memberships", featuresMiddleware.IsAdmin())
	g.Post("/", ctl.CreateMembership)
	g.Patch("/:id", ctl.UpdateMembership)
	g.Delete("/:id", ctl.DeleteMembership)
}
