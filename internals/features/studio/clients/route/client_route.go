package route

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	clientController "studioku_backend/internals/features/studio/clients/controller"
	helperOSS "studioku_backend/internals/helpers/oss"
)

// ClientAdminRoutes: /api/a/clients (staff, sede scoped)
func ClientAdminRoutes(r fiber.Router, db *gorm.DB) {
	storage, err := helperOSS.NewOSSServiceFromEnv("studioku")
	if err != nil {
		if !errors.Is(err, helperOSS.ErrNotConfigured) {
			log.Warn().Err(err).Msg("object storage disabled")
		}
		storage = nil
	}

	ctl := clientController.NewClientController(db, storage)
	g := r.Group("/clients")
	g.Get("/", ctl.ListClients)
	g.Post("/", ctl.CreateClient)
	g.Get("/:id", ctl.GetClient)
	g.Get("/:id/summary", ctl.GetClientSummary)
	g.Patch("/:id", ctl.UpdateClient)
	g.Delete("/:id", ctl.DeleteClient)
	g.Post("/:id/avatar", ctl.UploadAvatar)
}
