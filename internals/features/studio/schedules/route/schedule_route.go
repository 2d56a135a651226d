package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	bookingService "studioku_backend/internals/features/booking/bookings/service"
	scheduleController "studioku_backend/internals/features/studio/schedules/controller"
)

// SchedulePublicRoutes: timetable for anonymous visitors and clients.
func SchedulePublicRoutes(r fiber.Router, db *gorm.DB, bookings *bookingService.Service) {
	ctl := scheduleController.NewScheduleController(db, bookings)
	g := r.Group("/schedules")
	g.Get("/", ctl.ListSchedules)
	g.Get("/:id", ctl.GetSchedule)
	g.Get("/:id/capacity", ctl.GetCapacity)
}

// ScheduleAdminRoutes: /api/a/schedules (staff, sede scoped)
func ScheduleAdminRoutes(r fiber.Router, db *gorm.DB, bookings *bookingService.Service) {
	ctl := scheduleController.NewScheduleController(db, bookings)
	g := r.Group("/schedules")
	g.Get("/", ctl.ListSchedules)
	g.Get("/:id", ctl.GetSchedule)
	g.Get("/:id/capacity", ctl.GetCapacity)
	g.Post("/", ctl.CreateSchedule)
	g.Patch("/:id", ctl.UpdateSchedule)
	g.Delete("/:id", ctl.DeactivateSchedule)
}
