package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	bookingController "studioku_backend/internals/features/booking/bookings/controller"
	"studioku_backend/internals/features/booking/bookings/service"
	"studioku_backend/internals/middlewares"
)

/*
Staff routes, mounted on /api/a (JWT + sede scope + IsStaff):
- GET    /bookings
- GET    /bookings/capacity?schedule_id=&date=
- POST   /bookings
- POST   /bookings/bulk
- GET    /bookings/bulk/:id
- GET    /bookings/:id
- POST   /bookings/:id/cancel
- POST   /bookings/:id/reschedule
- PATCH  /bookings/:id/attendance
- GET    /clients/:id/entitlement
*/
func BookingAdminRoutes(r fiber.Router, db *gorm.DB, svc *service.Service) {
	ctl := bookingController.NewBookingController(db, svc)

	g := r.Group("/bookings")
	g.Get("/", ctl.ListBookings)
	g.Get("/capacity", ctl.Capacity)
	g.Post("/", ctl.CreateBooking)
	g.Post("/bulk", ctl.CreateBulk)
	g.Get("/bulk/:id", ctl.GetBulk)
	g.Get("/:id", ctl.GetBooking)
	g.Post("/:id/cancel", ctl.CancelBooking)
	g.Post("/:id/reschedule", ctl.RescheduleBooking)
	g.Patch("/:id/attendance", ctl.RecordAttendance)

	r.Get("/clients/:id/entitlement", ctl.ClientEntitlement)
}

// BookingUserRoutes: self-service for the caller's client profile, on /api/u.
func BookingUserRoutes(r fiber.Router, db *gorm.DB, svc *service.Service) {
	ctl := bookingController.NewBookingController(db, svc)
	throttle := middlewares.BookingRateLimiter()

	g := r.Group("/bookings")
	g.Get("/", ctl.ListMyBookings)
	g.Post("/", throttle, ctl.CreateMyBooking)
	g.Post("/bulk", throttle, ctl.CreateMyBulk)
	g.Get("/bulk/:id", ctl.GetMyBulk)
	g.Get("/:id", ctl.GetMyBooking)
	g.Post("/:id/cancel", ctl.CancelMyBooking)
	g.Post("/:id/reschedule", ctl.RescheduleMyBooking)

	r.Get("/entitlement", ctl.MyEntitlement)
}
