package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"studioku_backend/internals/configs"
	bookingService "studioku_backend/internals/features/booking/bookings/service"
	paymentController "studioku_backend/internals/features/finance/payments/controller"
)

/*
Admin (staff) routes, mounted on /api/a:
- POST   /payments
- DELETE /payments/:id
- GET    /clients/:id/payments
*/
func PaymentAdminRoutes(r fiber.Router, db *gorm.DB, bookings *bookingService.Service) {
	ctl := paymentController.NewPaymentController(db, bookings, configs.MidtransServerKey)

	pay := r.Group("/payments")
	pay.Post("/", ctl.RecordPayment)
	pay.Delete("/:id", ctl.DeletePayment)

	r.Get("/clients/:id/payments", ctl.ListClientPayments)
}

// PaymentUserRoutes: the caller's own payments, mounted on /api/u.
func PaymentUserRoutes(r fiber.Router, db *gorm.DB, bookings *bookingService.Service) {
	ctl := paymentController.NewPaymentController(db, bookings, configs.MidtransServerKey)
	r.Get("/payments", ctl.ListMyPayments)
}

// PaymentPublicRoutes: gateway callbacks, no JWT. Mounted on /api/public.
func PaymentPublicRoutes(r fiber.Router, db *gorm.DB, bookings *bookingService.Service) {
	ctl := paymentController.NewPaymentController(db, bookings, configs.MidtransServerKey)
	r.Post("/payments/midtrans/webhook", ctl.MidtransWebhook)
}
