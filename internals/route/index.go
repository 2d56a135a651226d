package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"studioku_backend/internals/configs"
	bookingRoute "studioku_backend/internals/features/booking/bookings/route"
	bookingService "studioku_backend/internals/features/booking/bookings/service"
	membershipRoute "studioku_backend/internals/features/finance/memberships/route"
	paymentRoute "studioku_backend/internals/features/finance/payments/route"
	promotionRoute "studioku_backend/internals/features/finance/promotions/route"
	clientRoute "studioku_backend/internals/features/studio/clients/route"
	scheduleRoute "studioku_backend/internals/features/studio/schedules/route"
	sedeRoute "studioku_backend/internals/features/studio/sedes/route"
	authRoute "studioku_backend/internals/features/users/auth/route"
	userRoute "studioku_backend/internals/features/users/user/route"
	helperAuth "studioku_backend/internals/helpers/auth"
	authMiddleware "studioku_backend/internals/middlewares/auth"
	featuresMiddleware "studioku_backend/internals/middlewares/features"
)

var startTime time.Time

func SetupRoutes(app *fiber.App, db *gorm.DB, bookingSvc *bookingService.Service) {
	startTime = time.Now()

	jwtOpts := authMiddleware.AuthJWTOpts{
		Secret:              configs.JWTSecret,
		BlacklistChecker:    helperAuth.BlacklistChecker(db, configs.JWTSecret),
		AllowCookieFallback: true,
	}

	// /api/auth goes first: the /api/a group below is a prefix match.
	log.Info().Msg("setting up auth routes")
	authRoute.AuthRoutes(app, db)

	// ===================== PUBLIC =====================
	public := app.Group("/api/public")
	sedeRoute.SedePublicRoutes(public, db)
	membershipRoute.MembershipPublicRoutes(public, db)
	scheduleRoute.SchedulePublicRoutes(public, db, bookingSvc)
	paymentRoute.PaymentPublicRoutes(public, db, bookingSvc)

	// ===================== USER (client self-service) =====================
	user := app.Group("/api/u", authMiddleware.AuthJWT(jwtOpts))
	bookingRoute.BookingUserRoutes(user, db, bookingSvc)
	paymentRoute.PaymentUserRoutes(user, db, bookingSvc)

	// ===================== ADMIN (staff, sede scoped) =====================
	admin := app.Group("/api/a",
		authMiddleware.AuthJWT(jwtOpts),
		featuresMiddleware.UseSedeScope(),
		featuresMiddleware.IsStaff(),
	)
	bookingRoute.BookingAdminRoutes(admin, db, bookingSvc)
	paymentRoute.PaymentAdminRoutes(admin, db, bookingSvc)
	clientRoute.ClientAdminRoutes(admin, db)
	scheduleRoute.ScheduleAdminRoutes(admin, db, bookingSvc)
	sedeRoute.SedeAdminRoutes(admin, db)
	membershipRoute.MembershipAdminRoutes(admin, db)
	promotionRoute.PromotionAdminRoutes(admin, db)
	userRoute.UserAdminRoutes(admin, db)

	log.Info().Msg("routes mounted")
}

// Uptime since SetupRoutes, reported by /health.
func Uptime() time.Duration {
	if startTime.IsZero() {
		return 0
	}
	return time.Since(startTime)
}
