package database

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	bookingModel "studioku_backend/internals/features/booking/bookings/model"
	membershipModel "studioku_backend/internals/features/finance/memberships/model"
	paymentModel "studioku_backend/internals/features/finance/payments/model"
	promotionModel "studioku_backend/internals/features/finance/promotions/model"
	clientModel "studioku_backend/internals/features/studio/clients/model"
	scheduleModel "studioku_backend/internals/features/studio/schedules/model"
	sedeModel "studioku_backend/internals/features/studio/sedes/model"
	authModel "studioku_backend/internals/features/users/auth/model"
	userModel "studioku_backend/internals/features/users/user/model"
)

// indexes AutoMigrate cannot express
var rawIndexes = []string{
	// one live booking per client/slot/date; cancelled rows do not count
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_bookings_live_slot
		ON bookings (booking_client_id, booking_schedule_id, booking_class_date)
		WHERE booking_status <> 'cancelled'`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_slot_active
		ON bookings (booking_schedule_id, booking_class_date)
		WHERE booking_status = 'active'`,
	`CREATE INDEX IF NOT EXISTS idx_token_blacklist_expired_at
		ON token_blacklist (expired_at)`,
}

// Migrate creates or updates every table, then the partial indexes.
func Migrate(db *gorm.DB) error {
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS pgcrypto`).Error; err != nil {
		log.Warn().Err(err).Msg("pgcrypto extension not created")
	}

	if err := db.AutoMigrate(
		&sedeModel.SedeModel{},
		&userModel.UserModel{},
		&authModel.RefreshTokenModel{},
		&authModel.TokenBlacklistModel{},
		&clientModel.ClientModel{},
		&scheduleModel.ScheduleModel{},
		&membershipModel.MembershipModel{},
		&promotionModel.PromotionModel{},
		&promotionModel.PromotionInstanceModel{},
		&promotionModel.PromotionInstanceClientModel{},
		&paymentModel.PaymentModel{},
		&bookingModel.BulkBookingModel{},
		&bookingModel.BookingModel{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	for _, stmt := range rawIndexes {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}
	log.Info().Msg("database migrated")
	return nil
}
