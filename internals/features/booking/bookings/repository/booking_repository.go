// internals/features/booking/bookings/repository/booking_repository.go
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	bookingModel "studioku_backend/internals/features/booking/bookings/model"
	"studioku_backend/internals/features/booking/bookings/service"
	membershipModel "studioku_backend/internals/features/finance/memberships/model"
	paymentModel "studioku_backend/internals/features/finance/payments/model"
	clientModel "studioku_backend/internals/features/studio/clients/model"
	scheduleModel "studioku_backend/internals/features/studio/schedules/model"
	helper "studioku_backend/internals/helpers"
)

/* ====================== TRANSACTOR ====================== */

// GormTransactor runs the admission engine inside a gorm transaction.
type GormTransactor struct {
	DB *gorm.DB
}

func NewTransactor(db *gorm.DB) *GormTransactor {
	return &GormTransactor{DB: db}
}

func (t *GormTransactor) InTx(ctx context.Context, fn func(repo service.Repository) error) error {
	return t.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&BookingRepository{db: tx})
	})
}

// BookingRepository is bound to one transaction.
type BookingRepository struct {
	db *gorm.DB
}

var _ service.Repository = (*BookingRepository)(nil)

func forUpdate(db *gorm.DB) *gorm.DB {
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}

// firstOrNil maps ErrRecordNotFound to (nil, nil).
func firstOrNil[T any](q *gorm.DB, where string, args ...any) (*T, error) {
	var out T
	if err := q.Where(where, args...).First(&out).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &out, nil
}

/* ====================== CLIENT / SCHEDULE ====================== */

func (r *BookingRepository) LockClient(ctx context.Context, id uuid.UUID) (*clientModel.ClientModel, error) {
	return firstOrNil[clientModel.ClientModel](forUpdate(r.db.WithContext(ctx)), "client_id = ?", id)
}

func (r *BookingRepository) GetClient(ctx context.Context, id uuid.UUID) (*clientModel.ClientModel, error) {
	return firstOrNil[clientModel.ClientModel](r.db.WithContext(ctx), "client_id = ?", id)
}

func (r *BookingRepository) LockSchedule(ctx context.Context, id uuid.UUID) (*scheduleModel.ScheduleModel, error) {
	return firstOrNil[scheduleModel.ScheduleModel](forUpdate(r.db.WithContext(ctx)), "schedule_id = ?", id)
}

func (r *BookingRepository) GetSchedule(ctx context.Context, id uuid.UUID) (*scheduleModel.ScheduleModel, error) {
	return firstOrNil[scheduleModel.ScheduleModel](r.db.WithContext(ctx), "schedule_id = ?", id)
}

func (r *BookingRepository) FindMembership(ctx context.Context, id uuid.UUID) (*membershipModel.MembershipModel, error) {
	return firstOrNil[membershipModel.MembershipModel](r.db.WithContext(ctx), "membership_id = ?", id)
}

// MarkTrialUsed flips trial_used only if it is still false; the return value
// says whether this call flipped it.
func (r *BookingRepository) MarkTrialUsed(ctx context.Context, clientID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&clientModel.ClientModel{}).
		Where("client_id = ? AND client_trial_used = FALSE", clientID).
		Update("client_trial_used", true)
	return res.RowsAffected == 1, res.Error
}

/* ====================== LEDGER ====================== */

func liveSlot(db *gorm.DB, scheduleID uuid.UUID, classDate time.Time, exclude *uuid.UUID) *gorm.DB {
	q := db.Model(&bookingModel.BookingModel{}).
		Where("booking_schedule_id = ? AND booking_class_date = ?", scheduleID, classDate)
	if exclude != nil {
		q = q.Where("booking_id <> ?", *exclude)
	}
	return q
}

func (r *BookingRepository) LiveBookingExists(ctx context.Context, clientID, scheduleID uuid.UUID, classDate time.Time, exclude *uuid.UUID) (bool, error) {
	var n int64
	err := liveSlot(r.db.WithContext(ctx), scheduleID, classDate, exclude).
		Where("booking_client_id = ? AND booking_status <> ?", clientID, bookingModel.BookingStatusCancelled).
		Count(&n).Error
	return n > 0, err
}

func (r *BookingRepository) CountOccupied(ctx context.Context, scheduleID uuid.UUID, classDate time.Time, exclude *uuid.UUID) (int, error) {
	var n int64
	err := liveSlot(r.db.WithContext(ctx), scheduleID, classDate, exclude).
		Where("booking_status = ?", bookingModel.BookingStatusActive).
		Count(&n).Error
	return int(n), err
}

/* ====================== ENTITLEMENT ====================== */

// FindActivePayment returns the latest paid non-individual payment whose
// window contains day.
func (r *BookingRepository) FindActivePayment(ctx context.Context, clientID uuid.UUID, day time.Time) (*service.ActivePayment, error) {
	var rows []service.ActivePayment
	err := r.db.WithContext(ctx).
		Table("payments").
		Select(`payments.payment_id,
			payments.payment_membership_id AS membership_id,
			m.membership_name,
			m.membership_scope,
			m.membership_sede_id,
			m.membership_classes_per_month AS classes_per_month,
			payments.payment_extra_classes AS extra_classes,
			payments.payment_promotion_id AS promotion_id,
			payments.payment_promotion_instance_id AS promotion_instance_id,
			payments.payment_valid_from AS valid_from,
			payments.payment_valid_until AS valid_until`).
		Scopes(paymentModel.ActivePlanOn(clientID, day)).
		Limit(1).
		Scan(&rows).Error
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return &rows[0], nil
}

// FindPromotionGrant resolves the instance linking the client to promotionID.
// Without instanceID the most recent linked instance wins.
func (r *BookingRepository) FindPromotionGrant(ctx context.Context, clientID, promotionID uuid.UUID, instanceID *uuid.UUID) (*service.PromotionGrant, error) {
	q := r.db.WithContext(ctx).
		Table("promotion_instances AS i").
		Select(`i.promotion_instance_id AS instance_id,
			i.promotion_instance_promotion_id AS promotion_id,
			pr.promotion_classes_per_client AS classes_per_client,
			i.promotion_instance_start_date AS start_date,
			i.promotion_instance_end_date AS end_date`).
		Joins("JOIN promotion_instance_clients ic ON ic.promotion_instance_client_instance_id = i.promotion_instance_id").
		Joins("JOIN promotions pr ON pr.promotion_id = i.promotion_instance_promotion_id AND pr.promotion_deleted_at IS NULL").
		Where("ic.promotion_instance_client_client_id = ?", clientID).
		Where("i.promotion_instance_promotion_id = ?", promotionID).
		Where("i.promotion_instance_deleted_at IS NULL")
	if instanceID != nil {
		q = q.Where("i.promotion_instance_id = ?", *instanceID)
	}

	var rows []service.PromotionGrant
	if err := q.Order("i.promotion_instance_start_date DESC").Limit(1).Scan(&rows).Error; err != nil || len(rows) == 0 {
		return nil, err
	}
	return &rows[0], nil
}

func chargedTo(db *gorm.DB, clientID, paymentID uuid.UUID) *gorm.DB {
	return db.Model(&bookingModel.BookingModel{}).
		Where("booking_client_id = ? AND booking_payment_id = ?", clientID, paymentID)
}

// CountConsumed: active bookings on the payment that were attended or are
// still upcoming.
func (r *BookingRepository) CountConsumed(ctx context.Context, clientID, paymentID uuid.UUID, today time.Time) (int, error) {
	var n int64
	err := chargedTo(r.db.WithContext(ctx), clientID, paymentID).
		Where("booking_status = ?", bookingModel.BookingStatusActive).
		Where("(booking_attendance_status = ? OR (booking_attendance_status = ? AND booking_class_date >= ?))",
			bookingModel.AttendanceAttended, bookingModel.AttendancePending, today).
		Count(&n).Error
	return int(n), err
}

func (r *BookingRepository) HasNoShow(ctx context.Context, clientID, paymentID uuid.UUID) (bool, error) {
	var n int64
	err := chargedTo(r.db.WithContext(ctx), clientID, paymentID).
		Where("booking_status <> ? AND booking_attendance_status = ?",
			bookingModel.BookingStatusCancelled, bookingModel.AttendanceNoShow).
		Count(&n).Error
	return n > 0, err
}

/* ====================== BOOKINGS ====================== */

func mapBookingWriteErr(err error) error {
	if err != nil && helper.IsUniqueViolation(err) {
		return service.ErrDuplicateBooking
	}
	return err
}

func (r *BookingRepository) InsertBooking(ctx context.Context, b *bookingModel.BookingModel) error {
	return mapBookingWriteErr(r.db.WithContext(ctx).Create(b).Error)
}

func (r *BookingRepository) SaveBooking(ctx context.Context, b *bookingModel.BookingModel) error {
	return mapBookingWriteErr(r.db.WithContext(ctx).Save(b).Error)
}

func (r *BookingRepository) LockBooking(ctx context.Context, id uuid.UUID) (*bookingModel.BookingModel, error) {
	return firstOrNil[bookingModel.BookingModel](forUpdate(r.db.WithContext(ctx)), "booking_id = ?", id)
}

func (r *BookingRepository) CreateBulkBooking(ctx context.Context, b *bookingModel.BulkBookingModel) error {
	return r.db.WithContext(ctx).Create(b).Error
}

func (r *BookingRepository) SaveBulkBooking(ctx context.Context, b *bookingModel.BulkBookingModel) error {
	return r.db.WithContext(ctx).
		Model(b).
		Select("bulk_booking_successful", "bulk_booking_failed", "bulk_booking_status", "bulk_booking_results").
		Updates(b).Error
}

/* ====================== PAYMENTS ====================== */

func (r *BookingRepository) LockPayment(ctx context.Context, id uuid.UUID) (*paymentModel.PaymentModel, error) {
	return firstOrNil[paymentModel.PaymentModel](forUpdate(r.db.WithContext(ctx)), "payment_id = ?", id)
}

func (r *BookingRepository) SavePayment(ctx context.Context, p *paymentModel.PaymentModel) error {
	return r.db.WithContext(ctx).Save(p).Error
}

/* ====================== READ HELPERS (no tx) ====================== */

// OccupiedBySchedule counts active bookings per schedule on one date, for
// annotating schedule listings with remaining seats.
func OccupiedBySchedule(db *gorm.DB, classDate time.Time, scheduleIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	out := make(map[uuid.UUID]int, len(scheduleIDs))
	if len(scheduleIDs) == 0 {
		return out, nil
	}
	var rows []struct {
		ScheduleID uuid.UUID
		Occupied   int
	}
	err := db.Model(&bookingModel.BookingModel{}).
		Select("booking_schedule_id AS schedule_id, COUNT(*) AS occupied").
		Where("booking_class_date = ? AND booking_status = ?", classDate, bookingModel.BookingStatusActive).
		Where("booking_schedule_id IN ?", scheduleIDs).
		Group("booking_schedule_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		out[r.ScheduleID] = r.Occupied
	}
	return out, nil
}
