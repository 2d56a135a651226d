package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	bookingModel "studioku_backend/internals/features/booking/bookings/model"
	membershipModel "studioku_backend/internals/features/finance/memberships/model"
	paymentModel "studioku_backend/internals/features/finance/payments/model"
	clientModel "studioku_backend/internals/features/studio/clients/model"
	scheduleModel "studioku_backend/internals/features/studio/schedules/model"
	"studioku_backend/internals/notifications"
)

/* =========================================================
   Persistence ports. Every method runs on the transaction handle the
   Repository was obtained from; lookups return (nil, nil) when missing.
   ========================================================= */

// ActivePayment is the paid, non-individual payment whose window contains
// the reference day, joined with the membership fields admission needs.
type ActivePayment struct {
	PaymentID           uuid.UUID
	MembershipID        uuid.UUID
	MembershipName      string
	MembershipScope     membershipModel.MembershipScope
	MembershipSedeID    *uuid.UUID
	ClassesPerMonth     *int
	ExtraClasses        int
	PromotionID         *uuid.UUID
	PromotionInstanceID *uuid.UUID
	ValidFrom           time.Time
	ValidUntil          time.Time
}

// PromotionGrant is a promotion instance the client belongs to.
type PromotionGrant struct {
	InstanceID       uuid.UUID
	PromotionID      uuid.UUID
	ClassesPerClient int
	StartDate        time.Time
	EndDate          time.Time
}

func (g PromotionGrant) ActiveOn(day time.Time) bool {
	return !day.Before(g.StartDate) && !day.After(g.EndDate)
}

type Repository interface {
	LockClient(ctx context.Context, clientID uuid.UUID) (*clientModel.ClientModel, error)
	LockSchedule(ctx context.Context, scheduleID uuid.UUID) (*scheduleModel.ScheduleModel, error)
	GetSchedule(ctx context.Context, scheduleID uuid.UUID) (*scheduleModel.ScheduleModel, error)
	GetClient(ctx context.Context, clientID uuid.UUID) (*clientModel.ClientModel, error)
	FindMembership(ctx context.Context, membershipID uuid.UUID) (*membershipModel.MembershipModel, error)

	// LiveBookingExists: a non-cancelled booking for the slot, optionally
	// ignoring one booking id.
	LiveBookingExists(ctx context.Context, clientID, scheduleID uuid.UUID, classDate time.Time, excludeID *uuid.UUID) (bool, error)
	// CountOccupied counts active bookings on the slot, optionally ignoring one.
	CountOccupied(ctx context.Context, scheduleID uuid.UUID, classDate time.Time, excludeID *uuid.UUID) (int, error)

	FindActivePayment(ctx context.Context, clientID uuid.UUID, day time.Time) (*ActivePayment, error)
	FindPromotionGrant(ctx context.Context, clientID, promotionID uuid.UUID, instanceID *uuid.UUID) (*PromotionGrant, error)
	// CountConsumed: active bookings charged to the payment that are attended,
	// or still pending attendance with class_date >= today.
	CountConsumed(ctx context.Context, clientID, paymentID uuid.UUID, today time.Time) (int, error)
	HasNoShow(ctx context.Context, clientID, paymentID uuid.UUID) (bool, error)

	// InsertBooking maps a live-slot unique violation to ErrDuplicateBooking.
	InsertBooking(ctx context.Context, b *bookingModel.BookingModel) error
	SaveBooking(ctx context.Context, b *bookingModel.BookingModel) error
	LockBooking(ctx context.Context, bookingID uuid.UUID) (*bookingModel.BookingModel, error)
	// MarkTrialUsed flips trial_used only when it is still false; reports
	// whether this call flipped it.
	MarkTrialUsed(ctx context.Context, clientID uuid.UUID) (bool, error)

	CreateBulkBooking(ctx context.Context, b *bookingModel.BulkBookingModel) error
	SaveBulkBooking(ctx context.Context, b *bookingModel.BulkBookingModel) error

	LockPayment(ctx context.Context, paymentID uuid.UUID) (*paymentModel.PaymentModel, error)
	SavePayment(ctx context.Context, p *paymentModel.PaymentModel) error
}

// Transactor runs fn inside one database transaction; fn's error rolls back.
type Transactor interface {
	InTx(ctx context.Context, fn func(repo Repository) error) error
}

// SubmitGuard short-circuits identical concurrent submits before the
// transaction. Acquire reports false when another submit holds the key.
type SubmitGuard interface {
	Acquire(ctx context.Context, key string) (release func(), ok bool)
}

// EventSink receives events after commit; Dispatch must not block.
// *notifications.Dispatcher satisfies it.
type EventSink interface {
	Dispatch(ctx context.Context, ev notifications.Event)
}
