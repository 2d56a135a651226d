package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	bookingModel "studioku_backend/internals/features/booking/bookings/model"
	paymentModel "studioku_backend/internals/features/finance/payments/model"
	clientModel "studioku_backend/internals/features/studio/clients/model"
	scheduleModel "studioku_backend/internals/features/studio/schedules/model"
	"studioku_backend/internals/helpers/dbtime"
	"studioku_backend/internals/metrics"
)

/* =========================================================
   Lookup guard shared by the mutations
   ========================================================= */

// Ownership restricts a mutation to bookings visible to the caller.
type Ownership struct {
	ClientID  *uuid.UUID  // self-service: the caller's own client
	SedeScope []uuid.UUID // staff: permitted sedes, nil = every sede
}

func lockOwnedBooking(ctx context.Context, repo Repository, bookingID uuid.UUID, own Ownership) (*bookingModel.BookingModel, *scheduleModel.ScheduleModel, error) {
	b, err := repo.LockBooking(ctx, bookingID)
	if err != nil {
		return nil, nil, fmt.Errorf("lock booking: %w", err)
	}
	if b == nil || (own.ClientID != nil && *own.ClientID != b.BookingClientID) {
		return nil, nil, ErrBookingNotFound
	}
	sch, err := repo.GetSchedule(ctx, b.BookingScheduleID)
	if err != nil {
		return nil, nil, fmt.Errorf("get schedule: %w", err)
	}
	if sch != nil && !inScope(own.SedeScope, sch.ScheduleSedeID) {
		return nil, nil, ErrBookingNotFound
	}
	return b, sch, nil
}

func clientOf(ctx context.Context, repo Repository, clientID uuid.UUID) (clientModel.ClientModel, error) {
	c, err := repo.GetClient(ctx, clientID)
	if err != nil {
		return clientModel.ClientModel{}, fmt.Errorf("get client: %w", err)
	}
	if c == nil {
		return clientModel.ClientModel{ClientID: clientID}, nil
	}
	return *c, nil
}

/* =========================================================
   Cancel
   ========================================================= */

type CancelRequest struct {
	BookingID   uuid.UUID
	Reason      string
	CancelledBy bookingModel.CancellationType
	Actor       Actor
	Ownership   Ownership
}

// Cancel marks the booking cancelled. Cancelled bookings leave the capacity
// count and no longer block the slot for the same client.
func (s *Service) Cancel(ctx context.Context, req CancelRequest) (_ *bookingModel.BookingModel, err error) {
	ctx, span := tracer.Start(ctx, "bookings.Cancel", trace.WithAttributes(
		attribute.String("booking_id", req.BookingID.String()),
	))
	defer func() { endSpan(span, err) }()

	by := req.CancelledBy
	if !req.Actor.IsStaff() {
		by = bookingModel.CancelledByClient
	}
	if !by.Valid() {
		return nil, ErrInvalidCancellation
	}

	var (
		out    *bookingModel.BookingModel
		sch    *scheduleModel.ScheduleModel
		client clientModel.ClientModel
	)
	err = s.tx.InTx(ctx, func(repo Repository) error {
		b, sc, err := lockOwnedBooking(ctx, repo, req.BookingID, req.Ownership)
		if err != nil {
			return err
		}
		if b.BookingStatus == bookingModel.BookingStatusCancelled {
			return ErrBookingNotActive
		}
		cancelBooking(b, by, req.Reason, s.now().UTC())
		if err := repo.SaveBooking(ctx, b); err != nil {
			return fmt.Errorf("save booking: %w", err)
		}
		if client, err = clientOf(ctx, repo, b.BookingClientID); err != nil {
			return err
		}
		out, sch = b, sc
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.BookingTransitions.WithLabelValues("cancel").Inc()
	s.events.Dispatch(ctx, cancellationEvent(out, client, sch, req.Actor))
	return out, nil
}

func cancelBooking(b *bookingModel.BookingModel, by bookingModel.CancellationType, reason string, now time.Time) {
	b.BookingStatus = bookingModel.BookingStatusCancelled
	b.BookingCancellationType = &by
	if r := strings.TrimSpace(reason); r != "" {
		b.BookingCancellationReason = &r
	} else {
		b.BookingCancellationReason = nil
	}
	b.BookingCancelledAt = &now
}

/* =========================================================
   Reschedule
   ========================================================= */

type RescheduleRequest struct {
	BookingID  uuid.UUID
	ScheduleID uuid.UUID
	ClassDate  time.Time
	Actor      Actor
	Ownership  Ownership
}

// Reschedule moves a live booking to another occurrence in place. Lock order
// is booking then target schedule.
func (s *Service) Reschedule(ctx context.Context, req RescheduleRequest) (_ *bookingModel.BookingModel, err error) {
	ctx, span := tracer.Start(ctx, "bookings.Reschedule", trace.WithAttributes(
		attribute.String("booking_id", req.BookingID.String()),
		attribute.String("schedule_id", req.ScheduleID.String()),
	))
	defer func() { endSpan(span, err) }()

	if req.ClassDate.IsZero() {
		return nil, withMessage(ErrInvalidDate, "class_date is required")
	}
	classDate := calendarDate(req.ClassDate)
	today := s.today()

	var (
		out          *bookingModel.BookingModel
		target       *scheduleModel.ScheduleModel
		client       clientModel.ClientModel
		fromSchedule uuid.UUID
		fromDate     string
	)
	err = s.tx.InTx(ctx, func(repo Repository) error {
		b, _, err := lockOwnedBooking(ctx, repo, req.BookingID, req.Ownership)
		if err != nil {
			return err
		}
		if b.BookingStatus == bookingModel.BookingStatusCancelled {
			return ErrBookingNotActive
		}

		sch, err := repo.LockSchedule(ctx, req.ScheduleID)
		if err != nil {
			return fmt.Errorf("lock schedule: %w", err)
		}
		if sch == nil || !sch.ScheduleIsActive || !inScope(req.Ownership.SedeScope, sch.ScheduleSedeID) {
			return ErrScheduleNotFound
		}
		if err := validateClassDate(sch, classDate, today, req.Actor.IsStaff()); err != nil {
			return err
		}

		self := b.BookingID
		dup, err := repo.LiveBookingExists(ctx, b.BookingClientID, sch.ScheduleID, classDate, &self)
		if err != nil {
			return fmt.Errorf("check duplicate: %w", err)
		}
		if dup {
			return ErrDuplicateBooking
		}

		occupied, err := repo.CountOccupied(ctx, sch.ScheduleID, classDate, &self)
		if err != nil {
			return fmt.Errorf("count occupied: %w", err)
		}
		if Remaining(sch.ScheduleCapacity, occupied) == 0 {
			return withMessage(ErrCapacityExceeded, "class is full (%d/%d)", occupied, sch.ScheduleCapacity)
		}

		fromSchedule, fromDate = b.BookingScheduleID, dbtime.FormatDate(b.BookingClassDate)
		b.BookingScheduleID = sch.ScheduleID
		b.BookingClassDate = classDate
		if err := repo.SaveBooking(ctx, b); err != nil {
			return wrapInfra("save booking", err)
		}
		if client, err = clientOf(ctx, repo, b.BookingClientID); err != nil {
			return err
		}
		out, target = b, sch
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.BookingTransitions.WithLabelValues("reschedule").Inc()
	s.events.Dispatch(ctx, rescheduleEvent(out, client, target, fromSchedule, fromDate, req.Actor))
	return out, nil
}

/* =========================================================
   Attendance (staff check-in)
   ========================================================= */

type AttendanceRequest struct {
	BookingID uuid.UUID
	Status    bookingModel.AttendanceStatus
	Actor     Actor
	Ownership Ownership
}

func (s *Service) RecordAttendance(ctx context.Context, req AttendanceRequest) (*bookingModel.BookingModel, error) {
	switch req.Status {
	case bookingModel.AttendancePending, bookingModel.AttendanceAttended, bookingModel.AttendanceNoShow:
	default:
		return nil, ErrInvalidAttendance
	}

	var out *bookingModel.BookingModel
	err := s.tx.InTx(ctx, func(repo Repository) error {
		b, _, err := lockOwnedBooking(ctx, repo, req.BookingID, req.Ownership)
		if err != nil {
			return err
		}
		if b.BookingStatus == bookingModel.BookingStatusCancelled {
			return withMessage(ErrBookingNotActive, "cannot record attendance on a cancelled booking")
		}
		b.BookingAttendanceStatus = req.Status
		if req.Status == bookingModel.AttendancePending {
			b.BookingAttendanceAt = nil
		} else {
			now := s.now().UTC()
			b.BookingAttendanceAt = &now
		}
		if err := repo.SaveBooking(ctx, b); err != nil {
			return fmt.Errorf("save booking: %w", err)
		}
		out = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	metrics.BookingTransitions.WithLabelValues("attendance_" + string(req.Status)).Inc()
	return out, nil
}

/* =========================================================
   Deposit confirmation (individual classes)
   ========================================================= */

type DepositUpdate struct {
	PaymentID        uuid.UUID
	Status           paymentModel.PaymentStatus
	GatewayReference string
}

type DepositResult struct {
	Payment *paymentModel.PaymentModel
	Booking *bookingModel.BookingModel
	// payment settled but the class filled up while it was pending; the
	// booking stays pending for staff to move
	CapacityConflict bool
	AlreadySettled   bool
	// deposit settled after its booking was cancelled; the payment carries
	// a refund note for staff
	RefundRequired bool
}

const refundNote = "deposit settled after the booking was cancelled: refund required"

// ConfirmDeposit applies a gateway status to a deposit payment and moves the
// linked pending booking: paid activates it (capacity re-checked), failed /
// expired / canceled cancel it.
func (s *Service) ConfirmDeposit(ctx context.Context, upd DepositUpdate) (_ *DepositResult, err error) {
	ctx, span := tracer.Start(ctx, "bookings.ConfirmDeposit", trace.WithAttributes(
		attribute.String("payment_id", upd.PaymentID.String()),
		attribute.String("status", string(upd.Status)),
	))
	defer func() { endSpan(span, err) }()

	res := &DepositResult{}
	var client clientModel.ClientModel
	var sch *scheduleModel.ScheduleModel
	err = s.tx.InTx(ctx, func(repo Repository) error {
		p, err := repo.LockPayment(ctx, upd.PaymentID)
		if err != nil {
			return fmt.Errorf("lock payment: %w", err)
		}
		if p == nil {
			return ErrPaymentNotFound
		}
		res.Payment = p
		if p.PaymentStatus == paymentModel.PaymentStatusPaid || p.PaymentStatus == upd.Status {
			res.AlreadySettled = true
			return nil
		}

		now := s.now().UTC()
		p.PaymentStatus = upd.Status
		if ref := strings.TrimSpace(upd.GatewayReference); ref != "" {
			p.PaymentGatewayReference = &ref
		}
		if upd.Status == paymentModel.PaymentStatusPaid {
			p.PaymentPaidAt = &now
		}
		if err := repo.SavePayment(ctx, p); err != nil {
			return fmt.Errorf("save payment: %w", err)
		}
		if p.PaymentBookingID == nil {
			return nil
		}

		b, err := repo.LockBooking(ctx, *p.PaymentBookingID)
		if err != nil {
			return fmt.Errorf("lock booking: %w", err)
		}
		if b == nil || b.BookingStatus != bookingModel.BookingStatusPending {
			if upd.Status != paymentModel.PaymentStatusPaid || (b != nil && b.BookingStatus != bookingModel.BookingStatusCancelled) {
				return nil
			}
			res.RefundRequired = true
			res.Booking = b
			note := refundNote
			if p.PaymentNotes != nil && strings.TrimSpace(*p.PaymentNotes) != "" {
				note = *p.PaymentNotes + "; " + refundNote
			}
			p.PaymentNotes = &note
			if err := repo.SavePayment(ctx, p); err != nil {
				return fmt.Errorf("save payment: %w", err)
			}
			return nil
		}

		switch upd.Status {
		case paymentModel.PaymentStatusPaid:
			sc, err := repo.LockSchedule(ctx, b.BookingScheduleID)
			if err != nil {
				return fmt.Errorf("lock schedule: %w", err)
			}
			if sc == nil {
				res.CapacityConflict = true
				break
			}
			occupied, err := Occupied(ctx, repo, sc.ScheduleID, b.BookingClassDate)
			if err != nil {
				return fmt.Errorf("count occupied: %w", err)
			}
			if occupied >= sc.ScheduleCapacity {
				res.CapacityConflict = true
				break
			}
			pid := p.PaymentID
			b.BookingStatus = bookingModel.BookingStatusActive
			b.BookingPaymentID = &pid
			sch = sc
		case paymentModel.PaymentStatusFailed, paymentModel.PaymentStatusExpired, paymentModel.PaymentStatusCanceled:
			cancelBooking(b, bookingModel.CancelledByAdmin, "deposit not completed", now)
		default:
			return nil
		}
		if res.CapacityConflict {
			res.Booking = b
			return nil
		}
		if err := repo.SaveBooking(ctx, b); err != nil {
			return fmt.Errorf("save booking: %w", err)
		}
		res.Booking = b
		client, err = clientOf(ctx, repo, b.BookingClientID)
		return err
	})
	if err != nil {
		return nil, err
	}

	if res.RefundRequired {
		metrics.BookingTransitions.WithLabelValues("deposit_refund_required").Inc()
		log.Ctx(ctx).Warn().
			Str("payment_id", upd.PaymentID.String()).
			Msg("deposit paid for a cancelled booking, refund required")
		return res, nil
	}
	if b := res.Booking; b != nil && !res.CapacityConflict {
		switch b.BookingStatus {
		case bookingModel.BookingStatusActive:
			metrics.BookingTransitions.WithLabelValues("deposit_confirmed").Inc()
			s.events.Dispatch(ctx, depositEvent(b, client, res.Payment.PaymentID))
		case bookingModel.BookingStatusCancelled:
			metrics.BookingTransitions.WithLabelValues("deposit_failed").Inc()
			s.events.Dispatch(ctx, cancellationEvent(b, client, sch, Actor{}))
		}
	}
	return res, nil
}

/* =========================================================
   Read-only views
   ========================================================= */

// Capacity reports the ledger for one occurrence.
func (s *Service) Capacity(ctx context.Context, scheduleID uuid.UUID, classDate time.Time, scope []uuid.UUID) (*CapacitySnapshot, error) {
	classDate = calendarDate(classDate)
	var out *CapacitySnapshot
	err := s.tx.InTx(ctx, func(repo Repository) error {
		sch, err := repo.GetSchedule(ctx, scheduleID)
		if err != nil {
			return fmt.Errorf("get schedule: %w", err)
		}
		if sch == nil || !inScope(scope, sch.ScheduleSedeID) {
			return ErrScheduleNotFound
		}
		occupied, err := Occupied(ctx, repo, scheduleID, classDate)
		if err != nil {
			return fmt.Errorf("count occupied: %w", err)
		}
		out = &CapacitySnapshot{
			ScheduleID: scheduleID,
			ClassDate:  dbtime.FormatDate(classDate),
			Capacity:   sch.ScheduleCapacity,
			Occupied:   occupied,
			Remaining:  Remaining(sch.ScheduleCapacity, occupied),
		}
		return nil
	})
	return out, err
}

// Entitlement summarizes what the client could book with today.
func (s *Service) Entitlement(ctx context.Context, clientID uuid.UUID, scope []uuid.UUID) (*EntitlementSummary, error) {
	var out *EntitlementSummary
	err := s.tx.InTx(ctx, func(repo Repository) error {
		c, err := repo.GetClient(ctx, clientID)
		if err != nil {
			return fmt.Errorf("get client: %w", err)
		}
		if c == nil || !clientInScope(scope, c.ClientSedeID) {
			return ErrClientNotFound
		}
		out, err = summarize(ctx, repo, c, s.today())
		return err
	})
	return out, err
}
