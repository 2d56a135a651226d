package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	bookingModel "studioku_backend/internals/features/booking/bookings/model"
	membershipModel "studioku_backend/internals/features/finance/memberships/model"
	clientModel "studioku_backend/internals/features/studio/clients/model"
	scheduleModel "studioku_backend/internals/features/studio/schedules/model"
	"studioku_backend/internals/helpers/dbtime"
	"studioku_backend/internals/metrics"
)

type AdmitRequest struct {
	ClientID     uuid.UUID
	ScheduleID   uuid.UUID
	ClassDate    time.Time
	MembershipID *uuid.UUID
	// staff marks the client as present on the spot
	ManualCheckin bool
	Actor         Actor
	BulkBookingID *uuid.UUID
	SedeScope     []uuid.UUID // nil = every sede
}

// Admission is a committed booking plus what it was admitted under.
type Admission struct {
	Booking       *bookingModel.BookingModel
	Mode          AdmissionMode
	Client        clientModel.ClientModel
	Schedule      scheduleModel.ScheduleModel
	Membership    *membershipModel.MembershipModel // the requested one, if any
	TrialConsumed bool
	Message       string
}

// SubmitKey identifies one (client, schedule, date) submit for the guard.
func SubmitKey(clientID, scheduleID uuid.UUID, classDate time.Time) string {
	return fmt.Sprintf("booking:submit:%s:%s:%s", clientID, scheduleID, dbtime.FormatDate(classDate))
}

// Admit accepts or rejects one booking. Every read and the insert share one
// transaction; the client row then the schedule row are locked first so
// concurrent admissions for the same client or slot serialize.
func (s *Service) Admit(ctx context.Context, req AdmitRequest) (*Admission, error) {
	if s.guard != nil && !req.ClassDate.IsZero() {
		release, ok := s.guard.Acquire(ctx, SubmitKey(req.ClientID, req.ScheduleID, calendarDate(req.ClassDate)))
		if !ok {
			metrics.BookingAdmissions.WithLabelValues("unknown", string(CodeSubmitInProgress)).Inc()
			return nil, ErrSubmitInProgress
		}
		defer release()
	}

	adm, err := s.admit(ctx, req)
	if err != nil {
		return nil, err
	}
	s.events.Dispatch(ctx, admissionEvent(adm, req.Actor))
	return adm, nil
}

// admit runs one admission transaction without guard or events; the bulk
// orchestrator calls it per item.
func (s *Service) admit(ctx context.Context, req AdmitRequest) (adm *Admission, err error) {
	ctx, span := tracer.Start(ctx, "bookings.Admit", trace.WithAttributes(
		attribute.String("client_id", req.ClientID.String()),
		attribute.String("schedule_id", req.ScheduleID.String()),
		attribute.Bool("manual_checkin", req.ManualCheckin),
	))
	started := time.Now()
	defer func() {
		mode := "unknown"
		outcome := "admitted"
		if adm != nil {
			mode = adm.Mode.ModeName()
			span.SetAttributes(attribute.String("mode", mode))
		}
		if err != nil {
			outcome = string(CodeOf(err))
		}
		metrics.BookingAdmissions.WithLabelValues(mode, outcome).Inc()
		metrics.AdmissionDuration.Observe(time.Since(started).Seconds())
		endSpan(span, err)
	}()

	if req.ClassDate.IsZero() {
		return nil, withMessage(ErrInvalidDate, "class_date is required")
	}
	classDate := calendarDate(req.ClassDate)
	staff := req.Actor.IsStaff()
	checkin := req.ManualCheckin && staff
	today := s.today()

	err = s.tx.InTx(ctx, func(repo Repository) error {
		client, err := repo.LockClient(ctx, req.ClientID)
		if err != nil {
			return fmt.Errorf("lock client: %w", err)
		}
		if client == nil || !clientInScope(req.SedeScope, client.ClientSedeID) {
			return ErrClientNotFound
		}

		sch, err := repo.LockSchedule(ctx, req.ScheduleID)
		if err != nil {
			return fmt.Errorf("lock schedule: %w", err)
		}
		if sch == nil || !sch.ScheduleIsActive || !inScope(req.SedeScope, sch.ScheduleSedeID) {
			return ErrScheduleNotFound
		}

		if err := validateClassDate(sch, classDate, today, staff); err != nil {
			return err
		}

		var requested *membershipModel.MembershipModel
		if req.MembershipID != nil {
			requested, err = repo.FindMembership(ctx, *req.MembershipID)
			if err != nil {
				return fmt.Errorf("find membership: %w", err)
			}
			if requested == nil || !requested.MembershipIsActive {
				return ErrMembershipNotFound
			}
		}

		dup, err := repo.LiveBookingExists(ctx, client.ClientID, sch.ScheduleID, classDate, nil)
		if err != nil {
			return fmt.Errorf("check duplicate: %w", err)
		}
		if dup {
			return ErrDuplicateBooking
		}

		occupied, err := Occupied(ctx, repo, sch.ScheduleID, classDate)
		if err != nil {
			return fmt.Errorf("count occupied: %w", err)
		}
		if occupied >= sch.ScheduleCapacity {
			return withMessage(ErrCapacityExceeded, "class is full (%d/%d)", occupied, sch.ScheduleCapacity)
		}

		mode, err := resolveEntitlement(ctx, repo, entitlementInput{
			Client:       client,
			Schedule:     sch,
			Requested:    requested,
			StaffCheckin: checkin,
			Today:        today,
		})
		if err != nil {
			return err
		}

		b := buildBooking(req, mode, classDate, checkin, s.now().UTC())
		if err := repo.InsertBooking(ctx, b); err != nil {
			return wrapInfra("insert booking", err)
		}

		out := &Admission{
			Booking:    b,
			Mode:       mode,
			Schedule:   *sch,
			Membership: requested,
			Message:    admissionMessage(mode, checkin),
		}
		if _, ok := mode.(FreeTrial); ok {
			flipped, err := repo.MarkTrialUsed(ctx, client.ClientID)
			if err != nil {
				return fmt.Errorf("mark trial used: %w", err)
			}
			out.TrialConsumed = flipped
			client.ClientTrialUsed = true
		}
		out.Client = *client
		adm = out
		return nil
	})
	if err != nil {
		if _, ok := AsAdmissionError(err); !ok {
			log.Ctx(ctx).Error().Err(err).
				Str("client_id", req.ClientID.String()).
				Str("schedule_id", req.ScheduleID.String()).
				Msg("booking admission failed")
		}
		return nil, err
	}
	return adm, nil
}

func validateClassDate(sch *scheduleModel.ScheduleModel, classDate, today time.Time, staff bool) error {
	if !sch.OccursOn(classDate) {
		return withMessage(ErrInvalidDate, "%s is not a day this class runs (day_of_week %d)",
			dbtime.FormatDate(classDate), sch.ScheduleDayOfWeek)
	}
	if !staff && classDate.Before(today) {
		return withMessage(ErrInvalidDate, "cannot book a class in the past")
	}
	return nil
}

func buildBooking(req AdmitRequest, mode AdmissionMode, classDate time.Time, checkin bool, now time.Time) *bookingModel.BookingModel {
	b := &bookingModel.BookingModel{
		BookingID:               uuid.New(),
		BookingClientID:         req.ClientID,
		BookingScheduleID:       req.ScheduleID,
		BookingClassDate:        classDate,
		BookingStatus:           bookingModel.BookingStatusActive,
		BookingAttendanceStatus: bookingModel.AttendancePending,
		BookingIsManualCheckin:  checkin,
		BookingBulkBookingID:    req.BulkBookingID,
		BookingCreatedBy:        req.Actor.userRef(),
	}
	if checkin {
		b.BookingAttendanceStatus = bookingModel.AttendanceAttended
		b.BookingAttendanceAt = &now
	}

	switch m := mode.(type) {
	case IndividualPaid:
		id := m.MembershipID
		b.BookingStatus = bookingModel.BookingStatusPending
		b.BookingMembershipID = &id
	case FreeTrial:
		b.BookingIsTrial = true
	case Quota:
		b.BookingMembershipID = m.MembershipID
		b.BookingPaymentID = m.PaymentID
	}
	return b
}

func admissionMessage(mode AdmissionMode, checkin bool) string {
	switch m := mode.(type) {
	case IndividualPaid:
		return "Booking created, pending deposit payment"
	case FreeTrial:
		if checkin {
			return "Trial class checked in"
		}
		return "Trial class booked"
	case Quota:
		if m.StaffOverride {
			return "Checked in without an active membership"
		}
		if checkin {
			return "Checked in"
		}
	}
	return "Booking confirmed"
}
