package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bookingModel "studioku_backend/internals/features/booking/bookings/model"
	membershipModel "studioku_backend/internals/features/finance/memberships/model"
	paymentModel "studioku_backend/internals/features/finance/payments/model"
	"studioku_backend/internals/notifications"
)

func own(clientID uuid.UUID) Ownership {
	id := clientID
	return Ownership{ClientID: &id}
}

func TestCancel_FreesTheSlot(t *testing.T) {
	f := newFixture(t)
	mon := f.schedule(1, 1)
	a := f.client(false)
	adm := f.mustAdmit(a.ClientID, mon.ScheduleID, day(7), member)

	out, err := f.svc.Cancel(context.Background(), CancelRequest{
		BookingID:   adm.Booking.BookingID,
		Reason:      "  sick ",
		CancelledBy: bookingModel.CancelledByAdmin, // ignored for clients
		Actor:       member,
		Ownership:   own(a.ClientID),
	})
	require.NoError(t, err)
	assert.Equal(t, bookingModel.BookingStatusCancelled, out.BookingStatus)
	require.NotNil(t, out.BookingCancellationType)
	assert.Equal(t, bookingModel.CancelledByClient, *out.BookingCancellationType)
	assert.Equal(t, "sick", *out.BookingCancellationReason)
	assert.NotNil(t, out.BookingCancelledAt)

	assert.Equal(t, 0, f.occupied(mon.ScheduleID, day(7)))
	assert.Equal(t, notifications.EventBookingCancelled, f.sink.last().Type)
	assert.Equal(t, "sick", f.sink.last().Payload["reason"])

	// another client takes the seat
	f.mustAdmit(f.client(false).ClientID, mon.ScheduleID, day(7), member)
	assert.Equal(t, 1, f.occupied(mon.ScheduleID, day(7)))
}

func TestCancel_ClientCanRebookSameSlot(t *testing.T) {
	f := newFixture(t)
	mon := f.schedule(1, 3)
	c := f.client(true)
	f.payment(c.ClientID, f.membership(membershipModel.MembershipKindPlan, 8), 0)
	adm := f.mustAdmit(c.ClientID, mon.ScheduleID, day(7), member)

	_, err := f.svc.Cancel(context.Background(), CancelRequest{BookingID: adm.Booking.BookingID, Actor: member, Ownership: own(c.ClientID)})
	require.NoError(t, err)

	again := f.mustAdmit(c.ClientID, mon.ScheduleID, day(7), member)
	assert.NotEqual(t, adm.Booking.BookingID, again.Booking.BookingID)
	// the cancelled booking no longer consumes quota
	assert.Equal(t, 0, again.Mode.(Quota).Consumed)
}

func TestCancel_Rejections(t *testing.T) {
	f := newFixture(t)
	mon := f.schedule(1, 3)
	a := f.client(false)
	adm := f.mustAdmit(a.ClientID, mon.ScheduleID, day(7), member)
	id := adm.Booking.BookingID

	_, err := f.svc.Cancel(context.Background(), CancelRequest{BookingID: id, Actor: member, Ownership: own(uuid.New())})
	assert.ErrorIs(t, err, ErrBookingNotFound, "someone else's booking")

	_, err = f.svc.Cancel(context.Background(), CancelRequest{BookingID: id, CancelledBy: bookingModel.CancelledByAdmin, Actor: staff, Ownership: Ownership{SedeScope: []uuid.UUID{uuid.New()}}})
	assert.ErrorIs(t, err, ErrBookingNotFound, "sede outside the caller's scope")

	_, err = f.svc.Cancel(context.Background(), CancelRequest{BookingID: id, CancelledBy: "weather", Actor: staff})
	assert.ErrorIs(t, err, ErrInvalidCancellation)

	_, err = f.svc.Cancel(context.Background(), CancelRequest{BookingID: uuid.New(), CancelledBy: bookingModel.CancelledByInstructor, Actor: instructor})
	assert.ErrorIs(t, err, ErrBookingNotFound)

	out, err := f.svc.Cancel(context.Background(), CancelRequest{BookingID: id, CancelledBy: bookingModel.CancelledByInstructor, Actor: instructor})
	require.NoError(t, err)
	assert.Equal(t, bookingModel.CancelledByInstructor, *out.BookingCancellationType)
	assert.Nil(t, out.BookingCancellationReason)

	_, err = f.svc.Cancel(context.Background(), CancelRequest{BookingID: id, CancelledBy: bookingModel.CancelledByAdmin, Actor: staff})
	assert.ErrorIs(t, err, ErrBookingNotActive)
}

func TestReschedule_MovesBookingAndCapacity(t *testing.T) {
	f := newFixture(t)
	mon := f.schedule(1, 2)
	wed := f.schedule(3, 2)
	c := f.client(false)
	adm := f.mustAdmit(c.ClientID, mon.ScheduleID, day(7), member)

	out, err := f.svc.Reschedule(context.Background(), RescheduleRequest{
		BookingID: adm.Booking.BookingID, ScheduleID: wed.ScheduleID, ClassDate: day(9), Actor: member, Ownership: own(c.ClientID),
	})
	require.NoError(t, err)
	assert.Equal(t, adm.Booking.BookingID, out.BookingID, "moved in place")
	assert.Equal(t, wed.ScheduleID, out.BookingScheduleID)
	assert.Equal(t, day(9), out.BookingClassDate)

	assert.Equal(t, 0, f.occupied(mon.ScheduleID, day(7)))
	assert.Equal(t, 1, f.occupied(wed.ScheduleID, day(9)))

	ev := f.sink.last()
	assert.Equal(t, notifications.EventBookingRescheduled, ev.Type)
	assert.Equal(t, mon.ScheduleID, ev.Payload["previous_schedule_id"])
	assert.Equal(t, "2026-03-09", ev.Payload["previous_class_date"])
}

func TestReschedule_DuplicateLeavesBookingUnchanged(t *testing.T) {
	f := newFixture(t)
	mon := f.schedule(1, 5)
	wed := f.schedule(3, 5)
	c := f.client(true)
	f.payment(c.ClientID, f.membership(membershipModel.MembershipKindPlan, 8), 0)
	first := f.mustAdmit(c.ClientID, mon.ScheduleID, day(7), member)
	f.mustAdmit(c.ClientID, wed.ScheduleID, day(9), member)

	_, err := f.svc.Reschedule(context.Background(), RescheduleRequest{
		BookingID: first.Booking.BookingID, ScheduleID: wed.ScheduleID, ClassDate: day(9), Actor: member, Ownership: own(c.ClientID),
	})
	assert.ErrorIs(t, err, ErrDuplicateBooking)

	b := f.booking(first.Booking.BookingID)
	assert.Equal(t, mon.ScheduleID, b.BookingScheduleID)
	assert.Equal(t, day(7), b.BookingClassDate)
	assert.Equal(t, bookingModel.BookingStatusActive, b.BookingStatus)
}

func TestReschedule_TargetFull(t *testing.T) {
	f := newFixture(t)
	mon := f.schedule(1, 1)
	c := f.client(false)
	mine := f.mustAdmit(c.ClientID, mon.ScheduleID, day(7), member)
	f.mustAdmit(f.client(false).ClientID, mon.ScheduleID, day(14), member)

	_, err := f.svc.Reschedule(context.Background(), RescheduleRequest{
		BookingID: mine.Booking.BookingID, ScheduleID: mon.ScheduleID, ClassDate: day(14), Actor: member, Ownership: own(c.ClientID),
	})
	assert.ErrorIs(t, err, ErrCapacityExceeded)
	assert.Equal(t, day(7), f.booking(mine.Booking.BookingID).BookingClassDate)

	// its own seat does not count against it
	_, err = f.svc.Reschedule(context.Background(), RescheduleRequest{
		BookingID: mine.Booking.BookingID, ScheduleID: mon.ScheduleID, ClassDate: day(7), Actor: staff,
	})
	assert.NoError(t, err)
}

func TestReschedule_Rejections(t *testing.T) {
	f := newFixture(t)
	mon := f.schedule(1, 3)
	c := f.client(false)
	adm := f.mustAdmit(c.ClientID, mon.ScheduleID, day(7), member)
	id := adm.Booking.BookingID

	_, err := f.svc.Reschedule(context.Background(), RescheduleRequest{BookingID: id, ScheduleID: mon.ScheduleID, ClassDate: day(8), Actor: staff})
	assert.ErrorIs(t, err, ErrInvalidDate)

	_, err = f.svc.Reschedule(context.Background(), RescheduleRequest{BookingID: id, ScheduleID: uuid.New(), ClassDate: day(14), Actor: staff})
	assert.ErrorIs(t, err, ErrScheduleNotFound)

	_, err = f.svc.Reschedule(context.Background(), RescheduleRequest{BookingID: id, ScheduleID: mon.ScheduleID, Actor: staff})
	assert.ErrorIs(t, err, ErrInvalidDate)

	_, err = f.svc.Cancel(context.Background(), CancelRequest{BookingID: id, CancelledBy: bookingModel.CancelledByAdmin, Actor: staff})
	require.NoError(t, err)
	_, err = f.svc.Reschedule(context.Background(), RescheduleRequest{BookingID: id, ScheduleID: mon.ScheduleID, ClassDate: day(14), Actor: staff})
	assert.ErrorIs(t, err, ErrBookingNotActive)
}

func TestRecordAttendance(t *testing.T) {
	f := newFixture(t)
	mon := f.schedule(1, 3)
	c := f.client(false)
	adm := f.mustAdmit(c.ClientID, mon.ScheduleID, day(0), member)
	id := adm.Booking.BookingID

	_, err := f.svc.RecordAttendance(context.Background(), AttendanceRequest{BookingID: id, Status: "late", Actor: staff})
	assert.ErrorIs(t, err, ErrInvalidAttendance)

	out, err := f.svc.RecordAttendance(context.Background(), AttendanceRequest{BookingID: id, Status: bookingModel.AttendanceNoShow, Actor: staff})
	require.NoError(t, err)
	assert.Equal(t, bookingModel.AttendanceNoShow, out.BookingAttendanceStatus)
	assert.NotNil(t, out.BookingAttendanceAt)

	out, err = f.svc.RecordAttendance(context.Background(), AttendanceRequest{BookingID: id, Status: bookingModel.AttendancePending, Actor: staff})
	require.NoError(t, err)
	assert.Nil(t, out.BookingAttendanceAt)

	_, err = f.svc.Cancel(context.Background(), CancelRequest{BookingID: id, CancelledBy: bookingModel.CancelledByAdmin, Actor: staff})
	require.NoError(t, err)
	_, err = f.svc.RecordAttendance(context.Background(), AttendanceRequest{BookingID: id, Status: bookingModel.AttendanceAttended, Actor: staff})
	assert.ErrorIs(t, err, ErrBookingNotActive)
}

/* =========================================================
   Deposits
   ========================================================= */

// depositBooking admits an individual class and links a pending deposit.
func (f *fixture) depositBooking(capacity int) (*Admission, paymentModel.PaymentModel) {
	f.t.Helper()
	mon := f.schedule(1, capacity)
	c := f.client(false)
	indiv := f.membership(membershipModel.MembershipKindIndividual, 0)
	mid := indiv.MembershipID
	adm, err := f.svc.Admit(context.Background(), AdmitRequest{
		ClientID: c.ClientID, ScheduleID: mon.ScheduleID, ClassDate: day(7), MembershipID: &mid, Actor: member,
	})
	require.NoError(f.t, err)

	bid := adm.Booking.BookingID
	p := paymentModel.PaymentModel{
		PaymentID:           uuid.New(),
		PaymentClientID:     c.ClientID,
		PaymentMembershipID: mid,
		PaymentBookingID:    &bid,
		PaymentAmount:       indiv.MembershipPrice,
		PaymentDatePaid:     day(0),
		PaymentValidFrom:    day(7),
		PaymentValidUntil:   day(7),
		PaymentMethod:       paymentModel.PaymentMethodGateway,
		PaymentStatus:       paymentModel.PaymentStatusPending,
	}
	f.store.seed(func(st *memState) { st.payments[p.PaymentID] = p })
	return adm, p
}

func TestConfirmDeposit_PaidActivatesBooking(t *testing.T) {
	f := newFixture(t)
	adm, p := f.depositBooking(2)

	res, err := f.svc.ConfirmDeposit(context.Background(), DepositUpdate{
		PaymentID: p.PaymentID, Status: paymentModel.PaymentStatusPaid, GatewayReference: "tx-123",
	})
	require.NoError(t, err)
	assert.False(t, res.CapacityConflict)
	assert.Equal(t, bookingModel.BookingStatusActive, res.Booking.BookingStatus)
	assert.Equal(t, p.PaymentID, *res.Booking.BookingPaymentID)
	assert.NotNil(t, res.Payment.PaymentPaidAt)
	assert.Equal(t, "tx-123", *res.Payment.PaymentGatewayReference)

	assert.Equal(t, 1, f.occupied(adm.Schedule.ScheduleID, day(7)))
	assert.Equal(t, notifications.EventDepositConfirmed, f.sink.last().Type)

	again, err := f.svc.ConfirmDeposit(context.Background(), DepositUpdate{PaymentID: p.PaymentID, Status: paymentModel.PaymentStatusPaid})
	require.NoError(t, err)
	assert.True(t, again.AlreadySettled)
	assert.Nil(t, again.Booking)
}

func TestConfirmDeposit_ClassFilledWhilePending(t *testing.T) {
	f := newFixture(t)
	adm, p := f.depositBooking(1)
	f.mustAdmit(f.client(false).ClientID, adm.Schedule.ScheduleID, day(7), member)

	res, err := f.svc.ConfirmDeposit(context.Background(), DepositUpdate{PaymentID: p.PaymentID, Status: paymentModel.PaymentStatusPaid})
	require.NoError(t, err)
	assert.True(t, res.CapacityConflict)

	snap := f.store.snapshot()
	assert.Equal(t, paymentModel.PaymentStatusPaid, snap.payments[p.PaymentID].PaymentStatus)
	assert.Equal(t, bookingModel.BookingStatusPending, snap.bookings[adm.Booking.BookingID].BookingStatus)
	assert.Equal(t, 1, f.occupied(adm.Schedule.ScheduleID, day(7)))
}

func TestConfirmDeposit_FailedCancelsBooking(t *testing.T) {
	f := newFixture(t)
	adm, p := f.depositBooking(2)

	res, err := f.svc.ConfirmDeposit(context.Background(), DepositUpdate{PaymentID: p.PaymentID, Status: paymentModel.PaymentStatusExpired})
	require.NoError(t, err)
	assert.Equal(t, bookingModel.BookingStatusCancelled, res.Booking.BookingStatus)
	assert.Equal(t, bookingModel.CancelledByAdmin, *res.Booking.BookingCancellationType)
	assert.Equal(t, bookingModel.BookingStatusCancelled, f.booking(adm.Booking.BookingID).BookingStatus)
	assert.Equal(t, notifications.EventBookingCancelled, f.sink.last().Type)

	_, err = f.svc.ConfirmDeposit(context.Background(), DepositUpdate{PaymentID: uuid.New(), Status: paymentModel.PaymentStatusPaid})
	assert.ErrorIs(t, err, ErrPaymentNotFound)
}

func TestConfirmDeposit_PaidAfterCancellationNeedsRefund(t *testing.T) {
	f := newFixture(t)
	adm, p := f.depositBooking(2)
	_, err := f.svc.Cancel(context.Background(), CancelRequest{
		BookingID: adm.Booking.BookingID, CancelledBy: bookingModel.CancelledByAdmin, Actor: staff,
	})
	require.NoError(t, err)
	events := len(f.sink.events)

	res, err := f.svc.ConfirmDeposit(context.Background(), DepositUpdate{PaymentID: p.PaymentID, Status: paymentModel.PaymentStatusPaid})
	require.NoError(t, err)
	assert.True(t, res.RefundRequired)
	assert.Equal(t, bookingModel.BookingStatusCancelled, res.Booking.BookingStatus)

	snap := f.store.snapshot()
	paid := snap.payments[p.PaymentID]
	assert.Equal(t, paymentModel.PaymentStatusPaid, paid.PaymentStatus)
	require.NotNil(t, paid.PaymentNotes)
	assert.Contains(t, *paid.PaymentNotes, "refund required")
	assert.Equal(t, bookingModel.BookingStatusCancelled, snap.bookings[adm.Booking.BookingID].BookingStatus)
	assert.Equal(t, 0, f.occupied(adm.Schedule.ScheduleID, day(7)))
	assert.Len(t, f.sink.events, events, "no confirmation for a cancelled booking")
}
