package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bookingModel "studioku_backend/internals/features/booking/bookings/model"
	membershipModel "studioku_backend/internals/features/finance/memberships/model"
	promotionModel "studioku_backend/internals/features/finance/promotions/model"
	"studioku_backend/internals/notifications"
)

func TestAdmit_FreeTrialThenNoActiveMembership(t *testing.T) {
	f := newFixture(t)
	c := f.client(false)
	mon := f.schedule(1, 5)
	wed := f.schedule(3, 5)

	adm := f.mustAdmit(c.ClientID, mon.ScheduleID, day(0), member)
	assert.Equal(t, FreeTrial{}, adm.Mode)
	assert.True(t, adm.TrialConsumed)
	assert.True(t, adm.Booking.BookingIsTrial)
	assert.Equal(t, bookingModel.BookingStatusActive, adm.Booking.BookingStatus)
	assert.True(t, f.store.snapshot().clients[c.ClientID].ClientTrialUsed)

	_, err := f.admit(c.ClientID, wed.ScheduleID, day(2), member)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoActiveMembership)
	assert.Len(t, f.store.snapshot().bookings, 1)
}

func TestAdmit_DuplicateRejected(t *testing.T) {
	f := newFixture(t)
	c := f.client(false)
	mon := f.schedule(1, 5)

	f.mustAdmit(c.ClientID, mon.ScheduleID, day(7), member)

	// trial is gone but the duplicate check runs before entitlement
	_, err := f.admit(c.ClientID, mon.ScheduleID, day(7), member)
	assert.ErrorIs(t, err, ErrDuplicateBooking)
	assert.Equal(t, CodeDuplicateBooking, CodeOf(err))
	assert.Equal(t, 1, f.occupied(mon.ScheduleID, day(7)))
}

func TestAdmit_CapacityExceeded(t *testing.T) {
	f := newFixture(t)
	mon := f.schedule(1, 2)

	for i := 0; i < 2; i++ {
		f.mustAdmit(f.client(false).ClientID, mon.ScheduleID, day(7), member)
	}
	late := f.client(false)
	_, err := f.admit(late.ClientID, mon.ScheduleID, day(7), member)
	assert.ErrorIs(t, err, ErrCapacityExceeded)
	assert.False(t, f.store.snapshot().clients[late.ClientID].ClientTrialUsed, "rejected admission must not consume the trial")

	snap, err := f.svc.Capacity(context.Background(), mon.ScheduleID, day(7), nil)
	require.NoError(t, err)
	assert.Equal(t, 2, snap.Occupied)
	assert.Equal(t, 0, snap.Remaining)
}

func TestAdmit_ConcurrentNeverExceedsCapacity(t *testing.T) {
	f := newFixture(t)
	mon := f.schedule(1, 3)

	const n = 12
	clients := make([]uuid.UUID, n)
	for i := range clients {
		clients[i] = f.client(false).ClientID
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		admitted int
		full     int
	)
	for _, id := range clients {
		wg.Add(1)
		go func(id uuid.UUID) {
			defer wg.Done()
			_, err := f.admit(id, mon.ScheduleID, day(7), member)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				admitted++
			case errors.Is(err, ErrCapacityExceeded):
				full++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(id)
	}
	wg.Wait()

	assert.Equal(t, 3, admitted)
	assert.Equal(t, n-3, full)
	assert.Equal(t, 3, f.occupied(mon.ScheduleID, day(7)))
}

func TestAdmit_TrialFlipsOnceUnderConcurrency(t *testing.T) {
	f := newFixture(t)
	c := f.client(false)
	mon := f.schedule(1, 5)
	wed := f.schedule(3, 5)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, target := range []struct {
		id   uuid.UUID
		date int
	}{{mon.ScheduleID, 7}, {wed.ScheduleID, 9}} {
		wg.Add(1)
		go func(i int, id uuid.UUID, offset int) {
			defer wg.Done()
			_, errs[i] = f.admit(c.ClientID, id, day(offset), member)
		}(i, target.id, target.date)
	}
	wg.Wait()

	ok, rejected := 0, 0
	for _, err := range errs {
		if err == nil {
			ok++
		} else if errors.Is(err, ErrNoActiveMembership) {
			rejected++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, rejected)

	trials := 0
	for _, b := range f.store.snapshot().bookings {
		if b.BookingIsTrial {
			trials++
		}
	}
	assert.Equal(t, 1, trials)
}

func TestAdmit_QuotaExhaustedAndReposition(t *testing.T) {
	f := newFixture(t)
	c := f.client(true)
	mon := f.schedule(1, 10)
	plan := f.membership(membershipModel.MembershipKindPlan, 8)
	pay := f.payment(c.ClientID, plan, 0)
	pid := pay.PaymentID

	for i := 1; i <= 8; i++ {
		f.seedBooking(c.ClientID, mon.ScheduleID, day(-7*i), &pid, bookingModel.AttendanceAttended)
	}

	_, err := f.admit(c.ClientID, mon.ScheduleID, day(7), member)
	require.ErrorIs(t, err, ErrQuotaExceeded)
	ae, _ := AsAdmissionError(err)
	assert.Contains(t, ae.Message, "8 of 8")

	// a no-show is not consumption, and it grants exactly one extra slot
	f.seedBooking(c.ClientID, mon.ScheduleID, day(-63), &pid, bookingModel.AttendanceNoShow)
	f.seedBooking(c.ClientID, mon.ScheduleID, day(-70), &pid, bookingModel.AttendanceNoShow)

	adm := f.mustAdmit(c.ClientID, mon.ScheduleID, day(7), member)
	q, ok := adm.Mode.(Quota)
	require.True(t, ok)
	assert.True(t, q.Reposition)
	assert.Equal(t, 9, q.Limit)
	assert.Equal(t, 8, q.Consumed)
	assert.Equal(t, &pid, adm.Booking.BookingPaymentID)

	_, err = f.admit(c.ClientID, mon.ScheduleID, day(14), member)
	assert.ErrorIs(t, err, ErrQuotaExceeded)
}

func TestAdmit_PastPendingBookingsDoNotConsume(t *testing.T) {
	f := newFixture(t)
	c := f.client(true)
	mon := f.schedule(1, 10)
	plan := f.membership(membershipModel.MembershipKindPlan, 1)
	pay := f.payment(c.ClientID, plan, 0)
	pid := pay.PaymentID

	// attendance never recorded for a past class
	f.seedBooking(c.ClientID, mon.ScheduleID, day(-7), &pid, bookingModel.AttendancePending)

	adm := f.mustAdmit(c.ClientID, mon.ScheduleID, day(7), member)
	assert.Equal(t, 0, adm.Mode.(Quota).Consumed)
}

func TestAdmit_ExtraClassesRaiseQuota(t *testing.T) {
	f := newFixture(t)
	c := f.client(true)
	mon := f.schedule(1, 10)
	plan := f.membership(membershipModel.MembershipKindPlan, 1)
	f.payment(c.ClientID, plan, 1)

	f.mustAdmit(c.ClientID, mon.ScheduleID, day(7), member)
	f.mustAdmit(c.ClientID, mon.ScheduleID, day(14), member)
	_, err := f.admit(c.ClientID, mon.ScheduleID, day(21), member)
	assert.ErrorIs(t, err, ErrQuotaExceeded)
}

func TestAdmit_UnlimitedMembership(t *testing.T) {
	f := newFixture(t)
	c := f.client(true)
	mon := f.schedule(1, 10)
	plan := f.membership(membershipModel.MembershipKindPlan, 0)
	pay := f.payment(c.ClientID, plan, 0)
	pid := pay.PaymentID
	for i := 1; i <= 20; i++ {
		f.seedBooking(c.ClientID, mon.ScheduleID, day(-7*i), &pid, bookingModel.AttendanceAttended)
	}

	adm := f.mustAdmit(c.ClientID, mon.ScheduleID, day(7), member)
	q := adm.Mode.(Quota)
	assert.True(t, q.Unlimited)
	assert.Nil(t, q.Remaining())
	assert.Equal(t, "quota", q.ModeName())
}

func TestAdmit_LatestPaymentWins(t *testing.T) {
	f := newFixture(t)
	c := f.client(true)
	mon := f.schedule(1, 10)
	older := f.payment(c.ClientID, f.membership(membershipModel.MembershipKindPlan, 4), 0)
	newer := f.payment(c.ClientID, f.membership(membershipModel.MembershipKindPlan, 12), 0)
	f.store.seed(func(st *memState) {
		p := st.payments[older.PaymentID]
		p.PaymentDatePaid = day(-20)
		st.payments[older.PaymentID] = p
	})

	adm := f.mustAdmit(c.ClientID, mon.ScheduleID, day(7), member)
	assert.Equal(t, newer.PaymentID, *adm.Mode.(Quota).PaymentID)
	assert.Equal(t, 12, adm.Mode.(Quota).Limit)
}

func TestAdmit_ExpiredPaymentIsIgnored(t *testing.T) {
	f := newFixture(t)
	c := f.client(true)
	mon := f.schedule(1, 10)
	pay := f.payment(c.ClientID, f.membership(membershipModel.MembershipKindPlan, 8), 0)
	f.store.seed(func(st *memState) {
		p := st.payments[pay.PaymentID]
		p.PaymentValidUntil = day(-1)
		st.payments[pay.PaymentID] = p
	})

	_, err := f.admit(c.ClientID, mon.ScheduleID, day(7), member)
	assert.ErrorIs(t, err, ErrNoActiveMembership)
}

func TestAdmit_IndividualClassIsPendingDeposit(t *testing.T) {
	f := newFixture(t)
	c := f.client(false)
	mon := f.schedule(1, 1)
	indiv := f.membership(membershipModel.MembershipKindIndividual, 0)
	mid := indiv.MembershipID

	adm, err := f.svc.Admit(context.Background(), AdmitRequest{
		ClientID:     c.ClientID,
		ScheduleID:   mon.ScheduleID,
		ClassDate:    day(7),
		MembershipID: &mid,
		Actor:        member,
	})
	require.NoError(t, err)
	assert.Equal(t, IndividualPaid{MembershipID: mid}, adm.Mode)
	assert.Equal(t, bookingModel.BookingStatusPending, adm.Booking.BookingStatus)
	assert.Equal(t, &mid, adm.Booking.BookingMembershipID)
	assert.False(t, adm.TrialConsumed)
	assert.False(t, f.store.snapshot().clients[c.ClientID].ClientTrialUsed)

	// pending deposits hold no seat
	assert.Equal(t, 0, f.occupied(mon.ScheduleID, day(7)))
	assert.Equal(t, notifications.EventBookingPendingPayment, f.sink.last().Type)
}

func TestAdmit_RequestedMembershipMustExist(t *testing.T) {
	f := newFixture(t)
	c := f.client(false)
	mon := f.schedule(1, 5)
	retired := f.membership(membershipModel.MembershipKindPlan, 8)
	f.store.seed(func(st *memState) {
		m := st.memberships[retired.MembershipID]
		m.MembershipIsActive = false
		st.memberships[retired.MembershipID] = m
	})

	for _, id := range []uuid.UUID{uuid.New(), retired.MembershipID} {
		id := id
		_, err := f.svc.Admit(context.Background(), AdmitRequest{
			ClientID: c.ClientID, ScheduleID: mon.ScheduleID, ClassDate: day(7), MembershipID: &id, Actor: member,
		})
		assert.ErrorIs(t, err, ErrMembershipNotFound)
	}
}

func TestAdmit_MembershipOutOfScope(t *testing.T) {
	f := newFixture(t)
	c := f.client(true)
	mon := f.schedule(1, 5)
	other := uuid.New()
	plan := f.membership(membershipModel.MembershipKindPlan, 8)
	f.store.seed(func(st *memState) {
		m := st.memberships[plan.MembershipID]
		m.MembershipScope = membershipModel.MembershipScopeSede
		m.MembershipSedeID = &other
		st.memberships[plan.MembershipID] = m
	})
	f.payment(c.ClientID, plan, 0)

	_, err := f.admit(c.ClientID, mon.ScheduleID, day(7), member)
	assert.ErrorIs(t, err, ErrMembershipOutOfScope)
}

func TestAdmit_StaffCheckinWithoutPayment(t *testing.T) {
	f := newFixture(t)
	c := f.client(true)
	mon := f.schedule(1, 5)

	adm, err := f.svc.Admit(context.Background(), AdmitRequest{
		ClientID: c.ClientID, ScheduleID: mon.ScheduleID, ClassDate: day(0), ManualCheckin: true, Actor: instructor,
	})
	require.NoError(t, err)
	q := adm.Mode.(Quota)
	assert.True(t, q.StaffOverride)
	assert.Equal(t, "staff_override", q.ModeName())
	assert.Equal(t, bookingModel.AttendanceAttended, adm.Booking.BookingAttendanceStatus)
	assert.True(t, adm.Booking.BookingIsManualCheckin)
	assert.NotNil(t, adm.Booking.BookingAttendanceAt)
	assert.Nil(t, adm.Booking.BookingPaymentID)

	// the flag means nothing coming from a client
	_, err = f.svc.Admit(context.Background(), AdmitRequest{
		ClientID: c.ClientID, ScheduleID: mon.ScheduleID, ClassDate: day(7), ManualCheckin: true, Actor: member,
	})
	assert.ErrorIs(t, err, ErrNoActiveMembership)
}

func TestAdmit_ClassDateValidation(t *testing.T) {
	f := newFixture(t)
	mon := f.schedule(1, 5)

	_, err := f.admit(f.client(false).ClientID, mon.ScheduleID, day(1), member)
	assert.ErrorIs(t, err, ErrInvalidDate, "Tuesday for a Monday class")

	_, err = f.admit(f.client(false).ClientID, mon.ScheduleID, day(-7), member)
	assert.ErrorIs(t, err, ErrInvalidDate, "past date from self-service")

	_, err = f.admit(f.client(false).ClientID, mon.ScheduleID, day(-7), staff)
	assert.NoError(t, err, "staff may record past classes")

	_, err = f.svc.Admit(context.Background(), AdmitRequest{ClientID: uuid.New(), ScheduleID: mon.ScheduleID, Actor: member})
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestAdmit_NotFoundAndScope(t *testing.T) {
	f := newFixture(t)
	c := f.client(false)
	mon := f.schedule(1, 5)
	closed := f.schedule(1, 5)
	f.store.seed(func(st *memState) {
		s := st.schedules[closed.ScheduleID]
		s.ScheduleIsActive = false
		st.schedules[closed.ScheduleID] = s
	})

	_, err := f.admit(uuid.New(), mon.ScheduleID, day(7), member)
	assert.ErrorIs(t, err, ErrClientNotFound)

	_, err = f.admit(c.ClientID, uuid.New(), day(7), member)
	assert.ErrorIs(t, err, ErrScheduleNotFound)

	_, err = f.admit(c.ClientID, closed.ScheduleID, day(7), member)
	assert.ErrorIs(t, err, ErrScheduleNotFound)

	_, err = f.svc.Admit(context.Background(), AdmitRequest{
		ClientID: c.ClientID, ScheduleID: mon.ScheduleID, ClassDate: day(7), Actor: staff,
		SedeScope: []uuid.UUID{uuid.New()},
	})
	assert.ErrorIs(t, err, ErrClientNotFound)
}

func TestAdmit_PromotionQuota(t *testing.T) {
	f := newFixture(t)
	c := f.client(true)
	mon := f.schedule(1, 10)
	plan := f.membership(membershipModel.MembershipKindPlan, 0)
	promo := promotionModel.PromotionModel{
		PromotionID:               uuid.New(),
		PromotionName:             "Verano",
		PromotionClassesPerClient: 2,
		PromotionStartDate:        day(-30),
		PromotionEndDate:          day(60),
		PromotionIsActive:         true,
	}
	inst := promotionModel.PromotionInstanceModel{
		PromotionInstanceID:          uuid.New(),
		PromotionInstancePromotionID: promo.PromotionID,
		PromotionInstanceStartDate:   day(-5),
		PromotionInstanceEndDate:     day(25),
	}
	pay := f.payment(c.ClientID, plan, 0)
	f.store.seed(func(st *memState) {
		st.promotions[promo.PromotionID] = promo
		st.instances[inst.PromotionInstanceID] = inst
		p := st.payments[pay.PaymentID]
		p.PaymentPromotionID = &promo.PromotionID
		st.payments[pay.PaymentID] = p
	})

	// client is not attached to any instance yet
	_, err := f.admit(c.ClientID, mon.ScheduleID, day(7), member)
	assert.ErrorIs(t, err, ErrInvalidPromotionInstance)

	f.store.seed(func(st *memState) {
		st.members[inst.PromotionInstanceID] = map[uuid.UUID]bool{c.ClientID: true}
	})

	adm := f.mustAdmit(c.ClientID, mon.ScheduleID, day(7), member)
	q := adm.Mode.(Quota)
	assert.False(t, q.Unlimited, "promotion quota replaces the unlimited plan")
	assert.Equal(t, 2, q.Limit)
	assert.Equal(t, inst.PromotionInstanceID, *q.PromotionInstanceID)

	f.mustAdmit(c.ClientID, mon.ScheduleID, day(14), member)
	_, err = f.admit(c.ClientID, mon.ScheduleID, day(21), member)
	assert.ErrorIs(t, err, ErrQuotaExceeded)
}

func TestAdmit_PromotionInstanceOutsideDates(t *testing.T) {
	f := newFixture(t)
	c := f.client(true)
	mon := f.schedule(1, 10)
	promo := promotionModel.PromotionModel{PromotionID: uuid.New(), PromotionClassesPerClient: 4, PromotionIsActive: true}
	inst := promotionModel.PromotionInstanceModel{
		PromotionInstanceID:          uuid.New(),
		PromotionInstancePromotionID: promo.PromotionID,
		PromotionInstanceStartDate:   day(-60),
		PromotionInstanceEndDate:     day(-31),
	}
	pay := f.payment(c.ClientID, f.membership(membershipModel.MembershipKindPlan, 8), 0)
	f.store.seed(func(st *memState) {
		st.promotions[promo.PromotionID] = promo
		st.instances[inst.PromotionInstanceID] = inst
		st.members[inst.PromotionInstanceID] = map[uuid.UUID]bool{c.ClientID: true}
		p := st.payments[pay.PaymentID]
		p.PaymentPromotionID = &promo.PromotionID
		p.PaymentPromotionInstanceID = &inst.PromotionInstanceID
		st.payments[pay.PaymentID] = p
	})

	_, err := f.admit(c.ClientID, mon.ScheduleID, day(7), member)
	assert.ErrorIs(t, err, ErrPromotionInactive)
}

func TestAdmit_InfrastructureErrorRollsBack(t *testing.T) {
	f := newFixture(t)
	c := f.client(false)
	mon := f.schedule(1, 5)
	f.store.failInsert = errors.New("connection reset")

	_, err := f.admit(c.ClientID, mon.ScheduleID, day(7), member)
	require.Error(t, err)
	_, typed := AsAdmissionError(err)
	assert.False(t, typed)
	assert.Equal(t, CodeInternal, CodeOf(err))

	snap := f.store.snapshot()
	assert.Empty(t, snap.bookings)
	assert.False(t, snap.clients[c.ClientID].ClientTrialUsed)
	assert.Empty(t, f.sink.types(), "no notification for a failed admission")
}

func TestAdmit_NotifiesAfterCommit(t *testing.T) {
	f := newFixture(t)
	c := f.client(false)
	mon := f.schedule(1, 5)

	adm := f.mustAdmit(c.ClientID, mon.ScheduleID, day(7), member)
	ev := f.sink.last()
	assert.Equal(t, notifications.EventBookingConfirmed, ev.Type)
	assert.Equal(t, c.ClientID, ev.ClientID)
	assert.Equal(t, []uuid.UUID{adm.Booking.BookingID}, ev.BookingIDs)
	assert.Equal(t, "free_trial", ev.Payload["mode"])
	assert.Equal(t, "2026-03-09", ev.Payload["class_date"])
}

func TestAdmit_SubmitGuardRejectsInFlightDuplicate(t *testing.T) {
	f := newFixture(t)
	guard := &memGuard{}
	svc := NewService(f.store, f.sink, Options{Now: f.svc.now, Guard: guard})
	c := f.client(false)
	mon := f.schedule(1, 5)

	release, ok := guard.Acquire(context.Background(), SubmitKey(c.ClientID, mon.ScheduleID, day(7)))
	require.True(t, ok)

	_, err := svc.Admit(context.Background(), AdmitRequest{ClientID: c.ClientID, ScheduleID: mon.ScheduleID, ClassDate: day(7), Actor: member})
	assert.ErrorIs(t, err, ErrSubmitInProgress)

	release()
	_, err = svc.Admit(context.Background(), AdmitRequest{ClientID: c.ClientID, ScheduleID: mon.ScheduleID, ClassDate: day(7), Actor: member})
	assert.NoError(t, err)
	assert.Empty(t, guard.held, "key released after admission")
}

func TestRedisSubmitGuard_NilClientAllowsEverything(t *testing.T) {
	g := NewRedisSubmitGuard(nil, 0)
	release, ok := g.Acquire(context.Background(), "k")
	require.True(t, ok)
	release()
}
