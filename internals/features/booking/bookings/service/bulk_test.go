package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bookingModel "studioku_backend/internals/features/booking/bookings/model"
	membershipModel "studioku_backend/internals/features/finance/memberships/model"
	"studioku_backend/internals/notifications"
)

func TestExpandBulkItems(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	items := []BulkItem{{ScheduleID: a, ClassDate: day(7)}, {ScheduleID: b, ClassDate: day(9)}}

	assert.Equal(t, items, ExpandBulkItems(items, 0))
	assert.Equal(t, items, ExpandBulkItems(items, 1))

	got := ExpandBulkItems(items, 3)
	require.Len(t, got, 6)
	assert.Equal(t, BulkItem{ScheduleID: a, ClassDate: day(21)}, got[2])
	assert.Equal(t, BulkItem{ScheduleID: b, ClassDate: day(9)}, got[3])
	assert.Equal(t, BulkItem{ScheduleID: b, ClassDate: day(23)}, got[5])
}

func TestAdmitBatch_PartialWhenOneSlotIsFull(t *testing.T) {
	f := newFixture(t)
	c := f.client(true)
	f.payment(c.ClientID, f.membership(membershipModel.MembershipKindPlan, 8), 0)
	mon := f.schedule(1, 1)
	wed := f.schedule(3, 5)
	f.mustAdmit(f.client(false).ClientID, mon.ScheduleID, day(7), member)

	res, err := f.svc.AdmitBatch(context.Background(), BulkRequest{
		ClientID: c.ClientID,
		Items: []BulkItem{
			{ScheduleID: mon.ScheduleID, ClassDate: day(7)},
			{ScheduleID: wed.ScheduleID, ClassDate: day(9)},
			{ScheduleID: mon.ScheduleID, ClassDate: day(14)},
		},
		Actor: staff,
	})
	require.NoError(t, err)

	assert.Equal(t, bookingModel.BulkStatusPartial, res.Status)
	assert.Equal(t, 3, res.TotalBookings)
	assert.Equal(t, 2, res.SuccessfulBookings)
	assert.Equal(t, 1, res.FailedBookings)
	assert.Equal(t, res.TotalBookings, res.SuccessfulBookings+res.FailedBookings)

	require.Len(t, res.Results, 3)
	assert.False(t, res.Results[0].Success)
	assert.Equal(t, CodeCapacityExceeded, res.Results[0].ErrorCode)
	assert.Equal(t, "2026-03-09", res.Results[0].ClassDate)
	assert.True(t, res.Results[1].Success)
	assert.Equal(t, "quota", res.Results[1].Mode)
	assert.True(t, res.Results[2].Success)

	snap := f.store.snapshot()
	bulk := snap.bulks[res.BulkBookingID]
	assert.Equal(t, bookingModel.BulkStatusPartial, bulk.BulkBookingStatus)
	assert.Equal(t, 2, bulk.BulkBookingSuccessful)
	assert.Equal(t, 1, bulk.BulkBookingFailed)
	assert.Contains(t, string(bulk.BulkBookingResults), "CAPACITY_EXCEEDED")

	for _, r := range res.Results[1:] {
		b := snap.bookings[*r.BookingID]
		require.NotNil(t, b.BookingBulkBookingID)
		assert.Equal(t, res.BulkBookingID, *b.BookingBulkBookingID)
	}

	ev := f.sink.last()
	assert.Equal(t, notifications.EventBulkCompleted, ev.Type)
	assert.Len(t, ev.BookingIDs, 2)
}

func TestAdmitBatch_TrialCoversOnlyTheFirstItem(t *testing.T) {
	f := newFixture(t)
	c := f.client(false)
	mon := f.schedule(1, 5)

	res, err := f.svc.AdmitBatch(context.Background(), BulkRequest{
		ClientID:      c.ClientID,
		Items:         []BulkItem{{ScheduleID: mon.ScheduleID, ClassDate: day(7)}},
		NumberOfSlots: 2,
		Actor:         member,
	})
	require.NoError(t, err)
	assert.Equal(t, bookingModel.BulkStatusPartial, res.Status)
	assert.Equal(t, "free_trial", res.Results[0].Mode)
	assert.Equal(t, CodeNoActiveMembership, res.Results[1].ErrorCode)
	assert.Equal(t, "2026-03-16", res.Results[1].ClassDate)
}

func TestAdmitBatch_AllFailed(t *testing.T) {
	f := newFixture(t)
	c := f.client(true)
	mon := f.schedule(1, 5)

	res, err := f.svc.AdmitBatch(context.Background(), BulkRequest{
		ClientID: c.ClientID,
		Items: []BulkItem{
			{ScheduleID: mon.ScheduleID, ClassDate: day(7)},
			{ScheduleID: uuid.New(), ClassDate: day(7)},
		},
		Actor: staff,
	})
	require.NoError(t, err)
	assert.Equal(t, bookingModel.BulkStatusFailed, res.Status)
	assert.Equal(t, CodeScheduleNotFound, res.Results[1].ErrorCode)
	assert.Equal(t, bookingModel.BulkStatusFailed, f.store.snapshot().bulks[res.BulkBookingID].BulkBookingStatus)
	assert.Empty(t, f.sink.types())
}

func TestAdmitBatch_Completed(t *testing.T) {
	f := newFixture(t)
	c := f.client(true)
	f.payment(c.ClientID, f.membership(membershipModel.MembershipKindPlan, 0), 0)
	mon := f.schedule(1, 5)

	res, err := f.svc.AdmitBatch(context.Background(), BulkRequest{
		ClientID:      c.ClientID,
		Items:         []BulkItem{{ScheduleID: mon.ScheduleID, ClassDate: day(7)}},
		NumberOfSlots: 4,
		Actor:         staff,
	})
	require.NoError(t, err)
	assert.Equal(t, bookingModel.BulkStatusCompleted, res.Status)
	assert.Equal(t, 4, res.SuccessfulBookings)
	assert.Equal(t, 1, f.occupied(mon.ScheduleID, day(28)))
}

func TestAdmitBatch_FinalizeFailureKeepsResults(t *testing.T) {
	f := newFixture(t)
	c := f.client(true)
	f.payment(c.ClientID, f.membership(membershipModel.MembershipKindPlan, 0), 0)
	mon := f.schedule(1, 5)
	f.store.failSaveBulk = errors.New("connection reset")

	res, err := f.svc.AdmitBatch(context.Background(), BulkRequest{
		ClientID:      c.ClientID,
		Items:         []BulkItem{{ScheduleID: mon.ScheduleID, ClassDate: day(7)}},
		NumberOfSlots: 2,
		Actor:         staff,
	})
	require.NoError(t, err)
	assert.True(t, res.TrackingStale)
	assert.Equal(t, bookingModel.BulkStatusCompleted, res.Status)
	assert.Equal(t, 2, res.SuccessfulBookings)

	// bookings stay committed, the tracking row keeps its initial state
	assert.Equal(t, 1, f.occupied(mon.ScheduleID, day(14)))
	assert.Equal(t, bookingModel.BulkStatusProcessing, f.store.snapshot().bulks[res.BulkBookingID].BulkBookingStatus)

	ev := f.sink.last()
	assert.Equal(t, notifications.EventBulkCompleted, ev.Type)
	assert.Len(t, ev.BookingIDs, 2)
}

func TestAdmitBatch_RejectsBadBatches(t *testing.T) {
	f := newFixture(t)
	c := f.client(true)
	mon := f.schedule(1, 5)

	_, err := f.svc.AdmitBatch(context.Background(), BulkRequest{ClientID: c.ClientID, Actor: staff})
	assert.ErrorIs(t, err, ErrEmptyBatch)

	many := make([]BulkItem, f.svc.BulkMaxItems()+1)
	for i := range many {
		many[i] = BulkItem{ScheduleID: mon.ScheduleID, ClassDate: day(7 * (i + 1))}
	}
	_, err = f.svc.AdmitBatch(context.Background(), BulkRequest{ClientID: c.ClientID, Items: many, Actor: staff})
	assert.ErrorIs(t, err, ErrTooManyItems)

	_, err = f.svc.AdmitBatch(context.Background(), BulkRequest{
		ClientID: c.ClientID, Items: many[:5], NumberOfSlots: 5, Actor: staff,
	})
	assert.ErrorIs(t, err, ErrTooManyItems, "limit applies after weekly expansion")

	_, err = f.svc.AdmitBatch(context.Background(), BulkRequest{ClientID: uuid.New(), Items: many[:1], Actor: staff})
	assert.ErrorIs(t, err, ErrClientNotFound)

	assert.Empty(t, f.store.snapshot().bulks)
}
