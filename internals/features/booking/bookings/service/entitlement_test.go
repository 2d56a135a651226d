package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bookingModel "studioku_backend/internals/features/booking/bookings/model"
	membershipModel "studioku_backend/internals/features/finance/memberships/model"
)

func intPtr(v int) *int { return &v }

func TestBaseQuota(t *testing.T) {
	limit, unlimited := BaseQuota(nil, 3)
	assert.True(t, unlimited)
	assert.Zero(t, limit)

	_, unlimited = BaseQuota(intPtr(0), 0)
	assert.True(t, unlimited)

	limit, unlimited = BaseQuota(intPtr(8), 2)
	assert.False(t, unlimited)
	assert.Equal(t, 10, limit)
}

func TestEffectiveLimit(t *testing.T) {
	assert.Equal(t, 8, EffectiveLimit(8, false))
	assert.Equal(t, 9, EffectiveLimit(8, true))
}

func TestQuotaRemaining(t *testing.T) {
	q := Quota{Limit: 4, Consumed: 6}
	assert.True(t, q.Exhausted())
	assert.Equal(t, 0, *q.Remaining())
	assert.Equal(t, 0, Remaining(3, 5))
	assert.Equal(t, 2, Remaining(5, 3))
}

func TestEntitlementSummary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	fresh := f.client(false)
	sum, err := f.svc.Entitlement(ctx, fresh.ClientID, nil)
	require.NoError(t, err)
	assert.Equal(t, "free_trial", sum.Mode)
	assert.True(t, sum.TrialAvailable)
	assert.Empty(t, sum.BlockedReason)

	lapsed := f.client(true)
	sum, err = f.svc.Entitlement(ctx, lapsed.ClientID, nil)
	require.NoError(t, err)
	assert.Equal(t, "none", sum.Mode)
	assert.Equal(t, CodeNoActiveMembership, sum.BlockedReason)

	full := f.client(true)
	mon := f.schedule(1, 10)
	pay := f.payment(full.ClientID, f.membership(membershipModel.MembershipKindPlan, 2), 0)
	pid := pay.PaymentID
	f.seedBooking(full.ClientID, mon.ScheduleID, day(-7), &pid, bookingModel.AttendanceAttended)
	f.seedBooking(full.ClientID, mon.ScheduleID, day(7), &pid, bookingModel.AttendancePending)

	sum, err = f.svc.Entitlement(ctx, full.ClientID, nil)
	require.NoError(t, err)
	assert.Equal(t, "quota", sum.Mode)
	assert.Equal(t, 2, *sum.Limit)
	assert.Equal(t, 2, sum.Consumed)
	assert.Equal(t, 0, *sum.Remaining)
	assert.Equal(t, CodeQuotaExceeded, sum.BlockedReason)
	assert.Equal(t, "2026-05-01", *sum.ValidUntil)

	_, err = f.svc.Entitlement(ctx, uuid.New(), nil)
	assert.ErrorIs(t, err, ErrClientNotFound)
}
