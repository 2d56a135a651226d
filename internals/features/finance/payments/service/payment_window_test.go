package service

import (
	"context"
	"crypto/sha512"
	"encoding/hex"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studioku_backend/internals/features/finance/payments/model"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNormalizeWindow_Defaults(t *testing.T) {
	paid := time.Date(2026, 3, 2, 17, 45, 0, 0, time.FixedZone("WIB", 7*3600))

	from, until, err := NormalizeWindow(paid, nil, nil, 0)
	require.NoError(t, err)
	assert.Equal(t, date(2026, 3, 2), from)
	assert.Equal(t, date(2026, 4, 1), until)

	_, until, err = NormalizeWindow(paid, nil, nil, 60)
	require.NoError(t, err)
	assert.Equal(t, date(2026, 5, 1), until)
}

func TestNormalizeWindow_Explicit(t *testing.T) {
	vf := date(2026, 3, 10)
	vu := date(2026, 3, 20)
	from, until, err := NormalizeWindow(date(2026, 3, 2), &vf, &vu, 30)
	require.NoError(t, err)
	assert.Equal(t, vf, from)
	assert.Equal(t, vu, until)

	// only from given: until still counts from date_paid
	from, until, err = NormalizeWindow(date(2026, 3, 2), &vf, nil, 30)
	require.NoError(t, err)
	assert.Equal(t, vf, from)
	assert.Equal(t, date(2026, 4, 1), until)

	bad := date(2026, 3, 1)
	_, _, err = NormalizeWindow(date(2026, 3, 2), &vf, &bad, 30)
	assert.ErrorIs(t, err, ErrInvalidWindow)
}

func TestDepositAmount(t *testing.T) {
	assert.Equal(t, int64(75000), DepositAmount(150000, 50))
	assert.Equal(t, int64(34), DepositAmount(101, 33))
	assert.Equal(t, int64(150000), DepositAmount(150000, 0))
	assert.Equal(t, int64(150000), DepositAmount(150000, 120))
	assert.Zero(t, DepositAmount(0, 50))
}

func TestVerifySignature(t *testing.T) {
	sum := sha512.Sum512([]byte("DEP-1" + "200" + "75000.00" + "server-key"))
	sig := hex.EncodeToString(sum[:])

	assert.True(t, VerifySignature("DEP-1", "200", "75000.00", "server-key", sig))
	assert.True(t, VerifySignature("DEP-1", "200", "75000.00", "server-key", " "+sig+" "))
	assert.False(t, VerifySignature("DEP-1", "200", "75001.00", "server-key", sig))
	assert.False(t, VerifySignature("DEP-1", "200", "75000.00", "other-key", sig))
	assert.False(t, VerifySignature("DEP-1", "200", "75000.00", "server-key", ""))
	assert.False(t, VerifySignature("DEP-1", "200", "75000.00", "", sig))
}

func TestMapMidtransStatus(t *testing.T) {
	cases := []struct {
		tx, fraud string
		want      model.PaymentStatus
		ok        bool
	}{
		{"settlement", "", model.PaymentStatusPaid, true},
		{"capture", "accept", model.PaymentStatusPaid, true},
		{"capture", "challenge", "", false},
		{"capture", "deny", model.PaymentStatusFailed, true},
		{"deny", "", model.PaymentStatusFailed, true},
		{"cancel", "", model.PaymentStatusCanceled, true},
		{"EXPIRE", "", model.PaymentStatusExpired, true},
		{"pending", "", "", false},
		{"refund", "", "", false},
	}
	for _, tc := range cases {
		got, ok := MapMidtransStatus(tc.tx, tc.fraud)
		assert.Equal(t, tc.ok, ok, tc.tx)
		assert.Equal(t, tc.want, got, tc.tx)
	}
}

func TestNewOrderID(t *testing.T) {
	a, b := NewOrderID("DEP"), NewOrderID("DEP")
	assert.NotEqual(t, a, b)
	assert.Len(t, a, 24)
	assert.Equal(t, "DEP-", a[:4])
}

func TestCreateDepositCheckout_DisabledWithoutKey(t *testing.T) {
	InitMidtrans("", false)
	assert.False(t, GatewayEnabled())
	_, err := CreateDepositCheckout(context.Background(), nil, DepositCheckoutInput{Amount: 1})
	assert.ErrorIs(t, err, ErrGatewayDisabled)
}
