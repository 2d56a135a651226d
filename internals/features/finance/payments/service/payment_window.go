package service

import (
	"errors"
	"time"
)

const DefaultValidityDays = 30

var ErrInvalidWindow = errors.New("valid_until must not be before valid_from")

// NormalizeWindow fills the validity window of a payment.
// valid_from defaults to date_paid, valid_until to date_paid + validityDays.
// All three are truncated to calendar dates (UTC midnight).
func NormalizeWindow(datePaid time.Time, validFrom, validUntil *time.Time, validityDays int) (time.Time, time.Time, error) {
	if validityDays <= 0 {
		validityDays = DefaultValidityDays
	}
	paid := dateOnly(datePaid)

	from := paid
	if validFrom != nil && !validFrom.IsZero() {
		from = dateOnly(*validFrom)
	}
	until := paid.AddDate(0, 0, validityDays)
	if validUntil != nil && !validUntil.IsZero() {
		until = dateOnly(*validUntil)
	}

	if until.Before(from) {
		return time.Time{}, time.Time{}, ErrInvalidWindow
	}
	return from, until, nil
}

// DepositAmount is percent of price, rounded up to a whole unit.
func DepositAmount(price int64, percent int) int64 {
	if price <= 0 {
		return 0
	}
	if percent <= 0 || percent > 100 {
		percent = 100
	}
	return (price*int64(percent) + 99) / 100
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
