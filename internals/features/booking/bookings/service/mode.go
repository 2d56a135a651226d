package service

import "github.com/google/uuid"

// AdmissionMode is the entitlement a booking is admitted under. The set of
// variants is closed: IndividualPaid, FreeTrial, Quota.
type AdmissionMode interface {
	ModeName() string
	admissionMode()
}

// IndividualPaid: pay-per-class product; the booking waits for a deposit.
type IndividualPaid struct {
	MembershipID uuid.UUID
}

// FreeTrial: the client's one free class.
type FreeTrial struct{}

// Quota: charged against the active payment. StaffOverride marks a staff
// manual check-in admitted without any payment.
type Quota struct {
	PaymentID           *uuid.UUID
	MembershipID        *uuid.UUID
	PromotionInstanceID *uuid.UUID
	BaseLimit           int
	Limit               int // BaseLimit plus the reposition slot
	Consumed            int
	Reposition          bool
	Unlimited           bool
	StaffOverride       bool
}

func (IndividualPaid) ModeName() string { return "individual_paid" }
func (FreeTrial) ModeName() string      { return "free_trial" }
func (q Quota) ModeName() string {
	if q.StaffOverride {
		return "staff_override"
	}
	return "quota"
}

func (IndividualPaid) admissionMode() {}
func (FreeTrial) admissionMode()      {}
func (Quota) admissionMode()          {}

// Exhausted reports whether one more booking would exceed the limit.
func (q Quota) Exhausted() bool {
	return !q.Unlimited && q.Consumed >= q.Limit
}

// Remaining is nil when unlimited.
func (q Quota) Remaining() *int {
	if q.Unlimited {
		return nil
	}
	r := q.Limit - q.Consumed
	if r < 0 {
		r = 0
	}
	return &r
}

// EffectiveLimit grants exactly one reposition slot when the payment has any
// no-show, however many.
func EffectiveLimit(quota int, hasNoShow bool) int {
	if hasNoShow {
		return quota + 1
	}
	return quota
}

// BaseQuota computes the class quota of a plan payment. unlimited is true when
// classes_per_month is null or zero.
func BaseQuota(classesPerMonth *int, extraClasses int) (limit int, unlimited bool) {
	if classesPerMonth == nil || *classesPerMonth <= 0 {
		return 0, true
	}
	return *classesPerMonth + extraClasses, false
}
