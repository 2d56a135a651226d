package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	membershipModel "studioku_backend/internals/features/finance/memberships/model"
	clientModel "studioku_backend/internals/features/studio/clients/model"
	scheduleModel "studioku_backend/internals/features/studio/schedules/model"
)

type entitlementInput struct {
	Client    *clientModel.ClientModel
	Schedule  *scheduleModel.ScheduleModel // nil for the read-only summary
	Requested *membershipModel.MembershipModel
	// staff manual check-in may proceed without an active payment
	StaffCheckin bool
	Today        time.Time
}

// resolveEntitlement picks the admission mode in priority order
// individual-paid, free trial, quota.
func resolveEntitlement(ctx context.Context, repo Repository, in entitlementInput) (AdmissionMode, error) {
	if req := in.Requested; req != nil && req.IsIndividual() {
		if err := checkMembershipScope(req.MembershipScope, req.MembershipSedeID, in.Schedule); err != nil {
			return nil, err
		}
		return IndividualPaid{MembershipID: req.MembershipID}, nil
	}

	if !in.Client.ClientTrialUsed {
		return FreeTrial{}, nil
	}

	payment, err := repo.FindActivePayment(ctx, in.Client.ClientID, in.Today)
	if err != nil {
		return nil, fmt.Errorf("find active payment: %w", err)
	}
	if payment == nil {
		if in.StaffCheckin {
			return Quota{Unlimited: true, StaffOverride: true}, nil
		}
		return nil, ErrNoActiveMembership
	}

	if err := checkMembershipScope(payment.MembershipScope, payment.MembershipSedeID, in.Schedule); err != nil {
		return nil, err
	}

	q, err := quotaFor(ctx, repo, in.Client.ClientID, payment, in.Today)
	if err != nil {
		return nil, err
	}
	if q.Exhausted() {
		return nil, withMessage(ErrQuotaExceeded, "class limit reached (%d of %d used)", q.Consumed, q.Limit)
	}
	return q, nil
}

// quotaFor computes limit and consumption for a payment. Promotion errors are
// returned; exhaustion is left to the caller.
func quotaFor(ctx context.Context, repo Repository, clientID uuid.UUID, p *ActivePayment, today time.Time) (Quota, error) {
	paymentID, membershipID := p.PaymentID, p.MembershipID
	q := Quota{PaymentID: &paymentID, MembershipID: &membershipID}

	if p.PromotionID != nil {
		grant, err := repo.FindPromotionGrant(ctx, clientID, *p.PromotionID, p.PromotionInstanceID)
		if err != nil {
			return Quota{}, fmt.Errorf("find promotion grant: %w", err)
		}
		if grant == nil {
			return Quota{}, ErrInvalidPromotionInstance
		}
		if !grant.ActiveOn(today) {
			return Quota{}, withMessage(ErrPromotionInactive, "promotion runs from %s to %s",
				grant.StartDate.Format(time.DateOnly), grant.EndDate.Format(time.DateOnly))
		}
		instanceID := grant.InstanceID
		q.PromotionInstanceID = &instanceID
		q.BaseLimit = grant.ClassesPerClient + p.ExtraClasses
	} else {
		q.BaseLimit, q.Unlimited = BaseQuota(p.ClassesPerMonth, p.ExtraClasses)
	}

	if q.Unlimited {
		return q, nil
	}

	consumed, err := repo.CountConsumed(ctx, clientID, paymentID, today)
	if err != nil {
		return Quota{}, fmt.Errorf("count consumed: %w", err)
	}
	noShow, err := repo.HasNoShow(ctx, clientID, paymentID)
	if err != nil {
		return Quota{}, fmt.Errorf("check no-show: %w", err)
	}
	q.Consumed = consumed
	q.Reposition = noShow
	q.Limit = EffectiveLimit(q.BaseLimit, noShow)
	return q, nil
}

func checkMembershipScope(scope membershipModel.MembershipScope, sedeID *uuid.UUID, sch *scheduleModel.ScheduleModel) error {
	if sch == nil || scope != membershipModel.MembershipScopeSede || sedeID == nil {
		return nil
	}
	if *sedeID != sch.ScheduleSedeID {
		return ErrMembershipOutOfScope
	}
	return nil
}

/* =========================================================
   Read-only summary for dashboards
   ========================================================= */

type EntitlementSummary struct {
	ClientID       uuid.UUID  `json:"client_id"`
	Mode           string     `json:"mode"` // free_trial | quota | none
	TrialAvailable bool       `json:"trial_available"`
	PaymentID      *uuid.UUID `json:"payment_id,omitempty"`
	MembershipID   *uuid.UUID `json:"membership_id,omitempty"`
	MembershipName string     `json:"membership_name,omitempty"`
	ValidUntil     *string    `json:"valid_until,omitempty"`
	Limit          *int       `json:"limit,omitempty"`
	Consumed       int        `json:"consumed"`
	Remaining      *int       `json:"remaining,omitempty"`
	Reposition     bool       `json:"reposition_granted"`
	Unlimited      bool       `json:"unlimited"`
	BlockedReason  ErrorCode  `json:"blocked_reason,omitempty"`
}

func summarize(ctx context.Context, repo Repository, client *clientModel.ClientModel, today time.Time) (*EntitlementSummary, error) {
	out := &EntitlementSummary{
		ClientID:       client.ClientID,
		Mode:           "none",
		TrialAvailable: !client.ClientTrialUsed,
	}

	payment, err := repo.FindActivePayment(ctx, client.ClientID, today)
	if err != nil {
		return nil, fmt.Errorf("find active payment: %w", err)
	}

	if payment != nil {
		pid, mid := payment.PaymentID, payment.MembershipID
		until := payment.ValidUntil.Format(time.DateOnly)
		out.PaymentID, out.MembershipID = &pid, &mid
		out.MembershipName = payment.MembershipName
		out.ValidUntil = &until

		q, err := quotaFor(ctx, repo, client.ClientID, payment, today)
		if err != nil {
			if _, ok := AsAdmissionError(err); !ok {
				return nil, err
			}
			out.BlockedReason = CodeOf(err)
		} else {
			out.Mode = "quota"
			out.Unlimited = q.Unlimited
			out.Consumed = q.Consumed
			out.Reposition = q.Reposition
			out.Remaining = q.Remaining()
			if !q.Unlimited {
				limit := q.Limit
				out.Limit = &limit
				if q.Exhausted() {
					out.BlockedReason = CodeQuotaExceeded
				}
			}
		}
	}

	// the trial takes precedence over the quota at admission time
	if out.TrialAvailable {
		out.Mode = "free_trial"
		out.BlockedReason = ""
	} else if payment == nil {
		out.BlockedReason = CodeNoActiveMembership
	}
	return out, nil
}
