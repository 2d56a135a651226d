package dto

import (
	"errors"
	"strings"

	"github.com/google/uuid"

	"studioku_backend/internals/features/finance/memberships/model"
)

var ErrSedeRequired = errors.New("membership_sede_id is required for sede-scoped memberships")

type CreateMembershipRequest struct {
	MembershipName            string     `json:"membership_name" validate:"required,min=2,max=120"`
	MembershipDescription     *string    `json:"membership_description" validate:"omitempty,max=2000"`
	MembershipKind            string     `json:"membership_kind" validate:"omitempty,oneof=plan individual"`
	MembershipClassesPerMonth *int       `json:"membership_classes_per_month" validate:"omitempty,min=0,max=100"`
	MembershipScope           string     `json:"membership_scope" validate:"omitempty,oneof=global sede"`
	MembershipSedeID          *uuid.UUID `json:"membership_sede_id"`
	MembershipPrice           int64      `json:"membership_price" validate:"min=0"`
	MembershipValidityDays    *int       `json:"membership_validity_days" validate:"omitempty,min=1,max=366"`
}

type UpdateMembershipRequest struct {
	MembershipName            *string    `json:"membership_name" validate:"omitempty,min=2,max=120"`
	MembershipDescription     *string    `json:"membership_description" validate:"omitempty,max=2000"`
	MembershipClassesPerMonth *int       `json:"membership_classes_per_month" validate:"omitempty,min=0,max=100"`
	MembershipScope           *string    `json:"membership_scope" validate:"omitempty,oneof=global sede"`
	MembershipSedeID          *uuid.UUID `json:"membership_sede_id"`
	MembershipPrice           *int64     `json:"membership_price" validate:"omitempty,min=0"`
	MembershipValidityDays    *int       `json:"membership_validity_days" validate:"omitempty,min=1,max=366"`
	MembershipIsActive        *bool      `json:"membership_is_active"`
}

func (r CreateMembershipRequest) ToModel() (model.MembershipModel, error) {
	m := model.MembershipModel{
		MembershipName:            strings.TrimSpace(r.MembershipName),
		MembershipDescription:     r.MembershipDescription,
		MembershipKind:            model.MembershipKindPlan,
		MembershipClassesPerMonth: r.MembershipClassesPerMonth,
		MembershipScope:           model.MembershipScopeGlobal,
		MembershipSedeID:          r.MembershipSedeID,
		MembershipPrice:           r.MembershipPrice,
		MembershipValidityDays:    r.MembershipValidityDays,
		MembershipIsActive:        true,
	}
	if r.MembershipKind != "" {
		m.MembershipKind = model.MembershipKind(r.MembershipKind)
	}
	if r.MembershipScope != "" {
		m.MembershipScope = model.MembershipScope(r.MembershipScope)
	}
	return m, checkScope(&m)
}

// Apply never changes kind; create a new membership instead.
func (r UpdateMembershipRequest) Apply(m *model.MembershipModel) error {
	if r.MembershipName != nil {
		m.MembershipName = strings.TrimSpace(*r.MembershipName)
	}
	if r.MembershipDescription != nil {
		m.MembershipDescription = r.MembershipDescription
	}
	if r.MembershipClassesPerMonth != nil {
		m.MembershipClassesPerMonth = r.MembershipClassesPerMonth
	}
	if r.MembershipScope != nil {
		m.MembershipScope = model.MembershipScope(*r.MembershipScope)
	}
	if r.MembershipSedeID != nil {
		m.MembershipSedeID = r.MembershipSedeID
	}
	if r.MembershipPrice != nil {
		m.MembershipPrice = *r.MembershipPrice
	}
	if r.MembershipValidityDays != nil {
		m.MembershipValidityDays = r.MembershipValidityDays
	}
	if r.MembershipIsActive != nil {
		m.MembershipIsActive = *r.MembershipIsActive
	}
	return checkScope(m)
}

// global memberships never carry a sede.
func checkScope(m *model.MembershipModel) error {
	if m.MembershipScope == model.MembershipScopeGlobal {
		m.MembershipSedeID = nil
		return nil
	}
	if m.MembershipSedeID == nil {
		return ErrSedeRequired
	}
	return nil
}
