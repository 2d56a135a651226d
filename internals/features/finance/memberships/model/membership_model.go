package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MembershipKind string

const (
	// MembershipKindPlan grants a monthly class quota.
	MembershipKindPlan MembershipKind = "plan"
	// MembershipKindIndividual is the pay-per-class product; bookings made
	// with it stay pending until the deposit is confirmed.
	MembershipKindIndividual MembershipKind = "individual"
)

type MembershipScope string

const (
	MembershipScopeGlobal MembershipScope = "global"
	MembershipScopeSede   MembershipScope = "sede"
)

type MembershipModel struct {
	MembershipID              uuid.UUID       `gorm:"column:membership_id;type:uuid;default:gen_random_uuid();primaryKey" json:"membership_id"`
	MembershipName            string          `gorm:"column:membership_name;size:120;not null" json:"membership_name"`
	MembershipDescription     *string         `gorm:"column:membership_description" json:"membership_description,omitempty"`
	MembershipKind            MembershipKind  `gorm:"column:membership_kind;type:varchar(16);not null;default:'plan'" json:"membership_kind"`
	MembershipClassesPerMonth *int            `gorm:"column:membership_classes_per_month" json:"membership_classes_per_month,omitempty"` // null/0 = unlimited
	MembershipScope           MembershipScope `gorm:"column:membership_scope;type:varchar(16);not null;default:'global'" json:"membership_scope"`
	MembershipSedeID          *uuid.UUID      `gorm:"column:membership_sede_id;type:uuid" json:"membership_sede_id,omitempty"`
	MembershipPrice           int64           `gorm:"column:membership_price;not null;default:0" json:"membership_price"`
	MembershipValidityDays    *int            `gorm:"column:membership_validity_days" json:"membership_validity_days,omitempty"`
	MembershipIsActive        bool            `gorm:"column:membership_is_active;not null;default:true" json:"membership_is_active"`

	MembershipCreatedAt time.Time      `gorm:"column:membership_created_at;autoCreateTime" json:"membership_created_at"`
	MembershipUpdatedAt time.Time      `gorm:"column:membership_updated_at;autoUpdateTime" json:"membership_updated_at"`
	MembershipDeletedAt gorm.DeletedAt `gorm:"column:membership_deleted_at;index" json:"-"`
}

func (MembershipModel) TableName() string { return "memberships" }

func (m MembershipModel) IsUnlimited() bool {
	return m.MembershipClassesPerMonth == nil || *m.MembershipClassesPerMonth <= 0
}

func (m MembershipModel) IsIndividual() bool {
	return m.MembershipKind == MembershipKindIndividual
}
