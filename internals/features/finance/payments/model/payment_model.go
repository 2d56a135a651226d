package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	membershipModel "studioku_backend/internals/features/finance/memberships/model"
)

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusCanceled PaymentStatus = "canceled"
	PaymentStatusExpired  PaymentStatus = "expired"
)

type PaymentMethod string

const (
	PaymentMethodCash     PaymentMethod = "cash"
	PaymentMethodTransfer PaymentMethod = "transfer"
	PaymentMethodCard     PaymentMethod = "card"
	PaymentMethodGateway  PaymentMethod = "gateway"
)

// PaymentModel is a client's purchase of a membership (optionally through a
// promotion). Its quota is valid over [valid_from, valid_until].
type PaymentModel struct {
	PaymentID                  uuid.UUID  `gorm:"column:payment_id;type:uuid;default:gen_random_uuid();primaryKey" json:"payment_id"`
	PaymentClientID            uuid.UUID  `gorm:"column:payment_client_id;type:uuid;not null;index:idx_payments_client_window,priority:1" json:"payment_client_id"`
	PaymentMembershipID        uuid.UUID  `gorm:"column:payment_membership_id;type:uuid;not null" json:"payment_membership_id"`
	PaymentPromotionID         *uuid.UUID `gorm:"column:payment_promotion_id;type:uuid" json:"payment_promotion_id,omitempty"`
	PaymentPromotionInstanceID *uuid.UUID `gorm:"column:payment_promotion_instance_id;type:uuid" json:"payment_promotion_instance_id,omitempty"`
	PaymentBookingID           *uuid.UUID `gorm:"column:payment_booking_id;type:uuid;index" json:"payment_booking_id,omitempty"` // individual-class deposit

	PaymentAmount       int64     `gorm:"column:payment_amount;not null" json:"payment_amount"`
	PaymentExtraClasses int       `gorm:"column:payment_extra_classes;not null;default:0" json:"payment_extra_classes"`
	PaymentDatePaid     time.Time `gorm:"column:payment_date_paid;type:date;not null" json:"payment_date_paid"`
	PaymentValidFrom    time.Time `gorm:"column:payment_valid_from;type:date;not null;index:idx_payments_client_window,priority:2" json:"payment_valid_from"`
	PaymentValidUntil   time.Time `gorm:"column:payment_valid_until;type:date;not null;index:idx_payments_client_window,priority:3" json:"payment_valid_until"`

	PaymentMethod PaymentMethod `gorm:"column:payment_method;type:varchar(16);not null" json:"payment_method"`
	PaymentStatus PaymentStatus `gorm:"column:payment_status;type:varchar(16);not null;default:'paid'" json:"payment_status"`

	PaymentExternalID       *string        `gorm:"column:payment_external_id;size:64;uniqueIndex" json:"payment_external_id,omitempty"`
	PaymentCheckoutURL      *string        `gorm:"column:payment_checkout_url" json:"payment_checkout_url,omitempty"`
	PaymentGatewayReference *string        `gorm:"column:payment_gateway_reference" json:"payment_gateway_reference,omitempty"`
	PaymentMeta             datatypes.JSON `gorm:"column:payment_meta;type:jsonb" json:"payment_meta,omitempty"`
	PaymentPaidAt           *time.Time     `gorm:"column:payment_paid_at" json:"payment_paid_at,omitempty"`

	PaymentRecordedBy *uuid.UUID `gorm:"column:payment_recorded_by;type:uuid" json:"payment_recorded_by,omitempty"`
	PaymentNotes      *string    `gorm:"column:payment_notes" json:"payment_notes,omitempty"`

	PaymentCreatedAt time.Time      `gorm:"column:payment_created_at;autoCreateTime" json:"payment_created_at"`
	PaymentUpdatedAt time.Time      `gorm:"column:payment_updated_at;autoUpdateTime" json:"payment_updated_at"`
	PaymentDeletedAt gorm.DeletedAt `gorm:"column:payment_deleted_at;index" json:"-"`
}

func (PaymentModel) TableName() string { return "payments" }

// CoversDate: valid_from <= day <= valid_until.
func (m PaymentModel) CoversDate(day time.Time) bool {
	return !day.Before(m.PaymentValidFrom) && !day.After(m.PaymentValidUntil)
}

// ActivePlanOn scopes a query on the payments table to the client's paid,
// non-individual payments covering day, newest first. Memberships are joined
// as m.
func ActivePlanOn(clientID uuid.UUID, day time.Time) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.
			Joins("JOIN memberships m ON m.membership_id = payments.payment_membership_id").
			Where("payments.payment_client_id = ?", clientID).
			Where("payments.payment_status = ?", PaymentStatusPaid).
			Where("m.membership_kind <> ?", membershipModel.MembershipKindIndividual).
			Where("payments.payment_valid_from <= ? AND payments.payment_valid_until >= ?", day, day).
			Where("payments.payment_deleted_at IS NULL").
			Order("payments.payment_date_paid DESC, payments.payment_created_at DESC")
	}
}
