package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusActive    BookingStatus = "active"
	BookingStatusCancelled BookingStatus = "cancelled"
)

type AttendanceStatus string

const (
	AttendancePending  AttendanceStatus = "pending"
	AttendanceAttended AttendanceStatus = "attended"
	AttendanceNoShow   AttendanceStatus = "no_show"
)

type CancellationType string

const (
	CancelledByClient     CancellationType = "client"
	CancelledByInstructor CancellationType = "instructor"
	CancelledByAdmin      CancellationType = "admin"
)

func (t CancellationType) Valid() bool {
	switch t {
	case CancelledByClient, CancelledByInstructor, CancelledByAdmin:
		return true
	}
	return false
}

// BookingModel is one client's seat on a schedule template occurrence.
// Non-cancelled rows are unique per (client, schedule, class_date) through
// the partial index uq_bookings_live_slot (see databases/migrate.go).
type BookingModel struct {
	BookingID         uuid.UUID `gorm:"column:booking_id;type:uuid;default:gen_random_uuid();primaryKey" json:"booking_id"`
	BookingClientID   uuid.UUID `gorm:"column:booking_client_id;type:uuid;not null;index:idx_bookings_client_payment,priority:1" json:"booking_client_id"`
	BookingScheduleID uuid.UUID `gorm:"column:booking_schedule_id;type:uuid;not null;index:idx_bookings_slot,priority:1" json:"booking_schedule_id"`
	BookingClassDate  time.Time `gorm:"column:booking_class_date;type:date;not null;index:idx_bookings_slot,priority:2" json:"booking_class_date"`

	BookingStatus           BookingStatus    `gorm:"column:booking_status;type:varchar(16);not null" json:"booking_status"`
	BookingAttendanceStatus AttendanceStatus `gorm:"column:booking_attendance_status;type:varchar(16);not null;default:'pending'" json:"booking_attendance_status"`
	BookingIsTrial          bool             `gorm:"column:booking_is_trial;not null;default:false" json:"booking_is_trial"`
	BookingIsManualCheckin  bool             `gorm:"column:booking_is_manual_checkin;not null;default:false" json:"booking_is_manual_checkin"`

	BookingMembershipID  *uuid.UUID `gorm:"column:booking_membership_id;type:uuid" json:"booking_membership_id,omitempty"`
	BookingPaymentID     *uuid.UUID `gorm:"column:booking_payment_id;type:uuid;index:idx_bookings_client_payment,priority:2" json:"booking_payment_id,omitempty"`
	BookingBulkBookingID *uuid.UUID `gorm:"column:booking_bulk_booking_id;type:uuid;index" json:"booking_bulk_booking_id,omitempty"`

	BookingCancellationType   *CancellationType `gorm:"column:booking_cancellation_type;type:varchar(16)" json:"booking_cancellation_type,omitempty"`
	BookingCancellationReason *string           `gorm:"column:booking_cancellation_reason" json:"booking_cancellation_reason,omitempty"`
	BookingCancelledAt        *time.Time        `gorm:"column:booking_cancelled_at" json:"booking_cancelled_at,omitempty"`
	BookingAttendanceAt       *time.Time        `gorm:"column:booking_attendance_at" json:"booking_attendance_at,omitempty"`

	BookingCreatedBy *uuid.UUID `gorm:"column:booking_created_by;type:uuid" json:"booking_created_by,omitempty"`
	BookingCreatedAt time.Time  `gorm:"column:booking_created_at;autoCreateTime" json:"booking_created_at"`
	BookingUpdatedAt time.Time  `gorm:"column:booking_updated_at;autoUpdateTime" json:"booking_updated_at"`
}

func (BookingModel) TableName() string { return "bookings" }

// OccupiesSeat: only active, non-cancelled attendance counts toward capacity.
func (m BookingModel) OccupiesSeat() bool {
	return m.BookingStatus == BookingStatusActive
}

type BulkBookingStatus string

const (
	BulkStatusPending    BulkBookingStatus = "pending"
	BulkStatusProcessing BulkBookingStatus = "processing"
	BulkStatusCompleted  BulkBookingStatus = "completed"
	BulkStatusFailed     BulkBookingStatus = "failed"
	BulkStatusPartial    BulkBookingStatus = "partial"
)

// DeriveBulkStatus: completed with no failures, failed with no successes,
// partial otherwise.
func DeriveBulkStatus(successful, failed int) BulkBookingStatus {
	switch {
	case failed == 0:
		return BulkStatusCompleted
	case successful == 0:
		return BulkStatusFailed
	default:
		return BulkStatusPartial
	}
}

type BulkBookingModel struct {
	BulkBookingID           uuid.UUID         `gorm:"column:bulk_booking_id;type:uuid;default:gen_random_uuid();primaryKey" json:"bulk_booking_id"`
	BulkBookingClientID     uuid.UUID         `gorm:"column:bulk_booking_client_id;type:uuid;not null;index" json:"bulk_booking_client_id"`
	BulkBookingMembershipID *uuid.UUID        `gorm:"column:bulk_booking_membership_id;type:uuid" json:"bulk_booking_membership_id,omitempty"`
	BulkBookingTotal        int               `gorm:"column:bulk_booking_total;not null" json:"total_bookings"`
	BulkBookingSuccessful   int               `gorm:"column:bulk_booking_successful;not null;default:0" json:"successful_bookings"`
	BulkBookingFailed       int               `gorm:"column:bulk_booking_failed;not null;default:0" json:"failed_bookings"`
	BulkBookingStatus       BulkBookingStatus `gorm:"column:bulk_booking_status;type:varchar(16);not null;default:'pending'" json:"status"`
	BulkBookingResults      datatypes.JSON    `gorm:"column:bulk_booking_results;type:jsonb" json:"results,omitempty"`
	BulkBookingCreatedBy    *uuid.UUID        `gorm:"column:bulk_booking_created_by;type:uuid" json:"bulk_booking_created_by,omitempty"`

	BulkBookingCreatedAt time.Time `gorm:"column:bulk_booking_created_at;autoCreateTime" json:"created_at"`
	BulkBookingUpdatedAt time.Time `gorm:"column:bulk_booking_updated_at;autoUpdateTime" json:"updated_at"`
}

func (BulkBookingModel) TableName() string { return "bulk_bookings" }
