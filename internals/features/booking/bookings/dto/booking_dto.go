package dto

import (
	"time"

	"github.com/google/uuid"

	"studioku_backend/internals/features/booking/bookings/model"
	"studioku_backend/internals/features/booking/bookings/service"
	"studioku_backend/internals/helpers/dbtime"
)

/* =========================================================
   REQUESTS
========================================================= */

// CreateBookingRequest. client_id is ignored on the self-service route.
type CreateBookingRequest struct {
	ClientID      uuid.UUID  `json:"client_id"`
	ScheduleID    uuid.UUID  `json:"schedule_id" validate:"required"`
	ClassDate     string     `json:"class_date" validate:"required,datetime=2006-01-02"`
	MembershipID  *uuid.UUID `json:"membership_id"`
	ManualCheckin bool       `json:"manual_checkin"`
}

type BulkItemRequest struct {
	ScheduleID uuid.UUID `json:"schedule_id" validate:"required"`
	ClassDate  string    `json:"class_date" validate:"required,datetime=2006-01-02"`
}

type BulkBookingRequest struct {
	ClientID      uuid.UUID         `json:"client_id"`
	Items         []BulkItemRequest `json:"items" validate:"required,min=1,dive"`
	MembershipID  *uuid.UUID        `json:"membership_id"`
	NumberOfSlots int               `json:"number_of_slots" validate:"gte=0,lte=52"`
}

// ToItems parses item dates; validation already guarantees the layout.
func (r BulkBookingRequest) ToItems() ([]service.BulkItem, error) {
	out := make([]service.BulkItem, 0, len(r.Items))
	for _, it := range r.Items {
		d, err := dbtime.ParseDate(it.ClassDate)
		if err != nil {
			return nil, err
		}
		out = append(out, service.BulkItem{ScheduleID: it.ScheduleID, ClassDate: d})
	}
	return out, nil
}

type CancelBookingRequest struct {
	Reason      string `json:"reason" validate:"max=500"`
	CancelledBy string `json:"cancelled_by" validate:"omitempty,oneof=client instructor admin"`
}

type RescheduleBookingRequest struct {
	ScheduleID uuid.UUID `json:"schedule_id" validate:"required"`
	ClassDate  string    `json:"class_date" validate:"required,datetime=2006-01-02"`
}

type AttendanceRequest struct {
	AttendanceStatus string `json:"attendance_status" validate:"required,oneof=pending attended no_show"`
}

/* =========================================================
   RESPONSES
========================================================= */

type BookingResponse struct {
	BookingID          uuid.UUID  `json:"booking_id"`
	ClientID           uuid.UUID  `json:"client_id"`
	ScheduleID         uuid.UUID  `json:"schedule_id"`
	ClassDate          string     `json:"class_date"`
	Status             string     `json:"status"`
	AttendanceStatus   string     `json:"attendance_status"`
	IsTrial            bool       `json:"is_trial"`
	IsManualCheckin    bool       `json:"is_manual_checkin"`
	MembershipID       *uuid.UUID `json:"membership_id,omitempty"`
	PaymentID          *uuid.UUID `json:"payment_id,omitempty"`
	BulkBookingID      *uuid.UUID `json:"bulk_booking_id,omitempty"`
	CancellationType   *string    `json:"cancellation_type,omitempty"`
	CancellationReason *string    `json:"cancellation_reason,omitempty"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`
	AttendanceAt       *time.Time `json:"attendance_at,omitempty"`
	CreatedBy          *uuid.UUID `json:"created_by,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
}

func FromModel(m *model.BookingModel) BookingResponse {
	out := BookingResponse{
		BookingID:          m.BookingID,
		ClientID:           m.BookingClientID,
		ScheduleID:         m.BookingScheduleID,
		ClassDate:          dbtime.FormatDate(m.BookingClassDate),
		Status:             string(m.BookingStatus),
		AttendanceStatus:   string(m.BookingAttendanceStatus),
		IsTrial:            m.BookingIsTrial,
		IsManualCheckin:    m.BookingIsManualCheckin,
		MembershipID:       m.BookingMembershipID,
		PaymentID:          m.BookingPaymentID,
		BulkBookingID:      m.BookingBulkBookingID,
		CancellationReason: m.BookingCancellationReason,
		CancelledAt:        m.BookingCancelledAt,
		AttendanceAt:       m.BookingAttendanceAt,
		CreatedBy:          m.BookingCreatedBy,
		CreatedAt:          m.BookingCreatedAt,
	}
	if m.BookingCancellationType != nil {
		s := string(*m.BookingCancellationType)
		out.CancellationType = &s
	}
	return out
}

func FromModels(rows []model.BookingModel) []BookingResponse {
	out := make([]BookingResponse, 0, len(rows))
	for i := range rows {
		out = append(out, FromModel(&rows[i]))
	}
	return out
}

// AdmissionResponse is the body of a successful single admission.
type AdmissionResponse struct {
	BookingID   uuid.UUID  `json:"booking_id"`
	Status      string     `json:"status"`
	Mode        string     `json:"mode"`
	Message     string     `json:"message"`
	IsTrial     bool       `json:"is_trial"`
	PaymentID   *uuid.UUID `json:"payment_id,omitempty"`
	CheckoutURL *string    `json:"checkout_url,omitempty"`
	Remaining   *int       `json:"remaining_classes,omitempty"`
}

func FromAdmission(a *service.Admission) AdmissionResponse {
	out := AdmissionResponse{
		BookingID: a.Booking.BookingID,
		Status:    string(a.Booking.BookingStatus),
		Mode:      a.Mode.ModeName(),
		Message:   a.Message,
		IsTrial:   a.Booking.BookingIsTrial,
		PaymentID: a.Booking.BookingPaymentID,
	}
	if q, ok := a.Mode.(service.Quota); ok && !q.Unlimited && !q.StaffOverride {
		// the new booking is already consumed
		left := service.Remaining(q.Limit, q.Consumed+1)
		out.Remaining = &left
	}
	return out
}

type BulkBookingDetail struct {
	Bulk     *model.BulkBookingModel `json:"bulk_booking"`
	Bookings []BookingResponse       `json:"bookings"`
}
