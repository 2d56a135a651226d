package service

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// ErrorCode is the stable machine-readable reason sent as error_code.
type ErrorCode string

const (
	CodeDuplicateBooking         ErrorCode = "DUPLICATE_BOOKING"
	CodeCapacityExceeded         ErrorCode = "CAPACITY_EXCEEDED"
	CodeNoActiveMembership       ErrorCode = "NO_ACTIVE_MEMBERSHIP"
	CodeQuotaExceeded            ErrorCode = "QUOTA_EXCEEDED"
	CodeInvalidPromotionInstance ErrorCode = "INVALID_PROMOTION_INSTANCE"
	CodePromotionInactive        ErrorCode = "PROMOTION_INACTIVE"
	CodeInvalidDate              ErrorCode = "INVALID_DATE"
	CodeScheduleNotFound         ErrorCode = "SCHEDULE_NOT_FOUND"
	CodeClientNotFound           ErrorCode = "CLIENT_NOT_FOUND"
	CodeMembershipNotFound       ErrorCode = "MEMBERSHIP_NOT_FOUND"
	CodeMembershipOutOfScope     ErrorCode = "MEMBERSHIP_OUT_OF_SCOPE"
	CodeBookingNotFound          ErrorCode = "BOOKING_NOT_FOUND"
	CodeBookingNotActive         ErrorCode = "BOOKING_NOT_ACTIVE"
	CodeInvalidCancellation      ErrorCode = "INVALID_CANCELLATION_TYPE"
	CodeInvalidAttendance        ErrorCode = "INVALID_ATTENDANCE_STATUS"
	CodeTooManyItems             ErrorCode = "TOO_MANY_ITEMS"
	CodeEmptyBatch               ErrorCode = "EMPTY_BATCH"
	CodeSubmitInProgress         ErrorCode = "SUBMIT_IN_PROGRESS"
	CodePaymentNotFound          ErrorCode = "PAYMENT_NOT_FOUND"
	CodeInternal                 ErrorCode = "INTERNAL_ERROR"
)

// AdmissionError is a user-facing rejection. Anything that is not an
// AdmissionError is a persistence/infrastructure failure (500).
type AdmissionError struct {
	Code    ErrorCode
	Status  int
	Message string
}

func (e *AdmissionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is matches on code so errors.Is(err, ErrQuotaExceeded) works for any
// message variant.
func (e *AdmissionError) Is(target error) bool {
	var t *AdmissionError
	if errors.As(target, &t) {
		return t.Code == e.Code
	}
	return false
}

func newErr(code ErrorCode, status int, msg string) *AdmissionError {
	return &AdmissionError{Code: code, Status: status, Message: msg}
}

// Sentinels; use withMessage for a more specific text.
var (
	ErrDuplicateBooking         = newErr(CodeDuplicateBooking, fiber.StatusConflict, "client already has a booking for this class")
	ErrCapacityExceeded         = newErr(CodeCapacityExceeded, fiber.StatusConflict, "class is full")
	ErrNoActiveMembership       = newErr(CodeNoActiveMembership, fiber.StatusUnprocessableEntity, "client has no active membership")
	ErrQuotaExceeded            = newErr(CodeQuotaExceeded, fiber.StatusUnprocessableEntity, "class limit reached for the active membership")
	ErrInvalidPromotionInstance = newErr(CodeInvalidPromotionInstance, fiber.StatusUnprocessableEntity, "promotion is not linked to this client")
	ErrPromotionInactive        = newErr(CodePromotionInactive, fiber.StatusUnprocessableEntity, "promotion is outside its valid dates")
	ErrInvalidDate              = newErr(CodeInvalidDate, fiber.StatusBadRequest, "invalid class date")
	ErrScheduleNotFound         = newErr(CodeScheduleNotFound, fiber.StatusNotFound, "schedule not found")
	ErrClientNotFound           = newErr(CodeClientNotFound, fiber.StatusNotFound, "client not found")
	ErrMembershipNotFound       = newErr(CodeMembershipNotFound, fiber.StatusNotFound, "membership not found")
	ErrMembershipOutOfScope     = newErr(CodeMembershipOutOfScope, fiber.StatusUnprocessableEntity, "membership is not valid at this sede")
	ErrBookingNotFound          = newErr(CodeBookingNotFound, fiber.StatusNotFound, "booking not found")
	ErrBookingNotActive         = newErr(CodeBookingNotActive, fiber.StatusConflict, "booking is already cancelled")
	ErrInvalidCancellation      = newErr(CodeInvalidCancellation, fiber.StatusBadRequest, "cancelled_by must be client, instructor or admin")
	ErrInvalidAttendance        = newErr(CodeInvalidAttendance, fiber.StatusBadRequest, "attendance_status must be pending, attended or no_show")
	ErrTooManyItems             = newErr(CodeTooManyItems, fiber.StatusBadRequest, "too many bulk items")
	ErrEmptyBatch               = newErr(CodeEmptyBatch, fiber.StatusBadRequest, "bulk request has no items")
	ErrSubmitInProgress         = newErr(CodeSubmitInProgress, fiber.StatusTooManyRequests, "an identical booking request is already being processed")
	ErrPaymentNotFound          = newErr(CodePaymentNotFound, fiber.StatusNotFound, "payment not found")
)

func withMessage(base *AdmissionError, format string, args ...any) *AdmissionError {
	return &AdmissionError{Code: base.Code, Status: base.Status, Message: fmt.Sprintf(format, args...)}
}

// AsAdmissionError unwraps err; ok=false for infrastructure errors.
func AsAdmissionError(err error) (*AdmissionError, bool) {
	var ae *AdmissionError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// CodeOf returns the error code, INTERNAL_ERROR for anything untyped.
func CodeOf(err error) ErrorCode {
	if ae, ok := AsAdmissionError(err); ok {
		return ae.Code
	}
	return CodeInternal
}
