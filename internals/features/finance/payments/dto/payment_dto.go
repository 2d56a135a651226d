package dto

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"studioku_backend/internals/features/finance/payments/model"
	"studioku_backend/internals/helpers/dbtime"
)

/* =========================================================
   REQUEST
========================================================= */

// RecordPaymentRequest is a payment taken at the desk (cash/transfer/card).
type RecordPaymentRequest struct {
	ClientID            uuid.UUID  `json:"client_id" validate:"required"`
	MembershipID        uuid.UUID  `json:"membership_id" validate:"required"`
	PromotionID         *uuid.UUID `json:"promotion_id"`
	PromotionInstanceID *uuid.UUID `json:"promotion_instance_id"`
	BookingID           *uuid.UUID `json:"booking_id"` // settles an individual-class deposit

	Amount       int64   `json:"amount" validate:"gte=0"`
	ExtraClasses int     `json:"extra_classes" validate:"gte=0,lte=100"`
	DatePaid     string  `json:"date_paid" validate:"omitempty,datetime=2006-01-02"`
	ValidFrom    string  `json:"valid_from" validate:"omitempty,datetime=2006-01-02"`
	ValidUntil   string  `json:"valid_until" validate:"omitempty,datetime=2006-01-02"`
	Method       string  `json:"method" validate:"required,oneof=cash transfer card"`
	Notes        *string `json:"notes" validate:"omitempty,max=500"`
}

// Dates parses date_paid (default today) and the optional window bounds.
func (r RecordPaymentRequest) Dates(today time.Time) (paid time.Time, from, until *time.Time, err error) {
	paid = today
	if s := strings.TrimSpace(r.DatePaid); s != "" {
		if paid, err = dbtime.ParseDate(s); err != nil {
			return
		}
	}
	if s := strings.TrimSpace(r.ValidFrom); s != "" {
		var t time.Time
		if t, err = dbtime.ParseDate(s); err != nil {
			return
		}
		from = &t
	}
	if s := strings.TrimSpace(r.ValidUntil); s != "" {
		var t time.Time
		if t, err = dbtime.ParseDate(s); err != nil {
			return
		}
		until = &t
	}
	return
}

func (r RecordPaymentRequest) ToModel() *model.PaymentModel {
	m := &model.PaymentModel{
		PaymentClientID:            r.ClientID,
		PaymentMembershipID:        r.MembershipID,
		PaymentPromotionID:         r.PromotionID,
		PaymentPromotionInstanceID: r.PromotionInstanceID,
		PaymentBookingID:           r.BookingID,
		PaymentAmount:              r.Amount,
		PaymentExtraClasses:        r.ExtraClasses,
		PaymentMethod:              model.PaymentMethod(r.Method),
		PaymentStatus:              model.PaymentStatusPaid,
	}
	if r.Notes != nil {
		n := strings.TrimSpace(*r.Notes)
		if n != "" {
			m.PaymentNotes = &n
		}
	}
	return m
}

/* =========================================================
   RESPONSE
========================================================= */

type PaymentResponse struct {
	PaymentID           uuid.UUID  `json:"payment_id"`
	ClientID            uuid.UUID  `json:"client_id"`
	MembershipID        uuid.UUID  `json:"membership_id"`
	PromotionID         *uuid.UUID `json:"promotion_id,omitempty"`
	PromotionInstanceID *uuid.UUID `json:"promotion_instance_id,omitempty"`
	BookingID           *uuid.UUID `json:"booking_id,omitempty"`

	Amount       int64  `json:"amount"`
	ExtraClasses int    `json:"extra_classes"`
	DatePaid     string `json:"date_paid"`
	ValidFrom    string `json:"valid_from"`
	ValidUntil   string `json:"valid_until"`
	Method       string `json:"method"`
	Status       string `json:"status"`

	ExternalID  *string    `json:"external_id,omitempty"`
	CheckoutURL *string    `json:"checkout_url,omitempty"`
	PaidAt      *time.Time `json:"paid_at,omitempty"`
	Notes       *string    `json:"notes,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

func FromModel(m *model.PaymentModel) PaymentResponse {
	return PaymentResponse{
		PaymentID:           m.PaymentID,
		ClientID:            m.PaymentClientID,
		MembershipID:        m.PaymentMembershipID,
		PromotionID:         m.PaymentPromotionID,
		PromotionInstanceID: m.PaymentPromotionInstanceID,
		BookingID:           m.PaymentBookingID,
		Amount:              m.PaymentAmount,
		ExtraClasses:        m.PaymentExtraClasses,
		DatePaid:            dbtime.FormatDate(m.PaymentDatePaid),
		ValidFrom:           dbtime.FormatDate(m.PaymentValidFrom),
		ValidUntil:          dbtime.FormatDate(m.PaymentValidUntil),
		Method:              string(m.PaymentMethod),
		Status:              string(m.PaymentStatus),
		ExternalID:          m.PaymentExternalID,
		CheckoutURL:         m.PaymentCheckoutURL,
		PaidAt:              m.PaymentPaidAt,
		Notes:               m.PaymentNotes,
		CreatedAt:           m.PaymentCreatedAt,
	}
}

func FromModels(rows []model.PaymentModel) []PaymentResponse {
	out := make([]PaymentResponse, 0, len(rows))
	for i := range rows {
		out = append(out, FromModel(&rows[i]))
	}
	return out
}

/* =========================================================
   MIDTRANS NOTIFICATION
========================================================= */

type MidtransNotification struct {
	TransactionTime   string `json:"transaction_time"`
	TransactionStatus string `json:"transaction_status"`
	StatusCode        string `json:"status_code"`
	SignatureKey      string `json:"signature_key"`
	OrderID           string `json:"order_id"`
	GrossAmount       string `json:"gross_amount"`
	PaymentType       string `json:"payment_type"`
	FraudStatus       string `json:"fraud_status"`
	TransactionID     string `json:"transaction_id"`
}
