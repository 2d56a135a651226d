package service

import (
	"context"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	midtrans "github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"
	"gorm.io/gorm"

	"studioku_backend/internals/features/finance/payments/model"
)

/* =========================================================
   Midtrans Client
========================================================= */

var (
	SnapClient snap.Client
	snapReady  bool
)

var ErrGatewayDisabled = errors.New("payment gateway is not configured")

// InitMidtrans must run at bootstrap. An empty server key leaves checkout
// disabled.
func InitMidtrans(serverKey string, useProduction bool) {
	if strings.TrimSpace(serverKey) == "" {
		snapReady = false
		return
	}
	if useProduction {
		SnapClient.New(serverKey, midtrans.Production)
	} else {
		SnapClient.New(serverKey, midtrans.Sandbox)
	}
	snapReady = true
}

func GatewayEnabled() bool { return snapReady }

type CustomerInput struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
}

/* =========================================================
   Deposit checkout (individual classes)
========================================================= */

type DepositCheckoutInput struct {
	ClientID     uuid.UUID
	MembershipID uuid.UUID
	BookingID    uuid.UUID
	Amount       int64
	ValidityDays int
	Today        time.Time
	RecordedBy   *uuid.UUID
	Description  string
	Customer     CustomerInput
}

// CreateDepositCheckout stores a pending gateway payment linked to the
// booking, then asks Snap for a token. The payment row is kept even when
// Snap fails so the webhook can still find it by order id.
func CreateDepositCheckout(ctx context.Context, db *gorm.DB, in DepositCheckoutInput) (*model.PaymentModel, error) {
	if !snapReady {
		return nil, ErrGatewayDisabled
	}
	if in.Amount <= 0 {
		return nil, errors.New("deposit amount must be positive")
	}

	from, until, err := NormalizeWindow(in.Today, nil, nil, in.ValidityDays)
	if err != nil {
		return nil, err
	}
	orderID := NewOrderID("DEP")
	bookingID := in.BookingID
	now := time.Now().UTC()

	p := &model.PaymentModel{
		PaymentClientID:     in.ClientID,
		PaymentMembershipID: in.MembershipID,
		PaymentBookingID:    &bookingID,
		PaymentAmount:       in.Amount,
		PaymentDatePaid:     from,
		PaymentValidFrom:    from,
		PaymentValidUntil:   until,
		PaymentMethod:       model.PaymentMethodGateway,
		PaymentStatus:       model.PaymentStatusPending,
		PaymentExternalID:   &orderID,
		PaymentRecordedBy:   in.RecordedBy,
	}
	if err := db.WithContext(ctx).Create(p).Error; err != nil {
		return nil, fmt.Errorf("create deposit payment: %w", err)
	}

	token, redirectURL, err := GenerateSnapToken(p, in.Description, in.Customer)
	if err != nil {
		return p, fmt.Errorf("midtrans: %w", err)
	}
	if err := db.WithContext(ctx).
		Model(p).
		Updates(map[string]any{
			"payment_checkout_url":      redirectURL,
			"payment_gateway_reference": token,
			"payment_updated_at":        now,
		}).Error; err != nil {
		return p, fmt.Errorf("save snap token: %w", err)
	}
	p.PaymentCheckoutURL = &redirectURL
	p.PaymentGatewayReference = &token
	return p, nil
}

func GenerateSnapToken(p *model.PaymentModel, description string, cust CustomerInput) (string, string, error) {
	if p.PaymentExternalID == nil || *p.PaymentExternalID == "" {
		return "", "", errors.New("payment_external_id is required (used as OrderID)")
	}
	name := truncate(defaultString(description, "Individual class deposit"), 50)

	req := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  *p.PaymentExternalID,
			GrossAmt: p.PaymentAmount,
		},
		CustomerDetail: &midtrans.CustomerDetails{
			FName: cust.FirstName,
			LName: cust.LastName,
			Email: cust.Email,
			Phone: cust.Phone,
		},
		Items: &[]midtrans.ItemDetails{{
			ID:       *p.PaymentExternalID,
			Price:    p.PaymentAmount,
			Qty:      1,
			Name:     name,
			Category: "class_deposit",
		}},
	}

	resp, err := SnapClient.CreateTransaction(req)
	if err != nil {
		return "", "", err
	}
	return resp.Token, resp.RedirectURL, nil
}

// NewOrderID is unique per payment and short enough for Midtrans (50 chars).
func NewOrderID(prefix string) string {
	return prefix + "-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:20]
}

/* =========================================================
   Webhook helpers
========================================================= */

// VerifySignature checks SHA512(order_id + status_code + gross_amount + server_key).
func VerifySignature(orderID, statusCode, grossAmount, serverKey, signature string) bool {
	want := strings.ToLower(strings.TrimSpace(signature))
	if want == "" || serverKey == "" {
		return false
	}
	return sha512sum(orderID+statusCode+grossAmount+serverKey) == want
}

func sha512sum(s string) string {
	h := sha512.Sum512([]byte(s))
	return hex.EncodeToString(h[:])
}

// MapMidtransStatus maps a notification to a payment status. ok=false means
// the notification does not move the payment (pending, challenge, refunds).
func MapMidtransStatus(transactionStatus, fraudStatus string) (model.PaymentStatus, bool) {
	switch strings.ToLower(transactionStatus) {
	case "capture":
		switch strings.ToLower(fraudStatus) {
		case "accept", "":
			return model.PaymentStatusPaid, true
		case "challenge":
			return "", false
		}
		return model.PaymentStatusFailed, true
	case "settlement":
		return model.PaymentStatusPaid, true
	case "deny", "failure":
		return model.PaymentStatusFailed, true
	case "cancel":
		return model.PaymentStatusCanceled, true
	case "expire":
		return model.PaymentStatusExpired, true
	}
	return "", false
}

/* =========================================================
   Utils
========================================================= */

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	return s[:n]
}

func defaultString(s string, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
