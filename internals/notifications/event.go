package notifications

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventBookingConfirmed      EventType = "booking.confirmed"
	EventBookingPendingPayment EventType = "booking.pending_payment"
	EventBookingCancelled      EventType = "booking.cancelled"
	EventBookingRescheduled    EventType = "booking.rescheduled"
	EventBulkCompleted         EventType = "bulk.completed"
	EventDepositConfirmed      EventType = "booking.deposit_confirmed"
)

// Event is what leaves the process after a booking transaction commits.
// Delivery (mail, push) is the consumer's business.
type Event struct {
	ID          uuid.UUID      `json:"id"`
	Type        EventType      `json:"type"`
	ClientID    uuid.UUID      `json:"client_id"`
	ClientEmail string         `json:"client_email,omitempty"`
	ClientName  string         `json:"client_name,omitempty"`
	ActorUserID *uuid.UUID     `json:"actor_user_id,omitempty"`
	BookingIDs  []uuid.UUID    `json:"booking_ids,omitempty"`
	Payload     map[string]any `json:"payload,omitempty"`
	OccurredAt  time.Time      `json:"occurred_at"`
}

// NewEvent stamps id and time.
func NewEvent(t EventType, clientID uuid.UUID) Event {
	return Event{
		ID:         uuid.New(),
		Type:       t,
		ClientID:   clientID,
		OccurredAt: time.Now().UTC(),
		Payload:    map[string]any{},
	}
}
