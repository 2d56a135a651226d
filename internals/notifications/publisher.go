package notifications

import (
	"context"

	"github.com/rs/zerolog/log"
)

// Publisher hands an event to the outside world.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// LogPublisher only logs; used when no broker is configured.
type LogPublisher struct{}

func (LogPublisher) Publish(ctx context.Context, ev Event) error {
	log.Ctx(ctx).Info().
		Str("event_id", ev.ID.String()).
		Str("type", string(ev.Type)).
		Str("client_id", ev.ClientID.String()).
		Int("bookings", len(ev.BookingIDs)).
		Msg("notification event (log publisher)")
	return nil
}

func (LogPublisher) Close() error { return nil }
