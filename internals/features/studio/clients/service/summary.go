package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	bookingModel "studioku_backend/internals/features/booking/bookings/model"
	paymentModel "studioku_backend/internals/features/finance/payments/model"
	paymentService "studioku_backend/internals/features/finance/payments/service"
	"studioku_backend/internals/features/studio/clients/model"
)

var ErrClientNotFound = errors.New("client not found")

const upcomingLimit = 10

type Summary struct {
	Client        model.ClientModel           `json:"client"`
	ActivePayment *paymentModel.PaymentModel  `json:"active_payment"`
	Upcoming      []bookingModel.BookingModel `json:"upcoming_bookings"`
}

// LoadSummary fetches the client, its active payment and the next bookings
// concurrently.
func LoadSummary(ctx context.Context, db *gorm.DB, clientID uuid.UUID, today time.Time) (*Summary, error) {
	var out Summary
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := db.WithContext(gctx).First(&out.Client, "client_id = ?", clientID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrClientNotFound
		}
		return err
	})
	g.Go(func() error {
		p, err := paymentService.ActivePayment(gctx, db, clientID, today)
		out.ActivePayment = p
		return err
	})
	g.Go(func() error {
		err := db.WithContext(gctx).
			Where("booking_client_id = ?", clientID).
			Where("booking_class_date >= ?", today).
			Where("booking_status IN ?", []bookingModel.BookingStatus{bookingModel.BookingStatusActive, bookingModel.BookingStatusPending}).
			Order("booking_class_date ASC, booking_created_at ASC").
			Limit(upcomingLimit).
			Find(&out.Upcoming).Error
		if err != nil {
			return fmt.Errorf("upcoming bookings: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &out, nil
}
