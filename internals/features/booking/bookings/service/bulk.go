package service

import (
	"context"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"

	bookingModel "studioku_backend/internals/features/booking/bookings/model"
	clientModel "studioku_backend/internals/features/studio/clients/model"
	"studioku_backend/internals/helpers/dbtime"
	"studioku_backend/internals/metrics"
)

type BulkItem struct {
	ScheduleID uuid.UUID
	ClassDate  time.Time
}

type BulkRequest struct {
	ClientID     uuid.UUID
	Items        []BulkItem
	MembershipID *uuid.UUID
	// >1 repeats every item weekly that many times
	NumberOfSlots int
	Actor         Actor
	SedeScope     []uuid.UUID
}

type BulkItemResult struct {
	ScheduleID uuid.UUID  `json:"schedule_id"`
	ClassDate  string     `json:"class_date"`
	Success    bool       `json:"success"`
	BookingID  *uuid.UUID `json:"booking_id,omitempty"`
	Status     string     `json:"status,omitempty"`
	Mode       string     `json:"mode,omitempty"`
	ErrorCode  ErrorCode  `json:"error_code,omitempty"`
	Error      string     `json:"error,omitempty"`
}

type BulkResult struct {
	BulkBookingID      uuid.UUID                      `json:"bulk_booking_id"`
	Status             bookingModel.BulkBookingStatus `json:"status"`
	TotalBookings      int                            `json:"total_bookings"`
	SuccessfulBookings int                            `json:"successful_bookings"`
	FailedBookings     int                            `json:"failed_bookings"`
	Results            []BulkItemResult               `json:"results"`
	// the tracking row still says "processing"; Results is authoritative
	TrackingStale bool `json:"tracking_stale,omitempty"`
}

// ExpandBulkItems repeats each item weekly n times (n <= 1 leaves the list
// as is). Order: every occurrence of item 0, then item 1, ...
func ExpandBulkItems(items []BulkItem, n int) []BulkItem {
	if n <= 1 {
		return items
	}
	out := make([]BulkItem, 0, len(items)*n)
	for _, it := range items {
		for k := 0; k < n; k++ {
			out = append(out, BulkItem{ScheduleID: it.ScheduleID, ClassDate: it.ClassDate.AddDate(0, 0, 7*k)})
		}
	}
	return out
}

// AdmitBatch admits items one by one, each in its own transaction, so a
// failing item never rolls back its siblings. The tracking record is written
// before the first item and finalized after the last.
func (s *Service) AdmitBatch(ctx context.Context, req BulkRequest) (res *BulkResult, err error) {
	ctx, span := tracer.Start(ctx, "bookings.AdmitBatch", trace.WithAttributes(
		attribute.String("client_id", req.ClientID.String()),
		attribute.Int("items", len(req.Items)),
	))
	defer func() { endSpan(span, err) }()

	if len(req.Items) == 0 {
		return nil, ErrEmptyBatch
	}
	if len(req.Items) > s.bulkMax {
		return nil, withMessage(ErrTooManyItems, "at most %d items per request", s.bulkMax)
	}
	items := ExpandBulkItems(req.Items, req.NumberOfSlots)
	if len(items) > s.bulkMax {
		return nil, withMessage(ErrTooManyItems, "%d classes requested, at most %d per request", len(items), s.bulkMax)
	}

	var client clientModel.ClientModel
	bulk := &bookingModel.BulkBookingModel{
		BulkBookingID:           uuid.New(),
		BulkBookingClientID:     req.ClientID,
		BulkBookingMembershipID: req.MembershipID,
		BulkBookingTotal:        len(items),
		BulkBookingStatus:       bookingModel.BulkStatusProcessing,
		BulkBookingCreatedBy:    req.Actor.userRef(),
	}
	err = s.tx.InTx(ctx, func(repo Repository) error {
		c, err := repo.GetClient(ctx, req.ClientID)
		if err != nil {
			return fmt.Errorf("get client: %w", err)
		}
		if c == nil || !clientInScope(req.SedeScope, c.ClientSedeID) {
			return ErrClientNotFound
		}
		client = *c
		return wrapInfra("create bulk booking", repo.CreateBulkBooking(ctx, bulk))
	})
	if err != nil {
		return nil, err
	}

	res = &BulkResult{
		BulkBookingID: bulk.BulkBookingID,
		TotalBookings: len(items),
		Results:       make([]BulkItemResult, 0, len(items)),
	}
	bulkID := bulk.BulkBookingID
	for _, it := range items {
		r := BulkItemResult{ScheduleID: it.ScheduleID}
		if !it.ClassDate.IsZero() {
			r.ClassDate = dbtime.FormatDate(calendarDate(it.ClassDate))
		}

		adm, aerr := s.admit(ctx, AdmitRequest{
			ClientID:      req.ClientID,
			ScheduleID:    it.ScheduleID,
			ClassDate:     it.ClassDate,
			MembershipID:  req.MembershipID,
			Actor:         req.Actor,
			BulkBookingID: &bulkID,
			SedeScope:     req.SedeScope,
		})
		if aerr != nil {
			r.ErrorCode = CodeOf(aerr)
			if ae, ok := AsAdmissionError(aerr); ok {
				r.Error = ae.Message
			} else {
				r.Error = "internal error while booking this class"
			}
			res.FailedBookings++
		} else {
			id := adm.Booking.BookingID
			r.Success = true
			r.BookingID = &id
			r.Status = string(adm.Booking.BookingStatus)
			r.Mode = adm.Mode.ModeName()
			res.SuccessfulBookings++
			client = adm.Client
		}
		res.Results = append(res.Results, r)
	}
	res.Status = bookingModel.DeriveBulkStatus(res.SuccessfulBookings, res.FailedBookings)

	raw, err := sonic.Marshal(res.Results)
	if err != nil {
		return nil, fmt.Errorf("encode bulk results: %w", err)
	}
	bulk.BulkBookingSuccessful = res.SuccessfulBookings
	bulk.BulkBookingFailed = res.FailedBookings
	bulk.BulkBookingStatus = res.Status
	bulk.BulkBookingResults = datatypes.JSON(raw)

	if err := s.tx.InTx(ctx, func(repo Repository) error {
		return repo.SaveBulkBooking(ctx, bulk)
	}); err != nil {
		// item bookings are committed; only the tracking row is stale
		log.Ctx(ctx).Error().Err(err).Str("bulk_booking_id", bulkID.String()).Msg("finalize bulk booking failed")
		res.TrackingStale = true
	}

	metrics.BulkBatches.WithLabelValues(string(res.Status)).Inc()
	span.SetAttributes(
		attribute.String("status", string(res.Status)),
		attribute.Int("successful", res.SuccessfulBookings),
	)
	if res.SuccessfulBookings > 0 {
		s.events.Dispatch(ctx, bulkEvent(res, client, req.Actor))
	}
	return res, nil
}
